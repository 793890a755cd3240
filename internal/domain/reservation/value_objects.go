package reservation

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrEndNotAfterStart = errors.New("end time must be after start time")
	ErrStartInPast      = errors.New("start time cannot be in the past")
)

// OverlapPolicy selects the conflict predicate. HalfOpen treats intervals as
// [start, end): touching boundaries do not conflict. Inclusive reproduces the
// legacy closed-bound check that rejects adjacent bookings.
type OverlapPolicy string

const (
	OverlapHalfOpen  OverlapPolicy = "half_open"
	OverlapInclusive OverlapPolicy = "inclusive"
)

func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch OverlapPolicy(strings.ToLower(s)) {
	case OverlapHalfOpen, "":
		return OverlapHalfOpen, nil
	case OverlapInclusive:
		return OverlapInclusive, nil
	default:
		return "", fmt.Errorf("unknown overlap policy %q", s)
	}
}

type TimeSlot struct {
	start time.Time
	end   time.Time
}

// NewTimeSlot validates a candidate rental interval against the supplied
// current time. Callers pass their clock so the constructor stays
// deterministic under test.
func NewTimeSlot(start, end, now time.Time) (TimeSlot, error) {
	if !end.After(start) {
		return TimeSlot{}, ErrEndNotAfterStart
	}
	if start.Before(now) {
		return TimeSlot{}, ErrStartInPast
	}
	return TimeSlot{start: start, end: end}, nil
}

// ReconstructTimeSlot rehydrates a stored interval without the creation-time
// validation; past intervals are legitimate for persisted reservations.
func ReconstructTimeSlot(start, end time.Time) TimeSlot {
	return TimeSlot{start: start, end: end}
}

func (ts TimeSlot) Start() time.Time {
	return ts.start
}

func (ts TimeSlot) End() time.Time {
	return ts.end
}

func (ts TimeSlot) Duration() time.Duration {
	return ts.end.Sub(ts.start)
}

// Hours reports the billable duration in whole hours, rounded up.
func (ts TimeSlot) Hours() int64 {
	d := ts.Duration()
	h := int64(d / time.Hour)
	if d%time.Hour != 0 {
		h++
	}
	return h
}

func (ts TimeSlot) Overlaps(other TimeSlot, policy OverlapPolicy) bool {
	if policy == OverlapInclusive {
		return !ts.start.After(other.end) && !ts.end.Before(other.start)
	}
	return ts.start.Before(other.end) && ts.end.After(other.start)
}

func (ts TimeSlot) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s)", ts.start.Format(time.RFC3339), ts.end.Format(time.RFC3339))
}

// NewReferenceCode produces the human-readable booking code shown to both
// parties, e.g. "BK1756712345ABCDE".
func NewReferenceCode(now time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	suffix := strings.ToUpper(hex.EncodeToString(buf))
	return fmt.Sprintf("BK%d%s", now.Unix(), suffix)
}
