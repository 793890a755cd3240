//go:build unit

package reservation_test

import (
	"testing"
	"time"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/reservation"
	"gearshare/internal/domain/resource"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResource(t *testing.T, ownerID uuid.UUID) *resource.Resource {
	t.Helper()
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	res, err := resource.NewResource(
		ownerID,
		"Canon EOS R5 kit",
		"Full-frame body with two lenses",
		resource.PricingTiers{
			Daily:    rate(50),
			Weekly:   rate(300),
			Deposit:  money.FromFloat(100),
			Currency: "USD",
		},
		resource.DeliveryTerms{Available: true, Fee: money.FromFloat(15)},
		now,
	)
	require.NoError(t, err)
	return res
}

func newPendingReservation(t *testing.T) (*reservation.Reservation, time.Time) {
	t.Helper()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ownerID := uuid.New()
	renterID := uuid.New()
	res := testResource(t, ownerID)

	slot, err := reservation.NewTimeSlot(now.Add(72*time.Hour), now.Add(96*time.Hour), now)
	require.NoError(t, err)

	pricing := reservation.NewBreakdown(
		money.FromFloat(50), money.FromFloat(100), money.FromFloat(5),
		money.Zero(), money.Zero(), "USD",
	)

	created, err := reservation.NewReservation(res, renterID, slot, pricing, false, now)
	require.NoError(t, err)
	return created, now
}

func TestNewReservation(t *testing.T) {
	t.Run("starts pending with payment pending", func(t *testing.T) {
		r, now := newPendingReservation(t)

		assert.Equal(t, reservation.StatusPending, r.Status())
		assert.Equal(t, reservation.PaymentPending, r.Payment().Status)
		assert.Equal(t, int64(1), r.Version())
		assert.Equal(t, now, r.RequestedAt())
		assert.NotEmpty(t, r.Reference())
		assert.Nil(t, r.ConfirmedAt())
	})

	t.Run("rejects self booking", func(t *testing.T) {
		now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
		ownerID := uuid.New()
		res := testResource(t, ownerID)

		slot, err := reservation.NewTimeSlot(now.Add(time.Hour), now.Add(2*time.Hour), now)
		require.NoError(t, err)

		pricing := reservation.NewBreakdown(
			money.FromFloat(50), money.Zero(), money.Zero(),
			money.Zero(), money.Zero(), "USD",
		)

		_, err = reservation.NewReservation(res, ownerID, slot, pricing, false, now)
		require.ErrorIs(t, err, reservation.ErrSelfBooking)
	})
}

func TestLifecycleTimestamps(t *testing.T) {
	r, now := newPendingReservation(t)

	changed, err := r.Approve(now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, r.ConfirmedAt())
	confirmedAt := *r.ConfirmedAt()

	// An idempotent repeat must not move the timestamp.
	changed, err = r.Approve(now.Add(2 * time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, confirmedAt, *r.ConfirmedAt())

	changed, err = r.Start(now.Add(72 * time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, reservation.StatusActive, r.Status())

	changed, err = r.Complete(now.Add(96 * time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	require.NotNil(t, r.CompletedAt())
	assert.Equal(t, reservation.StatusCompleted, r.Status())
}

func TestExpireStampsCancelledAt(t *testing.T) {
	r, now := newPendingReservation(t)

	changed, err := r.Expire(now.Add(49 * time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, reservation.StatusExpired, r.Status())
	assert.NotNil(t, r.CancelledAt())
}

func TestInvalidTransitionSurfacesBothStates(t *testing.T) {
	r, now := newPendingReservation(t)

	_, err := r.Complete(now)
	require.Error(t, err)

	var transitionErr *reservation.StateTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, reservation.StatusPending, transitionErr.From)
	assert.Equal(t, reservation.StatusCompleted, transitionErr.Requested)
}

func TestDisputeFreezesAndResolves(t *testing.T) {
	r, now := newPendingReservation(t)
	raisedBy := r.RenterID()

	_, err := r.Approve(now)
	require.NoError(t, err)

	changed, err := r.OpenDispute("item arrived damaged", raisedBy, now.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, reservation.StatusDisputed, r.Status())
	require.NotNil(t, r.Dispute())
	assert.Equal(t, "item arrived damaged", r.Dispute().Reason)
	assert.Equal(t, raisedBy, r.Dispute().RaisedBy)

	// A disputed reservation ignores clock-driven transitions.
	_, err = r.Complete(now.Add(200 * time.Hour))
	require.Error(t, err)

	changed, err = r.Resolve(reservation.ResolutionCancelled, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, reservation.StatusCancelled, r.Status())

	// Resolving again with the same outcome is a no-op.
	changed, err = r.Resolve(reservation.ResolutionCancelled, now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestResolveRequiresDisputedState(t *testing.T) {
	r, _ := newPendingReservation(t)

	_, err := r.Resolve(reservation.ResolutionCompleted, time.Now())
	require.Error(t, err)
	assert.True(t, reservation.IsStateTransitionError(err))

	_, err = r.Resolve("split_the_difference", time.Now())
	require.ErrorIs(t, err, reservation.ErrUnknownOutcome)
}

func TestRecordRefund(t *testing.T) {
	r, now := newPendingReservation(t)
	_, err := r.Approve(now)
	require.NoError(t, err)
	r.MarkPaid(now)

	t.Run("partial refund", func(t *testing.T) {
		quote := reservation.ComputeRefund(r.Pricing(), r.Slot().Start(), now.Add(40*time.Hour), reservation.ActorRenter)
		require.Equal(t, 0.5, quote.Percentage)

		r.RecordRefund("plans changed", quote, now.Add(40*time.Hour))
		require.NotNil(t, r.Refund())
		assert.Equal(t, reservation.PaymentPartiallyRefunded, r.Payment().Status)
	})
}

func TestRecordRefundFull(t *testing.T) {
	r, now := newPendingReservation(t)
	_, err := r.Approve(now)
	require.NoError(t, err)
	r.MarkPaid(now)

	quote := reservation.ComputeRefund(r.Pricing(), r.Slot().Start(), now, reservation.ActorOwner)
	require.Equal(t, 1.0, quote.Percentage)

	r.RecordRefund("owner cancelled", quote, now)
	assert.Equal(t, reservation.PaymentRefunded, r.Payment().Status)
}

func TestRecordRefundZeroPercentageIsSkipped(t *testing.T) {
	r, now := newPendingReservation(t)

	quote := reservation.RefundQuote{Percentage: 0, Amount: money.Zero()}
	r.RecordRefund("too late", quote, now)
	assert.Nil(t, r.Refund())
}

func TestActorFor(t *testing.T) {
	r, _ := newPendingReservation(t)

	actor, ok := r.ActorFor(r.RenterID())
	assert.True(t, ok)
	assert.Equal(t, reservation.ActorRenter, actor)

	actor, ok = r.ActorFor(r.OwnerID())
	assert.True(t, ok)
	assert.Equal(t, reservation.ActorOwner, actor)

	_, ok = r.ActorFor(uuid.New())
	assert.False(t, ok)
}

func TestClockPredicates(t *testing.T) {
	r, now := newPendingReservation(t)
	window := 48 * time.Hour

	assert.False(t, r.ShouldExpire(now.Add(47*time.Hour), window))
	assert.True(t, r.ShouldExpire(now.Add(49*time.Hour), window))

	_, err := r.Approve(now)
	require.NoError(t, err)
	assert.False(t, r.ShouldExpire(now.Add(100*time.Hour), window))

	assert.False(t, r.DueToStart(r.Slot().Start().Add(-time.Minute)))
	assert.True(t, r.DueToStart(r.Slot().Start()))

	_, err = r.Start(r.Slot().Start())
	require.NoError(t, err)
	assert.False(t, r.DueToComplete(r.Slot().End().Add(-time.Minute)))
	assert.True(t, r.DueToComplete(r.Slot().End()))
}
