package errs

import (
	cr "github.com/cockroachdb/errors"
)

// Thin facade over cockroachdb/errors so call sites stay decoupled from the
// underlying library.

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func New(msg string) error {
	return cr.New(msg)
}

func Newf(format string, args ...any) error {
	return cr.Newf(format, args...)
}

// Mark tags err with a sentinel so errors.Is(err, markErr) holds while the
// original cause is preserved for logging.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return cr.Mark(err, markErr)
}
