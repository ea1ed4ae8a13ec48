package huffman

import (
	"github.com/pkg/errors"
)

var (
	// ErrConfig is returned when the caller's parameters cannot produce a
	// valid container: a unit length outside [1, MaxUnitLen], a bad size
	// field width, or an encoded tree too large for its size field.  It is
	// always reported before any output is written.
	ErrConfig = errors.New("invalid configuration")

	// ErrMalformed is returned when a container is inconsistent or
	// truncated.  Decoded output that was already flushed before the
	// problem was detected is not rolled back.
	ErrMalformed = errors.New("malformed container")
)

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfig, format, args...)
}

func malformedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformed, format, args...)
}
