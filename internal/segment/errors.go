package segment

import "errors"

var (
	// ErrDefect marks invariant violations. These are programming errors and
	// must never be retried.
	ErrDefect = errors.New("segment: invariant violation")

	// ErrDimensionMismatch is returned when a mask and an image disagree on size.
	ErrDimensionMismatch = errors.New("mask and image dimensions differ")
)
