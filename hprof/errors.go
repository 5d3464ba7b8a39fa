package hprof

import "errors"

// Decoding errors. Decoders wrap one of these sentinels so callers can
// classify failures with errors.Is. A class lookup that fails during
// instance field projection is reported without a sentinel.
var (
	// ErrTruncated means a decoder needed more bytes than the range offered.
	ErrTruncated = errors.New("unexpected end of input")

	// ErrIDSize means the header declared an identifier size other than 4 or 8.
	ErrIDSize = errors.New("unsupported identifier size")

	// ErrLength means a declared count or length would read past the
	// enclosing body. It also marks a value or array element type code
	// with no known size, whose extent therefore cannot be determined.
	ErrLength = errors.New("inconsistent length")

	// ErrBadSubTag means a heap dump sub-record tag is not recognised.
	// The sub-record stream is not self-delimiting, so the scan cannot
	// continue past it.
	ErrBadSubTag = errors.New("unknown heap dump sub-record tag")

	// ErrFieldBlob means instance field projection over- or under-consumed
	// the instance field data.
	ErrFieldBlob = errors.New("instance field data mismatch")

	// ErrSuperCycle means a superclass chain revisited a class.
	ErrSuperCycle = errors.New("superclass chain cycle")
)
