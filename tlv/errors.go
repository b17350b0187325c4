package tlv

import (
	"errors"
)

// ErrNeedMoreData is returned when the input ends before a complete header
// has been parsed. It does not indicate a malformed encoding: the same call
// may succeed once more input is available.
var ErrNeedMoreData = errors.New("tlv: need more data")

var (
	errInvalidEOC     = errors.New("invalid end of contents")
	errTruncated      = errors.New("truncated data value")
	errLengthTooLarge = errors.New("length too large")
	errTagTooLarge    = errors.New("tag number too large")
	errReservedLength = errors.New("reserved length octet 0xFF")
	errIndefinite     = errors.New("indefinite length in strict mode")
	errIndefinitePrim = errors.New("indefinite-length primitive data value")
	errLengthNotMin   = errors.New("length not minimally encoded")
	errTagNotMin      = errors.New("tag number not minimally encoded")
	errExceedsParent  = errors.New("data value exceeds parent")
)
