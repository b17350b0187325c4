// Package vlq implements [Variable-length quantity] encoding as used in MIDI or
// BER. A VLQ is essentially a base-128 representation of an unsigned integer
// with the addition of the eighth bit to mark continuation of bytes. VLQ is
// identical to [LEB128] except in endianness.
//
// Decoding is done by an [Accumulator] that consumes one byte at a time, so a
// VLQ may be split across multiple input chunks.
//
// [Variable-length quantity]: https://en.wikipedia.org/wiki/Variable-length_quantity
// [LEB128]: https://en.wikipedia.org/wiki/LEB128
package vlq

import (
	"errors"
	"math/bits"
	"unsafe"
)

var (
	errNotMinimal = errors.New("vlq is not minimally encoded")
	errOverflow   = errors.New("vlq too large for target type")
)

// Unsigned is the set of types a VLQ can be decoded into.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Accumulator decodes a VLQ incrementally. The zero value is ready to use.
type Accumulator[T Unsigned] struct {
	v       T
	numBits int
	n       int // number of bytes added
}

// Add adds the next byte of the encoded VLQ. It returns true when b was the
// final byte of the VLQ. If minimal is true, a VLQ with leading zero groups is
// rejected.
//
// After Add returned true or an error, the Accumulator must be reset before it
// can be reused.
func (a *Accumulator[T]) Add(b byte, minimal bool) (done bool, err error) {
	if a.n == 0 && b == 0x80 && minimal {
		return false, errNotMinimal
	}
	a.n++
	a.v = a.v<<7 | T(b&0x7f)
	if a.numBits == 0 {
		a.numBits = bits.Len8(b & 0x7f)
	} else {
		a.numBits += 7
	}
	if a.numBits > int(unsafe.Sizeof(a.v)*8) {
		return false, errOverflow
	}
	return b&0x80 == 0, nil
}

// Value returns the value accumulated so far.
func (a *Accumulator[T]) Value() T { return a.v }

// Len returns the number of bytes added so far.
func (a *Accumulator[T]) Len() int { return a.n }

// Reset clears the state of a.
func (a *Accumulator[T]) Reset() { *a = Accumulator[T]{} }

// Size returns the number of bytes needed to encode n as a VLQ.
func Size[T Unsigned](n T) int {
	if n == 0 {
		return 1
	}
	l := 0
	for i := n; i > 0; i >>= 7 {
		l++
	}
	return l
}

// Append appends the VLQ encoding of i to dst and returns the extended slice.
func Append[T Unsigned](dst []byte, i T) []byte {
	for j := Size(i) - 1; j >= 0; j-- {
		b := byte(i>>(j*7)) & 0x7f
		if j > 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}
