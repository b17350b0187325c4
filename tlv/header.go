package tlv

import (
	"io"
	"math"
	"math/bits"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/internal/vlq"
)

// maxHeaderLen is the maximum number of bytes AppendHeader produces:
//   - 1 identifier byte
//   - up to 10 bytes for a long-form tag number (64 bit uint)
//   - 1 byte for the number of length bytes
//   - up to 8 length bytes (64 bit int)
const maxHeaderLen = 20

// parser stages
const (
	stageIdentifier = iota
	stageTagNumber
	stageLength
	stageLengthBytes
	stageDone
)

// HeaderParser parses a TLV header that may be split across several input
// chunks. Bytes passed to [HeaderParser.Parse] are consumed exactly once: a
// partial header is kept inside the parser, so the caller never needs to
// buffer or re-submit it.
//
// The zero value is a ready-to-use parser accepting any valid BER header.
type HeaderParser struct {
	// Strict enables the restrictions of the Distinguished Encoding Rules:
	// indefinite lengths and non-minimal tag or length octets are rejected.
	Strict bool

	h        Header
	stage    uint8
	n        int // number of bytes consumed for the current header
	lenBytes int // number of length bytes still to be read
	longLen  bool
	tag      vlq.Accumulator[uint]
}

// Reset prepares p to parse a new header. The Strict setting is kept.
func (p *HeaderParser) Reset() {
	*p = HeaderParser{Strict: p.Strict}
}

// Started reports whether p has consumed at least one byte of a header that is
// not yet complete.
func (p *HeaderParser) Started() bool {
	return p.n > 0 && p.stage != stageDone
}

// Done reports whether p has parsed a complete header.
func (p *HeaderParser) Done() bool {
	return p.stage == stageDone
}

// Len returns the number of bytes consumed for the current header.
func (p *HeaderParser) Len() int {
	return p.n
}

// Header returns the parsed header. The result is only meaningful if
// [HeaderParser.Done] reports true.
func (p *HeaderParser) Header() Header {
	return p.h
}

// Parse consumes header bytes from b. It returns the number of bytes consumed
// from b. If b ends before the header is complete, all of b is consumed and
// [ErrNeedMoreData] is returned. Once a header is complete, Parse does not
// consume any further bytes until [HeaderParser.Reset] is called.
//
// Any other error indicates a malformed header. The state of p is undefined
// after such an error.
func (p *HeaderParser) Parse(b []byte) (n int, err error) {
	for ; n < len(b) && p.stage != stageDone; n++ {
		if err = p.step(b[n]); err != nil {
			return n + 1, err
		}
	}
	if p.stage != stageDone {
		return n, ErrNeedMoreData
	}
	return n, nil
}

// step processes a single header byte.
func (p *HeaderParser) step(b byte) error {
	p.n++
	switch p.stage {
	case stageIdentifier:
		p.h = Header{
			Tag:         asn1rt.Tag{Class: asn1rt.Class(b >> 6), Number: uint(b & 0x1f)},
			Constructed: b&0x20 == 0x20,
		}
		// If the bottom five bits are set, then the tag number is actually VLQ-encoded
		if b&0x1f == 0x1f {
			p.stage = stageTagNumber
		} else {
			p.stage = stageLength
		}
	case stageTagNumber:
		done, err := p.tag.Add(b, true)
		if err != nil {
			if p.tag.Len() == 0 {
				return errTagNotMin
			}
			return errTagTooLarge
		}
		if done {
			p.h.Tag.Number = p.tag.Value()
			if p.Strict && p.h.Tag.Number < 0x1f {
				return errTagNotMin
			}
			p.stage = stageLength
		}
	case stageLength:
		switch {
		case b&0x80 == 0:
			// The length is encoded in the bottom 7 bits.
			p.h.Length = int(b & 0x7f)
			return p.finish()
		case b == 0x80:
			if p.Strict {
				return errIndefinite
			}
			p.h.Length = LengthIndefinite
			return p.finish()
		case b == 0xff:
			return errReservedLength
		default:
			// Bottom 7 bits give the number of length bytes to follow.
			p.lenBytes = int(b & 0x7f)
			p.longLen = true
			p.stage = stageLengthBytes
		}
	case stageLengthBytes:
		if p.Strict && p.h.Length == 0 && b == 0 {
			return errLengthNotMin
		}
		if p.h.Length > math.MaxInt>>8 {
			// We can't shift h.Length up without overflowing.
			return errLengthTooLarge
		}
		p.h.Length = p.h.Length<<8 | int(b)
		p.lenBytes--
		if p.lenBytes == 0 {
			if p.Strict && p.h.Length < 128 {
				return errLengthNotMin
			}
			return p.finish()
		}
	}
	return nil
}

// finish validates the completed header.
func (p *HeaderParser) finish() error {
	p.stage = stageDone
	h := p.h
	if h.Tag == TagEndOfContents && (h != Header{} || p.longLen || p.n != 2) {
		// end-of-contents is a reserved tag and must be encoded as 0x00 0x00
		return errInvalidEOC
	}
	if !h.Constructed && h.Length == LengthIndefinite {
		return errIndefinitePrim
	}
	return nil
}

// ParseHeader parses a single TLV header from the start of b. It returns the
// header and the number of bytes it occupies. If b does not contain a
// complete header, [ErrNeedMoreData] is returned. If strict is true, the
// restrictions of DER are applied (see [HeaderParser.Strict]).
func ParseHeader(b []byte, strict bool) (Header, int, error) {
	p := HeaderParser{Strict: strict}
	n, err := p.Parse(b)
	if err != nil {
		return Header{}, n, err
	}
	return p.Header(), n, nil
}

// HeaderLen returns the number of bytes [AppendHeader] writes for h.
func HeaderLen(h Header) int {
	l := 1 // class, constructed, tag
	if h.Tag.Number >= 0x1f {
		l += vlq.Size(h.Tag.Number)
	}
	l++ // length
	if h.Length == LengthIndefinite || h.Length < 128 {
		return l
	}
	return l + (bits.Len(uint(h.Length))+7)/8
}

// AppendHeader appends the encoding of h to dst and returns the extended
// slice. The length is always encoded in its minimal definite form, or as
// 0x80 if h.Length is [LengthIndefinite].
func AppendHeader(dst []byte, h Header) []byte {
	b := uint8(h.Tag.Class&0b11) << 6
	if h.Constructed {
		b |= 0x20
	}
	if h.Tag.Number < 0x1f {
		dst = append(dst, b|uint8(h.Tag.Number))
	} else {
		dst = append(dst, b|0x1f)
		dst = vlq.Append(dst, h.Tag.Number)
	}

	if h.Length == LengthIndefinite {
		return append(dst, 0x80)
	} else if h.Length >= 128 {
		numBytes := (bits.Len(uint(h.Length)) + 7) / 8
		dst = append(dst, 0x80|byte(numBytes))
		for ; numBytes > 0; numBytes-- {
			dst = append(dst, byte(h.Length>>uint((numBytes-1)*8)))
		}
		return dst
	}
	return append(dst, byte(h.Length))
}

// WriteHeader writes the encoding of h to w. It returns the number of bytes
// written and any error returned by w.
func WriteHeader(w io.Writer, h Header) (int, error) {
	var buf [maxHeaderLen]byte
	return w.Write(AppendHeader(buf[:0], h))
}
