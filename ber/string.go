// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/tlv"
)

var (
	errAlphabet    = errors.New("character not in permitted alphabet")
	errInvalidUTF8 = errors.New("invalid UTF-8")
)

// segmentedType is implemented by string types whose values may use the
// constructed encoding in BER. The content octets of the segments are combined
// into the content octets of an equivalent primitive encoding.
type segmentedType interface {
	PrimitiveType

	// isSegment reports whether a segment of a constructed encoding may use
	// tag.
	isSegment(tag asn1rt.Tag) bool

	// joinSegments combines the contents of all primitive segments in order.
	joinSegments(segs [][]byte) ([]byte, error)
}

//region type CharStringType

// CharStringType is a restricted character string type. Values are
// represented as Go strings. Every character of a value must be in the
// alphabet of the string type, otherwise the value violates the constraints
// of the type. The decoder accepts the constructed encoding unless DER is
// used.
//
// SIZE constraints count characters, not bytes.
type CharStringType struct {
	name  string
	tag   asn1rt.Tag
	kind  uint // universal tag number
	size  sizeRange
	valid func(r rune) bool
}

// NewUTF8String creates a UTF8String type. Its alphabet consists of all
// Unicode characters.
func NewUTF8String(name string) *CharStringType {
	return newCharString(name, asn1rt.TagUTF8String, func(rune) bool { return true })
}

// NewNumericString creates a NumericString type. Its alphabet consists of the
// digits 0-9 and space.
func NewNumericString(name string) *CharStringType {
	return newCharString(name, asn1rt.TagNumericString, isNumeric)
}

// NewPrintableString creates a PrintableString type. Its alphabet consists of
// the following ASCII characters:
//
//	A-Z	// upper case letters
//	a-z	// lower case letters
//	0-9	// digits
//	 	// space
//	'	// apostrophe
//	()	// parenthesis
//	+-/	// plus, hyphen, solidus
//	.,:	// full stop, comma, colon
//	=	// equals sign
//	?	// question mark
func NewPrintableString(name string) *CharStringType {
	return newCharString(name, asn1rt.TagPrintableString, isPrintable)
}

// NewIA5String creates an IA5String type. Its alphabet consists of all ASCII
// characters.
func NewIA5String(name string) *CharStringType {
	return newCharString(name, asn1rt.TagIA5String, func(r rune) bool { return r < utf8.RuneSelf })
}

// NewVisibleString creates a VisibleString type. Its alphabet consists of the
// visible ASCII characters and space.
func NewVisibleString(name string) *CharStringType {
	return newCharString(name, asn1rt.TagVisibleString, func(r rune) bool { return ' ' <= r && r < 0x7F })
}

func newCharString(name string, kind uint, valid func(rune) bool) *CharStringType {
	return &CharStringType{name: name, tag: asn1rt.Universal(kind), kind: kind, valid: valid}
}

// isNumeric reports whether r can appear in an ASN.1 NumericString.
func isNumeric(r rune) bool {
	return '0' <= r && r <= '9' || r == ' '
}

// isPrintable reports whether r is in the ASN.1 PrintableString set.
func isPrintable(r rune) bool {
	return 'a' <= r && r <= 'z' ||
		'A' <= r && r <= 'Z' ||
		'0' <= r && r <= '9' ||
		'\'' <= r && r <= ')' ||
		'+' <= r && r <= '/' ||
		r == ' ' ||
		r == ':' ||
		r == '=' ||
		r == '?'
}

// WithTag returns a copy of t using tag.
func (t *CharStringType) WithTag(tag asn1rt.Tag) *CharStringType {
	c := *t
	c.tag = tag
	return &c
}

// WithSize returns a copy of t that permits only values with a number of
// characters in [lb, ub]. A negative ub removes the upper bound.
func (t *CharStringType) WithSize(lb, ub int) *CharStringType {
	c := *t
	c.size = sizeRange{true, lb, ub}
	return &c
}

func (t *CharStringType) Name() string      { return t.name }
func (t *CharStringType) Tag() asn1rt.Tag   { return t.tag }
func (t *CharStringType) Constructed() bool { return false }

func (t *CharStringType) Encode(v any, _ *Options) (tlv.Header, io.WriterTo, error) {
	if err := t.CheckConstraints(v); err != nil {
		return tlv.Header{}, nil, err
	}
	s := v.(string)
	return tlv.Header{Tag: t.tag, Length: len(s)}, strings.NewReader(s), nil
}

// DecodeContent returns the content octets as a string. The alphabet is
// checked by CheckConstraints.
func (t *CharStringType) DecodeContent(b []byte, _ *Options) (any, error) {
	return string(b), nil
}

func (t *CharStringType) isSegment(tag asn1rt.Tag) bool {
	return tag == asn1rt.Universal(asn1rt.TagOctetString) || tag == asn1rt.Universal(t.kind)
}

func (t *CharStringType) joinSegments(segs [][]byte) ([]byte, error) {
	return bytes.Join(segs, nil), nil
}

func (t *CharStringType) CheckConstraints(v any) error {
	s, ok := v.(string)
	if !ok {
		return &UnsupportedValueError{t.name, v}
	}
	if !utf8.ValidString(s) {
		return &ConstraintError{Type: t.name, Err: errInvalidUTF8}
	}
	n := 0
	for i, r := range s {
		if !t.valid(r) {
			return &ConstraintError{Type: t.name, Value: s, Err: fmt.Errorf("%w: %q at offset %d", errAlphabet, r, i)}
		}
		n++
	}
	if err := t.size.check(n); err != nil {
		return &ConstraintError{Type: t.name, Value: n, Err: err}
	}
	return nil
}

func (t *CharStringType) Print(v any) string {
	s, ok := v.(string)
	if !ok {
		return "<invalid " + t.name + ">"
	}
	return strconv.Quote(s)
}

func (t *CharStringType) Free(_ any, tr *Tracker) {
	tr.Release()
}

//endregion
