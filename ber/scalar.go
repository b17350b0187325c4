// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/tlv"
)

var (
	errInvalidBoolean   = errors.New("invalid boolean")
	errEmptyBitString   = errors.New("empty bit string")
	errInvalidPadding   = errors.New("invalid padding bits")
	errInvalidBitString = errors.New("invalid bit string")
	errSegmentPadding   = errors.New("padding bits before last segment")
	errInvalidNull      = errors.New("invalid NULL value")
	errSize             = errors.New("size out of range")
)

// sizeRange is a SIZE constraint. A negative ub means no upper bound.
type sizeRange struct {
	set    bool
	lb, ub int
}

func (s sizeRange) check(n int) error {
	if !s.set || n >= s.lb && (s.ub < 0 || n <= s.ub) {
		return nil
	}
	if s.lb == s.ub {
		return fmt.Errorf("%w: size %d, want %d", errSize, n, s.lb)
	}
	return fmt.Errorf("%w: size %d not in [%d, %d]", errSize, n, s.lb, s.ub)
}

//region type BooleanType

// BooleanType is the ASN.1 BOOLEAN type. Values are represented as bool.
type BooleanType struct {
	name string
	tag  asn1rt.Tag
}

// NewBoolean creates a BOOLEAN type.
func NewBoolean(name string) *BooleanType {
	return &BooleanType{name, asn1rt.Universal(asn1rt.TagBoolean)}
}

// WithTag returns a copy of t using tag.
func (t *BooleanType) WithTag(tag asn1rt.Tag) *BooleanType {
	return &BooleanType{t.name, tag}
}

func (t *BooleanType) Name() string      { return t.name }
func (t *BooleanType) Tag() asn1rt.Tag   { return t.tag }
func (t *BooleanType) Constructed() bool { return false }

func (t *BooleanType) Encode(v any, _ *Options) (tlv.Header, io.WriterTo, error) {
	b, ok := v.(bool)
	if !ok {
		return tlv.Header{}, nil, &UnsupportedValueError{t.name, v}
	}
	c := byte(0x00)
	if b {
		c = 0xff
	}
	return tlv.Header{Tag: t.tag, Length: 1}, bytes.NewReader([]byte{c}), nil
}

func (t *BooleanType) DecodeContent(b []byte, opts *Options) (any, error) {
	if len(b) != 1 {
		return nil, errInvalidBoolean
	}
	if opts.der() && b[0] != 0x00 && b[0] != 0xff {
		return nil, errInvalidBoolean
	}
	return b[0] != 0x00, nil
}

func (t *BooleanType) CheckConstraints(v any) error {
	if _, ok := v.(bool); !ok {
		return &UnsupportedValueError{t.name, v}
	}
	return nil
}

func (t *BooleanType) Print(v any) string {
	b, ok := v.(bool)
	switch {
	case !ok:
		return "<invalid " + t.name + ">"
	case b:
		return "TRUE"
	}
	return "FALSE"
}

func (t *BooleanType) Free(_ any, tr *Tracker) {
	tr.Release()
}

//endregion

//region type OctetStringType

// OctetStringType is the ASN.1 OCTET STRING type. Values are represented as
// []byte. The decoder accepts the constructed encoding unless DER is used.
type OctetStringType struct {
	name string
	tag  asn1rt.Tag
	size sizeRange
}

// NewOctetString creates an OCTET STRING type.
func NewOctetString(name string) *OctetStringType {
	return &OctetStringType{name: name, tag: asn1rt.Universal(asn1rt.TagOctetString)}
}

// WithTag returns a copy of t using tag.
func (t *OctetStringType) WithTag(tag asn1rt.Tag) *OctetStringType {
	c := *t
	c.tag = tag
	return &c
}

// WithSize returns a copy of t that permits only values with a length in
// [lb, ub]. A negative ub removes the upper bound.
func (t *OctetStringType) WithSize(lb, ub int) *OctetStringType {
	c := *t
	c.size = sizeRange{true, lb, ub}
	return &c
}

func (t *OctetStringType) Name() string      { return t.name }
func (t *OctetStringType) Tag() asn1rt.Tag   { return t.tag }
func (t *OctetStringType) Constructed() bool { return false }

func (t *OctetStringType) Encode(v any, _ *Options) (tlv.Header, io.WriterTo, error) {
	if err := t.CheckConstraints(v); err != nil {
		return tlv.Header{}, nil, err
	}
	b := v.([]byte)
	return tlv.Header{Tag: t.tag, Length: len(b)}, bytes.NewReader(b), nil
}

func (t *OctetStringType) DecodeContent(b []byte, _ *Options) (any, error) {
	return append([]byte{}, b...), nil
}

func (t *OctetStringType) isSegment(tag asn1rt.Tag) bool {
	return tag == asn1rt.Universal(asn1rt.TagOctetString)
}

func (t *OctetStringType) joinSegments(segs [][]byte) ([]byte, error) {
	return bytes.Join(segs, nil), nil
}

func (t *OctetStringType) CheckConstraints(v any) error {
	b, ok := v.([]byte)
	if !ok {
		return &UnsupportedValueError{t.name, v}
	}
	if err := t.size.check(len(b)); err != nil {
		return &ConstraintError{Type: t.name, Value: len(b), Err: err}
	}
	return nil
}

// Print returns v as an ASN.1 hstring such as 'ABCD'H.
func (t *OctetStringType) Print(v any) string {
	b, ok := v.([]byte)
	if !ok {
		return "<invalid " + t.name + ">"
	}
	return fmt.Sprintf("'%X'H", b)
}

func (t *OctetStringType) Free(_ any, tr *Tracker) {
	tr.Release()
}

//endregion

//region type BitStringType

// BitStringType is the ASN.1 BIT STRING type. Values are represented as
// [asn1rt.BitString]. The decoder accepts the constructed encoding unless DER
// is used. Only the last segment of a constructed encoding may have padding
// bits.
//
// Padding bits of decoded values are always zero. Under DER the decoder
// rejects encodings with non-zero padding bits.
type BitStringType struct {
	name  string
	tag   asn1rt.Tag
	size  sizeRange
	named map[int]string
}

// NewBitString creates a BIT STRING type.
func NewBitString(name string) *BitStringType {
	return &BitStringType{name: name, tag: asn1rt.Universal(asn1rt.TagBitString)}
}

// WithTag returns a copy of t using tag.
func (t *BitStringType) WithTag(tag asn1rt.Tag) *BitStringType {
	c := *t
	c.tag = tag
	return &c
}

// WithSize returns a copy of t that permits only values with a bit length in
// [lb, ub]. A negative ub removes the upper bound.
func (t *BitStringType) WithSize(lb, ub int) *BitStringType {
	c := *t
	c.size = sizeRange{true, lb, ub}
	return &c
}

// WithNamedBits returns a copy of t using the given names when printing
// values. The keys of names are bit positions.
func (t *BitStringType) WithNamedBits(names map[int]string) *BitStringType {
	c := *t
	c.named = maps.Clone(names)
	return &c
}

func (t *BitStringType) Name() string      { return t.name }
func (t *BitStringType) Tag() asn1rt.Tag   { return t.tag }
func (t *BitStringType) Constructed() bool { return false }

func (t *BitStringType) Encode(v any, _ *Options) (tlv.Header, io.WriterTo, error) {
	if err := t.CheckConstraints(v); err != nil {
		return tlv.Header{}, nil, err
	}
	bs := v.(asn1rt.BitString)
	n := (bs.BitLength + 7) / 8
	b := make([]byte, 1+n)
	b[0] = byte(8*n - bs.BitLength)
	copy(b[1:], bs.Bytes[:n])
	if n > 0 {
		b[n] &= ^byte(1<<b[0] - 1)
	}
	return tlv.Header{Tag: t.tag, Length: len(b)}, bytes.NewReader(b), nil
}

func (t *BitStringType) DecodeContent(b []byte, opts *Options) (any, error) {
	if len(b) == 0 {
		return nil, errEmptyBitString
	}
	unused := int(b[0])
	if unused > 7 || len(b) == 1 && unused > 0 {
		return nil, errInvalidPadding
	}
	bs := asn1rt.BitString{
		Bytes:     append([]byte{}, b[1:]...),
		BitLength: (len(b)-1)*8 - unused,
	}
	if unused > 0 {
		mask := byte(1<<unused - 1)
		if opts.der() && bs.Bytes[len(bs.Bytes)-1]&mask != 0 {
			return nil, errInvalidPadding
		}
		bs.Bytes[len(bs.Bytes)-1] &^= mask
	}
	return bs, nil
}

func (t *BitStringType) isSegment(tag asn1rt.Tag) bool {
	return tag == asn1rt.Universal(asn1rt.TagBitString)
}

// joinSegments combines the segments into the content octets of a primitive
// encoding. Every segment starts with its own count of unused bits.
func (t *BitStringType) joinSegments(segs [][]byte) ([]byte, error) {
	b := []byte{0}
	for i, seg := range segs {
		switch {
		case len(seg) == 0:
			return nil, errEmptyBitString
		case seg[0] > 7 || len(seg) == 1 && seg[0] > 0:
			return nil, errInvalidPadding
		case seg[0] > 0 && i < len(segs)-1:
			return nil, errSegmentPadding
		}
		b[0] = seg[0]
		b = append(b, seg[1:]...)
	}
	return b, nil
}

func (t *BitStringType) CheckConstraints(v any) error {
	bs, ok := v.(asn1rt.BitString)
	if !ok {
		return &UnsupportedValueError{t.name, v}
	}
	if !bs.IsValid() {
		return &ConstraintError{Type: t.name, Err: errInvalidBitString}
	}
	if err := t.size.check(bs.BitLength); err != nil {
		return &ConstraintError{Type: t.name, Value: bs.BitLength, Err: err}
	}
	return nil
}

// Print returns the bits of v. Set bits with a name are listed in braces.
func (t *BitStringType) Print(v any) string {
	bs, ok := v.(asn1rt.BitString)
	if !ok || !bs.IsValid() {
		return "<invalid " + t.name + ">"
	}
	s := bs.String()
	if len(t.named) == 0 {
		return s
	}
	var names []string
	for _, i := range slices.Sorted(maps.Keys(t.named)) {
		if i < bs.BitLength && bs.At(i) == 1 {
			names = append(names, t.named[i])
		}
	}
	return s + " {" + strings.Join(names, ", ") + "}"
}

func (t *BitStringType) Free(_ any, tr *Tracker) {
	tr.Release()
}

//endregion

//region type NullType

// NullType is the ASN.1 NULL type. Values are represented as [asn1rt.Null].
type NullType struct {
	name string
	tag  asn1rt.Tag
}

// NewNull creates a NULL type.
func NewNull(name string) *NullType {
	return &NullType{name, asn1rt.Universal(asn1rt.TagNull)}
}

// WithTag returns a copy of t using tag.
func (t *NullType) WithTag(tag asn1rt.Tag) *NullType {
	return &NullType{t.name, tag}
}

func (t *NullType) Name() string      { return t.name }
func (t *NullType) Tag() asn1rt.Tag   { return t.tag }
func (t *NullType) Constructed() bool { return false }

func (t *NullType) Encode(v any, _ *Options) (tlv.Header, io.WriterTo, error) {
	if err := t.CheckConstraints(v); err != nil {
		return tlv.Header{}, nil, err
	}
	return tlv.Header{Tag: t.tag}, nil, nil
}

func (t *NullType) DecodeContent(b []byte, _ *Options) (any, error) {
	if len(b) != 0 {
		return nil, errInvalidNull
	}
	return asn1rt.Null{}, nil
}

func (t *NullType) CheckConstraints(v any) error {
	if _, ok := v.(asn1rt.Null); !ok {
		return &UnsupportedValueError{t.name, v}
	}
	return nil
}

func (t *NullType) Print(v any) string {
	if _, ok := v.(asn1rt.Null); !ok {
		return "<invalid " + t.name + ">"
	}
	return "NULL"
}

func (t *NullType) Free(_ any, tr *Tracker) {
	tr.Release()
}

//endregion
