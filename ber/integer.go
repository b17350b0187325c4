// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"errors"
	"io"
	"maps"
	"math"
	"math/bits"
	"slices"
	"strconv"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/tlv"
)

var (
	errEmptyInteger      = errors.New("empty integer")
	errIntegerNotMinimal = errors.New("integer not minimally encoded")
	errIntegerTooLarge   = errors.New("integer too large for 64 bits")
	errOutOfRange        = errors.New("value out of range")
	errUnknownEnumerated = errors.New("unknown enumerated value")
)

// IntegerType is an ASN.1 INTEGER or ENUMERATED type. Values are represented
// as int64. The encoding of integer values does not depend on the encoding
// rules.
//
// Encode accepts any Go integer type. Decoded values are always int64.
type IntegerType struct {
	name       string
	tag        asn1rt.Tag
	ranged     bool
	lb, ub     int64
	constraint func(int64) error
	names      map[int64]string // enumerated only
	values     []int64          // sorted keys of names
}

// NewInteger creates an unconstrained INTEGER type.
func NewInteger(name string) *IntegerType {
	return &IntegerType{name: name, tag: asn1rt.Universal(asn1rt.TagInteger)}
}

// NewEnumerated creates an ENUMERATED type that permits only the keys of
// names. The names are used when printing values.
func NewEnumerated(name string, names map[int64]string) *IntegerType {
	return &IntegerType{
		name:   name,
		tag:    asn1rt.Universal(asn1rt.TagEnumerated),
		names:  maps.Clone(names),
		values: slices.Sorted(maps.Keys(names)),
	}
}

// WithRange returns a copy of t that permits only values in [lb, ub].
func (t *IntegerType) WithRange(lb, ub int64) *IntegerType {
	c := *t
	c.ranged, c.lb, c.ub = true, lb, ub
	return &c
}

// WithConstraint returns a copy of t with an additional constraint. The
// function returns a non-nil error for values that violate the constraint.
func (t *IntegerType) WithConstraint(fn func(int64) error) *IntegerType {
	c := *t
	c.constraint = fn
	return &c
}

// WithTag returns a copy of t using tag.
func (t *IntegerType) WithTag(tag asn1rt.Tag) *IntegerType {
	c := *t
	c.tag = tag
	return &c
}

// Named returns a copy of t with a different name. Named types share the
// constraints of t.
func (t *IntegerType) Named(name string) *IntegerType {
	c := *t
	c.name = name
	return &c
}

func (t *IntegerType) Name() string      { return t.name }
func (t *IntegerType) Tag() asn1rt.Tag   { return t.tag }
func (t *IntegerType) Constructed() bool { return false }

// Range returns the value range of t. If t has no range constraint, ok is
// false.
func (t *IntegerType) Range() (lb, ub int64, ok bool) {
	return t.lb, t.ub, t.ranged
}

// Values returns the permitted values of an enumerated type in ascending
// order.
func (t *IntegerType) Values() []int64 {
	return slices.Clone(t.values)
}

func (t *IntegerType) Encode(v any, _ *Options) (tlv.Header, io.WriterTo, error) {
	if err := t.CheckConstraints(v); err != nil {
		return tlv.Header{}, nil, err
	}
	i, _ := toInt64(v)
	var buf [8]byte
	b := appendInt64(buf[:0], i)
	return tlv.Header{Tag: t.tag, Length: len(b)}, bytes.NewReader(b), nil
}

func (t *IntegerType) DecodeContent(b []byte, _ *Options) (any, error) {
	i, err := parseInt64(b)
	if errors.Is(err, errIntegerTooLarge) {
		return nil, &ConstraintError{Type: t.name, Err: err}
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (t *IntegerType) CheckConstraints(v any) error {
	i, ok := toInt64(v)
	if !ok {
		if isUint(v) {
			return &ConstraintError{Type: t.name, Value: v, Err: errIntegerTooLarge}
		}
		return &UnsupportedValueError{Type: t.name, Value: v}
	}
	if t.ranged && (i < t.lb || i > t.ub) {
		return &ConstraintError{Type: t.name, Value: i, Err: errOutOfRange}
	}
	if t.names != nil {
		if _, ok := t.names[i]; !ok {
			return &ConstraintError{Type: t.name, Value: i, Err: errUnknownEnumerated}
		}
	}
	if t.constraint != nil {
		if err := t.constraint(i); err != nil {
			return &ConstraintError{Type: t.name, Value: i, Err: err}
		}
	}
	return nil
}

func (t *IntegerType) Print(v any) string {
	i, ok := toInt64(v)
	if !ok {
		return "<invalid " + t.name + ">"
	}
	if name, ok := t.names[i]; ok {
		return name
	}
	return strconv.FormatInt(i, 10)
}

func (t *IntegerType) Free(_ any, tr *Tracker) {
	tr.Release()
}

// toInt64 converts any Go integer to int64. It returns false if v is not an
// integer or does not fit.
func toInt64(v any) (int64, bool) {
	switch i := v.(type) {
	case int64:
		return i, true
	case int:
		return int64(i), true
	case int8:
		return int64(i), true
	case int16:
		return int64(i), true
	case int32:
		return int64(i), true
	case uint8:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint32:
		return int64(i), true
	case uint:
		return int64(i), i <= math.MaxInt64
	case uint64:
		return int64(i), i <= math.MaxInt64
	}
	return 0, false
}

func isUint(v any) bool {
	switch v.(type) {
	case uint, uint64:
		return true
	}
	return false
}

// parseInt64 parses the content octets of an INTEGER.
func parseInt64(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, errEmptyInteger
	}
	if len(b) > 1 && (b[0] == 0x00 && b[1]&0x80 == 0 || b[0] == 0xff && b[1]&0x80 != 0) {
		return 0, errIntegerNotMinimal
	}
	if len(b) > 8 {
		return 0, errIntegerTooLarge
	}
	var i int64
	for _, c := range b {
		i = i<<8 | int64(c)
	}
	// sign extension
	shift := 64 - 8*len(b)
	return i << shift >> shift, nil
}

// appendInt64 appends the minimal two's complement encoding of i.
func appendInt64(dst []byte, i int64) []byte {
	u := uint64(i)
	if i < 0 {
		u = ^u
	}
	for l := bits.Len64(u)/8 + 1; l > 0; l-- {
		dst = append(dst, byte(i>>((l-1)*8)))
	}
	return dst
}
