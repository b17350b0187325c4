// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"errors"
	"io"
	"math"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/internal/vlq"
	"codello.dev/asn1rt/tlv"
)

var (
	errEmptyOID     = errors.New("zero length OBJECT IDENTIFIER")
	errTruncatedOID = errors.New("truncated OBJECT IDENTIFIER component")
	errInvalidOID   = errors.New("invalid OBJECT IDENTIFIER")
)

// ObjectIdentifierType is the ASN.1 OBJECT IDENTIFIER type. Values are
// represented as [asn1rt.ObjectIdentifier]. The first two arcs are encoded
// into a single component. All components use a minimal base-128 encoding.
type ObjectIdentifierType struct {
	name string
	tag  asn1rt.Tag
}

// NewObjectIdentifier creates an OBJECT IDENTIFIER type.
func NewObjectIdentifier(name string) *ObjectIdentifierType {
	return &ObjectIdentifierType{name, asn1rt.Universal(asn1rt.TagOID)}
}

// WithTag returns a copy of t using tag.
func (t *ObjectIdentifierType) WithTag(tag asn1rt.Tag) *ObjectIdentifierType {
	return &ObjectIdentifierType{t.name, tag}
}

func (t *ObjectIdentifierType) Name() string      { return t.name }
func (t *ObjectIdentifierType) Tag() asn1rt.Tag   { return t.tag }
func (t *ObjectIdentifierType) Constructed() bool { return false }

func (t *ObjectIdentifierType) Encode(v any, _ *Options) (tlv.Header, io.WriterTo, error) {
	if err := t.CheckConstraints(v); err != nil {
		return tlv.Header{}, nil, err
	}
	oid := v.(asn1rt.ObjectIdentifier)
	b := vlq.Append(make([]byte, 0, len(oid)+4), oid[0]*40+oid[1])
	for _, arc := range oid[2:] {
		b = vlq.Append(b, arc)
	}
	return tlv.Header{Tag: t.tag, Length: len(b)}, bytes.NewReader(b), nil
}

func (t *ObjectIdentifierType) DecodeContent(b []byte, _ *Options) (any, error) {
	if len(b) == 0 {
		return nil, errEmptyOID
	}
	// Every component takes at least one byte and the first one holds two arcs.
	oid := make(asn1rt.ObjectIdentifier, 0, len(b)+1)
	var acc vlq.Accumulator[uint]
	for _, c := range b {
		done, err := acc.Add(c, true)
		if err != nil {
			return nil, err
		}
		if !done {
			continue
		}
		v := acc.Value()
		acc.Reset()
		switch {
		case len(oid) > 0:
			oid = append(oid, v)
		case v < 80:
			oid = append(oid, v/40, v%40)
		default:
			oid = append(oid, 2, v-80)
		}
	}
	if acc.Len() > 0 {
		return nil, errTruncatedOID
	}
	return oid, nil
}

func (t *ObjectIdentifierType) CheckConstraints(v any) error {
	oid, ok := v.(asn1rt.ObjectIdentifier)
	if !ok {
		return &UnsupportedValueError{t.name, v}
	}
	if !oid.IsValid() || oid[1] > math.MaxUint-80 {
		return &ConstraintError{Type: t.name, Value: oid.String(), Err: errInvalidOID}
	}
	return nil
}

func (t *ObjectIdentifierType) Print(v any) string {
	oid, ok := v.(asn1rt.ObjectIdentifier)
	if !ok {
		return "<invalid " + t.name + ">"
	}
	return "{" + oid.String() + "}"
}

func (t *ObjectIdentifierType) Free(_ any, tr *Tracker) {
	tr.Release()
}
