// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"io"
	"strings"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/tlv"
)

//region type SequenceType

// member is a resolved field of a SequenceType.
type member struct {
	Field
	typ Type       // Field.Type, or an explicitType wrapping it
	tag asn1rt.Tag // expected tag
}

// SequenceType is an ASN.1 SEQUENCE type with an ordered list of fields.
// Values are represented as [*Record] values of the same SequenceType.
//
// Fields are encoded in declaration order. Absent OPTIONAL fields are omitted.
// During decoding fields are matched by tag in declaration order. An OPTIONAL
// field is absent if its tag does not match the next TLV.
type SequenceType struct {
	name       string
	tag        asn1rt.Tag
	members    []member
	index      map[string]int
	extensible bool
}

// NewSequence creates a SEQUENCE type with the given fields.
//
// NewSequence panics if the field list is invalid: a field without a name or
// type, duplicate names, an explicit field without a tag, or OPTIONAL fields
// whose tags cannot be distinguished from the tag of a following field.
func NewSequence(name string, fields ...Field) *SequenceType {
	t := &SequenceType{
		name:    name,
		tag:     asn1rt.Universal(asn1rt.TagSequence),
		members: make([]member, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" || f.Type == nil {
			panic("ber: field " + f.Name + " of " + name + " has no name or type")
		}
		if _, ok := t.index[f.Name]; ok {
			panic("ber: duplicate field " + f.Name + " in " + name)
		}
		m := member{Field: f, typ: f.Type, tag: f.Tag}
		if f.Explicit {
			if f.Tag.IsZero() {
				panic("ber: explicit field " + f.Name + " of " + name + " has no tag")
			}
			m.typ = &explicitType{f.Tag, f.Type}
		} else if f.Tag.IsZero() {
			m.tag = f.Type.Tag()
		}
		t.members[i] = m
		t.index[f.Name] = i
	}
	for i, m := range t.members {
		if !m.Optional {
			continue
		}
		for _, n := range t.members[i+1:] {
			if n.tag == m.tag {
				panic("ber: ambiguous tag " + m.tag.String() + " for field " + m.Name + " of " + name)
			}
			if !n.Optional {
				break
			}
		}
	}
	return t
}

// WithTag returns a copy of t using tag.
func (t *SequenceType) WithTag(tag asn1rt.Tag) *SequenceType {
	c := *t
	c.tag = tag
	return &c
}

// Extensible returns a copy of t with an extension marker. Decoding an
// extensible sequence skips TLVs following the last declared field.
func (t *SequenceType) Extensible() *SequenceType {
	c := *t
	c.extensible = true
	return &c
}

func (t *SequenceType) Name() string      { return t.name }
func (t *SequenceType) Tag() asn1rt.Tag   { return t.tag }
func (t *SequenceType) Constructed() bool { return true }

// IsExtensible reports whether t has an extension marker.
func (t *SequenceType) IsExtensible() bool { return t.extensible }

// NumFields returns the number of fields of t.
func (t *SequenceType) NumFields() int { return len(t.members) }

// Field returns the i-th field of t.
func (t *SequenceType) Field(i int) Field { return t.members[i].Field }

// FieldIndex returns the index of the field with the given name, or -1.
func (t *SequenceType) FieldIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// record returns v as a record of t.
func (t *SequenceType) record(v any) (*Record, error) {
	r, ok := v.(*Record)
	if !ok || r == nil || r.Type != t || len(r.Fields) != len(t.members) {
		return nil, &UnsupportedValueError{t.name, v}
	}
	return r, nil
}

// Encode encodes all present fields of the record v. The length of the
// returned header is calculated as follows:
//
//   - If opts selects the indefinite-length form, the length is indefinite.
//   - If any of the fields use the indefinite-length format, or if the sum of
//     their lengths overflows the int type, the length is indefinite.
//   - Otherwise the length is the sum of the lengths of the field encodings.
//
// An absent mandatory field results in a [StructuralError].
func (t *SequenceType) Encode(v any, opts *Options) (tlv.Header, io.WriterTo, error) {
	r, err := t.record(v)
	if err != nil {
		return tlv.Header{}, nil, err
	}
	h := tlv.Header{Tag: t.tag, Constructed: true}
	headers := make([]tlv.Header, 0, len(t.members))
	writers := make([]io.WriterTo, 0, len(t.members))
	for i, m := range t.members {
		fv, ok := r.Fields[i].Get()
		if !ok {
			if m.Optional {
				continue
			}
			return tlv.Header{}, nil, &StructuralError{Type: t.name, Field: m.Name, Err: ErrMissingField}
		}
		fh, wt, err := encodeValue(m.typ, fv, m.tag, opts)
		if err != nil {
			return tlv.Header{}, nil, err
		}
		headers = append(headers, fh)
		writers = append(writers, wt)
		h.Length = tlv.CombinedLength(h.Length, tlv.HeaderLen(fh), fh.Length)
	}
	if opts.indefinite() {
		h.Length = tlv.LengthIndefinite
	}
	return h, writerFunc(func(w io.Writer) (n int64, err error) {
		var n2 int64
		for i := 0; i < len(headers) && err == nil; i++ {
			n2, err = writeValue(w, headers[i], writers[i])
			n += n2
		}
		return n, err
	}), nil
}

// CheckConstraints checks that v is a record of t, all mandatory fields are
// present and all present fields satisfy their constraints.
func (t *SequenceType) CheckConstraints(v any) error {
	r, err := t.record(v)
	if err != nil {
		return err
	}
	for i, m := range t.members {
		fv, ok := r.Fields[i].Get()
		if !ok {
			if m.Optional {
				continue
			}
			return &StructuralError{Type: t.name, Field: m.Name, Err: ErrMissingField}
		}
		if err = m.typ.CheckConstraints(fv); err != nil {
			return err
		}
	}
	return nil
}

// Print returns a multi-line representation of the record v. Absent fields
// are omitted.
func (t *SequenceType) Print(v any) string {
	var s strings.Builder
	t.print(&s, v, 0)
	return s.String()
}

// indentPrinter is implemented by types whose representation spans multiple
// lines.
type indentPrinter interface {
	print(s *strings.Builder, v any, indent int)
}

func (t *SequenceType) print(s *strings.Builder, v any, indent int) {
	r, err := t.record(v)
	if err != nil {
		s.WriteString("<invalid " + t.name + ">")
		return
	}
	s.WriteString(t.name)
	s.WriteString(" ::= {\n")
	for i, m := range t.members {
		fv, ok := r.Fields[i].Get()
		if !ok {
			continue
		}
		s.WriteString(strings.Repeat("    ", indent+1))
		s.WriteString(m.Name)
		s.WriteString(": ")
		if p, ok := m.typ.(indentPrinter); ok {
			p.print(s, fv, indent+1)
		} else {
			s.WriteString(Sprint(m.typ, fv))
		}
		s.WriteByte('\n')
	}
	s.WriteString(strings.Repeat("    ", indent))
	s.WriteString("}")
}

// Free releases all present fields of the record v and the record itself.
func (t *SequenceType) Free(v any, tr *Tracker) {
	r, err := t.record(v)
	if err != nil {
		return
	}
	for i, m := range t.members {
		if fv, ok := r.Fields[i].Get(); ok {
			m.typ.Free(fv, tr)
		}
		r.Fields[i] = asn1rt.None[any]()
	}
	tr.Release()
}

//endregion

//region type Record

// Record is the value of a [SequenceType]. Fields holds one entry per field of
// Type in declaration order. Absent fields hold no value.
type Record struct {
	Type   *SequenceType
	Fields []asn1rt.Optional[any]
}

// NewRecord creates a record of t with all fields absent.
func NewRecord(t *SequenceType) *Record {
	return &Record{Type: t, Fields: make([]asn1rt.Optional[any], len(t.members))}
}

func (r *Record) mustIndex(name string) int {
	i := r.Type.FieldIndex(name)
	if i < 0 {
		panic("ber: " + r.Type.name + " has no field " + name)
	}
	return i
}

// Get returns the value of the named field. The second result reports whether
// the field is present. Get panics if the field does not exist.
func (r *Record) Get(name string) (any, bool) {
	return r.Fields[r.mustIndex(name)].Get()
}

// Has reports whether the named field is present.
func (r *Record) Has(name string) bool {
	return r.Fields[r.mustIndex(name)].IsPresent()
}

// Set sets the value of the named field and returns r. Set panics if the field
// does not exist.
func (r *Record) Set(name string, v any) *Record {
	r.Fields[r.mustIndex(name)] = asn1rt.Some(v)
	return r
}

// Clear marks the named field as absent and returns r.
func (r *Record) Clear(name string) *Record {
	r.Fields[r.mustIndex(name)] = asn1rt.None[any]()
	return r
}

// String returns the same representation as [SequenceType.Print].
func (r *Record) String() string {
	return r.Type.Print(r)
}

//endregion

//region type explicitType

// explicitType wraps the encoding of another type in a constructed TLV. The
// tag of the wrapper is set by an explicitly tagged field.
type explicitType struct {
	tag   asn1rt.Tag
	inner Type
}

func (e *explicitType) Name() string      { return e.inner.Name() }
func (e *explicitType) Tag() asn1rt.Tag   { return e.tag }
func (e *explicitType) Constructed() bool { return true }

// Encode wraps the encoding of the inner type in a new, constructed encoding.
func (e *explicitType) Encode(v any, opts *Options) (tlv.Header, io.WriterTo, error) {
	h, wt, err := encodeValue(e.inner, v, e.inner.Tag(), opts)
	if err != nil {
		return tlv.Header{}, nil, err
	}
	ret := tlv.Header{Tag: e.tag, Constructed: true, Length: tlv.CombinedLength(tlv.HeaderLen(h), h.Length)}
	if opts.indefinite() {
		ret.Length = tlv.LengthIndefinite
	}
	return ret, writerFunc(func(w io.Writer) (int64, error) {
		return writeValue(w, h, wt)
	}), nil
}

func (e *explicitType) CheckConstraints(v any) error { return e.inner.CheckConstraints(v) }
func (e *explicitType) Print(v any) string           { return e.inner.Print(v) }
func (e *explicitType) Free(v any, tr *Tracker)      { e.inner.Free(v, tr) }

func (e *explicitType) print(s *strings.Builder, v any, indent int) {
	if p, ok := e.inner.(indentPrinter); ok {
		p.print(s, v, indent)
	} else {
		s.WriteString(Sprint(e.inner, v))
	}
}

//endregion
