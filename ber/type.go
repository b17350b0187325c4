// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"io"
	"iter"
	"slices"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/tlv"
)

// Type describes an ASN.1 type. Implementations must be immutable and safe for
// concurrent use.
//
// Values passed to the methods of a Type are the Go representations documented
// in the package documentation. Passing a value of a different Go type results
// in an [UnsupportedValueError].
type Type interface {
	// Name returns the ASN.1 name of the type.
	Name() string

	// Tag returns the tag of the type.
	Tag() asn1rt.Tag

	// Constructed reports whether values of the type use the constructed
	// encoding.
	Constructed() bool

	// Encode validates v and returns the header and the content octets of its
	// encoding. The returned io.WriterTo writes exactly h.Length bytes. If
	// h.Length is [tlv.LengthIndefinite], the end-of-contents marker is not
	// written by the io.WriterTo.
	//
	// All validation happens in Encode. Errors returned by the io.WriterTo are
	// errors of the underlying writer.
	Encode(v any, opts *Options) (h tlv.Header, wt io.WriterTo, err error)

	// CheckConstraints reports whether v satisfies all constraints of the type.
	// The returned error is usually a [*ConstraintError]. Values of the wrong
	// Go type produce an [*UnsupportedValueError], records lacking mandatory
	// fields a [*StructuralError].
	CheckConstraints(v any) error

	// Print returns a human-readable representation of v. The format has no
	// compatibility guarantees.
	Print(v any) string

	// Free releases v, including all values owned by v, and records the
	// releases in tr.
	Free(v any, tr *Tracker)
}

// PrimitiveType is a [Type] using the primitive encoding.
type PrimitiveType interface {
	Type

	// DecodeContent converts the content octets of a primitive encoding into a
	// value. The content slice is only valid for the duration of the call.
	//
	// DecodeContent does not check the constraints of the type. Errors other
	// than a [*ConstraintError] are reported as malformed encodings.
	DecodeContent(content []byte, opts *Options) (any, error)
}

// Field describes a member of a [SequenceType].
type Field struct {
	// Name of the field, unique within its sequence.
	Name string

	// Type of the field value.
	Type Type

	// Tag overrides the tag of Type (implicit tagging). If Explicit is true,
	// Tag is the tag of an additional constructed TLV wrapping the encoding of
	// Type (explicit tagging). If Tag is zero, the tag of Type is used.
	Tag asn1rt.Tag

	// Optional marks an OPTIONAL field.
	Optional bool

	// Explicit enables explicit tagging. Tag must be set.
	Explicit bool
}

// Registry is an immutable set of named types. Registries are typically
// created once during package initialization and may then be used
// concurrently.
type Registry struct {
	types map[string]Type
	names []string
}

// NewRegistry creates a registry of types. An error is returned if two types
// share a name.
func NewRegistry(types ...Type) (*Registry, error) {
	r := &Registry{types: make(map[string]Type, len(types))}
	for _, t := range types {
		if t == nil {
			return nil, errors.New("ber: nil type in registry")
		}
		if _, ok := r.types[t.Name()]; ok {
			return nil, errors.New("ber: duplicate type name " + t.Name())
		}
		r.types[t.Name()] = t
		r.names = append(r.names, t.Name())
	}
	return r, nil
}

// MustRegistry is like [NewRegistry] but panics if an error occurs.
func MustRegistry(types ...Type) *Registry {
	r, err := NewRegistry(types...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the type with the given name.
func (r *Registry) Lookup(name string) (Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Names returns the names of all types in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// All returns an iterator over all types in registration order.
func (r *Registry) All() iter.Seq2[string, Type] {
	return func(yield func(string, Type) bool) {
		for _, name := range r.names {
			if !yield(name, r.types[name]) {
				return
			}
		}
	}
}
