// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ber implements a descriptor-driven codec for the ASN.1 Basic
// Encoding Rules (BER) and their canonical subset, the Distinguished Encoding
// Rules (DER). The encoding rules are defined in [Rec. ITU-T X.690].
// See also “[A Layman's Guide to a Subset of ASN.1, BER, and DER]”.
//
// # Type Descriptors
//
// The codec does not inspect Go types. Instead every ASN.1 type is described by
// a value implementing the [Type] interface. A descriptor knows its tag, how to
// encode, print, check and free its values and, for primitive types, how to
// turn content octets into a value ([PrimitiveType]). A [SequenceType] carries
// an ordered table of [Field] descriptors and produces [*Record] values.
// Descriptors are immutable once constructed and may be shared between
// goroutines. A [Registry] collects the descriptors of a module by name.
//
// The following Go values are used for the built-in descriptors:
//
//   - [IntegerType] and enumerated types use int64.
//   - [BooleanType] uses bool.
//   - [OctetStringType] uses []byte.
//   - [BitStringType] uses [asn1rt.BitString].
//   - [NullType] uses [asn1rt.Null].
//   - [ObjectIdentifierType] uses [asn1rt.ObjectIdentifier].
//   - [CharStringType] uses string.
//   - [SequenceType] uses [*Record]. Absent OPTIONAL members are represented by
//     an empty [asn1rt.Optional].
//
// # Decoding
//
// Decoding is driven by a [Context]. Input is fed to a context in chunks of
// arbitrary size. A context never re-reads bytes and never requires the caller
// to buffer a complete encoding: the state of every partially decoded TLV is
// kept on an explicit stack inside the context. [Unmarshal] and [Decoder] are
// convenience wrappers for complete buffers and for [io.Reader] values.
//
// Decoding SEQUENCE types is tag-driven. Fields are matched in declaration
// order. An OPTIONAL field whose tag does not match the next TLV is left absent
// without consuming input. Matching never moves backwards through the field
// table.
//
// # Encoding
//
// Encoding is a two-step process: [Type.Encode] computes the header of a value
// and returns an [io.WriterTo] that writes the content octets. Validation
// happens entirely in the first step, so [Marshal] and [Encoder.Encode] never
// emit partial output. Under DER all lengths are definite and minimal.
//
// # Errors
//
// Errors returned by this package can be classified using [KindOf] or matched
// using [errors.Is] against [ErrNeedMoreData], [ErrMalformed], [ErrConstraint],
// [ErrMissingField] and [ErrUnexpectedField].
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
// [A Layman's Guide to a Subset of ASN.1, BER, and DER]: http://luca.ntop.org/Teaching/Appunti/asn1.html
package ber

import (
	"log/slog"
	"sync/atomic"
)

// Rules selects the encoding rules used by a codec operation.
type Rules uint8

const (
	// BER accepts every valid BER encoding when decoding and uses definite
	// lengths when encoding unless Options.Indefinite is set.
	BER Rules = iota
	// DER rejects encodings that are not canonical when decoding and always
	// produces canonical encodings.
	DER
)

// String returns "BER" or "DER".
func (r Rules) String() string {
	if r == DER {
		return "DER"
	}
	return "BER"
}

// Options configure encoding and decoding. A nil *Options is valid and is
// equivalent to the zero value: BER, definite lengths, strict field matching,
// no allocation tracking and no logging.
type Options struct {
	// Rules selects BER or DER.
	Rules Rules

	// Indefinite makes the encoder use the indefinite-length form for
	// constructed types. It is ignored under DER.
	Indefinite bool

	// SkipUnknownFields makes the decoder skip TLVs that appear after the last
	// declared field of a SEQUENCE. By default such TLVs are reported as
	// unexpected fields. Sequences marked as extensible always skip them.
	SkipUnknownFields bool

	// Tracker, if set, counts values produced by decoding and released by
	// [Type.Free].
	Tracker *Tracker

	// Logger receives debug records about field dispatch decisions. If nil,
	// nothing is logged.
	Logger *slog.Logger
}

func (o *Options) der() bool {
	return o != nil && o.Rules == DER
}

func (o *Options) indefinite() bool {
	return o != nil && o.Rules == BER && o.Indefinite
}

func (o *Options) skipUnknown() bool {
	return o != nil && o.SkipUnknownFields
}

func (o *Options) tracker() *Tracker {
	if o == nil {
		return nil
	}
	return o.Tracker
}

var discardLogger = slog.New(slog.DiscardHandler)

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

// A Tracker counts live values. Every value produced by a decode counts as one
// allocation and every value passed to [Type.Free] as one release. When a
// decode fails, all values produced during that decode have been released
// before the error is returned, so the count is the same as before the call.
//
// A Tracker may be shared between goroutines. A nil *Tracker ignores all
// calls.
type Tracker struct {
	live atomic.Int64
}

// Live returns the number of values allocated but not yet released.
func (t *Tracker) Live() int64 {
	if t == nil {
		return 0
	}
	return t.live.Load()
}

// Alloc records one allocation.
func (t *Tracker) Alloc() {
	if t != nil {
		t.live.Add(1)
	}
}

// Release records one release.
func (t *Tracker) Release() {
	if t != nil {
		t.live.Add(-1)
	}
}
