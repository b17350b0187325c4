// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asn1rt is the runtime for descriptor-driven ASN.1 codecs. A schema
// compiler (or a developer writing descriptors by hand) describes each ASN.1
// type once, and a generic engine encodes and decodes values of that type.
// This package only defines the vocabulary shared by the engine and the
// descriptors. Encoding and decoding is implemented in subpackages:
//
//   - [codello.dev/asn1rt/tlv] implements the syntactic tag-length-value layer
//     of [Rec. ITU-T X.690].
//   - [codello.dev/asn1rt/ber] implements the type descriptors and the BER and
//     DER codec engine, including incremental decoding of chunked input.
//   - [codello.dev/asn1rt/t240] contains descriptors for the alert records of
//     the FEF intermediate draft.
//
// # Mapping of ASN.1 Types to Go Values
//
// Values handled by the engine are plain Go values:
//
//   - An ASN.1 BOOLEAN is a Go bool.
//   - An ASN.1 INTEGER or ENUMERATED is an int64. Values that do not fit into
//     64 bits are rejected as constraint violations.
//   - An ASN.1 OCTET STRING is a []byte.
//   - An ASN.1 BIT STRING is a [BitString].
//   - An ASN.1 NULL is a [Null].
//   - An ASN.1 OBJECT IDENTIFIER is an [ObjectIdentifier].
//   - The restricted character strings UTF8String, NumericString,
//     PrintableString, IA5String and VisibleString are Go strings.
//   - An ASN.1 SEQUENCE is a *ber.Record holding one [Optional] per component.
//
// OPTIONAL components that are not present are represented by an empty
// [Optional], never by a zero value.
//
// [Rec. ITU-T X.690]: https://www.itu.int/rec/T-REC-X.690
package asn1rt

import (
	"strconv"
	"strings"
)

// Tag constitutes an ASN.1 tag, consisting of its class and number. For
// details, see Section 8 of Rec. ITU-T X.680.
//
// The zero Tag is the reserved [UNIVERSAL 0] tag. Descriptors use it to
// indicate that no tag has been set.
type Tag struct {
	Class  Class
	Number uint
}

// Class holds the class part of an ASN.1 tag. The class acts as a namespace for
// the tag number. A Class value is an unsigned 2-bit integer. Class values
// whose value exceeds 2 bits are invalid.
//
//go:generate go tool stringer -type=Class -trimprefix=Class
type Class uint8

// IsValid reports whether c is a valid Class value.
func (c Class) IsValid() bool {
	return c <= 3
}

// Predefined [Class] constants. These are all the possible values that can be
// encoded in the [Class] type.
const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

// Universal returns the [ClassUniversal] tag with the given number.
func Universal(n uint) Tag { return Tag{ClassUniversal, n} }

// Application returns the [ClassApplication] tag with the given number.
func Application(n uint) Tag { return Tag{ClassApplication, n} }

// Context returns the [ClassContextSpecific] tag with the given number.
func Context(n uint) Tag { return Tag{ClassContextSpecific, n} }

// Private returns the [ClassPrivate] tag with the given number.
func Private(n uint) Tag { return Tag{ClassPrivate, n} }

// IsZero reports whether t is the zero (reserved) tag.
func (t Tag) IsZero() bool {
	return t == Tag{}
}

// String returns a string representation t in a format similar to the one used
// in ASN.1 notation. The tag number is enclosed by square brackets and prefixed
// with the class used. To avoid ambiguity the UNIVERSAL word is used for
// universal tags, although this is not valid ASN.1 syntax.
func (t Tag) String() string {
	if t.Class == ClassContextSpecific {
		return "[" + strconv.FormatUint(uint64(t.Number), 10) + "]"
	}
	return "[" + strings.ToUpper(t.Class.String()) + " " + strconv.FormatUint(uint64(t.Number), 10) + "]"
}

// TagReserved is a reserved tag number in the [ClassUniversal] namespace to be
// used by encoding rules. This assignment is defined in Rec. ITU-T X.680,
// Section 8, Table 1.
const TagReserved = 0

// These are some ASN.1 tag numbers are defined in the [ClassUniversal]
// namespace. These assignments are defined in Rec. ITU-T X.680, Section 8, Table
// 1.
const (
	TagBoolean          uint = 1
	TagInteger          uint = 2
	TagBitString        uint = 3
	TagOctetString      uint = 4
	TagNull             uint = 5
	TagOID              uint = 6
	TagObjectDescriptor uint = 7
	TagExternal         uint = 8
	TagReal             uint = 9
	TagEnumerated       uint = 10
	TagEmbeddedPDV      uint = 11
	TagUTF8String       uint = 12
	TagRelativeOID      uint = 13
	TagTime             uint = 14
	TagSequence         uint = 16
	TagSet              uint = 17
	TagNumericString    uint = 18
	TagPrintableString  uint = 19
	TagTeletexString    uint = 20
	TagT61String             = TagTeletexString
	TagVideotexString   uint = 21
	TagIA5String        uint = 22
	TagUTCTime          uint = 23
	TagGeneralizedTime  uint = 24
	TagGraphicString    uint = 25
	TagVisibleString    uint = 26
	TagISO646String          = TagVisibleString
	TagGeneralString    uint = 27
	TagUniversalString  uint = 28
	TagCharacterString  uint = 29
	TagBMPString        uint = 30
	TagDate             uint = 31
	TagTimeOfDay        uint = 32
	TagDateTime         uint = 33
	TagDuration         uint = 34
)
