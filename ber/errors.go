// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/tlv"
)

//go:generate go tool stringer -type=Kind -trimprefix=Kind
//go:generate go tool stringer -type=Status

// Kind classifies the errors returned by this package.
type Kind uint8

const (
	KindNone            Kind = iota // no error
	KindNeedMoreData                // input ended before a value was complete
	KindMalformed                   // tag, length or content octets violate the encoding rules
	KindConstraint                  // value is well-formed but violates a constraint
	KindMissingField                // a mandatory SEQUENCE field is missing
	KindUnexpectedField             // a TLV matches no remaining SEQUENCE field
	KindOther                       // any other error, e.g. from an io.Writer
)

// Sentinel errors that the errors of this package match through [errors.Is].
var (
	ErrNeedMoreData    = tlv.ErrNeedMoreData
	ErrMalformed       = errors.New("malformed encoding")
	ErrConstraint      = errors.New("constraint violation")
	ErrMissingField    = errors.New("missing mandatory field")
	ErrUnexpectedField = errors.New("unexpected field")
)

// KindOf returns the [Kind] of err.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNeedMoreData):
		return KindNeedMoreData
	case errors.Is(err, ErrMissingField):
		return KindMissingField
	case errors.Is(err, ErrUnexpectedField):
		return KindUnexpectedField
	case errors.Is(err, ErrConstraint):
		return KindConstraint
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	}
	return KindOther
}

// Status is the result of feeding input to a [Context].
type Status uint8

const (
	NeedMoreData Status = iota // all input was consumed, the value is not complete yet
	Complete                   // the value is complete
	Failed                     // decoding failed
)

// A SyntaxError suggests that the BER data is invalid. This can either indicate
// that the nesting of TLVs contains an error, or that the content octets of a
// primitive encoding could not be converted into a valid value.
type SyntaxError struct {
	Tag    asn1rt.Tag // where the syntax error occurred, may be zero
	Offset int64      // input offset of the TLV containing the error
	Err    error
}

func (e *SyntaxError) Error() string {
	var s strings.Builder
	s.WriteString("syntax error")
	if !e.Tag.IsZero() {
		s.WriteString(" decoding ")
		s.WriteString(e.Tag.String())
	}
	s.WriteString(" at offset ")
	s.WriteString(strconv.FormatInt(e.Offset, 10))
	if e.Err != nil {
		s.WriteString(": ")
		s.WriteString(e.Err.Error())
	}
	return s.String()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrMalformed
}

// A ConstraintError indicates that a value is syntactically valid but violates
// a constraint of its type. It is returned by decoders as well as encoders.
type ConstraintError struct {
	Type  string // name of the violated type
	Value any    // offending value, nil if it cannot be represented
	Err   error
}

func (e *ConstraintError) Error() string {
	var s strings.Builder
	s.WriteString("constraint violation")
	if e.Type != "" {
		s.WriteString(" in ")
		s.WriteString(e.Type)
	}
	if e.Value != nil {
		s.WriteString(" for value ")
		s.WriteString(fmt.Sprint(e.Value))
	}
	if e.Err != nil {
		s.WriteString(": ")
		s.WriteString(e.Err.Error())
	}
	return s.String()
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraint
}

// A StructuralError suggests that the BER data is valid, but the fields of a
// SEQUENCE do not match its type. Err is either [ErrMissingField] or
// [ErrUnexpectedField].
type StructuralError struct {
	Type  string     // name of the SEQUENCE type
	Field string     // name of the affected field, if known
	Tag   asn1rt.Tag // tag of the offending TLV, if any
	Err   error
}

func (e *StructuralError) Error() string {
	var s strings.Builder
	s.WriteString("structural error")
	if e.Type != "" {
		s.WriteString(" decoding ")
		s.WriteString(e.Type)
	}
	if e.Err != nil {
		s.WriteString(": ")
		s.WriteString(e.Err.Error())
	}
	if e.Field != "" {
		s.WriteString(" ")
		s.WriteString(strconv.Quote(e.Field))
	}
	if e.Err == ErrUnexpectedField || !e.Tag.IsZero() {
		s.WriteString(" (tag ")
		s.WriteString(e.Tag.String())
		s.WriteString(")")
	}
	return s.String()
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// EncodeError indicates that a value could not be encoded. Err may wrap a
// [ConstraintError] or a [StructuralError].
type EncodeError struct {
	Type string
	Err  error
}

func (e *EncodeError) Error() string {
	var s strings.Builder
	s.WriteString("encode error")
	if e.Type != "" {
		s.WriteString(" for ")
		s.WriteString(e.Type)
	}
	s.WriteString(": ")
	s.WriteString(e.Err.Error())
	return s.String()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// UnsupportedValueError indicates that a Go value of the wrong type was passed
// to a [Type].
type UnsupportedValueError struct {
	Type  string
	Value any
}

func (e *UnsupportedValueError) Error() string {
	if e.Value == nil {
		return "cannot use nil value as " + e.Type
	}
	return fmt.Sprintf("cannot use value of type %T as %s", e.Value, e.Type)
}
