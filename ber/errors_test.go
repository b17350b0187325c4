// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"codello.dev/asn1rt"
)

func TestKindOf(t *testing.T) {
	tests := map[string]struct {
		err  error
		want Kind
	}{
		"Nil":          {nil, KindNone},
		"NeedMoreData": {ErrNeedMoreData, KindNeedMoreData},
		"Syntax":       {&SyntaxError{Err: io.ErrUnexpectedEOF}, KindMalformed},
		"Constraint":   {&ConstraintError{Type: "T"}, KindConstraint},
		"Missing":      {&StructuralError{Err: ErrMissingField}, KindMissingField},
		"Unexpected":   {&StructuralError{Err: ErrUnexpectedField}, KindUnexpectedField},
		"Encode":       {&EncodeError{Type: "T", Err: &ConstraintError{}}, KindConstraint},
		"Wrapped":      {fmt.Errorf("decoding: %w", &StructuralError{Err: ErrMissingField}), KindMissingField},
		"Other":        {io.ErrShortWrite, KindOther},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"Syntax": {&SyntaxError{Tag: asn1rt.Universal(asn1rt.TagInteger), Offset: 4, Err: errIntegerNotMinimal},
			"syntax error decoding [UNIVERSAL 2] at offset 4: integer not minimally encoded"},
		"SyntaxNoTag": {&SyntaxError{Offset: 7, Err: io.ErrUnexpectedEOF},
			"syntax error at offset 7: unexpected EOF"},
		"Constraint": {&ConstraintError{Type: "Percent", Value: int64(101), Err: errOutOfRange},
			"constraint violation in Percent for value 101: " + errOutOfRange.Error()},
		"Missing": {&StructuralError{Type: "ABC", Field: "c", Err: ErrMissingField},
			`structural error decoding ABC: missing mandatory field "c"`},
		"Unexpected": {&StructuralError{Type: "ABC", Tag: asn1rt.Context(3), Err: ErrUnexpectedField},
			"structural error decoding ABC: unexpected field (tag [3])"},
		"Encode": {&EncodeError{Type: "ABC", Err: io.ErrShortWrite},
			"encode error for ABC: short write"},
		"Unsupported": {&UnsupportedValueError{Type: "INTEGER", Value: "5"},
			"cannot use value of type string as INTEGER"},
		"UnsupportedNil": {&UnsupportedValueError{Type: "INTEGER"},
			"cannot use nil value as INTEGER"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSyntaxError_Is(t *testing.T) {
	err := &SyntaxError{Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("errors.Is(err, ErrMalformed) = false, want true")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("errors.Is(err, io.ErrUnexpectedEOF) = false, want true")
	}
	if errors.Is(err, ErrConstraint) {
		t.Errorf("errors.Is(err, ErrConstraint) = true, want false")
	}
}

func TestStatus_String(t *testing.T) {
	for st, want := range map[Status]string{NeedMoreData: "NeedMoreData", Complete: "Complete", Failed: "Failed", 7: "Status(7)"} {
		if got := st.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", uint8(st), got, want)
		}
	}
}
