// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1rt

import (
	"fmt"
	"testing"
)

func ExampleOptional() {
	present := Some[int64](0)
	absent := None[int64]()
	fmt.Println(present.IsPresent(), present)
	fmt.Println(absent.IsPresent(), absent)
	// Output:
	// true 0
	// false <absent>
}

func TestOptional_Get(t *testing.T) {
	var zero Optional[string]
	if v, ok := zero.Get(); ok || v != "" {
		t.Errorf("zero.Get() = %q, %v, want \"\", false", v, ok)
	}
	if got := zero.OrElse("x"); got != "x" {
		t.Errorf("zero.OrElse() = %q, want %q", got, "x")
	}
	o := Some("value")
	if v, ok := o.Get(); !ok || v != "value" {
		t.Errorf("Some().Get() = %q, %v, want %q, true", v, ok, "value")
	}
	if got := o.OrElse("x"); got != "value" {
		t.Errorf("Some().OrElse() = %q, want %q", got, "value")
	}
}

func TestBitString_IsValid(t *testing.T) {
	tests := map[string]struct {
		s    BitString
		want bool
	}{
		"Empty":       {BitString{}, true},
		"Exact":       {BitString{[]byte{0xff, 0xff}, 16}, true},
		"Padded":      {BitString{[]byte{0xff, 0x80}, 9}, true},
		"TooFewBytes": {BitString{[]byte{0xff}, 9}, false},
		"Negative":    {BitString{nil, -1}, false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.s.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBitString_String(t *testing.T) {
	tests := map[string]struct {
		s    BitString
		want string
	}{
		"Empty":     {BitString{}, ""},
		"OneByte":   {BitString{[]byte{0xa5}, 8}, "10100101"},
		"Partial":   {BitString{[]byte{0xa5, 0x80}, 10}, "10100101 10"},
		"ShortByte": {BitString{[]byte{0xe0}, 3}, "111"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.s.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObjectIdentifier(t *testing.T) {
	tests := map[string]struct {
		oid   ObjectIdentifier
		valid bool
		want  string
	}{
		"RSA":       {ObjectIdentifier{1, 2, 840, 113549}, true, "1.2.840.113549"},
		"JointISO":  {ObjectIdentifier{2, 999, 3}, true, "2.999.3"},
		"OneArc":    {ObjectIdentifier{1}, false, "1"},
		"FirstArc":  {ObjectIdentifier{3, 1}, false, "3.1"},
		"SecondArc": {ObjectIdentifier{1, 40}, false, "1.40"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.oid.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
			if got := tt.oid.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
	if !(ObjectIdentifier{1, 2, 3}).Equal(ObjectIdentifier{1, 2, 3}) {
		t.Errorf("Equal() = false, want true")
	}
}
