// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1rt

import (
	"fmt"
	"testing"
)

func ExampleTag_String() {
	t1 := Application(17)
	t2 := Context(8)
	t3 := Universal(TagInteger)
	fmt.Println(t1.String())
	fmt.Println(t2.String())
	fmt.Println(t3.String())
	// Output:
	// [APPLICATION 17]
	// [8]
	// [UNIVERSAL 2]
}

func TestClass_IsValid(t *testing.T) {
	for c := range Class(8) {
		if got, want := c.IsValid(), c <= ClassPrivate; got != want {
			t.Errorf("Class(%d).IsValid() = %v, want %v", c, got, want)
		}
	}
}

func TestTag_IsZero(t *testing.T) {
	if !(Tag{}).IsZero() {
		t.Errorf("Tag{}.IsZero() = false, want true")
	}
	if Universal(TagInteger).IsZero() {
		t.Errorf("[UNIVERSAL 2].IsZero() = true, want false")
	}
	if Context(0).IsZero() {
		t.Errorf("[0].IsZero() = true, want false")
	}
}
