// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/sync/errgroup"

	"codello.dev/asn1rt"
)

// feedChunks decodes data as t, feeding it to a context in chunks split at
// the given offsets.
func feedChunks(t Type, data []byte, opts *Options, splits ...int) (any, error) {
	c := NewContext(t, opts)
	prev := 0
	for _, s := range append(splits, len(data)) {
		chunk := data[prev:s]
		st, n, err := c.Feed(chunk)
		if err != nil {
			return nil, err
		}
		if st == Complete {
			if prev+n != len(data) {
				return nil, fmt.Errorf("completed after %d of %d bytes", prev+n, len(data))
			}
			return c.Value(), nil
		}
		if n != len(chunk) {
			return nil, fmt.Errorf("Feed() consumed %d of %d bytes with status %v", n, len(chunk), st)
		}
		prev = s
	}
	return nil, ErrNeedMoreData
}

func TestContext_Splits(t *testing.T) {
	tests := map[string]struct {
		typ  Type
		data []byte
		opts *Options
	}{
		"ABC":               {abcType, abcData, nil},
		"ABCFull":           {abcType, abcFullData, &Options{Rules: DER}},
		"Outer":             {outerType, outerData, nil},
		"OuterFull":         {outerType, outerFullData, &Options{Rules: DER}},
		"OuterIndefinite":   {outerType, outerIndefiniteData, nil},
		"MissingMandatory":  {abcType, []byte{0x30, 0x03, 0x80, 0x01, 0x01}, nil},
		"UnexpectedField":   {abcType, []byte{0x30, 0x0C, 0x80, 0x01, 0x01, 0x81, 0x01, 0x02, 0x82, 0x01, 0x03, 0x83, 0x01, 0x04}, nil},
		"ConstraintFailure": {NewSequence("S", Field{Name: "x", Type: testInt.WithRange(0, 10)}), []byte{0x30, 0x04, 0x02, 0x02, 0x00, 0xC8}, nil},
		"LongFormTag":       {testInt.WithTag(asn1rt.Private(1000)), []byte{0xDF, 0x87, 0x68, 0x81, 0x01, 0x2A}, nil},
		"SkippedIndefinite": {abcType, []byte{0x30, 0x80, 0x80, 0x01, 0x01, 0x82, 0x01, 0x03, 0xA9, 0x80, 0x24, 0x80, 0x04, 0x01, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			&Options{SkipUnknownFields: true}},
		"ConstructedOctets": {NewOctetString("OCTET STRING"), []byte{0x24, 0x80,
			0x24, 0x80, 0x04, 0x01, 0xAB, 0x00, 0x00,
			0x04, 0x02, 0xCD, 0xEF, 0x00, 0x00}, nil},
		"ConstructedBits":  {NewBitString("BIT STRING"), []byte{0x23, 0x80, 0x03, 0x02, 0x00, 0xAB, 0x03, 0x02, 0x04, 0xC0, 0x00, 0x00}, nil},
		"ConstructedChars": {NewUTF8String("UTF8String"), []byte{0x2C, 0x80, 0x04, 0x02, 0xC3, 0xA4, 0x0C, 0x01, 0x78, 0x00, 0x00}, nil},
		"ConstructedField": {outerType, []byte{0x30, 0x14,
			0x30, 0x06, 0x80, 0x01, 0x01, 0x82, 0x01, 0x03,
			0xA5, 0x0A, 0x24, 0x08, 0x04, 0x02, 0xAB, 0xCD, 0x04, 0x02, 0xEF, 0x01}, nil},
		"SegmentPadding": {NewBitString("BIT STRING"), []byte{0x23, 0x08, 0x03, 0x02, 0x04, 0xA0, 0x03, 0x02, 0x00, 0xC0}, nil},
		"MissingEOC":     {outerType, []byte{0x30, 0x08, 0x30, 0x80, 0x80, 0x01, 0x01, 0x82, 0x01, 0x03}, nil},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			want, wantErr := Unmarshal(tt.typ, tt.data, tt.opts)
			check := func(t *testing.T, got any, err error) {
				t.Helper()
				if wantErr != nil {
					if KindOf(err) != KindOf(wantErr) {
						t.Errorf("error = %v, want %v", err, wantErr)
					}
					return
				}
				if err != nil {
					t.Fatalf("error = %v, want nil", err)
				}
				if !reflect.DeepEqual(got, want) {
					t.Errorf("value = %v, want %v", got, want)
				}
			}
			t.Run("TwoChunks", func(t *testing.T) {
				for i := 1; i < len(tt.data); i++ {
					got, err := feedChunks(tt.typ, tt.data, tt.opts, i)
					check(t, got, err)
				}
			})
			t.Run("ThreeChunks", func(t *testing.T) {
				for i := 1; i < len(tt.data); i++ {
					for j := i + 1; j < len(tt.data); j++ {
						got, err := feedChunks(tt.typ, tt.data, tt.opts, i, j)
						check(t, got, err)
					}
				}
			})
			t.Run("ByteByByte", func(t *testing.T) {
				splits := make([]int, 0, len(tt.data))
				for i := 1; i < len(tt.data); i++ {
					splits = append(splits, i)
				}
				got, err := feedChunks(tt.typ, tt.data, tt.opts, splits...)
				check(t, got, err)
			})
		})
	}
}

func TestContext_Feed(t *testing.T) {
	c := NewContext(abcType, nil)
	st, n, err := c.Feed(abcData[:3])
	if st != NeedMoreData || n != 3 || err != nil {
		t.Fatalf("Feed() = %v, %d, %v, want NeedMoreData, 3, nil", st, n, err)
	}
	if c.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", c.Depth())
	}
	st, n, err = c.Feed(abcData[3:4])
	if st != NeedMoreData || n != 1 || err != nil {
		t.Fatalf("Feed() = %v, %d, %v, want NeedMoreData, 1, nil", st, n, err)
	}
	if c.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", c.Depth())
	}
	if c.Value() != nil {
		t.Errorf("Value() = %v before completion, want nil", c.Value())
	}
	st, n, err = c.Feed([]byte{})
	if st != NeedMoreData || n != 0 || err != nil {
		t.Fatalf("Feed(empty) = %v, %d, %v, want NeedMoreData, 0, nil", st, n, err)
	}

	rest := append(abcData[4:len(abcData):len(abcData)], 0x02, 0x01, 0x01)
	st, n, err = c.Feed(rest)
	if st != Complete || n != len(abcData)-4 || err != nil {
		t.Fatalf("Feed() = %v, %d, %v, want Complete, %d, nil", st, n, err, len(abcData)-4)
	}
	if !reflect.DeepEqual(c.Value(), abc(1, nil, 3)) {
		t.Errorf("Value() = %v, want %v", c.Value(), abc(1, nil, 3))
	}
	if c.InputOffset() != int64(len(abcData)) {
		t.Errorf("InputOffset() = %d, want %d", c.InputOffset(), len(abcData))
	}
	if st, n, _ = c.Feed(rest); st != Complete || n != 0 {
		t.Errorf("Feed() after completion = %v, %d, want Complete, 0", st, n)
	}

	c.Reset()
	if c.Status() != NeedMoreData || c.Value() != nil {
		t.Errorf("Reset() did not reset the context")
	}
	if st, _, _ = c.Feed(abcFullData); st != Complete {
		t.Errorf("Feed() after Reset() = %v, want Complete", st)
	}
}

func TestContext_FailureIsSticky(t *testing.T) {
	c := NewContext(abcType, nil)
	_, _, err := c.Feed([]byte{0x31})
	if err != nil {
		t.Fatalf("Feed() error = %v, want nil", err)
	}
	st, n, err := c.Feed([]byte{0x00})
	if st != Failed || n != 1 || !errors.Is(err, ErrUnexpectedField) {
		t.Fatalf("Feed() = %v, %d, %v, want Failed, 1, unexpected field", st, n, err)
	}
	st, n, err2 := c.Feed(abcData)
	if st != Failed || n != 0 || err2 != err || c.Err() != err {
		t.Errorf("Feed() after failure = %v, %d, %v, want Failed, 0, %v", st, n, err2, err)
	}
}

func TestContext_Tracker(t *testing.T) {
	bounded := NewSequence("Bounded",
		Field{Name: "a", Type: testInt, Tag: asn1rt.Context(0)},
		Field{Name: "b", Type: testInt, Tag: asn1rt.Context(1)},
		Field{Name: "c", Type: testInt.WithRange(0, 10), Tag: asn1rt.Context(2)},
	)
	nested := NewSequence("Nested",
		Field{Name: "x", Type: abcType},
		Field{Name: "y", Type: NewOctetString("OCTET STRING"), Tag: asn1rt.Context(0), Explicit: true},
		Field{Name: "z", Type: testInt},
	)
	tests := map[string]struct {
		typ  Type
		data []byte
		want Kind
	}{
		"MissingMandatory": {abcType, []byte{0x30, 0x09, 0x80, 0x01, 0x01, 0x81, 0x01, 0x02, 0x83, 0x01, 0x03}, KindMissingField},
		"UnexpectedField":  {abcType, []byte{0x30, 0x0C, 0x80, 0x01, 0x01, 0x81, 0x01, 0x02, 0x82, 0x01, 0x03, 0x83, 0x01, 0x04}, KindUnexpectedField},
		"Constraint":       {bounded, []byte{0x30, 0x0A, 0x80, 0x01, 0x01, 0x81, 0x01, 0x02, 0x82, 0x02, 0x00, 0xC8}, KindConstraint},
		"Malformed":        {bounded, []byte{0x30, 0x09, 0x80, 0x01, 0x01, 0x81, 0x01, 0x02, 0x82, 0x01}, KindMalformed},
		"NestedExplicit": {nested, []byte{0x30, 0x10,
			0x30, 0x06, 0x80, 0x01, 0x01, 0x82, 0x01, 0x03,
			0xA0, 0x03, 0x04, 0x01, 0xFF,
			0x0A, 0x01, 0x00}, KindMissingField},
		"Trailing": {abcType, append(abcData[:len(abcData):len(abcData)], 0x00), KindMalformed},
		"SegmentPadding": {outerType, []byte{0x30, 0x18,
			0x30, 0x06, 0x80, 0x01, 0x01, 0x82, 0x01, 0x03,
			0xA5, 0x04, 0x04, 0x02, 0xAB, 0xCD,
			0x23, 0x08, 0x03, 0x02, 0x04, 0xA0, 0x03, 0x02, 0x00, 0xC0}, KindMalformed},
		"MissingEOC": {outerType, []byte{0x30, 0x0E,
			0x30, 0x06, 0x80, 0x01, 0x01, 0x82, 0x01, 0x03,
			0xA5, 0x80, 0x04, 0x02, 0xAB, 0xCD}, KindMalformed},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tr := &Tracker{}
			_, err := Unmarshal(tt.typ, tt.data, &Options{Tracker: tr})
			if KindOf(err) != tt.want {
				t.Errorf("Unmarshal() error = %v, want kind %v", err, tt.want)
			}
			if tr.Live() != 0 {
				t.Errorf("Tracker.Live() = %d after failure, want 0", tr.Live())
			}
		})
	}

	t.Run("Success", func(t *testing.T) {
		tr := &Tracker{}
		v, err := Unmarshal(outerType, outerFullData, &Options{Tracker: tr})
		if err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		// outer, flag, inner, a, c, data, bits
		if tr.Live() != 7 {
			t.Errorf("Tracker.Live() = %d, want 7", tr.Live())
		}
		outerType.Free(v, tr)
		if tr.Live() != 0 {
			t.Errorf("Tracker.Live() = %d after Free, want 0", tr.Live())
		}
	})

	t.Run("Abort", func(t *testing.T) {
		tr := &Tracker{}
		c := NewContext(outerType, &Options{Tracker: tr})
		if st, _, err := c.Feed(outerFullData[:12]); st != NeedMoreData || err != nil {
			t.Fatalf("Feed() = %v, %v, want NeedMoreData", st, err)
		}
		// outer, flag, inner, a
		if tr.Live() != 4 {
			t.Errorf("Tracker.Live() = %d, want 4", tr.Live())
		}
		c.Abort()
		if tr.Live() != 0 {
			t.Errorf("Tracker.Live() = %d after Abort, want 0", tr.Live())
		}
		if st, _, err := c.Feed(outerFullData[12:]); st != Failed || err == nil {
			t.Errorf("Feed() after Abort = %v, %v, want Failed", st, err)
		}
	})
}

func TestContext_MissingEOC(t *testing.T) {
	typ := NewSequence("O",
		Field{Name: "i", Type: abcType},
		Field{Name: "z", Type: testInt, Tag: asn1rt.Context(9), Optional: true},
	)
	inner := []byte{0x30, 0x80, 0x80, 0x01, 0x01, 0x82, 0x01, 0x03}
	tests := map[string]struct {
		typ  Type
		data []byte
		want Status
	}{
		"NoSpace": {typ, append([]byte{0x30, 0x08}, inner...), Failed},
		"OneByte": {typ, append([]byte{0x30, 0x09}, inner...), Failed},
		"EOCFits": {typ, append([]byte{0x30, 0x0A}, inner...), NeedMoreData},
		"AtRoot":  {abcType, inner, NeedMoreData},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tr := &Tracker{}
			c := NewContext(tt.typ, &Options{Tracker: tr})
			for i := range tt.data {
				st, n, err := c.Feed(tt.data[i : i+1])
				if i < len(tt.data)-1 && (st != NeedMoreData || err != nil) {
					t.Fatalf("Feed() at %d = %v, %v, want NeedMoreData", i, st, err)
				}
				if i == len(tt.data)-1 && (st != tt.want || n != 1) {
					t.Fatalf("Feed() = %v, %d, %v, want %v, 1", st, n, err, tt.want)
				}
			}
			if tt.want == Failed {
				if !errors.Is(c.Err(), errMissingEOC) || KindOf(c.Err()) != KindMalformed {
					t.Errorf("Err() = %v, want missing end of contents", c.Err())
				}
				if tr.Live() != 0 {
					t.Errorf("Tracker.Live() = %d, want 0", tr.Live())
				}
			}
		})
	}
}

func TestContext_Concurrent(t *testing.T) {
	inputs := [][]byte{abcData, abcFullData, outerData, outerFullData, outerIndefiniteData}
	types := []Type{abcType, abcType, outerType, outerType, outerType}
	tr := &Tracker{}
	opts := &Options{Tracker: tr}

	var g errgroup.Group
	for w := range 16 {
		g.Go(func() error {
			for i := range 50 {
				k := (w + i) % len(inputs)
				c := NewContext(types[k], opts)
				data := inputs[k]
				for j := 0; j < len(data); j += 3 {
					st, _, err := c.Feed(data[j:min(j+3, len(data))])
					if err != nil {
						return err
					}
					if st == Complete {
						break
					}
				}
				if c.Status() != Complete {
					return fmt.Errorf("worker %d: decoding input %d did not complete", w, k)
				}
				types[k].Free(c.Value(), tr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if tr.Live() != 0 {
		t.Errorf("Tracker.Live() = %d, want 0", tr.Live())
	}
}

func TestContext_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	_, err := Unmarshal(abcType, abcData, &Options{Logger: logger})
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !strings.Contains(buf.String(), "optional field absent") || !strings.Contains(buf.String(), "field=b") {
		t.Errorf("log output = %q, want record about absent field b", buf.String())
	}
}
