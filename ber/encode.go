// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"bytes"
	"errors"
	"io"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/tlv"
)

var errExceedsLength = errors.New("write exceeds length")

// writerFunc wraps a function and implements the [io.WriterTo] interface. This
// type can be useful when implementing a custom [Type].
type writerFunc func(io.Writer) (int64, error)

func (fn writerFunc) WriteTo(w io.Writer) (int64, error) {
	return fn(w)
}

//region main encoding functions

// encodeValue begins encoding v as t. This is the first step of the 2-step
// encoding process. The second step is implemented by writeValue.
//
// The tag of the header generated by t is replaced by tag. If encoding fails,
// an [EncodeError] is returned.
func encodeValue(t Type, v any, tag asn1rt.Tag, opts *Options) (tlv.Header, io.WriterTo, error) {
	h, wt, err := t.Encode(v, opts)
	if err != nil {
		if errors.As(err, new(*EncodeError)) {
			return h, wt, err
		}
		return h, wt, &EncodeError{t.Name(), err}
	}
	if h.Length == tlv.LengthIndefinite && !h.Constructed {
		return h, nil, &EncodeError{t.Name(), errors.New("primitive, indefinite length encoding")}
	}
	if h.Length == tlv.LengthIndefinite && opts.der() {
		return h, nil, &EncodeError{t.Name(), errors.New("indefinite length encoding in DER")}
	}
	h.Tag = tag
	return h, wt, nil
}

// writeValue writes the encoding of h and the content octets identified by wt
// to w. This is the second step of the 2-step encoding process. The first step
// is implemented by encodeValue.
//
// Any error generated by writing wt to w is returned as-is. If wt does not
// write exactly h.Length bytes, the error wraps io.ErrShortWrite.
func writeValue(w io.Writer, h tlv.Header, wt io.WriterTo) (n int64, err error) {
	if h.Length == tlv.LengthIndefinite && !h.Constructed {
		panic("primitive, indefinite length encoding")
	}
	n1, err := tlv.WriteHeader(w, h)
	n = int64(n1)
	if err != nil {
		return n, err
	}
	lw := &limitWriter{w, h.Length, 0}
	if wt != nil {
		n2, err := wt.WriteTo(lw)
		n += n2
		if err != nil {
			return n, err
		}
		if n2 != lw.C {
			return n - n2 + lw.C, &EncodeError{h.Tag.String(), io.ErrShortWrite}
		}
	}
	if h.Length == tlv.LengthIndefinite {
		var n2 int
		n2, err = w.Write([]byte{0x00, 0x00})
		n += int64(n2)
	} else if lw.Len() != 0 {
		err = &EncodeError{h.Tag.String(), io.ErrShortWrite}
	}
	return n, err
}

//endregion

//region type limitWriter

// limitWriter is an io.Writer with two purposes:
//
//   - limitWriter can limit the number of bytes written to the underlying
//     writer.
//   - limitWriter counts the number of bytes written by the underlying
//     writer.
//
// Setting N to [tlv.LengthIndefinite] disables the write limiter.
type limitWriter struct {
	W io.Writer
	N int   // remaining bytes
	C int64 // bytes written
}

// Len returns the number of bytes remaining in w. Writing more than Len() bytes
// will result in an error.
func (w *limitWriter) Len() int {
	return w.N
}

func (w *limitWriter) Write(p []byte) (n int, err error) {
	if w.N != tlv.LengthIndefinite && len(p) > w.N {
		p = p[:w.N]
		err = errExceedsLength
	}
	n, err0 := w.W.Write(p)
	if err == nil {
		err = err0
	}
	w.C += int64(n)
	w.N = max(w.N-n, tlv.LengthIndefinite)
	return n, err
}

//endregion

//region type Encoder

// Encoder writes encodings of values to an output stream. It is the
// counterpart to the [Decoder] type.
//
// To create a new Encoder, use the [NewEncoder] function.
type Encoder struct {
	w    io.Writer
	opts *Options
}

// NewEncoder creates a new [Encoder] writing to w using opts.
func NewEncoder(w io.Writer, opts *Options) *Encoder {
	return &Encoder{w, opts}
}

// Encode writes the encoding of v as type t to the underlying writer. If v
// fails validation, an [EncodeError] is returned and nothing is written.
func (e *Encoder) Encode(t Type, v any) error {
	h, wt, err := encodeValue(t, v, t.Tag(), e.opts)
	if err != nil {
		return err
	}
	_, err = writeValue(e.w, h, wt)
	return err
}

//endregion

// Marshal returns the encoding of v as type t. If v fails validation, an
// [EncodeError] is returned.
func Marshal(t Type, v any, opts *Options) ([]byte, error) {
	h, wt, err := encodeValue(t, v, t.Tag(), opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if h.Length != tlv.LengthIndefinite {
		buf.Grow(tlv.HeaderLen(h) + h.Length)
	}
	if _, err = writeValue(&buf, h, wt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sprint returns the diagnostic representation of v as type t. If v is not a
// Go value of t, including nil, the result is "<invalid NAME>" regardless of
// t. Values violating a constraint of t are printed as usual.
func Sprint(t Type, v any) string {
	var uErr *UnsupportedValueError
	if err := t.CheckConstraints(v); errors.As(err, &uErr) && uErr.Type == t.Name() {
		return "<invalid " + t.Name() + ">"
	}
	return t.Print(v)
}
