// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"io"
)

var errTrailingData = errors.New("extra data after data value encoding")

// maxConsecutiveEmptyReads is the number of reads returning neither data nor an
// error after which a [Decoder] gives up.
const maxConsecutiveEmptyReads = 100

// Unmarshal decodes a single value of type t from b. If b contains more than
// one value or ends before the value is complete, a [SyntaxError] is returned.
func Unmarshal(t Type, b []byte, opts *Options) (any, error) {
	c := NewContext(t, opts)
	st, n, err := c.Feed(b)
	if err != nil {
		return nil, err
	}
	if st == NeedMoreData {
		c.Abort()
		return nil, &SyntaxError{Offset: int64(n), Err: io.ErrUnexpectedEOF}
	}
	v := c.Value()
	if n < len(b) {
		t.Free(v, opts.tracker())
		return nil, &SyntaxError{Offset: int64(n), Err: errTrailingData}
	}
	return v, nil
}

//region type Decoder

// Decoder reads and decodes successive values from an input stream. The stream
// is read in chunks. Bytes following a value that were read from the stream
// are kept for the next call to [Decoder.Decode].
//
// To create a Decoder, use the [NewDecoder] function.
type Decoder struct {
	r    io.Reader
	opts *Options

	buf     []byte
	pending []byte // unconsumed part of buf
	offset  int64
	err     error // sticky read error
}

// NewDecoder creates a new [Decoder] reading from r using opts.
func NewDecoder(r io.Reader, opts *Options) *Decoder {
	return &Decoder{r: r, opts: opts, buf: make([]byte, 512)}
}

// InputOffset returns the number of bytes consumed by decoded values so far.
func (d *Decoder) InputOffset() int64 {
	return d.offset
}

// Buffered returns the bytes read from the underlying reader that have not
// been decoded yet. The slice is valid until the next call to Decode.
func (d *Decoder) Buffered() []byte {
	return d.pending
}

// Decode decodes the next value of type t from the stream. If the stream ends
// before the first byte of the value, io.EOF is returned. If it ends within
// the value, a [SyntaxError] wrapping io.ErrUnexpectedEOF is returned.
//
// Offsets in returned errors are relative to the start of the stream.
func (d *Decoder) Decode(t Type) (any, error) {
	c := NewContext(t, d.opts)
	c.offset = d.offset
	start := d.offset
	empty := 0
	for {
		if len(d.pending) > 0 {
			st, n, err := c.Feed(d.pending)
			d.pending = d.pending[n:]
			d.offset += int64(n)
			if err != nil {
				return nil, err
			}
			if st == Complete {
				return c.Value(), nil
			}
		}
		if d.err != nil {
			err := d.err
			if err == io.EOF {
				if d.offset == start {
					return nil, io.EOF
				}
				err = &SyntaxError{Offset: d.offset, Err: io.ErrUnexpectedEOF}
			}
			c.Abort()
			return nil, err
		}
		n, err := d.r.Read(d.buf)
		d.pending = d.buf[:n]
		d.err = err
		if n == 0 && err == nil {
			if empty++; empty >= maxConsecutiveEmptyReads {
				d.err = io.ErrNoProgress
			}
		} else {
			empty = 0
		}
	}
}

//endregion
