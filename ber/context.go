// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ber

import (
	"errors"
	"fmt"
	"log/slog"

	"codello.dev/asn1rt"
	"codello.dev/asn1rt/tlv"
)

var (
	errUnexpectedEOC       = errors.New("unexpected end of contents")
	errTruncatedHeader     = errors.New("header exceeds parent")
	errConstructedMismatch = errors.New("constructed bit does not match type")
	errExplicitEmpty       = errors.New("explicit tag without value")
	errExplicitMultiple    = errors.New("explicit tag with more than one value")
	errExplicitMismatch    = errors.New("explicit tag contains wrong type")
	errSegmentTag          = errors.New("wrong tag in constructed string")
	errMissingEOC          = errors.New("missing end of contents")
	errAborted             = errors.New("decoding aborted")
)

// maxPrealloc limits the buffer allocated up front for the content of a
// primitive TLV split across chunks. Larger contents grow as input arrives.
const maxPrealloc = 4096

type frameKind uint8

const (
	framePrimitive frameKind = iota
	frameSequence
	frameExplicit
	frameSkip
	frameSegments // constructed encoding of a string type
	frameSegment  // primitive segment of a constructed string
)

// frame is the state of one TLV that is being decoded.
type frame struct {
	tlv.Progress
	kind  frameKind
	typ   Type
	slot  int   // index of the field in the parent sequence
	start int64 // input offset of the header

	content []byte   // primitive, segment: content octets read so far
	segs    [][]byte // segments: contents of the completed segments

	seq  *SequenceType // sequence: type and record under construction
	rec  *Record
	next int // sequence: index of the next field to be matched

	val    any // explicit: decoded inner value
	hasVal bool
}

// Context is the state of a single decode. Input is passed to a context using
// [Context.Feed] in chunks of any size. The context keeps one frame per
// nesting level, so decoding resumes exactly where the previous chunk ended.
// No byte is read twice and the context never retains references to a chunk
// after Feed returns.
//
// A Context is not safe for concurrent use. Independent contexts may be used
// concurrently, even if they share types and options.
type Context struct {
	typ  Type
	opts *Options
	log  *slog.Logger

	root  tlv.Progress
	stack []frame

	hp      tlv.HeaderParser
	hpStart int64 // input offset of the header being parsed

	offset int64 // input bytes consumed
	status Status
	value  any
	err    error
}

// NewContext creates a context decoding a single value of type t.
func NewContext(t Type, opts *Options) *Context {
	c := &Context{typ: t, opts: opts, log: opts.logger()}
	c.Reset()
	return c
}

// Reset prepares c to decode a new value. Values of an unfinished decode are
// released. A completed value is owned by the caller and is not released.
func (c *Context) Reset() {
	c.Abort()
	c.root = tlv.RootProgress()
	c.stack = c.stack[:0]
	c.hp = tlv.HeaderParser{Strict: c.opts.der()}
	c.hpStart = 0
	c.offset = 0
	c.status = NeedMoreData
	c.value = nil
	c.err = nil
}

// Abort stops an unfinished decode and releases all values decoded so far.
// Subsequent calls to Feed return an error. Abort has no effect if c has
// already completed or failed.
func (c *Context) Abort() {
	if c.status == NeedMoreData && (len(c.stack) > 0 || c.hp.Started()) {
		c.fail(errAborted)
	}
}

// Status returns the current status of c.
func (c *Context) Status() Status {
	return c.status
}

// Value returns the decoded value once Feed has reported [Complete]. The caller
// owns the value and releases it through [Type.Free] if allocations are
// tracked.
func (c *Context) Value() any {
	if c.status != Complete {
		return nil
	}
	return c.value
}

// Err returns the error that made c fail, if any.
func (c *Context) Err() error {
	return c.err
}

// Depth returns the number of TLVs that are currently being decoded.
func (c *Context) Depth() int {
	return len(c.stack)
}

// InputOffset returns the number of bytes consumed so far.
func (c *Context) InputOffset() int64 {
	return c.offset
}

// Feed passes the next chunk of input to c. It returns the resulting status and
// the number of bytes consumed from chunk:
//
//   - [NeedMoreData]: all of chunk was consumed, the value is not complete yet.
//   - [Complete]: the value is complete. Bytes following the value in chunk are
//     not consumed.
//   - [Failed]: decoding failed. All values decoded so far have been released.
//
// Feeding an empty chunk is allowed. After c has completed or failed, Feed
// does not consume any more input.
func (c *Context) Feed(chunk []byte) (Status, int, error) {
	if c.status != NeedMoreData {
		return c.status, 0, c.err
	}
	n := 0
	for c.status == NeedMoreData {
		k, ok, err := c.step(chunk[n:])
		n += k
		c.offset += int64(k)
		if err != nil {
			c.fail(err)
			return Failed, n, err
		}
		if !ok {
			break
		}
	}
	return c.status, n, nil
}

// step performs one decoding step on b. It returns the number of bytes
// consumed and whether any progress was made.
func (c *Context) step(b []byte) (int, bool, error) {
	if f := c.top(); f != nil {
		if f.Done() {
			return 0, true, c.pop()
		}
		if f.kind == framePrimitive || f.kind == frameSegment || f.kind == frameSkip && f.Definite() {
			if len(b) == 0 {
				return 0, false, nil
			}
			return c.content(f, b), true, nil
		}
		// An indefinite-length TLV needs at least two more bytes for its
		// end-of-contents marker.
		if rem := f.Remaining(); !f.Definite() && !c.hp.Started() && rem != tlv.LengthIndefinite && rem < 2 {
			return 0, true, &SyntaxError{Tag: f.Header.Tag, Offset: f.start, Err: errMissingEOC}
		}
	}
	if len(b) == 0 {
		return 0, false, nil
	}
	return c.header(b)
}

// content consumes content octets of a primitive, segment or skipped TLV.
func (c *Context) content(f *frame, b []byte) int {
	n := min(len(b), f.Remaining())
	switch {
	case f.kind == framePrimitive && f.Offset == 0 && n == f.Remaining():
		// The whole content is available. The frame is popped before Feed
		// returns so there is no need to copy.
		f.content = b[:n:n]
	case f.kind == framePrimitive || f.kind == frameSegment:
		// Segments are kept until the constructed string is complete.
		if f.content == nil {
			f.content = make([]byte, 0, min(f.Length, maxPrealloc))
		}
		f.content = append(f.content, b[:n]...)
	}
	f.Advance(n)
	return n
}

// header consumes bytes of the next TLV header. Header bytes are never read
// beyond the end of the enclosing TLV.
func (c *Context) header(b []byte) (int, bool, error) {
	parent := c.progress()
	if !c.hp.Started() {
		c.hpStart = c.offset
	}
	avail, limited := b, false
	if rem := parent.Remaining(); rem != tlv.LengthIndefinite {
		if a := rem - c.hp.Len(); len(b) >= a {
			avail, limited = b[:a], true
		}
	}
	n, err := c.hp.Parse(avail)
	if errors.Is(err, tlv.ErrNeedMoreData) {
		if limited {
			return n, true, &SyntaxError{Offset: c.hpStart, Err: errTruncatedHeader}
		}
		return n, true, nil
	} else if err != nil {
		return n, true, &SyntaxError{Offset: c.hpStart, Err: err}
	}
	h, hl := c.hp.Header(), c.hp.Len()
	c.hp.Reset()
	p, err := parent.Nest(h, hl)
	if err != nil {
		return n, true, &SyntaxError{Tag: h.Tag, Offset: c.hpStart, Err: err}
	}
	return n, true, c.dispatch(h, p)
}

// dispatch handles the complete header h. p is the progress of the new TLV.
func (c *Context) dispatch(h tlv.Header, p tlv.Progress) error {
	f := c.top()
	if h.IsEndOfContents() {
		if f == nil || f.Definite() {
			return &SyntaxError{Offset: c.hpStart, Err: errUnexpectedEOC}
		}
		return c.pop()
	}
	if f == nil {
		if h.Tag != c.typ.Tag() {
			return &StructuralError{Type: c.typ.Name(), Tag: h.Tag, Err: ErrUnexpectedField}
		}
		return c.push(h, p, c.typ, -1)
	}
	switch f.kind {
	case frameSkip:
		return c.push(h, p, nil, -1)
	case frameSegments:
		if !f.typ.(segmentedType).isSegment(h.Tag) {
			return &SyntaxError{Tag: h.Tag, Offset: c.hpStart, Err: errSegmentTag}
		}
		kind := frameSegment
		if h.Constructed {
			kind = frameSegments
		}
		c.stack = append(c.stack, frame{Progress: p, kind: kind, typ: f.typ, slot: -1, start: c.hpStart})
		return nil
	case frameExplicit:
		inner := f.typ.(*explicitType).inner
		if f.hasVal {
			return &SyntaxError{Tag: f.Header.Tag, Offset: f.start, Err: errExplicitMultiple}
		}
		if h.Tag != inner.Tag() {
			return &SyntaxError{Tag: h.Tag, Offset: c.hpStart, Err: errExplicitMismatch}
		}
		return c.push(h, p, inner, -1)
	case frameSequence:
		i, err := c.match(f, h)
		if err != nil {
			return err
		}
		if i < 0 {
			return c.push(h, p, nil, -1)
		}
		return c.push(h, p, f.seq.members[i].typ, i)
	}
	panic("unreachable")
}

// match finds the field of the sequence in f that h belongs to. Absent
// OPTIONAL fields are passed over. Matching only moves forward through the
// field table. If h should be skipped, -1 is returned.
func (c *Context) match(f *frame, h tlv.Header) (int, error) {
	for ; f.next < len(f.seq.members); f.next++ {
		m := &f.seq.members[f.next]
		if m.tag == h.Tag {
			f.next++
			return f.next - 1, nil
		}
		if !m.Optional {
			return 0, &StructuralError{Type: f.seq.name, Field: m.Name, Tag: h.Tag, Err: ErrMissingField}
		}
		c.log.Debug("optional field absent", "type", f.seq.name, "field", m.Name, "offset", c.hpStart)
	}
	if f.seq.extensible || c.opts.skipUnknown() {
		c.log.Debug("skipping unknown field", "type", f.seq.name, "tag", h.Tag.String(), "offset", c.hpStart)
		return -1, nil
	}
	return 0, &StructuralError{Type: f.seq.name, Tag: h.Tag, Err: ErrUnexpectedField}
}

// push starts decoding a TLV of type t. A nil t skips the TLV.
func (c *Context) push(h tlv.Header, p tlv.Progress, t Type, slot int) error {
	f := frame{Progress: p, kind: frameSkip, typ: t, slot: slot, start: c.hpStart}
	if t != nil {
		if _, ok := t.(segmentedType); ok && h.Constructed && !c.opts.der() {
			f.kind = frameSegments
			c.stack = append(c.stack, f)
			return nil
		}
		if t.Constructed() != h.Constructed {
			return &SyntaxError{Tag: h.Tag, Offset: c.hpStart, Err: errConstructedMismatch}
		}
		switch tt := t.(type) {
		case *SequenceType:
			f.kind = frameSequence
			f.seq = tt
			f.rec = NewRecord(tt)
			c.opts.tracker().Alloc()
		case *explicitType:
			f.kind = frameExplicit
		case PrimitiveType:
			f.kind = framePrimitive
		default:
			return fmt.Errorf("ber: type %s does not support decoding", t.Name())
		}
	}
	c.stack = append(c.stack, f)
	return nil
}

// pop completes the topmost TLV and passes its value to the enclosing frame.
// The frame stays on the stack until its value is validated so that a failure
// releases it.
func (c *Context) pop() error {
	f := c.top()
	var (
		v   any
		err error
	)
	switch f.kind {
	case framePrimitive:
		v, err = c.decodeContent(f, f.content)
		f.content = nil
		if err != nil {
			return err
		}
	case frameSegment:
		v = f.content
	case frameSegments:
		if len(c.stack) > 1 && c.stack[len(c.stack)-2].kind == frameSegments {
			v = f.segs
			break
		}
		var content []byte
		if content, err = f.typ.(segmentedType).joinSegments(f.segs); err != nil {
			return &SyntaxError{Tag: f.Header.Tag, Offset: f.start, Err: err}
		}
		f.segs = nil
		if v, err = c.decodeContent(f, content); err != nil {
			return err
		}
	case frameSequence:
		for ; f.next < len(f.seq.members); f.next++ {
			if m := &f.seq.members[f.next]; !m.Optional {
				return &StructuralError{Type: f.seq.name, Field: m.Name, Err: ErrMissingField}
			}
		}
		v = f.rec
	case frameExplicit:
		if !f.hasVal {
			return &SyntaxError{Tag: f.Header.Tag, Offset: f.start, Err: errExplicitEmpty}
		}
		v = f.val
	}

	done := *f
	c.stack[len(c.stack)-1] = frame{}
	c.stack = c.stack[:len(c.stack)-1]
	c.progress().Absorb(done.Progress)

	parent := c.top()
	switch {
	case parent == nil:
		c.value = v
		c.status = Complete
	case done.kind == frameSkip:
	case parent.kind == frameSegments:
		if segs, ok := v.([][]byte); ok {
			parent.segs = append(parent.segs, segs...)
		} else {
			parent.segs = append(parent.segs, v.([]byte))
		}
	case parent.kind == frameSequence:
		parent.rec.Fields[done.slot] = asn1rt.Some(v)
	case parent.kind == frameExplicit:
		parent.val, parent.hasVal = v, true
	}
	return nil
}

// decodeContent converts the content octets of the primitive or constructed
// string TLV in f into a value and checks its constraints.
func (c *Context) decodeContent(f *frame, content []byte) (any, error) {
	v, err := f.typ.(PrimitiveType).DecodeContent(content, c.opts)
	if err != nil {
		var cErr *ConstraintError
		if errors.As(err, &cErr) {
			return nil, err
		}
		return nil, &SyntaxError{Tag: f.Header.Tag, Offset: f.start, Err: err}
	}
	if err = f.typ.CheckConstraints(v); err != nil {
		return nil, err
	}
	c.opts.tracker().Alloc()
	return v, nil
}

// fail releases all values owned by the stack and records err.
func (c *Context) fail(err error) {
	tr := c.opts.tracker()
	for i := len(c.stack) - 1; i >= 0; i-- {
		f := &c.stack[i]
		switch f.kind {
		case frameSequence:
			f.seq.Free(f.rec, tr)
		case frameExplicit:
			if f.hasVal {
				f.typ.Free(f.val, tr)
			}
		}
		c.stack[i] = frame{}
	}
	c.stack = c.stack[:0]
	c.status = Failed
	c.err = err
	c.log.Debug("decoding failed", "type", c.typ.Name(), "offset", c.offset, "error", err)
}

func (c *Context) top() *frame {
	if len(c.stack) == 0 {
		return nil
	}
	return &c.stack[len(c.stack)-1]
}

// progress returns the progress of the innermost TLV.
func (c *Context) progress() *tlv.Progress {
	if f := c.top(); f != nil {
		return &f.Progress
	}
	return &c.root
}
