package tlv

// Progress represents the decoding state of a single TLV. A decoder keeps one
// Progress per nesting level. At the bottom of such a stack there usually is a
// virtual constructed indefinite-length TLV (see [RootProgress]) representing
// the root level of the input stream.
//
// Only the topmost Progress of a stack is advanced while bytes are consumed.
// When a TLV is complete its Progress is removed and folded into its parent
// using [Progress.Absorb].
type Progress struct {
	Header

	// Offset indicates how far into the value of the TLV the decoder has
	// progressed, i.e. how many bytes have been read.
	Offset int

	// Length is the maximum length that the TLV value may have. This is at most the
	// length indicated by the header, but may be less if a surrounding TLV is more
	// restrictive. Length is [LengthIndefinite] if no restriction is known.
	Length int
}

// RootProgress returns the Progress of the virtual top-level TLV.
func RootProgress() Progress {
	return Progress{
		Header: Header{Length: LengthIndefinite, Constructed: true},
		Length: LengthIndefinite,
	}
}

// Remaining returns the remaining number of bytes within the value, or
// LengthIndefinite if the length of the element is unknown/indefinite.
func (p *Progress) Remaining() int {
	return max(p.Length-p.Offset, LengthIndefinite)
}

// Definite reports whether the TLV of p uses the definite-length form.
func (p *Progress) Definite() bool {
	return p.Header.Length != LengthIndefinite
}

// Done reports whether all content bytes of a definite-length TLV have been
// consumed. For indefinite-length TLVs Done is always false: their end is
// marked by an end-of-contents header.
func (p *Progress) Done() bool {
	return p.Definite() && p.Remaining() == 0
}

// Advance records that n content bytes have been consumed.
func (p *Progress) Advance(n int) {
	p.Offset += n
}

// Nest records that a child header h occupying n bytes has been read from the
// contents of p and returns the Progress of the child. An error is returned if
// the header or the contents of the child would exceed p.
func (p *Progress) Nest(h Header, n int) (Progress, error) {
	// uint conversion takes care of indefinite length
	if uint(n) > uint(p.Remaining()) {
		return Progress{}, errTruncated
	}
	p.Offset += n
	if h.Length != LengthIndefinite && uint(h.Length) > uint(p.Remaining()) {
		return Progress{}, errExceedsParent
	}
	return Progress{Header: h, Length: MinLength(h.Length, p.Remaining())}, nil
}

// Absorb folds the completed child into p, counting the child's content bytes
// as consumed content of p. The child's header bytes have already been counted
// by [Progress.Nest].
func (p *Progress) Absorb(child Progress) {
	p.Offset += child.Offset
}
