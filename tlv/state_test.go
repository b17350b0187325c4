package tlv

import (
	"testing"

	"codello.dev/asn1rt"
)

func TestProgress_Nest(t *testing.T) {
	seq := Header{asn1rt.Universal(asn1rt.TagSequence), true, 5}
	root := RootProgress()
	p, err := root.Nest(seq, 2)
	if err != nil {
		t.Fatalf("Nest() error = %v", err)
	}
	if root.Offset != 2 {
		t.Errorf("root.Offset = %d, want 2", root.Offset)
	}
	if p.Remaining() != 5 || p.Done() {
		t.Errorf("Remaining(), Done() = %d, %v, want 5, false", p.Remaining(), p.Done())
	}

	// an INTEGER with 1 content byte
	child, err := p.Nest(Header{asn1rt.Universal(asn1rt.TagInteger), false, 1}, 2)
	if err != nil {
		t.Fatalf("Nest() error = %v", err)
	}
	child.Advance(1)
	if !child.Done() {
		t.Errorf("child.Done() = false, want true")
	}
	p.Absorb(child)
	if p.Remaining() != 2 {
		t.Errorf("Remaining() = %d, want 2", p.Remaining())
	}

	if _, err = p.Nest(Header{asn1rt.Universal(asn1rt.TagInteger), false, 1}, 3); err != errTruncated {
		t.Errorf("Nest() with oversized header error = %v, want %v", err, errTruncated)
	}
	if _, err = p.Nest(Header{asn1rt.Universal(asn1rt.TagInteger), false, 2}, 2); err != errExceedsParent {
		t.Errorf("Nest() with oversized value error = %v, want %v", err, errExceedsParent)
	}
}

func TestProgress_IndefiniteInsideDefinite(t *testing.T) {
	parent := Progress{Header: Header{asn1rt.Universal(asn1rt.TagSequence), true, 10}, Length: 10}
	child, err := parent.Nest(Header{asn1rt.Universal(asn1rt.TagSequence), true, LengthIndefinite}, 2)
	if err != nil {
		t.Fatalf("Nest() error = %v", err)
	}
	if child.Definite() || child.Done() {
		t.Errorf("Definite(), Done() = %v, %v, want false, false", child.Definite(), child.Done())
	}
	if child.Remaining() != 8 {
		t.Errorf("Remaining() = %d, want 8", child.Remaining())
	}
}
