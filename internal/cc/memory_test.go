package cc

import "testing"

func TestDataSegmentOffsetsAreMonotonic(t *testing.T) {
	d := NewDataSegment(1024)
	prev := -1
	for i := 0; i < 10; i++ {
		off, err := d.Alloc(8)
		if err != nil {
			t.Fatal(err)
		}
		if off <= prev {
			t.Fatalf("offset %d did not increase past previous offset %d", off, prev)
		}
		prev = off
	}
}

func TestDataSegmentExhaustionIsResourceError(t *testing.T) {
	d := NewDataSegment(16)
	if _, err := d.Alloc(16); err != nil {
		t.Fatalf("expected the exact-fit allocation to succeed: %v", err)
	}
	_, err := d.Alloc(1)
	if err == nil {
		t.Fatal("expected an error once the segment bound is exceeded")
	}
	ce, ok := err.(*CompileError)
	if !ok || ce.Kind != ErrResource {
		t.Fatalf("expected a CompileError{Kind: ErrResource}, got %#v", err)
	}
}

func TestAllocStringAligns(t *testing.T) {
	d := NewDataSegment(1024)
	if _, err := d.AllocString("abc"); err != nil { // 4 bytes with NUL, already aligned
		t.Fatal(err)
	}
	if d.Len()%4 != 0 {
		t.Fatalf("data segment length %d not 4-byte aligned after AllocString", d.Len())
	}
	off, err := d.AllocString("ab") // 3 bytes with NUL, needs one pad byte
	if err != nil {
		t.Fatal(err)
	}
	if d.Len()%4 != 0 {
		t.Fatalf("data segment length %d not 4-byte aligned after second AllocString", d.Len())
	}
	if d.ReadByte(off) != 'a' || d.ReadByte(off+1) != 'b' || d.ReadByte(off+2) != 0 {
		t.Fatal("string bytes not written as expected")
	}
}
