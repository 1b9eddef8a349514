package cc

import "testing"

func TestEncodeEType2ClampsToBound(t *testing.T) {
	if _, ok := EncodeEType2(32768, 65536); !ok {
		t.Fatal("expected [32768][65536] to be accepted")
	}
	if _, ok := EncodeEType2(32769, 65536); ok {
		t.Fatal("expected [32769][65536] to be rejected")
	}
	if _, ok := EncodeEType2(32768, 65537); ok {
		t.Fatal("expected [32768][65537] to be rejected")
	}
}

func TestEncodeEType2RoundTrip(t *testing.T) {
	et, ok := EncodeEType2(100, 200)
	if !ok {
		t.Fatal("expected [100][200] to be accepted")
	}
	e0, e1 := DecodeEType2(et)
	if e0 != 100 || e1 != 200 {
		t.Fatalf("got [%d][%d], want [100][200]", e0, e1)
	}
}

func TestEncodeEType3ClampsToBound(t *testing.T) {
	if _, ok := EncodeEType3(1024, 1024, 2048); !ok {
		t.Fatal("expected [1024][1024][2048] to be accepted")
	}
	if _, ok := EncodeEType3(1025, 1024, 2048); ok {
		t.Fatal("expected overflow in the first dimension to be rejected")
	}
	if _, ok := EncodeEType3(1024, 1025, 2048); ok {
		t.Fatal("expected overflow in the second dimension to be rejected")
	}
	if _, ok := EncodeEType3(1024, 1024, 2049); ok {
		t.Fatal("expected overflow in the third dimension to be rejected")
	}
}

func TestEncodeEType3RoundTrip(t *testing.T) {
	et, ok := EncodeEType3(3, 5, 7)
	if !ok {
		t.Fatal("expected [3][5][7] to be accepted")
	}
	e0, e1, e2 := DecodeEType3(et)
	if e0 != 3 || e1 != 5 || e2 != 7 {
		t.Fatalf("got [%d][%d][%d], want [3][5][7]", e0, e1, e2)
	}
}

func TestParamCountCap(t *testing.T) {
	if ParamCountMax != 31 {
		t.Fatalf("ParamCountMax = %d, want 31", ParamCountMax)
	}
	et := EncodeFuncEType(0, 0, ParamCountMax)
	_, _, paramCount := DecodeFuncEType(et)
	if paramCount != 31 {
		t.Fatalf("round-tripped param count = %d, want 31", paramCount)
	}
}

func TestFuncETypeRoundTrip(t *testing.T) {
	mask := uint32(0b10110)
	et := EncodeFuncEType(mask, 3, 5)
	gotMask, gotCount, gotParams := DecodeFuncEType(et)
	if gotMask != mask || gotCount != 3 || gotParams != 5 {
		t.Fatalf("got (mask=%b count=%d params=%d), want (mask=%b count=3 params=5)", gotMask, gotCount, gotParams, mask)
	}
}
