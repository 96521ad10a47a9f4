package handle

import "testing"

func TestIsValidSentinelForEverySerial(t *testing.T) {
	for _, serial := range []uint32{0, 1, 2, 0x1234, 1<<(32-IndexBits) - 1} {
		h := Pack(int32(IndexMask), serial)
		if IsValid(h) {
			t.Fatalf("expected handle %#x (serial %d) to be invalid", h, serial)
		}
	}
	if IsValid(Invalid) {
		t.Fatal("expected canonical invalid handle to be invalid")
	}
}

func TestToIndexRoundTrip(t *testing.T) {
	indices := []int32{0, 1, 7, 64, 1000, int32(IndexMask) - 1}
	serials := []uint32{0, 1, 511, 0x1FFFF}
	for _, index := range indices {
		for _, serial := range serials {
			h := Pack(index, serial)
			if !IsValid(h) {
				t.Fatalf("expected handle for index %d serial %d to be valid", index, serial)
			}
			if got := ToIndex(h); got != index {
				t.Fatalf("index %d serial %d: got index %d", index, serial, got)
			}
			if got := Serial(h); got != serial {
				t.Fatalf("index %d serial %d: got serial %d", index, serial, got)
			}
		}
	}
}

func TestToIndexIgnoresValidity(t *testing.T) {
	if got := ToIndex(Invalid); got != int32(IndexMask) {
		t.Fatalf("expected sentinel index %d, got %d", IndexMask, got)
	}
}

func TestKnownHandles(t *testing.T) {
	tests := []struct {
		name  string
		h     uint32
		valid bool
		index int32
	}{
		{name: "zero", h: 0, valid: true, index: 0},
		{name: "index with serial", h: 0x0001_8005, valid: true, index: 5},
		{name: "sentinel low bits", h: 0x0000_7FFF, valid: false, index: 0x7FFF},
		{name: "all ones", h: 0xFFFF_FFFF, valid: false, index: 0x7FFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.h); got != tt.valid {
				t.Fatalf("IsValid(%#x) = %v, want %v", tt.h, got, tt.valid)
			}
			if got := ToIndex(tt.h); got != tt.index {
				t.Fatalf("ToIndex(%#x) = %d, want %d", tt.h, got, tt.index)
			}
		})
	}
}
