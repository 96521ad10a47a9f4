package fieldpath

import (
	"errors"
	"testing"
)

func TestNewRejectsInvalidLengths(t *testing.T) {
	if _, err := New(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := New(0, 1, 2, 3, 4, 5, 6, 7); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}
	p, err := New(0, 1, 2, 3, 4, 5, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Len() != MaxDepth {
		t.Fatalf("expected len %d, got %d", MaxDepth, p.Len())
	}
}

func TestFromIntsRange(t *testing.T) {
	if _, err := FromInts([]int{1, 256}); err == nil {
		t.Fatal("expected error for segment above 255")
	}
	if _, err := FromInts([]int{-1}); err == nil {
		t.Fatal("expected error for negative segment")
	}
	p, err := FromInts([]int{3, 255})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.At(1) != 255 {
		t.Fatalf("expected 255, got %d", p.At(1))
	}
}

func TestKeyIsUniquePerPath(t *testing.T) {
	paths := []Path{
		MustNew(0),
		MustNew(0, 0),
		MustNew(1),
		MustNew(1, 0, 0),
		MustNew(1, 0),
		MustNew(0, 1),
	}
	seen := map[uint64]string{}
	for _, p := range paths {
		if prev, ok := seen[p.Key()]; ok {
			t.Fatalf("key collision between %s and %s", prev, p)
		}
		seen[p.Key()] = p.String()
	}
}

func TestSegmentsReturnsCopy(t *testing.T) {
	p := MustNew(4, 5)
	segs := p.Segments()
	segs[0] = 9
	if p.At(0) != 4 {
		t.Fatalf("path mutated through Segments: %s", p)
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b Path
		want int
	}{
		{MustNew(1), MustNew(1), 0},
		{MustNew(1), MustNew(1, 0), -1},
		{MustNew(2), MustNew(1, 9), 1},
		{MustNew(1, 2, 3), MustNew(1, 3), -1},
	}
	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Fatalf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := MustNew(1, 0, 12).String(); got != "1/0/12" {
		t.Fatalf("unexpected string %q", got)
	}
}
