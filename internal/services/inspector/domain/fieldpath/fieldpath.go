// Package fieldpath defines the compact numeric address of a field within an
// entity's schema tree.
package fieldpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxDepth is the deepest path a serializer tree can produce.
const MaxDepth = 7

var (
	// ErrEmpty indicates a path with no segments.
	ErrEmpty = errors.New("field path is empty")
	// ErrTooDeep indicates a path longer than MaxDepth.
	ErrTooDeep = errors.New("field path exceeds max depth")
)

// Path is an immutable sequence of up to MaxDepth segments. Each segment is
// either a child ordinal or a dynamic-array element index, depending on the
// shape of the schema node reached by the preceding segments.
type Path struct {
	segs [MaxDepth]uint8
	n    uint8
}

// New builds a path from segments.
func New(segs ...uint8) (Path, error) {
	if len(segs) == 0 {
		return Path{}, ErrEmpty
	}
	if len(segs) > MaxDepth {
		return Path{}, fmt.Errorf("%w: %d segments", ErrTooDeep, len(segs))
	}
	var p Path
	copy(p.segs[:], segs)
	p.n = uint8(len(segs))
	return p, nil
}

// MustNew is like New but panics on invalid input.
func MustNew(segs ...uint8) Path {
	p, err := New(segs...)
	if err != nil {
		panic(err)
	}
	return p
}

// FromInts builds a path from wider integers, rejecting values outside the
// uint8 range.
func FromInts(segs []int) (Path, error) {
	raw := make([]uint8, len(segs))
	for i, s := range segs {
		if s < 0 || s > 0xFF {
			return Path{}, fmt.Errorf("field path segment %d out of range: %d", i, s)
		}
		raw[i] = uint8(s)
	}
	return New(raw...)
}

// Len returns the number of segments.
func (p Path) Len() int {
	return int(p.n)
}

// At returns segment i. It panics when i is out of range.
func (p Path) At(i int) uint8 {
	if i < 0 || i >= int(p.n) {
		panic(fmt.Sprintf("field path index %d out of range [0,%d)", i, p.n))
	}
	return p.segs[i]
}

// Last returns the index of the final segment.
func (p Path) Last() int {
	return int(p.n) - 1
}

// Segments returns a copy of the segments.
func (p Path) Segments() []uint8 {
	out := make([]uint8, p.n)
	copy(out, p.segs[:p.n])
	return out
}

// Key packs the path into a unique integer: one byte per segment followed by
// the length in the top byte.
func (p Path) Key() uint64 {
	var k uint64
	for i := 0; i < int(p.n); i++ {
		k |= uint64(p.segs[i]) << (8 * i)
	}
	return k | uint64(p.n)<<56
}

// Compare orders paths lexicographically; a strict prefix sorts first.
func (p Path) Compare(other Path) int {
	n := min(p.n, other.n)
	for i := uint8(0); i < n; i++ {
		if p.segs[i] != other.segs[i] {
			if p.segs[i] < other.segs[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case p.n < other.n:
		return -1
	case p.n > other.n:
		return 1
	default:
		return 0
	}
}

// String renders the path as "/"-separated decimal segments.
func (p Path) String() string {
	parts := make([]string, p.n)
	for i := range parts {
		parts[i] = strconv.Itoa(int(p.segs[i]))
	}
	return strings.Join(parts, "/")
}
