// Package handle encodes and decodes entity handles.
//
// A handle packs an entity index into its low IndexBits bits and a serial
// (generation) number into the remaining high bits. An index portion with
// every bit set is reserved and marks the handle as invalid.
package handle

const (
	// IndexBits is the number of low bits holding the entity index.
	IndexBits = 15
	// IndexMask selects the index portion of a handle.
	IndexMask uint32 = 1<<IndexBits - 1
	// Invalid is the canonical unset handle.
	Invalid uint32 = 0xFFFFFFFF
)

// IsValid reports whether the index portion of h is not the reserved sentinel.
func IsValid(h uint32) bool {
	return h&IndexMask != IndexMask
}

// ToIndex returns the entity index stored in h without checking validity.
func ToIndex(h uint32) int32 {
	return int32(h & IndexMask)
}

// Serial returns the generation bits of h.
func Serial(h uint32) uint32 {
	return h >> IndexBits
}

// Pack builds a handle from an index and a serial. Bits outside the
// respective ranges are discarded.
func Pack(index int32, serial uint32) uint32 {
	return serial<<IndexBits | uint32(index)&IndexMask
}
