package substrate

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// twox128 is the 128-bit xxHash used for pallet and item prefixes.
func twox128(s string) []byte {
	out := make([]byte, 0, 16)
	for seed := uint64(0); seed < 2; seed++ {
		d := xxhash.NewWithSeed(seed)
		_, _ = d.WriteString(s)
		out = binary.LittleEndian.AppendUint64(out, d.Sum64())
	}
	return out
}

// StorageKey returns the key of a plain storage value.
func StorageKey(pallet, item string) []byte {
	return append(twox128(pallet), twox128(item)...)
}

var (
	systemEventsKey   = StorageKey("System", "Events")
	solutionRangesKey = StorageKey("Subspace", "SolutionRanges")
)
