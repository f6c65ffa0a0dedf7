package model

import "fmt"

// DigestKind is the tag of a header digest log entry.
type DigestKind uint8

// Digest item tags as they appear on the wire.
const (
	DigestOther                     DigestKind = 0
	DigestConsensus                 DigestKind = 4
	DigestSeal                      DigestKind = 5
	DigestPreRuntime                DigestKind = 6
	DigestRuntimeEnvironmentUpdated DigestKind = 8
)

func (k DigestKind) String() string {
	switch k {
	case DigestOther:
		return "other"
	case DigestConsensus:
		return "consensus"
	case DigestSeal:
		return "seal"
	case DigestPreRuntime:
		return "pre-runtime"
	case DigestRuntimeEnvironmentUpdated:
		return "runtime-environment-updated"
	default:
		return "unknown"
	}
}

// DigestItem is a single tagged log entry of a block header.
type DigestItem struct {
	Kind   DigestKind
	Engine [4]byte
	Data   []byte
}

// BlockHeader is the subset of a header needed for backward traversal.
type BlockHeader struct {
	Number     uint64
	Hash       Hash
	ParentHash Hash
	Digest     []DigestItem
}

// PreRuntime returns the payload of the header's single pre-runtime digest item.
func (h BlockHeader) PreRuntime() ([]byte, error) {
	var (
		data  []byte
		found int
	)
	for _, item := range h.Digest {
		if item.Kind == DigestPreRuntime {
			data = item.Data
			found++
		}
	}
	switch found {
	case 0:
		return nil, ErrMissingDigest
	case 1:
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %d pre-runtime digest items", ErrDecode, found)
	}
}
