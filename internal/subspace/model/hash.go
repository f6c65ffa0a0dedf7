package model

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// HashLength is the size of block hashes and account identifiers in bytes.
const HashLength = 32

// Hash identifies a block.
type Hash [HashLength]byte

// AccountID is a 32-byte public key or reward address.
type AccountID [HashLength]byte

// ParseHash decodes a 0x-prefixed hex string into a Hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hexutil.Decode(s)
	if err != nil {
		return h, fmt.Errorf("%w: hash %q: %w", ErrDecode, s, err)
	}
	if len(b) != HashLength {
		return h, fmt.Errorf("%w: hash %q has %d bytes, want %d", ErrDecode, s, len(b), HashLength)
	}
	copy(h[:], b)
	return h, nil
}

// MustParseHash is ParseHash for static tables; it panics on malformed input.
func MustParseHash(s string) Hash {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}

func (h Hash) String() string {
	return hexutil.Encode(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (a AccountID) String() string {
	return hexutil.Encode(a[:])
}
