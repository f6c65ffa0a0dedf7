// Package digest decodes the Subspace consensus pre-runtime digest and farmer vote events.
package digest

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
)

const (
	slotSize = 8

	legacyPreDigestSize  = slotSize + model.HashLength
	currentPreDigestSize = slotSize + 2*model.HashLength
)

// PreDigestSize returns the exact encoded size of a pre-runtime digest under schema.
func PreDigestSize(schema model.SchemaID) (int, error) {
	switch schema {
	case model.SchemaLegacy:
		return legacyPreDigestSize, nil
	case model.SchemaCurrent:
		return currentPreDigestSize, nil
	default:
		return 0, fmt.Errorf("%w: unknown schema %s", model.ErrDecode, schema)
	}
}

// legacyPreDigest and currentPreDigest mirror the SCALE layouts of the two schemas.
type legacyPreDigest struct {
	Slot      types.U64
	PublicKey model.AccountID
}

type currentPreDigest struct {
	Slot          types.U64
	PublicKey     model.AccountID
	RewardAddress model.AccountID
}

// DecodePreDigest decodes raw pre-runtime digest bytes using the selected layout.
// The legacy layout carries no reward address; the public key is used in its place.
func DecodePreDigest(schema model.SchemaID, raw []byte) (model.PreDigest, error) {
	size, err := PreDigestSize(schema)
	if err != nil {
		return model.PreDigest{}, err
	}
	if len(raw) != size {
		return model.PreDigest{}, fmt.Errorf("%w: %s pre-digest is %d bytes, want %d", model.ErrDecode, schema, len(raw), size)
	}

	var d model.PreDigest
	switch schema {
	case model.SchemaLegacy:
		var v legacyPreDigest
		if err := codec.Decode(raw, &v); err != nil {
			return model.PreDigest{}, fmt.Errorf("%w: %s pre-digest: %v", model.ErrDecode, schema, err)
		}
		d.Slot = uint64(v.Slot)
		d.Solution.PublicKey = v.PublicKey
		d.Solution.RewardAddress = v.PublicKey
	case model.SchemaCurrent:
		var v currentPreDigest
		if err := codec.Decode(raw, &v); err != nil {
			return model.PreDigest{}, fmt.Errorf("%w: %s pre-digest: %v", model.ErrDecode, schema, err)
		}
		d.Slot = uint64(v.Slot)
		d.Solution.PublicKey = v.PublicKey
		d.Solution.RewardAddress = v.RewardAddress
		d.Solution.ExplicitRewardAddress = true
	}
	return d, nil
}

// EncodePreDigest encodes d using the selected layout.
func EncodePreDigest(schema model.SchemaID, d model.PreDigest) ([]byte, error) {
	switch schema {
	case model.SchemaLegacy:
		return codec.Encode(legacyPreDigest{
			Slot:      types.NewU64(d.Slot),
			PublicKey: d.Solution.PublicKey,
		})
	case model.SchemaCurrent:
		return codec.Encode(currentPreDigest{
			Slot:          types.NewU64(d.Slot),
			PublicKey:     d.Solution.PublicKey,
			RewardAddress: d.Solution.RewardAddress,
		})
	default:
		return nil, fmt.Errorf("unknown schema %s", schema)
	}
}
