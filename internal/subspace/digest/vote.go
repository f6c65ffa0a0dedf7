package digest

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
)

const voteFieldCount = 4

// DecodeVoteEvent decodes the fields of a subspace.FarmerVote event:
// public key, reward address, height and parent hash.
func DecodeVoteEvent(fields [][]byte) (model.VoteEvent, error) {
	if len(fields) != voteFieldCount {
		return model.VoteEvent{}, fmt.Errorf("%w: farmer vote has %d fields, want %d", model.ErrDecode, len(fields), voteFieldCount)
	}

	var v model.VoteEvent
	if err := fixed(fields[0], v.PublicKey[:], "public key"); err != nil {
		return model.VoteEvent{}, err
	}
	if err := fixed(fields[1], v.RewardAddress[:], "reward address"); err != nil {
		return model.VoteEvent{}, err
	}

	height, err := decodeHeight(fields[2])
	if err != nil {
		return model.VoteEvent{}, err
	}
	v.Height = height

	if err := fixed(fields[3], v.ParentHash[:], "parent hash"); err != nil {
		return model.VoteEvent{}, err
	}
	return v, nil
}

func fixed(src, dst []byte, field string) error {
	if len(src) != len(dst) {
		return fmt.Errorf("%w: farmer vote %s is %d bytes, want %d", model.ErrDecode, field, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

// decodeHeight accepts both u32 and u64 block numbers.
func decodeHeight(raw []byte) (uint64, error) {
	switch len(raw) {
	case 4:
		var h types.U32
		if err := codec.Decode(raw, &h); err != nil {
			return 0, fmt.Errorf("%w: farmer vote height: %v", model.ErrDecode, err)
		}
		return uint64(h), nil
	case 8:
		var h types.U64
		if err := codec.Decode(raw, &h); err != nil {
			return 0, fmt.Errorf("%w: farmer vote height: %v", model.ErrDecode, err)
		}
		return uint64(h), nil
	default:
		return 0, fmt.Errorf("%w: farmer vote height is %d bytes", model.ErrDecode, len(raw))
	}
}
