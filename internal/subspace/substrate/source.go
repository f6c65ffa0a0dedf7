package substrate

import (
	"context"
	"fmt"
	"sync"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/chain"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

var _ chain.Source = (*Source)(nil)

// Source implements chain.Source for a Subspace node.
type Source struct {
	rpc    Caller
	logger *zap.Logger

	mu       sync.Mutex
	decoders map[uint32]*EventDecoder
}

// NewSource creates a Source that issues requests through rpc.
func NewSource(rpc Caller, logger *zap.Logger) *Source {
	return &Source{
		rpc:      rpc,
		logger:   logger,
		decoders: make(map[uint32]*EventDecoder),
	}
}

type runtimeVersion struct {
	SpecName    string `json:"specName"`
	SpecVersion uint32 `json:"specVersion"`
}

// BlockHash returns the hash at number, or the best block hash when number is nil.
func (s *Source) BlockHash(ctx context.Context, number *uint64) (model.Hash, error) {
	var (
		hash *model.Hash
		err  error
	)
	if number == nil {
		err = s.rpc.CallContext(ctx, &hash, "chain_getBlockHash")
	} else {
		err = s.rpc.CallContext(ctx, &hash, "chain_getBlockHash", *number)
	}
	if err != nil {
		return model.Hash{}, classify(ctx, "chain_getBlockHash", err)
	}
	if hash == nil {
		if number == nil {
			return model.Hash{}, fmt.Errorf("%w: node returned no best block", model.ErrStateUnavailable)
		}
		return model.Hash{}, fmt.Errorf("%w: no block at height %d", model.ErrStateUnavailable, *number)
	}
	return *hash, nil
}

// Header returns the header of the block with the given hash.
func (s *Source) Header(ctx context.Context, hash model.Hash) (*model.BlockHeader, error) {
	var h *rpcHeader
	if err := s.rpc.CallContext(ctx, &h, "chain_getHeader", hash); err != nil {
		return nil, classify(ctx, "chain_getHeader", err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: header %s not found", model.ErrStateUnavailable, hash)
	}
	return h.toModel(hash)
}

// Events returns the events emitted in the block, in log order. They are
// decoded with the runtime that executed the block, which is the one in the
// parent's state; an upgrade enacted by the block only applies to its children.
func (s *Source) Events(ctx context.Context, header *model.BlockHeader) ([]model.Event, error) {
	raw, err := s.storage(ctx, systemEventsKey, header.Hash)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	dec, err := s.eventDecoder(ctx, runtimeAt(header))
	if err != nil {
		return nil, err
	}
	events, err := dec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("events at %s: %w", header.Hash, err)
	}
	return events, nil
}

// runtimeAt returns the block whose state holds the runtime that executed header.
func runtimeAt(header *model.BlockHeader) model.Hash {
	if header.Number == 0 {
		return header.Hash
	}
	return header.ParentHash
}

// SolutionRanges returns Subspace.SolutionRanges as of the given block.
func (s *Source) SolutionRanges(ctx context.Context, hash model.Hash) (model.SolutionRanges, error) {
	raw, err := s.storage(ctx, solutionRangesKey, hash)
	if err != nil {
		return model.SolutionRanges{}, err
	}
	if raw == nil {
		return model.SolutionRanges{}, fmt.Errorf("%w: Subspace.SolutionRanges at %s", model.ErrMissingChainState, hash)
	}
	// The current range is the leading u64 of the stored struct.
	var current types.U64
	if err := codec.Decode(raw, &current); err != nil {
		return model.SolutionRanges{}, fmt.Errorf("%w: solution ranges at %s: %v", model.ErrDecode, hash, err)
	}
	return model.SolutionRanges{Current: uint256.NewInt(uint64(current))}, nil
}

// storage returns nil when the key has no value at hash.
func (s *Source) storage(ctx context.Context, key []byte, hash model.Hash) ([]byte, error) {
	var raw *hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "state_getStorage", hexutil.Bytes(key), hash); err != nil {
		return nil, classify(ctx, "state_getStorage", err)
	}
	if raw == nil {
		return nil, nil
	}
	return *raw, nil
}

// eventDecoder returns the decoder for the runtime in the state of block at,
// fetching metadata once per spec version.
func (s *Source) eventDecoder(ctx context.Context, at model.Hash) (*EventDecoder, error) {
	var version runtimeVersion
	if err := s.rpc.CallContext(ctx, &version, "state_getRuntimeVersion", at); err != nil {
		return nil, classify(ctx, "state_getRuntimeVersion", err)
	}

	s.mu.Lock()
	dec, ok := s.decoders[version.SpecVersion]
	s.mu.Unlock()
	if ok {
		return dec, nil
	}

	var raw hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "state_getMetadata", at); err != nil {
		return nil, classify(ctx, "state_getMetadata", err)
	}
	dec, err := NewEventDecoder(raw)
	if err != nil {
		return nil, fmt.Errorf("spec version %d: %w", version.SpecVersion, err)
	}

	s.mu.Lock()
	s.decoders[version.SpecVersion] = dec
	s.mu.Unlock()
	s.logger.Info("loaded runtime metadata",
		zap.String("spec_name", version.SpecName),
		zap.Uint32("spec_version", version.SpecVersion),
		zap.Stringer("at", at),
	)
	return dec, nil
}
