// Package chain defines the boundary between the history extractor and a Subspace node.
package chain

import (
	"context"

	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
)

// Source provides headers, events and state for any block retained by the node.
// Implementations report network failures as model.ErrTransport, pruned state as
// model.ErrStateUnavailable and absent storage as model.ErrMissingChainState.
type Source interface {
	// BlockHash returns the hash of the block at number, or of the best block when number is nil.
	BlockHash(ctx context.Context, number *uint64) (model.Hash, error)
	Header(ctx context.Context, hash model.Hash) (*model.BlockHeader, error)
	// Events returns the events emitted by the block, decoded with the runtime
	// that executed it (the one in its parent's state).
	Events(ctx context.Context, header *model.BlockHeader) ([]model.Event, error)
	SolutionRanges(ctx context.Context, hash model.Hash) (model.SolutionRanges, error)
}
