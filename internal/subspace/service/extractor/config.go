package extractor

import (
	"fmt"

	"github.com/goodnatureofminers/farmerledger/internal/subspace/digest"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/space"
	"github.com/goodnatureofminers/farmerledger/pkg/retry"
)

const (
	defaultProgressEvery uint64 = 1000
	defaultFetchWorkers         = 1
)

// Config controls a single extraction run.
type Config struct {
	// StartBlock is the first (highest) block to process; nil starts at the best block.
	StartBlock *uint64
	// StopBlock is the last (lowest) block to process.
	StopBlock uint64
	// IncludeSpace enables the per-block solution range query and space estimate.
	IncludeSpace bool
	Schema       digest.Mode
	// LegacyGenesis extends the built-in table of legacy networks.
	LegacyGenesis []model.Hash
	Space         space.Constants
	// Columns is the header row written before traversal.
	Columns       []string
	ProgressEvery uint64
	// FetchWorkers bounds the concurrent requests issued for one block.
	FetchWorkers int
	Retry        retry.Policy
}

// Validate reports configuration errors that can be detected before contacting the node.
func (c *Config) Validate() error {
	if c.StartBlock != nil && *c.StartBlock < c.StopBlock {
		return fmt.Errorf("%w: start block %d is below stop block %d", model.ErrConfig, *c.StartBlock, c.StopBlock)
	}
	if len(c.Columns) == 0 {
		return fmt.Errorf("%w: output columns are required", model.ErrConfig)
	}
	if c.IncludeSpace && c.Space.PieceSize == 0 {
		return fmt.Errorf("%w: space era is required when space estimation is enabled", model.ErrConfig)
	}
	if _, err := c.Schema.Resolve(model.Hash{}); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ProgressEvery == 0 {
		c.ProgressEvery = defaultProgressEvery
	}
	if c.FetchWorkers < 1 {
		c.FetchWorkers = defaultFetchWorkers
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = retry.DefaultPolicy
	}
}
