// Package extractor walks a Subspace chain backward and turns block authors and
// farmer votes into output rows.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/farmerledger/internal/subspace/digest"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
	"github.com/goodnatureofminers/farmerledger/pkg/retry"
	"github.com/goodnatureofminers/farmerledger/pkg/workerpool"
	"go.uber.org/zap"
)

// State is the lifecycle stage of a run.
type State string

const (
	StateInitializing State = "initializing"
	StateTraversing   State = "traversing"
	StateFinished     State = "finished"
	StateFailed       State = "failed"
	StateCanceled     State = "canceled"
)

// Result summarizes a run. LastBlock is meaningful only when Blocks > 0.
type Result struct {
	State      State
	Schema     model.SchemaID
	Blocks     uint64
	Rows       uint64
	FirstBlock uint64
	LastBlock  uint64
}

type cursor struct {
	number uint64
	hash   model.Hash
	// header is set when it was already fetched while resolving the start.
	header *model.BlockHeader
}

// Service extracts author and vote rows from a chain into a RowSink.
type Service struct {
	source  Source
	sink    RowSink
	metrics Metrics
	logger  *zap.Logger
	cfg     Config
	sleep   func(context.Context, time.Duration) error
}

// NewService validates cfg and builds a Service. The sink is owned by the
// service from here on and is closed when Run returns.
func NewService(
	source Source,
	sink RowSink,
	metrics Metrics,
	cfg Config,
	logger *zap.Logger,
) (*Service, error) {
	if source == nil {
		return nil, errors.New("extractor source is required")
	}
	if sink == nil {
		return nil, errors.New("extractor row sink is required")
	}
	if metrics == nil {
		return nil, errors.New("extractor metrics is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &Service{
		source:  source,
		sink:    sink,
		metrics: metrics,
		logger:  logger.Named("extractor"),
		cfg:     cfg,
		sleep:   retry.Sleep,
	}, nil
}

// Run walks from the start block down to the stop block. Rows of a block are
// appended only after the whole block decoded, so a failure or cancellation
// never leaves a partial block in the output.
func (s *Service) Run(ctx context.Context) (res Result, err error) {
	res.State = StateInitializing
	defer func() {
		closeErr := s.sink.Close()
		if closeErr == nil {
			return
		}
		if err != nil {
			s.logger.Warn("close output failed", zap.Error(closeErr))
			return
		}
		res.State = StateFailed
		err = fmt.Errorf("close output: %w", closeErr)
	}()

	cur, err := s.initialize(ctx, &res)
	if err != nil {
		return s.stop(ctx, res, err)
	}

	res.State = StateTraversing
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s.stop(ctx, res, ctxErr)
		}
		next, done, err := s.step(ctx, cur, &res)
		if err != nil {
			return s.stop(ctx, res, err)
		}
		if done {
			break
		}
		cur = next
	}

	res.State = StateFinished
	s.logger.Info("extraction finished",
		zap.Uint64("blocks", res.Blocks),
		zap.Uint64("rows", res.Rows),
		zap.Uint64("last_block", res.LastBlock))
	return res, nil
}

func (s *Service) stop(ctx context.Context, res Result, err error) (Result, error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		res.State = StateCanceled
	} else {
		res.State = StateFailed
	}
	return res, err
}

func (s *Service) initialize(ctx context.Context, res *Result) (cursor, error) {
	var genesisNumber uint64
	genesis, err := s.blockHash(ctx, &genesisNumber)
	if err != nil {
		return cursor{}, fmt.Errorf("resolve genesis hash: %w", err)
	}
	schema, err := s.cfg.Schema.Resolve(genesis, s.cfg.LegacyGenesis...)
	if err != nil {
		return cursor{}, err
	}
	res.Schema = schema

	start, err := s.resolveStart(ctx)
	if err != nil {
		return cursor{}, err
	}
	if start.number < s.cfg.StopBlock {
		return cursor{}, fmt.Errorf("%w: start block %d is below stop block %d", model.ErrConfig, start.number, s.cfg.StopBlock)
	}

	if err := s.sink.WriteHeader(s.cfg.Columns); err != nil {
		return cursor{}, fmt.Errorf("write header: %w", err)
	}

	s.logger.Info("starting extraction",
		zap.Stringer("genesis", genesis),
		zap.Stringer("schema", schema),
		zap.Uint64("start_block", start.number),
		zap.Uint64("stop_block", s.cfg.StopBlock),
		zap.Bool("include_space", s.cfg.IncludeSpace))
	return start, nil
}

func (s *Service) resolveStart(ctx context.Context) (cursor, error) {
	if s.cfg.StartBlock != nil {
		hash, err := s.blockHash(ctx, s.cfg.StartBlock)
		if err != nil {
			return cursor{}, fmt.Errorf("resolve start block %d: %w", *s.cfg.StartBlock, err)
		}
		return cursor{number: *s.cfg.StartBlock, hash: hash}, nil
	}

	hash, err := s.blockHash(ctx, nil)
	if err != nil {
		return cursor{}, fmt.Errorf("resolve best block: %w", err)
	}
	header, err := s.header(ctx, hash)
	if err != nil {
		return cursor{}, fmt.Errorf("resolve best block %s: %w", hash, err)
	}
	return cursor{number: header.Number, hash: hash, header: header}, nil
}

// step processes the block at cur and reports whether traversal is complete.
func (s *Service) step(ctx context.Context, cur cursor, res *Result) (cursor, bool, error) {
	started := time.Now()
	header, rows, err := s.processBlock(ctx, cur, res.Schema)
	s.metrics.ObserveBlock(err, started)
	if err != nil {
		number := cur.number
		if header != nil {
			number = header.Number
		}
		return cursor{}, false, &model.BlockError{Number: number, Hash: cur.hash, Schema: res.Schema, Err: err}
	}

	for _, row := range rows {
		if err := s.sink.AppendRow(row); err != nil {
			return cursor{}, false, &model.BlockError{
				Number: header.Number,
				Hash:   cur.hash,
				Schema: res.Schema,
				Err:    fmt.Errorf("append row: %w", err),
			}
		}
		s.metrics.ObserveRow(row.Kind)
		res.Rows++
	}

	if res.Blocks == 0 {
		res.FirstBlock = header.Number
	}
	res.Blocks++
	res.LastBlock = header.Number
	s.metrics.SetCurrentBlock(header.Number)
	if res.Blocks%s.cfg.ProgressEvery == 0 {
		s.logger.Info("progress",
			zap.Uint64("blocks", res.Blocks),
			zap.Uint64("block", header.Number),
			zap.Uint64("rows", res.Rows))
	}

	if header.Number <= s.cfg.StopBlock {
		return cursor{}, true, nil
	}
	return cursor{number: header.Number - 1, hash: header.ParentHash}, false, nil
}

// processBlock fetches everything the block needs and builds its rows: the
// author row first, then one row per farmer vote in event order. Events are
// decoded against the parent's runtime, so the header is fetched before the
// remaining requests fan out.
func (s *Service) processBlock(ctx context.Context, cur cursor, schema model.SchemaID) (*model.BlockHeader, []model.OutputRow, error) {
	header := cur.header
	if header == nil {
		var err error
		if header, err = s.header(ctx, cur.hash); err != nil {
			return nil, nil, err
		}
	}

	var (
		events []model.Event
		ranges model.SolutionRanges
	)
	tasks := []workerpool.Task{
		func(ctx context.Context) error {
			return s.withRetry(ctx, "events", func(ctx context.Context) (err error) {
				if events, err = s.source.Events(ctx, header); err != nil {
					return fmt.Errorf("fetch events: %w", err)
				}
				return nil
			})
		},
	}
	if s.cfg.IncludeSpace {
		tasks = append(tasks, func(ctx context.Context) error {
			return s.withRetry(ctx, "solution_ranges", func(ctx context.Context) (err error) {
				if ranges, err = s.source.SolutionRanges(ctx, cur.hash); err != nil {
					return fmt.Errorf("fetch solution ranges: %w", err)
				}
				return nil
			})
		})
	}
	if err := workerpool.Run(ctx, s.cfg.FetchWorkers, tasks...); err != nil {
		return header, nil, err
	}

	raw, err := header.PreRuntime()
	if err != nil {
		return header, nil, err
	}
	pre, err := digest.DecodePreDigest(schema, raw)
	if err != nil {
		return header, nil, err
	}

	var estimated *float64
	if s.cfg.IncludeSpace {
		v, err := s.cfg.Space.Estimate(ranges.Current)
		if err != nil {
			return header, nil, fmt.Errorf("estimate space: %w", err)
		}
		estimated = &v
	}

	rows := []model.OutputRow{{
		BlockNumber:    header.Number,
		Kind:           model.RowBlock,
		Slot:           &pre.Slot,
		PublicKey:      &pre.Solution.PublicKey,
		RewardAddress:  pre.Solution.RewardAddress,
		EstimatedSpace: estimated,
	}}
	for i, ev := range events {
		if !ev.IsFarmerVote() {
			continue
		}
		vote, err := digest.DecodeVoteEvent(ev.Data)
		if err != nil {
			return header, nil, fmt.Errorf("event %d: %w", i, err)
		}
		rows = append(rows, model.OutputRow{
			BlockNumber:   header.Number,
			Kind:          model.RowVote,
			PublicKey:     &vote.PublicKey,
			RewardAddress: vote.RewardAddress,
		})
	}
	return header, rows, nil
}

func (s *Service) blockHash(ctx context.Context, number *uint64) (hash model.Hash, err error) {
	err = s.withRetry(ctx, "block_hash", func(ctx context.Context) error {
		hash, err = s.source.BlockHash(ctx, number)
		return err
	})
	return hash, err
}

func (s *Service) header(ctx context.Context, hash model.Hash) (header *model.BlockHeader, err error) {
	err = s.withRetry(ctx, "header", func(ctx context.Context) error {
		if header, err = s.source.Header(ctx, hash); err != nil {
			return fmt.Errorf("fetch header: %w", err)
		}
		return nil
	})
	return header, err
}

// withRetry repeats op while it fails with a transport error.
func (s *Service) withRetry(ctx context.Context, operation string, op func(context.Context) error) error {
	r := retry.New(s.cfg.Retry, isRetryable, s.sleep, func(attempt int, err error, wait time.Duration) {
		s.metrics.ObserveRetry(operation)
		s.logger.Warn("node request failed, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
	return r.Do(ctx, op)
}

func isRetryable(err error) bool {
	return errors.Is(err, model.ErrTransport)
}
