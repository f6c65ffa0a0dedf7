package extractor

import (
	"context"
	"time"

	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Source interface {
		BlockHash(ctx context.Context, number *uint64) (model.Hash, error)
		Header(ctx context.Context, hash model.Hash) (*model.BlockHeader, error)
		Events(ctx context.Context, header *model.BlockHeader) ([]model.Event, error)
		SolutionRanges(ctx context.Context, hash model.Hash) (model.SolutionRanges, error)
	}
	RowSink interface {
		WriteHeader(columns []string) error
		AppendRow(row model.OutputRow) error
		Close() error
	}
	Metrics interface {
		ObserveBlock(err error, started time.Time)
		ObserveRow(kind model.RowKind)
		ObserveRetry(operation string)
		SetCurrentBlock(number uint64)
	}
)
