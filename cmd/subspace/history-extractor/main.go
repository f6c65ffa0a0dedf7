package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/goodnatureofminers/farmerledger/internal/metrics"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/digest"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/model"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/output/csvfile"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/service/extractor"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/space"
	"github.com/goodnatureofminers/farmerledger/internal/subspace/substrate"
	"github.com/goodnatureofminers/farmerledger/pkg/retry"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	exitFailed = 1
	// exitCanceled is the conventional status of a process stopped by SIGINT.
	exitCanceled = 130
)

type config struct {
	RPCURL               string        `long:"rpc-url" env:"WS_URL" description:"Subspace node RPC endpoint (ws, wss, http or https)" required:"true"`
	Output               string        `long:"output" env:"OUTPUT" description:"path of the CSV file to write" required:"true"`
	StartBlock           *uint64       `long:"start-block" env:"START_AT_BLOCK" description:"first (highest) block to process; defaults to the best block"`
	StopBlock            uint64        `long:"stop-block" env:"STOP_AT_BLOCK" description:"last (lowest) block to process" default:"0"`
	IncludeSpace         bool          `long:"include-space" env:"INCLUDE_SPACE" description:"estimate pledged space for every block"`
	Profile              string        `long:"profile" env:"PROFILE" description:"output columns" default:"basic" choice:"basic" choice:"full"`
	Delimiter            string        `long:"delimiter" env:"DELIMITER" description:"overrides the profile's field delimiter"`
	SpaceEra             string        `long:"space-era" env:"SPACE_ERA" description:"space estimation constants" default:"sector" choice:"flat" choice:"sector"`
	Schema               string        `long:"schema" env:"SCHEMA" description:"pre-runtime digest layout" default:"auto" choice:"auto" choice:"legacy" choice:"current"`
	LegacyGenesis        []string      `long:"legacy-genesis" env:"LEGACY_GENESIS" env-delim:"," description:"genesis hash of an additional legacy-layout network"`
	Append               bool          `long:"append" env:"APPEND" description:"append to the output instead of truncating it"`
	FetchWorkers         int           `long:"fetch-workers" env:"FETCH_WORKERS" description:"concurrent requests per block" default:"1"`
	RPCRPS               int           `long:"rpc-rps" env:"RPC_RPS" description:"maximum RPC requests per second, 0 for unlimited" default:"0"`
	RetryAttempts        int           `long:"retry-attempts" env:"RETRY_ATTEMPTS" description:"attempts per node request" default:"5"`
	RetryInitialInterval time.Duration `long:"retry-initial-interval" env:"RETRY_INITIAL_INTERVAL" description:"delay before the first retry" default:"500ms"`
	RetryMaxInterval     time.Duration `long:"retry-max-interval" env:"RETRY_MAX_INTERVAL" description:"upper bound of the retry delay" default:"30s"`
	ProgressEvery        uint64        `long:"progress-every" env:"PROGRESS_EVERY" description:"log progress every N blocks" default:"1000"`
	Network              string        `long:"network" env:"NETWORK" description:"network label for metrics" default:"subspace"`
	MetricsAddr          string        `long:"metrics-addr" env:"METRICS_ADDR" description:"address for metrics server, empty to disable" default:":2112"`
}

func main() {
	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	res, err := run(ctx, cfg, logger)
	logger.Info("history extractor stopped",
		zap.String("state", string(res.State)),
		zap.Stringer("schema", res.Schema),
		zap.Uint64("blocks", res.Blocks),
		zap.Uint64("rows", res.Rows),
		zap.Uint64("first_block", res.FirstBlock),
		zap.Uint64("last_block", res.LastBlock))
	switch exitCode(res.State, err) {
	case exitCanceled:
		_ = logger.Sync()
		os.Exit(exitCanceled)
	case exitFailed:
		logger.Fatal("history extractor failed", zap.Error(err))
	}
}

// exitCode tells a completed walk apart from a failed or interrupted one.
func exitCode(state extractor.State, err error) int {
	switch {
	case state == extractor.StateCanceled:
		return exitCanceled
	case err != nil:
		return exitFailed
	default:
		return 0
	}
}

func run(ctx context.Context, cfg config, logger *zap.Logger) (extractor.Result, error) {
	layout, svcCfg, err := buildConfig(cfg)
	if err != nil {
		return extractor.Result{State: extractor.StateFailed}, err
	}

	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.MetricsAddr, logger)
	}

	client, err := substrate.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return extractor.Result{State: extractor.StateFailed}, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}
	defer client.Close()
	rpc := substrate.NewRPCClient(client, cfg.RPCRPS, metrics.NewRPCClient(cfg.Network))
	source := substrate.NewSource(rpc, logger.Named("substrate"))

	sink, err := csvfile.Open(cfg.Output, layout, cfg.Append)
	if err != nil {
		return extractor.Result{State: extractor.StateFailed}, err
	}
	svc, err := extractor.NewService(source, sink, metrics.NewExtractor(cfg.Network), svcCfg, logger)
	if err != nil {
		_ = sink.Close()
		return extractor.Result{State: extractor.StateFailed}, err
	}
	return svc.Run(ctx)
}

// buildConfig validates options that go-flags cannot check on its own.
func buildConfig(cfg config) (csvfile.Layout, extractor.Config, error) {
	layout, err := csvfile.ParseLayout(cfg.Profile)
	if err != nil {
		return csvfile.Layout{}, extractor.Config{}, err
	}
	if cfg.Delimiter != "" {
		d, size := utf8.DecodeRuneInString(cfg.Delimiter)
		if d == utf8.RuneError || size != len(cfg.Delimiter) {
			return csvfile.Layout{}, extractor.Config{}, fmt.Errorf("%w: delimiter %q must be a single character", model.ErrConfig, cfg.Delimiter)
		}
		layout = layout.WithDelimiter(d)
	}

	era, err := space.ParseEra(cfg.SpaceEra)
	if err != nil {
		return csvfile.Layout{}, extractor.Config{}, fmt.Errorf("%w: %v", model.ErrConfig, err)
	}

	legacy := make([]model.Hash, 0, len(cfg.LegacyGenesis))
	for _, s := range cfg.LegacyGenesis {
		h, err := model.ParseHash(s)
		if err != nil {
			return csvfile.Layout{}, extractor.Config{}, fmt.Errorf("%w: legacy genesis: %v", model.ErrConfig, err)
		}
		legacy = append(legacy, h)
	}

	policy := retry.DefaultPolicy
	policy.MaxAttempts = cfg.RetryAttempts
	policy.InitialInterval = cfg.RetryInitialInterval
	policy.MaxInterval = cfg.RetryMaxInterval

	svcCfg := extractor.Config{
		StartBlock:    cfg.StartBlock,
		StopBlock:     cfg.StopBlock,
		IncludeSpace:  cfg.IncludeSpace,
		Schema:        digest.Mode(cfg.Schema),
		LegacyGenesis: legacy,
		Space:         era,
		Columns:       layout.Header(),
		ProgressEvery: cfg.ProgressEvery,
		FetchWorkers:  cfg.FetchWorkers,
		Retry:         policy,
	}
	if err := svcCfg.Validate(); err != nil {
		return csvfile.Layout{}, extractor.Config{}, err
	}
	return layout, svcCfg, nil
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
