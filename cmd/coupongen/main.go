// Command coupongen writes a batch of unique coupon codes as a CSV export.
//
//	coupongen -length 10 -count 5000 -initials XM -out exports/xm.csv.gz
//
// With -s3 the -out value is an object key in the configured bucket. An -out
// of "-" writes plain CSV to stdout.
//
// File and S3 output runs the parallel worker pool and holds the batch in
// memory. With -workers 1 or -out - codes are streamed lazily by a single
// consumer in constant memory.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"coupongen/internal/config"
	"coupongen/internal/coupon"
	"coupongen/internal/export"
	"coupongen/internal/model"
	"coupongen/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type options struct {
	length   int
	count    int
	initials string
	out      string
	seed     uint64
	seeded   bool
	workers  int
	s3       bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flag.IntVar(&opts.length, "length", 0, "total coupon length, initials included")
	flag.IntVar(&opts.count, "count", 0, "number of unique coupons to generate")
	flag.StringVar(&opts.initials, "initials", "", "literal prefix of every coupon")
	flag.StringVar(&opts.out, "out", "coupons.csv", `output path, S3 key with -s3, or "-" for stdout; a .gz suffix compresses`)
	flag.Uint64Var(&opts.seed, "seed", 0, "seed for reproducible output; only exact with -workers 1")
	flag.IntVar(&opts.workers, "workers", 0, "worker pool size for file and S3 output, 0 means GENERATOR_WORKERS or GOMAXPROCS; 1 streams lazily")
	flag.BoolVar(&opts.s3, "s3", false, "write to the configured S3 bucket")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			opts.seeded = true
		}
	})

	cfg, err := config.LoadCLI()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewCLILogger(cfg.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, key, err := destination(ctx, cfg, opts, logger)
	if err != nil {
		return err
	}

	exclusions, err := loadExclusions(ctx, cfg, store, logger)
	if err != nil {
		return err
	}

	engineConfig := &coupon.EngineConfig{
		Workers: cfg.Generator.Workers,
		Seed:    cfg.Generator.Seed,
		Seeded:  cfg.Generator.Seeded,
	}
	if opts.workers > 0 {
		engineConfig.Workers = opts.workers
	}
	if opts.seeded {
		engineConfig.Seed = opts.seed
		engineConfig.Seeded = true
	}
	engine := coupon.NewEngine(engineConfig, logger)
	exporter := export.NewCSVExporter(logger)

	req := model.GenerationRequest{
		Length:   opts.length,
		Count:    opts.count,
		Initials: opts.initials,
	}
	result, err := writeExport(ctx, engine, exporter, req, exclusions, engineConfig.Workers, store, key, os.Stdout)
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", result.runID.String()).
		Str("key", key).
		Int("rows", result.rows).
		Int("workers", result.stats.Workers).
		Int64("collisions", result.stats.Collisions).
		Dur("duration", result.stats.Duration).
		Msg("export written")

	return nil
}

type exportResult struct {
	runID uuid.UUID
	rows  int
	stats coupon.Stats
}

// writeExport generates req and writes it as CSV to key in store, or to
// stdout when store is nil. Storage output with workers other than 1 uses
// the parallel pool; everything else streams lazily.
func writeExport(
	ctx context.Context,
	engine *coupon.Engine,
	exporter *export.CSVExporter,
	req model.GenerationRequest,
	reserved coupon.CouponSet,
	workers int,
	store storage.Storage,
	key string,
	stdout io.Writer,
) (exportResult, error) {
	if store != nil && workers != 1 {
		batch, err := engine.Generate(ctx, req, coupon.WithReserved(reserved))
		if err != nil {
			return exportResult{}, err
		}
		rows, err := exporter.ToStorage(ctx, store, key, coupon.Codes(batch.Codes))
		if err != nil {
			return exportResult{}, err
		}
		return exportResult{runID: batch.RunID, rows: rows, stats: batch.Stats}, nil
	}

	stream, err := engine.Stream(ctx, req, coupon.WithReserved(reserved))
	if err != nil {
		return exportResult{}, err
	}

	var rows int
	if store == nil {
		rows, err = exporter.WriteStream(ctx, stdout, stream.All())
	} else {
		rows, err = exporter.ToStorage(ctx, store, key, stream.All())
	}
	if err != nil {
		return exportResult{}, err
	}
	return exportResult{runID: stream.RunID(), rows: rows, stats: stream.Stats()}, nil
}

// destination resolves the storage and key for -out. A nil storage means stdout.
func destination(ctx context.Context, cfg *config.Config, opts options, logger zerolog.Logger) (storage.Storage, string, error) {
	if opts.s3 {
		if !cfg.S3.Enabled {
			return nil, "", fmt.Errorf("-s3 requires S3_ENABLED=true and S3_BUCKET")
		}
		s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		return s3Store, opts.out, nil
	}

	if opts.out == "-" {
		return nil, "", nil
	}

	localStore, err := storage.NewLocalStorage(filepath.Dir(opts.out), logger)
	if err != nil {
		return nil, "", err
	}
	return localStore, filepath.Base(opts.out), nil
}

// loadExclusions reads GENERATOR_EXCLUSION_KEYS from the local storage path,
// trying the export destination first when it is S3.
func loadExclusions(ctx context.Context, cfg *config.Config, store storage.Storage, logger zerolog.Logger) (coupon.CouponSet, error) {
	keys := cfg.Generator.ExclusionKeys
	if len(keys) == 0 {
		return nil, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.Storage.LocalPath, logger)
	if err != nil {
		return nil, err
	}

	var primary coupon.Loader
	if s3Store, ok := store.(*storage.S3Storage); ok {
		primary = coupon.NewStorageLoader(s3Store, "s3", logger)
	}
	loader := coupon.NewFallbackLoader(primary, coupon.NewStorageLoader(localStore, "local", logger), logger)

	set, err := coupon.LoadAll(ctx, loader, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusion files: %w", err)
	}
	return set, nil
}
