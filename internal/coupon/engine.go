package coupon

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"coupongen/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ctxCheckInterval is how many consecutive collisions a worker tolerates
// between context checks.
const ctxCheckInterval = 1024

// EngineConfig holds configuration for the generation engine.
type EngineConfig struct {
	// Workers is the size of the worker pool. Zero means GOMAXPROCS.
	Workers int

	// Seed makes every worker source reproducible when Seeded is set.
	// Output is only fully reproducible with a single worker, since the
	// interleaving of workers decides which candidates win.
	Seed   uint64
	Seeded bool
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Option overrides engine configuration for a single run.
type Option func(*runOptions)

type runOptions struct {
	workers  int
	seed     uint64
	seeded   bool
	reserved CouponSet
}

// WithWorkers sets the worker pool size for one run.
func WithWorkers(n int) Option {
	return func(o *runOptions) {
		o.workers = n
	}
}

// WithSeed makes the run's random sources reproducible.
func WithSeed(seed uint64) Option {
	return func(o *runOptions) {
		o.seed = seed
		o.seeded = true
	}
}

// WithReserved excludes already issued codes from the run. Codes in the set
// that match the request's shape reduce the available space.
func WithReserved(set CouponSet) Option {
	return func(o *runOptions) {
		o.reserved = set
	}
}

// Stats describes the work done by one run.
type Stats struct {
	Workers    int
	Attempts   int64
	Collisions int64
	Duration   time.Duration
}

// Batch is the result of a buffered run.
type Batch struct {
	RunID   uuid.UUID
	Request ValidatedRequest
	// Codes holds exactly Request.Count distinct codes in unspecified order.
	Codes []string
	Stats Stats
}

// Engine generates batches of unique codes.
type Engine struct {
	config *EngineConfig
	logger zerolog.Logger
}

// NewEngine creates a new generation engine.
func NewEngine(config *EngineConfig, logger zerolog.Logger) *Engine {
	if config == nil {
		config = DefaultEngineConfig()
	}
	return &Engine{
		config: config,
		logger: logger.With().Str("component", "coupon-engine").Logger(),
	}
}

func (e *Engine) options(opts []Option) runOptions {
	o := runOptions{
		workers: e.config.Workers,
		seed:    e.config.Seed,
		seeded:  e.config.Seeded,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	return o
}

func (o runOptions) source(stream uint64) Source {
	if o.seeded {
		return NewSeededSource(o.seed, stream)
	}
	return NewEntropySource()
}

// Validate runs the capacity check for req with the given options applied.
func (e *Engine) Validate(req model.GenerationRequest, opts ...Option) (ValidatedRequest, error) {
	o := e.options(opts)
	return Validate(req, CountMatching(o.reserved, req))
}

// Generate produces exactly req.Count distinct codes using a pool of
// workers. The request is validated before any worker starts.
//
// Workers retry on collision without bound, so throughput degrades sharply
// as the count approaches the combinatorial space. The run stops early only
// when ctx is cancelled, in which case no codes are returned.
func (e *Engine) Generate(ctx context.Context, req model.GenerationRequest, opts ...Option) (*Batch, error) {
	o := e.options(opts)

	validated, err := Validate(req, CountMatching(o.reserved, req))
	if err != nil {
		e.logger.Debug().
			Err(err).
			Int("length", req.Length).
			Int("count", req.Count).
			Str("initials", req.Initials).
			Msg("generation request rejected")
		return nil, err
	}

	runID := uuid.New()
	workers := min(o.workers, req.Count)
	logger := e.logger.With().Str("run_id", runID.String()).Logger()

	logger.Info().
		Int("length", req.Length).
		Int("count", req.Count).
		Str("initials", req.Initials).
		Int("workers", workers).
		Str("space", validated.Space.String()).
		Msg("starting generation run")

	start := time.Now()
	registry := NewRegistry(req.Count, o.reserved)
	tickets := NewTickets(req.Count)

	var attempts, collisions atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		src := o.source(uint64(w))
		g.Go(func() error {
			gen := NewGenerator(src, req.Initials, validated.SuffixLen)
			var tried, collided int64
			defer func() {
				attempts.Add(tried)
				collisions.Add(collided)
			}()

			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				if _, ok := tickets.Claim(); !ok {
					return nil
				}
				for {
					tried++
					if registry.TryAccept(gen.Candidate()) {
						break
					}
					collided++
					if collided%ctxCheckInterval == 0 {
						if err := gctx.Err(); err != nil {
							return err
						}
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Int("accepted", registry.Len()).Msg("generation run aborted")
		return nil, err
	}

	codes := registry.Drain()
	if len(codes) != req.Count {
		logger.Error().
			Int("produced", len(codes)).
			Int("requested", req.Count).
			Msg("generation run produced wrong number of codes")
		return nil, model.NewSourceExhaustedError(len(codes), req.Count)
	}

	stats := Stats{
		Workers:    workers,
		Attempts:   attempts.Load(),
		Collisions: collisions.Load(),
		Duration:   time.Since(start),
	}

	logger.Info().
		Int("count", len(codes)).
		Int64("attempts", stats.Attempts).
		Int64("collisions", stats.Collisions).
		Dur("duration", stats.Duration).
		Msg("generation run completed")

	return &Batch{
		RunID:   runID,
		Request: validated,
		Codes:   codes,
		Stats:   stats,
	}, nil
}
