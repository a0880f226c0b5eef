package coupon

import (
	"context"
	"iter"
	"time"

	"coupongen/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StreamState is the lifecycle state of a Stream.
type StreamState int

const (
	// StatePending means no code has been pulled yet.
	StatePending StreamState = iota
	// StateEmitting means codes are being pulled.
	StateEmitting
	// StateExhausted is terminal: no further codes will be produced.
	StateExhausted
)

func (s StreamState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateEmitting:
		return "emitting"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Stream is a lazy, finite sequence of unique codes. Each successful Next
// claims one ticket and retries candidates against the run's registry until
// one is accepted, so memory for the codes themselves is only held by the
// registry. A Stream is for a single consumer and cannot be restarted.
type Stream struct {
	ctx      context.Context
	runID    uuid.UUID
	request  ValidatedRequest
	tickets  *Tickets
	registry *Registry
	gen      *Generator
	logger   zerolog.Logger

	state      StreamState
	code       string
	err        error
	emitted    int
	attempts   int64
	collisions int64
	started    time.Time
	duration   time.Duration
}

// Stream validates req and returns a lazy sequence of req.Count unique
// codes. Validation errors are returned here, before anything is generated.
func (e *Engine) Stream(ctx context.Context, req model.GenerationRequest, opts ...Option) (*Stream, error) {
	o := e.options(opts)

	validated, err := Validate(req, CountMatching(o.reserved, req))
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	return &Stream{
		ctx:      ctx,
		runID:    runID,
		request:  validated,
		tickets:  NewTickets(req.Count),
		registry: NewRegistry(req.Count, o.reserved),
		gen:      NewGenerator(o.source(0), req.Initials, validated.SuffixLen),
		logger:   e.logger.With().Str("run_id", runID.String()).Logger(),
		state:    StatePending,
	}, nil
}

// Next advances to the next code. It returns false once the requested count
// has been produced or an error occurred; check Err afterwards.
func (s *Stream) Next() bool {
	if s.state == StateExhausted {
		return false
	}
	if s.state == StatePending {
		s.started = time.Now()
	}
	s.state = StateEmitting

	if err := s.ctx.Err(); err != nil {
		s.finish(err)
		return false
	}

	if _, ok := s.tickets.Claim(); !ok {
		var err error
		if s.emitted != s.request.Count {
			err = model.NewSourceExhaustedError(s.emitted, s.request.Count)
		}
		s.finish(err)
		return false
	}

	var collided int64
	for {
		s.attempts++
		candidate := s.gen.Candidate()
		if s.registry.TryAccept(candidate) {
			s.code = candidate
			s.emitted++
			return true
		}
		s.collisions++
		collided++
		if collided%ctxCheckInterval == 0 {
			if err := s.ctx.Err(); err != nil {
				s.finish(err)
				return false
			}
		}
	}
}

func (s *Stream) finish(err error) {
	s.state = StateExhausted
	s.code = ""
	s.err = err
	s.duration = time.Since(s.started)

	event := s.logger.Debug()
	if err != nil {
		event = s.logger.Warn().Err(err)
	}
	event.
		Int("emitted", s.emitted).
		Int64("attempts", s.attempts).
		Int64("collisions", s.collisions).
		Dur("duration", s.duration).
		Msg("coupon stream exhausted")
}

// Code returns the code produced by the last successful Next.
func (s *Stream) Code() string {
	return s.code
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// State returns the current lifecycle state.
func (s *Stream) State() StreamState {
	return s.state
}

// RunID identifies this stream's run.
func (s *Stream) RunID() uuid.UUID {
	return s.runID
}

// Request returns the validated request driving the stream.
func (s *Stream) Request() ValidatedRequest {
	return s.request
}

// Emitted returns how many codes have been produced so far.
func (s *Stream) Emitted() int {
	return s.emitted
}

// Stats returns the work done so far. A stream has a single consumer, so
// Workers is always 1. Duration runs from the first Next to exhaustion.
func (s *Stream) Stats() Stats {
	duration := s.duration
	if s.state == StateEmitting {
		duration = time.Since(s.started)
	}
	return Stats{Workers: 1, Attempts: s.attempts, Collisions: s.collisions, Duration: duration}
}

// All adapts the stream to a range-over-func sequence. An error ending the
// stream is yielded as the final element.
func (s *Stream) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for s.Next() {
			if !yield(s.code, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

// Codes adapts a materialized slice to the same sequence shape as Stream.All.
func Codes(codes []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, code := range codes {
			if !yield(code, nil) {
				return
			}
		}
	}
}
