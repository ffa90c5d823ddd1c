package replay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Executor is the session factory and call harness.
//
// It creates production, recording, and replaying sessions, runs callables
// under a session, and captures/restores manifests. An Executor holds no
// per-run state and may be shared; the sessions it creates are not.
type Executor struct {
	logger *slog.Logger
	newID  func() uuid.UUID
	clock  TimeService
	seedFn func() (int64, error)
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithIDGenerator sets the session ID generator.
// Tests use a fixed generator for stable session identity.
func WithIDGenerator(gen func() uuid.UUID) ExecutorOption {
	return func(e *Executor) {
		e.newID = gen
	}
}

// WithClock sets the time source used for production and recording
// sessions. Defaults to the system clock.
func WithClock(clock TimeService) ExecutorOption {
	return func(e *Executor) {
		e.clock = clock
	}
}

// WithSeedSource sets the entropy source for auto-generated RNG seeds.
func WithSeedSource(seedFn func() (int64, error)) ExecutorOption {
	return func(e *Executor) {
		e.seedFn = seedFn
	}
}

// NewExecutor creates an Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:  uuid.New,
		clock:  SystemTime{},
		seedFn: NewRandomSeed,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewProductionSession creates a session with real-clock time, a
// nondeterministically seeded RNG, and a pass-through effect recorder:
// effects execute against real implementations, nothing is captured.
func (e *Executor) NewProductionSession() (*Session, error) {
	seed, err := e.seedFn()
	if err != nil {
		return nil, fmt.Errorf("generate rng seed: %w", err)
	}

	s := &Session{
		ID:        e.newID(),
		Mode:      ModeProduction,
		Time:      e.clock,
		Rng:       NewSeededRng(seed),
		Effects:   NewEffectRecorder(ModeProduction, e.clock),
		StartedAt: e.clock.Now(),
	}

	e.logger.Debug("production session created", "session_id", s.ID)
	return s, nil
}

// NewRecordingSession creates a recording session with an auto-generated
// RNG seed. Recording keeps the real clock (actual wall-clock timestamps
// are preserved, not a frozen value); the generated seed is stored on the
// session so the run can be reproduced later.
func (e *Executor) NewRecordingSession() (*Session, error) {
	seed, err := e.seedFn()
	if err != nil {
		return nil, fmt.Errorf("generate rng seed: %w", err)
	}
	return e.NewRecordingSessionSeeded(seed), nil
}

// NewRecordingSessionSeeded creates a recording session with an explicit
// RNG seed.
func (e *Executor) NewRecordingSessionSeeded(seed int64) *Session {
	s := &Session{
		ID:        e.newID(),
		Mode:      ModeRecording,
		Time:      e.clock,
		Rng:       NewSeededRng(seed),
		Effects:   NewEffectRecorder(ModeRecording, e.clock),
		StartedAt: e.clock.Now(),
	}

	e.logger.Info("recording session created",
		"session_id", s.ID,
		"rng_seed", seed,
	)
	return s
}

// NewReplaySession creates a replaying session: time frozen at frozenAt
// for the session's lifetime, RNG reseeded with seed (reproducing the
// exact float sequence a recording session with the same seed produced),
// and an effect recorder preloaded with records.
//
// originalID optionally links back to the recording session being
// reproduced; pass nil when provenance is unknown.
func (e *Executor) NewReplaySession(frozenAt time.Time, seed int64, records []EffectRecord, originalID *uuid.UUID) (*Session, error) {
	frozen := NewFrozenTime(frozenAt)

	recorder, err := NewReplayRecorder(frozen, records)
	if err != nil {
		return nil, fmt.Errorf("preload effect records: %w", err)
	}

	s := &Session{
		ID:        e.newID(),
		Mode:      ModeReplaying,
		Time:      frozen,
		Rng:       NewSeededRng(seed),
		Effects:   recorder,
		StartedAt: frozen.Now(),
	}
	if originalID != nil {
		orig := *originalID
		s.OriginalSessionID = &orig
	}

	e.logger.Info("replay session created",
		"session_id", s.ID,
		"rng_seed", seed,
		"time_frozen_at", frozen.Now(),
		"effect_records", len(records),
	)
	return s, nil
}

// Fn is a callable that does not use the session directly (it may still
// retrieve it from the context via SessionFromContext).
type Fn func(ctx context.Context) (any, error)

// SessionFn is a callable that declares the session as a parameter.
type SessionFn func(ctx context.Context, s *Session) (any, error)

// Callable wraps a function for execution under a session. Whether the
// function wants the session injected is resolved once, when the Callable
// is built, never by per-call signature inspection.
type Callable struct {
	fn  Fn
	sfn SessionFn
}

// NewCallable wraps a plain function.
func NewCallable(fn Fn) Callable {
	return Callable{fn: fn}
}

// NewSessionCallable wraps a function that receives the session.
func NewSessionCallable(fn SessionFn) Callable {
	return Callable{sfn: fn}
}

// sessionCtxKey is the context key carrying the active session.
type sessionCtxKey struct{}

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFromContext returns the session carried by ctx, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return s, ok
}

// Execute invokes the callable under the session.
//
// The session is installed on the callable's context and, for a
// SessionFn, passed as its parameter. If the incoming ctx already carries
// a different session, the executor's own session silently wins: the
// overwrite is logged with both identities and the call proceeds — it
// never fails because of the conflict.
func (e *Executor) Execute(ctx context.Context, s *Session, c Callable) (any, error) {
	if c.fn == nil && c.sfn == nil {
		return nil, fmt.Errorf("callable has no function")
	}

	if prev, ok := SessionFromContext(ctx); ok && prev != s {
		e.logger.Warn("caller-supplied session overwritten by executor",
			"previous_session_id", prev.ID,
			"session_id", s.ID,
		)
	}
	ctx = WithSession(ctx, s)

	if c.sfn != nil {
		return c.sfn(ctx, s)
	}
	return c.fn(ctx)
}
