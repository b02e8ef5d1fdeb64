// Package runner executes complete simulator sessions: seed a state from
// scenario text or a preset, play it headlessly, fingerprint the timeline
// and optionally record it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/loopsim/internal/compiler"
	"github.com/roach88/loopsim/internal/digest"
	"github.com/roach88/loopsim/internal/engine"
	"github.com/roach88/loopsim/internal/player"
	"github.com/roach88/loopsim/internal/presets"
	"github.com/roach88/loopsim/internal/store"
)

// Request describes one session. Exactly one of Source and Preset is set.
type Request struct {
	Source   string
	Preset   string
	Variant  engine.Variant
	MaxTicks int
}

func (r Request) validate() error {
	if r.Source != "" && r.Preset != "" {
		return errors.New("source and preset are mutually exclusive")
	}
	return nil
}

// Record is the outcome of a session.
type Record struct {
	Session store.Session

	// Initial is the seeded state before the first step.
	Initial engine.LoopState

	Result player.Result
}

// Logs returns the session's frame log.
func (r Record) Logs() []engine.FrameLog {
	return r.Result.Timeline()
}

// Runner runs sessions.
type Runner struct {
	sessionIDs SessionIDGenerator
	logger     *slog.Logger
	observer   engine.Observer
}

// Option configures a Runner.
type Option func(*Runner)

// WithSessionIDs sets the session id generator. Default: UUIDv7Generator.
func WithSessionIDs(g SessionIDGenerator) Option {
	return func(r *Runner) {
		r.sessionIDs = g
	}
}

// WithLogger sets the logger passed to the engine and player.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithObserver attaches an engine observer, typically metrics.
func WithObserver(o engine.Observer) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		sessionIDs: UUIDv7Generator{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Engine builds the engine a session runs on. Each session gets its own task
// id counter, so a replay assigns the same ids as the original run.
func (r *Runner) Engine(variant engine.Variant) *engine.Engine {
	opts := []engine.Option{
		engine.WithIDs(engine.NewSeqIDs()),
		engine.WithVariant(variant),
		engine.WithLogger(r.logger),
	}
	if r.observer != nil {
		opts = append(opts, engine.WithObserver(r.observer))
	}
	return engine.New(opts...)
}

// Seed returns the initial state for req on eng.
func Seed(eng *engine.Engine, req Request) (engine.LoopState, error) {
	if err := req.validate(); err != nil {
		return engine.LoopState{}, err
	}
	if req.Preset != "" {
		p, err := presets.Lookup(req.Preset)
		if err != nil {
			return engine.LoopState{}, err
		}
		return p.Apply(eng, engine.InitialState()), nil
	}
	return compiler.ForEngine(eng).Compile(req.Source, engine.InitialState()), nil
}

// Run seeds, plays and fingerprints req.
//
// Exhausting the tick budget is not an error: the record carries
// store.StatusBudgetExhausted and the partial timeline. Cancellation is.
func (r *Runner) Run(ctx context.Context, req Request) (Record, error) {
	rec, err := r.execute(ctx, req)
	if err != nil {
		return Record{}, err
	}
	rec.Session.ID = r.sessionIDs.Generate()

	r.logger.Debug("session complete",
		"session_id", rec.Session.ID,
		"variant", rec.Session.Variant,
		"ticks", rec.Session.Ticks,
		"status", rec.Session.Status,
		"digest", rec.Session.Digest,
	)
	return rec, nil
}

// execute runs req without assigning a session id.
func (r *Runner) execute(ctx context.Context, req Request) (Record, error) {
	if req.Variant == "" {
		req.Variant = engine.VariantEnhanced
	}
	if req.MaxTicks <= 0 {
		req.MaxTicks = player.DefaultMaxTicks
	}

	eng := r.Engine(req.Variant)
	initial, err := Seed(eng, req)
	if err != nil {
		return Record{}, fmt.Errorf("seed session: %w", err)
	}

	status := store.StatusDrained
	res, err := player.Play(ctx, eng, initial, player.Options{
		MaxTicks: req.MaxTicks,
		Logger:   r.logger,
	})
	switch {
	case engine.IsTickBudgetError(err):
		status = store.StatusBudgetExhausted
	case err != nil:
		return Record{}, err
	}

	sum, err := digest.Timeline(req.Variant, res.Timeline())
	if err != nil {
		return Record{}, err
	}

	return Record{
		Session: store.Session{
			Variant:  string(req.Variant),
			Source:   req.Source,
			Preset:   req.Preset,
			MaxTicks: req.MaxTicks,
			Ticks:    res.Ticks,
			Status:   status,
			Digest:   sum,
		},
		Initial: initial,
		Result:  res,
	}, nil
}

// Save writes rec to st.
func Save(ctx context.Context, st *store.Store, rec Record) error {
	return st.WriteSession(ctx, rec.Session, rec.Logs())
}

// ReplayResult compares a stored session against a fresh run of the same
// request.
type ReplayResult struct {
	Session store.Session

	// StoredDigest is recomputed from the stored frame logs.
	StoredDigest string

	// ReplayedDigest comes from re-running the session.
	ReplayedDigest string
}

// Intact reports whether the stored logs still hash to the recorded digest.
func (r ReplayResult) Intact() bool {
	return r.StoredDigest == r.Session.Digest
}

// Reproduced reports whether the replay produced the recorded timeline.
func (r ReplayResult) Reproduced() bool {
	return r.ReplayedDigest == r.Session.Digest
}

// OK reports whether the session is both intact and reproduced.
func (r ReplayResult) OK() bool {
	return r.Intact() && r.Reproduced()
}

// Replay re-runs the stored session id and compares digests.
func (r *Runner) Replay(ctx context.Context, st *store.Store, id string) (ReplayResult, error) {
	sess, err := st.ReadSession(ctx, id)
	if err != nil {
		return ReplayResult{}, err
	}
	logs, err := st.ReadFrameLogs(ctx, id)
	if err != nil {
		return ReplayResult{}, err
	}

	variant, err := engine.ParseVariant(sess.Variant)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}

	stored, err := digest.Timeline(variant, logs)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}

	rec, err := r.execute(ctx, Request{
		Source:   sess.Source,
		Preset:   sess.Preset,
		Variant:  variant,
		MaxTicks: sess.MaxTicks,
	})
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}

	out := ReplayResult{
		Session:        sess,
		StoredDigest:   stored,
		ReplayedDigest: rec.Session.Digest,
	}
	if !out.OK() {
		r.logger.Warn("replay mismatch",
			"session_id", id,
			"intact", out.Intact(),
			"reproduced", out.Reproduced(),
		)
	}
	return out, nil
}

// ReplayAll replays every stored session in insertion order.
func (r *Runner) ReplayAll(ctx context.Context, st *store.Store) ([]ReplayResult, error) {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ReplayResult, 0, len(sessions))
	for _, sess := range sessions {
		res, err := r.Replay(ctx, st, sess.ID)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}
