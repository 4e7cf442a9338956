// Package interval invokes a callback on a fixed cadence measured from an
// origin time. Ticks are numbered from the origin; ticks missed while the
// callback was busy are coalesced into the latest one.
package interval

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrNoHandler       = errors.New("interval: handler is required")
	ErrInvalidInterval = errors.New("interval: interval must be positive")
)

// Callback is invoked once per tick. Returning an error stops the runner.
type Callback func(context.Context, Tick) error

// Tick describes one emission.
type Tick struct {
	Seq      uint64
	At       time.Time
	Interval time.Duration
}

// Config configures a Runner.
type Config struct {
	Handler  Callback
	Interval time.Duration
	// Origin is the time of tick 0. Zero means the time Start is called.
	Origin time.Time
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger zerolog.Logger
}

// Runner emits ticks until stopped.
type Runner struct {
	cfg Config
	log zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner validates cfg and builds a stopped runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Handler == nil {
		return nil, ErrNoHandler
	}
	if cfg.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "interval").Logger(),
	}, nil
}

// Start begins emitting. Calling Start on a running runner is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	if r.cfg.Origin.IsZero() {
		r.cfg.Origin = r.cfg.Now()
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(runCtx, r.done)
}

// Stop halts the runner and waits for an in-flight callback to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// TickForTime returns the tick sequence number and its start for t.
func (r *Runner) TickForTime(t time.Time) (uint64, time.Time) {
	if t.Before(r.cfg.Origin) {
		return 0, r.cfg.Origin
	}
	seq := uint64(t.Sub(r.cfg.Origin) / r.cfg.Interval)
	return seq, r.tickStart(seq)
}

func (r *Runner) tickStart(seq uint64) time.Time {
	return r.cfg.Origin.Add(time.Duration(seq) * r.cfg.Interval)
}

func (r *Runner) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	next := uint64(1)
	timer := time.NewTimer(r.delayUntil(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			seq, at := r.TickForTime(r.cfg.Now())
			if seq < next {
				// woke early against the injected clock
				timer.Reset(r.delayUntil(next))
				continue
			}
			if err := r.cfg.Handler(ctx, Tick{Seq: seq, At: at, Interval: r.cfg.Interval}); err != nil {
				r.log.Error().Err(err).Uint64("seq", seq).Msg("Interval handler returned error")
				return
			}
			next = seq + 1
			timer.Reset(r.delayUntil(next))
		}
	}
}

func (r *Runner) delayUntil(seq uint64) time.Duration {
	d := r.tickStart(seq).Sub(r.cfg.Now())
	if d < 0 {
		return 0
	}
	return d
}
