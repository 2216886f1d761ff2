package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/shared"
)

// Sampler reads one snapshot from the player.
type Sampler interface {
	Sample(ctx context.Context) (models.Snapshot, error)
}

// MetadataResolver turns a snapshot into catalog metadata.
type MetadataResolver interface {
	Resolve(ctx context.Context, snap models.Snapshot, reason models.ChangeReason) (*models.ResolvedTrack, error)
}

// ChangeDispatcher delivers a resolved change to the sinks.
type ChangeDispatcher interface {
	Dispatch(ctx context.Context, change models.Change) error
}

// EngineOpts configures an [Engine]. Zero durations take the config defaults.
type EngineOpts struct {
	Sampler    Sampler
	Resolver   MetadataResolver
	Dispatcher ChangeDispatcher
	Interval   time.Duration
	Timeout    time.Duration
	Logger     *log.Logger
	Progress   chan<- Update
	Now        func() time.Time
}

// Engine is the reconciliation loop.
//
// Ticks are not serialised: each runs in its own goroutine and the last
// resolution to finish overwrites the reconciled state. A resolution that
// finishes after another tick already stored the same state is dropped.
type Engine struct {
	sampler    Sampler
	resolver   MetadataResolver
	dispatcher ChangeDispatcher

	state  atomic.Pointer[models.ReconciledState]
	last   atomic.Pointer[models.ResolvedTrack]
	commit sync.Mutex

	interval time.Duration
	timeout  time.Duration
	nudge    chan struct{}
	inflight sync.WaitGroup
	progress chan<- Update
	now      func() time.Time
	logger   *log.Logger
}

// NewEngine creates an engine from opts.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		sampler:    opts.Sampler,
		resolver:   opts.Resolver,
		dispatcher: opts.Dispatcher,
		interval:   opts.Interval,
		timeout:    opts.Timeout,
		nudge:      make(chan struct{}, 1),
		progress:   opts.Progress,
		now:        opts.Now,
		logger:     shared.WithLogger(opts.Logger, "component", "engine"),
	}
}

// State returns the last reconciled state, or nil before the first resolution.
func (e *Engine) State() *models.ReconciledState {
	return e.state.Load()
}

// Nudge requests an immediate forced tick. Nudges arriving before the
// pending one is picked up are merged.
func (e *Engine) Nudge() {
	select {
	case e.nudge <- struct{}{}:
	default:
	}
}

// Follow nudges the engine for every value received on triggers until it closes or ctx ends.
func (e *Engine) Follow(ctx context.Context, triggers <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-triggers:
			if !ok {
				return
			}
			e.logger.Debug("seek control used")
			e.Nudge()
		}
	}
}

// Run ticks every interval and on every nudge until ctx is done, then waits
// for in-flight ticks to finish.
//
// In-flight ticks are detached from ctx and bounded by the resolve timeout.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	defer e.inflight.Wait()

	tickCtx := context.WithoutCancel(ctx)
	e.logger.Info("reconciliation started", "interval", e.interval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("reconciliation stopping")
			return nil
		case <-ticker.C:
			e.spawn(tickCtx, false)
		case <-e.nudge:
			e.spawn(tickCtx, true)
		}
	}
}

func (e *Engine) spawn(ctx context.Context, forced bool) {
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.Tick(ctx, forced)
	}()
}

// Tick runs one sample, classify, resolve and dispatch cycle.
//
// Every failure is contained: it is logged and returned, and the reconciled
// state is left as it was. Sink failures do not fail the tick.
func (e *Engine) Tick(ctx context.Context, forced bool) (models.ChangeReason, error) {
	snap, err := e.sampler.Sample(ctx)
	if err != nil {
		e.logger.Warn("sample failed", "error", err)
		e.sendProgress(sampleFailedUpdate(err))
		return models.NoChange, err
	}
	at := e.now()

	reason := Classify(e.state.Load(), snap, forced)
	if reason == models.NoChange {
		e.logger.Debug("no change", "title", snap.Title(), "playing", snap.Playing)
		return reason, nil
	}
	e.logger.Info("updating", "reason", reason, "title", snap.Title(), "forced", forced)

	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	resolved, err := e.resolver.Resolve(rctx, snap, reason)
	cancel()
	if err != nil {
		if errors.Is(err, shared.ErrNoTrack) {
			e.logger.Debug("nothing loaded in the player")
		} else {
			e.logger.Warn("resolve failed", "reason", reason, "error", err)
		}
		e.sendProgress(resolveFailedUpdate(reason, err))
		return reason, err
	}

	reason, previous, ok := e.apply(snap, forced, resolved)
	if !ok {
		e.logger.Debug("superseded by a concurrent tick", "title", snap.Title())
		return models.NoChange, nil
	}

	change := models.Change{
		ID:       shared.GenerateID(),
		Reason:   reason,
		Resolved: resolved,
		Previous: previous,
		Playing:  snap.Playing,
		Timing:   snap.Timing(at),
	}

	derr := e.dispatcher.Dispatch(ctx, change)
	if derr == nil {
		e.logger.Info("updated", "reason", reason, "track_id", resolved.Track.ID)
	}
	e.sendProgress(dispatchedUpdate(change, derr))
	return reason, nil
}

// apply stores resolved unless the state it classified against has since
// caught up with snap. It returns the reason against the current state and
// the track it replaces.
func (e *Engine) apply(snap models.Snapshot, forced bool, resolved *models.ResolvedTrack) (models.ChangeReason, *models.ResolvedTrack, bool) {
	e.commit.Lock()
	defer e.commit.Unlock()

	reason := Classify(e.state.Load(), snap, forced)
	if reason == models.NoChange {
		return reason, nil, false
	}

	state := resolved.State(snap)
	e.state.Store(&state)
	return reason, e.last.Swap(resolved), true
}

// sendProgress sends an update through the channel without blocking.
func (e *Engine) sendProgress(update Update) {
	if e.progress == nil {
		return
	}
	select {
	case e.progress <- update:
	default:
	}
}
