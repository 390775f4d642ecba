package refresher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloudstatus/cloudstatus/internal/history"
	"github.com/cloudstatus/cloudstatus/internal/status"
)

// Refresher errors.
var (
	ErrCycleInProgress = errors.New("refresh cycle already in progress")
	ErrAlreadyStarted  = errors.New("refresher already started")
	ErrProviderFailed  = errors.New("provider snapshot construction failed")
)

// Trigger names what started a cycle.
type Trigger string

const (
	TriggerStartup   Trigger = "startup"
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
	TriggerPubSub    Trigger = "pubsub"
)

// Options holds the dependencies of a Refresher.
type Options struct {
	Config Config
	Logger zerolog.Logger

	// Source supplies provider feeds (required).
	Source status.Source

	// Store receives each published state (required).
	Store *status.Store

	// History, if set, records every published state.
	History history.Repository

	// Metrics, if set, records cycle instruments.
	Metrics *Metrics
}

// Refresher owns the DashboardState and is its only writer.
type Refresher struct {
	config  Config
	logger  zerolog.Logger
	source  status.Source
	store   *status.Store
	history history.Repository
	metrics *Metrics
	stats   *Stats

	cycle   atomic.Uint64
	running atomic.Bool

	mu      sync.Mutex
	started bool
}

// New creates a refresher.
func New(opts Options) *Refresher {
	store := opts.Store
	if store == nil {
		store = status.NewStore()
	}

	return &Refresher{
		config:  opts.Config.withDefaults(),
		logger:  opts.Logger,
		source:  opts.Source,
		store:   store,
		history: opts.History,
		metrics: opts.Metrics,
		stats:   &Stats{},
	}
}

// Store returns the state container the refresher publishes to.
func (r *Refresher) Store() *status.Store {
	return r.store
}

// InProgress reports whether a cycle is currently running.
func (r *Refresher) InProgress() bool {
	return r.running.Load()
}

// CycleResult summarizes one completed cycle.
type CycleResult struct {
	Cycle     uint64
	Trigger   Trigger
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Cutoff    status.Date
	Statuses  map[status.ProviderID]status.Status
	Failed    int
	Errors    []ProviderError
}

// ProviderError describes one provider that fell back to the Error status.
type ProviderError struct {
	Provider status.ProviderID
	Error    string
}

// RunCycle builds a snapshot for every provider and publishes the complete
// state. Provider failures are contained in the result; the only error
// returned is ErrCycleInProgress, when another cycle is still running.
func (r *Refresher) RunCycle(ctx context.Context, trigger Trigger) (*CycleResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		r.stats.recordSkipped()
		if r.metrics != nil {
			r.metrics.RecordSkipped(ctx, trigger)
		}
		r.logger.Info().
			Str("trigger", string(trigger)).
			Msg("skipping refresh cycle, previous cycle still running")
		return nil, ErrCycleInProgress
	}
	defer r.running.Store(false)

	return r.runCycle(ctx, trigger), nil
}

type providerResult struct {
	provider status.ProviderID
	snapshot status.ProviderSnapshot
	err      error
}

func (r *Refresher) runCycle(ctx context.Context, trigger Trigger) *CycleResult {
	startTime := r.config.Now()
	cutoff := status.Cutoff(startTime)
	cycle := r.cycle.Add(1)

	r.logger.Info().
		Uint64("cycle", cycle).
		Str("trigger", string(trigger)).
		Time("started_at", startTime).
		Str("cutoff", cutoff.String()).
		Str("source", r.source.Name()).
		Msg("starting status refresh cycle")

	results := make(chan providerResult, len(r.config.Providers))

	var wg sync.WaitGroup
	for _, p := range r.config.Providers {
		wg.Add(1)
		go func(p status.ProviderID) {
			defer wg.Done()
			results <- r.buildProvider(ctx, p, cutoff)
		}(p)
	}
	wg.Wait()
	close(results)

	result := &CycleResult{
		Cycle:     cycle,
		Trigger:   trigger,
		StartTime: startTime,
		Cutoff:    cutoff,
		Statuses:  make(map[status.ProviderID]status.Status, len(r.config.Providers)),
	}

	snapshots := make(map[status.ProviderID]status.ProviderSnapshot, len(r.config.Providers))
	for pr := range results {
		snapshots[pr.provider] = pr.snapshot
		result.Statuses[pr.provider] = pr.snapshot.Status

		if pr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ProviderError{Provider: pr.provider, Error: pr.err.Error()})
			r.logger.Warn().
				Uint64("cycle", cycle).
				Str("provider", string(pr.provider)).
				Err(pr.err).
				Msg("provider snapshot failed")
		}
	}

	state := &status.DashboardState{
		Cycle:       cycle,
		RefreshedAt: startTime,
		Cutoff:      cutoff,
		Providers:   snapshots,
	}
	r.store.Publish(state)

	result.EndTime = r.config.Now()
	result.Duration = result.EndTime.Sub(startTime)

	if r.history != nil {
		if err := r.history.Append(ctx, history.EntryFromState(state)); err != nil {
			r.logger.Warn().Err(err).Uint64("cycle", cycle).Msg("failed to record cycle history")
		}
	}

	r.stats.recordCycle(result)
	if r.metrics != nil {
		r.metrics.RecordCycle(ctx, result)
	}

	statuses := zerolog.Dict()
	for _, p := range r.config.Providers {
		snap := snapshots[p]
		statuses.Dict(string(p), zerolog.Dict().
			Str("status", string(snap.Status)).
			Int("incidents", len(snap.Incidents)).
			Int("maintenance", len(snap.Maintenance)))
	}

	r.logger.Info().
		Uint64("cycle", cycle).
		Dur("duration", result.Duration).
		Int("failed", result.Failed).
		Dict("providers", statuses).
		Msg("status refresh cycle completed")

	return result
}

// buildProvider never fails: any error or panic leaves the Error snapshot.
func (r *Refresher) buildProvider(ctx context.Context, p status.ProviderID, cutoff status.Date) (res providerResult) {
	res = providerResult{provider: p, snapshot: status.ErrorSnapshot()}

	defer func() {
		if rec := recover(); rec != nil {
			res.snapshot = status.ErrorSnapshot()
			res.err = fmt.Errorf("%w: %s: panic: %v", ErrProviderFailed, p, rec)
		}
	}()

	pctx, cancel := context.WithTimeout(ctx, r.config.ProviderTimeout)
	defer cancel()

	// Buffered so a source that ignores pctx can still finish and exit.
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fetchResult{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		feed, err := r.source.Fetch(pctx, p)
		done <- fetchResult{feed: feed, err: err}
	}()

	var fetched fetchResult
	select {
	case fetched = <-done:
	case <-pctx.Done():
		res.err = fmt.Errorf("%w: %s: %w", ErrProviderFailed, p, pctx.Err())
		return res
	}
	if fetched.err != nil {
		res.err = fmt.Errorf("%w: %s: %w", ErrProviderFailed, p, fetched.err)
		return res
	}

	res.snapshot = status.BuildSnapshot(fetched.feed, cutoff)
	return res
}

type fetchResult struct {
	feed status.Feed
	err  error
}
