package refresher

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Handle controls a started refresh schedule.
type Handle struct {
	cron    *cron.Cron
	stopped atomic.Bool
	once    sync.Once
	quit    chan struct{}
	done    chan struct{}
	startup sync.WaitGroup
}

// Start runs one cycle immediately and then one every interval until the
// returned handle is stopped or ctx is done. A refresher can only be
// started once.
func (r *Refresher) Start(ctx context.Context) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil, ErrAlreadyStarted
	}
	r.started = true

	logger := cronLogger{logger: r.logger}
	h := &Handle{
		cron: cron.New(cron.WithLogger(logger), cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}

	// Cycles outlive the caller's context so teardown never aborts one mid-flight.
	cycleCtx := context.WithoutCancel(ctx)

	h.cron.Schedule(cron.Every(r.config.Interval), cron.FuncJob(func() {
		if h.stopped.Load() {
			return
		}
		_, _ = r.RunCycle(cycleCtx, TriggerScheduled)
	}))

	h.startup.Add(1)
	go func() {
		defer h.startup.Done()
		if h.stopped.Load() {
			return
		}
		_, _ = r.RunCycle(cycleCtx, TriggerStartup)
	}()

	h.cron.Start()

	go func() {
		select {
		case <-ctx.Done():
			h.Stop()
		case <-h.quit:
		}
	}()

	r.logger.Info().
		Dur("interval", r.config.Interval).
		Int("providers", len(r.config.Providers)).
		Msg("status refresher started")

	return h, nil
}

// Stop cancels the schedule. No cycle starts after Stop returns; a cycle
// already running is allowed to finish. Stop is safe to call more than once
// and on a nil handle.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.stopped.Store(true)
		close(h.quit)
		cronDone := h.cron.Stop()
		go func() {
			<-cronDone.Done()
			h.startup.Wait()
			close(h.done)
		}()
	})
}

// Done is closed once the handle is stopped and every cycle it started has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
