// Package workflow schedules delayed status transitions: a watch fires a
// callback once a record has sat in a trigger status for a configured dwell,
// replacing the ad-hoc per-screen polling the pattern generalizes.
package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/crmkit/backend/domain"
)

// RecordSource abstracts the collection a watch observes.
type RecordSource interface {
	Name() string
	List(ctx context.Context, filter func(domain.Record) bool) ([]domain.Record, error)
}

// Watch describes one delayed transition.
type Watch struct {
	// Source is the observed collection.
	Source RecordSource
	// Trigger is the status that makes a record eligible. A record whose
	// status has moved away from the trigger is never fired, so manual
	// transitions always win over the timer.
	Trigger string
	// Dwell is how long a record must hold the trigger status before firing.
	Dwell time.Duration
	// Since optionally overrides the reference timestamp; the default is the
	// record's creation time.
	Since func(domain.Record) time.Time
	// OnFire requests the transition. Only the caller mutates the record; the
	// engine never writes to the source itself.
	OnFire func(ctx context.Context, rec domain.Record) error
}

// Config controls the polling cadence. The correctness requirement is "fires
// within Interval of the dwell elapsing", not "fires at an exact instant".
type Config struct {
	Interval time.Duration
}

// Engine runs watches on a cron schedule and supports additional periodic
// jobs with their own cadence. Watches are cancelable individually; Stop
// tears the whole scheduler down.
type Engine struct {
	cron   *cron.Cron
	logger *zap.Logger
	cfg    Config
	clock  func() time.Time

	mu      sync.Mutex
	nextID  int
	watches map[int]Watch
}

// New creates an engine polling at cfg.Interval (default 1s).
func New(logger *zap.Logger, cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		cfg:     cfg,
		clock:   time.Now,
		watches: make(map[int]Watch),
	}

	schedule := fmt.Sprintf("@every %ds", max(1, int(cfg.Interval.Seconds())))
	_, _ = e.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		e.Tick(ctx)
	})

	return e
}

// Watch registers a watch and returns its cancel function. Canceling stops
// the watch from firing again; the owning surface cancels on teardown so a
// replaced collection is never transitioned by a stale timer.
func (e *Engine) Watch(w Watch) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.watches[id] = w
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.watches, id)
	}
}

// Schedule registers a periodic job with its own cadence, independent of the
// watch polling interval. Returns a cancel function.
func (e *Engine) Schedule(name string, every time.Duration, fn func(ctx context.Context) error) func() {
	if every <= 0 {
		every = time.Minute
	}
	spec := fmt.Sprintf("@every %ds", max(1, int(every.Seconds())))
	entryID, _ := e.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), every)
		defer cancel()
		if err := fn(ctx); err != nil {
			e.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		}
	})
	return func() {
		e.cron.Remove(entryID)
	}
}

// Start launches the cron scheduler.
func (e *Engine) Start() {
	e.cron.Start()
	e.logger.Info("workflow engine started", zap.Duration("interval", e.cfg.Interval))
}

// Stop gracefully stops the scheduler, waiting for an in-flight tick.
func (e *Engine) Stop(ctx context.Context) {
	stopCtx := e.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	e.logger.Info("workflow engine stopped")
}

// Tick runs one polling pass over every watch. All records that became
// eligible are fired in the same tick, in ascending id order, so behavior is
// deterministic. Exported so tests drive the engine without the scheduler.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	watches := make([]Watch, 0, len(e.watches))
	for _, w := range e.watches {
		watches = append(watches, w)
	}
	e.mu.Unlock()

	for _, w := range watches {
		if err := e.runWatch(ctx, w); err != nil {
			e.logger.Error("watch pass failed",
				zap.String("source", w.Source.Name()),
				zap.String("trigger", w.Trigger),
				zap.Error(err))
		}
	}
}

func (e *Engine) runWatch(ctx context.Context, w Watch) error {
	if w.Source == nil || w.OnFire == nil {
		return nil
	}

	now := e.clock()
	eligible, err := w.Source.List(ctx, func(r domain.Record) bool {
		if r.Status != w.Trigger {
			return false
		}
		since := time.UnixMilli(r.CreatedAt)
		if w.Since != nil {
			since = w.Since(r)
		}
		return now.Sub(since) >= w.Dwell
	})
	if err != nil {
		return err
	}

	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })

	for _, rec := range eligible {
		if err := w.OnFire(ctx, rec); err != nil {
			e.logger.Warn("watch transition rejected",
				zap.String("source", w.Source.Name()),
				zap.Int64("record_id", rec.ID),
				zap.Error(err))
		}
	}
	return nil
}
