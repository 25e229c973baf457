package progression

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "@every 1m"

type Evaluator interface {
	EvaluateAndAdvance(ctx context.Context) (RunResult, error)
}

// Runner запускает движок по расписанию (cron) и по Trigger().
// Одновременно выполняется не больше одного прогона.
type Runner struct {
	engine   Evaluator
	schedule string
	log      *slog.Logger

	runMu     sync.Mutex
	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastRunUnixNano     atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalRuns           atomic.Int64
	totalAdvanced       atomic.Int64
	totalFailed         atomic.Int64
	running             atomic.Bool
	lastMu              sync.Mutex
	lastResult          *RunResult
	lastError           string
}

func NewRunner(engine Evaluator, schedule string, log *slog.Logger) *Runner {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		engine:            engine,
		schedule:          schedule,
		log:               log.With("component", "progression_runner"),
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (r *Runner) Schedule() string { return r.schedule }

// Trigger forces an immediate run (best-effort, non-blocking).
func (r *Runner) Trigger() {
	r.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, func() {
		_, _ = r.RunOnce(ctx)
	}); err != nil {
		return errors.Wrapf(err, "bad progression schedule %q", r.schedule)
	}
	c.Start()
	r.log.Info("progression runner started", "schedule", r.schedule)

	for {
		select {
		case <-ctx.Done():
			stopCtx := c.Stop()
			<-stopCtx.Done()
			r.log.Info("progression runner stopped")
			return ctx.Err()
		case <-r.triggerCh:
			_, _ = r.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один прогон; параллельные вызовы ждут друг друга.
func (r *Runner) RunOnce(ctx context.Context) (RunResult, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.running.Store(true)
	defer r.running.Store(false)

	r.lastRunUnixNano.Store(time.Now().UTC().UnixNano())
	res, err := r.engine.EvaluateAndAdvance(ctx)

	r.totalRuns.Add(1)
	r.totalAdvanced.Add(int64(res.Advanced))
	r.totalFailed.Add(int64(res.Failed))

	r.lastMu.Lock()
	resCopy := res
	r.lastResult = &resCopy
	r.lastError = ""
	if err != nil {
		r.lastError = err.Error()
	}
	r.lastMu.Unlock()

	if err != nil {
		r.log.Error("progression run failed", "error", err.Error())
	}
	return res, err
}

type Stats struct {
	StartedAt     time.Time  `json:"startedAt"`
	Schedule      string     `json:"schedule"`
	LastRunAt     *time.Time `json:"lastRunAt,omitempty"`
	LastTriggerAt *time.Time `json:"lastTriggerAt,omitempty"`
	TotalRuns     int64      `json:"totalRuns"`
	TotalAdvanced int64      `json:"totalAdvanced"`
	TotalFailed   int64      `json:"totalFailed"`
	Running       bool       `json:"running"`
	LastResult    *RunResult `json:"lastResult,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
}

func (r *Runner) Stats() Stats {
	st := Stats{
		StartedAt:     time.Unix(0, r.startedAtUnixNano).UTC(),
		Schedule:      r.schedule,
		TotalRuns:     r.totalRuns.Load(),
		TotalAdvanced: r.totalAdvanced.Load(),
		TotalFailed:   r.totalFailed.Load(),
		Running:       r.running.Load(),
	}
	if n := r.lastRunUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastRunAt = &t
	}
	if n := r.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	r.lastMu.Lock()
	if r.lastResult != nil {
		cp := *r.lastResult
		st.LastResult = &cp
	}
	st.LastError = r.lastError
	r.lastMu.Unlock()
	return st
}
