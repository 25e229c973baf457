package progression

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/GLExpress/internal/cache"
	"github.com/BearBump/GLExpress/internal/models"
	"github.com/pkg/errors"
)

const AutoNotes = "Status updated automatically"

type Store interface {
	ListStatusConfigs(ctx context.Context) ([]*models.StatusConfig, error)
	ListProgressionCandidates(ctx context.Context) ([]*models.ProgressionCandidate, error)
	ApplyStatusChange(ctx context.Context, ch models.StatusChange) (*models.Package, error)
}

type Options struct {
	Concurrency int
	// AllowMultiStepCatchup: за один прогон посылка может пройти несколько статусов,
	// если все они уже наступили. По умолчанию не больше одного шага.
	AllowMultiStepCatchup bool
}

// RunResult: итог одного прогона. Наружу (API/воркер) отдаётся только как "batch ran".
type RunResult struct {
	Evaluated  int       `json:"evaluated"`
	Advanced   int       `json:"advanced"`
	Steps      int       `json:"steps"`
	Skipped    int       `json:"skipped"`
	Conflicts  int       `json:"conflicts"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

type Engine struct {
	store Store
	cache cache.BytesCache
	opts  Options
	log   *slog.Logger
	now   func() time.Time
}

func NewEngine(store Store, c cache.BytesCache, opts Options, log *slog.Logger) *Engine {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store: store,
		cache: c,
		opts:  opts,
		log:   log.With("component", "progression"),
		now:   time.Now,
	}
}

func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// EvaluateAndAdvance проходит по всем нетерминальным посылкам и переводит в следующий
// статус те, у которых истекло время ожидания. Ошибка по одной посылке не прерывает прогон.
func (e *Engine) EvaluateAndAdvance(ctx context.Context) (RunResult, error) {
	now := e.now().UTC()
	res := RunResult{StartedAt: now}

	cfgs, err := e.store.ListStatusConfigs(ctx)
	if err != nil {
		return res, errors.Wrap(err, "list status configs")
	}
	candidates, err := e.store.ListProgressionCandidates(ctx)
	if err != nil {
		return res, errors.Wrap(err, "list progression candidates")
	}
	seq := NewSequence(cfgs)
	res.Evaluated = len(candidates)

	var advanced, steps, conflicts, failed atomic.Int64
	sem := make(chan struct{}, e.opts.Concurrency)
	var wg sync.WaitGroup
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		cCopy := c
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			n, err := e.advanceOne(ctx, seq, cCopy, now)
			if n > 0 {
				advanced.Add(1)
				steps.Add(int64(n))
			}
			switch {
			case err == nil:
			case errors.Is(err, models.ErrConflict):
				// другой прогон успел раньше
				conflicts.Add(1)
			default:
				failed.Add(1)
				e.log.Error("advance package", "package_id", cCopy.PackageID, "tracking_number", cCopy.TrackingNumber, "error", err.Error())
			}
		}()
	}
	wg.Wait()

	res.Advanced = int(advanced.Load())
	res.Steps = int(steps.Load())
	res.Conflicts = int(conflicts.Load())
	res.Failed = int(failed.Load())
	res.Skipped = res.Evaluated - res.Advanced - res.Failed
	res.FinishedAt = e.now().UTC()

	e.log.Info("progression run finished",
		"evaluated", res.Evaluated, "advanced", res.Advanced, "steps", res.Steps,
		"conflicts", res.Conflicts, "failed", res.Failed, "took", res.FinishedAt.Sub(res.StartedAt).String())
	return res, ctx.Err()
}

// advanceOne returns how many steps were written for the package.
func (e *Engine) advanceOne(ctx context.Context, seq *Sequence, c *models.ProgressionCandidate, now time.Time) (int, error) {
	current := c.CurrentStatus
	lastWrite := c.EnteredAt
	virtualEntered := c.EnteredAt
	steps := 0

	for {
		target, ok := seq.NextDue(current, virtualEntered, now)
		if !ok {
			break
		}

		// каждая следующая запись истории строго позже предыдущей
		at := now.Add(time.Duration(steps) * time.Microsecond)
		_, err := e.store.ApplyStatusChange(ctx, models.StatusChange{
			PackageID: c.PackageID,
			From:      current,
			EnteredAt: lastWrite,
			To:        target.Status,
			At:        at,
			Notes:     models.StrPtr(AutoNotes),
		})
		if err != nil {
			if steps > 0 {
				e.invalidate(ctx, c.TrackingNumber)
			}
			return steps, err
		}
		steps++
		e.log.Debug("package advanced", "tracking_number", c.TrackingNumber, "from", current, "to", target.Status)

		if !e.opts.AllowMultiStepCatchup {
			break
		}
		current = target.Status
		lastWrite = at
		virtualEntered = virtualEntered.Add(target.Dwell())
	}

	if steps > 0 {
		e.invalidate(ctx, c.TrackingNumber)
	}
	return steps, nil
}

func (e *Engine) invalidate(ctx context.Context, trackingNumber string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Del(ctx, cache.LookupKey(trackingNumber)); err != nil {
		e.log.Warn("invalidate lookup cache", "tracking_number", trackingNumber, "error", err.Error())
	}
}
