// Package scheduler runs history retention in the background of the web server.
package scheduler

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/hpungsan/yougpt/internal/ops"
)

// DefaultSchedule runs retention once a day at midnight.
const DefaultSchedule = "@daily"

// runTimeout bounds a single retention pass.
const runTimeout = time.Minute

// Result reports one retention pass.
type Result struct {
	Pruned int
	Purged int
}

// Retention soft-deletes summaries older than Days and permanently removes
// summaries that have been deleted for longer than Days.
type Retention struct {
	db   *sql.DB
	days int
	log  zerolog.Logger

	mu    sync.Mutex
	cron  *cron.Cron
	entry cron.EntryID
}

// New schedules retention with a standard cron spec or descriptor
// ("@daily", "0 3 * * *"). An empty spec means DefaultSchedule.
func New(database *sql.DB, days int, spec string, log zerolog.Logger) (*Retention, error) {
	if days <= 0 {
		return nil, stderrors.New("retention days must be positive")
	}
	if spec == "" {
		spec = DefaultSchedule
	}

	log = log.With().Str("component", "retention").Logger()
	cl := cronLogger{log: log}
	r := &Retention{
		db:   database,
		days: days,
		log:  log,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}

	id, err := r.cron.AddFunc(spec, r.job)
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}
	r.entry = id
	return r, nil
}

// Start begins cron execution in its own goroutine.
func (r *Retention) Start() {
	r.cron.Start()
	r.log.Info().
		Int("days", r.days).
		Time("next_run", r.Next()).
		Msg("retention scheduled")
}

// Stop stops the scheduler and waits for a running pass to finish.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
}

// Next returns the next scheduled run, or the zero time before Start.
func (r *Retention) Next() time.Time {
	return r.cron.Entry(r.entry).Next
}

// RunOnce performs one retention pass: prune, then purge.
func (r *Retention) RunOnce(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned, err := ops.Prune(ctx, r.db, r.days)
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}

	days := r.days
	purged, err := ops.Purge(ctx, r.db, ops.PurgeInput{OlderThanDays: &days})
	if err != nil {
		return nil, fmt.Errorf("purge: %w", err)
	}

	return &Result{Pruned: pruned.Pruned, Purged: purged.Purged}, nil
}

func (r *Retention) job() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	res, err := r.RunOnce(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("retention failed")
		return
	}
	r.log.Info().
		Int("pruned", res.Pruned).
		Int("purged", res.Purged).
		Msg("retention complete")
}

// cronLogger routes cron's own messages through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
