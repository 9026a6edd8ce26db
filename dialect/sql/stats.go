package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/syssam/track/dialect"
)

// ExecStats holds statement execution counters of a StatsDriver.
type ExecStats struct {
	execs    atomic.Int64
	duration atomic.Int64 // nanoseconds
	slow     atomic.Int64
	errors   atomic.Int64
}

// Snapshot returns a point-in-time copy of the counters.
func (s *ExecStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Execs:    s.execs.Load(),
		Duration: time.Duration(s.duration.Load()),
		Slow:     s.slow.Load(),
		Errors:   s.errors.Load(),
	}
}

// Reset resets all counters to zero.
func (s *ExecStats) Reset() {
	s.execs.Store(0)
	s.duration.Store(0)
	s.slow.Store(0)
	s.errors.Store(0)
}

// StatsSnapshot is a point-in-time copy of ExecStats.
type StatsSnapshot struct {
	Execs    int64
	Duration time.Duration
	Slow     int64
	Errors   int64
}

// Avg returns the average statement duration.
func (s StatsSnapshot) Avg() time.Duration {
	if s.Execs == 0 {
		return 0
	}
	return s.Duration / time.Duration(s.Execs)
}

// String returns a human-readable summary of the counters.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf("execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.Execs, s.Duration, s.Avg(), s.Slow, s.Errors)
}

// SlowHook is called for every statement that exceeds the slow threshold.
type SlowHook func(ctx context.Context, query string, args []any, took time.Duration)

// StatsDriver wraps a dialect.Driver and counts the statements it executes.
type StatsDriver struct {
	dialect.Driver
	stats     *ExecStats
	threshold time.Duration
	hook      SlowHook
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold of slow statements. Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowHook sets the function called for slow statements.
func WithSlowHook(hook SlowHook) StatsOption {
	return func(s *StatsDriver) {
		s.hook = hook
	}
}

// WithSlowLog logs slow statements with the given logger at warn level.
func WithSlowLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowHook(func(ctx context.Context, query string, args []any, took time.Duration) {
		logger.WarnContext(ctx, "slow statement", "took", took, "query", query, "args", args)
	})
}

// NewStatsDriver wraps the given driver with statement counters.
//
//	drv, _ := sql.Open(dialect.Postgres, dsn)
//	stats := sql.NewStatsDriver(drv, sql.WithSlowThreshold(200*time.Millisecond), sql.WithSlowLog(nil))
//	client := track.NewClient(stats)
//	...
//	fmt.Println(stats.Stats().Snapshot())
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:    drv,
		stats:     &ExecStats{},
		threshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns the counters of the driver.
func (d *StatsDriver) Stats() *ExecStats { return d.stats }

// Exec executes a statement and records it.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error) {
	took := time.Since(start)
	d.stats.execs.Add(1)
	d.stats.duration.Add(int64(took))
	if err != nil {
		d.stats.errors.Add(1)
	}
	if took > d.threshold {
		d.stats.slow.Add(1)
		if d.hook != nil {
			argv, _ := args.([]any)
			d.hook(ctx, query, argv, took)
		}
	}
}

var _ dialect.Driver = (*StatsDriver)(nil)
