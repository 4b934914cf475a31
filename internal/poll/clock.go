// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// Clock abstracts time so cycles can be driven without real delays.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Cadence decides when the next cycle starts.
type Cadence interface {
	Next(after time.Time) time.Time
}

// Every starts the next cycle a fixed interval after the previous one ends.
type Every time.Duration

// Next returns after plus the interval.
func (e Every) Next(after time.Time) time.Time { return after.Add(time.Duration(e)) }

// CronCadence starts cycles on a standard five-field cron schedule.
type CronCadence struct {
	Spec  string
	sched cron.Schedule
}

// ParseCron parses a standard cron expression or descriptor such as
// "@hourly".
func ParseCron(spec string) (*CronCadence, error) {
	s, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	return &CronCadence{Spec: spec, sched: s}, nil
}

// Next returns the first activation strictly after after.
func (c *CronCadence) Next(after time.Time) time.Time { return c.sched.Next(after) }

// NewCadence returns a cron cadence when cfg.Schedule is set and a fixed
// interval otherwise.
func NewCadence(cfg types.PollConfig) (Cadence, error) {
	if cfg.Schedule != "" {
		c, err := ParseCron(cfg.Schedule)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.Interval)
	}
	return Every(cfg.Interval), nil
}
