// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package poll drives polling cycles: reload the watchlist, fetch every
// source, and push each unseen matching item through notify then mark-seen.
// Everything runs on the calling goroutine; the only suspension points are
// the inter-source and inter-cycle sleeps.
package poll

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Lukael/arxiv-monitoring-bot/internal/match"
	"github.com/Lukael/arxiv-monitoring-bot/internal/notify"
	"github.com/Lukael/arxiv-monitoring-bot/internal/source"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

// State is the orchestrator's position in its loop.
type State int32

const (
	LoadingConfig State = iota
	PollingSources
	Sleeping
)

func (s State) String() string {
	switch s {
	case LoadingConfig:
		return "loading-config"
	case PollingSources:
		return "polling-sources"
	case Sleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// SeenStore is the subset of the seen-set the orchestrator needs.
type SeenStore interface {
	Has(ctx context.Context, id string) (bool, error)
	MarkSeen(ctx context.Context, id string) (bool, error)
}

// Options tunes one orchestrator run.
type Options struct {
	// WatchlistPath is reloaded at the start of every cycle.
	WatchlistPath string
	// SourceDelay is slept between two sources within a cycle.
	SourceDelay time.Duration
	// Once runs a single cycle and returns.
	Once bool
	// DryRun logs matches without notifying or marking them seen, and
	// runs a single cycle.
	DryRun bool
}

// Deps are the collaborators the orchestrator drives.
type Deps struct {
	Store    SeenStore
	Notifier notify.Notifier
	// LoadWatchlist reads the watchlist at a path. Nil keeps the initial
	// watchlist for every cycle.
	LoadWatchlist func(path string) (types.Watchlist, error)
	// BuildSources turns a watchlist into the ordered sources for a cycle
	// starting at now.
	BuildSources func(w types.Watchlist, now time.Time) []source.Source
	Clock        Clock
	Cadence      Cadence
	Logger       zerolog.Logger
}

// CycleSummary reports what one cycle did.
type CycleSummary struct {
	ID             string        `json:"id"`
	Started        time.Time     `json:"started"`
	Duration       time.Duration `json:"duration"`
	DryRun         bool          `json:"dry_run"`
	SourcesPolled  int           `json:"sources_polled"`
	SourcesFailed  int           `json:"sources_failed"`
	Candidates     int           `json:"candidates"`
	AlreadySeen    int           `json:"already_seen"`
	Matched        int           `json:"matched"`
	Notified       int           `json:"notified"`
	NotifyFailures int           `json:"notify_failures"`
}

// Orchestrator owns the poll loop. It is not safe for concurrent Cycle
// calls; State may be read from any goroutine.
type Orchestrator struct {
	opts      Options
	deps      Deps
	log       zerolog.Logger
	state     atomic.Int32
	watchlist types.Watchlist
}

// New returns an orchestrator starting from an already loaded watchlist.
// The caller is expected to have treated a failure of that first load as
// fatal.
func New(initial types.Watchlist, opts Options, deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = RealClock()
	}
	o := &Orchestrator{
		opts:      opts,
		deps:      deps,
		log:       deps.Logger.With().Str("component", "poll").Logger(),
		watchlist: initial,
	}
	o.setState(LoadingConfig)
	return o
}

// State returns the current loop state.
func (o *Orchestrator) State() State { return State(o.state.Load()) }

func (o *Orchestrator) setState(s State) { o.state.Store(int32(s)) }

// Watchlist returns the watchlist used by the most recent cycle.
func (o *Orchestrator) Watchlist() types.Watchlist { return o.watchlist }

// Run loops over cycles until ctx is cancelled, returning nil on
// cancellation. With Once or DryRun it returns after the first cycle.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		if _, err := o.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if o.opts.Once || o.opts.DryRun {
			return nil
		}

		o.setState(Sleeping)
		now := o.deps.Clock.Now()
		next := o.deps.Cadence.Next(now)
		o.log.Debug().Time("next", next).Msg("sleeping until next cycle")
		if err := o.deps.Clock.Sleep(ctx, next.Sub(now)); err != nil {
			return nil
		}
	}
}

// Cycle runs one full pass over every source. Source and delivery failures
// are logged and counted; the only error returned is ctx's.
func (o *Orchestrator) Cycle(ctx context.Context) (CycleSummary, error) {
	sum := CycleSummary{ID: uuid.NewString(), Started: o.deps.Clock.Now(), DryRun: o.opts.DryRun}
	log := o.log.With().Str("cycle", sum.ID).Logger()

	o.setState(LoadingConfig)
	o.reloadWatchlist(log)
	w := o.watchlist
	filters := w.Filters()
	log.Info().Int("feeds", len(w.Feeds)).Int("searches", len(w.Searches)).
		Int("keywords", len(w.Keywords)).Int("authors", len(w.Authors)).Msg("watchlist loaded")

	o.setState(PollingSources)
	sources := o.deps.BuildSources(w, sum.Started)
	for i, src := range sources {
		if i > 0 {
			if err := o.deps.Clock.Sleep(ctx, o.opts.SourceDelay); err != nil {
				return o.finish(sum, log), err
			}
		}

		srcLog := log.With().Str("source", src.Name()).Logger()
		items, err := src.Fetch(ctx, filters)
		if err != nil {
			if ctx.Err() != nil {
				return o.finish(sum, log), ctx.Err()
			}
			sum.SourcesFailed++
			srcLog.Warn().Err(err).Msg("source failed; skipping")
			continue
		}
		sum.SourcesPolled++
		sum.Candidates += len(items)
		srcLog.Debug().Int("items", len(items)).Msg("source fetched")

		for _, it := range items {
			if ctx.Err() != nil {
				return o.finish(sum, log), ctx.Err()
			}
			o.process(ctx, it, filters, &sum, srcLog)
		}
	}
	return o.finish(sum, log), nil
}

// process applies Has, Matches, Notify, MarkSeen to one item, in that order.
func (o *Orchestrator) process(ctx context.Context, it types.Item, filters types.Filters, sum *CycleSummary, log zerolog.Logger) {
	seen, err := o.deps.Store.Has(ctx, it.ID)
	if err != nil {
		log.Error().Err(err).Str("id", it.ID).Msg("seen lookup failed; skipping item")
		return
	}
	if seen {
		sum.AlreadySeen++
		return
	}
	if !match.Matches(it, filters) {
		return
	}
	sum.Matched++

	if o.opts.DryRun {
		log.Info().Str("id", it.ID).Str("title", it.Title).Str("link", it.Link).Msg("match (dry run)")
		return
	}

	log.Info().Str("id", it.ID).Str("title", it.Title).Msg("match")
	if err := o.deps.Notifier.Notify(ctx, it); err != nil {
		sum.NotifyFailures++
		log.Error().Err(err).Str("id", it.ID).Msg("notification failed")
	} else {
		sum.Notified++
	}

	inserted, err := o.deps.Store.MarkSeen(ctx, it.ID)
	if err != nil {
		log.Error().Err(err).Str("id", it.ID).Msg("marking seen failed")
		return
	}
	if !inserted {
		log.Debug().Str("id", it.ID).Msg("already marked seen")
	}
}

func (o *Orchestrator) reloadWatchlist(log zerolog.Logger) {
	if o.deps.LoadWatchlist == nil || o.opts.WatchlistPath == "" {
		return
	}
	w, err := o.deps.LoadWatchlist(o.opts.WatchlistPath)
	if err != nil {
		log.Warn().Err(err).Str("path", o.opts.WatchlistPath).Msg("watchlist reload failed; keeping last good watchlist")
		return
	}
	o.watchlist = w
}

func (o *Orchestrator) finish(sum CycleSummary, log zerolog.Logger) CycleSummary {
	sum.Duration = o.deps.Clock.Now().Sub(sum.Started)
	log.Info().
		Bool("dry_run", sum.DryRun).
		Int("sources_polled", sum.SourcesPolled).
		Int("sources_failed", sum.SourcesFailed).
		Int("candidates", sum.Candidates).
		Int("already_seen", sum.AlreadySeen).
		Int("matched", sum.Matched).
		Int("notified", sum.Notified).
		Int("notify_failures", sum.NotifyFailures).
		Dur("duration", sum.Duration).
		Msg("cycle complete")
	return sum
}
