package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lukael/arxiv-monitoring-bot/internal/httputil"
	"github.com/Lukael/arxiv-monitoring-bot/internal/notify"
	"github.com/Lukael/arxiv-monitoring-bot/internal/poll"
	"github.com/Lukael/arxiv-monitoring-bot/internal/seen"
	"github.com/Lukael/arxiv-monitoring-bot/internal/settings"
	"github.com/Lukael/arxiv-monitoring-bot/internal/source"
	"github.com/Lukael/arxiv-monitoring-bot/internal/watchlist"
	"github.com/Lukael/arxiv-monitoring-bot/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll sources and notify Slack until interrupted",
	Long: `Run loads the watchlist, opens the seen-set, and polls every feed and
search source in order. Unseen items matching a keyword or author are posted
to Slack and recorded. The watchlist is reloaded at the start of every cycle;
if a reload fails the previous watchlist is kept.

With --dry-run a single cycle runs and matches are only logged: nothing is
posted and nothing is recorded. With --once a single normal cycle runs.`,
	RunE: runMonitor,
}

func init() {
	f := runCmd.Flags()
	f.Duration("interval", settings.DefaultInterval, "time between cycles (env POLL_INTERVAL, seconds)")
	f.String("schedule", "", "cron expression for cycle starts; overrides --interval")
	f.Duration("source-delay", settings.DefaultSourceDelay, "pause between two sources within a cycle")
	f.Bool("once", false, "run a single cycle and exit")
	f.Bool("dry-run", false, "log matches without notifying or recording them; single cycle")

	viper.BindPFlag(settings.KeyPollInterval, f.Lookup("interval"))
	viper.BindPFlag(settings.KeyPollSchedule, f.Lookup("schedule"))
	viper.BindPFlag(settings.KeySourceDelay, f.Lookup("source-delay"))
	viper.BindPFlag(settings.KeyOnce, f.Lookup("once"))
	viper.BindPFlag(settings.KeyDryRun, f.Lookup("dry-run"))

	rootCmd.AddCommand(runCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	w, err := watchlist.Load(cfg.WatchlistPath)
	if err != nil {
		return err
	}

	store, err := seen.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	cadence, err := poll.NewCadence(cfg.Poll)
	if err != nil {
		return err
	}

	client := httputil.NewClient(httpConfig(cfg))
	notifier := notify.New(cfg.Slack, client, logger.With().Str("component", "notify").Logger())
	srcDeps := source.Deps{
		Client: client,
		Search: cfg.Search,
		Logger: logger.With().Str("component", "source").Logger(),
	}

	o := poll.New(w, poll.Options{
		WatchlistPath: cfg.WatchlistPath,
		SourceDelay:   cfg.Poll.SourceDelay,
		Once:          cfg.Poll.Once,
		DryRun:        cfg.Poll.DryRun,
	}, poll.Deps{
		Store:         store,
		Notifier:      notifier,
		LoadWatchlist: watchlist.Load,
		BuildSources: func(w types.Watchlist, now time.Time) []source.Source {
			return source.Build(w, srcDeps, now)
		},
		Clock:   poll.RealClock(),
		Cadence: cadence,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("watchlist", cfg.WatchlistPath).
		Str("db", cfg.Store.Path).
		Int("sources", w.SourceCount()).
		Bool("slack", cfg.Slack.Configured()).
		Bool("dry_run", cfg.Poll.DryRun).
		Msg("arxiv-monitor starting")

	if err := o.Run(ctx); err != nil {
		return fmt.Errorf("poll loop: %w", err)
	}
	logger.Info().Msg("arxiv-monitor stopped")
	return nil
}

// httpConfig adds the Crossref contact address to the user agent so search
// requests land in the polite pool.
func httpConfig(s types.Settings) types.HTTPConfig {
	h := s.HTTP
	if s.Search.Mailto != "" && !strings.Contains(h.UserAgent, "mailto:") {
		h.UserAgent = fmt.Sprintf("%s (mailto:%s)", h.UserAgent, s.Search.Mailto)
	}
	return h
}
