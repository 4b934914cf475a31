package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lukael/arxiv-monitoring-bot/internal/seen"
)

var seenCmd = &cobra.Command{
	Use:   "seen",
	Short: "Inspect or seed the seen-set",
	Long: `Seen reads and writes the SQLite seen-set used by run. Marking an id
suppresses any future notification for it.`,
}

var seenHasCmd = &cobra.Command{
	Use:   "has ID",
	Short: "Report whether an id has been notified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *seen.Store) error {
			ok, err := s.Has(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		})
	},
}

var seenMarkCmd = &cobra.Command{
	Use:   "mark ID...",
	Short: "Record ids as seen without notifying",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *seen.Store) error {
			added := 0
			for _, id := range args {
				inserted, err := s.MarkSeen(cmd.Context(), id)
				if err != nil {
					return err
				}
				if inserted {
					added++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marked %d new, %d already seen\n", added, len(args)-added)
			return nil
		})
	},
}

var seenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List seen ids, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withStore(func(s *seen.Store) error {
			records, err := s.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.SeenAt.Format(time.RFC3339), r.ID)
			}
			return nil
		})
	},
}

var seenCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of seen ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(s *seen.Store) error {
			n, err := s.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		})
	},
}

func init() {
	seenListCmd.Flags().Int("limit", 50, "maximum ids to list (0 for all)")

	seenCmd.AddCommand(seenHasCmd, seenMarkCmd, seenListCmd, seenCountCmd)
	rootCmd.AddCommand(seenCmd)
}

func withStore(fn func(*seen.Store) error) error {
	s, err := seen.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
