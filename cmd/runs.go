package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cogdistort/internal/report"
	"github.com/abhisek/cogdistort/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved classification runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		s, err := env.openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.RunRepo().List(cmd.Context(), store.ListOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No saved runs.")
			return nil
		}

		// Header.
		fmt.Fprintf(out, "%-8s  %-5s  %-19s  %-24s  %-11s  %5s  %6s\n",
			"ID", "Seq", "Created", "Bundle", "Confidence", "Items", "Failed")
		fmt.Fprintln(out, strings.Repeat("─", 90))

		for _, r := range runs {
			name := r.BundleName
			if len(name) > 24 {
				name = name[:21] + "..."
			}
			fmt.Fprintf(out, "%-8s  %-5d  %-19s  %-24s  %-11s  %5d  %6d\n",
				shortID(r.ID),
				r.Sequence,
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				name,
				r.Capability,
				r.Items,
				r.Failed,
			)
		}

		fmt.Fprintf(out, "\n%d runs\n", len(runs))
		return nil
	},
}

var runsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the results of one run (full id or unique prefix)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		s, err := env.openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		run, err := s.RunRepo().Get(cmd.Context(), args[0])
		if errors.Is(err, store.ErrAmbiguousID) {
			return fmt.Errorf("%q: %w", args[0], err)
		}
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		if run == nil {
			return fmt.Errorf("run %q not found", args[0])
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run:        %s (#%d)\n", run.ID, run.Sequence)
		fmt.Fprintf(out, "Created:    %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Bundle:     %s (%s)\n", run.BundleName, run.BundleSource)
		fmt.Fprintf(out, "Confidence: %s\n", run.Capability)
		if n := run.Failed(); n > 0 {
			fmt.Fprintf(out, "Failed:     %d of %d\n", n, len(run.Results))
		}
		fmt.Fprintln(out)

		fmt.Fprintf(out, "%-4s  %-24s  %9s  %s\n", "#", "Label", "Conf", "Text")
		fmt.Fprintln(out, strings.Repeat("─", 90))
		for i, r := range run.Results {
			label := r.Label
			if r.Error != "" {
				label = "error: " + r.Error
			}
			if len(label) > 24 {
				label = label[:21] + "..."
			}
			fmt.Fprintf(out, "%-4d  %-24s  %9s  %s\n", i+1, label, report.ConfidenceCell(r.Confidence), r.Text)
		}
		return nil
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the label distribution across all saved runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		s, err := env.openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		totals, err := s.RunRepo().LabelTotals(cmd.Context())
		if err != nil {
			return fmt.Errorf("label totals: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(totals) == 0 {
			fmt.Fprintln(out, "No saved runs.")
			return nil
		}

		counts := make(map[string]int, len(totals))
		for _, t := range totals {
			counts[t.Label] = t.Count
		}
		width := min(env.cfg.Report.ChartWidth, termWidth(out))
		fmt.Fprintln(styled(out), report.RenderChart(report.FromCounts(counts), width))
		return nil
	},
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		if keep < 0 {
			return fmt.Errorf("--keep must not be negative, got %d", keep)
		}

		env, err := setup(cmd)
		if err != nil {
			return err
		}
		s, err := env.openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.RunRepo().Prune(cmd.Context(), keep)
		if err != nil {
			return fmt.Errorf("prune runs: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d runs.\n", n)
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "Number of runs to show (0 for all)")
	runsPruneCmd.Flags().Int("keep", 50, "Number of newest runs to keep")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsViewCmd)
	runsCmd.AddCommand(runsStatsCmd)
	runsCmd.AddCommand(runsPruneCmd)
}
