// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2png/internal/ledger"
	"github.com/pdiddy/pdf2png/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded document outcomes from the ledger",
	Long: `History lists the most recent outcomes written to the SQLite ledger by
every worker that ran with --ledger (or ledger_path in the config file).
Use --format yaml or --format json to export instead of printing a table.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("outcome", "", "filter by outcome: converted, skipped, busy, failed")
	historyCmd.Flags().String("run", "", "filter by run ID")
	historyCmd.Flags().String("base", "", "filter by document base name")
	historyCmd.Flags().Int("limit", 0, "maximum entries (0 = 50)")
	historyCmd.Flags().String("format", "table", "output format: table, yaml, or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("ledger_path")
	if path == "" {
		return fmt.Errorf("no ledger configured: pass --ledger or set ledger_path")
	}

	outcome, _ := cmd.Flags().GetString("outcome")
	if outcome != "" && !types.Outcome(outcome).Valid() {
		return fmt.Errorf("unknown outcome %q: use converted, skipped, busy, or failed", outcome)
	}
	runID, _ := cmd.Flags().GetString("run")
	base, _ := cmd.Flags().GetString("base")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	l, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer l.Close()

	entries, err := l.Recent(context.Background(), ledger.Query{
		Outcome: types.Outcome(outcome),
		RunID:   runID,
		Base:    base,
		Limit:   limit,
	})
	if err != nil {
		return err
	}

	if err := formatHistory(os.Stdout, entries, format); err != nil {
		return err
	}
	if format != "table" && format != "" {
		return nil
	}

	counts, err := l.Counts(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, formatCounts(counts))
	return nil
}

// formatCounts summarizes the whole ledger, not just the listed entries.
func formatCounts(counts map[types.Outcome]int) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	return fmt.Sprintf("Ledger totals: %d converted, %d skipped, %d busy, %d failed (total: %d)",
		counts[types.OutcomeConverted], counts[types.OutcomeSkipped],
		counts[types.OutcomeBusy], counts[types.OutcomeFailed], total)
}

func formatHistory(w io.Writer, entries []types.LedgerEntry, format string) error {
	switch format {
	case "yaml":
		return ledger.ExportYAML(w, entries)
	case "json":
		return ledger.ExportJSON(w, entries)
	case "table", "":
	default:
		return fmt.Errorf("unsupported format %q: use table, yaml, or json", format)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No outcomes recorded.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			string(e.Outcome),
			truncate(e.Base, 40),
			e.Duration().Round(100 * time.Millisecond).String(),
			e.Host + ":" + strconv.Itoa(e.PID),
			truncate(e.Error, 50),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Finished", "Outcome", "Document", "Took", "Worker", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
	fmt.Fprintf(w, "%d entries\n", len(entries))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
