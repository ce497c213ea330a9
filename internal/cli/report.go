package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tradetracker/internal/utils"
)

var reportCSVPath string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Replay closed trades into performance analytics",
	Long: `Replay all closed trades in close order through the
capital-compounding simulator and print the per-trade log plus summary
statistics (equity, drawdown, R-multiples, CAGR, win rate).

Examples:
  tradetracker report
  tradetracker report --csv performance.csv`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportCSVPath, "csv", "", "also write per-trade records to a CSV file")
}

func runReport(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	records, summary, err := rt.svc.Report(cmd.Context())
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if summary.ClosedTrades == 0 {
		fmt.Println("No closed trades yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tSTATUS\tEXIT\tQTY\tPNL\tEQUITY\tR\tDAYS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%.2f\t%.2f\t%.2f\t%d\n",
			r.Symbol, r.Status, r.ExitPrice, r.Quantity, r.PnL, r.Equity, r.RMultiple, r.HoldingDays)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf(`
Closed trades:  %d (%d target, %d stoploss)
Win rate:       %.2f%%
Final capital:  %.2f
Total return:   %.2f%%
Max drawdown:   %.2f%%
CAGR:           %.2f%%
Avg R:          %.2f (best %.2f, worst %.2f)
Avg hold days:  %.2f
`,
		summary.ClosedTrades, summary.TargetHits, summary.StoplossHits,
		summary.WinRate, summary.FinalCapital, summary.TotalReturnPct,
		summary.MaxDrawdownPct, summary.CAGRPct,
		summary.AvgR, summary.BestR, summary.WorstR, summary.AvgHoldingDays)

	if reportCSVPath != "" {
		if err := utils.WriteRecordsToCSV(records, reportCSVPath); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		fmt.Printf("Wrote %d record(s) to %s\n", len(records), reportCSVPath)
	}
	return nil
}
