package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tradetracker/internal/domain"
)

var listStatus string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked trades",
	Long: `List all tracked trades, optionally filtered by status.

Examples:
  tradetracker list
  tradetracker list --status Active
  tradetracker list --status "Target Hit"`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by status (Pending, Active, Target Hit, Stoploss Hit)")
}

func runList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var trades []*domain.Trade
	if listStatus != "" {
		status, err := domain.ParseStatus(listStatus)
		if err != nil {
			return err
		}
		trades, err = rt.svc.ListByStatus(cmd.Context(), status)
		if err != nil {
			return fmt.Errorf("list trades: %w", err)
		}
	} else {
		trades, err = rt.svc.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list trades: %w", err)
		}
	}

	if len(trades) == 0 {
		fmt.Println("No trades")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tBUY\tSL\tTARGET\tLTP\tSTATUS\tCREATED\tCLOSED")
	for _, t := range trades {
		ltp := "-"
		if t.LastPrice != nil {
			ltp = fmt.Sprintf("%.2f", *t.LastPrice)
		}
		closed := "-"
		if t.ClosedAt != nil {
			closed = t.ClosedAt.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%.2f\t%s\t%s\t%s\t%s\n",
			t.ID, t.Symbol, t.Buy, t.Stoploss, t.Target, ltp, t.Status,
			t.CreatedAt.Format(time.DateOnly), closed)
	}
	return w.Flush()
}
