package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh prices and re-evaluate trade statuses",
	Long: `Fetch the last traded price for every open trade, then run the
lifecycle evaluation: trades cross to Active when the price reaches the buy
level and close when it reaches the target or stoploss. Closed trades are
never touched.`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	res, err := rt.svc.Refresh(cmd.Context())
	if res != nil {
		fmt.Printf("Refreshed %d price(s) (%d unavailable, %d failed); %d status change(s), %d trade(s) closed\n",
			res.Refreshed, res.Unavailable, res.Failed, res.Transitions, res.Closed)
	}
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}
