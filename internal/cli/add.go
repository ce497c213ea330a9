package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var addEntered bool

var addCmd = &cobra.Command{
	Use:   "add <symbol> <buy> <stoploss> <target>",
	Short: "Add a trade to track",
	Long: `Add a trade with its entry, stoploss and target levels.
Levels must satisfy stoploss < buy < target.

Examples:
  tradetracker add RELIANCE 2500 2400 2700
  tradetracker add ETHUSDT 3000 2850 3400 --entered`,
	Args: cobra.ExactArgs(4),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().BoolVar(&addEntered, "entered", false, "position is already held (starts Active instead of Pending)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	buy, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("parse buy: %w", err)
	}
	stoploss, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("parse stoploss: %w", err)
	}
	target, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("parse target: %w", err)
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	trade, err := rt.svc.AddTrade(cmd.Context(), args[0], buy, stoploss, target, addEntered)
	if err != nil {
		return fmt.Errorf("add trade: %w", err)
	}

	fmt.Printf("Added trade %d: %s buy=%.2f sl=%.2f target=%.2f status=%s\n",
		trade.ID, trade.Symbol, trade.Buy, trade.Stoploss, trade.Target, trade.Status)
	return nil
}
