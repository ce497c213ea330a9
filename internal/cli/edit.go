package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <trade-id> <buy> <stoploss> <target>",
	Short: "Edit the price levels of an open trade",
	Long: `Change the buy, stoploss and target levels of an open trade.
Closed trades cannot be edited; the symbol cannot be changed.

Example:
  tradetracker edit 3 2550 2450 2750`,
	Args: cobra.ExactArgs(4),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("parse trade id: %w", err)
	}
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

	if err := rt.svc.UpdateLevels(cmd.Context(), id, buy, stoploss, target); err != nil {
		return fmt.Errorf("edit trade: %w", err)
	}
	fmt.Printf("Updated trade %d: buy=%.2f sl=%.2f target=%.2f\n", id, buy, stoploss, target)
	return nil
}
