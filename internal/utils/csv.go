package utils

import (
	"encoding/csv"
	"os"
	"strconv"

	"tradetracker/internal/analytics"
)

// WriteRecordsToCSV writes per-trade performance records to a CSV file.
func WriteRecordsToCSV(records []analytics.TradeRecord, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"trade_id", "symbol", "status", "exit_price", "quantity", "pnl", "equity", "r_multiple", "holding_days"})

	for _, r := range records {
		writer.Write([]string{
			strconv.FormatInt(r.TradeID, 10),
			r.Symbol,
			string(r.Status),
			strconv.FormatFloat(r.ExitPrice, 'f', -1, 64),
			strconv.FormatInt(r.Quantity, 10),
			strconv.FormatFloat(r.PnL, 'f', 2, 64),
			strconv.FormatFloat(r.Equity, 'f', 2, 64),
			strconv.FormatFloat(r.RMultiple, 'f', 2, 64),
			strconv.Itoa(r.HoldingDays),
		})
	}
	return writer.Error()
}
