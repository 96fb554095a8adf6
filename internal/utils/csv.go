package utils

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"papertrader/internal/domain"
)

// WriteTradesToCSV exports trade history for offline analysis.
func WriteTradesToCSV(trades []*domain.TradeRecord, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"id", "timestamp", "symbol", "direction", "size", "quantity", "price", "pnl", "pnl_percent", "confidence", "signal", "regime", "reason"})

	for _, t := range trades {
		pnl, pnlPct := "", ""
		if t.PNL != nil {
			pnl = strconv.FormatFloat(*t.PNL, 'f', -1, 64)
		}
		if t.PNLPercent != nil {
			pnlPct = strconv.FormatFloat(*t.PNLPercent, 'f', -1, 64)
		}
		writer.Write([]string{
			t.ID,
			t.Timestamp.Format(time.RFC3339),
			t.Symbol,
			string(t.Direction),
			strconv.FormatFloat(t.Size, 'f', -1, 64),
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			strconv.FormatFloat(t.Price, 'f', -1, 64),
			pnl,
			pnlPct,
			strconv.FormatFloat(t.Confidence, 'f', -1, 64),
			t.Signal,
			string(t.Context.Regime),
			t.Reason,
		})
	}
	return writer.Error()
}
