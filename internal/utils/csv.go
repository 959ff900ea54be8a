package utils

import (
	"portfoliobot/internal/domain"
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

func WriteTradesToCSV(trades []*domain.TradeRecord, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"trade_date", "user_id", "ticker", "action", "quantity", "price", "fee"})

	for _, tr := range trades {
		writer.Write([]string{
			tr.TradeDate.Format(time.RFC3339),
			tr.UserID,
			tr.Ticker,
			string(tr.Action),
			strconv.FormatFloat(tr.Quantity, 'f', -1, 64),
			strconv.FormatFloat(tr.Price, 'f', -1, 64),
			strconv.FormatFloat(tr.Fee, 'f', -1, 64),
		})
	}
	return writer.Error()
}
