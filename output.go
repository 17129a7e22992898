package japanrealestate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// FormatYen formats an amount as an abbreviated currency string
func FormatYen(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if amount >= 1000000 {
		return fmt.Sprintf("%s¥%.2fM", sign, amount/1000000)
	}
	if amount >= 1000 {
		return fmt.Sprintf("%s¥%.0fk", sign, amount/1000)
	}
	return fmt.Sprintf("%s¥%.0f", sign, amount)
}

// FormatYenFull formats an amount as full currency (no abbreviation)
func FormatYenFull(amount float64) string {
	return fmt.Sprintf("¥%.0f", amount)
}

var projectionCSVHeader = []string{
	"Year",
	"Income",
	"Property Value",
	"Cumulative Income",
	"Equity",
	"Net PNL If Sold (incl cum income + tax shield)",
}

// WriteProjectionCSV writes a multi-year projection as CSV, one row per
// holding year.
func WriteProjectionCSV(w io.Writer, rows []ProjectionRow) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(projectionCSVHeader); err != nil {
		return fmt.Errorf("projection csv: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.Year),
			strconv.FormatFloat(row.NetIncomeAfterTaxes, 'f', -1, 64),
			strconv.FormatFloat(row.BookValue, 'f', -1, 64),
			strconv.FormatFloat(row.CumulativeNetIncome, 'f', -1, 64),
			strconv.FormatFloat(row.EquityValue, 'f', -1, 64),
			strconv.FormatFloat(row.NetProfitOnRealEstate, 'f', -1, 64),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("projection csv: %w", err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("projection csv: %w", err)
	}
	return nil
}
