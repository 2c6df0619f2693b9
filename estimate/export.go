package estimate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes result items as delimited text for spreadsheet import.
// Costs are emitted as raw numbers, not display strings.
func WriteCSV(w io.Writer, items []ResultItem) error {
	cw := csv.NewWriter(w)

	header := []string{"Intervention", "Quantity", "Unit", "Source Clause", "Material Cost (INR)", "Chainage"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.Key,
			strconv.FormatFloat(item.Quantity, 'f', 2, 64),
			item.Unit,
			item.SourceClause,
			item.MaterialCost.StringFixed(2),
			item.ChainageLabel,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record for %s: %w", item.Key, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
