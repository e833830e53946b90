package cnledger

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// AppendTradeLog appends the data rows of tables to the trade log at path.
// The whitespace collapsed header of the first table is written when the
// file is new. Cells are trimmed.
func AppendTradeLog(path string, tables []FilteredTable) error {
	if len(tables) == 0 {
		return nil
	}
	f, isNew, err := openAppend(path)
	if err != nil {
		return err
	}

	csvWriter := csv.NewWriter(f)
	if isNew {
		header := make([]string, len(tables[0].Header()))
		for i, name := range tables[0].Header() {
			header[i] = collapseSpace(name)
		}
		csvWriter.Write(header)
	}
	for _, table := range tables {
		for _, row := range table.Rows() {
			record := make([]string, len(row))
			for i, cell := range row {
				record[i] = strings.TrimSpace(cell)
			}
			csvWriter.Write(record)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
