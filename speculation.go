package cnledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/shopspring/decimal"
)

var ErrSpeculationColumns = errors.New("columns for bought or sold quantities not found")

// SpeculationFields locate the columns read by DetectSpeculation.
var SpeculationFields = []FieldSpec{
	{FieldSecurity, Contains("security description")},
	{FieldBought, Contains("bought")},
	{FieldSold, Contains("sold")},
}

// DetectSpeculationFile runs DetectSpeculation on the trade log at path.
func DetectSpeculationFile(path string) ([]SpeculationRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := DetectSpeculation(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// DetectSpeculation sums the bought and sold quantities of every security in
// the trade log and reports the securities where both sums are positive,
// sorted by security.
func DetectSpeculation(r io.Reader) ([]SpeculationRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty trade log", ErrSpeculationColumns)
	}
	if err != nil {
		return nil, err
	}
	cols, err := ResolveColumns(header, SpeculationFields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpeculationColumns, err)
	}

	totals := make(map[string]*SpeculationRecord)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		security := cols.Text(row, FieldSecurity)
		rec, ok := totals[security]
		if !ok {
			rec = &SpeculationRecord{Security: security, Bought: decimal.Zero, Sold: decimal.Zero}
			totals[security] = rec
		}
		rec.Bought = rec.Bought.Add(cols.Decimal(row, FieldBought))
		rec.Sold = rec.Sold.Add(cols.Decimal(row, FieldSold))
	}

	var out []SpeculationRecord
	for _, rec := range totals {
		if rec.IsSpeculative() {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Security < out[j].Security
	})
	return out, nil
}

// IsSpeculative reports whether a security was both bought and sold.
func (s SpeculationRecord) IsSpeculative() bool {
	return s.Bought.Sign() > 0 && s.Sold.Sign() > 0
}
