package cnledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTable is a table as returned by the page extractor. The first row is a
// candidate header; rows may have any width.
type RawTable [][]string

// FilteredTable is a RawTable that passed the schema check. Every row,
// including the header at index 0, has the schema width.
type FilteredTable [][]string

// Header returns row 0 of the table.
func (t FilteredTable) Header() []string {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Rows returns the data rows of the table.
func (t FilteredTable) Rows() [][]string {
	if len(t) < 2 {
		return nil
	}
	return t[1:]
}

// TradeRecord is one business row of a contract note.
type TradeRecord struct {
	Security string
	Bought   int64
	Sold     int64
	Gross    decimal.Decimal
	Rate     decimal.Decimal
}

// TradeDate holds the trade date of a contract note. The zero value is the
// blank date used when no date could be parsed.
type TradeDate struct {
	// Text is the date formatted as DD-MM-YYYY.
	Text  string
	Day   int
	Month int
	Time  time.Time
}

// IsZero reports whether the date is blank.
func (d TradeDate) IsZero() bool {
	return d.Text == "" && d.Day == 0 && d.Month == 0
}

// LedgerEntry is a single journal voucher line as written to the ledger
// files. For a buy the security ledger is debited and the broker credited,
// for a sell it is the other way round.
type LedgerEntry struct {
	Date        TradeDate
	VoucherType string
	Reference   string
	Debit       string
	Credit      string
	Amount      decimal.Decimal
	Narration   string
}

// SpeculationRecord is a security that was both bought and sold.
type SpeculationRecord struct {
	Security string
	Bought   decimal.Decimal
	Sold     decimal.Decimal
}
