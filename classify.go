package cnledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Classifier turns filtered trade tables into journal entries.
type Classifier struct {
	// BrokerLedger is the ledger on the other side of every trade.
	BrokerLedger string
	VoucherType  string
	// LedgerSuffix is appended to the security name to form its ledger.
	LedgerSuffix string
	// Fields locate the trade columns. DefaultFields when nil.
	Fields []FieldSpec
}

// NewClassifier returns a Classifier using DefaultFields.
func NewClassifier(brokerLedger, voucherType, ledgerSuffix string) *Classifier {
	return &Classifier{
		BrokerLedger: brokerLedger,
		VoucherType:  voucherType,
		LedgerSuffix: ledgerSuffix,
		Fields:       DefaultFields,
	}
}

func (c *Classifier) fields() []FieldSpec {
	if c.Fields == nil {
		return DefaultFields
	}
	return c.Fields
}

// Trades parses the data rows of every table. Tables whose header lacks a
// required column are skipped; their errors are joined into the returned
// error while the records of the other tables are still returned.
func (c *Classifier) Trades(tables []FilteredTable) ([]TradeRecord, error) {
	var (
		records []TradeRecord
		errs    []error
	)
	for ti, table := range tables {
		cols, err := ResolveColumns(table.Header(), c.fields())
		if err != nil {
			errs = append(errs, fmt.Errorf("table %d: %w", ti+1, err))
			continue
		}
		for _, row := range table.Rows() {
			rec := TradeRecord{
				Security: cols.Text(row, FieldSecurity),
				Bought:   cols.Quantity(row, FieldBought),
				Sold:     cols.Quantity(row, FieldSold),
				Gross:    cols.Decimal(row, FieldGross),
				Rate:     cols.Decimal(row, FieldRate),
			}
			if rec.Bought == 0 && rec.Sold == 0 {
				continue
			}
			records = append(records, rec)
		}
	}
	return records, errors.Join(errs...)
}

// Classify converts the tables of one contract note into buy and sell
// entries, in row order. A row with both quantities set yields one entry
// of each kind. The returned error is the one from Trades.
func (c *Classifier) Classify(tables []FilteredTable, date TradeDate) (buys, sells []LedgerEntry, err error) {
	records, err := c.Trades(tables)
	for _, rec := range records {
		security := SecurityLedger(rec.Security, c.LedgerSuffix)
		if rec.Bought > 0 {
			buys = append(buys, c.entry(date, security, c.BrokerLedger, rec.Gross, Narration(rec.Bought, rec.Rate)))
		}
		if rec.Sold > 0 {
			sells = append(sells, c.entry(date, c.BrokerLedger, security, rec.Gross, Narration(rec.Sold, rec.Rate)))
		}
	}
	return buys, sells, err
}

func (c *Classifier) entry(date TradeDate, debit, credit string, amount decimal.Decimal, narration string) LedgerEntry {
	return LedgerEntry{
		Date:        date,
		VoucherType: c.VoucherType,
		Debit:       debit,
		Credit:      credit,
		Amount:      amount,
		Narration:   narration,
	}
}

// SecurityLedger derives the ledger name of a security: the description up
// to the first '-', trimmed, followed by suffix. "RELIANCE-EQ" becomes
// "RELIANCE Shares".
func SecurityLedger(description, suffix string) string {
	name, _, _ := strings.Cut(collapseSpace(description), "-")
	name = strings.TrimSpace(name)
	if suffix == "" {
		return name
	}
	return name + " " + suffix
}

// Narration formats the narration of a trade entry.
func Narration(quantity int64, rate decimal.Decimal) string {
	return "Quantity: " + strconv.FormatInt(quantity, 10) + ", Rate: " + rate.String()
}
