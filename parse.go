package cnledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	date "github.com/joyt/godate"
	"github.com/shopspring/decimal"
)

var ErrLedgerHeader = errors.New("ledger header does not match")

// LedgerHeader is the column layout of the buy and sell ledger files.
var LedgerHeader = []string{
	"Date",
	"Voucher Type",
	"Day",
	"Month",
	"Reference Number",
	"Dr Ledger",
	"Cr Ledger",
	"Amount",
	"Narration",
}

// ParseLedgerFile parses a ledger file and returns its entries.
func ParseLedgerFile(filename string) (entries []*LedgerEntry, err error) {
	ifile, ierr := os.Open(filename)
	if ierr != nil {
		return nil, ierr
	}
	defer ifile.Close()
	parseLedger(filename, ifile, func(e *LedgerEntry, perr error) (stop bool) {
		if perr != nil {
			err = perr
			return true
		}
		entries = append(entries, e)
		return
	})
	return
}

// ParseLedger parses ledger CSV data and returns its entries.
func ParseLedger(ledgerReader io.Reader) (entries []*LedgerEntry, err error) {
	parseLedger("", ledgerReader, func(e *LedgerEntry, perr error) (stop bool) {
		if perr != nil {
			err = perr
			return true
		}
		entries = append(entries, e)
		return
	})
	return
}

// ParseLedgerAsync parses ledger CSV data and returns entry and error
// channels. The error channel receives exactly one value, after the entry
// channel is closed.
func ParseLedgerAsync(ledgerReader io.Reader) (c chan *LedgerEntry, e chan error) {
	c = make(chan *LedgerEntry)
	e = make(chan error, 1)

	go func() {
		var perr error
		parseLedger("", ledgerReader, func(entry *LedgerEntry, err error) (stop bool) {
			if err != nil {
				perr = err
				return true
			}
			c <- entry
			return
		})

		close(c)
		e <- perr
		close(e)
	}()
	return c, e
}

type parser struct {
	name    string
	columns map[string]int

	dateLayout  string
	strPrevDate string
	prevDateErr error
	prevDate    time.Time
}

func parseLedger(filename string, ledgerReader io.Reader, callback func(e *LedgerEntry, err error) (stop bool)) {
	lp := parser{name: filename, dateLayout: ledgerDateLayout}

	reader := csv.NewReader(ledgerReader)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return
	}
	if err != nil {
		callback(nil, fmt.Errorf("%s:1: unable to read header: %w", lp.name, err))
		return
	}
	if err := lp.mapHeader(header); err != nil {
		callback(nil, fmt.Errorf("%s:1: %w", lp.name, err))
		return
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			if callback(nil, fmt.Errorf("%s:%d: unable to read record: %w", lp.name, line, err)) {
				return
			}
			continue
		}
		entry, err := lp.parseEntry(record)
		if err != nil {
			err = fmt.Errorf("%s:%d: unable to parse entry: %w", lp.name, line, err)
		}
		if callback(entry, err) {
			return
		}
	}
}

func (lp *parser) mapHeader(header []string) error {
	lp.columns = make(map[string]int, len(header))
	for i, name := range header {
		lp.columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	var missing []string
	for _, name := range LedgerHeader {
		if _, ok := lp.columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrLedgerHeader, strings.Join(missing, ", "))
	}
	return nil
}

func (lp *parser) field(record []string, name string) string {
	idx := lp.columns[name]
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}

func (lp *parser) parseEntry(record []string) (*LedgerEntry, error) {
	entry := &LedgerEntry{
		VoucherType: lp.field(record, "Voucher Type"),
		Reference:   lp.field(record, "Reference Number"),
		Debit:       lp.field(record, "Dr Ledger"),
		Credit:      lp.field(record, "Cr Ledger"),
		Narration:   lp.field(record, "Narration"),
	}

	var err error
	if entry.Date, err = lp.parseTradeDate(record); err != nil {
		return nil, err
	}

	if amount := strings.TrimSpace(lp.field(record, "Amount")); amount != "" {
		if entry.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("unable to parse amount(%s): %w", amount, err)
		}
	}
	return entry, nil
}

func (lp *parser) parseTradeDate(record []string) (td TradeDate, err error) {
	td.Text = strings.TrimSpace(lp.field(record, "Date"))
	if td.Day, err = atoiBlank(lp.field(record, "Day")); err != nil {
		return td, fmt.Errorf("unable to parse day: %w", err)
	}
	if td.Month, err = atoiBlank(lp.field(record, "Month")); err != nil {
		return td, fmt.Errorf("unable to parse month: %w", err)
	}
	if td.Text != "" {
		if td.Time, err = lp.parseDate(td.Text); err != nil {
			return td, err
		}
	}
	return td, nil
}

func (lp *parser) parseDate(dateString string) (transDate time.Time, err error) {
	// seen before, skip parse
	if lp.strPrevDate == dateString {
		return lp.prevDate, lp.prevDateErr
	}

	// try current date layout
	transDate, err = time.Parse(lp.dateLayout, dateString)
	if err != nil {
		// try to find new date layout
		transDate, lp.dateLayout, err = date.ParseAndGetLayout(dateString)
		if err != nil {
			lp.dateLayout = ledgerDateLayout
			err = fmt.Errorf("unable to parse date(%s): %w", dateString, err)
		}
	}

	// maybe next date is same
	lp.strPrevDate = dateString
	lp.prevDate = transDate
	lp.prevDateErr = err

	return
}

func atoiBlank(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
