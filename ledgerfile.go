package cnledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
)

// Record returns the CSV fields of the entry in LedgerHeader order.
func (e *LedgerEntry) Record() []string {
	return []string{
		e.Date.Text,
		e.VoucherType,
		itoaBlank(e.Date.Day),
		itoaBlank(e.Date.Month),
		e.Reference,
		e.Debit,
		e.Credit,
		e.Amount.String(),
		e.Narration,
	}
}

// WriteLedger writes entries as CSV, preceded by LedgerHeader if header is set.
func WriteLedger(w io.Writer, entries []LedgerEntry, header bool) error {
	csvWriter := csv.NewWriter(w)
	if header {
		if err := csvWriter.Write(LedgerHeader); err != nil {
			return err
		}
	}
	for i := range entries {
		if err := csvWriter.Write(entries[i].Record()); err != nil {
			return fmt.Errorf("unable to write entry %d: %w", i+1, err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// AppendLedgerFile appends entries to the ledger file at path. The header is
// written only when the file does not exist yet. Nothing happens for an
// empty slice, so a file is never created without entries.
func AppendLedgerFile(path string, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	f, isNew, err := openAppend(path)
	if err != nil {
		return err
	}
	if err := WriteLedger(f, entries, isNew); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// openAppend opens path for appending and reports whether the file is new
// or empty.
func openAppend(path string) (f *os.File, isNew bool, err error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		isNew = true
	case err != nil:
		return nil, false, err
	default:
		isNew = info.Size() == 0
	}

	f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false, err
	}
	return f, isNew, nil
}

func itoaBlank(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
