package cnledger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func sampleEntries() []LedgerEntry {
	date := ParseTradeDate("15-Jan-2024")
	return []LedgerEntry{
		{
			Date:        date,
			VoucherType: "Journal",
			Debit:       "RELIANCE Shares",
			Credit:      "Broker",
			Amount:      decimal.NewFromInt(1000),
			Narration:   "Quantity: 10, Rate: 100",
		},
		{
			Date:        date,
			VoucherType: "Journal",
			Debit:       "HDFC, BANK Shares",
			Credit:      "Broker",
			Amount:      decimal.RequireFromString("1234.5"),
			Narration:   "Quantity: 1, Rate: 1234.5",
		},
		{
			VoucherType: "Journal",
			Debit:       "TCS Shares",
			Credit:      "Broker",
			Amount:      decimal.NewFromInt(5),
			Narration:   "Quantity: 1, Rate: 5",
		},
	}
}

func sameEntry(a, b *LedgerEntry) bool {
	return a.Date.Text == b.Date.Text &&
		a.Date.Day == b.Date.Day &&
		a.Date.Month == b.Date.Month &&
		a.Date.Time.Equal(b.Date.Time) &&
		a.VoucherType == b.VoucherType &&
		a.Reference == b.Reference &&
		a.Debit == b.Debit &&
		a.Credit == b.Credit &&
		a.Amount.Equal(b.Amount) &&
		a.Narration == b.Narration
}

func TestLedgerRoundTrip(t *testing.T) {
	want := sampleEntries()

	var buf bytes.Buffer
	if err := WriteLedger(&buf, want, true); err != nil {
		t.Fatal(err)
	}

	got, err := ParseLedger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if !sameEntry(got[i], &want[i]) {
			t.Errorf("entry %d:\n got %+v\nwant %+v", i, *got[i], want[i])
		}
	}
}

func TestLedgerHeaderLine(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteLedger(&buf, sampleEntries()[:1], true); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Date,Voucher Type,Day,Month,Reference Number,Dr Ledger,Cr Ledger,Amount,Narration" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `15-01-2024,Journal,15,1,,RELIANCE Shares,Broker,1000,"Quantity: 10, Rate: 100"` {
		t.Errorf("row = %q", lines[1])
	}
}

func TestAppendLedgerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buy.csv")
	entries := sampleEntries()

	if err := AppendLedgerFile(path, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("empty append created the file: %v", err)
	}

	if err := AppendLedgerFile(path, entries[:1]); err != nil {
		t.Fatal(err)
	}
	if err := AppendLedgerFile(path, entries[1:]); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "Voucher Type"); n != 1 {
		t.Errorf("header written %d times", n)
	}

	got, err := ParseLedgerFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i := range entries {
		if !sameEntry(got[i], &entries[i]) {
			t.Errorf("entry %d differs: %+v", i, *got[i])
		}
	}
}

func TestParseLedgerErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  string
	}{
		{
			"bad header",
			"Date,Amount\n",
			":1: ledger header does not match: missing Voucher Type, Day, Month, Reference Number, Dr Ledger, Cr Ledger, Narration",
		},
		{
			"bad amount",
			"Date,Voucher Type,Day,Month,Reference Number,Dr Ledger,Cr Ledger,Amount,Narration\n" +
				"15-01-2024,Journal,15,1,,A,B,ten,n\n",
			":2: unable to parse entry: unable to parse amount(ten): ",
		},
		{
			"bad day",
			"Date,Voucher Type,Day,Month,Reference Number,Dr Ledger,Cr Ledger,Amount,Narration\n" +
				"15-01-2024,Journal,x,1,,A,B,1,n\n",
			":2: unable to parse entry: unable to parse day: ",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLedger(strings.NewReader(tc.data))
			if err == nil || !strings.HasPrefix(err.Error(), tc.err) {
				t.Errorf("error = %v, want prefix %q", err, tc.err)
			}
		})
	}
}

func TestParseLedgerEmpty(t *testing.T) {
	entries, err := ParseLedger(strings.NewReader(""))
	if err != nil || len(entries) != 0 {
		t.Errorf("got %v, %v", entries, err)
	}
}

func TestParseLedgerAsync(t *testing.T) {
	var buf bytes.Buffer
	want := sampleEntries()
	if err := WriteLedger(&buf, want, true); err != nil {
		t.Fatal(err)
	}

	c, e := ParseLedgerAsync(&buf)
	var got []*LedgerEntry
	for entry := range c {
		got = append(got, entry)
	}
	if err := <-e; err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	if want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC); !got[0].Date.Time.Equal(want) {
		t.Errorf("date = %v", got[0].Date.Time)
	}
}

func TestParseLedgerAsyncError(t *testing.T) {
	c, e := ParseLedgerAsync(strings.NewReader("Date\n"))
	for range c {
		t.Error("unexpected entry")
	}
	if err := <-e; !errors.Is(err, ErrLedgerHeader) {
		t.Errorf("err = %v", err)
	}
}
