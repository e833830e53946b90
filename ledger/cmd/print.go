package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/plenert/cnledger"
	"github.com/plenert/cnledger/ledger/batch"
)

const (
	entryDateFormat = "2006/01/02"
	newLine         = "\n"
)

var startString, endString string
var columnWidth int
var columnWide bool
var printCSV bool
var ledgerSide string
var spaceStr string

func cliEntries() ([]*cnledger.LedgerEntry, error) {
	if columnWidth == 80 && columnWide {
		columnWidth = 132
		fd := int(os.Stdout.Fd())
		if term.IsTerminal(fd) {
			tw, _, err := term.GetSize(fd)
			if err == nil {
				columnWidth = tw
			}
		}
	}

	parsedStartDate, tstartErr := dateparse.ParseAny(startString)
	parsedEndDate, tendErr := dateparse.ParseAny(endString)

	if tstartErr != nil || tendErr != nil {
		return nil, errors.New("unable to parse start or end date string argument")
	}

	// include end dates' entries too
	parsedEndDate = parsedEndDate.Add(time.Second)

	cfg, _ := loadConfig()
	store := batch.NewStore(
		cfg.Path(cfg.Output.BuyLedger),
		cfg.Path(cfg.Output.SellLedger),
		cfg.Path(cfg.Output.TradeLog),
	)

	var entries []*cnledger.LedgerEntry
	var err error
	switch ledgerSide {
	case "buy":
		entries, err = store.Ledger(store.BuyPath)
	case "sell":
		entries, err = store.Ledger(store.SellPath)
	case "all":
		entries, err = store.Entries()
	default:
		return nil, fmt.Errorf("unknown ledger %q, want buy, sell or all", ledgerSide)
	}
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(entries, func(a, b *cnledger.LedgerEntry) int {
		return a.Date.Time.Compare(b.Date.Time)
	})
	return EntriesInDateRange(entries, parsedStartDate, parsedEndDate), nil
}

// EntriesInDateRange returns the entries dated within [start, end). Undated
// entries are always kept.
func EntriesInDateRange(entries []*cnledger.LedgerEntry, start, end time.Time) []*cnledger.LedgerEntry {
	var out []*cnledger.LedgerEntry
	for _, e := range entries {
		t := e.Date.Time
		if t.IsZero() || (!t.Before(start) && t.Before(end)) {
			out = append(out, e)
		}
	}
	return out
}

// printCmd represents the print command
var printCmd = &cobra.Command{
	Use:   "print [ledger-substring-filter]...",
	Short: "Print ledger entries in journal format",
	Run: func(_ *cobra.Command, args []string) {
		entries, err := cliEntries()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if printCSV {
			if err := PrintCSV(os.Stdout, entries, args); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
		PrintLedger(os.Stdout, entries, args, columnWidth)
	},
}

func init() {
	rootCmd.AddCommand(printCmd)

	var startDate, endDate time.Time
	startDate = time.Date(1970, 1, 1, 0, 0, 0, 0, time.Local)
	endDate = time.Now().Add(1<<63 - 1)
	printCmd.Flags().StringVarP(&startString, "begin-date", "b", startDate.Format(entryDateFormat), "Begin date of entry processing.")
	printCmd.Flags().StringVarP(&endString, "end-date", "e", endDate.Format(entryDateFormat), "End date of entry processing.")
	printCmd.Flags().IntVar(&columnWidth, "columns", 80, "Set a column width for output.")
	printCmd.Flags().BoolVar(&columnWide, "wide", false, "Wide output (use terminal width).")
	printCmd.Flags().BoolVar(&printCSV, "csv", false, "Print entries in ledger CSV format.")
	printCmd.Flags().StringVar(&ledgerSide, "ledger", "all", "Ledger to print: buy, sell or all.")
}

func inFilter(e *cnledger.LedgerEntry, filterArr []string) bool {
	if len(filterArr) == 0 {
		return true
	}
	for _, filter := range filterArr {
		if strings.Contains(e.Debit, filter) || strings.Contains(e.Credit, filter) {
			return true
		}
	}
	return false
}

// WriteEntry writes an entry formatted to fit in specified column width. The
// debit posting carries the amount, the credit posting its negation.
func WriteEntry(w io.StringWriter, e *cnledger.LedgerEntry, columns int) {
	if len(spaceStr) < columns {
		spaceStr = strings.Repeat(" ", columns)
	}

	date := "undated   "
	if !e.Date.Time.IsZero() {
		date = e.Date.Time.Format(entryDateFormat)
	}
	w.WriteString(date)
	w.WriteString(spaceStr[:1])
	w.WriteString(e.VoucherType)
	if len(e.Narration) > 0 {
		spaceCount := columns - 11 - utf8.RuneCountInString(e.VoucherType) - utf8.RuneCountInString(e.Narration)
		if spaceCount < 1 {
			spaceCount = 1
		}
		w.WriteString(spaceStr[:spaceCount])
		w.WriteString(e.Narration)
	}
	w.WriteString(newLine)

	postings := []struct {
		name   string
		amount string
	}{
		{e.Debit, e.Amount.StringFixedBank(2)},
		{e.Credit, e.Amount.Neg().StringFixedBank(2)},
	}
	for _, p := range postings {
		spaceCount := columns - 4 - utf8.RuneCountInString(p.name) - utf8.RuneCountInString(p.amount)
		if spaceCount < 1 {
			spaceCount = 1
		}
		w.WriteString(spaceStr[:4])
		w.WriteString(p.name)
		w.WriteString(spaceStr[:spaceCount])
		w.WriteString(p.amount)
		w.WriteString(newLine)
	}
	w.WriteString(newLine)
}

// PrintLedger prints all entries matching the filters as a journal.
func PrintLedger(out io.Writer, entries []*cnledger.LedgerEntry, filterArr []string, columns int) {
	buf := bufio.NewWriter(out)
	for _, e := range entries {
		if inFilter(e, filterArr) {
			WriteEntry(buf, e, columns)
		}
	}
	buf.Flush()
}

// PrintCSV prints each entry that matches the given filters in ledger CSV format
func PrintCSV(out io.Writer, entries []*cnledger.LedgerEntry, filterArr []string) error {
	var matched []cnledger.LedgerEntry
	for _, e := range entries {
		if inFilter(e, filterArr) {
			matched = append(matched, *e)
		}
	}
	if err := cnledger.WriteLedger(out, matched, true); err != nil {
		return fmt.Errorf("error writing CSV: %w", err)
	}
	return nil
}
