//go:build go1.18

package cnledger

import (
	"reflect"
	"strings"
	"testing"
)

func FuzzCleanCell(f *testing.F) {
	for _, s := range []string{"(1,234.50)", "((1))", " (2) ", "Sub Total", "abc"} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		once := CleanCell(s)
		if twice := CleanCell(once); twice != once {
			t.Errorf("not idempotent: %q -> %q -> %q", s, once, twice)
		}
		opened := strings.Count(s, "(") - strings.Count(once, "(")
		closed := strings.Count(s, ")") - strings.Count(once, ")")
		if opened != closed {
			t.Errorf("unbalanced strip: %q -> %q", s, once)
		}
		if parenthesizedNumber.MatchString(once) {
			t.Errorf("bracketed number left: %q -> %q", s, once)
		}
	})
}

func FuzzFilterIdempotent(f *testing.F) {
	f.Add("INE002A01018", "(1,000.00)", "Sub Total")
	f.Add("", "", "")
	f.Fuzz(func(t *testing.T, a, b, c string) {
		header := sampleHeader()
		row := sampleRow("X-EQ", "1", "0", b, a)
		row2 := sampleRow(c, "0", "2", "3", "4")
		tables := []RawTable{{header, row, row2, {a, b}}}

		once := DefaultSchema.Filter(tables)
		raw := make([]RawTable, len(once))
		for i, ft := range once {
			raw[i] = RawTable(ft)
		}
		twice := DefaultSchema.Filter(raw)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("filter not idempotent:\n%q\n%q", once, twice)
		}
	})
}
