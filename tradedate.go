package cnledger

import (
	"regexp"
	"strings"
	"time"

	date "github.com/joyt/godate"
)

const (
	tradeDateLayout  = "2-Jan-2006"
	ledgerDateLayout = "02-01-2006"
)

var tradeDateMarker = regexp.MustCompile(`Trade Date\s+(\d{1,2}-[A-Za-z]{3}-\d{4})`)

// FindTradeDate returns the first trade date marker found in the page texts,
// or "" if no page has one.
func FindTradeDate(pageTexts []string) string {
	for _, text := range pageTexts {
		if m := tradeDateMarker.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// ParseTradeDate parses a date such as "15-Jan-2024". Unparseable input
// yields the blank TradeDate.
func ParseTradeDate(s string) TradeDate {
	s = strings.TrimSpace(s)
	if s == "" {
		return TradeDate{}
	}

	t, err := time.Parse(tradeDateLayout, s)
	if err != nil {
		t, _, err = date.ParseAndGetLayout(s)
		if err != nil {
			return TradeDate{}
		}
	}
	return NewTradeDate(t)
}

// NewTradeDate builds a TradeDate from t.
func NewTradeDate(t time.Time) TradeDate {
	return TradeDate{
		Text:  t.Format(ledgerDateLayout),
		Day:   t.Day(),
		Month: int(t.Month()),
		Time:  t,
	}
}
