package cnledger

import (
	"regexp"
	"strings"
)

// Accounting notation for negative numbers: (1,234.50)
var parenthesizedNumber = regexp.MustCompile(`\(([\d.,]+)\)`)

// CleanValue strips the parentheses from every parenthesized number in a
// cell, so "1,000.00\n(25.00)" becomes "1,000.00\n25.00". Bracketed
// amounts are read as their magnitude. Non-string values are returned
// unchanged.
func CleanValue(v any) any {
	if s, ok := v.(string); ok {
		return CleanCell(s)
	}
	return v
}

// CleanCell is CleanValue for string cells. Nested brackets are removed
// until none are left around a number.
func CleanCell(s string) string {
	for strings.Contains(s, "(") {
		next := parenthesizedNumber.ReplaceAllString(s, "$1")
		if next == s {
			break
		}
		s = next
	}
	return s
}

// collapseSpace joins all whitespace separated fields of s with single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
