package cnledger

import "strings"

// Schema describes the trade table of a contract note.
type Schema struct {
	// Columns is the exact width of the trade table.
	Columns int
	// HeaderMarker must be one of the header cells.
	HeaderMarker string
	// SubtotalMarker identifies summary rows that carry no trade.
	SubtotalMarker string
}

// DefaultSchema matches the equity contract note layout.
var DefaultSchema = Schema{
	Columns:        11,
	HeaderMarker:   "Segment",
	SubtotalMarker: "Sub Total",
}

// Filter keeps the tables whose header matches the schema and cleans them.
// Malformed and subtotal rows are dropped, every remaining cell goes
// through CleanCell, and tables left without data rows are discarded.
func (s Schema) Filter(tables []RawTable) []FilteredTable {
	var out []FilteredTable
	for _, table := range tables {
		if ft, ok := s.filterTable(table); ok {
			out = append(out, ft)
		}
	}
	return out
}

// FilterPages runs Filter over every page, keeping page order.
func (s Schema) FilterPages(pages [][]RawTable) []FilteredTable {
	var out []FilteredTable
	for _, tables := range pages {
		out = append(out, s.Filter(tables)...)
	}
	return out
}

// Accepts reports whether header identifies a trade table.
func (s Schema) Accepts(header []string) bool {
	return len(header) == s.Columns && containsCell(header, s.HeaderMarker)
}

func (s Schema) filterTable(table RawTable) (FilteredTable, bool) {
	if len(table) == 0 || !s.Accepts(table[0]) {
		return nil, false
	}

	filtered := make(FilteredTable, 0, len(table))
	for _, row := range table {
		if len(row) != s.Columns {
			continue
		}
		if s.SubtotalMarker != "" && containsCell(row, s.SubtotalMarker) {
			continue
		}
		cleaned := make([]string, len(row))
		for i, cell := range row {
			cleaned[i] = CleanCell(cell)
		}
		filtered = append(filtered, cleaned)
	}

	// header only
	if len(filtered) < 2 {
		return nil, false
	}
	return filtered, true
}

func containsCell(row []string, value string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) == value {
			return true
		}
	}
	return false
}
