package cnledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrMissingColumn = errors.New("required column not found in header")

// Field is a logical column of the trade table.
type Field int

const (
	FieldSecurity Field = iota
	FieldBought
	FieldSold
	FieldGross
	FieldRate
)

var fieldNames = [...]string{
	FieldSecurity: "security",
	FieldBought:   "bought",
	FieldSold:     "sold",
	FieldGross:    "gross",
	FieldRate:     "rate",
}

func (f Field) String() string {
	if int(f) < len(fieldNames) {
		return fieldNames[f]
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Matcher decides whether a normalized header cell names a field.
type Matcher interface {
	Match(header string) bool
}

// Contains matches headers containing the substring, ignoring case.
type Contains string

func (c Contains) Match(header string) bool {
	return strings.Contains(strings.ToLower(header), strings.ToLower(string(c)))
}

// FieldSpec pairs a logical field with the matcher that locates it.
type FieldSpec struct {
	Field   Field
	Matcher Matcher
}

// DefaultFields locate the columns of the equity contract note.
var DefaultFields = []FieldSpec{
	{FieldSecurity, Contains("security description")},
	{FieldBought, Contains("bought")},
	{FieldSold, Contains("sold")},
	{FieldGross, Contains("gross")},
	{FieldRate, Contains("rate")},
}

// Columns maps fields to column indexes of one table.
type Columns map[Field]int

// ResolveColumns matches the header against specs. The first header cell
// matching a spec wins. Every spec must match.
func ResolveColumns(header []string, specs []FieldSpec) (Columns, error) {
	cols := make(Columns, len(specs))
	var missing []string
	for _, spec := range specs {
		idx := -1
		for i, name := range header {
			if spec.Matcher.Match(collapseSpace(name)) {
				idx = i
				break
			}
		}
		if idx < 0 {
			missing = append(missing, spec.Field.String())
			continue
		}
		cols[spec.Field] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

// Text returns the whitespace collapsed cell of field f.
func (c Columns) Text(row []string, f Field) string {
	idx, ok := c[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return collapseSpace(row[idx])
}

// Decimal returns the numeric value of field f, or zero when the cell is
// not a number.
func (c Columns) Decimal(row []string, f Field) decimal.Decimal {
	return parseNumber(c.Text(row, f))
}

// Quantity returns the integer part of field f.
func (c Columns) Quantity(row []string, f Field) int64 {
	return c.Decimal(row, f).IntPart()
}

func parseNumber(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
