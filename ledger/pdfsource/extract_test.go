package pdfsource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenert/cnledger"
)

// word lays out s at x with a width of one unit per rune at font size 10.
func word(x float64, s string) Glyph {
	return Glyph{X: x, W: float64(len(s)), FontSize: 10, S: s}
}

func TestCells(t *testing.T) {
	x := NewTextExtractor()

	var tests = []struct {
		name   string
		glyphs []Glyph
		cells  []string
	}{
		{"empty", nil, nil},
		{"single", []Glyph{word(0, "Segment")}, []string{"Segment"}},
		{
			"adjacent glyphs join",
			[]Glyph{word(0, "Sub"), word(3, "Total")},
			[]string{"SubTotal"},
		},
		{
			"word gap adds a space",
			[]Glyph{word(0, "Sub"), word(6, "Total")},
			[]string{"Sub Total"},
		},
		{
			"cell gap splits",
			[]Glyph{word(0, "NSE"), word(30, "RELIANCE-EQ"), word(80, "10")},
			[]string{"NSE", "RELIANCE-EQ", "10"},
		},
		{
			"unsorted input",
			[]Glyph{word(80, "10"), word(0, "NSE"), word(30, "RELIANCE-EQ")},
			[]string{"NSE", "RELIANCE-EQ", "10"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.cells, x.Cells(tc.glyphs))
		})
	}
}

func TestPage(t *testing.T) {
	x := NewTextExtractor()
	lines := []Line{
		// bottom of the page, listed first on purpose
		{Y: 100, Glyphs: []Glyph{word(0, "Page 1 of 1")}},
		{Y: 600, Glyphs: []Glyph{word(0, "NSE"), word(30, "TCS-EQ"), word(80, "5")}},
		{Y: 700, Glyphs: []Glyph{word(0, "Trade Date"), word(14, "15-Jan-2024")}},
		{Y: 650, Glyphs: []Glyph{word(0, "Contract Note")}},
		{Y: 620, Glyphs: []Glyph{word(0, "Segment"), word(30, "Security"), word(80, "Bought")}},
		{Y: 400, Glyphs: []Glyph{word(0, "Charges")}},
		{Y: 300, Glyphs: []Glyph{word(0, "Total"), word(30, "100.00")}},
	}

	page := x.Page(3, lines)
	assert.Equal(t, 3, page.Number)
	assert.Equal(t, "15-Jan-2024", cnledger.FindTradeDate([]string{page.Text}))

	require.Len(t, page.Tables, 2)
	assert.Equal(t, cnledger.RawTable{
		{"Segment", "Security", "Bought"},
		{"NSE", "TCS-EQ", "5"},
	}, page.Tables[0])
	assert.Equal(t, cnledger.RawTable{{"Total", "100.00"}}, page.Tables[1])
}

func TestPagesAccessors(t *testing.T) {
	pages := []Page{
		{Number: 1, Text: "a", Tables: []cnledger.RawTable{{{"x", "y"}}}},
		{Number: 2, Text: "b"},
	}
	assert.Equal(t, []string{"a", "b"}, Texts(pages))

	tables := Tables(pages)
	require.Len(t, tables, 2)
	assert.Len(t, tables[0], 1)
	assert.Empty(t, tables[1])
}

// crossedXref returns a PDF whose xref entry for object 2 points at object 1.
func crossedXref() []byte {
	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	catalog := b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	b.WriteString("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")
	xref := b.Len()
	b.WriteString("xref\n0 3\n")
	b.WriteString("0000000000 65535 f\r\n")
	fmt.Fprintf(&b, "%010d 00000 n\r\n", catalog)
	fmt.Fprintf(&b, "%010d 00000 n\r\n", catalog)
	b.WriteString("trailer\n<< /Size 3 /Root 1 0 R >>\n")
	fmt.Fprintf(&b, "startxref\n%d\n%%%%EOF\n", xref)
	return []byte(b.String())
}

func TestExtractMalformed(t *testing.T) {
	dir := t.TempDir()
	var tests = []struct {
		name string
		data []byte
	}{
		{"crossed-xref.pdf", crossedXref()},
		{"not-a-pdf.pdf", []byte("hello")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name)
			require.NoError(t, os.WriteFile(path, tc.data, 0o644))

			var (
				pages []Page
				err   error
			)
			require.NotPanics(t, func() { pages, err = NewTextExtractor().Extract(path) })
			assert.ErrorIs(t, err, ErrExtract)
			assert.Nil(t, pages)
		})
	}
}
