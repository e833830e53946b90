package pdfsource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/plenert/cnledger"
)

// Glyph is a positioned run of text on a page.
type Glyph struct {
	X, W     float64
	FontSize float64
	S        string
}

// Line is the glyphs sharing one baseline.
type Line struct {
	Y      float64
	Glyphs []Glyph
}

// TextExtractor rebuilds tables from text positions. Gaps wider than
// CellGap font sizes start a new cell, gaps wider than WordGap insert a
// space. Consecutive lines with at least two cells form a table.
type TextExtractor struct {
	WordGap float64
	CellGap float64
}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{WordGap: 0.2, CellGap: 1.2}
}

// Extract reads every page of the document at path. Malformed documents
// make the pdf reader panic; the panic is returned as ErrExtract.
func (x *TextExtractor) Extract(path string) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: %v", ErrExtract, path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtract, path, err)
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, rerr := p.GetTextByRow()
		if rerr != nil {
			return nil, fmt.Errorf("%w: %s: page %d: %v", ErrExtract, path, i, rerr)
		}

		lines := make([]Line, 0, len(rows))
		for _, row := range rows {
			line := Line{Y: float64(row.Position)}
			for _, t := range row.Content {
				line.Glyphs = append(line.Glyphs, Glyph{X: t.X, W: t.W, FontSize: t.FontSize, S: t.S})
			}
			lines = append(lines, line)
		}
		pages = append(pages, x.Page(i, lines))
	}
	return pages, nil
}

// Page assembles the text and tables of one page from its lines.
func (x *TextExtractor) Page(number int, lines []Line) Page {
	// top of the page first
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Y > lines[j].Y })

	page := Page{Number: number}
	var (
		text    strings.Builder
		current cnledger.RawTable
	)
	flush := func() {
		if len(current) > 0 {
			page.Tables = append(page.Tables, current)
			current = nil
		}
	}

	for _, line := range lines {
		cells := x.Cells(line.Glyphs)
		text.WriteString(strings.Join(cells, "\t"))
		text.WriteString("\n")

		if len(cells) < 2 {
			flush()
			continue
		}
		current = append(current, cells)
	}
	flush()

	page.Text = text.String()
	return page
}

// Cells splits the glyphs of one line into cell texts.
func (x *TextExtractor) Cells(glyphs []Glyph) []string {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var (
		cells []string
		cell  strings.Builder
	)
	end := sorted[0].X
	for i, g := range sorted {
		if i > 0 {
			size := g.FontSize
			if size <= 0 {
				size = 1
			}
			gap := g.X - end
			switch {
			case gap > x.CellGap*size:
				cells = append(cells, strings.TrimSpace(cell.String()))
				cell.Reset()
			case gap > x.WordGap*size:
				cell.WriteString(" ")
			}
		}
		cell.WriteString(g.S)
		if e := g.X + g.W; e > end || i == 0 {
			end = e
		}
	}
	cells = append(cells, strings.TrimSpace(cell.String()))
	return cells
}
