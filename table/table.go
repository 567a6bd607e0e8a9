package table

import (
	"github.com/alqadi/procuredocs/layout"
)

// minRowHeight is the smallest height of any row, in points.
const minRowHeight = 12.0

// Measurer measures and wraps text for cell sizing.
type Measurer interface {
	WrapText(text string, f layout.Font, width float64) []string
	LineHeight(f layout.Font) float64
}

// ColumnDef defines the properties of a table column.
type ColumnDef struct {
	Width    float64 // Fixed width. 0 means auto/fill.
	MinWidth float64 // Minimum width for auto columns.
	MaxWidth float64 // Maximum width for auto columns. 0 means unlimited.
	Align    layout.Align
}

// Table is a builder producing the layout blocks of a grid.
type Table struct {
	m          Measurer
	columns    []ColumnDef
	rows       []*Row
	style      TableStyle
	tableWidth float64
	rtl        bool
}

// New creates a table measured with m.
func New(m Measurer) *Table {
	return &Table{
		m: m,
		style: TableStyle{
			CellPadding: UniformPadding(4),
			CellFont:    layout.Font{Size: 10},
			TextColor:   layout.Black,
		},
	}
}

// SetColumns sets column definitions for the table.
func (t *Table) SetColumns(cols ...ColumnDef) *Table {
	t.columns = cols
	return t
}

// SetColumnWidths is a convenience method to set column widths directly.
// A width of 0 means the column will auto-fill remaining space.
func (t *Table) SetColumnWidths(widths ...float64) *Table {
	t.columns = make([]ColumnDef, len(widths))
	for i, w := range widths {
		t.columns[i] = ColumnDef{Width: w}
	}
	return t
}

// SetStyle sets the table-wide style.
func (t *Table) SetStyle(s TableStyle) *Table {
	t.style = s
	return t
}

// SetWidth sets the total table width.
func (t *Table) SetWidth(w float64) *Table {
	t.tableWidth = w
	return t
}

// SetRTL lays columns out from right to left: the first column is placed at
// the right edge and cell text is aligned for right-to-left reading.
func (t *Table) SetRTL(rtl bool) *Table {
	t.rtl = rtl
	return t
}

// AddRow adds a new body row to the table and returns it for chaining.
func (t *Table) AddRow() *Row {
	r := &Row{}
	t.rows = append(t.rows, r)
	return r
}

// AddHeaderRow adds a header row, placed before all body rows. Header rows
// are repeated at the top of each continuation page.
func (t *Table) AddHeaderRow() *Row {
	r := &Row{isHeader: true}
	insertIdx := 0
	for i, existing := range t.rows {
		if !existing.isHeader {
			insertIdx = i
			break
		}
		insertIdx = i + 1
	}
	t.rows = append(t.rows, nil)
	copy(t.rows[insertIdx+1:], t.rows[insertIdx:])
	t.rows[insertIdx] = r
	return r
}

// Blocks lays the table out. The header rows form one block kept with the
// first body row; every body row is its own block carrying a copy of the
// header as its continuation so that a page break before it repeats the
// header. section is recorded on every block.
func (t *Table) Blocks(section int) []*layout.Block {
	widths := t.calculateWidths()
	if len(widths) == 0 {
		return nil
	}

	var headerRows, bodyRows []*Row
	for _, r := range t.rows {
		if r.isHeader {
			headerRows = append(headerRows, r)
		} else {
			bodyRows = append(bodyRows, r)
		}
	}

	var header *layout.Block
	if len(headerRows) > 0 {
		header = &layout.Block{Kind: layout.Flow, Section: section, Label: "table.header"}
		for _, r := range headerRows {
			ops, h := t.rowOps(r, widths, -1, true, header.Height)
			header.Ops = append(header.Ops, ops...)
			header.Height += h
		}
	}

	var blocks []*layout.Block
	if header != nil {
		first := *header
		first.KeepWithNext = len(bodyRows) > 0
		blocks = append(blocks, &first)
	}
	for i, r := range bodyRows {
		ops, h := t.rowOps(r, widths, i, false, 0)
		label := r.label
		if label == "" {
			label = "table.row"
		}
		blocks = append(blocks, &layout.Block{
			Kind:         layout.Flow,
			Section:      section,
			Height:       h,
			Ops:          ops,
			Continuation: header,
			Label:        label,
		})
	}
	return blocks
}

// totalWidth is the width the table spans.
func (t *Table) totalWidth(widths []float64) float64 {
	if t.tableWidth > 0 {
		return t.tableWidth
	}
	sum := 0.0
	for _, w := range widths {
		sum += w
	}
	return sum
}

// calculateWidths computes final column widths based on definitions and available space.
func (t *Table) calculateWidths() []float64 {
	numCols := len(t.columns)
	if numCols == 0 {
		// Auto-detect from first row
		if len(t.rows) > 0 {
			numCols = len(t.rows[0].cells)
		}
		if numCols == 0 {
			return nil
		}
		t.columns = make([]ColumnDef, numCols)
	}

	widths := make([]float64, numCols)
	fixedTotal := 0.0
	autoCount := 0

	for i, col := range t.columns {
		if col.Width > 0 {
			widths[i] = col.Width
			fixedTotal += col.Width
		} else {
			autoCount++
		}
	}

	// Distribute remaining space to auto columns
	if autoCount > 0 {
		remaining := t.tableWidth - fixedTotal
		if remaining < 0 {
			remaining = 0
		}
		autoWidth := remaining / float64(autoCount)
		for i, col := range t.columns {
			if col.Width == 0 {
				w := autoWidth
				if col.MinWidth > 0 && w < col.MinWidth {
					w = col.MinWidth
				}
				if col.MaxWidth > 0 && w > col.MaxWidth {
					w = col.MaxWidth
				}
				widths[i] = w
			}
		}
	}

	return widths
}

// cellBox is a measured cell ready to be emitted.
type cellBox struct {
	x, w  float64
	lines []string
	style CellStyle
	font  layout.Font
	align layout.Align
}

// measureRow positions the cells of r and returns them with the row height.
func (t *Table) measureRow(r *Row, widths []float64, bodyIdx int, isHeader bool) ([]cellBox, float64) {
	padding := t.style.CellPadding
	total := t.totalWidth(widths)
	rowH := minRowHeight

	var boxes []cellBox
	col := 0
	for _, cell := range r.cells {
		if col >= len(widths) {
			break
		}
		x := 0.0
		for j := 0; j < col; j++ {
			x += widths[j]
		}
		cellW := 0.0
		for j := 0; j < cell.colspan && col+j < len(widths); j++ {
			cellW += widths[col+j]
		}
		if t.rtl {
			x = layout.Mirror(x, cellW, total)
		}

		style := t.cellStyle(cell, bodyIdx, isHeader)
		font := t.style.CellFont
		if style.Font != nil {
			font.Bold = style.Font.Bold
			if style.Font.Size > 0 {
				font.Size = style.Font.Size
			}
			if style.Font.Family != "" {
				font.Family = style.Font.Family
			}
		}
		align := layout.AlignStart
		if style.Align != nil {
			align = *style.Align
		} else if col < len(t.columns) {
			align = t.columns[col].Align
		}

		contentW := cellW - padding.Left - padding.Right
		if contentW < 1 {
			contentW = 1
		}
		lines := t.m.WrapText(cell.text, font, contentW)
		cellH := float64(len(lines))*t.m.LineHeight(font) + padding.Top + padding.Bottom
		if cellH > rowH {
			rowH = cellH
		}

		boxes = append(boxes, cellBox{x: x, w: cellW, lines: lines, style: style, font: font, align: align})
		col += cell.colspan
	}
	return boxes, rowH
}

// rowOps returns the drawing operations of one row placed at y within its
// block, and the row height.
func (t *Table) rowOps(r *Row, widths []float64, bodyIdx int, isHeader bool, y float64) ([]layout.Op, float64) {
	boxes, rowH := t.measureRow(r, widths, bodyIdx, isHeader)
	padding := t.style.CellPadding

	var fills, borders, texts []layout.Op
	for _, b := range boxes {
		if b.style.FillColor != nil {
			fill := *b.style.FillColor
			fills = append(fills, layout.RectOp{X: b.x, Y: y, W: b.w, H: rowH, Fill: &fill})
		}
		if t.style.Border != nil {
			stroke := t.style.Border.Color
			borders = append(borders, layout.RectOp{X: b.x, Y: y, W: b.w, H: rowH, Stroke: &stroke, LineWidth: t.style.Border.Width})
		}

		color := t.style.TextColor
		if b.style.TextColor != nil {
			color = *b.style.TextColor
		}
		lineH := t.m.LineHeight(b.font)
		for i, line := range b.lines {
			if line == "" {
				continue
			}
			texts = append(texts, layout.TextOp{
				X:     b.x + padding.Left,
				Y:     y + padding.Top + float64(i)*lineH,
				W:     b.w - padding.Left - padding.Right,
				H:     lineH,
				Text:  line,
				Font:  b.font,
				Color: color,
				Align: b.align,
				RTL:   t.rtl,
			})
		}
	}

	ops := make([]layout.Op, 0, len(fills)+len(borders)+len(texts))
	ops = append(ops, fills...)
	ops = append(ops, borders...)
	ops = append(ops, texts...)
	return ops, rowH
}

// cellStyle layers the header or alternating row style under the cell's own
// overrides.
func (t *Table) cellStyle(cell *Cell, bodyIdx int, isHeader bool) CellStyle {
	var out CellStyle
	switch {
	case isHeader && t.style.HeaderStyle != nil:
		out.merge(*t.style.HeaderStyle)
	case !isHeader && t.style.AlternateRows != nil && bodyIdx >= 0:
		if bodyIdx%2 == 0 {
			out.merge(t.style.AlternateRows.Even)
		} else {
			out.merge(t.style.AlternateRows.Odd)
		}
	}
	out.merge(cell.style)
	return out
}

// merge copies the set fields of src.
func (s *CellStyle) merge(src CellStyle) {
	if src.FillColor != nil {
		s.FillColor = src.FillColor
	}
	if src.TextColor != nil {
		s.TextColor = src.TextColor
	}
	if src.Font != nil {
		s.Font = src.Font
	}
	if src.Align != nil {
		s.Align = src.Align
	}
}
