package table

import (
	"fmt"

	"github.com/alqadi/procuredocs/layout"
)

// Cell is one text cell of a row.
type Cell struct {
	text    string
	colspan int
	style   CellStyle
}

// SetColspan makes the cell span n columns.
func (c *Cell) SetColspan(n int) *Cell {
	if n > 0 {
		c.colspan = n
	}
	return c
}

// SetAlign overrides the column alignment.
func (c *Cell) SetAlign(a layout.Align) *Cell {
	c.style.Align = &a
	return c
}

// SetBold switches the cell to the bold face of the table font.
func (c *Cell) SetBold() *Cell {
	c.style.Font = &layout.Font{Bold: true}
	return c
}

// Row is a header or body row. Body rows become one block each; header
// rows are grouped into the block repeated on continuation pages.
type Row struct {
	cells    []*Cell
	isHeader bool
	label    string
}

// AddCell appends a text cell.
func (r *Row) AddCell(text string) *Cell {
	c := &Cell{text: text, colspan: 1}
	r.cells = append(r.cells, c)
	return c
}

// AddCellf appends a formatted text cell.
func (r *Row) AddCellf(format string, args ...any) *Cell {
	return r.AddCell(fmt.Sprintf(format, args...))
}

// SetLabel names the block produced for the row.
func (r *Row) SetLabel(label string) *Row {
	r.label = label
	return r
}
