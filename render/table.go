package render

import (
	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/layout"
	"github.com/alqadi/procuredocs/table"
)

// tableGap separates a table from what follows.
const tableGap = 8.0

func columnAlign(a string) layout.Align {
	switch a {
	case "center":
		return layout.AlignCenter
	case "end":
		return layout.AlignEnd
	}
	return layout.AlignStart
}

// grid lays out a bound table. Column order is mirrored for right-to-left
// pages, an empty data source yields a single row holding the empty text,
// and totals rows follow the data with their label spanning all but the
// last column.
func grid(index int, c doctpl.ResolvedTable, page Page, s Surface) []*layout.Block {
	t := page.theme
	tb := table.New(s)
	tb.SetWidth(page.Geometry.ContentWidth()).SetRTL(page.RTL)

	cols := make([]table.ColumnDef, len(c.Columns))
	for i, col := range c.Columns {
		cols[i] = table.ColumnDef{Width: col.Width, Align: columnAlign(col.Align)}
	}
	tb.SetColumns(cols...)

	style := table.TableStyle{
		CellPadding: table.Padding{Top: 4, Bottom: 4, Left: 5, Right: 5},
		CellFont:    t.font(-1, false),
		TextColor:   layout.Black,
		HeaderStyle: &table.CellStyle{
			FillColor: &t.primary,
			TextColor: &layout.White,
			Font:      &layout.Font{Bold: true},
		},
	}
	if c.ShowBorders {
		style.Border = &table.BorderStyle{Width: 0.5, Color: t.rule}
	}
	if c.AlternateRowColors {
		white := layout.White
		style.AlternateRows = &table.AlternateStyle{
			Even: table.CellStyle{FillColor: &white},
			Odd:  table.CellStyle{FillColor: &t.accent},
		}
	}
	tb.SetStyle(style)

	hdr := tb.AddHeaderRow()
	for _, col := range c.Columns {
		hdr.AddCell(col.Header)
	}

	for _, rec := range c.Rows {
		row := tb.AddRow()
		for _, v := range rec {
			row.AddCell(v)
		}
	}
	if len(c.Rows) == 0 {
		tb.AddRow().SetLabel("table.empty").
			AddCell(c.EmptyText).SetColspan(len(c.Columns)).SetAlign(layout.AlignCenter)
	}

	n := len(c.Columns)
	for _, tot := range c.Totals {
		row := tb.AddRow().SetLabel("table.total")
		if n > 1 {
			row.AddCell(tot.Label).SetColspan(n - 1).SetAlign(layout.AlignEnd).SetBold()
			row.AddCell(tot.Value).SetAlign(layout.AlignEnd).SetBold()
		} else {
			row.AddCellf("%s %s", tot.Label, tot.Value).SetBold()
		}
	}

	blocks := tb.Blocks(index)
	blocks = append(blocks, &layout.Block{Kind: layout.Spacer, Section: index, Height: tableGap, Label: "table.gap"})
	return blocks
}
