package table_test

import (
	"fmt"

	"github.com/alqadi/procuredocs/layout"
	"github.com/alqadi/procuredocs/table"
)

// ExampleTable lays out a styled product table with a repeated header row.
func ExampleTable() {
	headerFill := layout.Color{R: 26, G: 54, B: 93}
	stripe := layout.Color{R: 247, G: 250, B: 252}

	tbl := table.New(fixedMeasurer{})
	tbl.SetColumns(
		table.ColumnDef{Width: 80},
		table.ColumnDef{},
		table.ColumnDef{Width: 50, Align: layout.AlignEnd},
	).SetWidth(400)
	tbl.SetStyle(table.TableStyle{
		CellPadding: table.UniformPadding(4),
		CellFont:    layout.Font{Size: 10},
		Border:      &table.BorderStyle{Width: 0.5, Color: layout.Color{R: 180, G: 180, B: 180}},
		HeaderStyle: &table.CellStyle{FillColor: &headerFill, TextColor: &layout.White, Font: &layout.Font{Bold: true}},
		AlternateRows: &table.AlternateStyle{
			Even: table.CellStyle{FillColor: &stripe},
		},
	})

	header := tbl.AddHeaderRow()
	header.AddCell("SKU")
	header.AddCell("Description")
	header.AddCell("Qty")

	for _, p := range [][]string{
		{"WDG-001", "Premium Widget", "10"},
		{"WDG-002", "Deluxe Widget", "5"},
	} {
		row := tbl.AddRow()
		row.AddCell(p[0])
		row.AddCell(p[1])
		row.AddCell(p[2])
	}

	for _, b := range tbl.Blocks(0) {
		fmt.Printf("%s %.0fpt repeats header: %v\n", b.Label, b.Height, b.Continuation != nil)
	}
	// Output:
	// table.header 20pt repeats header: false
	// table.row 20pt repeats header: true
	// table.row 20pt repeats header: true
}
