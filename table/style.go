// Package table lays out grids of text cells as measured layout blocks.
//
// It provides fixed and auto-width columns, header rows repeated at the top
// of every continuation page, alternating row colors, column spans and
// right-to-left column mirroring. The table never draws; it produces
// layout.Block values that the document assembler paginates.
package table

import "github.com/alqadi/procuredocs/layout"

// Padding defines spacing inside a cell.
type Padding struct {
	Top, Right, Bottom, Left float64
}

// UniformPadding creates a Padding with the same value on all sides.
func UniformPadding(v float64) Padding {
	return Padding{Top: v, Right: v, Bottom: v, Left: v}
}

// BorderStyle defines the appearance of cell borders.
type BorderStyle struct {
	Width float64
	Color layout.Color
}

// CellStyle defines the visual appearance of a cell. Nil fields inherit.
type CellStyle struct {
	FillColor *layout.Color
	TextColor *layout.Color
	Font      *layout.Font
	Align     *layout.Align
}

// AlternateStyle defines alternating row colors.
type AlternateStyle struct {
	Even CellStyle
	Odd  CellStyle
}

// TableStyle defines the overall appearance of a table.
type TableStyle struct {
	Border        *BorderStyle
	AlternateRows *AlternateStyle
	HeaderStyle   *CellStyle
	CellPadding   Padding
	CellFont      layout.Font
	TextColor     layout.Color
}
