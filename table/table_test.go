package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alqadi/procuredocs/canvas"
	"github.com/alqadi/procuredocs/layout"
	"github.com/alqadi/procuredocs/table"
)

// fixedMeasurer gives every rune a width of half the font size.
type fixedMeasurer struct{}

func (fixedMeasurer) WrapText(text string, f layout.Font, width float64) []string {
	return canvas.Wrap(text, width, func(s string) float64 {
		return float64(len([]rune(s))) * f.Size / 2
	})
}

func (fixedMeasurer) LineHeight(f layout.Font) float64 { return f.Size * 1.2 }

func texts(b *layout.Block) []layout.TextOp {
	var out []layout.TextOp
	for _, op := range b.Ops {
		if t, ok := op.(layout.TextOp); ok {
			out = append(out, t)
		}
	}
	return out
}

func rects(b *layout.Block) []layout.RectOp {
	var out []layout.RectOp
	for _, op := range b.Ops {
		if r, ok := op.(layout.RectOp); ok {
			out = append(out, r)
		}
	}
	return out
}

func TestBasicTable(t *testing.T) {
	tb := table.New(fixedMeasurer{})
	tb.SetColumnWidths(40, 60, 30, 30)

	h := tb.AddHeaderRow()
	h.AddCell("ID")
	h.AddCell("Name")
	h.AddCell("Qty")
	h.AddCell("Price")

	r := tb.AddRow()
	r.AddCell("1")
	r.AddCell("Widget")
	r.AddCell("10")
	r.AddCell("5.00")

	blocks := tb.Blocks(3)
	require.Len(t, blocks, 2)

	header, row := blocks[0], blocks[1]
	assert.Equal(t, "table.header", header.Label)
	assert.True(t, header.KeepWithNext)
	assert.Equal(t, 3, header.Section)
	assert.Equal(t, "table.row", row.Label)
	require.NotNil(t, row.Continuation)
	assert.Equal(t, header.Ops, row.Continuation.Ops)
	assert.False(t, row.Continuation.KeepWithNext)

	cells := texts(row)
	require.Len(t, cells, 4)
	assert.Equal(t, "Widget", cells[1].Text)
	assert.Equal(t, 44.0, cells[1].X) // 40 + left padding
	assert.InDelta(t, 20.0, row.Height, 1e-9)
}

func TestAutoWidthColumns(t *testing.T) {
	tb := table.New(fixedMeasurer{})
	tb.SetWidth(300)
	tb.SetColumns(table.ColumnDef{Width: 60}, table.ColumnDef{}, table.ColumnDef{MaxWidth: 100})

	r := tb.AddRow()
	r.AddCell("a")
	r.AddCell("b")
	r.AddCell("c")

	cells := texts(tb.Blocks(0)[0])
	require.Len(t, cells, 3)
	assert.Equal(t, 64.0, cells[1].X)
	assert.Equal(t, 112.0, cells[1].W) // (300-60)/2 - padding
	assert.Equal(t, 184.0, cells[2].X)
	assert.Equal(t, 92.0, cells[2].W) // capped at 100
}

func TestAlternatingRows(t *testing.T) {
	even := layout.Color{R: 240, G: 240, B: 240}
	odd := layout.White
	tb := table.New(fixedMeasurer{})
	tb.SetColumnWidths(60, 60)
	tb.SetStyle(table.TableStyle{
		CellFont: layout.Font{Size: 10},
		AlternateRows: &table.AlternateStyle{
			Even: table.CellStyle{FillColor: &even},
			Odd:  table.CellStyle{FillColor: &odd},
		},
	})
	for i := 0; i < 4; i++ {
		r := tb.AddRow()
		r.AddCellf("Row %d", i)
		r.AddCellf("%d", i)
	}

	blocks := tb.Blocks(0)
	require.Len(t, blocks, 4)
	for i, b := range blocks {
		fills := rects(b)
		require.Len(t, fills, 2)
		want := even
		if i%2 == 1 {
			want = odd
		}
		assert.Equal(t, want, *fills[0].Fill, "row %d", i)
		assert.Nil(t, b.Continuation)
	}
}

func TestWrappedCellGrowsRow(t *testing.T) {
	tb := table.New(fixedMeasurer{})
	tb.SetColumnWidths(58, 40)

	r := tb.AddRow()
	r.AddCell("Premium stainless steel widget")
	r.AddCell("1")

	row := tb.Blocks(0)[0]
	lines := texts(row)
	require.Greater(t, len(lines), 2)
	assert.InDelta(t, float64(len(lines)-1)*12+8, row.Height, 1e-9)
	for _, l := range lines[:len(lines)-1] {
		assert.LessOrEqual(t, float64(len([]rune(l.Text)))*5, 50.0)
	}
}

func TestColspan(t *testing.T) {
	tb := table.New(fixedMeasurer{})
	tb.SetColumnWidths(40, 40, 40, 40)

	r1 := tb.AddRow()
	r1.AddCell("Spans 3 cols").SetColspan(3)
	r1.AddCell("9.99").SetBold()

	cells := texts(tb.Blocks(0)[0])
	require.Len(t, cells, 2)
	assert.Equal(t, 112.0, cells[0].W)
	assert.Equal(t, 124.0, cells[1].X)
	assert.True(t, cells[1].Font.Bold)
	assert.Equal(t, 10.0, cells[1].Font.Size)
}

func TestRTLMirrorsColumns(t *testing.T) {
	tb := table.New(fixedMeasurer{})
	tb.SetColumnWidths(100, 50).SetRTL(true)
	border := table.BorderStyle{Width: 0.5, Color: layout.Black}
	tb.SetStyle(table.TableStyle{CellFont: layout.Font{Size: 10}, Border: &border, CellPadding: table.UniformPadding(4)})

	r := tb.AddRow()
	r.AddCell("الوصف")
	r.AddCell("1")

	row := tb.Blocks(0)[0]
	cells := texts(row)
	require.Len(t, cells, 2)
	// first column sits at the right edge
	assert.Equal(t, 54.0, cells[0].X)
	assert.Equal(t, 4.0, cells[1].X)
	assert.True(t, cells[0].RTL)

	frames := rects(row)
	require.Len(t, frames, 2)
	assert.Equal(t, 50.0, frames[0].X)
	assert.NotNil(t, frames[0].Stroke)
}

func TestStyledHeaderCells(t *testing.T) {
	fill := layout.Color{R: 0, G: 51, B: 102}
	center := layout.AlignCenter
	tb := table.New(fixedMeasurer{})
	tb.SetColumnWidths(60, 60)
	tb.SetStyle(table.TableStyle{
		CellFont:  layout.Font{Size: 10},
		TextColor: layout.Black,
		HeaderStyle: &table.CellStyle{
			FillColor: &fill,
			TextColor: &layout.White,
			Font:      &layout.Font{Bold: true, Size: 11},
			Align:     &center,
		},
	})
	h := tb.AddHeaderRow()
	h.AddCell("Product")
	h.AddCell("Price")
	r := tb.AddRow()
	r.AddCell("Widget")
	r.AddCell("5.00").SetAlign(layout.AlignEnd)

	blocks := tb.Blocks(0)
	hdr := texts(blocks[0])
	assert.Equal(t, layout.White, hdr[0].Color)
	assert.Equal(t, layout.AlignCenter, hdr[0].Align)
	assert.Equal(t, 11.0, hdr[0].Font.Size)

	body := texts(blocks[1])
	assert.Equal(t, layout.Black, body[0].Color)
	assert.Equal(t, layout.AlignEnd, body[1].Align)
}

func TestEmptyTable(t *testing.T) {
	tb := table.New(fixedMeasurer{})
	assert.Empty(t, tb.Blocks(0))

	tb.SetColumnWidths(60, 60)
	h := tb.AddHeaderRow()
	h.AddCell("A")
	h.AddCell("B")
	blocks := tb.Blocks(0)
	require.Len(t, blocks, 1)
	assert.False(t, blocks[0].KeepWithNext)
}
