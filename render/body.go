package render

import (
	"math"

	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/layout"
)

const (
	labelGap    = 8.0
	maxLabelPct = 0.4
	rowGap      = 4.0
	titleGap    = 6.0
	bulletWidth = 12.0
)

// body lays out a title followed by one block per labelled line. Labels sit
// in a column on the start side sized to the widest label.
func body(index int, c doctpl.ResolvedBody, page Page, s Surface) []*layout.Block {
	t := page.theme
	cw := page.Geometry.ContentWidth()
	var blocks []*layout.Block

	if c.Title != "" {
		ops, h := lines(s, c.Title, t.font(3, true), t.primary, 0, 0, cw, layout.AlignStart, page.RTL)
		blocks = append(blocks, &layout.Block{
			Kind:         layout.Flow,
			Section:      index,
			Height:       h + titleGap,
			Ops:          ops,
			KeepWithNext: len(c.Fields) > 0,
			Label:        "body.title",
		})
	}

	labelFont := t.font(0, true)
	valueFont := t.font(0, false)
	labelW := 0.0
	for _, f := range c.Fields {
		labelW = math.Max(labelW, s.TextWidth(f.Label, labelFont))
	}
	if labelW > 0 {
		labelW = math.Min(labelW+labelGap, cw*maxLabelPct)
	}
	valueW := cw - labelW

	for _, f := range c.Fields {
		blocks = append(blocks, lineBlocks(index, "body.field", nil, page, s,
			column{wrap(s, f.Label, labelFont, labelW-labelGap), labelFont, t.secondary, page.x(0, labelW-labelGap), labelW - labelGap},
			column{wrap(s, f.Value, valueFont, valueW), valueFont, layout.Black, page.x(labelW, valueW), valueW},
		)...)
	}
	return blocks
}

// terms lays out a titled bulleted list. The title is kept with the first
// item.
func terms(index int, c doctpl.ResolvedTerms, page Page, s Surface) []*layout.Block {
	t := page.theme
	cw := page.Geometry.ContentWidth()
	var blocks []*layout.Block

	if c.Title != "" {
		ops, h := lines(s, c.Title, t.font(1, true), t.primary, 0, 0, cw, layout.AlignStart, page.RTL)
		blocks = append(blocks, &layout.Block{
			Kind:         layout.Flow,
			Section:      index,
			Height:       h + titleGap,
			Ops:          ops,
			KeepWithNext: len(c.Items) > 0,
			Label:        "terms.title",
		})
	}

	f := t.font(-1, false)
	textW := cw - bulletWidth
	for _, item := range c.Items {
		wrapped := wrap(s, item, f, textW)
		if len(wrapped) == 0 {
			continue
		}
		bullet := layout.TextOp{
			X: page.x(0, bulletWidth), Y: 0, W: bulletWidth, H: s.LineHeight(f),
			Text: "•", Font: f, Color: t.primary, Align: layout.AlignCenter,
		}
		blocks = append(blocks, lineBlocks(index, "terms.item", []layout.Op{bullet}, page, s,
			column{wrapped, f, t.secondary, page.x(bulletWidth, textW), textW},
		)...)
	}
	return blocks
}

// column is one wrapped text column of a row.
type column struct {
	lines []string
	font  layout.Font
	color layout.Color
	x, w  float64
}

// lineBlocks emits one flow block per wrapped line so long values break
// across pages. lead ops go on the first line, which is kept with the
// second. A row with no text still takes one line.
func lineBlocks(index int, label string, lead []layout.Op, page Page, s Surface, cols ...column) []*layout.Block {
	n, lh := 1, 0.0
	for _, c := range cols {
		n = max(n, len(c.lines))
		lh = math.Max(lh, s.LineHeight(c.font))
	}
	blocks := make([]*layout.Block, 0, n)
	for i := 0; i < n; i++ {
		var ops []layout.Op
		if i == 0 {
			ops = append(ops, lead...)
		}
		for _, c := range cols {
			if i >= len(c.lines) || c.lines[i] == "" {
				continue
			}
			ops = append(ops, layout.TextOp{
				X: c.x, W: c.w, H: s.LineHeight(c.font),
				Text: c.lines[i], Font: c.font, Color: c.color, Align: layout.AlignStart, RTL: page.RTL,
			})
		}
		h := lh
		if i == n-1 {
			h += rowGap
		}
		blocks = append(blocks, &layout.Block{
			Kind:         layout.Flow,
			Section:      index,
			Height:       h,
			Ops:          ops,
			KeepWithNext: i == 0 && n > 1,
			Label:        label,
		})
	}
	return blocks
}

func wrap(s Surface, text string, f layout.Font, w float64) []string {
	if text == "" {
		return nil
	}
	return s.WrapText(text, f, w)
}
