package render

import (
	"fmt"
	"math"

	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/layout"
)

// Page number tokens replaced once the page count is known.
const (
	PageToken  = "{page}"
	PagesToken = "{pages}"
)

// footer lays out the closing band: a rule, the closing text, the contact
// line and the page number line. A barcode sits on the end side of the band.
func footer(index int, c doctpl.ResolvedFooter, page Page, s Surface) (*layout.Block, error) {
	t := page.theme
	cw := page.Geometry.ContentWidth()
	bandH := page.Geometry.FooterHeight
	b := &layout.Block{Kind: layout.FooterBand, Section: index, Height: bandH, Label: "footer"}
	b.Ops = append(b.Ops, layout.LineOp{X1: 0, Y1: 0, X2: cw, Y2: 0, Color: t.rule, LineWidth: 0.5})

	textX, textW := 0.0, cw
	if c.Barcode != nil {
		size := math.Min(c.Barcode.Size, bandH-2*bandPadding)
		img, err := s.Barcode(c.Barcode.Kind, c.Barcode.Value, size)
		if err != nil {
			return nil, err
		}
		img.X = page.x(cw-img.W, img.W)
		img.Y = (bandH - img.H) / 2
		b.Ops = append(b.Ops, img)
		textW = cw - img.W - logoGap
		textX = page.x(0, textW)
	}

	y := bandPadding / 2
	for _, l := range []struct {
		text string
		font layout.Font
	}{
		{c.Text, t.font(-1, false)},
		{c.Contact, t.font(-2, false)},
	} {
		ops, h := lines(s, l.text, l.font, t.secondary, textX, y, textW, layout.AlignCenter, page.RTL)
		b.Ops = append(b.Ops, ops...)
		y += h
	}

	if c.PageNumbers {
		f := t.font(-2, false)
		lh := s.LineHeight(f)
		b.Ops = append(b.Ops, layout.TextOp{
			X: textX, Y: y, W: textW, H: lh,
			Text: c.PageLabel, Font: f, Color: t.secondary,
			Align: layout.AlignCenter, RTL: page.RTL, Stamp: true,
		})
		y += lh
	}

	if y > bandH {
		return nil, fmt.Errorf("%w: footer needs %.1fpt, band is %.1fpt", ErrTooTall, y, bandH)
	}
	return b, nil
}
