package render

import (
	"fmt"

	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/layout"
)

// Band layout constants, in points.
const (
	bandPadding = 8.0
	logoMaxW    = 120.0
	logoGap     = 12.0
)

// header lays out the company identity band. The logo sits on the start
// side of the page: left for left-to-right documents, right otherwise. No
// space is reserved when there is no logo.
func header(index int, c doctpl.ResolvedHeader, page Page, s Surface) (*layout.Block, error) {
	t := page.theme
	cw := page.Geometry.ContentWidth()
	bandH := page.Geometry.HeaderHeight
	b := &layout.Block{Kind: layout.HeaderBand, Section: index, Height: bandH, Label: "header"}

	textX, textW := 0.0, cw
	if c.ShowLogo {
		img, err := s.Logo(c.Logo, logoMaxW, bandH-2*bandPadding)
		if err != nil {
			return nil, err
		}
		img.X = page.x(0, img.W)
		img.Y = (bandH - img.H) / 2
		b.Ops = append(b.Ops, img)
		textW = cw - img.W - logoGap
		textX = page.x(img.W+logoGap, textW)
	}

	y := bandPadding
	for _, l := range []struct {
		text  string
		font  layout.Font
		color layout.Color
	}{
		{c.CompanyName, t.font(6, true), t.primary},
		{c.Address, t.font(-1, false), t.secondary},
		{c.Contact, t.font(-1, false), t.secondary},
		{c.TaxNumber, t.font(-1, false), t.secondary},
	} {
		ops, h := lines(s, l.text, l.font, l.color, textX, y, textW, layout.AlignStart, page.RTL)
		b.Ops = append(b.Ops, ops...)
		y += h
	}
	if y+bandPadding > bandH {
		return nil, fmt.Errorf("%w: header needs %.1fpt, band is %.1fpt", ErrTooTall, y+bandPadding, bandH)
	}

	b.Ops = append(b.Ops, layout.LineOp{X1: 0, Y1: bandH - 2, X2: cw, Y2: bandH - 2, Color: t.primary, LineWidth: 1})
	return b, nil
}
