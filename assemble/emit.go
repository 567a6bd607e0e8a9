package assemble

import (
	"context"

	"github.com/alqadi/procuredocs/layout"
)

// Canvas is the drawing side of the canvas used by Emit.
type Canvas interface {
	AddPage()
	DrawBlock(b *layout.Block, y float64)
	Err() error
}

// Emit draws every page of l onto c in order: header band, body blocks,
// footer band. Letterhead and watermark are drawn by the canvas itself when
// the page is added.
func Emit(ctx context.Context, l *Layout, c Canvas) error {
	g := l.Geometry
	for _, p := range l.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.AddPage()
		if p.Header != nil {
			c.DrawBlock(p.Header, g.Top)
		}
		for _, pl := range p.Placements {
			if pl.Block.Kind == layout.Spacer {
				continue
			}
			c.DrawBlock(pl.Block, pl.Y)
		}
		if p.Footer != nil {
			c.DrawBlock(p.Footer, g.FooterTop())
		}
		if err := c.Err(); err != nil {
			return err
		}
	}
	return nil
}
