// Package assemble paginates rendered sections and emits the final PDF.
//
// Assembly runs in two passes. Build renders every section, assigns blocks
// to pages and then finalizes the footers once the page count is known.
// Emit draws the finalized layout onto a canvas. Keeping the passes apart
// lets previews stop after Build without producing any PDF bytes.
package assemble

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/layout"
	"github.com/alqadi/procuredocs/render"
)

// State is a step of the pagination state machine.
type State int

const (
	Accumulating State = iota
	PageFull
	Finalizing
	Done
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case PageFull:
		return "page_full"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	}
	return "unknown"
}

// Placement is a block positioned at page coordinate Y.
type Placement struct {
	Y     float64
	Block *layout.Block
}

// Page is one laid out page. Header and Footer are nil on pages that do not
// show the band.
type Page struct {
	Number     int
	Header     *layout.Block
	Footer     *layout.Block
	Placements []Placement
}

// Layout is the finalized result of pagination.
type Layout struct {
	Geometry layout.PageGeometry
	RTL      bool
	Pages    []Page
}

// PageCount returns the number of pages.
func (l *Layout) PageCount() int { return len(l.Pages) }

// Build renders the sections of res with s and paginates them.
func Build(ctx context.Context, res *doctpl.Resolved, s render.Surface) (*Layout, error) {
	page := render.NewPage(res)

	var header, footer *layout.Block
	var flow []*layout.Block
	for _, sec := range res.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := render.Section(sec, page, s)
		if err != nil {
			return nil, err
		}
		if out.Header != nil {
			header = out.Header
		}
		if out.Footer != nil {
			footer = out.Footer
		}
		flow = append(flow, out.Blocks...)
	}

	p := &paginator{
		geom:       page.Geometry,
		headerMode: page.Styles.HeaderMode,
		footerMode: page.Styles.FooterMode,
		header:     header,
		footer:     footer,
	}
	if err := p.run(ctx, flow); err != nil {
		return nil, err
	}
	return &Layout{Geometry: page.Geometry, RTL: res.RTL, Pages: p.pages}, nil
}

// paginator assigns flow blocks to pages.
type paginator struct {
	geom       layout.PageGeometry
	headerMode doctpl.HeaderMode
	footerMode doctpl.FooterMode
	header     *layout.Block
	footer     *layout.Block

	state State
	pages []Page
	y     float64
}

func (p *paginator) run(ctx context.Context, blocks []*layout.Block) error {
	p.newPage()
	for i := 0; i < len(blocks); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := blocks[i]
		if b.Kind == layout.Spacer {
			p.space(b)
			continue
		}
		if !p.fits(p.keepHeight(blocks, i)) && !p.empty() {
			p.state = PageFull
			p.newPage()
		}
		if b.Continuation != nil && p.empty() {
			p.place(b.Continuation)
		}
		if !p.fits(b.Height) {
			return fmt.Errorf("%w: %s block of %.1fpt at page %d", render.ErrTooTall, b.Label, b.Height, len(p.pages))
		}
		p.place(b)
	}
	p.state = Finalizing
	p.finalize()
	p.state = Done
	return nil
}

// keepHeight is the height of the block at i together with the blocks it
// must stay with. Spacers between them do not count.
func (p *paginator) keepHeight(blocks []*layout.Block, i int) float64 {
	h := blocks[i].Height
	for j := i; blocks[j].KeepWithNext && j+1 < len(blocks); j++ {
		next := blocks[j+1]
		if next.Kind == layout.Spacer {
			break
		}
		h += next.Height
	}
	return h
}

// space places a spacer unless it starts a page or would cross the body
// bottom. In the latter case the page is marked full and the spacer
// dropped; the next flow block starts the new page.
func (p *paginator) space(b *layout.Block) {
	if p.empty() {
		return
	}
	if !p.fits(b.Height) {
		p.state = PageFull
		p.y = p.geom.BodyBottom()
		return
	}
	p.place(b)
}

func (p *paginator) current() *Page { return &p.pages[len(p.pages)-1] }

func (p *paginator) empty() bool { return len(p.current().Placements) == 0 }

func (p *paginator) fits(h float64) bool {
	return p.y+h <= p.geom.BodyBottom()+1e-9
}

func (p *paginator) place(b *layout.Block) {
	cur := p.current()
	cur.Placements = append(cur.Placements, Placement{Y: p.y, Block: b})
	p.y += b.Height
}

func (p *paginator) newPage() {
	n := len(p.pages) + 1
	pg := Page{Number: n}
	p.y = p.geom.Top
	if p.header != nil && (n == 1 || p.headerMode != doctpl.HeaderFirstPage) {
		pg.Header = p.header
		p.y += p.geom.HeaderHeight
	}
	p.pages = append(p.pages, pg)
	p.state = Accumulating
}

// finalize attaches a footer to every page that shows one, with the page
// number tokens replaced.
func (p *paginator) finalize() {
	if p.footer == nil {
		return
	}
	total := len(p.pages)
	for i := range p.pages {
		n := i + 1
		if p.footerMode == doctpl.FooterLastPage && n != total {
			continue
		}
		p.pages[i].Footer = stamp(p.footer, n, total)
	}
}

// stamp returns a copy of the footer with page number tokens filled in.
func stamp(footer *layout.Block, page, pages int) *layout.Block {
	b := *footer
	b.Ops = make([]layout.Op, len(footer.Ops))
	r := strings.NewReplacer(render.PageToken, strconv.Itoa(page), render.PagesToken, strconv.Itoa(pages))
	for i, op := range footer.Ops {
		if t, ok := op.(layout.TextOp); ok && t.Stamp {
			t.Text = r.Replace(t.Text)
			t.Stamp = false
			op = t
		}
		b.Ops[i] = op
	}
	return &b
}
