// Package render turns resolved sections into measured layout blocks.
//
// Each section type has its own rule. Header and footer sections produce
// band blocks of the heights set by the style sheet; all other sections
// produce flow blocks that the assembler paginates. Positions inside a block
// are relative to the content box, so right-to-left documents are produced
// by mirroring x coordinates here and nowhere else.
package render

import (
	"errors"
	"fmt"

	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/layout"
)

// Sentinel errors.
var (
	ErrSectionRender = errors.New("render: section failed")
	// ErrTooTall reports content that cannot fit on an empty page or band.
	ErrTooTall = errors.New("render: content taller than the available space")
)

// SectionRenderError wraps the failure of one section.
type SectionRenderError struct {
	Index int
	Type  doctpl.SectionType
	Err   error
}

func (e *SectionRenderError) Error() string {
	return fmt.Sprintf("render: section %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *SectionRenderError) Is(target error) bool { return target == ErrSectionRender }

func (e *SectionRenderError) Unwrap() error { return e.Err }

// Measurer measures text.
type Measurer interface {
	TextWidth(text string, f layout.Font) float64
	WrapText(text string, f layout.Font, width float64) []string
	LineHeight(f layout.Font) float64
}

// Surface is what a section needs from the canvas: measurement plus image
// registration.
type Surface interface {
	Measurer
	Logo(path string, maxW, maxH float64) (layout.ImageOp, error)
	Barcode(kind, value string, size float64) (layout.ImageOp, error)
}

// Page describes the page sections are laid out for.
type Page struct {
	Geometry layout.PageGeometry
	Styles   doctpl.StyleSheet
	RTL      bool
	theme    theme
}

// NewPage derives the page geometry and colors from a resolved template.
func NewPage(res *doctpl.Resolved) Page {
	st := res.Styles.WithDefaults()
	size, ok := doctpl.PageSizes[st.PageSize]
	if !ok {
		size = doctpl.PageSizes["A4"]
	}
	return Page{
		Geometry: layout.PageGeometry{
			Width:        size[0],
			Height:       size[1],
			Top:          st.Margins.Top,
			Bottom:       st.Margins.Bottom,
			Left:         st.Margins.Left,
			Right:        st.Margins.Right,
			HeaderHeight: st.HeaderHeight,
			FooterHeight: st.FooterHeight,
		},
		Styles: st,
		RTL:    res.RTL,
		theme:  newTheme(st),
	}
}

// BodyCapacity is the height available to flow blocks on a page that shows
// the header band. No flow block may be taller.
func (p Page) BodyCapacity() float64 {
	g := p.Geometry
	return g.BodyBottom() - g.Top - g.HeaderHeight
}

// x returns the position of a span laid out from the start edge, mirrored
// for right-to-left pages.
func (p Page) x(x, w float64) float64 {
	if p.RTL {
		return layout.Mirror(x, w, p.Geometry.ContentWidth())
	}
	return x
}

// Output is the result of rendering one section.
type Output struct {
	Header *layout.Block
	Footer *layout.Block
	Blocks []*layout.Block
}

// Section renders one resolved section.
func Section(sec doctpl.ResolvedSection, page Page, s Surface) (Output, error) {
	out, err := section(sec, page, s)
	if err != nil {
		return Output{}, &SectionRenderError{Index: sec.Index, Type: sec.Type, Err: err}
	}
	for _, b := range out.Blocks {
		h := b.Height
		if b.Continuation != nil {
			h += b.Continuation.Height
		}
		if h > page.BodyCapacity() {
			return Output{}, &SectionRenderError{
				Index: sec.Index,
				Type:  sec.Type,
				Err:   fmt.Errorf("%w: %s block of %.1fpt, page body is %.1fpt", ErrTooTall, b.Label, h, page.BodyCapacity()),
			}
		}
	}
	return out, nil
}

func section(sec doctpl.ResolvedSection, page Page, s Surface) (Output, error) {
	switch c := sec.Content.(type) {
	case doctpl.ResolvedHeader:
		b, err := header(sec.Index, c, page, s)
		return Output{Header: b}, err
	case doctpl.ResolvedBody:
		return Output{Blocks: body(sec.Index, c, page, s)}, nil
	case doctpl.ResolvedTable:
		return Output{Blocks: grid(sec.Index, c, page, s)}, nil
	case doctpl.ResolvedSpacer:
		if c.Height < 0 {
			return Output{}, fmt.Errorf("negative spacer height %.1f", c.Height)
		}
		return Output{Blocks: []*layout.Block{{
			Kind:    layout.Spacer,
			Section: sec.Index,
			Height:  c.Height,
			Label:   "spacer",
		}}}, nil
	case doctpl.ResolvedTerms:
		return Output{Blocks: terms(sec.Index, c, page, s)}, nil
	case doctpl.ResolvedFooter:
		b, err := footer(sec.Index, c, page, s)
		return Output{Footer: b}, err
	}
	return Output{}, fmt.Errorf("unsupported section content %T", sec.Content)
}

// theme holds the parsed colors and base font size of a style sheet.
type theme struct {
	primary   layout.Color
	secondary layout.Color
	accent    layout.Color
	rule      layout.Color
	size      float64
}

func newTheme(st doctpl.StyleSheet) theme {
	return theme{
		primary:   parseColor(st.PrimaryColor, layout.Color{R: 26, G: 54, B: 93}),
		secondary: parseColor(st.SecondaryColor, layout.Color{R: 45, G: 55, B: 72}),
		accent:    parseColor(st.AccentColor, layout.Color{R: 247, G: 250, B: 252}),
		rule:      layout.Color{R: 203, G: 213, B: 224},
		size:      st.FontSize,
	}
}

func parseColor(s string, fallback layout.Color) layout.Color {
	c, err := layout.ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

func (t theme) font(delta float64, bold bool) layout.Font {
	return layout.Font{Size: t.size + delta, Bold: bold}
}

// lines emits one TextOp per wrapped line starting at y and returns the ops
// and the height they take.
func lines(m Measurer, text string, f layout.Font, color layout.Color, x, y, w float64, align layout.Align, rtl bool) ([]layout.Op, float64) {
	if text == "" {
		return nil, 0
	}
	lh := m.LineHeight(f)
	wrapped := m.WrapText(text, f, w)
	var ops []layout.Op
	for i, l := range wrapped {
		if l == "" {
			continue
		}
		ops = append(ops, layout.TextOp{
			X: x, Y: y + float64(i)*lh, W: w, H: lh,
			Text: l, Font: f, Color: color, Align: align, RTL: rtl,
		})
	}
	return ops, float64(len(wrapped)) * lh
}
