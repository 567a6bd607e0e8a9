// Package layout defines the measured building blocks exchanged between the
// section renderer and the document assembler.
//
// A Block is a rectangle of known height made of drawing operations whose
// coordinates are relative to the block's top-left corner and the content
// box of the page. Blocks never know which page they land on; the assembler
// assigns them to pages and the canvas draws them.
package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB color.
type Color struct {
	R, G, B int
}

// White and Black are the default fill and text colors.
var (
	White = Color{255, 255, 255}
	Black = Color{0, 0, 0}
)

// ParseColor parses a "#rrggbb" or "#rgb" hex color.
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("layout: invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("layout: invalid color %q", s)
	}
	return Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}

// Font selects a face from the canvas font set.
type Font struct {
	Family string
	Bold   bool
	Size   float64 // points
}

// Style returns the fpdf style string for the font.
func (f Font) Style() string {
	if f.Bold {
		return "B"
	}
	return ""
}

// Align is a horizontal alignment in reading terms.
type Align int

const (
	// AlignStart is left for LTR text and right for RTL text.
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// Op is a single drawing operation inside a block.
type Op interface {
	op()
}

// TextOp draws one line of logical-order text inside a box.
// The canvas shapes and reorders the text at draw time.
type TextOp struct {
	X, Y, W, H float64
	Text       string
	Font       Font
	Color      Color
	Align      Align
	RTL        bool // paragraph base direction
	// Stamp marks text holding {page} and {pages} tokens that are replaced
	// once the final page count is known.
	Stamp bool
}

// RectOp fills and/or strokes a rectangle.
type RectOp struct {
	X, Y, W, H float64
	Fill       *Color
	Stroke     *Color
	LineWidth  float64
}

// LineOp draws a straight line.
type LineOp struct {
	X1, Y1, X2, Y2 float64
	Color          Color
	LineWidth      float64
}

// ImageOp places an image previously registered on the canvas under Name.
type ImageOp struct {
	Name       string
	X, Y, W, H float64
}

func (TextOp) op()  {}
func (RectOp) op()  {}
func (LineOp) op()  {}
func (ImageOp) op() {}

// Kind tells the assembler how a block participates in pagination.
type Kind int

const (
	// Flow blocks are placed one after another in the body area.
	Flow Kind = iota
	// Spacer blocks reserve space and collapse at the top of a page.
	Spacer
	// HeaderBand blocks are drawn in the header area of a page.
	HeaderBand
	// FooterBand blocks are drawn in the footer area of a page.
	FooterBand
)

func (k Kind) String() string {
	switch k {
	case Flow:
		return "flow"
	case Spacer:
		return "spacer"
	case HeaderBand:
		return "header"
	case FooterBand:
		return "footer"
	}
	return "unknown"
}

// Block is a measured unit of content.
type Block struct {
	Kind    Kind
	Section int // index of the originating section in render order
	Height  float64
	Ops     []Op
	// KeepWithNext moves this block to the next page together with the
	// following block when the latter does not fit.
	KeepWithNext bool
	// Continuation is placed at the top of a new page before this block when
	// a page break lands right before it (repeated table headers).
	Continuation *Block
	// Label names the block in logs and tests, e.g. "table.row".
	Label string
}

// PageGeometry describes the page box and the reserved bands, in points.
type PageGeometry struct {
	Width, Height            float64
	Top, Bottom, Left, Right float64 // margins
	HeaderHeight             float64
	FooterHeight             float64
}

// ContentWidth is the width available between the side margins.
func (g PageGeometry) ContentWidth() float64 {
	return g.Width - g.Left - g.Right
}

// BodyBottom is the lowest y a flow block may reach.
func (g PageGeometry) BodyBottom() float64 {
	return g.Height - g.Bottom - g.FooterHeight
}

// FooterTop is the y at which the footer band starts.
func (g PageGeometry) FooterTop() float64 {
	return g.Height - g.Bottom - g.FooterHeight
}

// Mirror maps an x range laid out left-to-right into its right-to-left
// position within a container of width total.
func Mirror(x, w, total float64) float64 {
	return total - x - w
}
