// Package canvas is the drawing surface of a render. It wraps a go-pdf/fpdf
// document configured for byte-stable output and offers text measurement,
// line wrapping, image registration and the drawing of layout blocks.
//
// Text is handed to the canvas in logical order. Arabic letters are shaped
// into their contextual forms and every line is reordered for display just
// before it is written, so measurement and drawing always agree.
package canvas

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/go-pdf/fpdf/contrib/gofpdi"

	"github.com/alqadi/procuredocs/internal/arabic"
	"github.com/alqadi/procuredocs/internal/bidi"
	"github.com/alqadi/procuredocs/layout"
)

// lineHeightRatio is the line pitch relative to the font size.
const lineHeightRatio = 1.3

// Epoch is the default creation date written into every PDF. A fixed date
// keeps output identical across runs.
var Epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Option configures a Canvas.
type Option func(*config)

type config struct {
	created     time.Time
	compress    bool
	title       string
	author      string
	subject     string
	letterhead  string
	watermark   string
	watermarkRT bool
}

// WithCreationDate sets the creation and modification date of the document.
func WithCreationDate(t time.Time) Option {
	return func(c *config) { c.created = t }
}

// WithCompression toggles stream compression (default on).
func WithCompression(on bool) Option {
	return func(c *config) { c.compress = on }
}

// WithMetadata sets the document information dictionary.
func WithMetadata(title, author, subject string) Option {
	return func(c *config) {
		c.title, c.author, c.subject = title, author, subject
	}
}

// WithLetterhead stamps the first page of the PDF at path under every page.
func WithLetterhead(path string) Option {
	return func(c *config) { c.letterhead = path }
}

// WithWatermark draws text diagonally across every page. rtl selects the
// paragraph direction of the text.
func WithWatermark(text string, rtl bool) Option {
	return func(c *config) { c.watermark, c.watermarkRT = text, rtl }
}

// Canvas is a single-use drawing surface. It is not safe for concurrent use.
type Canvas struct {
	pdf    *fpdf.Fpdf
	fonts  *FontSet
	geom   layout.PageGeometry
	cfg    config
	images map[string]layout.ImageOp

	importer   *gofpdi.Importer
	letterhead int
	pages      int
}

// New returns a canvas for pages of the given geometry.
func New(geom layout.PageGeometry, fonts *FontSet, opts ...Option) (*Canvas, error) {
	if fonts == nil {
		fonts = DefaultFonts()
	}
	cfg := config{created: Epoch, compress: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: geom.Width, Ht: geom.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(geom.Left, geom.Top, geom.Right)
	pdf.SetCellMargin(0)
	pdf.SetCreationDate(cfg.created)
	pdf.SetModificationDate(cfg.created)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(cfg.compress)
	pdf.SetProducer("procuredocs", false)
	if cfg.title != "" {
		pdf.SetTitle(cfg.title, true)
	}
	if cfg.author != "" {
		pdf.SetAuthor(cfg.author, true)
	}
	if cfg.subject != "" {
		pdf.SetSubject(cfg.subject, true)
	}
	pdf.AddUTF8FontFromBytes(fonts.Family, "", fonts.regular)
	pdf.AddUTF8FontFromBytes(fonts.Family, "B", fonts.bold)
	if pdf.Err() {
		return nil, fmt.Errorf("canvas: loading font %q: %w", fonts.Family, pdf.Error())
	}

	c := &Canvas{
		pdf:        pdf,
		fonts:      fonts,
		geom:       geom,
		cfg:        cfg,
		images:     make(map[string]layout.ImageOp),
		letterhead: -1,
	}
	if cfg.letterhead != "" {
		if err := c.importLetterhead(cfg.letterhead); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Geometry returns the page geometry of the canvas.
func (c *Canvas) Geometry() layout.PageGeometry { return c.geom }

// Family returns the font family used for all text.
func (c *Canvas) Family() string { return c.fonts.Family }

func (c *Canvas) setFont(f layout.Font) {
	c.pdf.SetFont(c.fonts.Family, f.Style(), f.Size)
}

// TextWidth returns the width of one line of text in points.
func (c *Canvas) TextWidth(text string, f layout.Font) float64 {
	c.setFont(f)
	return c.pdf.GetStringWidth(arabic.Shape(text))
}

// LineHeight returns the line pitch for f.
func (c *Canvas) LineHeight(f layout.Font) float64 {
	return f.Size * lineHeightRatio
}

// WrapText breaks text into lines no wider than width. Lines break at
// spaces; words wider than a line are split between characters. Explicit
// newlines are kept.
func (c *Canvas) WrapText(text string, f layout.Font, width float64) []string {
	return Wrap(text, width, func(s string) float64 { return c.TextWidth(s, f) })
}

// Wrap is the line breaking used by WrapText, parameterised by a width
// function so that it can be shared with other measurers.
func Wrap(text string, width float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if measure(candidate) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			for utf8.RuneCountInString(w) > 1 && measure(w) > width {
				head, tail := splitRunes(w, width, measure)
				lines = append(lines, head)
				w = tail
			}
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}

// splitRunes returns the longest prefix of w that fits width (at least one
// rune) and the rest.
func splitRunes(w string, width float64, measure func(string) float64) (string, string) {
	rs := []rune(w)
	n := 1
	for n < len(rs) && measure(string(rs[:n+1])) <= width {
		n++
	}
	return string(rs[:n]), string(rs[n:])
}

// AddPage starts a new page and draws the letterhead and watermark on it.
func (c *Canvas) AddPage() {
	c.pdf.AddPage()
	c.pages++
	if c.letterhead >= 0 {
		c.importer.UseImportedTemplate(c.pdf, c.letterhead, 0, 0, c.geom.Width, c.geom.Height)
	}
	if c.cfg.watermark != "" {
		c.drawWatermark()
	}
}

// PageCount returns the number of pages added so far.
func (c *Canvas) PageCount() int { return c.pages }

// DrawBlock draws the block with its top edge at page coordinate y. Block
// coordinates are relative to the left margin.
func (c *Canvas) DrawBlock(b *layout.Block, y float64) {
	c.DrawOps(b.Ops, c.geom.Left, y)
}

// DrawOps draws ops translated by (ox, oy).
func (c *Canvas) DrawOps(ops []layout.Op, ox, oy float64) {
	for _, op := range ops {
		switch o := op.(type) {
		case layout.RectOp:
			c.drawRect(o, ox, oy)
		case layout.LineOp:
			c.pdf.SetDrawColor(o.Color.R, o.Color.G, o.Color.B)
			c.pdf.SetLineWidth(o.LineWidth)
			c.pdf.Line(ox+o.X1, oy+o.Y1, ox+o.X2, oy+o.Y2)
		case layout.TextOp:
			c.drawText(o, ox, oy)
		case layout.ImageOp:
			c.pdf.ImageOptions(o.Name, ox+o.X, oy+o.Y, o.W, o.H, false,
				fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
	}
}

func (c *Canvas) drawRect(o layout.RectOp, ox, oy float64) {
	style := ""
	if o.Fill != nil {
		c.pdf.SetFillColor(o.Fill.R, o.Fill.G, o.Fill.B)
		style += "F"
	}
	if o.Stroke != nil {
		c.pdf.SetDrawColor(o.Stroke.R, o.Stroke.G, o.Stroke.B)
		c.pdf.SetLineWidth(o.LineWidth)
		style += "D"
	}
	if style == "" {
		return
	}
	c.pdf.Rect(ox+o.X, oy+o.Y, o.W, o.H, style)
}

// Visual returns text shaped and reordered for display.
func Visual(text string, rtl bool) string {
	dir := bidi.LeftToRight
	if rtl {
		dir = bidi.RightToLeft
	}
	return bidi.Visual(arabic.Shape(text), dir)
}

func (c *Canvas) drawText(o layout.TextOp, ox, oy float64) {
	if o.Text == "" {
		return
	}
	c.setFont(o.Font)
	c.pdf.SetTextColor(o.Color.R, o.Color.G, o.Color.B)
	c.pdf.SetXY(ox+o.X, oy+o.Y)
	c.pdf.CellFormat(o.W, o.H, Visual(o.Text, o.RTL), "", 0, alignStr(o.Align, o.RTL), false, 0, "")
}

// alignStr maps a reading-order alignment onto fpdf's physical one.
func alignStr(a layout.Align, rtl bool) string {
	switch a {
	case layout.AlignCenter:
		return "CM"
	case layout.AlignEnd:
		if rtl {
			return "LM"
		}
		return "RM"
	}
	if rtl {
		return "RM"
	}
	return "LM"
}

// Bytes finishes the document and returns the PDF.
func (c *Canvas) Bytes() ([]byte, error) {
	if c.pages == 0 {
		return nil, fmt.Errorf("canvas: document has no pages")
	}
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("canvas: writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Err returns the first error recorded by the underlying document.
func (c *Canvas) Err() error {
	if c.pdf.Err() {
		return c.pdf.Error()
	}
	return nil
}
