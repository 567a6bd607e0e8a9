package canvas

import (
	"fmt"
	"os"

	"github.com/go-pdf/fpdf/contrib/gofpdi"
)

// importLetterhead imports the first page of the PDF at path as a template
// drawn under every page.
func (c *Canvas) importLetterhead(path string) (err error) {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("canvas: letterhead: %w", err)
	}
	// gofpdi panics on unreadable input.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("canvas: letterhead %s: %v", path, r)
		}
	}()
	imp := gofpdi.NewImporter()
	tpl := imp.ImportPage(c.pdf, path, 1, "/MediaBox")
	if c.pdf.Err() {
		return fmt.Errorf("canvas: letterhead %s: %w", path, c.pdf.Error())
	}
	c.importer = imp
	c.letterhead = tpl
	return nil
}

// Watermark appearance.
const (
	watermarkSize    = 60
	watermarkOpacity = 0.15
	watermarkAngle   = 45
	watermarkGray    = 160
)

// drawWatermark renders the watermark text rotated around the page centre.
func (c *Canvas) drawWatermark() {
	c.pdf.SetFont(c.fonts.Family, "B", watermarkSize)
	c.pdf.SetTextColor(watermarkGray, watermarkGray, watermarkGray)
	c.pdf.SetAlpha(watermarkOpacity, "Normal")

	text := Visual(c.cfg.watermark, c.cfg.watermarkRT)
	textW := c.pdf.GetStringWidth(text)
	cx := c.geom.Width / 2
	cy := c.geom.Height / 2

	c.pdf.TransformBegin()
	c.pdf.TransformRotate(watermarkAngle, cx, cy)
	c.pdf.Text(cx-textW/2, cy+watermarkSize/3, text)
	c.pdf.TransformEnd()

	c.pdf.SetAlpha(1.0, "Normal")
}
