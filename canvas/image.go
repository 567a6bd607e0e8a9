package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"
	pdf417 "github.com/ruudk/golang-pdf417"

	"github.com/alqadi/procuredocs/layout"
)

// pixelsPerPoint is the raster resolution used for logos and barcodes.
const pixelsPerPoint = 4

// PDF417 geometry: data columns and error correction level (0-8).
const (
	pdf417Columns  = 10
	pdf417Security = 5
)

// Logo registers the image at path scaled to fit a maxW x maxH box and
// returns an ImageOp of the display size at the origin.
func (c *Canvas) Logo(path string, maxW, maxH float64) (layout.ImageOp, error) {
	name := "logo:" + path
	if op, ok := c.images[name]; ok {
		return op, nil
	}
	src, err := imaging.Open(path)
	if err != nil {
		return layout.ImageOp{}, fmt.Errorf("canvas: logo: %w", err)
	}
	fitted := imaging.Fit(src, int(maxW*pixelsPerPoint), int(maxH*pixelsPerPoint), imaging.Lanczos)
	b := fitted.Bounds()
	scale := math.Min(maxW/float64(b.Dx()), maxH/float64(b.Dy()))
	return c.register(name, fitted, float64(b.Dx())*scale, float64(b.Dy())*scale)
}

// Barcode registers a QR, Code 128 or PDF417 symbol for value. QR symbols
// are size points square; the linear and stacked kinds are wider than tall.
func (c *Canvas) Barcode(kind, value string, size float64) (layout.ImageOp, error) {
	name := kind + ":" + value
	if op, ok := c.images[name]; ok {
		return op, nil
	}
	if value == "" {
		return layout.ImageOp{}, fmt.Errorf("canvas: %s barcode: empty value", kind)
	}

	var (
		bc   barcode.Barcode
		err  error
		w, h float64
	)
	switch kind {
	case "qr":
		bc, err = qr.Encode(value, qr.M, qr.Auto)
		w, h = size, size
	case "code128":
		bc, err = code128.Encode(value)
		w, h = size*2.5, size*0.6
	case "pdf417":
		bc = pdf417.Encode(value, pdf417Columns, pdf417Security)
		w, h = size*3, size
	default:
		return layout.ImageOp{}, fmt.Errorf("canvas: unknown barcode kind %q", kind)
	}
	if err != nil {
		return layout.ImageOp{}, fmt.Errorf("canvas: %s barcode: %w", kind, err)
	}

	pw := max(int(w*pixelsPerPoint), bc.Bounds().Dx())
	ph := max(int(h*pixelsPerPoint), bc.Bounds().Dy())
	scaled, err := barcode.Scale(bc, pw, ph)
	if err != nil {
		return layout.ImageOp{}, fmt.Errorf("canvas: %s barcode: %w", kind, err)
	}
	// fpdf reads 8-bit PNGs only; barcodes are 16-bit gray.
	return c.register(name, imaging.Clone(scaled), w, h)
}

func (c *Canvas) register(name string, img image.Image, w, h float64) (layout.ImageOp, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return layout.ImageOp{}, fmt.Errorf("canvas: encoding %s: %w", name, err)
	}
	c.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)
	if c.pdf.Err() {
		return layout.ImageOp{}, fmt.Errorf("canvas: registering %s: %w", name, c.pdf.Error())
	}
	op := layout.ImageOp{Name: name, W: w, H: h}
	c.images[name] = op
	return op, nil
}
