package canvas

import (
	"bytes"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alqadi/procuredocs/layout"
)

var a4 = layout.PageGeometry{Width: 595.28, Height: 841.89, Top: 20, Bottom: 20, Left: 40, Right: 40, HeaderHeight: 80, FooterHeight: 60}

func newCanvas(t *testing.T, opts ...Option) *Canvas {
	t.Helper()
	c, err := New(a4, nil, opts...)
	require.NoError(t, err)
	return c
}

func TestWrap(t *testing.T) {
	width := func(s string) float64 { return float64(len([]rune(s))) }

	assert.Equal(t, []string{"alpha beta", "gamma"}, Wrap("alpha beta gamma", 10, width))
	assert.Equal(t, []string{"one", "", "two"}, Wrap("one\n\ntwo", 10, width))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, Wrap("abcdefghij", 4, width))
	assert.Equal(t, []string{"x", "abcd", "ef"}, Wrap("x abcdef", 4, width))
	assert.Equal(t, []string{"W"}, Wrap("W", 0.5, width))
}

func TestTextWidthGrowsWithText(t *testing.T) {
	c := newCanvas(t)
	f := layout.Font{Size: 10}
	short := c.TextWidth("PO-1", f)
	long := c.TextWidth("PO-1001 Widget", f)
	assert.Greater(t, short, 0.0)
	assert.Greater(t, long, short)
	assert.Greater(t, c.TextWidth("PO-1", layout.Font{Size: 20}), short)
	assert.InDelta(t, 13.0, c.LineHeight(f), 1e-9)
}

func TestWrapTextFitsWidth(t *testing.T) {
	c := newCanvas(t)
	f := layout.Font{Size: 10}
	lines := c.WrapText("Payment is due within thirty days of the invoice date", f, 120)
	require.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, c.TextWidth(l, f), 120.0)
	}
}

func drawSample(t *testing.T, c *Canvas) []byte {
	t.Helper()
	fill := layout.Color{R: 26, G: 54, B: 93}
	c.AddPage()
	c.DrawBlock(&layout.Block{Height: 40, Ops: []layout.Op{
		layout.RectOp{W: 200, H: 20, Fill: &fill},
		layout.TextOp{X: 0, Y: 0, W: 200, H: 20, Text: "Price Offer PO-1001", Font: layout.Font{Size: 12, Bold: true}, Color: layout.White},
		layout.LineOp{X1: 0, Y1: 30, X2: 515, Y2: 30, Color: layout.Black, LineWidth: 0.5},
	}}, 120)
	out, err := c.Bytes()
	require.NoError(t, err)
	return out
}

func TestBytesAreDeterministic(t *testing.T) {
	first := drawSample(t, newCanvas(t))
	second := drawSample(t, newCanvas(t))
	require.True(t, bytes.HasPrefix(first, []byte("%PDF")))
	assert.Equal(t, first, second)
}

func TestBytesWithoutPages(t *testing.T) {
	_, err := newCanvas(t).Bytes()
	assert.Error(t, err)
}

func TestBarcode(t *testing.T) {
	c := newCanvas(t)

	op, err := c.Barcode("qr", "INV-2024-0001", 48)
	require.NoError(t, err)
	assert.Equal(t, layout.ImageOp{Name: "qr:INV-2024-0001", W: 48, H: 48}, op)

	again, err := c.Barcode("qr", "INV-2024-0001", 48)
	require.NoError(t, err)
	assert.Equal(t, op, again)

	op, err = c.Barcode("code128", "INV-2024-0001", 40)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, op.W, 1e-9)
	assert.InDelta(t, 24.0, op.H, 1e-9)

	stacked, err := c.Barcode("pdf417", "CTR-2024-0007", 30)
	require.NoError(t, err)
	assert.Equal(t, "pdf417:CTR-2024-0007", stacked.Name)
	assert.InDelta(t, 90.0, stacked.W, 1e-9)
	assert.InDelta(t, 30.0, stacked.H, 1e-9)

	_, err = c.Barcode("ean13", "x", 40)
	assert.Error(t, err)
	_, err = c.Barcode("qr", "", 40)
	assert.Error(t, err)

	c.AddPage()
	c.DrawOps([]layout.Op{op}, 40, 700)
	c.DrawOps([]layout.Op{stacked}, 40, 600)
	_, err = c.Bytes()
	require.NoError(t, err)
}

func TestLogoFitsBox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	img := imaging.New(400, 100, color.NRGBA{R: 200, A: 255})
	require.NoError(t, imaging.Save(img, path))

	c := newCanvas(t)
	op, err := c.Logo(path, 120, 60)
	require.NoError(t, err)
	assert.InDelta(t, 120.0, op.W, 1e-9)
	assert.InDelta(t, 30.0, op.H, 1e-9)

	_, err = c.Logo(filepath.Join(t.TempDir(), "missing.png"), 120, 60)
	assert.Error(t, err)
}

func TestLetterheadMissingFile(t *testing.T) {
	_, err := New(a4, nil, WithLetterhead(filepath.Join(t.TempDir(), "none.pdf")))
	assert.Error(t, err)
}

func TestWatermarkPage(t *testing.T) {
	c := newCanvas(t, WithWatermark("DRAFT", false), WithMetadata("Offer", "Acme", "price_offer"))
	out := drawSample(t, c)
	assert.NotEmpty(t, out)
}

func TestAlignStrMirrorsForRTL(t *testing.T) {
	assert.Equal(t, "LM", alignStr(layout.AlignStart, false))
	assert.Equal(t, "RM", alignStr(layout.AlignStart, true))
	assert.Equal(t, "RM", alignStr(layout.AlignEnd, false))
	assert.Equal(t, "LM", alignStr(layout.AlignEnd, true))
	assert.Equal(t, "CM", alignStr(layout.AlignCenter, true))
}

func TestVisual(t *testing.T) {
	assert.Equal(t, "Total 10", Visual("Total 10", false))
	// shaped then reordered: isolated forms of alef and ba
	assert.Equal(t, "ﺏﺍ", Visual("اب", true))
}

func TestNewFontSetValidates(t *testing.T) {
	_, err := NewFontSet("", []byte{1}, nil)
	assert.Error(t, err)
	_, err = NewFontSet("Amiri", nil, nil)
	assert.Error(t, err)
	fs, err := NewFontSet("Amiri", []byte{1}, nil)
	require.NoError(t, err)
	assert.Equal(t, fs.regular, fs.bold)

	_, err = LoadFontDir(t.TempDir(), "Amiri")
	assert.Error(t, err)
}
