package canvas

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// DefaultFamily is the family name of the embedded Go fonts.
const DefaultFamily = "Go"

// FontSet holds the TrueType faces of one font family. It is read-only
// after construction and may be shared by concurrent renders.
type FontSet struct {
	Family  string
	regular []byte
	bold    []byte
}

// NewFontSet returns a font set from raw TTF data. A nil bold face falls
// back to the regular one.
func NewFontSet(family string, regular, bold []byte) (*FontSet, error) {
	if family == "" {
		return nil, fmt.Errorf("canvas: font family name is empty")
	}
	if len(regular) == 0 {
		return nil, fmt.Errorf("canvas: font %q: regular face is empty", family)
	}
	if len(bold) == 0 {
		bold = regular
	}
	return &FontSet{Family: family, regular: regular, bold: bold}, nil
}

// DefaultFonts returns the embedded Go fonts. They cover Latin scripts only;
// Arabic documents need a family loaded with LoadFontDir.
func DefaultFonts() *FontSet {
	return &FontSet{Family: DefaultFamily, regular: goregular.TTF, bold: gobold.TTF}
}

// LoadFontDir loads <family>-Regular.ttf and <family>-Bold.ttf from dir.
// A plain <family>.ttf is accepted for the regular face and the bold face is
// optional.
func LoadFontDir(dir, family string) (*FontSet, error) {
	regular, err := readFirst(dir, family+"-Regular.ttf", family+".ttf")
	if err != nil {
		return nil, fmt.Errorf("canvas: loading font %q: %w", family, err)
	}
	bold, err := readFirst(dir, family+"-Bold.ttf")
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("canvas: loading font %q: %w", family, err)
	}
	return NewFontSet(family, regular, bold)
}

func readFirst(dir string, names ...string) ([]byte, error) {
	var lastErr error
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
