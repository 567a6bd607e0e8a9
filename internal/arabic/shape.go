// Package arabic converts Arabic text from its logical character sequence to
// contextual presentation forms (Unicode Arabic Presentation Forms-B).
//
// PDF text operators draw glyphs one by one, so letters must already carry
// their isolated, initial, medial or final form before they reach the page.
// Shaping works on logical order; visual reordering happens afterwards.
package arabic

import "strings"

// forms holds the presentation forms of a letter: isolated, final, initial,
// medial. A zero initial form marks a right-joining letter.
type forms [4]rune

const (
	isolated = iota
	final
	initial
	medial
)

const (
	tatweel = '\u0640'
	lam     = 'ل'
)

var letters = map[rune]forms{
	'ء': {0xFE80, 0, 0, 0},
	'آ': {0xFE81, 0xFE82, 0, 0},
	'أ': {0xFE83, 0xFE84, 0, 0},
	'ؤ': {0xFE85, 0xFE86, 0, 0},
	'إ': {0xFE87, 0xFE88, 0, 0},
	'ئ': {0xFE89, 0xFE8A, 0xFE8B, 0xFE8C},
	'ا': {0xFE8D, 0xFE8E, 0, 0},
	'ب': {0xFE8F, 0xFE90, 0xFE91, 0xFE92},
	'ة': {0xFE93, 0xFE94, 0, 0},
	'ت': {0xFE95, 0xFE96, 0xFE97, 0xFE98},
	'ث': {0xFE99, 0xFE9A, 0xFE9B, 0xFE9C},
	'ج': {0xFE9D, 0xFE9E, 0xFE9F, 0xFEA0},
	'ح': {0xFEA1, 0xFEA2, 0xFEA3, 0xFEA4},
	'خ': {0xFEA5, 0xFEA6, 0xFEA7, 0xFEA8},
	'د': {0xFEA9, 0xFEAA, 0, 0},
	'ذ': {0xFEAB, 0xFEAC, 0, 0},
	'ر': {0xFEAD, 0xFEAE, 0, 0},
	'ز': {0xFEAF, 0xFEB0, 0, 0},
	'س': {0xFEB1, 0xFEB2, 0xFEB3, 0xFEB4},
	'ش': {0xFEB5, 0xFEB6, 0xFEB7, 0xFEB8},
	'ص': {0xFEB9, 0xFEBA, 0xFEBB, 0xFEBC},
	'ض': {0xFEBD, 0xFEBE, 0xFEBF, 0xFEC0},
	'ط': {0xFEC1, 0xFEC2, 0xFEC3, 0xFEC4},
	'ظ': {0xFEC5, 0xFEC6, 0xFEC7, 0xFEC8},
	'ع': {0xFEC9, 0xFECA, 0xFECB, 0xFECC},
	'غ': {0xFECD, 0xFECE, 0xFECF, 0xFED0},
	'ف': {0xFED1, 0xFED2, 0xFED3, 0xFED4},
	'ق': {0xFED5, 0xFED6, 0xFED7, 0xFED8},
	'ك': {0xFED9, 0xFEDA, 0xFEDB, 0xFEDC},
	'ل': {0xFEDD, 0xFEDE, 0xFEDF, 0xFEE0},
	'م': {0xFEE1, 0xFEE2, 0xFEE3, 0xFEE4},
	'ن': {0xFEE5, 0xFEE6, 0xFEE7, 0xFEE8},
	'ه': {0xFEE9, 0xFEEA, 0xFEEB, 0xFEEC},
	'و': {0xFEED, 0xFEEE, 0, 0},
	'ى': {0xFEEF, 0xFEF0, 0, 0},
	'ي': {0xFEF1, 0xFEF2, 0xFEF3, 0xFEF4},
}

// lamAlef maps the alef variant following a lam to the isolated ligature;
// the final form is the next code point.
var lamAlef = map[rune]rune{
	'آ': 0xFEF5,
	'أ': 0xFEF7,
	'إ': 0xFEF9,
	'ا': 0xFEFB,
}

// isTransparent reports whether r is a combining mark that does not break
// joining (harakat, superscript alef).
func isTransparent(r rune) bool {
	return (r >= '\u064B' && r <= '\u065F') || r == '\u0670'
}

// joinsNext reports whether r connects to the following letter.
func joinsNext(r rune) bool {
	if r == tatweel {
		return true
	}
	f, ok := letters[r]
	return ok && f[initial] != 0
}

// joinsPrev reports whether r connects to the preceding letter.
func joinsPrev(r rune) bool {
	if r == tatweel {
		return true
	}
	f, ok := letters[r]
	return ok && f[final] != 0
}

// HasArabic reports whether s contains any character from the Arabic blocks.
func HasArabic(s string) bool {
	for _, r := range s {
		if IsArabic(r) {
			return true
		}
	}
	return false
}

// IsArabic reports whether r lies in the Arabic or Arabic Presentation
// Forms blocks.
func IsArabic(r rune) bool {
	return (r >= '\u0600' && r <= '\u06FF') ||
		(r >= '\uFB50' && r <= '\uFDFF') ||
		(r >= '\uFE70' && r <= '\uFEFF')
}

// Shape returns s with every Arabic letter replaced by its contextual
// presentation form and lam-alef pairs replaced by ligatures. Text without
// Arabic letters is returned unchanged.
func Shape(s string) string {
	if !HasArabic(s) {
		return s
	}
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(rs); i++ {
		r := rs[i]
		f, ok := letters[r]
		if !ok {
			b.WriteRune(r)
			continue
		}

		prev := neighbour(rs, i, -1)
		prevJoins := prev != 0 && joinsNext(prev)

		if r == lam {
			if j, alef := nextLetter(rs, i); alef != 0 {
				if lig, ok := lamAlef[alef]; ok {
					if prevJoins {
						lig++
					}
					b.WriteRune(lig)
					// keep marks sitting between lam and alef
					for k := i + 1; k < j; k++ {
						b.WriteRune(rs[k])
					}
					i = j
					continue
				}
			}
		}

		next := neighbour(rs, i, 1)
		nextJoins := next != 0 && joinsPrev(next) && f[initial] != 0

		switch {
		case prevJoins && nextJoins && f[medial] != 0:
			b.WriteRune(f[medial])
		case prevJoins && f[final] != 0:
			b.WriteRune(f[final])
		case nextJoins:
			b.WriteRune(f[initial])
		default:
			b.WriteRune(f[isolated])
		}
	}
	return b.String()
}

// neighbour returns the closest non-transparent rune in direction dir, or 0.
func neighbour(rs []rune, i, dir int) rune {
	for j := i + dir; j >= 0 && j < len(rs); j += dir {
		if isTransparent(rs[j]) {
			continue
		}
		return rs[j]
	}
	return 0
}

// nextLetter returns the index and value of the next non-transparent rune.
func nextLetter(rs []rune, i int) (int, rune) {
	for j := i + 1; j < len(rs); j++ {
		if isTransparent(rs[j]) {
			continue
		}
		return j, rs[j]
	}
	return len(rs), 0
}
