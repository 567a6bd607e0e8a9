// Package bidi reorders a single line of mixed right-to-left and
// left-to-right text from logical order into display order.
//
// Character classes come from golang.org/x/text/unicode/bidi. Level
// resolution follows the weak, neutral and implicit rules of the Unicode
// Bidirectional Algorithm (UAX #9) for one paragraph without explicit
// embeddings, which is all a document line ever needs: Arabic prose with
// embedded numbers, SKUs, currency codes and e-mail addresses.
package bidi

import (
	xbidi "golang.org/x/text/unicode/bidi"
)

// Direction is a paragraph base direction.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

func (d Direction) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// mirrors maps paired punctuation to its mirrored glyph for right-to-left runs.
var mirrors = map[rune]rune{
	'(': ')', ')': '(',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
	'<': '>', '>': '<',
	'«': '»', '»': '«',
}

// Detect returns the direction of the first strong character in s.
// ok is false when s has no strong character.
func Detect(s string) (dir Direction, ok bool) {
	for _, r := range s {
		switch class(r) {
		case xbidi.L:
			return LeftToRight, true
		case xbidi.R, xbidi.AL:
			return RightToLeft, true
		}
	}
	return LeftToRight, false
}

// Visual returns s in display order for a line whose paragraph direction is
// base. Text containing only left-to-right characters in a left-to-right
// paragraph is returned unchanged.
func Visual(s string, base Direction) string {
	rs := []rune(s)
	if len(rs) == 0 {
		return s
	}
	if base == LeftToRight && !hasRTL(rs) {
		return s
	}

	levels := resolveLevels(rs, base)

	out := make([]rune, len(rs))
	for vis, logical := range reorder(levels) {
		r := rs[logical]
		if levels[logical]%2 == 1 {
			if m, ok := mirrors[r]; ok {
				r = m
			}
		}
		out[vis] = r
	}
	return string(out)
}

func class(r rune) xbidi.Class {
	p, _ := xbidi.LookupRune(r)
	return p.Class()
}

func hasRTL(rs []rune) bool {
	for _, r := range rs {
		switch class(r) {
		case xbidi.R, xbidi.AL, xbidi.AN:
			return true
		}
	}
	return false
}

func isNeutral(c xbidi.Class) bool {
	switch c {
	case xbidi.ON, xbidi.WS, xbidi.S, xbidi.B, xbidi.BN:
		return true
	}
	return false
}

// strongDir maps a resolved type to L or R for the neutral rules; numbers
// count as R.
func strongDir(c xbidi.Class) xbidi.Class {
	if c == xbidi.L {
		return xbidi.L
	}
	return xbidi.R
}

// resolveLevels assigns an embedding level to every rune.
func resolveLevels(rs []rune, base Direction) []int {
	n := len(rs)
	orig := make([]xbidi.Class, n)
	types := make([]xbidi.Class, n)
	for i, r := range rs {
		c := class(r)
		switch c {
		case xbidi.LRE, xbidi.RLE, xbidi.LRO, xbidi.RLO, xbidi.PDF,
			xbidi.LRI, xbidi.RLI, xbidi.FSI, xbidi.PDI, xbidi.Control:
			c = xbidi.BN
		}
		orig[i] = c
		types[i] = c
	}

	baseLevel := 0
	sos := xbidi.L
	if base == RightToLeft {
		baseLevel = 1
		sos = xbidi.R
	}

	// W1: marks take the type of what they follow.
	prev := sos
	for i, t := range types {
		if t == xbidi.NSM {
			types[i] = prev
		} else {
			prev = t
		}
	}

	// W2, W3: European numbers after Arabic letters become Arabic numbers.
	last := sos
	for i, t := range types {
		switch t {
		case xbidi.L, xbidi.R:
			last = t
		case xbidi.AL:
			last = t
			types[i] = xbidi.R
		case xbidi.EN:
			if last == xbidi.AL {
				types[i] = xbidi.AN
			}
		}
	}

	// W4: a single separator between two numbers of the same kind joins them.
	for i := 1; i < n-1; i++ {
		before, after := types[i-1], types[i+1]
		switch types[i] {
		case xbidi.ES:
			if before == xbidi.EN && after == xbidi.EN {
				types[i] = xbidi.EN
			}
		case xbidi.CS:
			if before == after && (before == xbidi.EN || before == xbidi.AN) {
				types[i] = before
			}
		}
	}

	// W5: terminators next to European numbers become numbers.
	for i := 0; i < n; {
		if types[i] != xbidi.ET {
			i++
			continue
		}
		j := i
		for j < n && types[j] == xbidi.ET {
			j++
		}
		if (i > 0 && types[i-1] == xbidi.EN) || (j < n && types[j] == xbidi.EN) {
			for k := i; k < j; k++ {
				types[k] = xbidi.EN
			}
		}
		i = j
	}

	// W6: leftover separators and terminators are neutral.
	for i, t := range types {
		switch t {
		case xbidi.ES, xbidi.ET, xbidi.CS:
			types[i] = xbidi.ON
		}
	}

	// W7: European numbers in a left-to-right context are L.
	last = sos
	for i, t := range types {
		switch t {
		case xbidi.L, xbidi.R:
			last = t
		case xbidi.EN:
			if last == xbidi.L {
				types[i] = xbidi.L
			}
		}
	}

	// N1, N2: neutrals take the direction of matching neighbours, else the
	// embedding direction.
	for i := 0; i < n; {
		if !isNeutral(types[i]) {
			i++
			continue
		}
		j := i
		for j < n && isNeutral(types[j]) {
			j++
		}
		leading, trailing := sos, sos
		if i > 0 {
			leading = strongDir(types[i-1])
		}
		if j < n {
			trailing = strongDir(types[j])
		}
		dir := sos
		if leading == trailing {
			dir = leading
		}
		for k := i; k < j; k++ {
			types[k] = dir
		}
		i = j
	}

	// I1, I2: implicit levels.
	levels := make([]int, n)
	for i, t := range types {
		lvl := baseLevel
		if baseLevel%2 == 0 {
			switch t {
			case xbidi.R:
				lvl++
			case xbidi.AN, xbidi.EN:
				lvl += 2
			}
		} else {
			switch t {
			case xbidi.L, xbidi.EN, xbidi.AN:
				lvl++
			}
		}
		levels[i] = lvl
	}

	// L1: separators and trailing whitespace return to the paragraph level.
	for i := n - 1; i >= 0; i-- {
		if orig[i] != xbidi.WS && orig[i] != xbidi.BN {
			break
		}
		levels[i] = baseLevel
	}
	for i, c := range orig {
		if c == xbidi.S || c == xbidi.B {
			levels[i] = baseLevel
		}
	}
	return levels
}

// reorder returns the logical index shown at each visual position (L2).
func reorder(levels []int) []int {
	n := len(levels)
	idx := make([]int, n)
	maxLevel, minOdd := 0, -1
	for i, l := range levels {
		idx[i] = i
		if l > maxLevel {
			maxLevel = l
		}
		if l%2 == 1 && (minOdd < 0 || l < minOdd) {
			minOdd = l
		}
	}
	if maxLevel == 0 {
		return idx
	}
	if minOdd < 0 {
		minOdd = 1
	}
	for lvl := maxLevel; lvl >= minOdd; lvl-- {
		for i := 0; i < n; {
			if levels[idx[i]] < lvl {
				i++
				continue
			}
			j := i
			for j < n && levels[idx[j]] >= lvl {
				j++
			}
			for a, b := i, j-1; a < b; a, b = a+1, b-1 {
				idx[a], idx[b] = idx[b], idx[a]
			}
			i = j
		}
	}
	return idx
}
