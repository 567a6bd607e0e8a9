package doctpl

import (
	"encoding/json"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Segment is either a literal run of text or a placeholder reference.
type Segment struct {
	Literal string
	Var     string // non-empty for a {{Var}} placeholder
}

// IsVar reports whether the segment is a placeholder.
func (s Segment) IsVar() bool { return s.Var != "" }

// Text is a parsed template string: literal segments interleaved with
// placeholder references. The zero value is the empty string.
type Text struct {
	raw  string
	segs []Segment
}

// Parse compiles s into a Text. Placeholders are written {{name}} where name
// matches [A-Za-z_][A-Za-z0-9_.]* and may be padded with spaces. A lone "}}"
// is literal text; an unterminated "{{" or an invalid name is an error.
func Parse(s string) (Text, error) {
	t := Text{raw: s}
	var lit strings.Builder
	for i := 0; i < len(s); {
		open := strings.Index(s[i:], "{{")
		if open < 0 {
			lit.WriteString(s[i:])
			break
		}
		open += i
		lit.WriteString(s[i:open])

		end := strings.Index(s[open+2:], "}}")
		if end < 0 {
			return Text{}, &ParseError{Input: s, Offset: open, Msg: "unterminated placeholder"}
		}
		end += open + 2
		name := strings.TrimSpace(s[open+2 : end])
		if !validName(name) {
			return Text{}, &ParseError{Input: s, Offset: open, Msg: "invalid placeholder name " + quote(name)}
		}
		if lit.Len() > 0 {
			t.segs = append(t.segs, Segment{Literal: lit.String()})
			lit.Reset()
		}
		t.segs = append(t.segs, Segment{Var: name})
		i = end + 2
	}
	if lit.Len() > 0 {
		t.segs = append(t.segs, Segment{Literal: lit.String()})
	}
	return t, nil
}

// MustParse is like Parse but panics on error. It is meant for templates
// declared in Go source.
func MustParse(s string) Text {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Literal returns a Text holding s verbatim, without placeholder parsing.
func Literal(s string) Text {
	if s == "" {
		return Text{}
	}
	return Text{raw: s, segs: []Segment{{Literal: s}}}
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '.' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}

func quote(s string) string { return `"` + s + `"` }

// String returns the source form of the text.
func (t Text) String() string { return t.raw }

// IsZero reports whether the text is empty.
func (t Text) IsZero() bool { return t.raw == "" }

// Segments returns the parsed segments.
func (t Text) Segments() []Segment { return t.segs }

// Refs returns the distinct placeholder names in order of first use.
func (t Text) Refs() []string {
	var refs []string
	seen := make(map[string]bool)
	for _, s := range t.segs {
		if s.IsVar() && !seen[s.Var] {
			seen[s.Var] = true
			refs = append(refs, s.Var)
		}
	}
	return refs
}

// Placeholder returns the variable name when the text consists of exactly
// one placeholder and nothing else.
func (t Text) Placeholder() (string, bool) {
	if len(t.segs) != 1 || !t.segs[0].IsVar() {
		return "", false
	}
	return t.segs[0].Var, true
}

// Expand substitutes every placeholder with the value returned by lookup.
func (t Text) Expand(lookup func(name string) (string, error)) (string, error) {
	if len(t.segs) == 1 && !t.segs[0].IsVar() {
		return t.segs[0].Literal, nil
	}
	var b strings.Builder
	for _, s := range t.segs {
		if !s.IsVar() {
			b.WriteString(s.Literal)
			continue
		}
		v, err := lookup(s.Var)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// UnmarshalYAML parses a scalar node into a Text.
func (t *Text) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML returns the source form.
func (t Text) MarshalYAML() (interface{}, error) { return t.raw, nil }

// UnmarshalJSON parses a JSON string into a Text.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON returns the source form as a JSON string.
func (t Text) MarshalJSON() ([]byte, error) { return json.Marshal(t.raw) }

// collectRefs gathers the sorted union of references across texts.
func collectRefs(texts []Text) []string {
	set := make(map[string]bool)
	for _, t := range texts {
		for _, r := range t.Refs() {
			set[r] = true
		}
	}
	refs := make([]string, 0, len(set))
	for r := range set {
		refs = append(refs, r)
	}
	sort.Strings(refs)
	return refs
}
