package doctpl

import (
	"fmt"
	"sort"

	"golang.org/x/text/language"
)

// OrderedSections returns the sections sorted by Order, keeping declaration
// order for equal values.
func (t *Template) OrderedSections() []Section {
	out := make([]Section, len(t.Sections))
	copy(out, t.Sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Placeholders returns the sorted set of variable names referenced by any
// section of the template.
func (t *Template) Placeholders() []string {
	var texts []Text
	for _, s := range t.Sections {
		if s.Content != nil {
			texts = append(texts, s.Content.texts()...)
		}
	}
	return collectRefs(texts)
}

// Validate checks that the template is well formed. All problems are reported
// together in a *TemplateError.
func (t *Template) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if t.ID == "" {
		add("id is empty")
	}
	if t.Category == "" {
		add("category is empty")
	}
	if _, err := language.Parse(string(t.Language)); err != nil || t.Language == "" {
		add("invalid language %q", t.Language)
	}

	declared := make(map[string]bool, len(t.Variables))
	for _, v := range t.Variables {
		if !validName(v) {
			add("invalid variable name %q", v)
		}
		declared[v] = true
	}
	for _, ref := range t.Placeholders() {
		if !declared[ref] {
			add("placeholder {{%s}} is not declared in variables", ref)
		}
	}

	if len(t.Sections) == 0 {
		add("template has no sections")
	}
	var headers, footers int
	for i, s := range t.Sections {
		if s.Content == nil {
			add("section %d (%s): missing content", i, s.Type)
			continue
		}
		if s.Content.SectionType() != s.Type {
			add("section %d: type %q does not match %s content", i, s.Type, s.Content.SectionType())
			continue
		}
		if s.When != "" {
			if _, err := compileCondition(s.When); err != nil {
				add("section %d: invalid condition %q: %v", i, s.When, err)
			}
		}
		switch c := s.Content.(type) {
		case HeaderContent:
			headers++
		case FooterContent:
			footers++
			if c.Barcode != nil && !knownBarcode(c.Barcode.Kind) {
				add("section %d: unknown barcode kind %q", i, c.Barcode.Kind)
			}
		case SpacerContent:
			if c.Height < 0 {
				add("section %d: negative spacer height", i)
			}
		case TableContent:
			validateTable(i, c, add)
		case BodyContent, TermsContent:
		default:
			add("section %d: unsupported content %T", i, c)
		}
	}
	if len(t.Sections) > 0 && headers != 1 {
		add("expected exactly one header section, found %d", headers)
	}
	if footers > 1 {
		add("expected at most one footer section, found %d", footers)
	}

	validateStyles(t.Styles, add)

	if len(problems) > 0 {
		return &TemplateError{TemplateID: t.ID, Problems: problems}
	}
	return nil
}

func validateTable(i int, c TableContent, add func(string, ...any)) {
	if len(c.Columns) == 0 {
		add("section %d: table has no columns", i)
	}
	if _, ok := c.DataSource.Placeholder(); !ok {
		add("section %d: table dataSource must be a single placeholder, got %q", i, c.DataSource.String())
	}
	seen := make(map[string]bool)
	for j, col := range c.Columns {
		switch {
		case col.Field == "":
			add("section %d: column %d has no field", i, j)
		case seen[col.Field]:
			add("section %d: duplicate column field %q", i, col.Field)
		}
		seen[col.Field] = true
		if col.Width < 0 {
			add("section %d: column %q has negative width", i, col.Field)
		}
		switch col.Align {
		case "", "start", "center", "end":
		default:
			add("section %d: column %q has unknown align %q", i, col.Field, col.Align)
		}
	}
}

func validateStyles(s StyleSheet, add func(string, ...any)) {
	colors := []struct{ name, value string }{
		{"primaryColor", s.PrimaryColor},
		{"secondaryColor", s.SecondaryColor},
		{"accentColor", s.AccentColor},
	}
	for _, c := range colors {
		if c.value != "" && !isHexColor(c.value) {
			add("styles.%s: invalid color %q", c.name, c.value)
		}
	}
	if s.FontSize < 0 {
		add("styles.fontSize must be positive")
	}
	if s.HeaderHeight < 0 || s.FooterHeight < 0 {
		add("styles: header and footer heights must not be negative")
	}
	m := s.Margins
	if m.Top < 0 || m.Bottom < 0 || m.Left < 0 || m.Right < 0 {
		add("styles.margins must not be negative")
	}
	if s.PageSize != "" {
		if _, ok := PageSizes[s.PageSize]; !ok {
			add("styles.pageSize: unknown size %q", s.PageSize)
		}
	}
	switch s.HeaderMode {
	case "", HeaderEveryPage, HeaderFirstPage:
	default:
		add("styles.headerMode: unknown mode %q", s.HeaderMode)
	}
	switch s.FooterMode {
	case "", FooterEveryPage, FooterLastPage:
	default:
		add("styles.footerMode: unknown mode %q", s.FooterMode)
	}
}

func isHexColor(s string) bool {
	if len(s) != 7 && len(s) != 4 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F') {
			return false
		}
	}
	return true
}

func knownBarcode(kind string) bool {
	switch kind {
	case BarcodeQR, BarcodeCode128, BarcodePDF417:
		return true
	}
	return false
}
