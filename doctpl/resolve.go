package doctpl

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Default texts for the built-in languages.
var (
	defaultPageLabel = map[Language]string{
		Arabic:  "صفحة {page} من {pages}",
		English: "Page {page} of {pages}",
	}
	defaultEmptyText = map[Language]string{
		Arabic:  "لا توجد بنود",
		English: "No items",
	}
)

// DefaultPageLabel returns the page number line used when a footer does not
// set one.
func DefaultPageLabel(l Language) string {
	if s, ok := defaultPageLabel[l]; ok {
		return s
	}
	if l.RTL() {
		return defaultPageLabel[Arabic]
	}
	return defaultPageLabel[English]
}

func defaultEmpty(l Language) string {
	if s, ok := defaultEmptyText[l]; ok {
		return s
	}
	if l.RTL() {
		return defaultEmptyText[Arabic]
	}
	return defaultEmptyText[English]
}

// Resolved is a template with every placeholder substituted, ready for layout.
type Resolved struct {
	TemplateID string
	Version    int
	Category   Category
	Language   Language
	RTL        bool
	Styles     StyleSheet // defaults applied
	Sections   []ResolvedSection
}

// ResolvedSection is one section after substitution. Index is its position
// in render order, counting sections skipped by their condition.
type ResolvedSection struct {
	Index   int
	Type    SectionType
	Content any
}

// ResolvedField is a labelled value after substitution.
type ResolvedField struct {
	Label string
	Value string
}

// ResolvedHeader is HeaderContent after substitution.
type ResolvedHeader struct {
	CompanyName string
	Address     string
	Contact     string
	TaxNumber   string
	Logo        string
	ShowLogo    bool
}

// ResolvedBody is BodyContent after substitution.
type ResolvedBody struct {
	Title  string
	Fields []ResolvedField
}

// ResolvedColumn is a table column after substitution.
type ResolvedColumn struct {
	Header string
	Field  string
	Width  float64
	Align  string
}

// ResolvedTable is TableContent bound to its records. Rows holds one cell per
// column, in column order.
type ResolvedTable struct {
	Columns            []ResolvedColumn
	Rows               [][]string
	ShowBorders        bool
	AlternateRowColors bool
	EmptyText          string
	Totals             []ResolvedField
}

// ResolvedSpacer is SpacerContent.
type ResolvedSpacer struct {
	Height float64
}

// ResolvedTerms is TermsContent after substitution.
type ResolvedTerms struct {
	Title string
	Items []string
}

// ResolvedBarcode is a footer barcode after substitution.
type ResolvedBarcode struct {
	Kind  string
	Value string
	Size  float64
}

// ResolvedFooter is FooterContent after substitution. PageLabel still holds
// the {page} and {pages} tokens.
type ResolvedFooter struct {
	Text        string
	Contact     string
	PageNumbers bool
	PageLabel   string
	Barcode     *ResolvedBarcode
}

// Resolve substitutes every placeholder of t with values from ctx.
//
// All variables declared or referenced by the template must be bound to
// non-nil values; otherwise a *MissingVariablesError naming all of them is
// returned and nothing else is done. Table data sources are bound by column
// field; shape problems are reported as *TypeMismatchError.
func Resolve(t *Template, ctx Context) (*Resolved, error) {
	required := make(map[string]bool)
	for _, v := range t.Variables {
		required[v] = true
	}
	for _, v := range t.Placeholders() {
		required[v] = true
	}
	var missing []string
	for name := range required {
		if !ctx.has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingVariablesError{TemplateID: t.ID, Names: missing}
	}

	r := &resolver{ctx: ctx, lang: t.Language, recordMissing: make(map[string]bool)}
	out := &Resolved{
		TemplateID: t.ID,
		Version:    t.Version,
		Category:   t.Category,
		Language:   t.Language,
		RTL:        t.Language.RTL(),
		Styles:     t.Styles.WithDefaults(),
	}
	for i, s := range t.OrderedSections() {
		if s.When != "" {
			ok, err := evalCondition(s.When, ctx)
			if err != nil {
				return nil, &ConditionError{Section: i, Expr: s.When, Err: err}
			}
			if !ok {
				continue
			}
		}
		content, err := r.section(s.Content)
		if err != nil {
			return nil, err
		}
		out.Sections = append(out.Sections, ResolvedSection{Index: i, Type: s.Type, Content: content})
	}
	if len(r.recordMissing) > 0 {
		names := make([]string, 0, len(r.recordMissing))
		for n := range r.recordMissing {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, &MissingVariablesError{TemplateID: t.ID, Names: names}
	}
	return out, nil
}

type resolver struct {
	ctx           Context
	lang          Language
	recordMissing map[string]bool
}

func (r *resolver) lookup(name string) (string, error) {
	v := r.ctx[name]
	s, ok := scalarString(v)
	if !ok {
		return "", &TypeMismatchError{Field: name, Expected: "scalar", Actual: describe(v)}
	}
	return s, nil
}

func (r *resolver) expand(t Text) (string, error) {
	return t.Expand(r.lookup)
}

func (r *resolver) fields(fs []Field) ([]ResolvedField, error) {
	out := make([]ResolvedField, 0, len(fs))
	for _, f := range fs {
		label, err := r.expand(f.Label)
		if err != nil {
			return nil, err
		}
		value, err := r.expand(f.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, ResolvedField{Label: label, Value: value})
	}
	return out, nil
}

func (r *resolver) section(c Content) (any, error) {
	switch c := c.(type) {
	case HeaderContent:
		return r.header(c)
	case BodyContent:
		title, err := r.expand(c.Title)
		if err != nil {
			return nil, err
		}
		fields, err := r.fields(c.Fields)
		if err != nil {
			return nil, err
		}
		return ResolvedBody{Title: title, Fields: fields}, nil
	case TableContent:
		return r.table(c)
	case SpacerContent:
		return ResolvedSpacer{Height: c.Height}, nil
	case TermsContent:
		title, err := r.expand(c.Title)
		if err != nil {
			return nil, err
		}
		items := make([]string, 0, len(c.Items))
		for _, it := range c.Items {
			s, err := r.expand(it)
			if err != nil {
				return nil, err
			}
			items = append(items, s)
		}
		return ResolvedTerms{Title: title, Items: items}, nil
	case FooterContent:
		return r.footer(c)
	}
	return nil, fmt.Errorf("%w: unsupported section content %T", ErrInvalidTemplate, c)
}

func (r *resolver) header(c HeaderContent) (ResolvedHeader, error) {
	var h ResolvedHeader
	var err error
	for _, p := range []struct {
		dst *string
		src Text
	}{
		{&h.CompanyName, c.CompanyName},
		{&h.Address, c.Address},
		{&h.Contact, c.Contact},
		{&h.TaxNumber, c.TaxNumber},
		{&h.Logo, c.Logo},
	} {
		if *p.dst, err = r.expand(p.src); err != nil {
			return ResolvedHeader{}, err
		}
	}
	h.ShowLogo = c.ShowLogo && h.Logo != ""
	return h, nil
}

func (r *resolver) footer(c FooterContent) (ResolvedFooter, error) {
	var f ResolvedFooter
	var err error
	if f.Text, err = r.expand(c.Text); err != nil {
		return f, err
	}
	if f.Contact, err = r.expand(c.Contact); err != nil {
		return f, err
	}
	f.PageNumbers = c.PageNumbers
	if f.PageLabel, err = r.expand(c.PageLabel); err != nil {
		return f, err
	}
	if f.PageLabel == "" {
		f.PageLabel = DefaultPageLabel(r.lang)
	}
	if c.Barcode != nil {
		v, err := r.expand(c.Barcode.Value)
		if err != nil {
			return f, err
		}
		size := c.Barcode.Size
		if size == 0 {
			size = 48
		}
		f.Barcode = &ResolvedBarcode{Kind: c.Barcode.Kind, Value: v, Size: size}
	}
	return f, nil
}

func (r *resolver) table(c TableContent) (ResolvedTable, error) {
	t := ResolvedTable{
		ShowBorders:        c.ShowBorders,
		AlternateRowColors: c.AlternateRowColors,
	}
	for _, col := range c.Columns {
		h, err := r.expand(col.Header)
		if err != nil {
			return t, err
		}
		t.Columns = append(t.Columns, ResolvedColumn{Header: h, Field: col.Field, Width: col.Width, Align: col.Align})
	}
	var err error
	if t.EmptyText, err = r.expand(c.EmptyText); err != nil {
		return t, err
	}
	if t.EmptyText == "" {
		t.EmptyText = defaultEmpty(r.lang)
	}
	if t.Totals, err = r.fields(c.Totals); err != nil {
		return t, err
	}

	name, ok := c.DataSource.Placeholder()
	if !ok {
		return t, &TypeMismatchError{Field: c.DataSource.String(), Expected: "single placeholder", Actual: "text"}
	}
	v := r.ctx[name]
	recs, bad, ok := records(v)
	if !ok {
		return t, &TypeMismatchError{Field: name, Expected: "array of records", Actual: describe(v)}
	}
	if bad >= 0 {
		return t, &TypeMismatchError{
			Field:    fmt.Sprintf("%s[%d]", name, bad),
			Expected: "record",
			Actual:   describe(elementAt(v, bad)),
		}
	}

	t.Rows = make([][]string, 0, len(recs))
	for i, rec := range recs {
		row := make([]string, len(c.Columns))
		for j, col := range c.Columns {
			field := fmt.Sprintf("%s[%d].%s", name, i, col.Field)
			val, present := rec[col.Field]
			if !present {
				return t, &TypeMismatchError{Field: field, Expected: "scalar", Actual: "missing field"}
			}
			s, ok := scalarString(val)
			if isNil(val) {
				s, ok = "", true
			}
			if !ok {
				return t, &TypeMismatchError{Field: field, Expected: "scalar", Actual: describe(val)}
			}
			if row[j], err = r.recordValue(field, s, rec); err != nil {
				return t, err
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// recordValue resolves placeholders inside the record string s found at
// field, against the record fields overlaid on the context. Unknown names
// are collected and reported once the whole template has been resolved.
func (r *resolver) recordValue(field, s string, rec Record) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	txt, err := Parse(s)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return "", &TypeMismatchError{Field: field, Expected: "text with valid placeholders", Actual: pe.Msg}
		}
		return "", err
	}
	return txt.Expand(func(name string) (string, error) {
		v, ok := rec[name]
		if !ok || isNil(v) {
			v = r.ctx[name]
		}
		if isNil(v) {
			r.recordMissing[name] = true
			return "", nil
		}
		str, ok := scalarString(v)
		if !ok {
			return "", &TypeMismatchError{Field: field + " {{" + name + "}}", Expected: "scalar", Actual: describe(v)}
		}
		return str, nil
	})
}

func elementAt(v any, i int) any {
	if xs, ok := v.([]any); ok && i < len(xs) {
		return xs[i]
	}
	return nil
}
