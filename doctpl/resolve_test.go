package doctpl

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offerTemplate() *Template {
	return &Template{
		ID:        "offer-test",
		Category:  CategoryPriceOffer,
		Language:  English,
		IsActive:  true,
		IsDefault: true,
		Variables: []string{"companyName", "companyPhone", "companyEmail", "offerNumber", "products", "total"},
		Sections: []Section{
			{Type: SectionFooter, Order: 9, Content: FooterContent{Text: MustParse("Thank you"), PageNumbers: true}},
			{Type: SectionHeader, Order: 1, Content: HeaderContent{
				CompanyName: MustParse("{{companyName}}"),
				Contact:     MustParse("{{companyPhone}} | {{companyEmail}}"),
			}},
			{Type: SectionBody, Order: 2, Content: BodyContent{
				Title:  MustParse("Offer {{offerNumber}}"),
				Fields: []Field{{Label: MustParse("Number"), Value: MustParse("{{offerNumber}}")}},
			}},
			{Type: SectionTable, Order: 3, Content: TableContent{
				DataSource: MustParse("{{products}}"),
				Columns: []Column{
					{Header: MustParse("SKU"), Field: "sku"},
					{Header: MustParse("Qty"), Field: "qty", Align: "end"},
				},
				Totals: []Field{{Label: MustParse("Total"), Value: MustParse("{{total}}")}},
			}},
			{Type: SectionSpacer, Order: 3, Content: SpacerContent{Height: 12}},
		},
	}
}

func offerContext() Context {
	return Context{
		"companyName":  "Acme",
		"companyPhone": "+966 11 000 0000",
		"companyEmail": "sales@acme.test",
		"offerNumber":  "PO-7",
		"products":     []Record{{"sku": "A-1", "qty": 3, "extra": "ignored"}},
		"total":        decimal.RequireFromString("123.45"),
	}
}

func TestResolveOrdersAndSubstitutes(t *testing.T) {
	tpl := offerTemplate()
	require.NoError(t, tpl.Validate())

	res, err := Resolve(tpl, offerContext())
	require.NoError(t, err)
	require.Len(t, res.Sections, 5)

	var types []SectionType
	for _, s := range res.Sections {
		types = append(types, s.Type)
	}
	assert.Equal(t, []SectionType{SectionHeader, SectionBody, SectionTable, SectionSpacer, SectionFooter}, types)

	hdr := res.Sections[0].Content.(ResolvedHeader)
	assert.Equal(t, "+966 11 000 0000 | sales@acme.test", hdr.Contact)

	tbl := res.Sections[2].Content.(ResolvedTable)
	assert.Equal(t, [][]string{{"A-1", "3"}}, tbl.Rows)
	assert.Equal(t, []ResolvedField{{Label: "Total", Value: "123.45"}}, tbl.Totals)
	assert.Equal(t, "No items", tbl.EmptyText)

	ftr := res.Sections[4].Content.(ResolvedFooter)
	assert.Equal(t, "Page {page} of {pages}", ftr.PageLabel)
	assert.Equal(t, "#1a365d", res.Styles.PrimaryColor)
}

func TestResolveMissingVariables(t *testing.T) {
	ctx := offerContext()
	delete(ctx, "companyEmail")
	delete(ctx, "total")
	ctx["offerNumber"] = nil

	res, err := Resolve(offerTemplate(), ctx)
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrMissingVariables)

	var me *MissingVariablesError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, []string{"companyEmail", "offerNumber", "total"}, me.Names)
}

func TestResolveDeclaredButUnusedVariableIsRequired(t *testing.T) {
	tpl := offerTemplate()
	tpl.Variables = append(tpl.Variables, "validUntil")

	_, err := Resolve(tpl, offerContext())
	var me *MissingVariablesError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, []string{"validUntil"}, me.Names)
}

func TestResolveTableTypeMismatch(t *testing.T) {
	tests := []struct {
		name     string
		products any
		field    string
	}{
		{"scalar source", "not a list", "products"},
		{"non record element", []any{Record{"sku": "A", "qty": 1}, 42}, "products[1]"},
		{"missing column field", []Record{{"sku": "A"}}, "products[0].qty"},
		{"composite cell", []Record{{"sku": []string{"A"}, "qty": 1}}, "products[0].sku"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := offerContext()
			ctx["products"] = tt.products
			_, err := Resolve(offerTemplate(), ctx)
			require.ErrorIs(t, err, ErrTypeMismatch)
			var te *TypeMismatchError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.field, te.Field)
		})
	}
}

func TestResolveScalarPlaceholderWithCompositeValue(t *testing.T) {
	ctx := offerContext()
	ctx["companyName"] = map[string]any{"en": "Acme"}
	_, err := Resolve(offerTemplate(), ctx)
	var te *TypeMismatchError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "companyName", te.Field)
	assert.Equal(t, "object", te.Actual)
}

func TestResolveAcceptsPlainMaps(t *testing.T) {
	ctx := offerContext()
	ctx["products"] = []map[string]string{{"sku": "B-2", "qty": "7"}}
	res, err := Resolve(offerTemplate(), ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"B-2", "7"}}, res.Sections[2].Content.(ResolvedTable).Rows)
}

func TestResolveRecordPlaceholders(t *testing.T) {
	ctx := offerContext()
	ctx["products"] = []Record{{"sku": "{{prefix}}-{{offerNumber}}", "qty": 1, "prefix": "X"}}
	res, err := Resolve(offerTemplate(), ctx)
	require.NoError(t, err)
	assert.Equal(t, "X-PO-7", res.Sections[2].Content.(ResolvedTable).Rows[0][0])

	ctx["products"] = []Record{
		{"sku": "{{nope}}", "qty": 1},
		{"sku": "{{alsoMissing}} {{nope}}", "qty": 2},
	}
	_, err = Resolve(offerTemplate(), ctx)
	var me *MissingVariablesError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, []string{"alsoMissing", "nope"}, me.Names)
}

func TestResolveRecordPlaceholderErrors(t *testing.T) {
	tests := []struct {
		name  string
		sku   string
		extra any
		field string
	}{
		{"unterminated", "{{prefix", nil, "products[0].sku"},
		{"composite value", "{{prefix}}-1", []string{"X"}, "products[0].sku {{prefix}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := offerContext()
			ctx["products"] = []Record{{"sku": tt.sku, "qty": 1, "prefix": tt.extra}}
			_, err := Resolve(offerTemplate(), ctx)
			require.ErrorIs(t, err, ErrTypeMismatch)
			var te *TypeMismatchError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.field, te.Field)
		})
	}
}

func TestResolveTypedNilIsMissing(t *testing.T) {
	ctx := offerContext()
	ctx["total"] = (*decimal.Decimal)(nil)

	_, err := Resolve(offerTemplate(), ctx)
	var me *MissingVariablesError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, []string{"total"}, me.Names)

	// a nil pointer inside a record is an empty cell
	ctx = offerContext()
	ctx["products"] = []Record{{"sku": (*decimal.Decimal)(nil), "qty": 1}}
	res, err := Resolve(offerTemplate(), ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"", "1"}}, res.Sections[2].Content.(ResolvedTable).Rows)
}

func TestResolveNumbersVerbatim(t *testing.T) {
	a, b := 0.1, 0.2
	ctx := offerContext()
	ctx["products"] = []any{map[string]any{"sku": "A", "qty": a + b}}
	ctx["total"] = 1500000.5
	res, err := Resolve(offerTemplate(), ctx)
	require.NoError(t, err)
	tbl := res.Sections[2].Content.(ResolvedTable)
	assert.Equal(t, "0.30000000000000004", tbl.Rows[0][1])
	assert.Equal(t, "1500000.5", tbl.Totals[0].Value)
}

func TestResolveConditions(t *testing.T) {
	tpl := offerTemplate()
	tpl.Variables = append(tpl.Variables, "discount")
	tpl.Sections = append(tpl.Sections, Section{
		Type: SectionTerms, Order: 5, When: "discount > 0",
		Content: TermsContent{Items: []Text{MustParse("Discount {{discount}}%")}},
	})

	ctx := offerContext()
	ctx["discount"] = 0
	res, err := Resolve(tpl, ctx)
	require.NoError(t, err)
	assert.Len(t, res.Sections, 5)

	ctx["discount"] = 5
	res, err = Resolve(tpl, ctx)
	require.NoError(t, err)
	require.Len(t, res.Sections, 6)
	assert.Equal(t, ResolvedTerms{Items: []string{"Discount 5%"}}, res.Sections[4].Content)
	assert.Equal(t, 4, res.Sections[4].Index)
}

func TestResolveConditionError(t *testing.T) {
	tpl := offerTemplate()
	tpl.Sections[2].When = `offerNumber > 3`
	_, err := Resolve(tpl, offerContext())
	require.ErrorIs(t, err, ErrCondition)
	var ce *ConditionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Section)
}

func TestResolveArabicDefaults(t *testing.T) {
	tpl := offerTemplate()
	tpl.Language = Arabic
	res, err := Resolve(tpl, offerContext())
	require.NoError(t, err)
	assert.True(t, res.RTL)
	assert.Equal(t, "صفحة {page} من {pages}", res.Sections[4].Content.(ResolvedFooter).PageLabel)
	assert.Equal(t, "لا توجد بنود", res.Sections[2].Content.(ResolvedTable).EmptyText)
}

func TestContextCanonical(t *testing.T) {
	a, err := Context{"b": []Record{{"y": 2, "x": "1"}}, "a": decimal.RequireFromString("12.50")}.Canonical()
	require.NoError(t, err)
	assert.Equal(t, `{"a":decimal.Decimal("12.5"),"b":[{"x":string("1"),"y":int("2")}]}`, string(a))

	_, err = Context{"ch": make(chan int)}.Canonical()
	assert.Error(t, err)
}
