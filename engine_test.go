package procuredocs_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alqadi/procuredocs"
	"github.com/alqadi/procuredocs/assemble"
	"github.com/alqadi/procuredocs/canvas"
	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/layout"
	"github.com/alqadi/procuredocs/registry"
)

func newEngine(t *testing.T, opts ...procuredocs.Option) *procuredocs.Engine {
	t.Helper()
	reg, err := registry.New(registry.Builtin())
	require.NoError(t, err)
	eng, err := procuredocs.New(reg, opts...)
	require.NoError(t, err)
	return eng
}

func offerContext(items int) doctpl.Context {
	recs := make([]doctpl.Record, items)
	for i := range recs {
		recs[i] = doctpl.Record{
			"sku":         fmt.Sprintf("WDG-%03d", i+1),
			"description": "Steel bracket 40mm",
			"quantity":    10,
			"unitPrice":   "12.50",
			"lineTotal":   "125.00",
		}
	}
	return doctpl.Context{
		"companyName":      "Al Qadi Trading",
		"companyAddress":   "King Fahd Road, Riyadh",
		"companyPhone":     "+966 11 234 5678",
		"companyEmail":     "sales@alqadi.example",
		"companyTaxNumber": "300000000000003",
		"companyLogo":      "",
		"documentNumber":   "PO-1001",
		"documentDate":     "2024-03-01",
		"validUntil":       "2024-03-31",
		"clientName":       "Gulf Builders",
		"clientAddress":    "Jeddah",
		"clientPhone":      "+966 12 000 0000",
		"currency":         "SAR",
		"items":            recs,
		"subtotal":         "123.45 USD",
		"taxAmount":        "18.52",
		"total":            "141.97",
		"notes":            "",
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	eng := newEngine(t, procuredocs.WithClock(func() time.Time {
		return time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("AST", 3*3600))
	}))
	req := procuredocs.Request{Category: doctpl.CategoryPriceOffer, Language: doctpl.English, Context: offerContext(3)}

	a, err := eng.Render(context.Background(), req)
	require.NoError(t, err)
	b, err := eng.Render(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a.Bytes, b.Bytes))
	assert.Equal(t, a.Meta.Checksum, b.Meta.Checksum)
	assert.Len(t, a.Meta.Checksum, 64)
	assert.NotEqual(t, a.Meta.ID, b.Meta.ID)
	assert.True(t, bytes.HasPrefix(a.Bytes, []byte("%PDF")))

	assert.Equal(t, "price_offer-en", a.Meta.TemplateID)
	assert.Equal(t, 1, a.Meta.TemplateVersion)
	assert.Equal(t, doctpl.English, a.Meta.Language)
	assert.Equal(t, len(a.Bytes), a.Meta.ByteSize)
	assert.Equal(t, 1, a.Meta.PageCount)
	assert.Equal(t, time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC), a.Meta.GeneratedAt)
}

func TestRenderFailsFastOnMissingVariables(t *testing.T) {
	eng := newEngine(t)
	ctx := offerContext(1)
	delete(ctx, "total")

	doc, err := eng.Render(context.Background(), procuredocs.Request{Category: doctpl.CategoryPriceOffer, Context: ctx})
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, procuredocs.ErrMissingVariables)

	var missing *procuredocs.MissingVariablesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"total"}, missing.Names)

	var re *procuredocs.RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Render", re.Op)
	assert.Equal(t, "price_offer-ar", re.TemplateID)
}

func TestRenderTypeMismatch(t *testing.T) {
	eng := newEngine(t)
	ctx := offerContext(1)
	ctx["items"] = "not a list"
	_, err := eng.Render(context.Background(), procuredocs.Request{Category: doctpl.CategoryPriceOffer, Context: ctx})
	assert.ErrorIs(t, err, procuredocs.ErrTypeMismatch)
}

func TestRenderUnknownTemplate(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.Render(context.Background(), procuredocs.Request{Category: doctpl.CategoryInvoice, TemplateID: "price_offer-ar"})
	assert.ErrorIs(t, err, procuredocs.ErrTemplateNotFound)
}

func TestRenderMissingLogo(t *testing.T) {
	eng := newEngine(t)
	ctx := offerContext(1)
	ctx["companyLogo"] = "/nonexistent/logo.png"
	_, err := eng.Render(context.Background(), procuredocs.Request{Category: doctpl.CategoryPriceOffer, Context: ctx})
	assert.ErrorIs(t, err, procuredocs.ErrSectionRender)

	var se *procuredocs.SectionRenderError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, doctpl.SectionHeader, se.Type)
}

func stampedFooter(p assemble.Page) string {
	for _, op := range p.Footer.Ops {
		if t, ok := op.(layout.TextOp); ok && strings.HasPrefix(t.Text, "صفحة") {
			return t.Text
		}
	}
	return ""
}

func TestArabicPriceOfferSingleProduct(t *testing.T) {
	eng := newEngine(t)
	l, err := eng.Layout(context.Background(), procuredocs.Request{Category: doctpl.CategoryPriceOffer, Context: offerContext(1)})
	require.NoError(t, err)
	require.Equal(t, 1, l.PageCount())
	assert.True(t, l.RTL)

	rows := 0
	var total layout.TextOp
	for _, pl := range l.Pages[0].Placements {
		switch pl.Block.Label {
		case "table.row":
			rows++
		case "table.total":
			if total.Text == "" {
				total = pl.Block.Ops[len(pl.Block.Ops)-1].(layout.TextOp)
			}
		}
	}
	assert.Equal(t, 1, rows)
	assert.Equal(t, "صفحة 1 من 1", stampedFooter(l.Pages[0]))

	// mixed content is kept in logical order; digits are never reversed
	assert.Equal(t, "123.45 USD", total.Text)
	assert.True(t, total.RTL)
	assert.Contains(t, canvas.Visual(total.Text, true), "123.45")
}

func TestLongTableRepeatsHeader(t *testing.T) {
	eng := newEngine(t)
	l, err := eng.Layout(context.Background(), procuredocs.Request{Category: doctpl.CategoryInvoice, Context: invoiceContext(offerContext(60))})
	require.NoError(t, err)
	require.GreaterOrEqual(t, l.PageCount(), 2)
	for i, p := range l.Pages {
		assert.Equal(t, fmt.Sprintf("صفحة %d من %d", i+1, l.PageCount()), stampedFooter(p))
		if i > 0 {
			assert.Equal(t, "table.header", p.Placements[0].Block.Label)
		}
	}
}

func TestLongNotesSpanPages(t *testing.T) {
	eng := newEngine(t)
	ctx := offerContext(1)
	ctx["notes"] = strings.Repeat("Delivery is made to the site warehouse during working hours only. ", 150)
	req := procuredocs.Request{Category: doctpl.CategoryPriceOffer, Language: doctpl.English, Context: ctx}

	l, err := eng.Layout(context.Background(), req)
	require.NoError(t, err)
	require.GreaterOrEqual(t, l.PageCount(), 2)
	// the client fields are all on page one, so field lines on page two
	// belong to the notes
	var onSecond int
	for _, pl := range l.Pages[1].Placements {
		if pl.Block.Label == "body.field" {
			onSecond++
		}
	}
	assert.Greater(t, onSecond, 1)

	doc, err := eng.Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, l.PageCount(), doc.Meta.PageCount)
}

func TestTypedNilIsMissing(t *testing.T) {
	eng := newEngine(t)
	ctx := offerContext(1)
	ctx["total"] = (*decimal.Decimal)(nil)

	doc, err := eng.Render(context.Background(), procuredocs.Request{Category: doctpl.CategoryPriceOffer, Context: ctx})
	assert.Nil(t, doc)
	var missing *procuredocs.MissingVariablesError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Equal(t, []string{"total"}, missing.Names)
}

func invoiceContext(ctx doctpl.Context) doctpl.Context {
	delete(ctx, "validUntil")
	ctx["dueDate"] = "2024-04-01"
	ctx["orderNumber"] = "ORD-77"
	return ctx
}

func TestRenderEveryBuiltinTemplate(t *testing.T) {
	eng := newEngine(t)
	for _, tpl := range eng.Registry().Templates() {
		ctx := offerContext(2)
		for _, v := range tpl.Variables {
			if _, ok := ctx[v]; !ok {
				ctx[v] = "x"
			}
		}
		doc, err := eng.RenderTemplate(context.Background(), tpl, ctx)
		require.NoError(t, err, tpl.ID)
		assert.Equal(t, tpl.ID, doc.Meta.TemplateID)
		assert.Equal(t, tpl.Category, doc.Meta.Category)
	}
}

func TestRenderBatch(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.InfoLevel)
	eng := newEngine(t, procuredocs.WithConcurrency(2), procuredocs.WithLogger(log))

	reqs := []procuredocs.Request{
		{Category: doctpl.CategoryPriceOffer, Language: doctpl.English, Context: offerContext(1)},
		{Category: doctpl.CategoryPriceOffer, Context: offerContext(2)},
		{Category: doctpl.CategoryPriceOffer, Language: doctpl.English, Context: offerContext(3)},
	}
	docs, err := eng.RenderBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "price_offer-en", docs[0].Meta.TemplateID)
	assert.Equal(t, "price_offer-ar", docs[1].Meta.TemplateID)
	assert.Len(t, hook.AllEntries(), 3)

	bad := offerContext(1)
	delete(bad, "currency")
	_, err = eng.RenderBatch(context.Background(), append(reqs, procuredocs.Request{Category: doctpl.CategoryPriceOffer, Context: bad}))
	assert.ErrorIs(t, err, procuredocs.ErrMissingVariables)
}

func TestRenderCancelled(t *testing.T) {
	eng := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.Render(ctx, procuredocs.Request{Category: doctpl.CategoryPriceOffer, Context: offerContext(1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRequiresRegistry(t *testing.T) {
	_, err := procuredocs.New(nil)
	assert.Error(t, err)
}
