package binding_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alqadi/procuredocs"
	"github.com/alqadi/procuredocs/binding"
	"github.com/alqadi/procuredocs/doctpl"
	"github.com/alqadi/procuredocs/registry"
)

func day(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func items() []binding.LineItem {
	return []binding.LineItem{
		{SKU: "WDG-001", Description: "Widget", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("99.95")},
		{SKU: "WDG-002", Description: "Bracket", Quantity: decimal.RequireFromString("2.5"), UnitPrice: decimal.RequireFromString("400")},
	}
}

func company() binding.Company {
	return binding.Company{Name: "Al Qadi Trading", Phone: "+966112345678", Email: "sales@alqadi.example", TaxNumber: "300000000000003"}
}

func TestComputeTotals(t *testing.T) {
	b := binding.NewBuilder(doctpl.English, "SAR", decimal.RequireFromString("0.15"), "SA")
	tot := b.Compute(items())
	assert.Equal(t, "1999.5", tot.Subtotal.String())
	assert.Equal(t, "299.93", tot.Tax.String()) // 299.925 rounds half up
	assert.Equal(t, "2299.43", tot.Total.String())
}

func TestMoneyAndPhone(t *testing.T) {
	b := binding.NewBuilder(doctpl.English, "SAR", decimal.Zero, "SA")
	assert.Equal(t, "1,234.50", b.Money(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "0.00", b.Money(decimal.Zero))

	ar := binding.NewBuilder(doctpl.Arabic, "SAR", decimal.Zero, "SA")
	m := ar.Money(decimal.RequireFromString("1234.5"))
	assert.Contains(t, m, "1")
	assert.NotContains(t, m, "١", "latin digits")

	assert.True(t, strings.HasPrefix(b.Phone("0112345678"), "+966 "))
	assert.Equal(t, "not a phone", b.Phone("not a phone"))
	assert.Equal(t, "", b.Phone(""))
}

func TestPriceOfferContext(t *testing.T) {
	b := binding.NewBuilder(doctpl.English, "SAR", decimal.RequireFromString("0.15"), "SA")
	ctx, err := b.PriceOffer(binding.PriceOffer{
		Number:     "PO-1001",
		Date:       day(1),
		ValidUntil: day(31),
		Company:    company(),
		Client:     binding.Party{Name: "Gulf Builders"},
		Items:      items(),
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", ctx["documentDate"])
	assert.Equal(t, "2024-03-31", ctx["validUntil"])
	assert.Equal(t, "2,299.43", ctx["total"])
	assert.Equal(t, "", ctx["notes"])
	recs := ctx["items"].([]doctpl.Record)
	require.Len(t, recs, 2)
	assert.Equal(t, "2.5", recs[1]["quantity"])
	assert.Equal(t, "1,000.00", recs[1]["lineTotal"])

	// the context satisfies the built-in template of the category
	reg, err := registry.New(registry.Builtin())
	require.NoError(t, err)
	eng, err := procuredocs.New(reg)
	require.NoError(t, err)
	doc, err := eng.Render(context.Background(), procuredocs.Request{Category: doctpl.CategoryPriceOffer, Language: doctpl.English, Context: ctx})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Meta.PageCount)
}

func TestEveryCategoryBindsItsTemplate(t *testing.T) {
	b := binding.NewBuilder(doctpl.Arabic, "SAR", decimal.RequireFromString("0.15"), "SA")
	reg, err := registry.New(registry.Builtin())
	require.NoError(t, err)

	contexts := map[doctpl.Category]func() (doctpl.Context, error){
		doctpl.CategoryOrder: func() (doctpl.Context, error) {
			return b.Order(binding.Order{Number: "ORD-1", Date: day(1), DeliveryDate: day(10), PaymentTerms: "30 days", Company: company(), Client: binding.Party{Name: "X"}})
		},
		doctpl.CategoryInvoice: func() (doctpl.Context, error) {
			return b.Invoice(binding.Invoice{Number: "INV-1", Date: day(1), DueDate: day(15), Company: company(), Client: binding.Party{Name: "X"}, Items: items()})
		},
		doctpl.CategoryContract: func() (doctpl.Context, error) {
			return b.Contract(binding.Contract{Number: "CT-1", Date: day(1), StartDate: day(2), EndDate: day(30), PaymentTerms: "monthly", Company: company(), Client: binding.Party{Name: "X"}})
		},
	}
	for c, build := range contexts {
		ctx, err := build()
		require.NoError(t, err, c)
		vars, err := reg.Variables(c)
		require.NoError(t, err)
		for _, v := range vars {
			assert.Contains(t, ctx, v, "%s: %s", c, v)
		}
	}
}

func TestValidation(t *testing.T) {
	b := binding.NewBuilder(doctpl.English, "SAR", decimal.Zero, "SA")
	_, err := b.Invoice(binding.Invoice{
		Number:  "INV-1",
		Date:    day(10),
		DueDate: day(1),
		Company: binding.Company{Name: "Acme", Email: "not-an-email"},
		Client:  binding.Party{},
		Items:   []binding.LineItem{{SKU: "A", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(-1)}},
	})
	require.ErrorIs(t, err, binding.ErrInvalidEntity)

	var ve *binding.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, map[string]string{
		"DueDate":            "gtefield=Date",
		"Company.Email":      "email",
		"Client.Name":        "required",
		"Items[0].Quantity":  "gt=0",
		"Items[0].UnitPrice": "gte=0",
	}, ve.Fields)
}

func TestBindJSON(t *testing.T) {
	b := binding.NewBuilder(doctpl.English, "SAR", decimal.RequireFromString("0.15"), "SA")
	ctx, err := b.Bind(doctpl.CategoryOrder, []byte(`{
		"number": "PO-7",
		"date": "2024-03-01T00:00:00Z",
		"deliveryDate": "2024-03-20T00:00:00Z",
		"paymentTerms": "Net 30",
		"company": {"name": "Acme"},
		"client": {"name": "Globex"},
		"items": [{"sku": "A-1", "quantity": "2", "unitPrice": 10}]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-20", ctx["deliveryDate"])
	assert.Equal(t, "Net 30", ctx["paymentTerms"])
	assert.Equal(t, "23.00", ctx["total"])

	_, err = b.Bind(doctpl.CategoryOrder, []byte(`{"number": 7}`))
	assert.ErrorIs(t, err, binding.ErrMalformedEntity)
	assert.NotErrorIs(t, err, binding.ErrInvalidEntity)

	_, err = b.Bind(doctpl.CategoryInvoice, []byte(`{"number": "INV-1"}`))
	assert.ErrorIs(t, err, binding.ErrInvalidEntity)

	_, err = b.Bind("memo", []byte(`{}`))
	assert.Error(t, err)
}
