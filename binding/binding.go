// Package binding builds the flat binding context the built-in templates
// expect from typed business entities.
//
// Entities are validated first. Money is computed with exact decimals
// (line totals, subtotal, tax rounded half up to two places, total) and
// formatted for the document language with Latin digits. Phone numbers are
// formatted in international form when they parse.
package binding

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/alqadi/procuredocs/doctpl"
)

// DateLayout is the layout of every date in a binding context.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidEntity is matched by every *ValidationError.
	ErrInvalidEntity = errors.New("binding: invalid entity")
	// ErrMalformedEntity is returned by Bind for JSON that does not decode.
	ErrMalformedEntity = errors.New("binding: malformed entity")
)

// ValidationError lists the failed fields of an entity with the rule each
// one broke, keyed by namespaced field name such as "Items[0].Quantity".
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "binding: invalid entity: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidEntity }

// Builder turns entities into binding contexts.
type Builder struct {
	Language doctpl.Language
	Currency string          // ISO 4217 code printed next to amounts
	TaxRate  decimal.Decimal // e.g. 0.15 for 15% VAT
	Region   string          // default phone region, e.g. "SA"

	validate *validator.Validate
	printer  *message.Printer
}

// NewBuilder returns a builder for documents in lang.
func NewBuilder(lang doctpl.Language, currency string, taxRate decimal.Decimal, region string) *Builder {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	tag, err := language.Parse(string(lang) + "-u-nu-latn")
	if err != nil {
		tag = language.English
	}
	return &Builder{
		Language: lang,
		Currency: currency,
		TaxRate:  taxRate,
		Region:   region,
		validate: v,
		printer:  message.NewPrinter(tag),
	}
}

func (b *Builder) check(entity any) error {
	err := b.validate.Struct(entity)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("binding: %w", err)
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		name := fe.Namespace()
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[name] = rule
	}
	return &ValidationError{Fields: fields}
}

// Money formats an amount with two decimals and grouping.
func (b *Builder) Money(d decimal.Decimal) string {
	return b.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// Phone formats a phone number internationally. Numbers that do not parse
// are returned unchanged.
func (b *Builder) Phone(s string) string {
	if s == "" {
		return ""
	}
	p, err := libphonenumber.Parse(s, b.Region)
	if err != nil {
		return s
	}
	return libphonenumber.Format(p, libphonenumber.INTERNATIONAL)
}

// Date formats t as DateLayout. The zero time is empty.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// Totals are the computed amounts of a list of line items.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Compute returns the totals of items at the builder's tax rate.
func (b *Builder) Compute(items []LineItem) Totals {
	sub := decimal.Zero
	for _, it := range items {
		sub = sub.Add(it.Total())
	}
	tax := sub.Mul(b.TaxRate).Round(2)
	return Totals{Subtotal: sub, Tax: tax, Total: sub.Add(tax)}
}

func (b *Builder) base(number string, date time.Time, company Company, client Party, items []LineItem, notes string) doctpl.Context {
	recs := make([]doctpl.Record, len(items))
	for i, it := range items {
		recs[i] = doctpl.Record{
			"sku":         it.SKU,
			"description": it.Description,
			"quantity":    it.Quantity.String(),
			"unitPrice":   b.Money(it.UnitPrice),
			"lineTotal":   b.Money(it.Total()),
		}
	}
	t := b.Compute(items)
	return doctpl.Context{
		"companyName":      company.Name,
		"companyAddress":   company.Address,
		"companyPhone":     b.Phone(company.Phone),
		"companyEmail":     company.Email,
		"companyTaxNumber": company.TaxNumber,
		"companyLogo":      company.Logo,
		"clientName":       client.Name,
		"clientAddress":    client.Address,
		"clientPhone":      b.Phone(client.Phone),
		"documentNumber":   number,
		"documentDate":     Date(date),
		"currency":         b.Currency,
		"items":            recs,
		"subtotal":         b.Money(t.Subtotal),
		"taxAmount":        b.Money(t.Tax),
		"total":            b.Money(t.Total),
		"notes":            notes,
	}
}

// PriceOffer returns the context of a price offer.
func (b *Builder) PriceOffer(o PriceOffer) (doctpl.Context, error) {
	if err := b.check(o); err != nil {
		return nil, err
	}
	ctx := b.base(o.Number, o.Date, o.Company, o.Client, o.Items, o.Notes)
	ctx["validUntil"] = Date(o.ValidUntil)
	return ctx, nil
}

// Order returns the context of a purchase order.
func (b *Builder) Order(o Order) (doctpl.Context, error) {
	if err := b.check(o); err != nil {
		return nil, err
	}
	ctx := b.base(o.Number, o.Date, o.Company, o.Client, o.Items, o.Notes)
	ctx["deliveryDate"] = Date(o.DeliveryDate)
	ctx["paymentTerms"] = o.PaymentTerms
	return ctx, nil
}

// Invoice returns the context of a tax invoice.
func (b *Builder) Invoice(inv Invoice) (doctpl.Context, error) {
	if err := b.check(inv); err != nil {
		return nil, err
	}
	ctx := b.base(inv.Number, inv.Date, inv.Company, inv.Client, inv.Items, inv.Notes)
	ctx["dueDate"] = Date(inv.DueDate)
	ctx["orderNumber"] = inv.OrderNumber
	return ctx, nil
}

// Contract returns the context of a supply contract.
func (b *Builder) Contract(c Contract) (doctpl.Context, error) {
	if err := b.check(c); err != nil {
		return nil, err
	}
	ctx := b.base(c.Number, c.Date, c.Company, c.Client, c.Items, c.Notes)
	ctx["startDate"] = Date(c.StartDate)
	ctx["endDate"] = Date(c.EndDate)
	ctx["paymentTerms"] = c.PaymentTerms
	return ctx, nil
}

// Bind decodes a JSON entity of the given category and returns its context.
func (b *Builder) Bind(category doctpl.Category, data []byte) (doctpl.Context, error) {
	switch category {
	case doctpl.CategoryPriceOffer:
		return bind(data, category, b.PriceOffer)
	case doctpl.CategoryOrder:
		return bind(data, category, b.Order)
	case doctpl.CategoryInvoice:
		return bind(data, category, b.Invoice)
	case doctpl.CategoryContract:
		return bind(data, category, b.Contract)
	}
	return nil, fmt.Errorf("binding: no entity for category %q", category)
}

func bind[T any](data []byte, category doctpl.Category, build func(T) (doctpl.Context, error)) (doctpl.Context, error) {
	var e T
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedEntity, category, err)
	}
	return build(e)
}
