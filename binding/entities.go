package binding

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is the issuing company shown in the header.
type Company struct {
	Name      string `json:"name" validate:"required"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email" validate:"omitempty,email"`
	TaxNumber string `json:"taxNumber"`
	Logo      string `json:"logo"` // image path, empty for none
}

// Party is the counterparty of a document.
type Party struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// LineItem is one product line.
type LineItem struct {
	SKU         string          `json:"sku" validate:"required"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice" validate:"gte=0"`
}

// Total returns quantity times unit price.
func (l LineItem) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// PriceOffer is a quotation sent to a client.
type PriceOffer struct {
	Number     string     `json:"number" validate:"required"`
	Date       time.Time  `json:"date" validate:"required"`
	ValidUntil time.Time  `json:"validUntil" validate:"required,gtefield=Date"`
	Company    Company    `json:"company"`
	Client     Party      `json:"client"`
	Items      []LineItem `json:"items" validate:"dive"`
	Notes      string     `json:"notes"`
}

// Order is a purchase order.
type Order struct {
	Number       string     `json:"number" validate:"required"`
	Date         time.Time  `json:"date" validate:"required"`
	DeliveryDate time.Time  `json:"deliveryDate" validate:"required,gtefield=Date"`
	PaymentTerms string     `json:"paymentTerms" validate:"required"`
	Company      Company    `json:"company"`
	Client       Party      `json:"client"`
	Items        []LineItem `json:"items" validate:"dive"`
	Notes        string     `json:"notes"`
}

// Invoice is a tax invoice, optionally referencing an order.
type Invoice struct {
	Number      string     `json:"number" validate:"required"`
	Date        time.Time  `json:"date" validate:"required"`
	DueDate     time.Time  `json:"dueDate" validate:"required,gtefield=Date"`
	OrderNumber string     `json:"orderNumber"`
	Company     Company    `json:"company"`
	Client      Party      `json:"client"`
	Items       []LineItem `json:"items" validate:"dive"`
	Notes       string     `json:"notes"`
}

// Contract is a supply contract over a period.
type Contract struct {
	Number       string     `json:"number" validate:"required"`
	Date         time.Time  `json:"date" validate:"required"`
	StartDate    time.Time  `json:"startDate" validate:"required"`
	EndDate      time.Time  `json:"endDate" validate:"required,gtfield=StartDate"`
	PaymentTerms string     `json:"paymentTerms" validate:"required"`
	Company      Company    `json:"company"`
	Client       Party      `json:"client"`
	Items        []LineItem `json:"items" validate:"dive"`
	Notes        string     `json:"notes"`
}
