// Package doctpl provides the declarative, section-based document template
// model used to generate procurement documents (price offers, orders,
// invoices, contracts).
//
// A Template is an ordered list of typed sections whose string fields may
// reference variables with {{name}} placeholders. Templates are plain data:
// they are decoded from YAML or JSON (or declared in Go), validated once,
// and then resolved against a flat binding Context for every render.
//
// Example YAML:
//
//	id: price-offer-en
//	category: price_offer
//	language: en
//	isActive: true
//	isDefault: true
//	variables: [companyName, offerNumber, products]
//	sections:
//	  - type: header
//	    order: 1
//	    content:
//	      companyName: "{{companyName}}"
//	  - type: table
//	    order: 2
//	    content:
//	      dataSource: "{{products}}"
//	      columns:
//	        - {header: SKU, field: sku}
//	        - {header: Qty, field: qty, align: end}
package doctpl

import (
	"golang.org/x/text/language"
)

// Category is the business document type a template is designed for.
type Category string

const (
	CategoryPriceOffer Category = "price_offer"
	CategoryOrder      Category = "order"
	CategoryInvoice    Category = "invoice"
	CategoryContract   Category = "contract"
)

// Categories lists the built-in categories. Registries accept others too.
var Categories = []Category{CategoryPriceOffer, CategoryOrder, CategoryInvoice, CategoryContract}

// Language is a BCP 47 language tag, "ar" or "en" in practice.
type Language string

const (
	Arabic  Language = "ar"
	English Language = "en"
)

var rtlBases = map[string]bool{"ar": true, "fa": true, "he": true, "ur": true}

// Tag parses the language tag.
func (l Language) Tag() (language.Tag, error) {
	return language.Parse(string(l))
}

// RTL reports whether the language is written right to left.
func (l Language) RTL() bool {
	tag, err := l.Tag()
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	return rtlBases[base.String()]
}

// Template describes an entire document.
type Template struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name,omitempty" json:"name,omitempty"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Category    Category   `yaml:"category" json:"category"`
	Language    Language   `yaml:"language" json:"language"`
	Sections    []Section  `yaml:"sections" json:"sections"`
	Variables   []string   `yaml:"variables" json:"variables"`
	Styles      StyleSheet `yaml:"styles" json:"styles"`
	IsActive    bool       `yaml:"isActive" json:"isActive"`
	IsDefault   bool       `yaml:"isDefault" json:"isDefault"`
	Version     int        `yaml:"version" json:"version"`
}

// HeaderMode controls on which pages the header band is drawn.
type HeaderMode string

// FooterMode controls on which pages the footer band is drawn.
type FooterMode string

const (
	HeaderEveryPage HeaderMode = "every_page"
	HeaderFirstPage HeaderMode = "first_page"

	FooterEveryPage FooterMode = "every_page"
	FooterLastPage  FooterMode = "last_page"
)

// Margins defines page margins in points.
type Margins struct {
	Top    float64 `yaml:"top" json:"top"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
	Right  float64 `yaml:"right" json:"right"`
}

// StyleSheet holds the global style parameters of a template. Lengths are
// in points, colors are "#rrggbb".
type StyleSheet struct {
	PrimaryColor   string     `yaml:"primaryColor" json:"primaryColor"`
	SecondaryColor string     `yaml:"secondaryColor" json:"secondaryColor"`
	AccentColor    string     `yaml:"accentColor" json:"accentColor"`
	FontFamily     string     `yaml:"fontFamily" json:"fontFamily"`
	FontSize       float64    `yaml:"fontSize" json:"fontSize"`
	HeaderHeight   float64    `yaml:"headerHeight" json:"headerHeight"`
	FooterHeight   float64    `yaml:"footerHeight" json:"footerHeight"`
	Margins        Margins    `yaml:"margins" json:"margins"`
	PageSize       string     `yaml:"pageSize,omitempty" json:"pageSize,omitempty"` // A4, Letter, Legal (default: A4)
	HeaderMode     HeaderMode `yaml:"headerMode,omitempty" json:"headerMode,omitempty"`
	FooterMode     FooterMode `yaml:"footerMode,omitempty" json:"footerMode,omitempty"`
	Letterhead     string     `yaml:"letterhead,omitempty" json:"letterhead,omitempty"` // PDF stamped under every page
	Watermark      string     `yaml:"watermark,omitempty" json:"watermark,omitempty"`   // diagonal text over every page
}

// WithDefaults returns a copy with unset fields filled in.
func (s StyleSheet) WithDefaults() StyleSheet {
	if s.PrimaryColor == "" {
		s.PrimaryColor = "#1a365d"
	}
	if s.SecondaryColor == "" {
		s.SecondaryColor = "#2d3748"
	}
	if s.AccentColor == "" {
		s.AccentColor = "#f7fafc"
	}
	if s.FontSize == 0 {
		s.FontSize = 10
	}
	if s.HeaderHeight == 0 {
		s.HeaderHeight = 80
	}
	if s.FooterHeight == 0 {
		s.FooterHeight = 60
	}
	if s.Margins == (Margins{}) {
		s.Margins = Margins{Top: 20, Bottom: 20, Left: 40, Right: 40}
	}
	if s.PageSize == "" {
		s.PageSize = "A4"
	}
	if s.HeaderMode == "" {
		s.HeaderMode = HeaderEveryPage
	}
	if s.FooterMode == "" {
		s.FooterMode = FooterEveryPage
	}
	return s
}

// PageSizes maps supported page size names to width and height in points.
var PageSizes = map[string][2]float64{
	"A4":     {595.28, 841.89},
	"A5":     {419.53, 595.28},
	"Letter": {612, 792},
	"Legal":  {612, 1008},
}

// SectionType is the closed set of section kinds.
type SectionType string

const (
	SectionHeader SectionType = "header"
	SectionBody   SectionType = "body"
	SectionTable  SectionType = "table"
	SectionSpacer SectionType = "spacer"
	SectionTerms  SectionType = "terms"
	SectionFooter SectionType = "footer"
)

// Section is one ordered, typed unit of document content.
type Section struct {
	Type  SectionType `yaml:"type" json:"type"`
	Order int         `yaml:"order" json:"order"`
	// When is an optional boolean expression over the binding context; the
	// section is left out when it evaluates to false.
	When    string  `yaml:"when,omitempty" json:"when,omitempty"`
	Content Content `yaml:"-" json:"content"`
}

// Content is the type-specific payload of a section.
type Content interface {
	SectionType() SectionType
	texts() []Text
}

// Field is a labelled value.
type Field struct {
	Label Text `yaml:"label" json:"label"`
	Value Text `yaml:"value" json:"value"`
}

// HeaderContent is the company identity block.
type HeaderContent struct {
	CompanyName Text `yaml:"companyName" json:"companyName"`
	Address     Text `yaml:"address,omitempty" json:"address,omitempty"`
	Contact     Text `yaml:"contact,omitempty" json:"contact,omitempty"`
	TaxNumber   Text `yaml:"taxNumber,omitempty" json:"taxNumber,omitempty"`
	Logo        Text `yaml:"logo,omitempty" json:"logo,omitempty"` // image path
	ShowLogo    bool `yaml:"showLogo,omitempty" json:"showLogo,omitempty"`
}

// BodyContent is a title followed by labelled lines.
type BodyContent struct {
	Title  Text    `yaml:"title,omitempty" json:"title,omitempty"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Column binds a table column to a named record field.
type Column struct {
	Header Text    `yaml:"header" json:"header"`
	Field  string  `yaml:"field" json:"field"`
	Width  float64 `yaml:"width,omitempty" json:"width,omitempty"` // points, 0 = share remaining space
	Align  string  `yaml:"align,omitempty" json:"align,omitempty"` // start, center, end
}

// TableContent is a grid bound to an array of records.
type TableContent struct {
	Columns            []Column `yaml:"columns" json:"columns"`
	DataSource         Text     `yaml:"dataSource" json:"dataSource"`
	ShowBorders        bool     `yaml:"showBorders,omitempty" json:"showBorders,omitempty"`
	AlternateRowColors bool     `yaml:"alternateRowColors,omitempty" json:"alternateRowColors,omitempty"`
	EmptyText          Text     `yaml:"emptyText,omitempty" json:"emptyText,omitempty"`
	Totals             []Field  `yaml:"totals,omitempty" json:"totals,omitempty"`
}

// Headers returns the column headers in declaration order.
func (c TableContent) Headers() []Text {
	hs := make([]Text, len(c.Columns))
	for i, col := range c.Columns {
		hs[i] = col.Header
	}
	return hs
}

// SpacerContent reserves vertical space.
type SpacerContent struct {
	Height float64 `yaml:"height" json:"height"`
}

// TermsContent is a titled bulleted list.
type TermsContent struct {
	Title Text   `yaml:"title,omitempty" json:"title,omitempty"`
	Items []Text `yaml:"items" json:"items"`
}

// Barcode kinds.
const (
	BarcodeQR      = "qr"
	BarcodeCode128 = "code128"
	BarcodePDF417  = "pdf417"
)

// Barcode is an optional machine-readable code in the footer.
type Barcode struct {
	Kind  string  `yaml:"kind" json:"kind"`
	Value Text    `yaml:"value" json:"value"`
	Size  float64 `yaml:"size,omitempty" json:"size,omitempty"` // points, default 48
}

// FooterContent is the closing block of every page.
type FooterContent struct {
	Text        Text     `yaml:"text,omitempty" json:"text,omitempty"`
	Contact     Text     `yaml:"contact,omitempty" json:"contact,omitempty"`
	PageNumbers bool     `yaml:"pageNumbers,omitempty" json:"pageNumbers,omitempty"`
	PageLabel   Text     `yaml:"pageLabel,omitempty" json:"pageLabel,omitempty"` // {page} and {pages} tokens
	Barcode     *Barcode `yaml:"barcode,omitempty" json:"barcode,omitempty"`
}

func (HeaderContent) SectionType() SectionType { return SectionHeader }
func (BodyContent) SectionType() SectionType   { return SectionBody }
func (TableContent) SectionType() SectionType  { return SectionTable }
func (SpacerContent) SectionType() SectionType { return SectionSpacer }
func (TermsContent) SectionType() SectionType  { return SectionTerms }
func (FooterContent) SectionType() SectionType { return SectionFooter }

func (c HeaderContent) texts() []Text {
	return []Text{c.CompanyName, c.Address, c.Contact, c.TaxNumber, c.Logo}
}

func (c BodyContent) texts() []Text {
	ts := []Text{c.Title}
	for _, f := range c.Fields {
		ts = append(ts, f.Label, f.Value)
	}
	return ts
}

func (c TableContent) texts() []Text {
	ts := []Text{c.DataSource, c.EmptyText}
	for _, col := range c.Columns {
		ts = append(ts, col.Header)
	}
	for _, f := range c.Totals {
		ts = append(ts, f.Label, f.Value)
	}
	return ts
}

func (SpacerContent) texts() []Text { return nil }

func (c TermsContent) texts() []Text {
	return append([]Text{c.Title}, c.Items...)
}

func (c FooterContent) texts() []Text {
	ts := []Text{c.Text, c.Contact, c.PageLabel}
	if c.Barcode != nil {
		ts = append(ts, c.Barcode.Value)
	}
	return ts
}
