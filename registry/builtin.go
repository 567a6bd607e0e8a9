package registry

import (
	"github.com/alqadi/procuredocs/doctpl"
)

// phrases are the fixed texts of the portal templates in one language.
type phrases struct {
	titles     map[doctpl.Category]string
	number     string
	date       string
	client     string
	address    string
	phone      string
	validUntil string
	delivery   string
	payment    string
	dueDate    string
	orderRef   string
	startDate  string
	endDate    string
	notes      string
	taxNumber  string

	sku, item, qty, unitPrice, lineTotal string
	subtotal, tax, total                 string
	empty                                string

	termsTitle    string
	offerTerms    []string
	contractTerms []string
	thanks        string
}

var portalPhrases = map[doctpl.Language]phrases{
	doctpl.English: {
		titles: map[doctpl.Category]string{
			doctpl.CategoryPriceOffer: "Price Offer",
			doctpl.CategoryOrder:      "Purchase Order",
			doctpl.CategoryInvoice:    "Tax Invoice",
			doctpl.CategoryContract:   "Supply Contract",
		},
		number:     "Number",
		date:       "Date",
		client:     "Client",
		address:    "Address",
		phone:      "Phone",
		validUntil: "Valid until",
		delivery:   "Delivery date",
		payment:    "Payment terms",
		dueDate:    "Due date",
		orderRef:   "Order reference",
		startDate:  "Start date",
		endDate:    "End date",
		notes:      "Notes",
		taxNumber:  "VAT No. {{companyTaxNumber}}",
		sku:        "SKU",
		item:       "Description",
		qty:        "Qty",
		unitPrice:  "Unit price",
		lineTotal:  "Total",
		subtotal:   "Subtotal ({{currency}})",
		tax:        "VAT ({{currency}})",
		total:      "Grand total ({{currency}})",
		empty:      "No items",
		termsTitle: "Terms and conditions",
		offerTerms: []string{
			"Prices are valid until {{validUntil}}.",
			"Prices are in {{currency}} and include VAT where stated.",
			"Delivery starts after written confirmation of this offer.",
		},
		contractTerms: []string{
			"This contract is effective from {{startDate}} until {{endDate}}.",
			"Payment terms: {{paymentTerms}}.",
			"Either party may terminate this contract with thirty days written notice.",
		},
		thanks: "Thank you for your business",
	},
	doctpl.Arabic: {
		titles: map[doctpl.Category]string{
			doctpl.CategoryPriceOffer: "عرض سعر",
			doctpl.CategoryOrder:      "أمر شراء",
			doctpl.CategoryInvoice:    "فاتورة ضريبية",
			doctpl.CategoryContract:   "عقد توريد",
		},
		number:     "الرقم",
		date:       "التاريخ",
		client:     "العميل",
		address:    "العنوان",
		phone:      "الهاتف",
		validUntil: "صالح حتى",
		delivery:   "تاريخ التسليم",
		payment:    "شروط الدفع",
		dueDate:    "تاريخ الاستحقاق",
		orderRef:   "رقم الطلب",
		startDate:  "تاريخ البدء",
		endDate:    "تاريخ الانتهاء",
		notes:      "ملاحظات",
		taxNumber:  "الرقم الضريبي {{companyTaxNumber}}",
		sku:        "رمز الصنف",
		item:       "الوصف",
		qty:        "الكمية",
		unitPrice:  "سعر الوحدة",
		lineTotal:  "الإجمالي",
		subtotal:   "المجموع الفرعي ({{currency}})",
		tax:        "ضريبة القيمة المضافة ({{currency}})",
		total:      "الإجمالي الكلي ({{currency}})",
		empty:      "لا توجد بنود",
		termsTitle: "الشروط والأحكام",
		offerTerms: []string{
			"الأسعار سارية حتى {{validUntil}}.",
			"الأسعار بعملة {{currency}} وتشمل ضريبة القيمة المضافة حيثما ذكر.",
			"يبدأ التوريد بعد التأكيد الكتابي لهذا العرض.",
		},
		contractTerms: []string{
			"يسري هذا العقد من {{startDate}} حتى {{endDate}}.",
			"شروط الدفع: {{paymentTerms}}.",
			"يحق لأي من الطرفين إنهاء العقد بإشعار كتابي مدته ثلاثون يوما.",
		},
		thanks: "شكرا لتعاملكم معنا",
	},
}

// Builtin returns the portal templates: one per category and language. The
// Arabic templates are the category defaults.
func Builtin() Config {
	var cfg Config
	for _, c := range doctpl.Categories {
		for _, lang := range []doctpl.Language{doctpl.Arabic, doctpl.English} {
			cfg.Templates = append(cfg.Templates, portalTemplate(c, lang))
		}
	}
	return cfg
}

func text(s string) doctpl.Text { return doctpl.MustParse(s) }

func field(label, value string) doctpl.Field {
	return doctpl.Field{Label: text(label), Value: text(value)}
}

func portalTemplate(c doctpl.Category, lang doctpl.Language) doctpl.Template {
	p := portalPhrases[lang]
	t := doctpl.Template{
		ID:        string(c) + "-" + string(lang),
		Name:      p.titles[c],
		Category:  c,
		Language:  lang,
		IsActive:  true,
		IsDefault: lang == doctpl.Arabic,
		Version:   1,
		Styles: doctpl.StyleSheet{
			PrimaryColor:   "#1a365d",
			SecondaryColor: "#2d3748",
			AccentColor:    "#f7fafc",
			FontSize:       10,
			HeaderHeight:   80,
			FooterHeight:   60,
			Margins:        doctpl.Margins{Top: 20, Bottom: 20, Left: 40, Right: 40},
		},
	}

	header := doctpl.HeaderContent{
		CompanyName: text("{{companyName}}"),
		Address:     text("{{companyAddress}}"),
		Contact:     text("{{companyPhone}} | {{companyEmail}}"),
		TaxNumber:   text(p.taxNumber),
		Logo:        text("{{companyLogo}}"),
		ShowLogo:    true,
	}

	fields := []doctpl.Field{
		field(p.number, "{{documentNumber}}"),
		field(p.date, "{{documentDate}}"),
	}
	switch c {
	case doctpl.CategoryPriceOffer:
		fields = append(fields, field(p.validUntil, "{{validUntil}}"))
	case doctpl.CategoryOrder:
		fields = append(fields, field(p.delivery, "{{deliveryDate}}"), field(p.payment, "{{paymentTerms}}"))
	case doctpl.CategoryInvoice:
		fields = append(fields, field(p.dueDate, "{{dueDate}}"), field(p.orderRef, "{{orderNumber}}"))
	case doctpl.CategoryContract:
		fields = append(fields, field(p.startDate, "{{startDate}}"), field(p.endDate, "{{endDate}}"))
	}
	fields = append(fields,
		field(p.client, "{{clientName}}"),
		field(p.address, "{{clientAddress}}"),
		field(p.phone, "{{clientPhone}}"),
	)

	items := doctpl.TableContent{
		Columns: []doctpl.Column{
			{Header: text(p.sku), Field: "sku", Width: 70},
			{Header: text(p.item), Field: "description"},
			{Header: text(p.qty), Field: "quantity", Width: 45, Align: "center"},
			{Header: text(p.unitPrice), Field: "unitPrice", Width: 75, Align: "end"},
			{Header: text(p.lineTotal), Field: "lineTotal", Width: 85, Align: "end"},
		},
		DataSource:         text("{{items}}"),
		ShowBorders:        true,
		AlternateRowColors: true,
		EmptyText:          text(p.empty),
		Totals: []doctpl.Field{
			field(p.subtotal, "{{subtotal}}"),
			field(p.tax, "{{taxAmount}}"),
			field(p.total, "{{total}}"),
		},
	}

	footer := doctpl.FooterContent{
		Text:        text(p.thanks),
		Contact:     text("{{companyPhone}} | {{companyEmail}}"),
		PageNumbers: true,
	}
	switch c {
	case doctpl.CategoryInvoice:
		footer.Barcode = &doctpl.Barcode{Kind: doctpl.BarcodeQR, Value: text("{{documentNumber}}")}
	case doctpl.CategoryOrder:
		footer.Barcode = &doctpl.Barcode{Kind: doctpl.BarcodeCode128, Value: text("{{documentNumber}}"), Size: 24}
	case doctpl.CategoryContract:
		footer.Barcode = &doctpl.Barcode{Kind: doctpl.BarcodePDF417, Value: text("{{documentNumber}}"), Size: 24}
	}

	t.Sections = []doctpl.Section{
		{Type: doctpl.SectionHeader, Order: 1, Content: header},
		{Type: doctpl.SectionBody, Order: 2, Content: doctpl.BodyContent{Title: text(p.titles[c]), Fields: fields}},
		{Type: doctpl.SectionSpacer, Order: 3, Content: doctpl.SpacerContent{Height: 12}},
		{Type: doctpl.SectionTable, Order: 4, Content: items},
		{Type: doctpl.SectionBody, Order: 5, When: `notes != ""`, Content: doctpl.BodyContent{
			Fields: []doctpl.Field{field(p.notes, "{{notes}}")},
		}},
		{Type: doctpl.SectionFooter, Order: 10, Content: footer},
	}
	var terms []string
	switch c {
	case doctpl.CategoryPriceOffer:
		terms = p.offerTerms
	case doctpl.CategoryContract:
		terms = p.contractTerms
	}
	if len(terms) > 0 {
		tc := doctpl.TermsContent{Title: text(p.termsTitle)}
		for _, s := range terms {
			tc.Items = append(tc.Items, text(s))
		}
		t.Sections = append(t.Sections, doctpl.Section{Type: doctpl.SectionTerms, Order: 6, Content: tc})
	}

	t.Variables = t.Placeholders()
	return t
}
