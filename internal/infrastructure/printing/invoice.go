// Package printing renders order invoices as HTML and converts them to PDF
// with headless Chrome.
package printing

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/invoice.html
var invoiceTemplate string

// Invoice is the data printed on an order invoice
type Invoice struct {
	Order         *ordering.Order
	CustomerName  string
	CustomerEmail string
	IssuedAt      time.Time
}

// InvoiceRenderer renders invoices from the embedded HTML template
type InvoiceRenderer struct {
	tmpl         *template.Template
	storeName    string
	storeAddress string
	tag          language.Tag
	unit         currency.Unit
	location     *time.Location
}

// NewInvoiceRenderer parses the invoice template for the configured locale
// and currency
func NewInvoiceRenderer(cfg config.PrintingConfig, currencyCode string, loc *time.Location) (*InvoiceRenderer, error) {
	tag := language.BritishEnglish
	if cfg.Locale != "" {
		parsed, err := language.Parse(cfg.Locale)
		if err != nil {
			return nil, fmt.Errorf("invalid printing locale %q: %w", cfg.Locale, err)
		}
		tag = parsed
	}
	unit, err := currency.ParseISO(strings.ToUpper(currencyCode))
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", currencyCode, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	r := &InvoiceRenderer{
		storeName:    cfg.StoreName,
		storeAddress: cfg.StoreAddress,
		tag:          tag,
		unit:         unit,
		location:     loc,
	}
	title := cases.Title(tag)
	r.tmpl, err = template.New("invoice").Funcs(template.FuncMap{
		"money": r.money,
		"date": func(t time.Time) string {
			return t.In(r.location).Format("2 Jan 2006")
		},
		"datetime": func(t time.Time) string {
			return t.In(r.location).Format("2 Jan 2006 15:04")
		},
		"label": func(s string) string {
			return title.String(strings.ReplaceAll(s, "_", " "))
		},
	}).Parse(invoiceTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return r, nil
}

// money formats an amount with the currency symbol and locale separators
func (r *InvoiceRenderer) money(d decimal.Decimal) string {
	p := message.NewPrinter(r.tag)
	return p.Sprint(currency.Symbol(r.unit)) + p.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// RenderHTML renders the invoice document
func (r *InvoiceRenderer) RenderHTML(inv Invoice) ([]byte, error) {
	if inv.Order == nil {
		return nil, errors.New("invoice requires an order")
	}
	if inv.IssuedAt.IsZero() {
		inv.IssuedAt = time.Now()
	}
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, struct {
		Invoice
		StoreName    string
		StoreAddress string
		Lang         string
	}{
		Invoice:      inv,
		StoreName:    r.storeName,
		StoreAddress: r.storeAddress,
		Lang:         r.tag.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderInvoice renders the invoice of an order for a customer
func (r *InvoiceRenderer) RenderInvoice(order *ordering.Order, customerName, customerEmail string, issuedAt time.Time) ([]byte, error) {
	return r.RenderHTML(Invoice{
		Order:         order,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		IssuedAt:      issuedAt,
	})
}
