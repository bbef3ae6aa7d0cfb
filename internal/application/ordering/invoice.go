package ordering

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InvoiceRenderer renders an order invoice as HTML
type InvoiceRenderer interface {
	RenderInvoice(order *ordering.Order, customerName, customerEmail string, issuedAt time.Time) ([]byte, error)
}

// PDFConverter prints HTML to PDF
type PDFConverter interface {
	HTMLToPDF(ctx context.Context, html []byte) ([]byte, error)
}

// Invoice formats
const (
	InvoiceFormatHTML = "html"
	InvoiceFormatPDF  = "pdf"
)

// ErrInvoiceUnavailable is returned when invoices are not configured
var ErrInvoiceUnavailable = shared.NewDomainError("INVOICE_UNAVAILABLE", "Invoice rendering is not available")

// Document is a rendered file
type Document struct {
	FileName    string
	ContentType string
	Body        []byte
}

// Invoice renders the invoice of an order as HTML or PDF
func (s *Service) Invoice(ctx context.Context, id uuid.UUID, format string) (*Document, error) {
	if s.invoices == nil {
		return nil, ErrInvoiceUnavailable
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, email := order.Address.RecipientName, ""
	user, err := s.users.FindByID(ctx, order.UserID)
	switch {
	case err == nil:
		name, email = user.Name, user.Email
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	html, err := s.invoices.RenderInvoice(order, name, email, s.now())
	if err != nil {
		return nil, err
	}
	if format != InvoiceFormatPDF {
		return &Document{
			FileName:    order.OrderNumber + ".html",
			ContentType: "text/html; charset=utf-8",
			Body:        html,
		}, nil
	}

	if s.pdf == nil {
		return nil, ErrInvoiceUnavailable
	}
	pdf, err := s.pdf.HTMLToPDF(ctx, html)
	if err != nil {
		s.logger.Error("invoice pdf failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return nil, ErrInvoiceUnavailable
	}
	return &Document{
		FileName:    order.OrderNumber + ".pdf",
		ContentType: "application/pdf",
		Body:        pdf,
	}, nil
}
