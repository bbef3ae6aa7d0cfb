// Package analytics builds the admin dashboard from the sales read model.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/report"
	"github.com/grocer/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultRangeDays = 30
	maxRangeDays     = 366
	topProductLimit  = 10
	lowStockLimit    = 20
	voucherLimit     = 10
)

var ErrInvalidRange = shared.NewDomainError("INVALID_RANGE", "The date range is invalid")

// DashboardQuery selects the reporting window. Both dates are inclusive
// calendar days; the default is the last 30 days.
type DashboardQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// LowStockItem is a product at or below its alert threshold
type LowStockItem struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	Threshold int       `json:"threshold"`
}

// Dashboard is the admin summary for a period
type Dashboard struct {
	From               string                     `json:"from"`
	To                 string                     `json:"to"`
	Sales              report.SalesSummary        `json:"sales"`
	OrdersByStatus     []report.StatusCount       `json:"orders_by_status"`
	RevenueByDay       []report.DailyRevenue      `json:"revenue_by_day"`
	TopProducts        []report.ProductRanking    `json:"top_products"`
	VoucherRedemptions []report.VoucherRedemption `json:"voucher_redemptions"`
	NewCustomers       int64                      `json:"new_customers"`
	LowStock           []LowStockItem             `json:"low_stock"`
}

// DashboardService assembles the dashboard
type DashboardService struct {
	sales    report.SalesReportRepository
	products catalog.ProductRepository
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService creates a new DashboardService. Days are bucketed in
// location, UTC when nil.
func NewDashboardService(sales report.SalesReportRepository, products catalog.ProductRepository, location *time.Location, logger *zap.Logger) *DashboardService {
	if location == nil {
		location = time.UTC
	}
	return &DashboardService{
		sales:    sales,
		products: products,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// Dashboard returns the summary for the queried period
func (s *DashboardService) Dashboard(ctx context.Context, q DashboardQuery) (*Dashboard, error) {
	p, err := s.period(q)
	if err != nil {
		return nil, err
	}

	summary, err := s.sales.SalesSummary(ctx, p)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.sales.OrdersByStatus(ctx, p)
	if err != nil {
		return nil, err
	}
	byDay, err := s.sales.RevenueByDay(ctx, p)
	if err != nil {
		return nil, err
	}
	top, err := s.sales.TopProducts(ctx, p, topProductLimit)
	if err != nil {
		return nil, err
	}
	vouchers, err := s.sales.VoucherRedemptions(ctx, p, voucherLimit)
	if err != nil {
		return nil, err
	}
	customers, err := s.sales.NewCustomers(ctx, p)
	if err != nil {
		return nil, err
	}
	low, err := s.products.FindLowStock(ctx, lowStockLimit)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		From:               p.From.Format(time.DateOnly),
		To:                 p.To.AddDate(0, 0, -1).Format(time.DateOnly),
		Sales:              *summary,
		OrdersByStatus:     byStatus,
		RevenueByDay:       byDay,
		TopProducts:        top,
		VoucherRedemptions: vouchers,
		NewCustomers:       customers,
		LowStock:           make([]LowStockItem, len(low)),
	}
	for i, prod := range low {
		d.LowStock[i] = LowStockItem{
			ProductID: prod.ID,
			SKU:       prod.SKU,
			Name:      prod.Name,
			Stock:     prod.Stock,
			Threshold: prod.LowStockThreshold,
		}
	}
	s.logger.Debug("Dashboard built",
		zap.String("from", d.From),
		zap.String("to", d.To),
		zap.Int64("orders", summary.OrderCount))
	return d, nil
}

// period turns the inclusive query dates into a half-open window
func (s *DashboardService) period(q DashboardQuery) (report.Period, error) {
	today := s.now().In(s.location)
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.location)
	if q.To != "" {
		t, err := time.ParseInLocation(time.DateOnly, q.To, s.location)
		if err != nil {
			return report.Period{}, ErrInvalidRange
		}
		to = t
	}
	from := to.AddDate(0, 0, -(defaultRangeDays - 1))
	if q.From != "" {
		f, err := time.ParseInLocation(time.DateOnly, q.From, s.location)
		if err != nil {
			return report.Period{}, ErrInvalidRange
		}
		from = f
	}
	if from.After(to) {
		return report.Period{}, shared.NewDomainError("INVALID_RANGE", "from must not be after to")
	}
	if to.Sub(from) > maxRangeDays*24*time.Hour {
		return report.Period{}, shared.NewDomainErrorf("INVALID_RANGE", "The range cannot exceed %d days", maxRangeDays)
	}
	return report.Period{From: from, To: to.AddDate(0, 0, 1), Location: s.location}, nil
}
