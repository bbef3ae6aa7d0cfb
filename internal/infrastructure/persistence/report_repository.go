package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/identity"
	"github.com/grocer/backend/internal/domain/ordering"
	"github.com/grocer/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSalesReportRepository implements report.SalesReportRepository
type GormSalesReportRepository struct {
	db *gorm.DB
}

// NewGormSalesReportRepository creates a new GormSalesReportRepository
func NewGormSalesReportRepository(db *gorm.DB) *GormSalesReportRepository {
	return &GormSalesReportRepository{db: db}
}

func revenueStatuses() []string {
	statuses := make([]string, 0, len(ordering.AllOrderStatuses))
	for _, s := range ordering.AllOrderStatuses {
		if s.CountsAsRevenue() {
			statuses = append(statuses, string(s))
		}
	}
	return statuses
}

func (r *GormSalesReportRepository) revenueOrders(ctx context.Context, p report.Period) *gorm.DB {
	return conn(ctx, r.db).Table("orders o").
		Where("o.created_at >= ? AND o.created_at < ?", p.From, p.To).
		Where("o.status IN ?", revenueStatuses())
}

// SalesSummary aggregates revenue-bearing orders in the period
func (r *GormSalesReportRepository) SalesSummary(ctx context.Context, p report.Period) (*report.SalesSummary, error) {
	var row struct {
		OrderCount    int64
		Revenue       decimal.Decimal
		TotalDiscount decimal.Decimal
		DeliveryFees  decimal.Decimal
	}
	err := r.revenueOrders(ctx, p).
		Select(`COUNT(o.id) AS order_count,
			COALESCE(SUM(o.total), 0) AS revenue,
			COALESCE(SUM(o.discount), 0) AS total_discount,
			COALESCE(SUM(o.delivery_fee), 0) AS delivery_fees`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	var items int64
	err = r.revenueOrders(ctx, p).
		Joins("JOIN order_items oi ON oi.order_id = o.id").
		Select("COALESCE(SUM(oi.quantity), 0)").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}

	summary := &report.SalesSummary{
		Revenue:           row.Revenue.Round(2),
		OrderCount:        row.OrderCount,
		AverageOrderValue: decimal.Zero,
		TotalDiscount:     row.TotalDiscount.Round(2),
		DeliveryFees:      row.DeliveryFees.Round(2),
		ItemsSold:         items,
	}
	if row.OrderCount > 0 {
		summary.AverageOrderValue = row.Revenue.Div(decimal.NewFromInt(row.OrderCount)).Round(2)
	}
	return summary, nil
}

// OrdersByStatus counts every order created in the period by status
func (r *GormSalesReportRepository) OrdersByStatus(ctx context.Context, p report.Period) ([]report.StatusCount, error) {
	var rows []report.StatusCount
	err := conn(ctx, r.db).Table("orders").
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", p.From, p.To).
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	return rows, err
}

// RevenueByDay buckets revenue by calendar day in the period location.
// Days without orders are reported with zero revenue.
func (r *GormSalesReportRepository) RevenueByDay(ctx context.Context, p report.Period) ([]report.DailyRevenue, error) {
	var rows []struct {
		CreatedAt time.Time
		Total     decimal.Decimal
	}
	if err := r.revenueOrders(ctx, p).Select("o.created_at, o.total").Scan(&rows).Error; err != nil {
		return nil, err
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	const layout = "2006-01-02"
	buckets := make(map[string]*report.DailyRevenue)
	for d := p.From.In(loc); d.Before(p.To); d = d.AddDate(0, 0, 1) {
		key := d.Format(layout)
		buckets[key] = &report.DailyRevenue{Date: key, Revenue: decimal.Zero}
	}
	for _, row := range rows {
		key := row.CreatedAt.In(loc).Format(layout)
		b, ok := buckets[key]
		if !ok {
			b = &report.DailyRevenue{Date: key, Revenue: decimal.Zero}
			buckets[key] = b
		}
		b.Revenue = b.Revenue.Add(row.Total)
		b.Orders++
	}

	days := make([]report.DailyRevenue, 0, len(buckets))
	for _, b := range buckets {
		b.Revenue = b.Revenue.Round(2)
		days = append(days, *b)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days, nil
}

// TopProducts ranks products by quantity sold, then revenue
func (r *GormSalesReportRepository) TopProducts(ctx context.Context, p report.Period, limit int) ([]report.ProductRanking, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []struct {
		ProductID   uuid.UUID
		ProductName string
		SKU         string
		Quantity    int64
		Revenue     decimal.Decimal
	}
	err := r.revenueOrders(ctx, p).
		Joins("JOIN order_items oi ON oi.order_id = o.id").
		Select(`oi.product_id, MAX(oi.product_name) AS product_name, MAX(oi.sku) AS sku,
			SUM(oi.quantity) AS quantity, COALESCE(SUM(oi.line_total), 0) AS revenue`).
		Group("oi.product_id").
		Order("quantity DESC").Order("revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	ranking := make([]report.ProductRanking, len(rows))
	for i, row := range rows {
		ranking[i] = report.ProductRanking{
			Rank:        i + 1,
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			SKU:         row.SKU,
			Quantity:    row.Quantity,
			Revenue:     row.Revenue.Round(2),
		}
	}
	return ranking, nil
}

// VoucherRedemptions lists the most used vouchers in the period
func (r *GormSalesReportRepository) VoucherRedemptions(ctx context.Context, p report.Period, limit int) ([]report.VoucherRedemption, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []report.VoucherRedemption
	err := conn(ctx, r.db).Table("voucher_usages vu").
		Joins("JOIN vouchers v ON v.id = vu.voucher_id").
		Select("v.code AS code, COUNT(vu.id) AS redemptions, COALESCE(SUM(vu.discount), 0) AS discount").
		Where("vu.used_at >= ? AND vu.used_at < ?", p.From, p.To).
		Group("v.code").
		Order("redemptions DESC").Order("code ASC").
		Limit(limit).
		Scan(&rows).Error
	for i := range rows {
		rows[i].Discount = rows[i].Discount.Round(2)
	}
	return rows, err
}

// NewCustomers counts customer accounts registered in the period
func (r *GormSalesReportRepository) NewCustomers(ctx context.Context, p report.Period) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Table("users").
		Where("role = ? AND created_at >= ? AND created_at < ?", identity.RoleCustomer, p.From, p.To).
		Count(&count).Error
	return count, err
}

var _ report.SalesReportRepository = (*GormSalesReportRepository)(nil)
