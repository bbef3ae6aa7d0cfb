// Package report holds read models for the admin dashboard.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period is a half-open reporting window [From, To)
type Period struct {
	From     time.Time
	To       time.Time
	Location *time.Location // used to bucket daily figures
}

// SalesSummary aggregates revenue-bearing orders in a period
type SalesSummary struct {
	Revenue           decimal.Decimal `json:"revenue"`
	OrderCount        int64           `json:"order_count"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TotalDiscount     decimal.Decimal `json:"total_discount"`
	DeliveryFees      decimal.Decimal `json:"delivery_fees"`
	ItemsSold         int64           `json:"items_sold"`
}

// StatusCount is the number of orders in one status
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DailyRevenue is one day of the revenue trend
type DailyRevenue struct {
	Date    string          `json:"date"` // YYYY-MM-DD in the period location
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int64           `json:"orders"`
}

// ProductRanking is a best-selling product
type ProductRanking struct {
	Rank        int             `json:"rank"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	SKU         string          `json:"sku"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// VoucherRedemption summarises how often a voucher was used
type VoucherRedemption struct {
	Code        string          `json:"code"`
	Redemptions int64           `json:"redemptions"`
	Discount    decimal.Decimal `json:"discount"`
}

// SalesReportRepository answers dashboard queries
type SalesReportRepository interface {
	SalesSummary(ctx context.Context, p Period) (*SalesSummary, error)
	OrdersByStatus(ctx context.Context, p Period) ([]StatusCount, error)
	RevenueByDay(ctx context.Context, p Period) ([]DailyRevenue, error)
	TopProducts(ctx context.Context, p Period, limit int) ([]ProductRanking, error)
	VoucherRedemptions(ctx context.Context, p Period, limit int) ([]VoucherRedemption, error)
	NewCustomers(ctx context.Context, p Period) (int64, error)
}
