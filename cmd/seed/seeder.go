package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	catalogapp "github.com/grocer/backend/internal/application/catalog"
	deliveryapp "github.com/grocer/backend/internal/application/delivery"
	identityapp "github.com/grocer/backend/internal/application/identity"
	promotionapp "github.com/grocer/backend/internal/application/promotion"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var aisles = []string{"Fruit & Veg", "Bakery", "Dairy & Eggs", "Meat & Fish", "Pantry", "Frozen", "Drinks", "Household"}

var units = []string{"each", "kg", "g", "l", "ml", "pack"}

type categoryCreator interface {
	Create(ctx context.Context, req catalogapp.CreateCategoryRequest) (*catalogapp.CategoryResponse, error)
}

type productCreator interface {
	Create(ctx context.Context, req catalogapp.CreateProductRequest) (*catalogapp.ProductResponse, error)
}

type zoneCreator interface {
	Create(ctx context.Context, req deliveryapp.ZoneRequest) (*deliveryapp.ZoneResponse, error)
}

type slotGenerator interface {
	Generate(ctx context.Context, req deliveryapp.GenerateSlotsRequest) ([]deliveryapp.SlotResponse, error)
}

type voucherCreator interface {
	Create(ctx context.Context, req promotionapp.VoucherRequest) (*promotionapp.VoucherResponse, error)
}

type registrar interface {
	Register(ctx context.Context, req identityapp.RegisterRequest) (*identityapp.AuthResponse, error)
}

// Options controls how much data is generated
type Options struct {
	Products  int
	Customers int
	SlotDays  int
	Password  string
}

// Summary counts what a run created
type Summary struct {
	Categories int
	Products   int
	Zones      int
	Slots      int
	Vouchers   int
	Customers  int
	Skipped    int
}

// Seeder fills an empty store with plausible demo data
type Seeder struct {
	faker      *gofakeit.Faker
	categories categoryCreator
	products   productCreator
	zones      zoneCreator
	slots      slotGenerator
	vouchers   voucherCreator
	accounts   registrar
	logger     *zap.Logger
	now        func() time.Time
}

// Run creates categories, products, zones with slots, vouchers and
// customers. Records that already exist are counted as skipped.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	sum := &Summary{}

	categoryIDs := make([]uuid.UUID, 0, len(aisles))
	for i, name := range aisles {
		c, err := s.categories.Create(ctx, catalogapp.CreateCategoryRequest{
			Name:        name,
			Description: s.faker.Sentence(8),
			SortOrder:   i,
		})
		if err != nil {
			if s.skip(err, sum) {
				continue
			}
			return sum, fmt.Errorf("category %q: %w", name, err)
		}
		categoryIDs = append(categoryIDs, c.ID)
		sum.Categories++
	}
	if len(categoryIDs) == 0 {
		s.logger.Info("catalog already seeded, skipping products")
	}

	for i := 0; i < opts.Products && len(categoryIDs) > 0; i++ {
		req := s.productRequest(categoryIDs[i%len(categoryIDs)], i)
		if _, err := s.products.Create(ctx, req); err != nil {
			if s.skip(err, sum) {
				continue
			}
			return sum, fmt.Errorf("product %s: %w", req.SKU, err)
		}
		sum.Products++
	}

	for _, z := range s.zoneRequests() {
		zone, err := s.zones.Create(ctx, z)
		if err != nil {
			if s.skip(err, sum) {
				continue
			}
			return sum, fmt.Errorf("zone %q: %w", z.Name, err)
		}
		sum.Zones++

		from := s.now().AddDate(0, 0, 1)
		created, err := s.slots.Generate(ctx, deliveryapp.GenerateSlotsRequest{
			ZoneID: zone.ID,
			From:   from.Format(time.DateOnly),
			To:     from.AddDate(0, 0, max(opts.SlotDays, 1)-1).Format(time.DateOnly),
			Windows: []deliveryapp.WindowRequest{
				{Start: "08:00", End: "10:00"},
				{Start: "12:00", End: "14:00"},
				{Start: "18:00", End: "20:00"},
			},
			Capacity: 20,
		})
		if err != nil {
			return sum, fmt.Errorf("slots for %q: %w", z.Name, err)
		}
		sum.Slots += len(created)
	}

	for _, v := range s.voucherRequests() {
		if _, err := s.vouchers.Create(ctx, v); err != nil {
			if s.skip(err, sum) {
				continue
			}
			return sum, fmt.Errorf("voucher %s: %w", v.Code, err)
		}
		sum.Vouchers++
	}

	for i := 0; i < opts.Customers; i++ {
		if _, err := s.accounts.Register(ctx, s.customerRequest(opts.Password)); err != nil {
			if s.skip(err, sum) {
				continue
			}
			return sum, fmt.Errorf("customer: %w", err)
		}
		sum.Customers++
	}

	return sum, nil
}

// skip reports whether err is a business rejection, such as a duplicate
// slug or email, that a re-run is expected to hit
func (s *Seeder) skip(err error, sum *Summary) bool {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	s.logger.Debug("skipped existing record", zap.String("code", domainErr.Code), zap.String("reason", domainErr.Message))
	sum.Skipped++
	return true
}

func (s *Seeder) productRequest(categoryID uuid.UUID, n int) catalogapp.CreateProductRequest {
	price := decimal.NewFromFloat(s.faker.Price(0.4, 25)).Round(2)
	threshold := s.faker.IntRange(3, 15)
	req := catalogapp.CreateProductRequest{
		SKU:               fmt.Sprintf("GR-%05d", n+1),
		Name:              productName(s.faker),
		Description:       s.faker.Sentence(12),
		CategoryID:        categoryID,
		Price:             price,
		Unit:              units[s.faker.IntN(len(units))],
		Stock:             s.faker.IntRange(0, 200),
		LowStockThreshold: &threshold,
		Featured:          s.faker.Float64() < 0.1,
	}
	if s.faker.Float64() < 0.2 {
		was := price.Mul(decimal.NewFromFloat(1.25)).Round(2)
		req.CompareAtPrice = &was
	}
	return req
}

// productName combines a brand-like adjective with a food name
func productName(f *gofakeit.Faker) string {
	var food string
	switch f.IntN(4) {
	case 0:
		food = f.Fruit()
	case 1:
		food = f.Vegetable()
	case 2:
		food = f.Snack()
	default:
		food = f.Drink()
	}
	return strings.TrimSpace(f.AdjectiveDescriptive() + " " + food)
}

func (s *Seeder) zoneRequests() []deliveryapp.ZoneRequest {
	free := decimal.NewFromInt(60)
	return []deliveryapp.ZoneRequest{
		{
			Name:                  "Central",
			PostcodePrefixes:      []string{"EC1", "EC2", "WC1", "WC2"},
			DeliveryFee:           decimal.NewFromFloat(3.99),
			MinimumOrder:          decimal.NewFromInt(25),
			FreeDeliveryThreshold: &free,
		},
		{
			Name:             "North",
			PostcodePrefixes: []string{"N1", "N4", "N5", "N7"},
			DeliveryFee:      decimal.NewFromFloat(4.99),
			MinimumOrder:     decimal.NewFromInt(30),
		},
	}
}

func (s *Seeder) voucherRequests() []promotionapp.VoucherRequest {
	maxOff := decimal.NewFromInt(15)
	uses := 500
	return []promotionapp.VoucherRequest{
		{
			Code:         "WELCOME10",
			Description:  "10% off your first shop",
			Type:         "percentage",
			Value:        decimal.NewFromInt(10),
			MinimumOrder: decimal.NewFromInt(30),
			MaxDiscount:  &maxOff,
			PerUserLimit: 1,
		},
		{
			Code:         "FIVEOFF",
			Description:  "5 off orders over 50",
			Type:         "fixed",
			Value:        decimal.NewFromInt(5),
			MinimumOrder: decimal.NewFromInt(50),
			MaxUses:      &uses,
		},
	}
}

func (s *Seeder) customerRequest(password string) identityapp.RegisterRequest {
	p := s.faker.Person()
	return identityapp.RegisterRequest{
		Email:    strings.ToLower(fmt.Sprintf("%s.%s.%d@example.com", p.FirstName, p.LastName, s.faker.IntRange(1, 9999))),
		Password: password,
		Name:     p.FirstName + " " + p.LastName,
		Phone:    p.Contact.Phone,
	}
}
