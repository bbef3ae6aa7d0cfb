package models

import (
	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for the Category aggregate
type CategoryModel struct {
	AggregateModel
	Name        string                 `gorm:"type:varchar(100);not null"`
	Slug        string                 `gorm:"type:varchar(120);not null;uniqueIndex"`
	Description string                 `gorm:"type:text"`
	ImageURL    string                 `gorm:"type:varchar(500)"`
	SortOrder   int                    `gorm:"not null;default:0;index"`
	Status      catalog.CategoryStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseAggregateRoot: m.root(),
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		ImageURL:          m.ImageURL,
		SortOrder:         m.SortOrder,
		Status:            m.Status,
	}
}

// CategoryModelFromDomain creates a persistence model from a domain Category
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		SortOrder:   c.SortOrder,
		Status:      c.Status,
	}
	m.AggregateModel = newAggregateModel(c.BaseAggregateRoot)
	return m
}

// ProductModel is the persistence model for the Product aggregate.
// The stock column carries a CHECK (stock >= 0) constraint in the migrations.
type ProductModel struct {
	AggregateModel
	SKU               string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string                `gorm:"type:varchar(200);not null;index"`
	Slug              string                `gorm:"type:varchar(220);not null;uniqueIndex"`
	Description       string                `gorm:"type:text"`
	CategoryID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Price             decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	CompareAtPrice    *decimal.Decimal      `gorm:"type:decimal(12,2)"`
	Unit              catalog.ProductUnit   `gorm:"type:varchar(10);not null"`
	Stock             int                   `gorm:"not null;default:0"`
	LowStockThreshold int                   `gorm:"not null"`
	ImageURLs         []string              `gorm:"type:text;serializer:json"`
	Status            catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'active';index"`
	Featured          bool                  `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	images := m.ImageURLs
	if images == nil {
		images = []string{}
	}
	return &catalog.Product{
		BaseAggregateRoot: m.root(),
		SKU:               m.SKU,
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		CategoryID:        m.CategoryID,
		Price:             m.Price,
		CompareAtPrice:    m.CompareAtPrice,
		Unit:              m.Unit,
		Stock:             m.Stock,
		LowStockThreshold: m.LowStockThreshold,
		ImageURLs:         images,
		Status:            m.Status,
		Featured:          m.Featured,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		SKU:               p.SKU,
		Name:              p.Name,
		Slug:              p.Slug,
		Description:       p.Description,
		CategoryID:        p.CategoryID,
		Price:             p.Price,
		CompareAtPrice:    p.CompareAtPrice,
		Unit:              p.Unit,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		ImageURLs:         p.ImageURLs,
		Status:            p.Status,
		Featured:          p.Featured,
	}
	m.AggregateModel = newAggregateModel(p.BaseAggregateRoot)
	return m
}
