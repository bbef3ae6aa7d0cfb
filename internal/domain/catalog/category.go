package catalog

import (
	"strings"

	"github.com/grocer/backend/internal/domain/shared"
)

// CategoryStatus represents the status of a category
type CategoryStatus string

const (
	CategoryStatusActive   CategoryStatus = "active"
	CategoryStatusInactive CategoryStatus = "inactive"
)

// Category groups products on the storefront (e.g. "Fruit & Veg", "Bakery")
type Category struct {
	shared.BaseAggregateRoot
	Name        string
	Slug        string
	Description string
	ImageURL    string
	SortOrder   int
	Status      CategoryStatus
}

// NewCategory creates an active category. When slug is empty it is derived
// from the name.
func NewCategory(name, slug string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if slug == "" {
		slug = name
	}
	slug = Slugify(slug)
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_SLUG", "Category slug cannot be empty")
	}

	return &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Status:            CategoryStatusActive,
	}, nil
}

// Update changes the category presentation fields
func (c *Category) Update(name, description, imageURL string, sortOrder int) error {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return err
	}
	if len(description) > 1000 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Category description cannot exceed 1000 characters")
	}

	c.Name = name
	c.Description = strings.TrimSpace(description)
	c.ImageURL = strings.TrimSpace(imageURL)
	c.SortOrder = sortOrder
	c.IncrementVersion()
	return nil
}

// SetSlug overrides the category slug
func (c *Category) SetSlug(slug string) error {
	slug = Slugify(slug)
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Category slug cannot be empty")
	}
	c.Slug = slug
	c.IncrementVersion()
	return nil
}

// Activate shows the category on the storefront
func (c *Category) Activate() error {
	if c.Status == CategoryStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Category is already active")
	}
	c.Status = CategoryStatusActive
	c.IncrementVersion()
	return nil
}

// Deactivate hides the category from the storefront
func (c *Category) Deactivate() error {
	if c.Status == CategoryStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Category is already inactive")
	}
	c.Status = CategoryStatusInactive
	c.IncrementVersion()
	return nil
}

// IsActive returns true if the category is active
func (c *Category) IsActive() bool {
	return c.Status == CategoryStatusActive
}

func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
