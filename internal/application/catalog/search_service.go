package catalog

import (
	"context"
	"strings"

	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/shared"
)

const (
	defaultSuggestions = 8
	maxSuggestions     = 20
	minQueryLength     = 2
)

// SearchService serves storefront product search and type-ahead suggestions
type SearchService struct {
	products catalog.ProductRepository
}

// NewSearchService creates a new SearchService
func NewSearchService(products catalog.ProductRepository) *SearchService {
	return &SearchService{products: products}
}

// Search matches active products by name, description or SKU
func (s *SearchService) Search(ctx context.Context, filter ProductFilter) (shared.Paginated[ProductResponse], error) {
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Search == "" {
		return shared.Paginated[ProductResponse]{}, shared.NewDomainError("INVALID_INPUT", "Search query is required")
	}

	domainFilter, err := toDomainFilter(filter, true)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	if filter.OrderBy == "" {
		domainFilter.OrderBy = "name"
		domainFilter.OrderDir = "asc"
	}

	products, err := s.products.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	total, err := s.products.Count(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	return shared.NewPaginated(ToProductResponses(products), total, domainFilter.Page, domainFilter.PageSize), nil
}

// Suggest returns product names for a type-ahead box. Queries shorter than
// two characters return nothing.
func (s *SearchService) Suggest(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLength {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestions
	}
	limit = min(limit, maxSuggestions)
	return s.products.SuggestNames(ctx, query, limit)
}
