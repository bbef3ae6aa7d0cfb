package catalog

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/shared"
	csvimport "github.com/grocer/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultImportMaxRows caps a single product import file
const DefaultImportMaxRows = 5000

var productUnits = []string{"each", "kg", "g", "l", "ml", "pack"}

type productCreator interface {
	Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error)
}

// ImportOptions controls a product import run
type ImportOptions struct {
	// DryRun validates every row without creating products
	DryRun bool
}

// ImportResult summarises a product import. In a dry run Created counts
// the rows that would have been created.
type ImportResult struct {
	TotalRows   int                  `json:"total_rows"`
	Created     int                  `json:"created"`
	Skipped     int                  `json:"skipped"`
	Failed      int                  `json:"failed"`
	DryRun      bool                 `json:"dry_run"`
	Errors      []csvimport.RowError `json:"errors,omitempty"`
	TotalErrors int                  `json:"total_errors"`
	Truncated   bool                 `json:"truncated,omitempty"`
}

// ProductImportService creates products from a CSV export. Rows whose SKU
// is already in the catalog are skipped; invalid rows are reported and the
// rest of the file is still imported.
type ProductImportService struct {
	creator    productCreator
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	maxRows    int
	logger     *zap.Logger
}

// NewProductImportService creates a ProductImportService. Products are
// created through creator so the usual events are written.
func NewProductImportService(
	creator productCreator,
	products catalog.ProductRepository,
	categories catalog.CategoryRepository,
	maxRows int,
	logger *zap.Logger,
) *ProductImportService {
	if maxRows <= 0 {
		maxRows = DefaultImportMaxRows
	}
	return &ProductImportService{
		creator:    creator,
		products:   products,
		categories: categories,
		maxRows:    maxRows,
		logger:     logger,
	}
}

func importRules() *csvimport.Validator {
	zero := decimal.Zero
	return csvimport.NewValidator(
		csvimport.Field("sku").Required().MaxLength(50).Unique().Build(),
		csvimport.Field("name").Required().MaxLength(200).Build(),
		csvimport.Field("category").Required().MaxLength(200).Build(),
		csvimport.Field("price").Required().Decimal().Min(zero).Build(),
		csvimport.Field("unit").Required().OneOf(productUnits...).Build(),
		csvimport.Field("compare_at_price").Decimal().Min(zero).Build(),
		csvimport.Field("stock").Int().Min(zero).Build(),
		csvimport.Field("low_stock_threshold").Int().Min(zero).Build(),
		csvimport.Field("description").MaxLength(5000).Build(),
		csvimport.Field("featured").Bool().Build(),
	)
}

// Import reads r and creates one product per valid row
func (s *ProductImportService) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	parser, err := csvimport.NewParser(r, csvimport.WithMaxRows(s.maxRows))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_IMPORT_FILE", err.Error())
	}
	rules := importRules()
	if missing := parser.Missing(rules.Columns()...); len(missing) > 0 {
		return nil, shared.NewDomainErrorf("INVALID_IMPORT_COLUMNS", "Missing columns: %s", strings.Join(missing, ", "))
	}

	result := &ImportResult{DryRun: opts.DryRun}
	errs := csvimport.NewErrors(100)
	categoryIDs := make(map[string]uuid.UUID)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := parser.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, csvimport.ErrTooManyRows) {
			return nil, shared.NewDomainError("INVALID_IMPORT_FILE", err.Error())
		}
		result.TotalRows++
		if err != nil {
			errs.Add(csvimport.RowError{Code: csvimport.CodeInvalidValue, Message: err.Error()})
			result.Failed++
			continue
		}

		if !rules.Validate(row, errs) {
			result.Failed++
			continue
		}

		categoryID, ok, err := s.resolveCategory(ctx, categoryIDs, row.Get("category"))
		if err != nil {
			return nil, err
		}
		if !ok {
			errs.Add(csvimport.RowError{Row: row.Line, Column: "category", Code: csvimport.CodeNotFound,
				Message: "no category with this slug", Value: row.Get("category")})
			result.Failed++
			continue
		}

		req := importRequest(row, categoryID)
		exists, err := s.products.ExistsBySKU(ctx, strings.ToUpper(req.SKU))
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}
		if opts.DryRun {
			result.Created++
			continue
		}

		if _, err := s.creator.Create(ctx, req); err != nil {
			var domainErr *shared.DomainError
			if !errors.As(err, &domainErr) {
				return nil, err
			}
			errs.Add(csvimport.RowError{Row: row.Line, Code: csvimport.CodeRejected, Message: domainErr.Message, Value: req.SKU})
			result.Failed++
			continue
		}
		result.Created++
	}

	result.Errors = errs.Items()
	result.TotalErrors = errs.Total()
	result.Truncated = errs.Truncated()

	s.logger.Info("Product import finished",
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// resolveCategory maps a category slug to its ID, caching lookups for
// the duration of one import
func (s *ProductImportService) resolveCategory(ctx context.Context, cache map[string]uuid.UUID, slug string) (uuid.UUID, bool, error) {
	slug = strings.ToLower(slug)
	if id, ok := cache[slug]; ok {
		return id, id != uuid.Nil, nil
	}
	category, err := s.categories.FindBySlug(ctx, slug)
	if errors.Is(err, shared.ErrNotFound) {
		cache[slug] = uuid.Nil
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	cache[slug] = category.ID
	return category.ID, true, nil
}

// importRequest converts a validated row; parse errors cannot occur here
func importRequest(row *csvimport.Row, categoryID uuid.UUID) CreateProductRequest {
	req := CreateProductRequest{
		SKU:         row.Get("sku"),
		Name:        row.Get("name"),
		Description: row.Get("description"),
		CategoryID:  categoryID,
		Price:       decimal.RequireFromString(row.Get("price")),
		Unit:        strings.ToLower(row.Get("unit")),
	}
	if v := row.Get("compare_at_price"); v != "" {
		was := decimal.RequireFromString(v)
		req.CompareAtPrice = &was
	}
	if v := row.Get("stock"); v != "" {
		req.Stock = int(decimal.RequireFromString(v).IntPart())
	}
	if v := row.Get("low_stock_threshold"); v != "" {
		n := int(decimal.RequireFromString(v).IntPart())
		req.LowStockThreshold = &n
	}
	req.Featured, _ = csvimport.ParseBool(row.Get("featured"))
	if v := row.Get("image_urls"); v != "" {
		for _, u := range strings.Split(v, "|") {
			if u = strings.TrimSpace(u); u != "" {
				req.ImageURLs = append(req.ImageURLs, u)
			}
		}
	}
	return req
}
