package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/grocer/backend/internal/domain/catalog"
	"github.com/grocer/backend/internal/domain/shared"
	csvimport "github.com/grocer/backend/internal/infrastructure/import"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCreator struct {
	created []CreateProductRequest
	reject  map[string]error
}

func (s *stubCreator) Create(_ context.Context, req CreateProductRequest) (*ProductResponse, error) {
	if err, ok := s.reject[req.SKU]; ok {
		return nil, err
	}
	s.created = append(s.created, req)
	return &ProductResponse{SKU: req.SKU}, nil
}

const importHeader = "sku,name,category,price,unit,compare_at_price,stock,featured,image_urls\n"

func newImportFixture(t *testing.T) (*ProductImportService, *stubCreator, *MockProductRepository, *catalog.Category) {
	t.Helper()
	products := new(MockProductRepository)
	categories := new(MockCategoryRepository)
	dairy, err := catalog.NewCategory("Dairy", "dairy")
	require.NoError(t, err)
	categories.On("FindBySlug", mock.Anything, "dairy").Return(dairy, nil)
	categories.On("FindBySlug", mock.Anything, mock.Anything).Return(nil, shared.ErrNotFound)
	creator := &stubCreator{reject: map[string]error{}}
	return NewProductImportService(creator, products, categories, 0, zap.NewNop()), creator, products, dairy
}

func TestProductImportService_Import(t *testing.T) {
	svc, creator, products, dairy := newImportFixture(t)
	products.On("ExistsBySKU", mock.Anything, "MLK-1").Return(false, nil)
	products.On("ExistsBySKU", mock.Anything, "BTR-1").Return(true, nil)
	products.On("ExistsBySKU", mock.Anything, "YOG-1").Return(false, nil)
	creator.reject["YOG-1"] = shared.NewDomainError("INVALID_PRICE", "Compare-at price must exceed price")

	csv := importHeader +
		"MLK-1,Whole Milk,Dairy,1.10,l,1.30,40,yes,https://cdn.example.com/a.jpg|https://cdn.example.com/b.jpg\n" +
		"BTR-1,Butter,dairy,2.00,each,,10,,\n" +
		"YOG-1,Yoghurt,dairy,1.00,each,0.50,5,,\n" +
		"CHS-1,Cheddar,cheese,3.00,each,,5,,\n" +
		"EGG-1,Eggs,dairy,abc,dozen,,5,,\n"

	result, err := svc.Import(context.Background(), strings.NewReader(csv), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 3, result.Failed)
	assert.Equal(t, 4, result.TotalErrors, "the eggs row breaks two rules")

	require.Len(t, creator.created, 1)
	milk := creator.created[0]
	assert.Equal(t, dairy.ID, milk.CategoryID)
	assert.Equal(t, "l", milk.Unit)
	assert.Equal(t, 40, milk.Stock)
	assert.True(t, milk.Featured)
	assert.Equal(t, "1.3", milk.CompareAtPrice.String())
	assert.Len(t, milk.ImageURLs, 2)

	codes := map[string]bool{}
	for _, e := range result.Errors {
		codes[e.Code] = true
	}
	assert.True(t, codes[csvimport.CodeRejected])
	assert.True(t, codes[csvimport.CodeNotFound])
	assert.True(t, codes[csvimport.CodeInvalidType])
	assert.True(t, codes[csvimport.CodeInvalidValue])
}

func TestProductImportService_DryRunCreatesNothing(t *testing.T) {
	svc, creator, products, _ := newImportFixture(t)
	products.On("ExistsBySKU", mock.Anything, mock.Anything).Return(false, nil)

	result, err := svc.Import(context.Background(),
		strings.NewReader(importHeader+"MLK-1,Whole Milk,dairy,1.10,l,,,,\n"), ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Created)
	assert.Empty(t, creator.created)
}

func TestProductImportService_RejectsBadFiles(t *testing.T) {
	svc, _, _, _ := newImportFixture(t)

	_, err := svc.Import(context.Background(), strings.NewReader(""), ImportOptions{})
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_IMPORT_FILE", domainErr.Code)

	_, err = svc.Import(context.Background(), strings.NewReader("sku,name\nA,B\n"), ImportOptions{})
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_IMPORT_COLUMNS", domainErr.Code)
	assert.Contains(t, domainErr.Message, "category, price, unit")
}

func TestProductImportService_RowLimit(t *testing.T) {
	products := new(MockProductRepository)
	products.On("ExistsBySKU", mock.Anything, mock.Anything).Return(true, nil)
	categories := new(MockCategoryRepository)
	dairy, _ := catalog.NewCategory("Dairy", "dairy")
	categories.On("FindBySlug", mock.Anything, "dairy").Return(dairy, nil)
	svc := NewProductImportService(&stubCreator{}, products, categories, 1, zap.NewNop())

	csv := importHeader + "A,Milk,dairy,1,l,,,,\nB,Cream,dairy,1,l,,,,\n"
	_, err := svc.Import(context.Background(), strings.NewReader(csv), ImportOptions{})
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_IMPORT_FILE", domainErr.Code)
}

func TestProductImportService_RepositoryErrorAborts(t *testing.T) {
	svc, _, products, _ := newImportFixture(t)
	products.On("ExistsBySKU", mock.Anything, mock.Anything).Return(false, errors.New("db down"))

	_, err := svc.Import(context.Background(), strings.NewReader(importHeader+"A,Milk,dairy,1,l,,,,\n"), ImportOptions{})
	assert.EqualError(t, err, "db down")
}
