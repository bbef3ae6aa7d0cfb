package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/application/cart"
	"github.com/grocer/backend/internal/application/catalog"
	"github.com/grocer/backend/internal/application/identity"
	"github.com/grocer/backend/internal/application/ordering"
	"github.com/grocer/backend/internal/application/upload"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/mock"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, req identity.RegisterRequest) (*identity.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AuthResponse), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req identity.LoginRequest) (*identity.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AuthResponse), args.Error(1)
}

func (m *mockAuthService) Refresh(ctx context.Context, req identity.RefreshRequest) (*identity.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.AuthResponse), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, access *auth.Claims, req identity.LogoutRequest) error {
	return m.Called(ctx, access, req).Error(0)
}

func (m *mockAuthService) Me(ctx context.Context, userID uuid.UUID) (*identity.UserResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserResponse), args.Error(1)
}

func (m *mockAuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req identity.ChangePasswordRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

type mockProductService struct{ mock.Mock }

func (m *mockProductService) Create(ctx context.Context, req catalog.CreateProductRequest) (*catalog.ProductResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductResponse), args.Error(1)
}

func (m *mockProductService) GetByID(ctx context.Context, id uuid.UUID, storefront bool) (*catalog.ProductResponse, error) {
	args := m.Called(ctx, id, storefront)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductResponse), args.Error(1)
}

func (m *mockProductService) GetBySlug(ctx context.Context, slug string) (*catalog.ProductResponse, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductResponse), args.Error(1)
}

func (m *mockProductService) List(ctx context.Context, filter catalog.ProductFilter, storefront bool) (shared.Paginated[catalog.ProductResponse], error) {
	args := m.Called(ctx, filter, storefront)
	return args.Get(0).(shared.Paginated[catalog.ProductResponse]), args.Error(1)
}

func (m *mockProductService) Update(ctx context.Context, id uuid.UUID, req catalog.UpdateProductRequest) (*catalog.ProductResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductResponse), args.Error(1)
}

func (m *mockProductService) AdjustStock(ctx context.Context, id uuid.UUID, req catalog.AdjustStockRequest) (*catalog.ProductResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductResponse), args.Error(1)
}

func (m *mockProductService) Activate(ctx context.Context, id uuid.UUID) (*catalog.ProductResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductResponse), args.Error(1)
}

func (m *mockProductService) Deactivate(ctx context.Context, id uuid.UUID) (*catalog.ProductResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ProductResponse), args.Error(1)
}

func (m *mockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductService) LowStock(ctx context.Context, limit int) ([]catalog.ProductResponse, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]catalog.ProductResponse), args.Error(1)
}

type mockCartService struct{ mock.Mock }

func (m *mockCartService) view(args mock.Arguments) (*cart.View, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.View), args.Error(1)
}

func (m *mockCartService) Get(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	return m.view(m.Called(ctx, userID))
}

func (m *mockCartService) AddItem(ctx context.Context, userID uuid.UUID, req cart.AddItemRequest) (*cart.View, error) {
	return m.view(m.Called(ctx, userID, req))
}

func (m *mockCartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.View, error) {
	return m.view(m.Called(ctx, userID, productID, quantity))
}

func (m *mockCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*cart.View, error) {
	return m.view(m.Called(ctx, userID, productID))
}

func (m *mockCartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockCartService) ApplyVoucher(ctx context.Context, userID uuid.UUID, code string) (*cart.View, error) {
	return m.view(m.Called(ctx, userID, code))
}

func (m *mockCartService) RemoveVoucher(ctx context.Context, userID uuid.UUID) (*cart.View, error) {
	return m.view(m.Called(ctx, userID))
}

func (m *mockCartService) SetPostcode(ctx context.Context, userID uuid.UUID, postcode string) (*cart.View, error) {
	return m.view(m.Called(ctx, userID, postcode))
}

type mockOrderService struct{ mock.Mock }

func (m *mockOrderService) checkout(args mock.Arguments) (*ordering.CheckoutResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.CheckoutResponse), args.Error(1)
}

func (m *mockOrderService) order(args mock.Arguments) (*ordering.OrderResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.OrderResponse), args.Error(1)
}

func (m *mockOrderService) Checkout(ctx context.Context, userID uuid.UUID, key string, req ordering.CheckoutRequest) (*ordering.CheckoutResponse, error) {
	return m.checkout(m.Called(ctx, userID, key, req))
}

func (m *mockOrderService) Get(ctx context.Context, id uuid.UUID, actor ordering.Actor) (*ordering.OrderResponse, error) {
	return m.order(m.Called(ctx, id, actor))
}

func (m *mockOrderService) ListForUser(ctx context.Context, userID uuid.UUID, page, pageSize int) (shared.Paginated[ordering.OrderResponse], error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).(shared.Paginated[ordering.OrderResponse]), args.Error(1)
}

func (m *mockOrderService) List(ctx context.Context, f ordering.OrderFilter) (shared.Paginated[ordering.OrderResponse], error) {
	args := m.Called(ctx, f)
	return args.Get(0).(shared.Paginated[ordering.OrderResponse]), args.Error(1)
}

func (m *mockOrderService) Cancel(ctx context.Context, id uuid.UUID, actor ordering.Actor, req ordering.CancelRequest) (*ordering.OrderResponse, error) {
	return m.order(m.Called(ctx, id, actor, req))
}

func (m *mockOrderService) AdvanceStatus(ctx context.Context, id uuid.UUID, req ordering.AdvanceStatusRequest) (*ordering.OrderResponse, error) {
	return m.order(m.Called(ctx, id, req))
}

func (m *mockOrderService) RetryPayment(ctx context.Context, id uuid.UUID, actor ordering.Actor) (*ordering.CheckoutResponse, error) {
	return m.checkout(m.Called(ctx, id, actor))
}

func (m *mockOrderService) Invoice(ctx context.Context, id uuid.UUID, format string) (*ordering.Document, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordering.Document), args.Error(1)
}

type mockUploadService struct {
	mock.Mock
	maxSize int64
}

func (m *mockUploadService) UploadImage(ctx context.Context, in upload.ImageUpload) (*upload.Result, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upload.Result), args.Error(1)
}

func (m *mockUploadService) Presign(ctx context.Context, req upload.PresignRequest) (*upload.PresignResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upload.PresignResult), args.Error(1)
}

func (m *mockUploadService) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockUploadService) MaxSize() int64 {
	return m.maxSize
}

type mockWebhookService struct{ mock.Mock }

func (m *mockWebhookService) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }
