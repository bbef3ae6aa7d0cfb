// Package promotion contains the voucher use cases.
package promotion

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/promotion"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrCodeExists   = shared.NewDomainError("ALREADY_EXISTS", "A voucher with this code already exists")
	ErrVoucherInUse = shared.NewDomainError("VOUCHER_IN_USE", "Voucher has been redeemed and cannot be deleted; deactivate it instead")
)

// VoucherService manages vouchers and checks codes for carts and checkout
type VoucherService struct {
	vouchers promotion.VoucherRepository
	usages   promotion.UsageRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(vouchers promotion.VoucherRepository, usages promotion.UsageRepository, logger *zap.Logger) *VoucherService {
	return &VoucherService{vouchers: vouchers, usages: usages, logger: logger, now: time.Now}
}

// Create adds a voucher
func (s *VoucherService) Create(ctx context.Context, req VoucherRequest) (*VoucherResponse, error) {
	code := promotion.NormalizeCode(req.Code)
	exists, err := s.vouchers.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCodeExists
	}

	voucher, err := promotion.NewVoucher(code, promotion.VoucherType(req.Type), req.Value)
	if err != nil {
		return nil, err
	}
	if err := applyVoucherRequest(voucher, req); err != nil {
		return nil, err
	}
	if err := s.vouchers.Save(ctx, voucher); err != nil {
		return nil, err
	}

	s.logger.Info("voucher created",
		zap.String("voucher_id", voucher.ID.String()),
		zap.String("code", voucher.Code),
	)
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// Update replaces a voucher definition. The code can only change while the
// voucher is unused.
func (s *VoucherService) Update(ctx context.Context, id uuid.UUID, req VoucherRequest) (*VoucherResponse, error) {
	voucher, err := s.vouchers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	code := promotion.NormalizeCode(req.Code)
	if code != voucher.Code {
		exists, err := s.vouchers.ExistsByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrCodeExists
		}
		if err := voucher.Rename(code); err != nil {
			return nil, err
		}
	}

	if err := voucher.SetValue(promotion.VoucherType(req.Type), req.Value); err != nil {
		return nil, err
	}
	if err := applyVoucherRequest(voucher, req); err != nil {
		return nil, err
	}
	if err := s.vouchers.Save(ctx, voucher); err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

func applyVoucherRequest(v *promotion.Voucher, req VoucherRequest) error {
	v.SetDescription(req.Description)
	if err := v.SetLimits(req.MinimumOrder, req.MaxDiscount, req.MaxUses, req.PerUserLimit); err != nil {
		return err
	}
	if err := v.SetValidity(req.ValidFrom, req.ValidTo); err != nil {
		return err
	}
	if req.Active != nil && *req.Active != v.Active {
		if *req.Active {
			return v.Activate()
		}
		return v.Deactivate()
	}
	return nil
}

// GetByID returns a voucher
func (s *VoucherService) GetByID(ctx context.Context, id uuid.UUID) (*VoucherResponse, error) {
	voucher, err := s.vouchers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// List returns vouchers matching the filter
func (s *VoucherService) List(ctx context.Context, f VoucherFilter) (shared.Paginated[VoucherResponse], error) {
	filter := shared.DefaultFilter()
	filter.Search = f.Search
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	if f.Active != nil {
		filter.Filters["active"] = *f.Active
	}

	vouchers, err := s.vouchers.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[VoucherResponse]{}, err
	}
	total, err := s.vouchers.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[VoucherResponse]{}, err
	}
	items := make([]VoucherResponse, len(vouchers))
	for i := range vouchers {
		items[i] = ToVoucherResponse(&vouchers[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Activate enables a voucher
func (s *VoucherService) Activate(ctx context.Context, id uuid.UUID) (*VoucherResponse, error) {
	return s.toggle(ctx, id, (*promotion.Voucher).Activate)
}

// Deactivate disables a voucher
func (s *VoucherService) Deactivate(ctx context.Context, id uuid.UUID) (*VoucherResponse, error) {
	return s.toggle(ctx, id, (*promotion.Voucher).Deactivate)
}

func (s *VoucherService) toggle(ctx context.Context, id uuid.UUID, change func(*promotion.Voucher) error) (*VoucherResponse, error) {
	voucher, err := s.vouchers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(voucher); err != nil {
		return nil, err
	}
	if err := s.vouchers.Save(ctx, voucher); err != nil {
		return nil, err
	}
	resp := ToVoucherResponse(voucher)
	return &resp, nil
}

// Delete removes a voucher that was never redeemed
func (s *VoucherService) Delete(ctx context.Context, id uuid.UUID) error {
	voucher, err := s.vouchers.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if voucher.UsedCount > 0 {
		return ErrVoucherInUse
	}
	return s.vouchers.Delete(ctx, id)
}

// Usages lists the redemptions of a voucher, newest first
func (s *VoucherService) Usages(ctx context.Context, id uuid.UUID, page, pageSize int) (shared.Paginated[UsageResponse], error) {
	if _, err := s.vouchers.FindByID(ctx, id); err != nil {
		return shared.Paginated[UsageResponse]{}, err
	}
	filter := shared.DefaultFilter()
	filter.OrderBy = "used_at"
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = min(pageSize, 100)
	}

	usages, total, err := s.usages.FindByVoucher(ctx, id, filter)
	if err != nil {
		return shared.Paginated[UsageResponse]{}, err
	}
	items := make([]UsageResponse, len(usages))
	for i, u := range usages {
		items[i] = UsageResponse{ID: u.ID, UserID: u.UserID, OrderID: u.OrderID, Discount: u.Discount, UsedAt: u.UsedAt}
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Resolve loads a voucher by code and checks it against the subtotal and
// the customer's previous redemptions. The returned discount never exceeds
// the subtotal. A nil userID skips the per-customer limit.
func (s *VoucherService) Resolve(ctx context.Context, code string, subtotal decimal.Decimal, userID uuid.UUID) (*promotion.Voucher, decimal.Decimal, error) {
	voucher, err := s.vouchers.FindByCode(ctx, promotion.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, decimal.Zero, promotion.ErrVoucherNotFound
		}
		return nil, decimal.Zero, err
	}

	used := 0
	if userID != uuid.Nil && voucher.PerUserLimit > 0 {
		n, err := s.usages.CountByVoucherAndUser(ctx, voucher.ID, userID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		used = int(n)
	}
	if err := voucher.Validate(subtotal, s.now(), used); err != nil {
		return voucher, decimal.Zero, err
	}

	discount := voucher.Discount(subtotal)
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return voucher, discount, nil
}

// Check is the storefront "does this code work?" call
func (s *VoucherService) Check(ctx context.Context, req ValidateVoucherRequest, userID uuid.UUID) (*ValidateVoucherResponse, error) {
	voucher, discount, err := s.Resolve(ctx, req.Code, req.Subtotal, userID)
	if err != nil {
		return nil, err
	}
	return &ValidateVoucherResponse{Code: voucher.Code, Type: string(voucher.Type), Discount: discount}, nil
}
