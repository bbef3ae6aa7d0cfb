package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/identity"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/grocer/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// UserService implements admin account management
type UserService struct {
	users     identity.UserRepository
	txm       shared.TransactionManager
	events    shared.OutboxEventSaver
	blacklist auth.TokenBlacklist
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewUserService creates a new UserService. tokenTTL is the refresh token
// lifetime, used to revoke the sessions of deactivated users.
func NewUserService(
	users identity.UserRepository,
	txm shared.TransactionManager,
	events shared.OutboxEventSaver,
	blacklist auth.TokenBlacklist,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:     users,
		txm:       txm,
		events:    events,
		blacklist: blacklist,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// List returns users matching the filter, newest first
func (s *UserService) List(ctx context.Context, f UserFilter) (shared.Paginated[UserResponse], error) {
	filter := shared.DefaultFilter()
	filter.Search = f.Search
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = min(f.PageSize, 100)
	}
	if f.Role != "" {
		filter.Filters[identity.FilterKeyRole] = f.Role
	}
	if f.Status != "" {
		filter.Filters[identity.FilterKeyStatus] = f.Status
	}

	users, err := s.users.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[UserResponse]{}, err
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[UserResponse]{}, err
	}
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = ToUserResponse(&users[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Get returns a single user
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// Activate re-enables a deactivated or locked account
func (s *UserService) Activate(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.Activate(); err != nil {
		return nil, err
	}
	if err := persistUser(ctx, s.txm, s.events, s.users, user); err != nil {
		return nil, err
	}
	s.logger.Info("User activated", zap.String("user_id", id.String()))
	resp := ToUserResponse(user)
	return &resp, nil
}

// Deactivate disables an account and revokes its tokens. Admins cannot
// deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, id, actorID uuid.UUID) (*UserResponse, error) {
	if id == actorID {
		return nil, shared.NewDomainError("CANNOT_DEACTIVATE_SELF", "You cannot deactivate your own account")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.Deactivate(); err != nil {
		return nil, err
	}
	if err := persistUser(ctx, s.txm, s.events, s.users, user); err != nil {
		return nil, err
	}
	if err := s.blacklist.InvalidateUserTokens(ctx, id.String(), s.tokenTTL); err != nil {
		s.logger.Error("Failed to revoke tokens of deactivated user", zap.Error(err))
	}
	s.logger.Info("User deactivated", zap.String("user_id", id.String()))
	resp := ToUserResponse(user)
	return &resp, nil
}
