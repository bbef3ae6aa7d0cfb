package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
)

// Filter keys understood by UserRepository.FindAll
const (
	FilterKeyRole   = "role"
	FilterKeyStatus = "status"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByEmail looks up a user by normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindAll searches email and name and filters by role and status
	FindAll(ctx context.Context, filter shared.Filter) ([]User, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *User) error
}
