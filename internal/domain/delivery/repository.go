package delivery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
)

// ZoneRepository defines the interface for delivery zone persistence
type ZoneRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Zone, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Zone, error)
	FindActive(ctx context.Context) ([]Zone, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, zone *Zone) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SlotQuery selects slots by zone and start time range
type SlotQuery struct {
	ZoneID        *uuid.UUID
	From          time.Time
	To            time.Time
	AvailableOnly bool
}

// SlotRepository defines the interface for delivery slot persistence
type SlotRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	// Find returns slots ordered by start time. AvailableOnly excludes
	// inactive and full slots.
	Find(ctx context.Context, query SlotQuery) ([]Slot, error)
	Save(ctx context.Context, slot *Slot) error
	SaveBatch(ctx context.Context, slots []*Slot) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByZone(ctx context.Context, zoneID uuid.UUID) (int64, error)

	// Book atomically increments the booked count. It fails with SLOT_FULL
	// without modifying anything when the slot is at capacity.
	Book(ctx context.Context, id uuid.UUID) error
	// Release atomically decrements the booked count, never below zero
	Release(ctx context.Context, id uuid.UUID) error
}
