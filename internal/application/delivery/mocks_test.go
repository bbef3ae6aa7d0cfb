package delivery

import (
	"context"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockZoneRepository struct {
	mock.Mock
}

func (m *MockZoneRepository) FindByID(ctx context.Context, id uuid.UUID) (*delivery.Zone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Zone), args.Error(1)
}

func (m *MockZoneRepository) FindAll(ctx context.Context, filter shared.Filter) ([]delivery.Zone, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]delivery.Zone), args.Error(1)
}

func (m *MockZoneRepository) FindActive(ctx context.Context) ([]delivery.Zone, error) {
	args := m.Called(ctx)
	return args.Get(0).([]delivery.Zone), args.Error(1)
}

func (m *MockZoneRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockZoneRepository) Save(ctx context.Context, zone *delivery.Zone) error {
	return m.Called(ctx, zone).Error(0)
}

func (m *MockZoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockSlotRepository struct {
	mock.Mock
}

func (m *MockSlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*delivery.Slot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Slot), args.Error(1)
}

func (m *MockSlotRepository) Find(ctx context.Context, query delivery.SlotQuery) ([]delivery.Slot, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]delivery.Slot), args.Error(1)
}

func (m *MockSlotRepository) Save(ctx context.Context, slot *delivery.Slot) error {
	return m.Called(ctx, slot).Error(0)
}

func (m *MockSlotRepository) SaveBatch(ctx context.Context, slots []*delivery.Slot) error {
	return m.Called(ctx, slots).Error(0)
}

func (m *MockSlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSlotRepository) CountByZone(ctx context.Context, zoneID uuid.UUID) (int64, error) {
	args := m.Called(ctx, zoneID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSlotRepository) Book(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSlotRepository) Release(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
