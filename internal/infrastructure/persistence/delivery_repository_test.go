package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/delivery"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormZoneRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormZoneRepository(db)
	ctx := context.Background()

	central, err := delivery.NewZone("Central London", []string{"WC1", "EC1"}, dec("3.50"), dec("25"))
	require.NoError(t, err)
	threshold := dec("60")
	require.NoError(t, central.SetFreeDeliveryThreshold(&threshold))
	require.NoError(t, repo.Save(ctx, central))

	outer, err := delivery.NewZone("Outer London", []string{"SW", "SE"}, dec("5.00"), dec("30"))
	require.NoError(t, err)
	outer.Deactivate()
	require.NoError(t, repo.Save(ctx, outer))

	found, err := repo.FindByID(ctx, central.ID)
	require.NoError(t, err)
	assert.Equal(t, central.PostcodePrefixes, found.PostcodePrefixes)
	require.NotNil(t, found.FreeDeliveryThreshold)
	assert.True(t, found.FreeDeliveryThreshold.Equal(threshold))

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, central.ID, active[0].ID)

	filter := shared.DefaultFilter()
	filter.Search = "outer"
	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(ctx, outer.ID))
	assert.ErrorIs(t, repo.Delete(ctx, outer.ID), shared.ErrNotFound)
}

func TestGormSlotRepository_BookNeverExceedsCapacity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSlotRepository(db)
	ctx := context.Background()

	slot := seedSlot(t, db, 2)

	require.NoError(t, repo.Book(ctx, slot.ID))
	require.NoError(t, repo.Book(ctx, slot.ID))
	assert.ErrorIs(t, repo.Book(ctx, slot.ID), delivery.ErrSlotFull)

	found, err := repo.FindByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Booked)

	require.NoError(t, repo.Release(ctx, slot.ID))
	require.NoError(t, repo.Release(ctx, slot.ID))
	require.NoError(t, repo.Release(ctx, slot.ID))
	found, err = repo.FindByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.Booked, "release never goes below zero")

	assert.ErrorIs(t, repo.Book(ctx, uuid.New()), shared.ErrNotFound)
}

func TestGormSlotRepository_BookInactive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSlotRepository(db)
	ctx := context.Background()

	slot := seedSlot(t, db, 5)
	slot.Deactivate()
	require.NoError(t, repo.Save(ctx, slot))

	assert.ErrorIs(t, repo.Book(ctx, slot.ID), delivery.ErrSlotUnavailable)
}

func TestGormSlotRepository_Find(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSlotRepository(db)
	ctx := context.Background()

	zoneID := uuid.New()
	day := time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)
	var slots []*delivery.Slot
	for _, hour := range []int{14, 8, 10} {
		s, err := delivery.NewSlot(zoneID, day.Add(time.Duration(hour)*time.Hour), day.Add(time.Duration(hour+2)*time.Hour), 1)
		require.NoError(t, err)
		slots = append(slots, s)
	}
	require.NoError(t, repo.SaveBatch(ctx, slots))
	require.NoError(t, repo.Book(ctx, slots[1].ID))

	all, err := repo.Find(ctx, delivery.SlotQuery{ZoneID: &zoneID, From: day, To: day.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 8, all[0].StartAt.UTC().Hour())
	assert.Equal(t, 14, all[2].StartAt.UTC().Hour())

	available, err := repo.Find(ctx, delivery.SlotQuery{ZoneID: &zoneID, AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, available, 2)
	assert.Equal(t, slots[2].ID, available[0].ID)

	otherZone := uuid.New()
	none, err := repo.Find(ctx, delivery.SlotQuery{ZoneID: &otherZone})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormSlotRepository_SaveBatchSkipsDuplicates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSlotRepository(db)
	ctx := context.Background()

	zoneID := uuid.New()
	start := time.Date(2030, 5, 1, 9, 0, 0, 0, time.UTC)
	first, err := delivery.NewSlot(zoneID, start, start.Add(time.Hour), 4)
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(ctx, []*delivery.Slot{first}))

	again, err := delivery.NewSlot(zoneID, start, start.Add(time.Hour), 8)
	require.NoError(t, err)
	later, err := delivery.NewSlot(zoneID, start.Add(time.Hour), start.Add(2*time.Hour), 8)
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(ctx, []*delivery.Slot{again, later}))

	count, err := repo.CountByZone(ctx, zoneID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	kept, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, kept.Capacity)
}
