package event

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grocer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryOutboxRepo struct {
	entries   map[uuid.UUID]*shared.OutboxEntry
	updateErr error
}

func newMemoryOutboxRepo() *memoryOutboxRepo {
	return &memoryOutboxRepo{entries: make(map[uuid.UUID]*shared.OutboxEntry)}
}

func (r *memoryOutboxRepo) Save(_ context.Context, entries ...*shared.OutboxEntry) error {
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *memoryOutboxRepo) FindPending(context.Context, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memoryOutboxRepo) FindRetryable(context.Context, time.Time, int) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memoryOutboxRepo) FindDead(_ context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error) {
	var dead []*shared.OutboxEntry
	for _, e := range r.entries {
		if e.Status == shared.OutboxStatusDead {
			dead = append(dead, e)
		}
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i].CreatedAt.Before(dead[j].CreatedAt) })
	total := int64(len(dead))
	start := (page - 1) * pageSize
	if start >= len(dead) {
		return nil, total, nil
	}
	end := min(start+pageSize, len(dead))
	return dead[start:end], total, nil
}

func (r *memoryOutboxRepo) FindByID(_ context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	if e, ok := r.entries[id]; ok {
		return e, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memoryOutboxRepo) MarkProcessing(context.Context, []uuid.UUID) ([]*shared.OutboxEntry, error) {
	return nil, nil
}

func (r *memoryOutboxRepo) Update(_ context.Context, entry *shared.OutboxEntry) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.entries[entry.ID] = entry
	return nil
}

func (r *memoryOutboxRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (r *memoryOutboxRepo) CountByStatus(context.Context) (map[shared.OutboxStatus]int64, error) {
	counts := make(map[shared.OutboxStatus]int64)
	for _, e := range r.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func addEntry(repo *memoryOutboxRepo, status shared.OutboxStatus, payload []byte) *shared.OutboxEntry {
	ev := shared.NewBaseDomainEvent("OrderPlaced", "Order", uuid.New())
	entry := shared.NewOutboxEntry(&ev, payload)
	entry.Status = status
	if status == shared.OutboxStatusDead {
		entry.RetryCount = entry.MaxRetries
		entry.LastError = "broker unavailable"
	}
	repo.entries[entry.ID] = entry
	return entry
}

func TestOutboxService_ListDead(t *testing.T) {
	repo := newMemoryOutboxRepo()
	for range 3 {
		addEntry(repo, shared.OutboxStatusDead, []byte(`{}`))
	}
	addEntry(repo, shared.OutboxStatusSent, []byte(`{}`))
	svc := NewOutboxService(repo, zap.NewNop())

	page, err := svc.ListDead(context.Background(), OutboxFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.Items[0].Payload, "list view omits payloads")

	page, err = svc.ListDead(context.Background(), OutboxFilter{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 100, page.PageSize)
}

func TestOutboxService_Get(t *testing.T) {
	repo := newMemoryOutboxRepo()
	big := []byte(strings.Repeat("x", maxPayloadPreview+10))
	entry := addEntry(repo, shared.OutboxStatusDead, big)
	svc := NewOutboxService(repo, zap.NewNop())

	dto, err := svc.Get(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Len(t, dto.Payload, maxPayloadPreview)
	assert.Equal(t, "broker unavailable", dto.LastError)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestOutboxService_Retry(t *testing.T) {
	repo := newMemoryOutboxRepo()
	dead := addEntry(repo, shared.OutboxStatusDead, nil)
	sent := addEntry(repo, shared.OutboxStatusSent, nil)
	svc := NewOutboxService(repo, zap.NewNop())

	dto, err := svc.Retry(context.Background(), dead.ID)
	require.NoError(t, err)
	assert.Equal(t, string(shared.OutboxStatusPending), dto.Status)
	assert.Zero(t, dto.RetryCount)
	assert.Equal(t, shared.OutboxStatusPending, repo.entries[dead.ID].Status)

	_, err = svc.Retry(context.Background(), sent.ID)
	assert.ErrorIs(t, err, ErrEntryNotDead)

	_, err = svc.Retry(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestOutboxService_RetryAll(t *testing.T) {
	repo := newMemoryOutboxRepo()
	for range 150 {
		addEntry(repo, shared.OutboxStatusDead, nil)
	}
	addEntry(repo, shared.OutboxStatusFailed, nil)
	svc := NewOutboxService(repo, zap.NewNop())

	count, err := svc.RetryAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(150), count)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(150), stats.Pending)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Zero(t, stats.Dead)
	assert.Equal(t, int64(151), stats.Total)
}

func TestOutboxService_RetryAllStopsWhenUpdatesFail(t *testing.T) {
	repo := newMemoryOutboxRepo()
	addEntry(repo, shared.OutboxStatusDead, nil)
	repo.updateErr = errors.New("db down")
	svc := NewOutboxService(repo, zap.NewNop())

	count, err := svc.RetryAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
