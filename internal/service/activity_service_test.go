package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unidesk/registrar-api/internal/models"
	"github.com/unidesk/registrar-api/pkg/jobs"
)

type mockActivityStore struct {
	mu      sync.Mutex
	created []models.Activity
	wrote   chan struct{}
}

func (m *mockActivityStore) Create(ctx context.Context, activity *models.Activity) error {
	m.mu.Lock()
	m.created = append(m.created, *activity)
	m.mu.Unlock()
	m.wrote <- struct{}{}
	return nil
}

func (m *mockActivityStore) ListRecent(ctx context.Context, limit int) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Activity(nil), m.created...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestActivityServiceRecord(t *testing.T) {
	store := &mockActivityStore{wrote: make(chan struct{}, 1)}
	svc := NewActivityService(store, jobs.QueueConfig{Workers: 1, BufferSize: 4}, nil)
	svc.Start(context.Background())
	defer svc.Stop()

	svc.Record(models.Activity{Type: models.ActivityTypeEnrollment, Action: models.ActivityActionEnrolled, Actor: "2024-0001"})

	select {
	case <-store.wrote:
	case <-time.After(2 * time.Second):
		t.Fatal("activity was not persisted")
	}

	recent, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.ActivityActionEnrolled, recent[0].Action)
}

func TestActivityServiceRecordBeforeStart(t *testing.T) {
	store := &mockActivityStore{wrote: make(chan struct{}, 1)}
	svc := NewActivityService(store, jobs.QueueConfig{Workers: 1}, nil)

	// Dropped with a log line, never blocks or panics.
	svc.Record(models.Activity{Type: models.ActivityTypeEnrollment, Action: models.ActivityActionDropped})

	assert.Empty(t, store.created)
}
