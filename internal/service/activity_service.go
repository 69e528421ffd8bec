package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unidesk/registrar-api/internal/models"
	"github.com/unidesk/registrar-api/pkg/jobs"
)

type activityStore interface {
	Create(ctx context.Context, activity *models.Activity) error
	ListRecent(ctx context.Context, limit int) ([]models.Activity, error)
}

// ActivityService writes audit feed entries through a background
// queue. Record is fire-and-forget: a full queue or a failed insert is
// logged and never surfaces to the enrollment path.
type ActivityService struct {
	store  activityStore
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewActivityService builds the service and its worker queue. Call
// Start before recording and Stop on shutdown.
func NewActivityService(store activityStore, cfg jobs.QueueConfig, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ActivityService{store: store, logger: logger}
	s.queue = jobs.NewQueue("activity-log", s.handle, cfg)
	return s
}

// Start launches the queue workers.
func (s *ActivityService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *ActivityService) Stop() {
	s.queue.Stop()
}

// Record enqueues one activity entry without blocking the caller on
// persistence.
func (s *ActivityService) Record(activity models.Activity) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    activity.Type,
		Payload: activity,
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("dropping activity record", zap.String("action", activity.Action), zap.Error(err))
	}
}

// Recent returns the newest entries for the dashboard feed.
func (s *ActivityService) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	return s.store.ListRecent(ctx, limit)
}

func (s *ActivityService) handle(ctx context.Context, job jobs.Job) error {
	activity, ok := job.Payload.(models.Activity)
	if !ok {
		s.logger.Error("unexpected activity payload type", zap.String("job_id", job.ID))
		return nil
	}
	return s.store.Create(ctx, &activity)
}
