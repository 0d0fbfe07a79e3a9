package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskmate/internal/model"
	"taskmate/internal/notify"
	"taskmate/internal/repository"
)

// Delivery hands an admitted notification batch to the outside world
// (in production, the Telegram bot).
type Delivery interface {
	Deliver(ctx context.Context, batch []model.Notification) error
}

// Report summarizes one notification check run.
type Report struct {
	RunID      string
	Enabled    bool
	Eligible   int
	Sent       int
	DailyCount int
	MaxPerDay  int
}

// Notifier runs the periodic notification check: settings load, day
// rollover, eligibility, frequency cap, atomic persist, delivery.
type Notifier struct {
	taskRepo     *repository.TaskRepository
	notifRepo    *repository.NotificationRepository
	settingsRepo *repository.SettingsRepository
	delivery     Delivery

	maxPerDay int
	leadTime  time.Duration
	now       func() time.Time

	// mu serializes check runs so the cron tick and an on-demand /check
	// never interleave their read-modify-write of the settings row.
	mu sync.Mutex
}

func NewNotifier(taskRepo *repository.TaskRepository, notifRepo *repository.NotificationRepository, settingsRepo *repository.SettingsRepository, maxPerDay int, leadTime time.Duration) *Notifier {
	return &Notifier{
		taskRepo:     taskRepo,
		notifRepo:    notifRepo,
		settingsRepo: settingsRepo,
		maxPerDay:    maxPerDay,
		leadTime:     leadTime,
		now:          time.Now,
	}
}

// SetDelivery wires the delivery collaborator. Without one, admitted
// notifications are persisted but only logged.
func (s *Notifier) SetDelivery(d Delivery) {
	s.delivery = d
}

// RunCheck executes one notification check. It is safe to call from the
// scheduler and on demand concurrently; runs are serialized. Any store
// failure aborts the whole run with nothing persisted, and the next tick
// retries naturally.
func (s *Notifier) RunCheck(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()

	now := s.now()
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load settings: %w", err)
	}

	var candidates []notify.Candidate
	if settings.Enabled {
		tasks, err := s.taskRepo.ListOpen(ctx)
		if err != nil {
			return Report{}, err
		}
		history, err := s.notifRepo.ListAll(ctx)
		if err != nil {
			return Report{}, err
		}
		candidates = notify.Eligible(tasks, history, now, s.leadTime)
	}

	admitted, updated := notify.Admit(candidates, *settings, now, s.maxPerDay)

	batch := make([]model.Notification, 0, len(admitted))
	for _, c := range admitted {
		taskID := c.TaskID
		batch = append(batch, model.Notification{
			TaskID:  &taskID,
			UserID:  c.UserID,
			Message: c.Message,
			SentAt:  now,
		})
	}

	if err := s.notifRepo.CommitBatch(ctx, batch, &updated); err != nil {
		return Report{}, err
	}

	if len(batch) > 0 {
		if s.delivery != nil {
			if err := s.delivery.Deliver(ctx, batch); err != nil {
				// The batch is already committed; dedup keeps the next run
				// from re-admitting these tasks, so just report the failure.
				log.Printf("deliver notifications run=%s: %v", runID, err)
			}
		} else {
			log.Printf("[info] no delivery wired, run=%s holding %d notification(s)", runID, len(batch))
		}
	}

	log.Printf("[info] notification check run=%s enabled=%t eligible=%d sent=%d count=%d/%d",
		runID, updated.Enabled, len(candidates), len(batch), updated.DailyCount, s.maxPerDay)

	return Report{
		RunID:      runID,
		Enabled:    updated.Enabled,
		Eligible:   len(candidates),
		Sent:       len(batch),
		DailyCount: updated.DailyCount,
		MaxPerDay:  s.maxPerDay,
	}, nil
}
