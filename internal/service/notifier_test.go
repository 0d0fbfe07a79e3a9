package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"taskmate/internal/model"
	"taskmate/internal/repository"
)

var tickTime = time.Date(2026, time.August, 24, 9, 0, 0, 0, time.Local)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache memory database keeps all pooled connections on
	// the same store while isolating tests from each other.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := repository.NewDB(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type captureDelivery struct {
	batches [][]model.Notification
}

func (c *captureDelivery) Deliver(_ context.Context, batch []model.Notification) error {
	c.batches = append(c.batches, batch)
	return nil
}

type fixture struct {
	notifier *Notifier
	tasks    *repository.TaskRepository
	notifs   *repository.NotificationRepository
	settings *repository.SettingsRepository
	delivery *captureDelivery
	user     model.User
}

func newFixture(t *testing.T, enabled bool, maxPerDay int) *fixture {
	t.Helper()

	db := newTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db, enabled)

	notifier := NewNotifier(taskRepo, notifRepo, settingsRepo, maxPerDay, 3*time.Hour)
	notifier.now = func() time.Time { return tickTime }
	delivery := &captureDelivery{}
	notifier.SetDelivery(delivery)

	user := model.User{TelegramID: 42, FirstName: "Ada"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	return &fixture{
		notifier: notifier,
		tasks:    taskRepo,
		notifs:   notifRepo,
		settings: settingsRepo,
		delivery: delivery,
		user:     user,
	}
}

func (f *fixture) addTask(t *testing.T, title string, due time.Time) model.Task {
	t.Helper()
	task := model.Task{UserID: f.user.ID, Title: title, Deadline: &due, Priority: model.PriorityMedium}
	if err := f.tasks.Create(context.Background(), &task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestRunCheckSendsReminder(t *testing.T) {
	f := newFixture(t, true, 3)
	task := f.addTask(t, "finish the report", tickTime.Add(2*time.Hour))

	report, err := f.notifier.RunCheck(context.Background())
	if err != nil {
		t.Fatalf("RunCheck: %v", err)
	}
	if report.Sent != 1 {
		t.Fatalf("Sent = %d, want 1", report.Sent)
	}
	if report.DailyCount != 1 {
		t.Errorf("DailyCount = %d, want 1", report.DailyCount)
	}

	if len(f.delivery.batches) != 1 || len(f.delivery.batches[0]) != 1 {
		t.Fatalf("delivery got %+v, want one batch of one", f.delivery.batches)
	}
	delivered := f.delivery.batches[0][0]
	if delivered.TaskID == nil || *delivered.TaskID != task.ID {
		t.Errorf("delivered TaskID = %v, want %d", delivered.TaskID, task.ID)
	}
	if !strings.Contains(delivered.Message, "finish the report") {
		t.Errorf("message %q does not mention the task", delivered.Message)
	}

	history, err := f.notifs.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("persisted %d notifications, want 1", len(history))
	}
}

// A second run inside the same window must not re-admit a task that already
// holds an undismissed notification.
func TestRunCheckIdempotentPerWindow(t *testing.T) {
	f := newFixture(t, true, 3)
	f.addTask(t, "finish the report", tickTime.Add(2*time.Hour))

	for i := 0; i < 3; i++ {
		if _, err := f.notifier.RunCheck(context.Background()); err != nil {
			t.Fatalf("RunCheck #%d: %v", i+1, err)
		}
	}

	history, err := f.notifs.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("persisted %d notifications across repeated runs, want 1", len(history))
	}
}

func TestRunCheckAfterDismissal(t *testing.T) {
	f := newFixture(t, true, 3)
	f.addTask(t, "finish the report", tickTime.Add(2*time.Hour))

	if _, err := f.notifier.RunCheck(context.Background()); err != nil {
		t.Fatalf("first RunCheck: %v", err)
	}
	history, _ := f.notifs.ListAll(context.Background())
	if len(history) != 1 {
		t.Fatalf("persisted %d notifications, want 1", len(history))
	}

	if err := f.notifs.Dismiss(context.Background(), history[0].ID, tickTime.Add(10*time.Minute)); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}

	report, err := f.notifier.RunCheck(context.Background())
	if err != nil {
		t.Fatalf("second RunCheck: %v", err)
	}
	if report.Sent != 1 {
		t.Errorf("Sent after dismissal = %d, want 1", report.Sent)
	}
}

func TestRunCheckHonorsDailyCap(t *testing.T) {
	f := newFixture(t, true, 1)
	early := f.addTask(t, "early deadline", tickTime.Add(time.Hour))
	f.addTask(t, "late deadline", tickTime.Add(2*time.Hour))

	report, err := f.notifier.RunCheck(context.Background())
	if err != nil {
		t.Fatalf("RunCheck: %v", err)
	}
	if report.Sent != 1 {
		t.Fatalf("Sent = %d, want 1", report.Sent)
	}

	history, _ := f.notifs.ListAll(context.Background())
	if len(history) != 1 {
		t.Fatalf("persisted %d notifications, want 1", len(history))
	}
	if history[0].TaskID == nil || *history[0].TaskID != early.ID {
		t.Errorf("admitted task %v, want the earlier deadline %d", history[0].TaskID, early.ID)
	}
}

func TestRunCheckDisabled(t *testing.T) {
	f := newFixture(t, false, 3)
	f.addTask(t, "finish the report", tickTime.Add(time.Hour))

	report, err := f.notifier.RunCheck(context.Background())
	if err != nil {
		t.Fatalf("RunCheck: %v", err)
	}
	if report.Enabled || report.Sent != 0 {
		t.Errorf("report = %+v, want disabled with nothing sent", report)
	}
	if len(f.delivery.batches) != 0 {
		t.Errorf("delivery called while disabled: %+v", f.delivery.batches)
	}

	// The rollover still lands: the settings row now carries today's date.
	settings, err := f.settings.Get(context.Background())
	if err != nil {
		t.Fatalf("Get settings: %v", err)
	}
	if settings.LastResetDate != tickTime.Format(model.DateLayout) {
		t.Errorf("LastResetDate = %q, want today", settings.LastResetDate)
	}
}

func TestRunCheckDayRollover(t *testing.T) {
	f := newFixture(t, true, 1)
	f.addTask(t, "first day task", tickTime.Add(time.Hour))

	if report, err := f.notifier.RunCheck(context.Background()); err != nil || report.Sent != 1 {
		t.Fatalf("day one RunCheck = %+v, %v", report, err)
	}
	// Cap is now exhausted for the day.
	if report, err := f.notifier.RunCheck(context.Background()); err != nil || report.DailyCount != 1 {
		t.Fatalf("capped RunCheck = %+v, %v", report, err)
	}

	nextDay := tickTime.AddDate(0, 0, 1)
	f.notifier.now = func() time.Time { return nextDay }
	f.addTask(t, "second day task", nextDay.Add(time.Hour))

	report, err := f.notifier.RunCheck(context.Background())
	if err != nil {
		t.Fatalf("day two RunCheck: %v", err)
	}
	if report.Sent != 1 {
		t.Errorf("Sent on day two = %d, want 1 after counter reset", report.Sent)
	}
	if report.DailyCount != 1 {
		t.Errorf("DailyCount on day two = %d, want 1", report.DailyCount)
	}
}

func TestRunCheckSkipsCompletedTasks(t *testing.T) {
	f := newFixture(t, true, 3)
	task := f.addTask(t, "already done", tickTime.Add(time.Hour))
	if err := f.tasks.MarkCompleted(context.Background(), &task, tickTime); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	report, err := f.notifier.RunCheck(context.Background())
	if err != nil {
		t.Fatalf("RunCheck: %v", err)
	}
	if report.Sent != 0 {
		t.Errorf("Sent = %d, want 0 for a completed task", report.Sent)
	}
}
