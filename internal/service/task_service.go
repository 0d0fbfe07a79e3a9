package service

import (
	"context"
	"time"

	"taskmate/internal/extract"
	"taskmate/internal/model"
	"taskmate/internal/repository"
)

// TaskService bridges message extraction to the task store.
type TaskService struct {
	taskRepo *repository.TaskRepository
}

func NewTaskService(taskRepo *repository.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo}
}

// ExtractAndSave runs the extractor over a chat message and persists one
// task per candidate. Candidate deadlines are resolved against now. A
// message with no matches returns an empty slice and no error.
func (s *TaskService) ExtractAndSave(ctx context.Context, user *model.User, message string, now time.Time) ([]model.Task, error) {
	candidates, err := extract.Extract(message, now)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	tasks := make([]model.Task, 0, len(candidates))
	for _, c := range candidates {
		tasks = append(tasks, model.Task{
			UserID:      user.ID,
			Title:       c.Title,
			Description: c.Description,
			Deadline:    c.Deadline,
			Priority:    c.Priority,
		})
	}

	if err := s.taskRepo.CreateAll(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskService) ListOpen(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListOpenByUser(ctx, user.ID)
}

// CompleteTask marks a task as done.
func (s *TaskService) CompleteTask(ctx context.Context, user *model.User, taskID uint, completedAt time.Time) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.MarkCompleted(ctx, task, completedAt); err != nil {
		return nil, err
	}
	return task, nil
}
