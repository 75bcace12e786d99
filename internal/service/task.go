package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/teamspace/internal/domain"
	"github.com/google/uuid"
)

// TaskService handles workspace task operations
type TaskService struct {
	taskRepo domain.TaskRepository
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo domain.TaskRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, now: time.Now}
}

// Create creates a task in workspaceID
func (s *TaskService) Create(ctx context.Context, userID, workspaceID uuid.UUID, input domain.TaskCreate) (*domain.Task, error) {
	now := s.now().UTC()
	task := &domain.Task{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      domain.TaskTodo,
		CreatedBy:   userID,
		AssigneeID:  input.AssigneeID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// List lists the tasks of a workspace
func (s *TaskService) List(ctx context.Context, workspaceID uuid.UUID) ([]domain.Task, error) {
	tasks, err := s.taskRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Get retrieves a task of workspaceID. Tasks of other workspaces are
// reported as not found.
func (s *TaskService) Get(ctx context.Context, workspaceID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil || task.WorkspaceID != workspaceID {
		return nil, fmt.Errorf("task: %w", domain.ErrNotFound)
	}
	return task, nil
}

// Update applies input to a task
func (s *TaskService) Update(ctx context.Context, workspaceID, taskID uuid.UUID, input domain.TaskUpdate) (*domain.Task, error) {
	task, err := s.Get(ctx, workspaceID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.AssigneeID != nil {
		task.AssigneeID = input.AssigneeID
	}
	task.UpdatedAt = s.now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Delete deletes a task
func (s *TaskService) Delete(ctx context.Context, workspaceID, taskID uuid.UUID) error {
	if _, err := s.Get(ctx, workspaceID, taskID); err != nil {
		return err
	}
	return s.taskRepo.Delete(ctx, taskID)
}
