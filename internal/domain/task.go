package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the progress state of a task
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Task is a unit of work inside a workspace
type Task struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Owners returns the users that own the task: its creator and assignee
func (t *Task) Owners() []uuid.UUID {
	owners := []uuid.UUID{t.CreatedBy}
	if t.AssigneeID != nil && *t.AssigneeID != t.CreatedBy {
		owners = append(owners, *t.AssigneeID)
	}
	return owners
}

// TaskCreate represents task creation data
type TaskCreate struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"omitempty,max=5000"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
}

// TaskUpdate represents task update data
type TaskUpdate struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string     `json:"description,omitempty" validate:"omitempty,max=5000"`
	Status      *TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	AssigneeID  *uuid.UUID  `json:"assignee_id,omitempty"`
}

// TaskRepository defines the interface for task storage
type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}
