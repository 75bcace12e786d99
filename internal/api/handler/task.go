package handler

import (
	"net/http"

	"github.com/Rrens/teamspace/internal/api/middleware"
	"github.com/Rrens/teamspace/internal/api/response"
	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// TaskHandler handles workspace task endpoints
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// Owners loads the creator and assignee of the task in the route
func (h *TaskHandler) Owners(r *http.Request) ([]uuid.UUID, error) {
	workspaceID, ok := middleware.GetWorkspaceID(r.Context())
	if !ok {
		var err error
		if workspaceID, err = authz.ParseWorkspaceID(chi.URLParam(r, "workspaceID")); err != nil {
			return nil, err
		}
	}
	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		return nil, domain.ErrNotFound
	}

	task, err := h.taskService.Get(r.Context(), workspaceID, taskID)
	if err != nil {
		return nil, err
	}
	return task.Owners(), nil
}

// Create creates a task in the workspace
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}

	var input domain.TaskCreate
	if !decode(w, r, &input) {
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, workspaceID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, task)
}

// List lists the workspace's tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}

	tasks, err := h.taskService.List(r.Context(), workspaceID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, tasks)
}

// Get returns a single task
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), workspaceID, taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, task)
}

// Update updates a task
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}

	var input domain.TaskUpdate
	if !decode(w, r, &input) {
		return
	}

	task, err := h.taskService.Update(r.Context(), workspaceID, taskID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, task)
}

// Delete deletes a task
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), workspaceID, taskID); err != nil {
		writeError(w, err)
		return
	}

	response.NoContent(w)
}
