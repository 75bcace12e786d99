package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// envelope is the body of every API response. Refusals from the
// authorization layer also name the missing permission, the role that was
// checked and the workspace involved.
type envelope struct {
	Success     bool   `json:"success"`
	Data        any    `json:"data,omitempty"`
	Error       any    `json:"error,omitempty"`
	Required    string `json:"required,omitempty"`
	UserRole    string `json:"user_role,omitempty"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

// Refusal describes why the authorization layer turned a request away
type Refusal struct {
	Reason      string
	Required    string
	UserRole    string
	WorkspaceID string
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body.Success = status >= 200 && status < 300
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Int("status", status).Msg("failed to write response body")
	}
}

func fail(w http.ResponseWriter, status int, message any) {
	write(w, status, envelope{Error: message})
}

// OK sends a 200 response with data
func OK(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, envelope{Data: data})
}

// Created sends a 201 response with data
func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, envelope{Data: data})
}

// NoContent sends a 204 with no body
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// BadRequest sends a 400; message may be a string or a map of field errors
func BadRequest(w http.ResponseWriter, message any) {
	fail(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message any) {
	fail(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message any) {
	fail(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message any) {
	fail(w, http.StatusNotFound, message)
}

func Conflict(w http.ResponseWriter, message any) {
	fail(w, http.StatusConflict, message)
}

// Gone is sent for invitations that expired before being answered
func Gone(w http.ResponseWriter, message any) {
	fail(w, http.StatusGone, message)
}

func TooManyRequests(w http.ResponseWriter, message any) {
	fail(w, http.StatusTooManyRequests, message)
}

func ServiceUnavailable(w http.ResponseWriter, message any) {
	fail(w, http.StatusServiceUnavailable, message)
}

func InternalError(w http.ResponseWriter, message any) {
	fail(w, http.StatusInternalServerError, message)
}

// Denied sends an authorization refusal with status
func Denied(w http.ResponseWriter, status int, refusal Refusal) {
	write(w, status, envelope{
		Error:       refusal.Reason,
		Required:    refusal.Required,
		UserRole:    refusal.UserRole,
		WorkspaceID: refusal.WorkspaceID,
	})
}
