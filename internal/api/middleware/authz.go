package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Rrens/teamspace/internal/api/response"
	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WorkspaceHeader carries the workspace id when it is not in the path
const WorkspaceHeader = "X-Workspace-ID"

// maxPeekBody bounds how much of a request body is read looking for a
// workspace id
const maxPeekBody = 1 << 20

// OwnerLoader returns the users who own the resource a request targets
type OwnerLoader func(r *http.Request) ([]uuid.UUID, error)

// Authorizer turns gate decisions into HTTP middleware
type Authorizer struct {
	gate       *authz.Gate
	production bool
}

// NewAuthorizer creates a new authorization middleware
func NewAuthorizer(gate *authz.Gate, production bool) *Authorizer {
	return &Authorizer{gate: gate, production: production}
}

// RequireActive rejects requests from deactivated accounts. Access tokens
// outlive a deactivation, so every authenticated route runs behind it.
func (a *Authorizer) RequireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := GetUserID(r.Context())
		if err := a.gate.RequireActive(r.Context(), userID); err != nil {
			a.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission admits requests whose system role holds permission
func (a *Authorizer) RequirePermission(permission rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := GetUserID(r.Context())
			grant, err := a.gate.RequirePermission(r.Context(), userID, permission)
			if err != nil {
				a.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithGrant(r.Context(), grant)))
		})
	}
}

// RequireOrganizationPermission admits requests whose organization role
// holds permission
func (a *Authorizer) RequireOrganizationPermission(permission rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := GetUserID(r.Context())
			grant, err := a.gate.RequireOrganizationPermission(r.Context(), userID, permission)
			if err != nil {
				a.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithGrant(r.Context(), grant)))
		})
	}
}

// RequireWorkspacePermission admits requests whose role in the target
// workspace holds permission. The workspace id is taken from the route,
// then the X-Workspace-ID header, then the query string, then a JSON body.
func (a *Authorizer) RequireWorkspacePermission(permission rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				response.Unauthorized(w, authz.ReasonUnauthenticated)
				return
			}

			workspaceID, err := authz.ParseWorkspaceID(workspaceIDFrom(r))
			if err != nil {
				a.WriteError(w, err)
				return
			}

			grant, err := a.gate.RequireWorkspacePermission(r.Context(), userID, workspaceID, permission)
			if err != nil {
				a.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithGrant(r.Context(), grant)))
		})
	}
}

// RequireOwnershipOrRole admits requests from an owner of the loaded
// resource, or from users whose system role is at least minRole
func (a *Authorizer) RequireOwnershipOrRole(load OwnerLoader, minRole rbac.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				response.Unauthorized(w, authz.ReasonUnauthenticated)
				return
			}

			owners, err := load(r)
			if err != nil {
				a.WriteError(w, err)
				return
			}

			grant, err := a.gate.RequireOwnershipOrRole(r.Context(), userID, owners, minRole)
			if err != nil {
				a.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithGrant(r.Context(), grant)))
		})
	}
}

// WriteError renders err as a refusal. Anything that is neither a denial
// nor a missing resource is a failure to decide and becomes a 500.
func (a *Authorizer) WriteError(w http.ResponseWriter, err error) {
	if d, ok := authz.AsDenial(err); ok {
		WriteDenial(w, d)
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		response.NotFound(w, "resource not found")
		return
	}

	log.Error().Err(err).Msg("authorization check failed")
	if a.production {
		response.InternalError(w, "authorization check failed")
		return
	}
	response.InternalError(w, err.Error())
}

// WriteDenial renders a gate refusal
func WriteDenial(w http.ResponseWriter, d *authz.Denial) {
	refusal := response.Refusal{
		Reason:      d.Reason,
		Required:    string(d.Required),
		WorkspaceID: d.WorkspaceID,
	}
	if d.UserRole != rbac.RoleUnknown {
		refusal.UserRole = d.UserRole.String()
	}
	response.Denied(w, d.Status, refusal)
}

func workspaceIDFrom(r *http.Request) string {
	if id := chi.URLParam(r, "workspaceID"); id != "" {
		return id
	}
	if id := r.Header.Get(WorkspaceHeader); id != "" {
		return id
	}
	if id := r.URL.Query().Get("workspace_id"); id != "" {
		return id
	}
	return workspaceIDFromBody(r)
}

// workspaceIDFromBody peeks at a JSON body and restores it for the handler
func workspaceIDFromBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body struct {
		WorkspaceID string `json:"workspace_id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.WorkspaceID
}
