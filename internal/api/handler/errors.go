package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Rrens/teamspace/internal/api/middleware"
	"github.com/Rrens/teamspace/internal/api/response"
	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// writeError maps service errors to responses
func writeError(w http.ResponseWriter, err error) {
	if d, ok := authz.AsDenial(err); ok {
		middleware.WriteDenial(w, d)
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrInvitationExpired):
		response.Gone(w, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, err.Error())
	case errors.Is(err, domain.ErrAccountDeactivated):
		response.Forbidden(w, err.Error())
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrAlreadyInOrganization),
		errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrPendingInvitationExists),
		errors.Is(err, domain.ErrInvitationNotPending):
		response.Conflict(w, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		response.InternalError(w, "internal server error")
	}
}

// decode reads a JSON body into dst and validates it. It writes the
// error response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make(map[string]string)
			for _, e := range validationErrors {
				switch e.Tag() {
				case "required":
					fields[e.Field()] = "field is required"
				case "email":
					fields[e.Field()] = "invalid email format"
				case "min":
					fields[e.Field()] = "must be at least " + e.Param() + " characters"
				case "max":
					fields[e.Field()] = "must be at most " + e.Param() + " characters"
				case "oneof":
					fields[e.Field()] = "must be one of: " + e.Param()
				default:
					fields[e.Field()] = "validation failed on " + e.Tag()
				}
			}
			response.BadRequest(w, fields)
			return false
		}
		response.BadRequest(w, err.Error())
		return false
	}

	return true
}

// pathID parses a uuid route parameter
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.BadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated caller
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// currentOrganization returns the organization the gate admitted the
// request for
func currentOrganization(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	grant, ok := middleware.GetGrant(r.Context())
	if !ok || grant.OrganizationID == nil {
		response.Forbidden(w, authz.ReasonNoOrganization)
		return uuid.Nil, false
	}
	return *grant.OrganizationID, true
}

// currentWorkspace returns the workspace the gate admitted the request for
func currentWorkspace(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	workspaceID, ok := middleware.GetWorkspaceID(r.Context())
	if !ok {
		response.BadRequest(w, authz.ReasonWorkspaceIDRequired)
		return uuid.Nil, false
	}
	return workspaceID, true
}

// pagination reads limit and offset query parameters; missing or bad
// values are left at zero for the service to default
func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}
