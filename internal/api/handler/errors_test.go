package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"not found", fmt.Errorf("user: %w", domain.ErrNotFound), http.StatusNotFound, "user: not found"},
		{"expired invitation", domain.ErrInvitationExpired, http.StatusGone, "invitation expired"},
		{"not pending", domain.ErrInvitationNotPending, http.StatusConflict, "invitation no longer pending"},
		{"duplicate invitation", domain.ErrPendingInvitationExists, http.StatusConflict, ""},
		{"already in organization", domain.ErrAlreadyInOrganization, http.StatusConflict, ""},
		{"already member", domain.ErrAlreadyMember, http.StatusConflict, ""},
		{"email taken", domain.ErrEmailTaken, http.StatusConflict, ""},
		{"wrapped conflict", fmt.Errorf("%w: owner", domain.ErrConflict), http.StatusConflict, ""},
		{"invalid input", fmt.Errorf("%w: is_active is required", domain.ErrInvalidInput), http.StatusBadRequest, ""},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{"deactivated", domain.ErrAccountDeactivated, http.StatusForbidden, ""},
		{"denial", authz.Forbidden(authz.ReasonOwnerRoleProtected), http.StatusForbidden, authz.ReasonOwnerRoleProtected},
		{"invalid role", mustRoleError(t), http.StatusBadRequest, authz.ReasonInvalidRole},
		{"unexpected", errors.New("pq: connection reset by 10.1.2.3"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, false, body["success"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func mustRoleError(t *testing.T) error {
	_, err := authz.ParseRequestedRole("emperor")
	require.Error(t, err)
	return err
}

func TestDecode(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))

		var input domain.UserCreate
		assert.False(t, decode(rec, req, &input))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("field errors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":"short"}`))

		var input domain.UserCreate
		require.False(t, decode(rec, req, &input))

		var body struct {
			Error map[string]string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "invalid email format", body.Error["Email"])
		assert.Equal(t, "must be at least 8 characters", body.Error["Password"])
	})

	t.Run("valid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"ada@example.com","password":"correct horse"}`))

		var input domain.UserCreate
		require.True(t, decode(rec, req, &input))
		assert.Equal(t, "ada@example.com", input.Email)
	})
}

func TestPagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&offset=50", nil)
	limit, offset := pagination(req)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)

	req = httptest.NewRequest(http.MethodGet, "/?limit=lots", nil)
	limit, offset = pagination(req)
	assert.Zero(t, limit)
	assert.Zero(t, offset)
}
