package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newWorkspaceService(e *testEnv) *WorkspaceService {
	return NewWorkspaceService(e.workspaces, e.orgs, e.gate, e.recorder)
}

func organization(e *testEnv, allowPublic bool) *domain.Organization {
	org := &domain.Organization{
		ID:       uuid.New(),
		Name:     "Acme",
		Settings: domain.OrganizationSettings{AllowPublicWorkspaces: allowPublic},
	}
	e.orgs.On("GetByID", mock.Anything, org.ID).Return(org, nil).Maybe()
	return org
}

func TestWorkspaceService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("private by default", func(t *testing.T) {
		env := newTestEnv()
		svc := newWorkspaceService(env)
		org := organization(env, false)
		userID := uuid.New()

		env.workspaces.On("Create", ctx, mock.MatchedBy(func(ws *domain.Workspace) bool {
			return ws.OwnerID == userID && ws.OrganizationID == org.ID && ws.IsPrivate && ws.MemberCount == 1
		})).Return(nil).Once()

		ws, err := svc.Create(ctx, userID, org.ID, domain.WorkspaceCreate{Name: " Roadmap "})
		require.NoError(t, err)
		assert.Equal(t, "Roadmap", ws.Name)
		env.workspaces.AssertExpectations(t)
	})

	t.Run("public rejected when disabled", func(t *testing.T) {
		env := newTestEnv()
		svc := newWorkspaceService(env)
		org := organization(env, false)

		_, err := svc.Create(ctx, uuid.New(), org.ID, domain.WorkspaceCreate{Name: "Open", IsPrivate: ptr(false)})
		requireDenial(t, err, http.StatusForbidden, authz.ReasonPublicWorkspacesDisabled)
		env.workspaces.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("public allowed", func(t *testing.T) {
		env := newTestEnv()
		svc := newWorkspaceService(env)
		org := organization(env, true)
		env.workspaces.On("Create", ctx, mock.Anything).Return(nil).Once()

		ws, err := svc.Create(ctx, uuid.New(), org.ID, domain.WorkspaceCreate{Name: "Open", IsPrivate: ptr(false)})
		require.NoError(t, err)
		assert.False(t, ws.IsPrivate)
	})
}

func TestWorkspaceService_Delete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := newWorkspaceService(env)

	orgID := uuid.New()
	ws := env.workspace(uuid.New(), orgID)

	err := svc.Delete(ctx, uuid.New(), ws.ID)
	requireDenial(t, err, http.StatusForbidden, authz.ReasonWorkspaceOutsideOrganization)

	env.workspaces.On("Delete", ctx, ws.ID).Return(nil).Once()
	require.NoError(t, svc.Delete(ctx, orgID, ws.ID))

	env.workspaces.On("GetByID", mock.Anything, mock.Anything).Return(nil, nil).Once()
	err = svc.Delete(ctx, orgID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWorkspaceService_UpdateMemberRole(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("admin demotes manager", func(t *testing.T) {
		env := newTestEnv()
		svc := newWorkspaceService(env)
		ws := env.workspace(uuid.New(), orgID)
		admin, target := uuid.New(), uuid.New()
		env.member(ws, admin, rbac.RoleWorkspaceAdmin)
		env.member(ws, target, rbac.RoleManager)

		env.workspaces.On("UpdateMemberRole", ctx, ws.ID, target, rbac.RoleViewer).Return(nil).Once()
		env.audits.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
			return e.Type == domain.AuditRoleChange &&
				*e.WorkspaceID == ws.ID &&
				e.Before == "manager" &&
				e.After == "viewer"
		})).Return(nil).Once()

		member, err := svc.UpdateMemberRole(ctx, admin, ws.ID, target, domain.RoleChange{Role: "viewer"})
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleViewer, member.Role)
		env.workspaces.AssertExpectations(t)
		env.audits.AssertExpectations(t)
	})

	t.Run("owner has no member record", func(t *testing.T) {
		env := newTestEnv()
		svc := newWorkspaceService(env)
		owner := uuid.New()
		ws := env.workspace(owner, orgID)
		admin := uuid.New()
		env.member(ws, admin, rbac.RoleWorkspaceAdmin)

		_, err := svc.UpdateMemberRole(ctx, admin, ws.ID, owner, domain.RoleChange{Role: "viewer"})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("cannot grant own level", func(t *testing.T) {
		env := newTestEnv()
		svc := newWorkspaceService(env)
		ws := env.workspace(uuid.New(), orgID)
		admin, target := uuid.New(), uuid.New()
		env.member(ws, admin, rbac.RoleWorkspaceAdmin)
		env.member(ws, target, rbac.RoleMember)

		_, err := svc.UpdateMemberRole(ctx, admin, ws.ID, target, domain.RoleChange{Role: "workspace_admin"})
		requireDenial(t, err, http.StatusForbidden, authz.ReasonRoleTooHigh)
	})

	t.Run("cannot manage a peer", func(t *testing.T) {
		env := newTestEnv()
		svc := newWorkspaceService(env)
		ws := env.workspace(uuid.New(), orgID)
		a, b := uuid.New(), uuid.New()
		env.member(ws, a, rbac.RoleWorkspaceAdmin)
		env.member(ws, b, rbac.RoleWorkspaceAdmin)

		_, err := svc.UpdateMemberRole(ctx, a, ws.ID, b, domain.RoleChange{Role: "viewer"})
		requireDenial(t, err, http.StatusForbidden, authz.ReasonCannotManageUser)
	})

	t.Run("cannot change own role", func(t *testing.T) {
		env := newTestEnv()
		svc := newWorkspaceService(env)
		ws := env.workspace(uuid.New(), orgID)
		admin := uuid.New()
		env.member(ws, admin, rbac.RoleWorkspaceAdmin)

		_, err := svc.UpdateMemberRole(ctx, admin, ws.ID, admin, domain.RoleChange{Role: "viewer"})
		requireDenial(t, err, http.StatusForbidden, authz.ReasonCannotManageUser)
	})
}

func TestWorkspaceService_RemoveMember(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("owner removes member", func(t *testing.T) {
		env := newTestEnv()
		svc := newWorkspaceService(env)
		owner, target := uuid.New(), uuid.New()
		ws := env.workspace(owner, orgID)
		env.member(ws, target, rbac.RoleMember)

		env.workspaces.On("RemoveMember", ctx, ws.ID, target).Return(nil).Once()
		env.audits.On("Append", mock.Anything, auditOfType(domain.AuditMemberRemoved)).Return(nil).Once()

		require.NoError(t, svc.RemoveMember(ctx, owner, ws.ID, target))
		env.workspaces.AssertExpectations(t)
		env.audits.AssertExpectations(t)
	})

	t.Run("member leaves", func(t *testing.T) {
		env := newTestEnv()
		env.auditOK()
		svc := newWorkspaceService(env)
		ws := env.workspace(uuid.New(), orgID)
		viewer := uuid.New()
		env.member(ws, viewer, rbac.RoleViewer)
		env.workspaces.On("RemoveMember", ctx, ws.ID, viewer).Return(nil).Once()

		assert.NoError(t, svc.RemoveMember(ctx, viewer, ws.ID, viewer))
	})

	t.Run("store failure", func(t *testing.T) {
		env := newTestEnv()
		svc := newWorkspaceService(env)
		owner, target := uuid.New(), uuid.New()
		ws := env.workspace(owner, orgID)
		env.member(ws, target, rbac.RoleMember)
		env.workspaces.On("RemoveMember", ctx, ws.ID, target).Return(errors.New("db down")).Once()

		assert.Error(t, svc.RemoveMember(ctx, owner, ws.ID, target))
		env.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}
