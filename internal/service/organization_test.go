package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Rrens/teamspace/internal/audit"
	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOrganizationService(e *testEnv) *OrganizationService {
	return NewOrganizationService(e.orgs, e.users, e.gate, e.recorder)
}

func requireDenial(t *testing.T, err error, status int, reason string) {
	t.Helper()
	d, ok := authz.AsDenial(err)
	require.True(t, ok, "expected denial, got %v", err)
	assert.Equal(t, status, d.Status)
	assert.Equal(t, reason, d.Reason)
}

func TestOrganizationService_CreateMakesCallerOwner(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := newOrganizationService(env)

	founder := env.user(rbac.RoleMember, nil, rbac.RoleUnknown)

	env.orgs.On("CreateWithOwner", ctx, mock.MatchedBy(func(org *domain.Organization) bool {
		return org.OwnerID == founder.ID && org.MemberCount == 1 && org.Settings.AllowPublicWorkspaces
	})).Run(func(args mock.Arguments) {
		org := args.Get(1).(*domain.Organization)
		founder.OrganizationID = &org.ID
		founder.OrganizationRole = rbac.RoleOrgOwner
	}).Return(nil).Once()
	env.audits.On("Append", mock.Anything, auditOfType(domain.AuditOrganizationCreated)).Return(nil).Once()

	org, err := svc.Create(ctx, founder.ID, domain.OrganizationCreate{Name: "  Acme  "})
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)

	role, err := env.gate.Resolver().UserOrganizationRole(ctx, founder.ID)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleOrgOwner, role)

	orgID, err := env.gate.Resolver().UserOrganizationID(ctx, founder.ID)
	require.NoError(t, err)
	require.NotNil(t, orgID)
	assert.Equal(t, org.ID, *orgID)

	env.orgs.AssertExpectations(t)
	env.audits.AssertExpectations(t)
}

func TestOrganizationService_CreateRejectsExistingMembership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := newOrganizationService(env)

	orgID := uuid.New()
	member := env.user(rbac.RoleMember, &orgID, rbac.RoleMember)

	_, err := svc.Create(ctx, member.ID, domain.OrganizationCreate{Name: "Second"})
	assert.ErrorIs(t, err, domain.ErrAlreadyInOrganization)
	env.orgs.AssertNotCalled(t, "CreateWithOwner", mock.Anything, mock.Anything)
}

func TestOrganizationService_CreateRejectsDeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := newOrganizationService(env)

	founder := env.user(rbac.RoleMember, nil, rbac.RoleUnknown)
	founder.IsActive = false

	org, err := svc.Create(ctx, founder.ID, domain.OrganizationCreate{Name: "Shadow"})
	assert.Nil(t, org)
	assert.ErrorIs(t, err, domain.ErrAccountDeactivated)
	env.orgs.AssertNotCalled(t, "CreateWithOwner", mock.Anything, mock.Anything)
	env.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestOrganizationService_UpdateMemberRole(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("owner promotes member", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)
		owner := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgOwner)
		target := env.user(rbac.RoleMember, &orgID, rbac.RoleMember)

		env.users.On("UpdateOrganizationRole", ctx, target.ID, rbac.RoleManager).Return(nil).Once()
		env.audits.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
			return e.Type == domain.AuditRoleChange &&
				e.Before == "member" &&
				e.After == "manager" &&
				e.Reason == audit.DefaultReason &&
				*e.OrganizationID == orgID
		})).Return(nil).Once()

		updated, err := svc.UpdateMemberRole(ctx, owner.ID, orgID, target.ID, domain.RoleChange{Role: "Manager"})
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleManager, updated.OrganizationRole)
		env.users.AssertExpectations(t)
		env.audits.AssertExpectations(t)
	})

	t.Run("manager cannot assign org_admin", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)
		manager := env.user(rbac.RoleMember, &orgID, rbac.RoleManager)
		target := env.user(rbac.RoleMember, &orgID, rbac.RoleViewer)

		_, err := svc.UpdateMemberRole(ctx, manager.ID, orgID, target.ID, domain.RoleChange{Role: "org_admin"})
		requireDenial(t, err, http.StatusForbidden, authz.ReasonRoleTooHigh)
		assert.False(t, rbac.CanAssignRole(rbac.RoleManager, rbac.RoleOrgAdmin))
		env.users.AssertNotCalled(t, "UpdateOrganizationRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown role is rejected before any lookup", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)

		_, err := svc.UpdateMemberRole(ctx, uuid.New(), orgID, uuid.New(), domain.RoleChange{Role: "overlord"})
		requireDenial(t, err, http.StatusBadRequest, authz.ReasonInvalidRole)
		env.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("owner role is protected", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)
		admin := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgAdmin)
		owner := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgOwner)

		_, err := svc.UpdateMemberRole(ctx, admin.ID, orgID, owner.ID, domain.RoleChange{Role: "viewer"})
		requireDenial(t, err, http.StatusForbidden, authz.ReasonOwnerRoleProtected)
	})

	t.Run("peer cannot be managed", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)
		a := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgAdmin)
		b := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgAdmin)

		_, err := svc.UpdateMemberRole(ctx, a.ID, orgID, b.ID, domain.RoleChange{Role: "viewer"})
		requireDenial(t, err, http.StatusForbidden, authz.ReasonCannotManageUser)
	})

	t.Run("other organization looks the same whatever the role", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)
		otherOrg := uuid.New()
		admin := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgAdmin)
		foreignOwner := env.user(rbac.RoleMember, &otherOrg, rbac.RoleOrgOwner)
		foreignViewer := env.user(rbac.RoleMember, &otherOrg, rbac.RoleViewer)

		_, ownerErr := svc.UpdateMemberRole(ctx, admin.ID, orgID, foreignOwner.ID, domain.RoleChange{Role: "viewer"})
		_, viewerErr := svc.UpdateMemberRole(ctx, admin.ID, orgID, foreignViewer.ID, domain.RoleChange{Role: "viewer"})
		assert.ErrorIs(t, ownerErr, domain.ErrNotFound)
		assert.ErrorIs(t, viewerErr, domain.ErrNotFound)
		assert.Equal(t, viewerErr.Error(), ownerErr.Error())

		_, ownerErr = svc.UpdateMemberStatus(ctx, admin.ID, orgID, foreignOwner.ID, domain.StatusChange{IsActive: ptr(false)})
		_, viewerErr = svc.UpdateMemberStatus(ctx, admin.ID, orgID, foreignViewer.ID, domain.StatusChange{IsActive: ptr(false)})
		assert.Equal(t, viewerErr.Error(), ownerErr.Error())

		env.users.AssertNotCalled(t, "UpdateOrganizationRole", mock.Anything, mock.Anything, mock.Anything)
		env.users.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ownership cannot be granted", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)
		root := env.user(rbac.RoleSuperAdmin, &orgID, rbac.RoleUnknown)
		admin := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgAdmin)

		_, err := svc.UpdateMemberRole(ctx, root.ID, orgID, admin.ID, domain.RoleChange{Role: "org_owner"})
		requireDenial(t, err, http.StatusForbidden, authz.ReasonOwnerNotAssignable)
		env.users.AssertNotCalled(t, "UpdateOrganizationRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("audit failure does not fail the change", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)
		owner := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgOwner)
		target := env.user(rbac.RoleMember, &orgID, rbac.RoleMember)

		env.users.On("UpdateOrganizationRole", ctx, target.ID, rbac.RoleViewer).Return(nil).Once()
		env.audits.On("Append", mock.Anything, mock.Anything).Return(errors.New("audit store down")).Once()

		_, err := svc.UpdateMemberRole(ctx, owner.ID, orgID, target.ID, domain.RoleChange{Role: "viewer"})
		assert.NoError(t, err)
	})
}

func TestOrganizationService_UpdateMemberStatus(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()

	t.Run("org admin cannot deactivate owner", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)
		admin := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgAdmin)
		owner := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgOwner)

		_, err := svc.UpdateMemberStatus(ctx, admin.ID, orgID, owner.ID, domain.StatusChange{IsActive: ptr(false)})
		requireDenial(t, err, http.StatusForbidden, authz.ReasonOwnerDeactivationProtected)
		env.users.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("super admin can deactivate owner", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)
		root := env.user(rbac.RoleSuperAdmin, &orgID, rbac.RoleUnknown)
		owner := env.user(rbac.RoleMember, &orgID, rbac.RoleOrgOwner)

		env.users.On("UpdateStatus", ctx, owner.ID, false).Return(nil).Once()
		env.audits.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
			return e.Type == domain.AuditStatusChange && e.Before == "active" && e.After == "inactive"
		})).Return(nil).Once()

		updated, err := svc.UpdateMemberStatus(ctx, root.ID, orgID, owner.ID, domain.StatusChange{IsActive: ptr(false), Reason: "offboarding"})
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
		env.audits.AssertExpectations(t)
	})

	t.Run("missing flag", func(t *testing.T) {
		env := newTestEnv()
		svc := newOrganizationService(env)

		_, err := svc.UpdateMemberStatus(ctx, uuid.New(), orgID, uuid.New(), domain.StatusChange{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestOrganizationService_ListAuditLogs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := newOrganizationService(env)
	orgID := uuid.New()

	entries := []domain.AuditEntry{{ID: uuid.New(), Type: domain.AuditRoleChange}}
	env.audits.On("ListByOrganization", ctx, orgID, 20, 0).Return(entries, nil).Once()

	got, err := svc.ListAuditLogs(ctx, orgID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}
