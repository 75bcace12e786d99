package service

import (
	"time"

	"github.com/Rrens/teamspace/internal/audit"
	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// testEnv wires the services to mocks the way main wires them to storage
type testEnv struct {
	users       *MockUserRepository
	orgs        *MockOrganizationRepository
	workspaces  *MockWorkspaceRepository
	invitations *MockInvitationRepository
	audits      *MockAuditRepository
	tasks       *MockTaskRepository
	gate        *authz.Gate
	recorder    *audit.Recorder
}

func newTestEnv() *testEnv {
	e := &testEnv{
		users:       new(MockUserRepository),
		orgs:        new(MockOrganizationRepository),
		workspaces:  new(MockWorkspaceRepository),
		invitations: new(MockInvitationRepository),
		audits:      new(MockAuditRepository),
		tasks:       new(MockTaskRepository),
	}
	e.gate = authz.NewGate(rbac.NewRegistry(), authz.NewResolver(e.users, e.workspaces))
	e.recorder = audit.NewRecorder(e.audits, time.Second)
	return e
}

// user registers a user the resolver and services can look up
func (e *testEnv) user(systemRole rbac.Role, orgID *uuid.UUID, orgRole rbac.Role) *domain.User {
	u := &domain.User{
		ID:               uuid.New(),
		Email:            uuid.NewString()[:8] + "@example.com",
		DisplayName:      "Test User",
		SystemRole:       systemRole,
		OrganizationID:   orgID,
		OrganizationRole: orgRole,
		IsActive:         true,
	}
	e.users.On("GetByID", mock.Anything, u.ID).Return(u, nil).Maybe()
	return u
}

// workspace registers a workspace owned by owner
func (e *testEnv) workspace(owner uuid.UUID, orgID uuid.UUID) *domain.Workspace {
	ws := &domain.Workspace{
		ID:             uuid.New(),
		Name:           "Roadmap",
		OwnerID:        owner,
		OrganizationID: orgID,
		IsPrivate:      true,
		MemberCount:    1,
	}
	e.workspaces.On("GetByID", mock.Anything, ws.ID).Return(ws, nil).Maybe()
	return ws
}

// member registers a member record
func (e *testEnv) member(ws *domain.Workspace, userID uuid.UUID, role rbac.Role) *domain.WorkspaceMember {
	m := &domain.WorkspaceMember{
		WorkspaceID: ws.ID,
		UserID:      userID,
		Role:        role,
	}
	e.workspaces.On("GetMember", mock.Anything, ws.ID, userID).Return(m, nil).Maybe()
	return m
}

// auditOK accepts every audit write
func (e *testEnv) auditOK() {
	e.audits.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
}

func auditOfType(t domain.AuditEventType) interface{} {
	return mock.MatchedBy(func(entry *domain.AuditEntry) bool {
		return entry.Type == t
	})
}

func ptr[T any](v T) *T {
	return &v
}
