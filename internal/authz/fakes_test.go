package authz_test

import (
	"context"
	"errors"
	"sync"

	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
)

var errStoreDown = errors.New("store unavailable")

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	err   error
	calls int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) add(systemRole rbac.Role, orgID *uuid.UUID, orgRole rbac.Role) *domain.User {
	u := &domain.User{
		ID:               uuid.New(),
		Email:            uuid.NewString() + "@example.com",
		SystemRole:       systemRole,
		OrganizationID:   orgID,
		OrganizationRole: orgRole,
		IsActive:         true,
	}
	f.mu.Lock()
	f.users[u.ID] = u
	f.mu.Unlock()
	return u
}

type memberKey struct {
	workspaceID uuid.UUID
	userID      uuid.UUID
}

type fakeWorkspaces struct {
	workspaces map[uuid.UUID]*domain.Workspace
	members    map[memberKey]*domain.WorkspaceMember
	err        error
}

func newFakeWorkspaces() *fakeWorkspaces {
	return &fakeWorkspaces{
		workspaces: make(map[uuid.UUID]*domain.Workspace),
		members:    make(map[memberKey]*domain.WorkspaceMember),
	}
}

func (f *fakeWorkspaces) GetByID(_ context.Context, id uuid.UUID) (*domain.Workspace, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.workspaces[id], nil
}

func (f *fakeWorkspaces) GetMember(_ context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[memberKey{workspaceID, userID}], nil
}

func (f *fakeWorkspaces) add(owner uuid.UUID, orgID uuid.UUID) *domain.Workspace {
	ws := &domain.Workspace{
		ID:             uuid.New(),
		Name:           "Design",
		OwnerID:        owner,
		OrganizationID: orgID,
		IsPrivate:      true,
		MemberCount:    1,
	}
	f.workspaces[ws.ID] = ws
	return ws
}

func (f *fakeWorkspaces) addMember(workspaceID, userID uuid.UUID, role rbac.Role) {
	f.members[memberKey{workspaceID, userID}] = &domain.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
	}
}

type fakeCache struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*domain.User
	getErr      error
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{users: make(map[uuid.UUID]*domain.User)}
}

func (c *fakeCache) Get(_ context.Context, id uuid.UUID) (*domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.users[id], nil
}

func (c *fakeCache) Set(_ context.Context, u *domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *u
	c.users[u.ID] = &cp
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
