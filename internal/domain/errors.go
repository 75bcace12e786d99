package domain

import "errors"

// Sentinel errors shared by repositories, services and handlers
var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidInput            = errors.New("invalid input")
	ErrConflict                = errors.New("conflict")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrEmailTaken              = errors.New("email already registered")
	ErrAccountDeactivated      = errors.New("account deactivated")
	ErrAlreadyInOrganization   = errors.New("user already belongs to an organization")
	ErrAlreadyMember           = errors.New("user is already a workspace member")
	ErrPendingInvitationExists = errors.New("a pending invitation already exists for this user")
	ErrInvitationExpired       = errors.New("invitation expired")
	ErrInvitationNotPending    = errors.New("invitation no longer pending")
)
