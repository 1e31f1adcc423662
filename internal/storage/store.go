// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrEmailExists is returned by CreateUser when the email is already registered.
var ErrEmailExists = errors.New("email already registered")

// GroupStore persists one group document per owner.
// The document is the owner's full group list and is always written whole.
type GroupStore interface {
	// GetGroups loads the owner's group list. found is false when the owner
	// has never saved a document.
	GetGroups(ctx context.Context, ownerID string) (groups []models.Group, found bool, err error)

	// SaveGroups overwrites the owner's document.
	SaveGroups(ctx context.Context, ownerID string, groups []models.Group) error
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns nil, nil when no account uses the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns nil, nil when the account does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, Redis)
// without changing the service layer.
type Store interface {
	GroupStore
	UserStore

	// SyncGroupToMember writes group into the document of the account with
	// the given email, replacing any group with the same ID. It reports false
	// when no account uses the email.
	SyncGroupToMember(ctx context.Context, email string, group models.Group) (bool, error)

	// SyncGroupToAllMembers does SyncGroupToMember for every member of group.
	SyncGroupToAllMembers(ctx context.Context, group models.Group) error

	// Close releases any resources held by the store.
	Close() error
}
