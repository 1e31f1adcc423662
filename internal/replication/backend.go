// Package replication keeps every member's copy of a shared group eventually
// consistent.
//
// Replication is last-writer-wins at whole-group granularity: pushing a
// group overwrites the receiver's stored copy of that group ID. There are no
// versions and no merging, so two members editing the same group inside one
// debounce window race and the later push silently discards the earlier
// edit.
package replication

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Backend is the transport-agnostic surface replication runs against.
// It is satisfied by a local store (see NewStoreBackend) and by the RPC
// client in internal/client.
type Backend interface {
	// FetchGroups loads the owner's full group list. found is false when
	// there is nothing stored for the owner.
	FetchGroups(ctx context.Context, ownerID string) (groups []models.Group, found bool, err error)

	// SaveGroups overwrites the owner's stored group list.
	SaveGroups(ctx context.Context, ownerID string, groups []models.Group) error

	// UserExistsByEmail reports whether an account uses the email.
	UserExistsByEmail(ctx context.Context, email string) (bool, error)

	// SyncGroupToMember overwrites the group (by ID) inside the document of
	// the account with the given email.
	SyncGroupToMember(ctx context.Context, email string, group models.Group) (bool, error)

	// SyncGroupToAllMembers does SyncGroupToMember for every group member.
	SyncGroupToAllMembers(ctx context.Context, group models.Group) error
}

// StoreBackend adapts a storage.Store to Backend.
type StoreBackend struct {
	store storage.Store
}

// NewStoreBackend wraps store.
func NewStoreBackend(store storage.Store) *StoreBackend {
	return &StoreBackend{store: store}
}

func (b *StoreBackend) FetchGroups(ctx context.Context, ownerID string) ([]models.Group, bool, error) {
	return b.store.GetGroups(ctx, ownerID)
}

func (b *StoreBackend) SaveGroups(ctx context.Context, ownerID string, groups []models.Group) error {
	return b.store.SaveGroups(ctx, ownerID, groups)
}

func (b *StoreBackend) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	user, err := b.store.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (b *StoreBackend) SyncGroupToMember(ctx context.Context, email string, group models.Group) (bool, error) {
	return b.store.SyncGroupToMember(ctx, email, group)
}

func (b *StoreBackend) SyncGroupToAllMembers(ctx context.Context, group models.Group) error {
	if len(group.Members) == 0 {
		return nil
	}
	return b.store.SyncGroupToAllMembers(ctx, group)
}
