// Package redis stores group documents and accounts in Redis.
//
// Keys:
//
//	sl:groups:<owner id>     JSON array of groups
//	sl:user:id:<user id>     JSON user
//	sl:user:email:<email>    user id
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const keyNamespace = "sl"

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Store implements storage.Store on top of Redis.
type Store struct {
	store cmdable
	raw   *redis.Client
}

// New connects to the Redis server at url (redis://...) and verifies connectivity.
func New(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{store: raw, raw: raw}, nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}

func groupsKey(ownerID string) string { return keyNamespace + ":groups:" + ownerID }
func userIDKey(id string) string      { return keyNamespace + ":user:id:" + id }
func userEmailKey(email string) string {
	return keyNamespace + ":user:email:" + models.NormalizeEmail(email)
}

// GetGroups loads the owner's group document.
func (s *Store) GetGroups(ctx context.Context, ownerID string) ([]models.Group, bool, error) {
	doc, err := s.store.Get(ctx, groupsKey(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		return []models.Group{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get groups: %w", err)
	}

	groups := []models.Group{}
	if err := json.Unmarshal([]byte(doc), &groups); err != nil {
		return nil, false, fmt.Errorf("decode groups: %w", err)
	}
	return groups, true, nil
}

// SaveGroups overwrites the owner's group document.
func (s *Store) SaveGroups(ctx context.Context, ownerID string, groups []models.Group) error {
	if groups == nil {
		groups = []models.Group{}
	}
	doc, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("encode groups: %w", err)
	}
	if err := s.store.Set(ctx, groupsKey(ownerID), doc, 0).Err(); err != nil {
		return fmt.Errorf("save groups: %w", err)
	}
	return nil
}

// CreateUser stores a user. The email key is claimed first so two
// registrations for the same email cannot both succeed.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	doc, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	claimed, err := s.store.SetNX(ctx, userEmailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !claimed {
		return storage.ErrEmailExists
	}

	if err := s.store.Set(ctx, userIDKey(user.ID), doc, 0).Err(); err != nil {
		// Release the email so the registration can be retried.
		s.store.Del(ctx, userEmailKey(user.Email))
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	id, err := s.store.Get(ctx, userEmailKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := s.store.Get(ctx, userIDKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	user := &models.User{}
	if err := json.Unmarshal([]byte(doc), user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return user, nil
}

// SyncGroupToMember writes group into the document of the account registered
// under email. Concurrent pushes race; the last write wins.
func (s *Store) SyncGroupToMember(ctx context.Context, email string, group models.Group) (bool, error) {
	return storage.GenericSyncGroupToMember(ctx, s, email, group)
}

// SyncGroupToAllMembers writes group into every member's document.
func (s *Store) SyncGroupToAllMembers(ctx context.Context, group models.Group) error {
	return storage.SyncToAll(ctx, group, s.SyncGroupToMember)
}
