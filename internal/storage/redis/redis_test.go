package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

type mockCmdable struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	m.data[key] = toString(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = toString(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func toString(v any) string {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func TestStore_Groups(t *testing.T) {
	ctx := context.Background()
	s := &Store{store: newMockCmdable()}

	groups, found, err := s.GetGroups(ctx, "owner")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, groups)

	doc := []models.Group{{ID: "g1", Name: "Flat", Members: []models.Member{{ID: "m1", Name: "Alice", Email: "alice@example.com"}}}}
	require.NoError(t, s.SaveGroups(ctx, "owner", doc))

	groups, found, err = s.GetGroups(ctx, "owner")
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, groups, 1)
	assert.Equal(t, "Flat", groups[0].Name)
}

func TestStore_Users(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	s := &Store{store: mock}

	user := models.NewUser("Alice@Example.com", "Alice", "hash")
	require.NoError(t, s.CreateUser(ctx, user))

	got, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	err = s.CreateUser(ctx, models.NewUser("alice@example.com", "Again", "hash"))
	assert.ErrorIs(t, err, storage.ErrEmailExists)

	missing, err := s.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	mock.failSet = true
	err = s.CreateUser(ctx, models.NewUser("carol@example.com", "Carol", "hash"))
	require.Error(t, err)
	_, claimed := mock.data[userEmailKey("carol@example.com")]
	assert.False(t, claimed, "failed registration must release the email")
}

func TestStore_SyncGroupToAllMembers(t *testing.T) {
	ctx := context.Background()
	s := &Store{store: newMockCmdable()}

	bob := models.NewUser("bob@example.com", "Bob", "hash")
	require.NoError(t, s.CreateUser(ctx, bob))
	require.NoError(t, s.SaveGroups(ctx, bob.ID, []models.Group{{ID: "g1", Name: "Old"}}))

	group := models.Group{ID: "g1", Name: "New", Members: []models.Member{
		{ID: "1", Name: "Bob", Email: "BOB@example.com"},
		{ID: "2", Name: "Nobody", Email: "nobody@example.com"},
	}}
	require.NoError(t, s.SyncGroupToAllMembers(ctx, group))

	groups, _, err := s.GetGroups(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "New", groups[0].Name)

	ok, err := s.SyncGroupToMember(ctx, "nobody@example.com", group)
	require.NoError(t, err)
	assert.False(t, ok)
}
