package replication

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

// fakeBackend is an in-memory Backend keyed by owner ID, with accounts
// mapped from email to owner ID.
type fakeBackend struct {
	mu       sync.Mutex
	docs     map[string][]models.Group
	accounts map[string]string
	err      error
	pushes   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{docs: map[string][]models.Group{}, accounts: map[string]string{}}
}

func (f *fakeBackend) FetchGroups(_ context.Context, ownerID string) ([]models.Group, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	groups, ok := f.docs[ownerID]
	return models.CloneGroups(groups), ok, nil
}

func (f *fakeBackend) SaveGroups(_ context.Context, ownerID string, groups []models.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.docs[ownerID] = models.CloneGroups(groups)
	return nil
}

func (f *fakeBackend) UserExistsByEmail(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.accounts[email]
	return ok, nil
}

func (f *fakeBackend) SyncGroupToMember(_ context.Context, email string, group models.Group) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.pushes = append(f.pushes, email)
	owner, ok := f.accounts[email]
	if !ok {
		return false, nil
	}
	doc := f.docs[owner]
	replaced := false
	for i := range doc {
		if doc[i].ID == group.ID {
			doc[i] = group.Clone()
			replaced = true
		}
	}
	if !replaced {
		doc = append(doc, group.Clone())
	}
	f.docs[owner] = doc
	return true, nil
}

func (f *fakeBackend) SyncGroupToAllMembers(ctx context.Context, group models.Group) error {
	for _, m := range group.Members {
		if _, err := f.SyncGroupToMember(ctx, models.NormalizeEmail(m.Email), group); err != nil {
			return err
		}
	}
	return nil
}

func TestReplicator_FetchAndPersist(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	r := New(backend)

	empty, ok := r.Fetch(ctx, "owner")
	require.True(t, ok, "an absent document is an empty collection")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, ok = r.Fetch(ctx, "")
	assert.False(t, ok, "no owner")

	groups := []models.Group{{ID: "g1", Name: "Trip"}}
	require.True(t, r.Persist(ctx, "owner", groups))

	got, ok := r.Fetch(ctx, "owner")
	require.True(t, ok)
	assert.Equal(t, groups[0].Name, got[0].Name)
}

func TestReplicator_SwallowsFailures(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.err = errors.New("connection refused")

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := New(backend, WithMetrics(m))

	_, ok := r.Fetch(ctx, "owner")
	assert.False(t, ok)
	assert.False(t, r.Persist(ctx, "owner", nil))
	assert.False(t, r.MemberExists(ctx, "alice@example.com"))
	assert.False(t, r.PushToMember(ctx, "alice@example.com", models.Group{ID: "g"}))
	r.PushToAllMembers(ctx, models.Group{ID: "g", Members: []models.Member{{Email: "a@example.com"}}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.failure.WithLabelValues(opFetch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failure.WithLabelValues(opPersist)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failure.WithLabelValues(opPushAll)))
}

func TestReplicator_MemberExistsNormalizesEmail(t *testing.T) {
	backend := newFakeBackend()
	backend.accounts["bob@example.com"] = "bob"
	r := New(backend)

	assert.True(t, r.MemberExists(context.Background(), "  Bob@Example.COM "))
	assert.False(t, r.MemberExists(context.Background(), "nobody@example.com"))
}

func TestReplicator_SyncLastWriterWins(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	backend.accounts["alice@example.com"] = "alice"
	backend.accounts["bob@example.com"] = "bob"
	r := New(backend)

	members := []models.Member{
		{ID: "m1", Name: "Alice", Email: "alice@example.com"},
		{ID: "m2", Name: "Bob", Email: "bob@example.com"},
	}
	aliceEdit := models.Group{ID: "g", Name: "Alice's edit", Members: members}
	bobEdit := models.Group{ID: "g", Name: "Bob's edit", Members: members}

	r.Sync(ctx, "alice", []models.Group{aliceEdit})
	r.Sync(ctx, "bob", []models.Group{bobEdit})

	aliceDoc, _ := r.Fetch(ctx, "alice")
	bobDoc, _ := r.Fetch(ctx, "bob")
	require.Len(t, aliceDoc, 1)
	require.Len(t, bobDoc, 1)
	assert.Equal(t, "Bob's edit", aliceDoc[0].Name)
	assert.Equal(t, "Bob's edit", bobDoc[0].Name)
}

func TestReplicator_PushToAllMembersSkipsEmptyGroups(t *testing.T) {
	backend := newFakeBackend()
	New(backend).PushToAllMembers(context.Background(), models.Group{ID: "g"})
	assert.Empty(t, backend.pushes)
}

func TestNilMetrics(t *testing.T) {
	assert.Nil(t, NewMetrics(nil))
	var m *Metrics
	assert.NotPanics(t, func() { m.observe(opFetch, time.Now(), nil) })
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	var last atomic.Int32

	for i := 1; i <= 5; i++ {
		n := int32(i)
		d.Schedule(func() {
			calls.Add(1)
			last.Store(n)
		})
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(5), last.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_Flush(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var calls int
	d.Schedule(func() { calls++ })
	require.True(t, d.Pending())

	d.Flush()
	assert.Equal(t, 1, calls)
	assert.False(t, d.Pending())

	d.Flush()
	assert.Equal(t, 1, calls, "nothing pending")
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var calls atomic.Int32
	d.Schedule(func() { calls.Add(1) })
	d.Stop()
	d.Schedule(func() { calls.Add(1) })

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, d.Pending())
}

func TestNewDebouncer_DefaultWait(t *testing.T) {
	assert.Equal(t, DefaultDebounce, NewDebouncer(0).wait)
}
