package replication

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// Replicator exposes the replication operations with the failure policy
// applied: every error is logged and swallowed, so local state stays usable
// and the next successful cycle supersedes a failed one.
type Replicator struct {
	backend Backend
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Replicator.
type Option func(*Replicator)

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(r *Replicator) { r.metrics = m }
}

// WithLogger overrides the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(r *Replicator) { r.logger = l }
}

// New creates a Replicator over backend.
func New(backend Backend, opts ...Option) *Replicator {
	r := &Replicator{backend: backend, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch loads the owner's groups. An owner with no stored document yet has
// an empty collection, reported as present. ok is false only when there is
// no owner (no session) or the load failed; the caller must then keep its
// local state.
func (r *Replicator) Fetch(ctx context.Context, ownerID string) (groups []models.Group, ok bool) {
	if ownerID == "" {
		return nil, false
	}
	start := time.Now()
	groups, found, err := r.backend.FetchGroups(ctx, ownerID)
	r.metrics.observe(opFetch, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Fetch groups failed", "owner_id", ownerID, "error", err)
		return nil, false
	}
	if !found || groups == nil {
		r.logger.DebugContext(ctx, "No stored groups", "owner_id", ownerID)
		return []models.Group{}, true
	}
	return groups, true
}

// Persist overwrites the owner's stored groups.
func (r *Replicator) Persist(ctx context.Context, ownerID string, groups []models.Group) bool {
	start := time.Now()
	err := r.backend.SaveGroups(ctx, ownerID, groups)
	r.metrics.observe(opPersist, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Persist groups failed", "owner_id", ownerID, "groups_count", len(groups), "error", err)
		return false
	}
	r.logger.DebugContext(ctx, "Groups persisted", "owner_id", ownerID, "groups_count", len(groups))
	return true
}

// MemberExists reports whether an account uses email. Lookup failures
// count as "does not exist".
func (r *Replicator) MemberExists(ctx context.Context, email string) bool {
	start := time.Now()
	exists, err := r.backend.UserExistsByEmail(ctx, models.NormalizeEmail(email))
	r.metrics.observe(opMemberExists, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Member lookup failed", "email", email, "error", err)
		return false
	}
	return exists
}

// PushToMember overwrites group inside the document of the member with email.
func (r *Replicator) PushToMember(ctx context.Context, email string, group models.Group) bool {
	start := time.Now()
	ok, err := r.backend.SyncGroupToMember(ctx, models.NormalizeEmail(email), group)
	r.metrics.observe(opPushMember, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Push group to member failed", "group_id", group.ID, "email", email, "error", err)
		return false
	}
	if !ok {
		r.logger.WarnContext(ctx, "Push group to member skipped, no account", "group_id", group.ID, "email", email)
	}
	return ok
}

// PushToAllMembers overwrites group inside every current member's document.
func (r *Replicator) PushToAllMembers(ctx context.Context, group models.Group) {
	if len(group.Members) == 0 {
		return
	}
	start := time.Now()
	err := r.backend.SyncGroupToAllMembers(ctx, group)
	r.metrics.observe(opPushAll, start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Push group to all members failed", "group_id", group.ID, "members_count", len(group.Members), "error", err)
	}
}

// Sync runs one full cycle: persist the owner's groups, then push each group
// to all of its members.
func (r *Replicator) Sync(ctx context.Context, ownerID string, groups []models.Group) {
	r.Persist(ctx, ownerID, groups)
	for _, g := range groups {
		r.PushToAllMembers(ctx, g)
	}
}
