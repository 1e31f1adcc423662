package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/mmynk/splitledger/internal/models"
)

// UpsertGroup returns groups with group written in place of the element that
// has the same ID, or appended when there is none. The whole group is
// replaced; nothing is merged.
func UpsertGroup(groups []models.Group, group models.Group) []models.Group {
	out := make([]models.Group, 0, len(groups)+1)
	replaced := false
	for _, g := range groups {
		if g.ID == group.ID {
			out = append(out, group)
			replaced = true
			continue
		}
		out = append(out, g)
	}
	if !replaced {
		out = append(out, group)
	}
	return out
}

// SyncFunc writes one group into one member's document.
type SyncFunc func(ctx context.Context, email string, group models.Group) (bool, error)

// SyncToAll calls sync for every member of group that has an email.
// Members without an account are skipped; every other failure is collected
// and returned together.
func SyncToAll(ctx context.Context, group models.Group, sync SyncFunc) error {
	var errs error
	for _, m := range group.Members {
		email := models.NormalizeEmail(m.Email)
		if email == "" {
			continue
		}
		if _, err := sync(ctx, email, group); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sync group %s to %s: %w", group.ID, email, err))
		}
	}
	return errs
}

// GenericSyncGroupToMember implements Store.SyncGroupToMember on top of the
// user and group primitives, for backends without transactions.
func GenericSyncGroupToMember(ctx context.Context, s interface {
	GroupStore
	UserStore
}, email string, group models.Group) (bool, error) {
	email = models.NormalizeEmail(email)
	if strings.TrimSpace(email) == "" {
		return false, nil
	}

	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	groups, _, err := s.GetGroups(ctx, user.ID)
	if err != nil {
		return false, err
	}
	if err := s.SaveGroups(ctx, user.ID, UpsertGroup(groups, group)); err != nil {
		return false, err
	}
	return true, nil
}
