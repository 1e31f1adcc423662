// Package ledger holds the reducer that every change to a member's group
// collection goes through.
//
// Apply never fails and never mutates its input. Each call returns a new
// State; groups touched by the intent are rebuilt with fresh slices, and
// untouched groups are shared with the previous state. Treat a State as an
// immutable snapshot.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
)

// State is the full group collection of one member.
type State struct {
	Groups []models.Group `json:"groups"`
}

// Group returns the group with the given ID.
func (s State) Group(id string) (models.Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.Group{}, false
}

// Reducer applies intents. It owns ID and timestamp generation so callers
// can never supply or collide record IDs.
type Reducer struct {
	newID func() string
	now   func() time.Time
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithIDFunc overrides ID generation (default: random UUIDs).
func WithIDFunc(fn func() string) Option {
	return func(r *Reducer) { r.newID = fn }
}

// WithClock overrides the timestamp source (default: time.Now).
func WithClock(fn func() time.Time) Option {
	return func(r *Reducer) { r.now = fn }
}

// NewReducer creates a Reducer.
func NewReducer(opts ...Option) *Reducer {
	r := &Reducer{newID: uuid.NewString, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultReducer = NewReducer()

// Apply applies intent to state with the default Reducer.
func Apply(state State, intent Intent) State {
	return defaultReducer.Apply(state, intent)
}

// Apply returns the state that results from applying intent to state.
// Unknown intents return state unchanged.
func (r *Reducer) Apply(state State, intent Intent) State {
	switch in := intent.(type) {
	case AddGroup:
		members := make([]models.Member, len(in.Members))
		for i, m := range in.Members {
			members[i] = r.member(m)
		}
		id := in.ID
		if id == "" {
			id = r.newID()
		}
		group := models.Group{
			ID:        id,
			Name:      in.Name,
			Members:   members,
			Expenses:  []models.Expense{},
			Payments:  []models.RecordedPayment{},
			CreatedAt: r.timestamp(),
		}
		groups := make([]models.Group, 0, len(state.Groups)+1)
		groups = append(groups, state.Groups...)
		return State{Groups: append(groups, group)}

	case DeleteGroup:
		groups := make([]models.Group, 0, len(state.Groups))
		for _, g := range state.Groups {
			if g.ID != in.GroupID {
				groups = append(groups, g)
			}
		}
		return State{Groups: groups}

	case AddMember:
		member := r.member(in.Member)
		return updateGroup(state, in.GroupID, func(g *models.Group) {
			g.Members = append(g.Members, member)
		})

	case RemoveMember:
		return updateGroup(state, in.GroupID, func(g *models.Group) {
			members := g.Members[:0]
			for _, m := range g.Members {
				if m.ID != in.MemberID {
					members = append(members, m)
				}
			}
			g.Members = members
		})

	case AddExpense:
		expense := expenseFrom(in.Expense)
		expense.ID = r.newID()
		expense.CreatedAt = r.timestamp()
		return updateGroup(state, in.GroupID, func(g *models.Group) {
			g.Expenses = append(g.Expenses, expense)
		})

	case UpdateExpense:
		return updateGroup(state, in.GroupID, func(g *models.Group) {
			for i, e := range g.Expenses {
				if e.ID == in.ExpenseID {
					next := expenseFrom(in.Expense)
					next.ID = e.ID
					next.CreatedAt = e.CreatedAt
					g.Expenses[i] = next
				}
			}
		})

	case DeleteExpense:
		return updateGroup(state, in.GroupID, func(g *models.Group) {
			expenses := g.Expenses[:0]
			for _, e := range g.Expenses {
				if e.ID != in.ExpenseID {
					expenses = append(expenses, e)
				}
			}
			g.Expenses = expenses
		})

	case RecordPayment:
		payment := models.RecordedPayment{
			ID:           r.newID(),
			FromMemberID: in.Payment.FromMemberID,
			ToMemberID:   in.Payment.ToMemberID,
			Amount:       in.Payment.Amount,
			CreatedAt:    r.timestamp(),
		}
		return updateGroup(state, in.GroupID, func(g *models.Group) {
			g.Payments = append(g.Payments, payment)
		})

	default:
		return state
	}
}

func (r *Reducer) member(m NewMember) models.Member {
	return models.Member{ID: r.newID(), Name: m.Name, Email: m.Email}
}

// timestamp returns Unix milliseconds.
func (r *Reducer) timestamp() int64 {
	return r.now().UnixMilli()
}

// updateGroup rebuilds the matching group from a deep copy and hands it to
// fn. Other groups are carried over as is. A missing group is a no-op.
func updateGroup(state State, groupID string, fn func(*models.Group)) State {
	groups := make([]models.Group, len(state.Groups))
	for i, g := range state.Groups {
		if g.ID == groupID {
			g = g.Clone()
			fn(&g)
		}
		groups[i] = g
	}
	return State{Groups: groups}
}

func expenseFrom(in ExpenseInput) models.Expense {
	return models.Expense{
		Description:  in.Description,
		Amount:       in.Amount,
		PaidByID:     in.PaidByID,
		SplitType:    in.SplitType,
		SplitDetails: append(make([]models.SplitDetail, 0, len(in.SplitDetails)), in.SplitDetails...),
	}
}
