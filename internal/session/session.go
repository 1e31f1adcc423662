// Package session runs one member's editing session over their group
// collection.
//
// Every mutating method follows the same ordered steps: validate the input
// (including any external existence check), apply the intent through the
// reducer, then schedule a debounced persist and replicate cycle with the
// resulting state. A rejected call never reaches the reducer.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/replication"
)

// Session owns one member's State.
type Session struct {
	mu        sync.Mutex
	ownerID   string
	state     ledger.State
	closed    bool
	reducer   *ledger.Reducer
	repl      *replication.Replicator
	debouncer *replication.Debouncer
	// background outlives the caller's request so in-flight cycles finish.
	background context.Context
	logger     *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithReducer overrides the reducer (default: ledger.NewReducer()).
func WithReducer(r *ledger.Reducer) Option {
	return func(s *Session) { s.reducer = r }
}

// WithDebounce sets the coalescing window for persist cycles.
func WithDebounce(wait time.Duration) Option {
	return func(s *Session) { s.debouncer = replication.NewDebouncer(wait) }
}

// WithLogger overrides the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Open starts a session for ownerID and loads their stored groups. When
// nothing is stored, or the load fails, the session starts empty.
func Open(ctx context.Context, ownerID string, repl *replication.Replicator, opts ...Option) *Session {
	s := &Session{
		ownerID:    ownerID,
		reducer:    ledger.NewReducer(),
		repl:       repl,
		debouncer:  replication.NewDebouncer(replication.DefaultDebounce),
		background: context.WithoutCancel(ctx),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if groups, ok := repl.Fetch(ctx, ownerID); ok {
		s.state = ledger.State{Groups: groups}
	}
	s.logger.InfoContext(ctx, "Session opened", "owner_id", ownerID, "groups_count", len(s.state.Groups))
	return s
}

// OwnerID returns the member this session belongs to.
func (s *Session) OwnerID() string {
	return s.ownerID
}

// State returns the current snapshot.
func (s *Session) State() ledger.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Group returns one group from the current snapshot.
func (s *Session) Group(groupID string) (models.Group, bool) {
	return s.State().Group(groupID)
}

// Summary returns the balance view and suggested settlements for a group.
func (s *Session) Summary(groupID string) ([]calculator.MemberBalance, []models.Settlement, error) {
	group, ok := s.Group(groupID)
	if !ok {
		return nil, nil, ErrGroupNotFound
	}
	return calculator.MemberBalances(group), calculator.SimplifyDebts(group), nil
}

// CreateGroup adds a group seeded with members. Every seeded member must
// have an account; each one receives the new group right away.
func (s *Session) CreateGroup(ctx context.Context, name string, members []ledger.NewMember) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}
	seen := make(map[string]bool, len(members))
	members = append([]ledger.NewMember(nil), members...)
	for i := range members {
		email := models.NormalizeEmail(members[i].Email)
		members[i].Email = email
		if err := validateStruct(members[i]); err != nil {
			return models.Group{}, err
		}
		if seen[email] {
			return models.Group{}, fmt.Errorf("%w: %s", ErrDuplicateMember, email)
		}
		seen[email] = true
		if !s.repl.MemberExists(ctx, email) {
			return models.Group{}, fmt.Errorf("%w: %s", ErrMemberNotFound, email)
		}
	}

	group, err := s.mutate(ledger.AddGroup{Name: name, Members: members}, func(st ledger.State) (models.Group, bool) {
		if len(st.Groups) == 0 {
			return models.Group{}, false
		}
		return st.Groups[len(st.Groups)-1], true
	})
	if err != nil {
		return models.Group{}, err
	}

	for _, m := range group.Members {
		s.repl.PushToMember(ctx, m.Email, group)
	}
	s.logger.InfoContext(ctx, "Group created", "owner_id", s.ownerID, "group_id", group.ID, "members_count", len(group.Members))
	return group, nil
}

// DeleteGroup removes a group from this member's collection. Other members
// keep their copies.
func (s *Session) DeleteGroup(ctx context.Context, groupID string) error {
	if _, err := s.requireGroup(groupID); err != nil {
		return err
	}
	_, err := s.mutate(ledger.DeleteGroup{GroupID: groupID}, nil)
	if err == nil {
		s.logger.InfoContext(ctx, "Group deleted", "owner_id", s.ownerID, "group_id", groupID)
	}
	return err
}

// AddMember adds a person with an existing account to a group and pushes the
// group to them immediately.
func (s *Session) AddMember(ctx context.Context, groupID string, in ledger.NewMember) (models.Member, error) {
	group, err := s.requireGroup(groupID)
	if err != nil {
		return models.Member{}, err
	}
	in.Email = models.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return models.Member{}, err
	}
	if hasEmail(group, in.Email) {
		return models.Member{}, ErrDuplicateMember
	}
	if !s.repl.MemberExists(ctx, in.Email) {
		return models.Member{}, ErrMemberNotFound
	}

	var member models.Member
	updated, err := s.mutate(ledger.AddMember{GroupID: groupID, Member: in}, func(st ledger.State) (models.Group, bool) {
		g, ok := st.Group(groupID)
		if ok && len(g.Members) > 0 {
			member = g.Members[len(g.Members)-1]
		}
		return g, ok
	})
	if err != nil {
		return models.Member{}, err
	}

	s.repl.PushToMember(ctx, member.Email, updated)
	s.logger.InfoContext(ctx, "Member added", "group_id", groupID, "member_id", member.ID)
	return member, nil
}

// RemoveMember drops a member. Their expenses and payments stay in the
// group and keep affecting the remaining members' balances.
func (s *Session) RemoveMember(ctx context.Context, groupID, memberID string) error {
	group, err := s.requireGroup(groupID)
	if err != nil {
		return err
	}
	if _, ok := group.Member(memberID); !ok {
		return ErrUnknownMember
	}
	_, err = s.mutate(ledger.RemoveMember{GroupID: groupID, MemberID: memberID}, nil)
	if err == nil {
		s.logger.InfoContext(ctx, "Member removed", "group_id", groupID, "member_id", memberID)
	}
	return err
}

// AddExpense validates and records an expense.
func (s *Session) AddExpense(ctx context.Context, groupID string, in ledger.ExpenseInput) (models.Expense, error) {
	group, err := s.requireGroup(groupID)
	if err != nil {
		return models.Expense{}, err
	}
	in.Description = strings.TrimSpace(in.Description)
	if err := validateExpense(group, in); err != nil {
		return models.Expense{}, err
	}
	in.SplitDetails = participatingDetails(in.SplitDetails)

	var expense models.Expense
	_, err = s.mutate(ledger.AddExpense{GroupID: groupID, Expense: in}, func(st ledger.State) (models.Group, bool) {
		g, ok := st.Group(groupID)
		if ok && len(g.Expenses) > 0 {
			expense = g.Expenses[len(g.Expenses)-1]
		}
		return g, ok
	})
	if err != nil {
		return models.Expense{}, err
	}
	s.logger.InfoContext(ctx, "Expense added", "group_id", groupID, "expense_id", expense.ID, "amount", expense.Amount)
	return expense, nil
}

// UpdateExpense replaces every field of an expense except its ID and
// creation time.
func (s *Session) UpdateExpense(ctx context.Context, groupID, expenseID string, in ledger.ExpenseInput) error {
	group, err := s.requireGroup(groupID)
	if err != nil {
		return err
	}
	if !hasExpense(group, expenseID) {
		return ErrExpenseNotFound
	}
	in.Description = strings.TrimSpace(in.Description)
	if err := validateExpense(group, in); err != nil {
		return err
	}
	in.SplitDetails = participatingDetails(in.SplitDetails)
	_, err = s.mutate(ledger.UpdateExpense{GroupID: groupID, ExpenseID: expenseID, Expense: in}, nil)
	if err == nil {
		s.logger.InfoContext(ctx, "Expense updated", "group_id", groupID, "expense_id", expenseID)
	}
	return err
}

// DeleteExpense removes an expense.
func (s *Session) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	group, err := s.requireGroup(groupID)
	if err != nil {
		return err
	}
	if !hasExpense(group, expenseID) {
		return ErrExpenseNotFound
	}
	_, err = s.mutate(ledger.DeleteExpense{GroupID: groupID, ExpenseID: expenseID}, nil)
	if err == nil {
		s.logger.InfoContext(ctx, "Expense deleted", "group_id", groupID, "expense_id", expenseID)
	}
	return err
}

// RecordPayment records money handed from one member to another.
func (s *Session) RecordPayment(ctx context.Context, groupID string, in ledger.PaymentInput) (models.RecordedPayment, error) {
	group, err := s.requireGroup(groupID)
	if err != nil {
		return models.RecordedPayment{}, err
	}
	in.Amount = calculator.RoundCents(in.Amount)
	if err := validatePayment(group, in); err != nil {
		return models.RecordedPayment{}, err
	}

	var payment models.RecordedPayment
	_, err = s.mutate(ledger.RecordPayment{GroupID: groupID, Payment: in}, func(st ledger.State) (models.Group, bool) {
		g, ok := st.Group(groupID)
		if ok && len(g.Payments) > 0 {
			payment = g.Payments[len(g.Payments)-1]
		}
		return g, ok
	})
	if err != nil {
		return models.RecordedPayment{}, err
	}
	s.logger.InfoContext(ctx, "Payment recorded", "group_id", groupID, "payment_id", payment.ID, "amount", payment.Amount)
	return payment, nil
}

// Flush runs any pending persist cycle now.
func (s *Session) Flush() {
	s.debouncer.Flush()
}

// Close ends the session. With flush false, edits still waiting for the
// debounce timer are dropped.
func (s *Session) Close(flush bool) {
	if flush {
		s.debouncer.Flush()
	}
	s.debouncer.Stop()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) requireGroup(groupID string) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.Group{}, ErrClosed
	}
	group, ok := s.state.Group(groupID)
	if !ok {
		return models.Group{}, ErrGroupNotFound
	}
	return group, nil
}

// mutate applies intent and schedules the persist cycle with the new state,
// both under s.mu, then lets pick read the result out of it.
func (s *Session) mutate(intent ledger.Intent, pick func(ledger.State) (models.Group, bool)) (models.Group, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.Group{}, ErrClosed
	}
	next := s.reducer.Apply(s.state, intent)
	s.state = next
	// Scheduling under the lock keeps the pending cycle on the newest state
	// when callers race.
	s.schedule(next)
	s.mu.Unlock()

	var picked models.Group
	if pick != nil {
		g, ok := pick(next)
		if !ok {
			return models.Group{}, ErrGroupNotFound
		}
		picked = g
	}

	s.logger.Debug("Intent applied", "owner_id", s.ownerID, "intent", intent.IntentName())
	return picked, nil
}

func (s *Session) schedule(state ledger.State) {
	groups := state.Groups
	s.debouncer.Schedule(func() {
		s.repl.Sync(s.background, s.ownerID, groups)
	})
}

func hasExpense(group models.Group, expenseID string) bool {
	for _, e := range group.Expenses {
		if e.ID == expenseID {
			return true
		}
	}
	return false
}
