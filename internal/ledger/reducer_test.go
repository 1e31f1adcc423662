package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

type unknownIntent struct{}

func (unknownIntent) IntentName() string { return "ARCHIVE_GROUP" }

func testReducer() *Reducer {
	n := 0
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return NewReducer(
		WithIDFunc(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
}

func seeded(t *testing.T, r *Reducer) (State, models.Group) {
	t.Helper()
	state := r.Apply(State{}, AddGroup{
		Name: "Ski Trip",
		Members: []NewMember{
			{Name: "Alice", Email: "alice@example.com"},
			{Name: "Bob", Email: "bob@example.com"},
			{Name: "Carol", Email: "carol@example.com"},
		},
	})
	require.Len(t, state.Groups, 1)
	return state, state.Groups[0]
}

func TestApply_AddGroup(t *testing.T) {
	r := testReducer()
	state, group := seeded(t, r)

	assert.Equal(t, "Ski Trip", group.Name)
	assert.NotEmpty(t, group.ID)
	assert.NotZero(t, group.CreatedAt)
	assert.NotNil(t, group.Expenses)
	assert.NotNil(t, group.Payments)
	require.Len(t, group.Members, 3)

	ids := map[string]bool{group.ID: true}
	for _, m := range group.Members {
		assert.False(t, ids[m.ID], "duplicate id %s", m.ID)
		ids[m.ID] = true
	}

	state = r.Apply(state, AddGroup{ID: "chosen-id", Name: "Flat"})
	require.Len(t, state.Groups, 2)
	assert.Equal(t, "chosen-id", state.Groups[1].ID)
	assert.Empty(t, state.Groups[1].Members)
}

func TestApply_DeleteGroup(t *testing.T) {
	r := testReducer()
	state, group := seeded(t, r)

	after := r.Apply(state, DeleteGroup{GroupID: group.ID})
	assert.Empty(t, after.Groups)
	assert.Len(t, state.Groups, 1, "input state must not change")

	same := r.Apply(state, DeleteGroup{GroupID: "missing"})
	assert.Len(t, same.Groups, 1)
}

func TestApply_Members(t *testing.T) {
	r := testReducer()
	state, group := seeded(t, r)

	state = r.Apply(state, AddMember{GroupID: group.ID, Member: NewMember{Name: "Dan", Email: "dan@example.com"}})
	g, ok := state.Group(group.ID)
	require.True(t, ok)
	require.Len(t, g.Members, 4)
	dan := g.Members[3]
	assert.Equal(t, "Dan", dan.Name)
	assert.NotEmpty(t, dan.ID)

	state = r.Apply(state, RemoveMember{GroupID: group.ID, MemberID: dan.ID})
	g, _ = state.Group(group.ID)
	assert.Len(t, g.Members, 3)

	// Unknown group is a no-op.
	unchanged := r.Apply(state, AddMember{GroupID: "missing", Member: NewMember{Name: "X"}})
	assert.Equal(t, state, unchanged)
}

func TestApply_ExpenseLifecycle(t *testing.T) {
	r := testReducer()
	state, group := seeded(t, r)
	alice := group.Members[0]

	input := ExpenseInput{
		Description: "Cabin",
		Amount:      90,
		PaidByID:    alice.ID,
		SplitType:   models.SplitEqual,
	}
	state = r.Apply(state, AddExpense{GroupID: group.ID, Expense: input})
	g, _ := state.Group(group.ID)
	require.Len(t, g.Expenses, 1)
	expense := g.Expenses[0]
	assert.NotEmpty(t, expense.ID)
	assert.NotZero(t, expense.CreatedAt)
	assert.Equal(t, "Cabin", expense.Description)

	update := ExpenseInput{
		Description: "Cabin + firewood",
		Amount:      120,
		PaidByID:    alice.ID,
		SplitType:   models.SplitProportional,
		SplitDetails: []models.SplitDetail{
			{MemberID: g.Members[1].ID, Value: 1},
			{MemberID: g.Members[2].ID, Value: 3},
		},
	}
	once := r.Apply(state, UpdateExpense{GroupID: group.ID, ExpenseID: expense.ID, Expense: update})
	twice := r.Apply(once, UpdateExpense{GroupID: group.ID, ExpenseID: expense.ID, Expense: update})

	g1, _ := once.Group(group.ID)
	g2, _ := twice.Group(group.ID)
	assert.Equal(t, g1.Expenses, g2.Expenses, "update must be idempotent")
	assert.Equal(t, expense.ID, g2.Expenses[0].ID)
	assert.Equal(t, expense.CreatedAt, g2.Expenses[0].CreatedAt)
	assert.Equal(t, 120.0, g2.Expenses[0].Amount)
	assert.Equal(t, models.SplitProportional, g2.Expenses[0].SplitType)

	// Missing expense is a no-op.
	missing := r.Apply(once, UpdateExpense{GroupID: group.ID, ExpenseID: "nope", Expense: input})
	assert.Equal(t, once, missing)

	// The caller's detail slice is not aliased.
	update.SplitDetails[0].Value = 99
	g2, _ = twice.Group(group.ID)
	assert.Equal(t, 1.0, g2.Expenses[0].SplitDetails[0].Value)

	deleted := r.Apply(twice, DeleteExpense{GroupID: group.ID, ExpenseID: expense.ID})
	g3, _ := deleted.Group(group.ID)
	assert.Empty(t, g3.Expenses)
	g2, _ = twice.Group(group.ID)
	assert.Len(t, g2.Expenses, 1, "previous snapshot must be intact")
}

func TestApply_RecordPayment(t *testing.T) {
	r := testReducer()
	state, group := seeded(t, r)
	alice, bob := group.Members[0], group.Members[1]

	state = r.Apply(state, AddExpense{GroupID: group.ID, Expense: ExpenseInput{
		Description: "Dinner", Amount: 90, PaidByID: alice.ID, SplitType: models.SplitEqual,
	}})
	state = r.Apply(state, RecordPayment{GroupID: group.ID, Payment: PaymentInput{
		FromMemberID: bob.ID, ToMemberID: alice.ID, Amount: 30,
	}})

	g, _ := state.Group(group.ID)
	require.Len(t, g.Payments, 1)
	assert.NotEmpty(t, g.Payments[0].ID)
	assert.NotZero(t, g.Payments[0].CreatedAt)

	balances := calculator.NetBalances(g)
	assert.InDelta(t, 30, balances[alice.ID], 0.01)
	assert.InDelta(t, 0, balances[bob.ID], 0.01)
}

func TestApply_RemoveReferencedMember(t *testing.T) {
	r := testReducer()
	state, group := seeded(t, r)
	alice, carol := group.Members[0], group.Members[2]

	state = r.Apply(state, AddExpense{GroupID: group.ID, Expense: ExpenseInput{
		Description: "Lift passes", Amount: 90, PaidByID: carol.ID, SplitType: models.SplitEqual,
	}})
	state = r.Apply(state, RemoveMember{GroupID: group.ID, MemberID: carol.ID})

	g, _ := state.Group(group.ID)
	require.Len(t, g.Expenses, 1)
	assert.Equal(t, carol.ID, g.Expenses[0].PaidByID, "history keeps the dangling reference")

	assert.NotPanics(t, func() {
		balances := calculator.NetBalances(g)
		assert.InDelta(t, -45, balances[alice.ID], 0.01)
		calculator.SimplifyDebts(g)
	})
}

func TestApply_UnknownIntent(t *testing.T) {
	r := testReducer()
	state, _ := seeded(t, r)
	assert.Equal(t, state, r.Apply(state, unknownIntent{}))
}

func TestApply_DefaultReducerMintsUniqueIDs(t *testing.T) {
	state := Apply(State{}, AddGroup{Name: "A"})
	state = Apply(state, AddGroup{Name: "B"})
	require.Len(t, state.Groups, 2)
	assert.NotEqual(t, state.Groups[0].ID, state.Groups[1].ID)
}
