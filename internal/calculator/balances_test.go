package calculator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/mmynk/splitledger/internal/models"
)

func threePersonGroup() models.Group {
	return models.Group{
		ID:      "g1",
		Name:    "Roommates",
		Members: []models.Member{alice, bob, carol},
	}
}

func assertBalances(t *testing.T, got map[string]float64, want map[string]float64) {
	t.Helper()
	for id, w := range want {
		if math.Abs(got[id]-w) > 0.01 {
			t.Errorf("balance[%s] = %v, want %v", id, got[id], w)
		}
	}
}

func TestNetBalances_EqualDinner(t *testing.T) {
	group := threePersonGroup()
	group.Expenses = []models.Expense{
		{ID: "e1", Description: "Dinner", Amount: 90, PaidByID: "alice", SplitType: models.SplitEqual},
	}

	assertBalances(t, NetBalances(group), map[string]float64{"alice": 60, "bob": -30, "carol": -30})

	settlements := SimplifyDebts(group)
	if len(settlements) != 2 {
		t.Fatalf("expected 2 settlements, got %d: %+v", len(settlements), settlements)
	}
	want := []struct {
		from, to string
		amount   float64
	}{
		{"bob", "alice", 30},
		{"carol", "alice", 30},
	}
	for i, w := range want {
		s := settlements[i]
		if s.From.ID != w.from || s.To.ID != w.to || s.Amount != w.amount {
			t.Errorf("settlement %d = %s->%s %v, want %s->%s %v",
				i, s.From.ID, s.To.ID, s.Amount, w.from, w.to, w.amount)
		}
	}
}

func TestNetBalances_PaymentReducesDebt(t *testing.T) {
	group := threePersonGroup()
	group.Expenses = []models.Expense{
		{ID: "e1", Amount: 90, PaidByID: "alice", SplitType: models.SplitEqual},
	}
	group.Payments = []models.RecordedPayment{
		{ID: "p1", FromMemberID: "bob", ToMemberID: "alice", Amount: 30},
	}

	assertBalances(t, NetBalances(group), map[string]float64{"alice": 30, "bob": 0, "carol": -30})

	settlements := SimplifyDebts(group)
	if len(settlements) != 1 {
		t.Fatalf("expected 1 settlement, got %d", len(settlements))
	}
	if settlements[0].From.ID != "carol" || settlements[0].To.ID != "alice" || settlements[0].Amount != 30 {
		t.Errorf("unexpected settlement %+v", settlements[0])
	}
}

func TestNetBalances_ExactSplitPayerNotParticipating(t *testing.T) {
	group := threePersonGroup()
	group.Expenses = []models.Expense{
		{ID: "e1", Amount: 50, PaidByID: "carol", SplitType: models.SplitExact, SplitDetails: []models.SplitDetail{
			{MemberID: "alice", Value: 20},
			{MemberID: "bob", Value: 30},
		}},
	}

	assertBalances(t, NetBalances(group), map[string]float64{"alice": -20, "bob": -30, "carol": 50})
}

func TestNetBalances_RemovedMemberDoesNotBreak(t *testing.T) {
	group := threePersonGroup()
	group.Expenses = []models.Expense{
		{ID: "e1", Amount: 90, PaidByID: "alice", SplitType: models.SplitExact, SplitDetails: []models.SplitDetail{
			{MemberID: "bob", Value: 45},
			{MemberID: "carol", Value: 45},
		}},
	}

	// Carol leaves the group; her historical share stays in the ledger.
	group.Members = []models.Member{alice, bob}

	balances := NetBalances(group)
	assertBalances(t, balances, map[string]float64{"alice": 90, "bob": -45, "carol": -45})

	// Future equal splits only cover the remaining members.
	group.Expenses = append(group.Expenses, models.Expense{
		ID: "e2", Amount: 10, PaidByID: "bob", SplitType: models.SplitEqual,
	})
	assertBalances(t, NetBalances(group), map[string]float64{"alice": 85, "bob": -40, "carol": -45})

	// Carol can no longer be paired, so only Bob's debt is proposed.
	settlements := SimplifyDebts(group)
	for _, s := range settlements {
		if s.From.ID == "carol" || s.To.ID == "carol" {
			t.Errorf("settlement references removed member: %+v", s)
		}
	}

	views := MemberBalances(group)
	if len(views) != 2 {
		t.Errorf("expected 2 member balances, got %d", len(views))
	}
}

func TestNetBalances_DanglingPayerAndSelfPayment(t *testing.T) {
	group := threePersonGroup()
	group.Expenses = []models.Expense{
		{ID: "e1", Amount: 30, PaidByID: "ghost", SplitType: models.SplitEqual},
	}
	group.Payments = []models.RecordedPayment{
		{ID: "p1", FromMemberID: "bob", ToMemberID: "bob", Amount: 12},
	}

	balances := NetBalances(group)
	assertBalances(t, balances, map[string]float64{"alice": -10, "bob": -10, "carol": -10, "ghost": 30})
}

func TestMemberBalances(t *testing.T) {
	group := threePersonGroup()
	group.Expenses = []models.Expense{
		{ID: "e1", Amount: 90, PaidByID: "alice", SplitType: models.SplitEqual},
	}
	group.Payments = []models.RecordedPayment{
		{ID: "p1", FromMemberID: "bob", ToMemberID: "alice", Amount: 30},
	}

	got := MemberBalances(group)
	if len(got) != 3 {
		t.Fatalf("expected 3 balances, got %d", len(got))
	}
	if got[0].Member.ID != "alice" || got[0].TotalPaid != 90 || got[0].TotalOwed != 60 || got[0].NetBalance != 30 {
		t.Errorf("alice balance = %+v", got[0])
	}
	if got[1].Member.ID != "bob" || got[1].TotalPaid != 30 || got[1].TotalOwed != 30 || got[1].NetBalance != 0 {
		t.Errorf("bob balance = %+v", got[1])
	}
	if got[2].NetBalance != -30 {
		t.Errorf("carol balance = %+v", got[2])
	}
}

func TestSimplifyDebts_Empty(t *testing.T) {
	if got := SimplifyDebts(models.Group{}); len(got) != 0 {
		t.Errorf("expected no settlements, got %v", got)
	}
	if got := SimplifyDebts(threePersonGroup()); len(got) != 0 {
		t.Errorf("expected no settlements, got %v", got)
	}
}

func TestSimplifyDebts_LeftoverCent(t *testing.T) {
	group := threePersonGroup()
	group.Expenses = []models.Expense{
		{ID: "e1", Amount: 100, PaidByID: "alice", SplitType: models.SplitEqual},
	}

	settlements := SimplifyDebts(group)
	if len(settlements) != 2 {
		t.Fatalf("expected 2 settlements, got %d", len(settlements))
	}
	for _, s := range settlements {
		if s.Amount != 33.33 {
			t.Errorf("settlement amount = %v, want 33.33", s.Amount)
		}
	}
}

// randomGroup builds a group whose balances are all whole dollars.
func randomGroup(r *rand.Rand) models.Group {
	n := 2 + r.IntN(6)
	group := models.Group{ID: "g"}
	for i := 0; i < n; i++ {
		group.Members = append(group.Members, models.Member{ID: fmt.Sprintf("m%d", i), Name: fmt.Sprintf("M%d", i)})
	}
	pick := func() string { return group.Members[r.IntN(n)].ID }

	for e := 0; e < 1+r.IntN(8); e++ {
		switch r.IntN(2) {
		case 0:
			group.Expenses = append(group.Expenses, models.Expense{
				ID: fmt.Sprintf("e%d", e), Amount: float64(n * (1 + r.IntN(50))),
				PaidByID: pick(), SplitType: models.SplitEqual,
			})
		default:
			var details []models.SplitDetail
			total := 0.0
			for _, m := range group.Members {
				if r.IntN(2) == 0 {
					continue
				}
				v := float64(1 + r.IntN(40))
				total += v
				details = append(details, models.SplitDetail{MemberID: m.ID, Value: v})
			}
			if total == 0 {
				continue
			}
			group.Expenses = append(group.Expenses, models.Expense{
				ID: fmt.Sprintf("e%d", e), Amount: total, PaidByID: pick(),
				SplitType: models.SplitExact, SplitDetails: details,
			})
		}
	}
	for p := 0; p < r.IntN(3); p++ {
		group.Payments = append(group.Payments, models.RecordedPayment{
			ID: fmt.Sprintf("p%d", p), FromMemberID: pick(), ToMemberID: pick(), Amount: float64(1 + r.IntN(20)),
		})
	}
	return group
}

func TestBalanceProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))

	for iter := 0; iter < 200; iter++ {
		group := randomGroup(r)
		balances := NetBalances(group)

		// Conservation: debits and credits net to zero.
		sum := 0.0
		creditors, debtors := 0, 0
		for _, b := range balances {
			sum += b
			if RoundCents(b) > Epsilon {
				creditors++
			} else if RoundCents(b) < -Epsilon {
				debtors++
			}
		}
		if math.Abs(sum) > 1e-6 {
			t.Fatalf("iter %d: balances sum to %v", iter, sum)
		}

		settlements := SimplifyDebts(group)
		if creditors+debtors > 0 {
			if len(settlements) > creditors+debtors-1 {
				t.Errorf("iter %d: %d settlements exceeds %d", iter, len(settlements), creditors+debtors-1)
			}
			if len(settlements) < max(creditors, debtors) {
				t.Errorf("iter %d: %d settlements below %d", iter, len(settlements), max(creditors, debtors))
			}
		}

		// Applying every settlement as a payment zeroes every balance.
		for i, s := range settlements {
			group.Payments = append(group.Payments, models.RecordedPayment{
				ID: fmt.Sprintf("settle-%d", i), FromMemberID: s.From.ID, ToMemberID: s.To.ID, Amount: s.Amount,
			})
		}
		for id, b := range NetBalances(group) {
			if !WithinCent(b, 0) {
				t.Errorf("iter %d: member %s left with %v after settling", iter, id, b)
			}
		}
	}
}
