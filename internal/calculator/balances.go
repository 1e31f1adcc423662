package calculator

import (
	"sort"

	"github.com/mmynk/splitledger/internal/models"
)

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	Member     models.Member `json:"member"`
	NetBalance float64       `json:"netBalance"` // Positive = owed money, Negative = owes money
	TotalPaid  float64       `json:"totalPaid"`  // Expenses paid plus payments made
	TotalOwed  float64       `json:"totalOwed"`  // Expense shares plus payments received
}

// sheet accumulates signed balances and remembers the order in which
// member IDs were first seen, so every derived view is deterministic.
type sheet struct {
	order   []string
	amounts map[string]float64
}

func newSheet(members []models.Member) *sheet {
	s := &sheet{amounts: make(map[string]float64, len(members))}
	for _, m := range members {
		s.add(m.ID, 0)
	}
	return s
}

func (s *sheet) add(id string, delta float64) {
	if _, ok := s.amounts[id]; !ok {
		s.order = append(s.order, id)
	}
	s.amounts[id] += delta
}

// fold applies every expense and then every recorded payment of the group.
func fold(group models.Group, onExpense func(models.Expense, map[string]float64)) *sheet {
	s := newSheet(group.Members)

	for _, expense := range group.Expenses {
		shares := ResolveShares(expense, group.Members)

		// Payer paid the full amount
		s.add(expense.PaidByID, expense.Amount)

		// Each participant owes their share, in detail order
		for _, id := range shareOrder(expense, group.Members, shares) {
			s.add(id, -shares[id])
		}

		if onExpense != nil {
			onExpense(expense, shares)
		}
	}

	// From pays To: From moves up toward zero, To moves down toward zero
	for _, p := range group.Payments {
		s.add(p.FromMemberID, p.Amount)
		s.add(p.ToMemberID, -p.Amount)
	}

	return s
}

// shareOrder lists the member IDs in shares in a stable order: detail order
// when the expense has details, member order otherwise.
func shareOrder(expense models.Expense, members []models.Member, shares map[string]float64) []string {
	ids := make([]string, 0, len(shares))
	seen := make(map[string]bool, len(shares))
	push := func(id string) {
		if _, ok := shares[id]; ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, d := range expense.SplitDetails {
		push(d.MemberID)
	}
	for _, m := range members {
		push(m.ID)
	}
	return ids
}

// NetBalances folds all expenses and recorded payments of a group into one
// signed balance per member ID. Every current member is present, starting at
// zero. IDs that no longer belong to a member (removed members, bad input)
// still accumulate but never cause an error.
//
// Positive = is owed money, negative = owes money. The values always sum to
// zero up to floating point error.
func NetBalances(group models.Group) map[string]float64 {
	s := fold(group, nil)
	out := make(map[string]float64, len(s.amounts))
	for id, v := range s.amounts {
		out[id] = v
	}
	return out
}

// MemberBalances returns per-member totals for display, in group member
// order, rounded to cents. Only current members are listed.
func MemberBalances(group models.Group) []MemberBalance {
	paid := make(map[string]float64)
	owed := make(map[string]float64)

	s := fold(group, func(expense models.Expense, shares map[string]float64) {
		paid[expense.PaidByID] += expense.Amount
		for id, share := range shares {
			owed[id] += share
		}
	})
	for _, p := range group.Payments {
		paid[p.FromMemberID] += p.Amount
		owed[p.ToMemberID] += p.Amount
	}

	balances := make([]MemberBalance, len(group.Members))
	for i, m := range group.Members {
		balances[i] = MemberBalance{
			Member:     m,
			NetBalance: RoundCents(s.amounts[m.ID]),
			TotalPaid:  RoundCents(paid[m.ID]),
			TotalOwed:  RoundCents(owed[m.ID]),
		}
	}
	return balances
}

type party struct {
	memberID string
	amount   float64
}

// SimplifyDebts proposes the payments that settle every balance in the group
// using as few transactions as possible.
//
// Algorithm:
//   - Round each net balance to cents and drop anything within a cent of zero
//   - Split the rest into creditors (owed money) and debtors (owe money)
//   - Sort both by magnitude, largest first; ties keep member order
//   - Greedy: match the largest debtor with the largest creditor, settle the
//     smaller of the two, advance whichever side is paid off
//
// A pairing that involves an ID which is no longer a group member is not
// emitted, but still consumes the matched amount.
func SimplifyDebts(group models.Group) []models.Settlement {
	s := fold(group, nil)

	var creditors, debtors []party
	for _, id := range s.order {
		rounded := RoundCents(s.amounts[id])
		if rounded > Epsilon {
			creditors = append(creditors, party{memberID: id, amount: rounded})
		} else if rounded < -Epsilon {
			debtors = append(debtors, party{memberID: id, amount: -rounded})
		}
	}

	sort.SliceStable(creditors, func(a, b int) bool { return creditors[a].amount > creditors[b].amount })
	sort.SliceStable(debtors, func(a, b int) bool { return debtors[a].amount > debtors[b].amount })

	var settlements []models.Settlement
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := debtor.amount
		if creditor.amount < amount {
			amount = creditor.amount
		}

		if rounded := RoundCents(amount); rounded > Epsilon { // Avoid floating point noise
			from, fromOK := group.Member(debtor.memberID)
			to, toOK := group.Member(creditor.memberID)
			if fromOK && toOK {
				settlements = append(settlements, models.Settlement{
					From:   from,
					To:     to,
					Amount: rounded,
				})
			}
		}

		creditor.amount -= amount
		debtor.amount -= amount

		// Move to next creditor/debtor if fully settled
		if creditor.amount < Epsilon {
			i++
		}
		if debtor.amount < Epsilon {
			j++
		}
	}

	return settlements
}
