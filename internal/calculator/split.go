package calculator

import (
	"github.com/mmynk/splitledger/internal/models"
)

// ResolveShares computes how much each participant owes for one expense.
// It returns a map of member ID to owed share.
//
// Rules per split type:
//   - equal: amount / n for each listed member, or for every current member
//     when the expense lists none. Leftover cents are not redistributed.
//   - exact: each listed value verbatim.
//   - percentage: value / 100 * amount.
//   - proportional: value / sum(values) * amount; no shares when the sum is zero.
//
// Degenerate input yields no shares rather than an error. Checking that
// percentages add up to 100 or exact values add up to the amount is the
// caller's job before the expense is stored.
func ResolveShares(expense models.Expense, members []models.Member) map[string]float64 {
	shares := make(map[string]float64)

	switch expense.SplitType {
	case models.SplitEqual:
		var participants []string
		if len(expense.SplitDetails) > 0 {
			participants = make([]string, len(expense.SplitDetails))
			for i, d := range expense.SplitDetails {
				participants[i] = d.MemberID
			}
		} else {
			participants = make([]string, len(members))
			for i, m := range members {
				participants[i] = m.ID
			}
		}
		if len(participants) == 0 {
			break
		}
		perPerson := expense.Amount / float64(len(participants))
		for _, id := range participants {
			shares[id] = perPerson
		}

	case models.SplitExact:
		for _, d := range expense.SplitDetails {
			shares[d.MemberID] = d.Value
		}

	case models.SplitPercentage:
		for _, d := range expense.SplitDetails {
			shares[d.MemberID] = d.Value / 100 * expense.Amount
		}

	case models.SplitProportional:
		totalWeight := 0.0
		for _, d := range expense.SplitDetails {
			totalWeight += d.Value
		}
		if totalWeight > 0 {
			for _, d := range expense.SplitDetails {
				shares[d.MemberID] = d.Value / totalWeight * expense.Amount
			}
		}
	}

	return shares
}

// DefaultSplitDetails returns the details a new expense of the given split
// type starts with. Unknown split types yield nil.
func DefaultSplitDetails(splitType models.SplitType, amount float64, members []models.Member) []models.SplitDetail {
	switch splitType {
	case models.SplitEqual:
		return EqualSplit(members)
	case models.SplitExact:
		return ExactSplit(members, amount)
	case models.SplitPercentage:
		return PercentageSplit(members)
	case models.SplitProportional:
		return ProportionalSplit(members)
	}
	return nil
}

// EqualSplit returns default details for an equal split across members.
func EqualSplit(members []models.Member) []models.SplitDetail {
	return uniformDetails(members, 1)
}

// ProportionalSplit returns default details giving every member weight 1.
func ProportionalSplit(members []models.Member) []models.SplitDetail {
	return uniformDetails(members, 1)
}

// ExactSplit returns default details assigning each member amount / n,
// rounded to cents.
func ExactSplit(members []models.Member, amount float64) []models.SplitDetail {
	if len(members) == 0 {
		return []models.SplitDetail{}
	}
	return uniformDetails(members, RoundCents(amount/float64(len(members))))
}

// PercentageSplit returns default percentage details. Each member gets
// floor(100 / n) and the first member also takes the remainder, so the
// values always total 100.
func PercentageSplit(members []models.Member) []models.SplitDetail {
	n := len(members)
	if n == 0 {
		return []models.SplitDetail{}
	}
	percent := 100 / n
	remainder := 100 - percent*n

	details := make([]models.SplitDetail, n)
	for i, m := range members {
		v := percent
		if i == 0 {
			v += remainder
		}
		details[i] = models.SplitDetail{MemberID: m.ID, Value: float64(v)}
	}
	return details
}

func uniformDetails(members []models.Member, value float64) []models.SplitDetail {
	details := make([]models.SplitDetail, len(members))
	for i, m := range members {
		details[i] = models.SplitDetail{MemberID: m.ID, Value: value}
	}
	return details
}
