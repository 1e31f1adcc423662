package session

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// validateExpense checks an expense against the group it is about to land
// in. The split resolver itself accepts anything, so every reconciliation
// rule lives here.
func validateExpense(group models.Group, in ledger.ExpenseInput) error {
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	if err := validateStruct(in); err != nil {
		return err
	}
	if _, ok := group.Member(in.PaidByID); !ok {
		return fmt.Errorf("%w: payer %s", ErrUnknownMember, in.PaidByID)
	}
	for _, d := range in.SplitDetails {
		if _, ok := group.Member(d.MemberID); !ok {
			return fmt.Errorf("%w: participant %s", ErrUnknownMember, d.MemberID)
		}
		if d.Value < 0 {
			return fmt.Errorf("%w: negative value for %s", ErrInvalidSplit, d.MemberID)
		}
	}

	var total float64
	positive := false
	for _, d := range in.SplitDetails {
		total += d.Value
		positive = positive || d.Value > 0
	}
	if !positive {
		return fmt.Errorf("%w: no participant with a positive share", ErrInvalidSplit)
	}

	switch in.SplitType {
	case models.SplitExact:
		if !calculator.WithinCent(total, in.Amount) {
			return fmt.Errorf("%w: exact shares total %.2f, expense is %.2f", ErrInvalidSplit, total, in.Amount)
		}
	case models.SplitPercentage:
		if !calculator.WithinCent(total, 100) {
			return fmt.Errorf("%w: percentages total %.2f", ErrInvalidSplit, total)
		}
	}
	return nil
}

func validatePayment(group models.Group, in ledger.PaymentInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if _, ok := group.Member(in.FromMemberID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMember, in.FromMemberID)
	}
	if _, ok := group.Member(in.ToMemberID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMember, in.ToMemberID)
	}
	return nil
}

func hasEmail(group models.Group, email string) bool {
	email = models.NormalizeEmail(email)
	for _, m := range group.Members {
		if models.NormalizeEmail(m.Email) == email {
			return true
		}
	}
	return false
}

// participatingDetails drops entries whose value is not positive. A member
// left at zero takes no part in the expense, even in an equal split.
func participatingDetails(details []models.SplitDetail) []models.SplitDetail {
	out := make([]models.SplitDetail, 0, len(details))
	for _, d := range details {
		if d.Value > 0 {
			out = append(out, d)
		}
	}
	return out
}
