package models

// SplitType selects how an expense's amount is divided among participants.
type SplitType string

const (
	// SplitEqual divides the amount evenly among the listed members, or
	// among every current member when no details are given.
	SplitEqual SplitType = "equal"

	// SplitExact assigns each listed member the exact Value.
	SplitExact SplitType = "exact"

	// SplitPercentage assigns Value percent (0-100) of the amount.
	SplitPercentage SplitType = "percentage"

	// SplitProportional assigns amount * Value / sum(Values).
	SplitProportional SplitType = "proportional"
)

// Valid reports whether t is one of the known split types.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitExact, SplitPercentage, SplitProportional:
		return true
	}
	return false
}

// SplitDetail is one participant's entry in a split.
// The meaning of Value depends on the expense's SplitType.
type SplitDetail struct {
	MemberID string  `json:"memberId"`
	Value    float64 `json:"value"`
}

// Expense is an amount paid by one member and shared by others.
type Expense struct {
	// ID is minted when the expense is added and survives updates.
	ID string `json:"id"`

	// Description is free text (e.g., "Groceries").
	Description string `json:"description"`

	// Amount is the positive total paid. Stored values may carry more than
	// two decimals; rounding happens at display time.
	Amount float64 `json:"amount"`

	// PaidByID references the paying member.
	PaidByID string `json:"paidById"`

	// SplitType selects how SplitDetails are interpreted.
	SplitType SplitType `json:"splitType"`

	// SplitDetails is the ordered list of participants and their values.
	SplitDetails []SplitDetail `json:"splitDetails"`

	// CreatedAt is the Unix timestamp (milliseconds) of creation. Survives updates.
	CreatedAt int64 `json:"createdAt"`
}

// Clone returns a copy of e that shares no slices with it.
func (e Expense) Clone() Expense {
	out := e
	out.SplitDetails = append(make([]SplitDetail, 0, len(e.SplitDetails)), e.SplitDetails...)
	return out
}

// RecordedPayment is a settlement made outside the app between two members.
// Payments are only ever appended, never edited or reversed.
type RecordedPayment struct {
	ID           string  `json:"id"`
	FromMemberID string  `json:"fromMemberId"`
	ToMemberID   string  `json:"toMemberId"`
	Amount       float64 `json:"amount"`
	CreatedAt    int64   `json:"createdAt"`
}
