package models

// Settlement is one proposed payment from a net debtor to a net creditor.
// It is derived from a group's current state on every read and never stored.
type Settlement struct {
	// From is the member who should pay (debtor).
	From Member `json:"from"`

	// To is the member who should receive (creditor).
	To Member `json:"to"`

	// Amount is rounded to cents.
	Amount float64 `json:"amount"`
}
