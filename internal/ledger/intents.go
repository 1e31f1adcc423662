package ledger

import "github.com/mmynk/splitledger/internal/models"

// Intent is a requested change to a member's group collection.
// The set handled by Apply is fixed; any other Intent is ignored.
type Intent interface {
	IntentName() string
}

// NewMember is a member before the reducer assigns it an ID.
type NewMember struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// ExpenseInput carries every expense field the caller may set.
// ID and CreatedAt are always owned by the reducer.
type ExpenseInput struct {
	Description  string               `json:"description" validate:"required"`
	Amount       float64              `json:"amount" validate:"gt=0"`
	PaidByID     string               `json:"paidById" validate:"required"`
	SplitType    models.SplitType     `json:"splitType" validate:"required,oneof=equal exact percentage proportional"`
	SplitDetails []models.SplitDetail `json:"splitDetails"`
}

// PaymentInput is a recorded payment before it gets an ID.
type PaymentInput struct {
	FromMemberID string  `json:"fromMemberId" validate:"required,nefield=ToMemberID"`
	ToMemberID   string  `json:"toMemberId" validate:"required"`
	Amount       float64 `json:"amount" validate:"gt=0"`
}

// AddGroup creates a group, optionally seeded with members.
// ID may be pre-minted by the caller so it can refer to the group right away;
// when empty the reducer mints one.
type AddGroup struct {
	ID      string
	Name    string
	Members []NewMember
}

// DeleteGroup removes a group from the collection.
type DeleteGroup struct {
	GroupID string
}

// AddMember appends a member to a group.
type AddMember struct {
	GroupID string
	Member  NewMember
}

// RemoveMember drops a member from a group. Expenses that reference the
// member are left untouched.
type RemoveMember struct {
	GroupID  string
	MemberID string
}

// AddExpense appends an expense to a group.
type AddExpense struct {
	GroupID string
	Expense ExpenseInput
}

// UpdateExpense replaces every field of an expense except ID and CreatedAt.
// Nothing happens when the expense does not exist.
type UpdateExpense struct {
	GroupID   string
	ExpenseID string
	Expense   ExpenseInput
}

// DeleteExpense removes an expense from a group.
type DeleteExpense struct {
	GroupID   string
	ExpenseID string
}

// RecordPayment appends a recorded payment to a group.
type RecordPayment struct {
	GroupID string
	Payment PaymentInput
}

func (AddGroup) IntentName() string      { return "ADD_GROUP" }
func (DeleteGroup) IntentName() string   { return "DELETE_GROUP" }
func (AddMember) IntentName() string     { return "ADD_MEMBER" }
func (RemoveMember) IntentName() string  { return "REMOVE_MEMBER" }
func (AddExpense) IntentName() string    { return "ADD_EXPENSE" }
func (UpdateExpense) IntentName() string { return "UPDATE_EXPENSE" }
func (DeleteExpense) IntentName() string { return "DELETE_EXPENSE" }
func (RecordPayment) IntentName() string { return "RECORD_PAYMENT" }
