package session

import "errors"

// Validation errors. Every one of them is returned before the reducer runs,
// so a rejected call leaves the session state unchanged.
var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrMemberNotFound  = errors.New("no account exists for this email")
	ErrDuplicateMember = errors.New("member with this email is already in the group")
	ErrUnknownMember   = errors.New("member is not part of the group")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidSplit    = errors.New("split does not reconcile to the expense amount")
	ErrClosed          = errors.New("session is closed")
)
