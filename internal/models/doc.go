// Package models defines the core domain models for splitledger.
//
// # Document Models
//
// A member's stored state is a single JSON document: the list of groups that
// member belongs to. Everything inside a group is owned by composition:
//   - Group: a named set of members sharing expenses and payments
//   - Member: a person inside one group, joined across copies by email
//   - Expense: an amount paid by one member and split by a SplitType
//   - RecordedPayment: an out-of-band payment between two members
//
// Settlement is derived from a group at read time and is never persisted.
//
// # Accounts
//
// User is an account record. It backs owner identity (whose document is
// whose) and the "does a member with this email exist" check. The same
// person appears as a distinct Member record in every group they belong to.
//
// # Design Principles
//
//  1. JSON field names match the stored document (camelCase)
//  2. Relationships are ID strings, never pointers
//  3. Child records reference members by ID; references may dangle after a
//     member is removed and readers must tolerate that
package models
