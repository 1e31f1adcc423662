package models

// Member is a person inside one group.
type Member struct {
	// ID is generated once when the member is added and never changes.
	ID string `json:"id"`

	// Name is the display name within the group.
	Name string `json:"name"`

	// Email links this member to an account. It is how replication finds
	// the other copies of a group.
	Email string `json:"email"`
}

// Group is a named set of members sharing expenses and payments.
// Members, expenses and payments belong to exactly one group.
type Group struct {
	// ID is the unique identifier for the group.
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string `json:"name"`

	// Members is the current member list. It may shrink; historical
	// expenses keep referencing removed members by ID.
	Members []Member `json:"members"`

	// Expenses in insertion order.
	Expenses []Expense `json:"expenses"`

	// Payments in insertion order. Append-only.
	Payments []RecordedPayment `json:"payments"`

	// CreatedAt is the Unix timestamp (milliseconds) when the group was created.
	CreatedAt int64 `json:"createdAt"`
}

// Member returns the current member with the given ID.
func (g *Group) Member(id string) (Member, bool) {
	for _, m := range g.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// Clone returns a deep copy of the group. Nil slices are normalized to
// empty ones so the JSON document always carries arrays.
func (g Group) Clone() Group {
	out := g
	out.Members = append(make([]Member, 0, len(g.Members)), g.Members...)
	out.Payments = append(make([]RecordedPayment, 0, len(g.Payments)), g.Payments...)
	out.Expenses = make([]Expense, len(g.Expenses))
	for i, e := range g.Expenses {
		out.Expenses[i] = e.Clone()
	}
	return out
}

// CloneGroups deep-copies a group list.
func CloneGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}
