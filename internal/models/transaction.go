package models

import "time"

// Transaction is one per-number stake entry. First and Second are the two
// stake amounts in minor currency units. Amounts on a transaction are never
// mutated by deductions; admin views net them against admin_deductions.
type Transaction struct {
	ID                    int       `json:"id"`
	Number                string    `json:"number"` // zero-padded to the entry type width
	EntryType             string    `json:"entry_type"`
	First                 int64     `json:"first"`
	Second                int64     `json:"second"`
	UserID                int       `json:"user_id"`
	Username              string    `json:"username,omitempty"` // denormalized for admin views
	OriginalTransactionID *int      `json:"original_transaction_id,omitempty"` // set on split rows
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// UnitID returns the economic unit id: split rows share their original
// transaction id and count as one unit for deduction purposes.
func (t *Transaction) UnitID() int {
	if t.OriginalTransactionID != nil {
		return *t.OriginalTransactionID
	}
	return t.ID
}

// CreateTransactionRequest represents the request body for submitting an entry
type CreateTransactionRequest struct {
	Number    string `json:"number"`
	EntryType string `json:"entry_type"`
	First     int64  `json:"first"`
	Second    int64  `json:"second"`
}

// UpdateTransactionRequest represents the admin edit of an entry's amounts.
// The owning user's balance moves in lockstep with the total change.
type UpdateTransactionRequest struct {
	First  int64 `json:"first"`
	Second int64 `json:"second"`
}
