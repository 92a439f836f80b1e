package models

import "time"

// Deduction types distinguish which admin screen produced a record.
const (
	DeductionTypeFilter         = "filter"
	DeductionTypeAdvancedFilter = "advanced_filter"
)

// AdminDeduction is an append-only adjustment against one transaction.
// Live amounts are computed as original minus the sum of deductions;
// deleting a deduction is the only way to restore them.
type AdminDeduction struct {
	ID             int       `json:"id"`
	TransactionID  int       `json:"transaction_id"`
	AdminUserID    int       `json:"admin_user_id"`
	DeductedFirst  int64     `json:"deducted_first"`
	DeductedSecond int64     `json:"deducted_second"`
	DeductionType  string    `json:"deduction_type"`
	Metadata       DeductionMetadata `json:"metadata"`
	CreatedAt      time.Time `json:"created_at"`
}

// DeductionMetadata is the audit context persisted verbatim with every
// deduction of a batch, required for historical display and group undo.
type DeductionMetadata struct {
	EntryType        string `json:"entry_type"`
	SearchQuery      string `json:"search_query,omitempty"`
	NumberFiltered   string `json:"number_filtered"`
	FirstLimit       *int64 `json:"first_limit,omitempty"`
	SecondLimit      *int64 `json:"second_limit,omitempty"`
	FirstFilterValue string `json:"first_filter_value,omitempty"`
	SecondFilterValue string `json:"second_filter_value,omitempty"`
	FirstComparison  string `json:"first_comparison,omitempty"`
	SecondComparison string `json:"second_comparison,omitempty"`
	FilterSaveID     string `json:"filter_save_id"`
}

// BatchResult reports per-item outcome of one batch save. Failed items do
// not roll back succeeded ones; callers decide whether a partial failure
// is critical.
type BatchResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}
