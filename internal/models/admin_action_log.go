package models

import "time"

type AdminActionLog struct {
	ID          int       `json:"id" db:"id"`
	AdminUserID int       `json:"admin_user_id" db:"admin_user_id"`
	ActionType  string    `json:"action_type" db:"action_type"`
	TargetType  string    `json:"target_type" db:"target_type"`
	TargetID    *int      `json:"target_id,omitempty" db:"target_id"`
	Description string    `json:"description" db:"description"`
	OldValue    *string   `json:"old_value,omitempty" db:"old_value"`
	NewValue    *string   `json:"new_value,omitempty" db:"new_value"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Action types written by the deduction and transaction workflows.
const (
	ActionApplyDeductions = "apply_deductions"
	ActionUndoDeduction   = "undo_deduction"
	ActionUndoFilterSave  = "undo_filter_save"
	ActionEditTransaction = "edit_transaction"
	ActionDeleteTransaction = "delete_transaction"
	ActionResetEntryType  = "reset_entry_type"
	ActionApproveTopUp    = "approve_topup"
	ActionRejectTopUp     = "reject_topup"
)
