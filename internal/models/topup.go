package models

import "time"

// TopUpStatus tracks the lifecycle of a balance top-up request.
type TopUpStatus string

const (
	TopUpStatusPending  TopUpStatus = "pending"
	TopUpStatusApproved TopUpStatus = "approved"
	TopUpStatusRejected TopUpStatus = "rejected"
)

// TopUpRequest is a user's request to add balance, approved by an admin
// or settled automatically through an online payment.
type TopUpRequest struct {
	ID              int         `json:"id"`
	UserID          int         `json:"user_id"`
	Username        string      `json:"username,omitempty"`
	Amount          int64       `json:"amount"` // minor currency units
	Status          TopUpStatus `json:"status"`
	Note            string      `json:"note,omitempty"`
	DecidedByUserID *int        `json:"decided_by_user_id,omitempty"`
	DecidedAt       *time.Time  `json:"decided_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// CreateTopUpRequest is the request body for a manual top-up request.
type CreateTopUpRequest struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note,omitempty"`
}

// OnlineTransactionStatus represents the status of an online payment
type OnlineTransactionStatus string

const (
	OnlineTxStatusPending OnlineTransactionStatus = "pending"
	OnlineTxStatusSuccess OnlineTransactionStatus = "success"
	OnlineTxStatusFailed  OnlineTransactionStatus = "failed"
)

// OnlineTransaction represents a Razorpay top-up payment.
type OnlineTransaction struct {
	ID                int                     `json:"id"`
	RazorpayOrderID   string                  `json:"razorpay_order_id"`
	RazorpayPaymentID string                  `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string                  `json:"-"` // Don't expose signature in JSON
	UserID            int                     `json:"user_id"`
	Amount            int64                   `json:"amount"` // minor currency units
	Status            OnlineTransactionStatus `json:"status"`
	FailureReason     string                  `json:"failure_reason,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
	CompletedAt       *time.Time              `json:"completed_at,omitempty"`
}

// CreateOnlineTopUpRequest initiates an online top-up order.
type CreateOnlineTopUpRequest struct {
	Amount int64 `json:"amount"`
}
