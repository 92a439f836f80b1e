package repositories

import (
	"context"
	"fmt"

	"akra-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OnlineTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewOnlineTransactionRepository(db *pgxpool.Pool) *OnlineTransactionRepository {
	return &OnlineTransactionRepository{DB: db}
}

func (r *OnlineTransactionRepository) Create(ctx context.Context, t *models.OnlineTransaction) error {
	query := `
		INSERT INTO online_transactions (razorpay_order_id, user_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.DB.QueryRow(ctx, query, t.RazorpayOrderID, t.UserID, t.Amount, t.Status).
		Scan(&t.ID, &t.CreatedAt)
}

func (r *OnlineTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*models.OnlineTransaction, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, razorpay_order_id, COALESCE(razorpay_payment_id, ''), COALESCE(razorpay_signature, ''),
		        user_id, amount, status, COALESCE(failure_reason, ''), created_at, completed_at
		 FROM online_transactions WHERE razorpay_order_id=$1`, orderID)

	var t models.OnlineTransaction
	err := row.Scan(&t.ID, &t.RazorpayOrderID, &t.RazorpayPaymentID, &t.RazorpaySignature,
		&t.UserID, &t.Amount, &t.Status, &t.FailureReason, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkSuccess records the settled payment inside the caller's transaction
// so the balance credit shares the commit. Only a pending order
// transitions, which makes webhook retries idempotent.
func (r *OnlineTransactionRepository) MarkSuccess(ctx context.Context, tx pgx.Tx, orderID, paymentID, signature string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE online_transactions
		 SET status=$1, razorpay_payment_id=$2, razorpay_signature=$3, completed_at=NOW()
		 WHERE razorpay_order_id=$4 AND status=$5`,
		models.OnlineTxStatusSuccess, paymentID, signature, orderID, models.OnlineTxStatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s is not pending", orderID)
	}
	return nil
}

func (r *OnlineTransactionRepository) MarkFailed(ctx context.Context, orderID, reason string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE online_transactions SET status=$1, failure_reason=$2, completed_at=NOW()
		 WHERE razorpay_order_id=$3 AND status=$4`,
		models.OnlineTxStatusFailed, reason, orderID, models.OnlineTxStatusPending)
	return err
}

func (r *OnlineTransactionRepository) ListByUser(ctx context.Context, userID int) ([]*models.OnlineTransaction, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, razorpay_order_id, COALESCE(razorpay_payment_id, ''), COALESCE(razorpay_signature, ''),
		        user_id, amount, status, COALESCE(failure_reason, ''), created_at, completed_at
		 FROM online_transactions WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.OnlineTransaction
	for rows.Next() {
		var t models.OnlineTransaction
		err := rows.Scan(&t.ID, &t.RazorpayOrderID, &t.RazorpayPaymentID, &t.RazorpaySignature,
			&t.UserID, &t.Amount, &t.Status, &t.FailureReason, &t.CreatedAt, &t.CompletedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
