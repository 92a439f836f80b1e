package repositories

import (
	"context"
	"fmt"

	"akra-backend/internal/game"
	"akra-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepository struct {
	DB *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (number, entry_type, first, second, user_id, original_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRow(ctx, query,
		t.Number, t.EntryType, t.First, t.Second, t.UserID, t.OriginalTransactionID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TransactionRepository) Get(ctx context.Context, id int) (*models.Transaction, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT t.id, t.number, t.entry_type, t.first, t.second, t.user_id, u.username,
		        t.original_transaction_id, t.created_at, t.updated_at
		 FROM transactions t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.id=$1`, id)

	var t models.Transaction
	err := row.Scan(&t.ID, &t.Number, &t.EntryType, &t.First, &t.Second, &t.UserID,
		&t.Username, &t.OriginalTransactionID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByType returns all entries of one type. With adminView the amounts
// are netted against admin deductions per row (never below zero); without
// it the stored original amounts are returned.
func (r *TransactionRepository) ListByType(ctx context.Context, entryType string, adminView bool) ([]*models.Transaction, error) {
	firstCol := "t.first"
	secondCol := "t.second"
	if adminView {
		firstCol = "GREATEST(0, t.first - COALESCE(d.sum_first, 0))"
		secondCol = "GREATEST(0, t.second - COALESCE(d.sum_second, 0))"
	}

	query := fmt.Sprintf(`
		SELECT t.id, t.number, t.entry_type, %s as first, %s as second, t.user_id, u.username,
		       t.original_transaction_id, t.created_at, t.updated_at
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		LEFT JOIN (
			SELECT transaction_id, SUM(deducted_first) as sum_first, SUM(deducted_second) as sum_second
			FROM admin_deductions
			GROUP BY transaction_id
		) d ON d.transaction_id = t.id
		WHERE t.entry_type=$1
		ORDER BY t.created_at ASC, t.id ASC`, firstCol, secondCol)

	rows, err := r.DB.Query(ctx, query, entryType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.Number, &t.EntryType, &t.First, &t.Second, &t.UserID,
			&t.Username, &t.OriginalTransactionID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &t)
	}
	return entries, rows.Err()
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID int) ([]*models.Transaction, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT t.id, t.number, t.entry_type, t.first, t.second, t.user_id, u.username,
		        t.original_transaction_id, t.created_at, t.updated_at
		 FROM transactions t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.user_id=$1
		 ORDER BY t.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.Number, &t.EntryType, &t.First, &t.Second, &t.UserID,
			&t.Username, &t.OriginalTransactionID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &t)
	}
	return entries, rows.Err()
}

// OriginalTotals returns the pre-deduction amounts per economic unit for
// one entry type. Split rows are summed under their original transaction id.
func (r *TransactionRepository) OriginalTotals(ctx context.Context, entryType string) (map[int]game.Amounts, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT COALESCE(original_transaction_id, id) as unit_id, SUM(first), SUM(second)
		 FROM transactions
		 WHERE entry_type=$1
		 GROUP BY unit_id`, entryType)
	if err != nil {
		return nil, fmt.Errorf("failed to load original totals: %w", err)
	}
	defer rows.Close()

	out := make(map[int]game.Amounts)
	for rows.Next() {
		var unitID int
		var a game.Amounts
		if err := rows.Scan(&unitID, &a.First, &a.Second); err != nil {
			return nil, err
		}
		out[unitID] = a
	}
	return out, rows.Err()
}

// UpdateAmounts rewrites the stored amounts of one entry. Runs inside the
// caller's transaction so the owning user's balance moves in the same commit.
func (r *TransactionRepository) UpdateAmounts(ctx context.Context, tx pgx.Tx, id int, first, second int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE transactions SET first=$1, second=$2, updated_at=NOW() WHERE id=$3`,
		first, second, id)
	return err
}

// Delete removes one entry inside the caller's transaction (the refund to
// the owner's balance shares the commit).
func (r *TransactionRepository) Delete(ctx context.Context, tx pgx.Tx, id int) error {
	_, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id=$1`, id)
	return err
}

// TotalsByUser returns first+second sums per user for an entry type, used
// to refund balances on a type-wide reset.
func (r *TransactionRepository) TotalsByUser(ctx context.Context, entryType string) (map[int]int64, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT user_id, SUM(first + second) FROM transactions WHERE entry_type=$1 GROUP BY user_id`,
		entryType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]int64)
	for rows.Next() {
		var userID int
		var total int64
		if err := rows.Scan(&userID, &total); err != nil {
			return nil, err
		}
		out[userID] = total
	}
	return out, rows.Err()
}

// DeleteByType removes every entry of one type inside the caller's
// transaction. Deductions cascade via the schema.
func (r *TransactionRepository) DeleteByType(ctx context.Context, tx pgx.Tx, entryType string) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE entry_type=$1`, entryType)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
