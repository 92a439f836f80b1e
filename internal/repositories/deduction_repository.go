package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"akra-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DeductionRepository struct {
	DB *pgxpool.Pool
}

func NewDeductionRepository(db *pgxpool.Pool) *DeductionRepository {
	return &DeductionRepository{DB: db}
}

// SaveBatch inserts each deduction independently and collects per-item
// errors. A failed item never rolls back the ones already written; the
// caller inspects the result and decides how loud to be about it.
func (r *DeductionRepository) SaveBatch(ctx context.Context, items []*models.AdminDeduction) *models.BatchResult {
	result := &models.BatchResult{}
	for _, d := range items {
		if err := r.save(ctx, d); err != nil {
			result.Failed++
			result.Errors = append(result.Errors,
				fmt.Sprintf("transaction %d: %v", d.TransactionID, err))
			continue
		}
		result.Success++
	}
	return result
}

func (r *DeductionRepository) save(ctx context.Context, d *models.AdminDeduction) error {
	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	query := `
		INSERT INTO admin_deductions (transaction_id, admin_user_id, deducted_first, deducted_second, deduction_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.DB.QueryRow(ctx, query,
		d.TransactionID, d.AdminUserID, d.DeductedFirst, d.DeductedSecond, d.DeductionType, meta,
	).Scan(&d.ID, &d.CreatedAt)
}

// Delete removes a single deduction, restoring the amounts it had hidden.
func (r *DeductionRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM admin_deductions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deduction %d not found", id)
	}
	return nil
}

// DeleteByFilterSave removes every deduction written by one apply batch.
func (r *DeductionRepository) DeleteByFilterSave(ctx context.Context, filterSaveID string) (int64, error) {
	tag, err := r.DB.Exec(ctx,
		`DELETE FROM admin_deductions WHERE metadata->>'filter_save_id' = $1`, filterSaveID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *DeductionRepository) ListByTransaction(ctx context.Context, transactionID int) ([]*models.AdminDeduction, error) {
	return r.list(ctx,
		`SELECT id, transaction_id, admin_user_id, deducted_first, deducted_second, deduction_type, metadata, created_at
		 FROM admin_deductions WHERE transaction_id=$1 ORDER BY created_at DESC`, transactionID)
}

func (r *DeductionRepository) ListByFilterSave(ctx context.Context, filterSaveID string) ([]*models.AdminDeduction, error) {
	return r.list(ctx,
		`SELECT id, transaction_id, admin_user_id, deducted_first, deducted_second, deduction_type, metadata, created_at
		 FROM admin_deductions WHERE metadata->>'filter_save_id' = $1 ORDER BY created_at DESC`, filterSaveID)
}

// List returns recent deductions for the history screen.
func (r *DeductionRepository) List(ctx context.Context, limit int) ([]*models.AdminDeduction, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx,
		`SELECT id, transaction_id, admin_user_id, deducted_first, deducted_second, deduction_type, metadata, created_at
		 FROM admin_deductions ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *DeductionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.AdminDeduction, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AdminDeduction
	for rows.Next() {
		var d models.AdminDeduction
		var meta []byte
		err := rows.Scan(&d.ID, &d.TransactionID, &d.AdminUserID, &d.DeductedFirst,
			&d.DeductedSecond, &d.DeductionType, &meta, &d.CreatedAt)
		if err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &d.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for deduction %d: %w", d.ID, err)
			}
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
