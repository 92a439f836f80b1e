package repositories

import (
	"context"
	"fmt"

	"akra-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TopUpRepository struct {
	DB *pgxpool.Pool
}

func NewTopUpRepository(db *pgxpool.Pool) *TopUpRepository {
	return &TopUpRepository{DB: db}
}

func (r *TopUpRepository) Create(ctx context.Context, t *models.TopUpRequest) error {
	query := `
		INSERT INTO topup_requests (user_id, amount, status, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.DB.QueryRow(ctx, query, t.UserID, t.Amount, t.Status, t.Note).
		Scan(&t.ID, &t.CreatedAt)
}

func (r *TopUpRepository) Get(ctx context.Context, id int) (*models.TopUpRequest, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT t.id, t.user_id, u.username, t.amount, t.status, COALESCE(t.note, ''),
		        t.decided_by_user_id, t.decided_at, t.created_at
		 FROM topup_requests t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.id=$1`, id)

	var t models.TopUpRequest
	err := row.Scan(&t.ID, &t.UserID, &t.Username, &t.Amount, &t.Status, &t.Note,
		&t.DecidedByUserID, &t.DecidedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns requests, optionally filtered by status ("" means all).
func (r *TopUpRepository) List(ctx context.Context, status string) ([]*models.TopUpRequest, error) {
	query := `
		SELECT t.id, t.user_id, u.username, t.amount, t.status, COALESCE(t.note, ''),
		       t.decided_by_user_id, t.decided_at, t.created_at
		FROM topup_requests t
		JOIN users u ON u.id = t.user_id
	`
	var rows pgx.Rows
	var err error
	if status != "" {
		rows, err = r.DB.Query(ctx, query+` WHERE t.status=$1 ORDER BY t.created_at DESC`, status)
	} else {
		rows, err = r.DB.Query(ctx, query+` ORDER BY t.created_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.TopUpRequest
	for rows.Next() {
		var t models.TopUpRequest
		err := rows.Scan(&t.ID, &t.UserID, &t.Username, &t.Amount, &t.Status, &t.Note,
			&t.DecidedByUserID, &t.DecidedAt, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *TopUpRepository) ListByUser(ctx context.Context, userID int) ([]*models.TopUpRequest, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, amount, status, COALESCE(note, ''), decided_by_user_id, decided_at, created_at
		 FROM topup_requests WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.TopUpRequest
	for rows.Next() {
		var t models.TopUpRequest
		err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Status, &t.Note,
			&t.DecidedByUserID, &t.DecidedAt, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// Decide flips a pending request to approved or rejected inside the
// caller's transaction. Only pending requests transition, which makes the
// decision idempotent under concurrent admins.
func (r *TopUpRepository) Decide(ctx context.Context, tx pgx.Tx, id int, status models.TopUpStatus, decidedBy int) error {
	tag, err := tx.Exec(ctx,
		`UPDATE topup_requests SET status=$1, decided_by_user_id=$2, decided_at=NOW()
		 WHERE id=$3 AND status=$4`,
		status, decidedBy, id, models.TopUpStatusPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topup request %d is not pending", id)
	}
	return nil
}
