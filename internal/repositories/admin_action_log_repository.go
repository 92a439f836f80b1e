package repositories

import (
	"context"

	"akra-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminActionLogRepository struct {
	DB *pgxpool.Pool
}

func NewAdminActionLogRepository(db *pgxpool.Pool) *AdminActionLogRepository {
	return &AdminActionLogRepository{DB: db}
}

func (r *AdminActionLogRepository) Create(ctx context.Context, log *models.AdminActionLog) error {
	query := `
		INSERT INTO admin_action_logs (admin_user_id, action_type, target_type, target_id, description, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return r.DB.QueryRow(ctx, query,
		log.AdminUserID, log.ActionType, log.TargetType, log.TargetID,
		log.Description, log.OldValue, log.NewValue,
	).Scan(&log.ID, &log.CreatedAt)
}

// List returns recent actions, optionally filtered by action type.
func (r *AdminActionLogRepository) List(ctx context.Context, actionType string, limit int) ([]*models.AdminActionLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, admin_user_id, action_type, target_type, target_id, description, old_value, new_value, created_at
		FROM admin_action_logs
	`
	args := []interface{}{limit}
	if actionType != "" {
		query += ` WHERE action_type=$2`
		args = append(args, actionType)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AdminActionLog
	for rows.Next() {
		var l models.AdminActionLog
		err := rows.Scan(&l.ID, &l.AdminUserID, &l.ActionType, &l.TargetType,
			&l.TargetID, &l.Description, &l.OldValue, &l.NewValue, &l.CreatedAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
