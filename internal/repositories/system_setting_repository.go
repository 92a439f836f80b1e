package repositories

import (
	"context"
	"errors"

	"akra-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SystemSettingRepository struct {
	DB *pgxpool.Pool
}

func NewSystemSettingRepository(db *pgxpool.Pool) *SystemSettingRepository {
	return &SystemSettingRepository{DB: db}
}

// Get returns the value for a key, or "" when the key is not set.
func (r *SystemSettingRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.DB.QueryRow(ctx,
		`SELECT setting_value FROM system_settings WHERE setting_key=$1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *SystemSettingRepository) List(ctx context.Context) ([]*models.SystemSetting, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, setting_key, setting_value, COALESCE(description, ''), updated_at, updated_by_user_id
		 FROM system_settings ORDER BY setting_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SystemSetting
	for rows.Next() {
		var s models.SystemSetting
		err := rows.Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.Description,
			&s.UpdatedAt, &s.UpdatedByUserID)
		if err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// Set upserts a setting value.
func (r *SystemSettingRepository) Set(ctx context.Context, key, value string, updatedBy int) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO system_settings (setting_key, setting_value, updated_by_user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (setting_key)
		DO UPDATE SET setting_value=$2, updated_by_user_id=$3, updated_at=NOW()
	`, key, value, updatedBy)
	return err
}
