package repositories

import (
	"context"
	"fmt"

	"akra-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (username, name, password_hash, role, balance, is_active)
		VALUES ($1, $2, $3, $4, $5, true)
		RETURNING id, created_at, updated_at
	`
	return r.DB.QueryRow(ctx, query,
		u.Username, u.Name, u.PasswordHash, u.Role, u.Balance,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, username, COALESCE(name, '') as name, password_hash, role, balance, is_active, created_at, updated_at
		 FROM users WHERE id=$1`, id)

	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Name, &user.PasswordHash,
		&user.Role, &user.Balance, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT id, username, COALESCE(name, '') as name, password_hash, role, balance, is_active, created_at, updated_at
		 FROM users WHERE username=$1`, username)

	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Name, &user.PasswordHash,
		&user.Role, &user.Balance, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, username, COALESCE(name, '') as name, password_hash, role, balance, is_active, created_at, updated_at
		 FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(&user.ID, &user.Username, &user.Name, &user.PasswordHash,
			&user.Role, &user.Balance, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	query := `UPDATE users SET name=$1, password_hash=$2, role=$3, is_active=$4, updated_at=NOW() WHERE id=$5`
	_, err := r.DB.Exec(ctx, query, u.Name, u.PasswordHash, u.Role, u.IsActive, u.ID)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}

// GetBalance returns the user's current balance.
func (r *UserRepository) GetBalance(ctx context.Context, userID int) (int64, error) {
	var balance int64
	err := r.DB.QueryRow(ctx, `SELECT balance FROM users WHERE id=$1`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance for user %d: %w", userID, err)
	}
	return balance, nil
}

// UpdateBalance sets the user's balance to an absolute value.
func (r *UserRepository) UpdateBalance(ctx context.Context, userID int, balance int64) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET balance=$1, updated_at=NOW() WHERE id=$2`, balance, userID)
	return err
}

// AdjustBalance applies a signed delta to the user's balance. When tx is
// non-nil the update joins the caller's transaction so amount edits and
// balance moves commit in lockstep.
func (r *UserRepository) AdjustBalance(ctx context.Context, tx pgx.Tx, userID int, delta int64) error {
	query := `UPDATE users SET balance = balance + $1, updated_at=NOW() WHERE id=$2`
	var err error
	if tx != nil {
		_, err = tx.Exec(ctx, query, delta, userID)
	} else {
		_, err = r.DB.Exec(ctx, query, delta, userID)
	}
	if err != nil {
		return fmt.Errorf("failed to adjust balance for user %d: %w", userID, err)
	}
	return nil
}
