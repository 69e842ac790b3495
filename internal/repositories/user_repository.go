package repositories

import (
	"context"
	"database/sql"
	"errors"

	intdb "taxibot/internal/db"
	"taxibot/internal/domain"
	"taxibot/internal/domain/models"
)

type UserRepository struct {
	DB intdb.DBTX
}

func (r UserRepository) db() intdb.DBTX { return dbOrShared(r.DB) }

func (r UserRepository) WithTx(tx *sql.Tx) UserRepository {
	return UserRepository{DB: tx}
}

// Ensure registers the user on first contact. Existing rows are untouched.
func (r UserRepository) Ensure(ctx context.Context, userID int64) error {
	db := r.db()
	if db == nil {
		return domain.StoreError("ensure user", errNoDB)
	}
	if _, err := db.ExecContext(ctx, `INSERT IGNORE INTO users (user_id) VALUES (?)`, userID); err != nil {
		return domain.StoreError("ensure user", err)
	}
	return nil
}

// Get returns the user; an absent row is a zero-point, non-banned user.
func (r UserRepository) Get(ctx context.Context, userID int64) (models.User, error) {
	return r.get(ctx, userID, false)
}

// GetForUpdate is Get with a row lock for the surrounding transaction.
func (r UserRepository) GetForUpdate(ctx context.Context, userID int64) (models.User, error) {
	return r.get(ctx, userID, true)
}

func (r UserRepository) get(ctx context.Context, userID int64, lock bool) (models.User, error) {
	db := r.db()
	if db == nil {
		return models.User{}, domain.StoreError("get user", errNoDB)
	}
	query := `SELECT loyalty_points, banned FROM users WHERE user_id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	u := models.User{ID: userID}
	err := db.QueryRowContext(ctx, query, userID).Scan(&u.LoyaltyPoints, &u.Banned)
	if errors.Is(err, sql.ErrNoRows) {
		return u, nil
	}
	if err != nil {
		return models.User{}, domain.StoreError("get user", err)
	}
	return u, nil
}

func (r UserRepository) SetLoyaltyPoints(ctx context.Context, userID int64, points int) error {
	db := r.db()
	if db == nil {
		return domain.StoreError("set loyalty points", errNoDB)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (user_id, loyalty_points) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE loyalty_points = VALUES(loyalty_points)`, userID, points)
	if err != nil {
		return domain.StoreError("set loyalty points", err)
	}
	return nil
}

func (r UserRepository) SetBanned(ctx context.Context, userID int64, banned bool) error {
	db := r.db()
	if db == nil {
		return domain.StoreError("set banned", errNoDB)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (user_id, banned) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE banned = VALUES(banned)`, userID, banned)
	if err != nil {
		return domain.StoreError("set banned", err)
	}
	return nil
}

// ListActiveIDs returns every user that is not banned.
func (r UserRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	db := r.db()
	if db == nil {
		return nil, domain.StoreError("list users", errNoDB)
	}
	rows, err := db.QueryContext(ctx, `SELECT user_id FROM users WHERE banned = 0`)
	if err != nil {
		return nil, domain.StoreError("list users", err)
	}
	defer rows.Close()

	out := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return out, domain.StoreError("scan user", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return out, domain.StoreError("list users", err)
	}
	return out, nil
}
