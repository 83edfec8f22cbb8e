package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wish-machine/internal/quota"
)

// User is an account with its quota counters.
type User struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	APIKey    string      `json:"api_key"`
	Usage     quota.Usage `json:"-"`
	CreatedAt time.Time   `json:"created_at"`
}

type userRow struct {
	ID              int64  `db:"id"`
	Email           string `db:"email"`
	APIKey          string `db:"api_key"`
	Tier            string `db:"tier"`
	WishesThisMonth int    `db:"wishes_this_month"`
	TotalWishes     int    `db:"total_wishes"`
	BonusWishes     int    `db:"bonus_wishes"`
	LastReset       int64  `db:"last_reset"`
	CreatedAt       int64  `db:"created_at"`
}

func (r userRow) toUser() *User {
	return &User{
		ID:     r.ID,
		Email:  r.Email,
		APIKey: r.APIKey,
		Usage: quota.Usage{
			Tier:            quota.Tier(r.Tier),
			WishesThisMonth: r.WishesThisMonth,
			TotalWishes:     r.TotalWishes,
			BonusWishes:     r.BonusWishes,
			LastReset:       time.Unix(r.LastReset, 0).UTC(),
		},
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
}

const userColumns = `id, email, api_key, tier, wishes_this_month, total_wishes, bonus_wishes, last_reset, created_at`

// CreateUser registers an account and issues its API key.
func (db *DB) CreateUser(ctx context.Context, email string, tier quota.Tier, now time.Time) (*User, error) {
	email = normalizeEmail(email)
	key := uuid.NewString()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, api_key, tier, last_reset, created_at) VALUES (?, ?, ?, ?, ?)`,
		email, key, string(tier), now.Unix(), now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", email, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.UserByID(ctx, id)
}

func (db *DB) userWhere(ctx context.Context, clause string, arg any) (*User, error) {
	var row userRow
	err := db.conn.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+clause, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toUser(), nil
}

// UserByID loads an account by primary key.
func (db *DB) UserByID(ctx context.Context, id int64) (*User, error) {
	return db.userWhere(ctx, "id = ?", id)
}

// UserByEmail loads an account by email address.
func (db *DB) UserByEmail(ctx context.Context, email string) (*User, error) {
	return db.userWhere(ctx, "email = ?", normalizeEmail(email))
}

// UserByAPIKey loads an account by its API key.
func (db *DB) UserByAPIKey(ctx context.Context, key string) (*User, error) {
	return db.userWhere(ctx, "api_key = ?", key)
}

// SetTier changes the subscription tier of an account.
func (db *DB) SetTier(ctx context.Context, userID int64, tier quota.Tier) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE users SET tier = ? WHERE id = ?`, string(tier), userID)
	if err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	return expectOneRow(res)
}

// AddBonus credits one-time wishes to an account.
func (db *DB) AddBonus(ctx context.Context, userID int64, count int) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE users SET bonus_wishes = bonus_wishes + ? WHERE id = ?`, count, userID)
	if err != nil {
		return fmt.Errorf("add bonus: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
