package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// WaitlistEntry is an early-access request.
type WaitlistEntry struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name,omitempty"`
	Status       string     `json:"status"`
	Source       string     `json:"source,omitempty"`
	ReferralCode string     `json:"referral_code,omitempty"`
	InvitedAt    *time.Time `json:"invited_at,omitempty"`
	ConvertedAt  *time.Time `json:"converted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type waitlistRow struct {
	ID           int64         `db:"id"`
	Email        string        `db:"email"`
	Name         string        `db:"name"`
	Status       string        `db:"status"`
	Source       string        `db:"source"`
	ReferralCode string        `db:"referral_code"`
	InvitedAt    sql.NullInt64 `db:"invited_at"`
	ConvertedAt  sql.NullInt64 `db:"converted_at"`
	CreatedAt    int64         `db:"created_at"`
}

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func (r waitlistRow) toEntry() WaitlistEntry {
	return WaitlistEntry{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		Status:       r.Status,
		Source:       r.Source,
		ReferralCode: r.ReferralCode,
		InvitedAt:    unixPtr(r.InvitedAt),
		ConvertedAt:  unixPtr(r.ConvertedAt),
		CreatedAt:    time.Unix(r.CreatedAt, 0).UTC(),
	}
}

// AddWaitlist stores an early-access request with status pending. A repeated
// email returns ErrDuplicate.
func (db *DB) AddWaitlist(ctx context.Context, e WaitlistEntry) (int64, error) {
	email := normalizeEmail(e.Email)
	status := e.Status
	if status == "" {
		status = "pending"
	}

	res, err := db.conn.ExecContext(ctx, `INSERT INTO waitlist
		(email, name, status, source, referral_code, created_at)
		VALUES (?, NULLIF(?, ''), ?, NULLIF(?, ''), NULLIF(?, ''), ?)`,
		email, e.Name, status, e.Source, e.ReferralCode, e.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("waitlist %s: %w", email, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert waitlist: %w", err)
	}
	return res.LastInsertId()
}

// ListWaitlist returns every waitlist entry, newest first.
func (db *DB) ListWaitlist(ctx context.Context) ([]WaitlistEntry, error) {
	var rows []waitlistRow
	err := db.conn.SelectContext(ctx, &rows, `SELECT id, email,
		COALESCE(name, '') AS name, status,
		COALESCE(source, '') AS source,
		COALESCE(referral_code, '') AS referral_code,
		invited_at, converted_at, created_at
		FROM waitlist ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	out := make([]WaitlistEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntry())
	}
	return out, nil
}
