package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"wish-machine/internal/quota"
	"wish-machine/internal/simulation"
)

// Wish is a persisted summary of one simulation run.
type Wish struct {
	ID                     int64     `db:"id" json:"id"`
	UserID                 *int64    `db:"user_id" json:"user_id,omitempty"`
	Text                   string    `db:"wish_text" json:"wish"`
	Intensity              int       `db:"intensity" json:"intensity"`
	Model                  string    `db:"model" json:"model"`
	FavorablePercent       float64   `db:"favorable_percent" json:"favorable_percent"`
	UnfavorablePercent     float64   `db:"unfavorable_percent" json:"unfavorable_percent"`
	DifferenceFromBaseline float64   `db:"difference_from_baseline" json:"difference_from_baseline"`
	FavorableCount         int       `db:"favorable_count" json:"favorable_count"`
	UnfavorableCount       int       `db:"unfavorable_count" json:"unfavorable_count"`
	NumTrials              int       `db:"num_trials" json:"num_trials"`
	MixtureWeight          float64   `db:"mixture_weight" json:"mixture_weight"`
	PreferenceStrength     float64   `db:"preference_strength" json:"preference_strength"`
	DominantPeak           int       `db:"dominant_peak" json:"dominant_peak"`
	CoherenceLabel         string    `db:"coherence_label" json:"coherence_label"`
	IPAddress              string    `db:"ip_address" json:"-"`
	CreatedAtUnix          int64     `db:"created_at" json:"-"`
	CreatedAt              time.Time `db:"-" json:"created_at"`
}

// WishFromResult copies the scalar fields of a simulation result into a record.
func WishFromResult(res simulation.Result, ip string, now time.Time) Wish {
	return Wish{
		Text:                   res.Text,
		Intensity:              res.Intensity,
		Model:                  string(res.Model),
		FavorablePercent:       res.FavorablePercent,
		UnfavorablePercent:     res.UnfavorablePercent,
		DifferenceFromBaseline: res.DifferenceFromBaseline,
		FavorableCount:         res.FavorableCount,
		UnfavorableCount:       res.UnfavorableCount,
		NumTrials:              res.NumTrials,
		MixtureWeight:          res.Parameters.MixtureWeight,
		PreferenceStrength:     res.Parameters.PreferenceStrength,
		DominantPeak:           res.DominantPeak,
		CoherenceLabel:         res.CoherenceLabel,
		IPAddress:              ip,
		CreatedAt:              now.UTC(),
	}
}

// RecordWish stores an anonymous wish.
func (db *DB) RecordWish(ctx context.Context, w Wish) (int64, error) {
	return insertWish(ctx, db.conn, w)
}

// ConsumeAndRecord spends one wish from the user's allowance and stores the
// record in the same transaction. It returns the updated usage, or
// quota.ErrLimitReached with nothing written.
func (db *DB) ConsumeAndRecord(ctx context.Context, userID int64, w Wish, now time.Time) (quota.Usage, error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return quota.Usage{}, err
	}
	defer tx.Rollback()

	var row userRow
	err = tx.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return quota.Usage{}, ErrNotFound
	}
	if err != nil {
		return quota.Usage{}, err
	}

	usage := row.toUser().Usage
	if err := quota.Consume(&usage, now); err != nil {
		return usage, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE users
		SET wishes_this_month = ?, total_wishes = ?, bonus_wishes = ?, last_reset = ?
		WHERE id = ?`,
		usage.WishesThisMonth, usage.TotalWishes, usage.BonusWishes, usage.LastReset.Unix(), userID)
	if err != nil {
		return usage, fmt.Errorf("update usage: %w", err)
	}

	w.UserID = &userID
	if _, err := insertWish(ctx, tx, w); err != nil {
		return usage, err
	}

	if err := tx.Commit(); err != nil {
		return usage, fmt.Errorf("commit: %w", err)
	}
	return usage, nil
}

func insertWish(ctx context.Context, ex sqlx.ExtContext, w Wish) (int64, error) {
	w.CreatedAtUnix = w.CreatedAt.Unix()
	res, err := sqlx.NamedExecContext(ctx, ex, `INSERT INTO wishes
		(user_id, wish_text, intensity, model, favorable_percent, unfavorable_percent,
		 difference_from_baseline, favorable_count, unfavorable_count, num_trials,
		 mixture_weight, preference_strength, dominant_peak, coherence_label, ip_address, created_at)
		VALUES (:user_id, :wish_text, :intensity, :model, :favorable_percent, :unfavorable_percent,
		 :difference_from_baseline, :favorable_count, :unfavorable_count, :num_trials,
		 :mixture_weight, :preference_strength, :dominant_peak, :coherence_label, :ip_address, :created_at)`, w)
	if err != nil {
		return 0, fmt.Errorf("insert wish: %w", err)
	}
	return res.LastInsertId()
}

// ListWishes returns one page of a user's wishes, newest first, and the total count.
func (db *DB) ListWishes(ctx context.Context, userID int64, page, perPage int) ([]Wish, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	var total int
	if err := db.conn.GetContext(ctx, &total, `SELECT COUNT(*) FROM wishes WHERE user_id = ?`, userID); err != nil {
		return nil, 0, err
	}

	wishes := make([]Wish, 0, perPage)
	err := db.conn.SelectContext(ctx, &wishes, `SELECT
		id, user_id, wish_text, intensity, model, favorable_percent, unfavorable_percent,
		difference_from_baseline, favorable_count, unfavorable_count, num_trials,
		mixture_weight, preference_strength, dominant_peak, coherence_label,
		COALESCE(ip_address, '') AS ip_address, created_at
		FROM wishes WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	for i := range wishes {
		wishes[i].CreatedAt = time.Unix(wishes[i].CreatedAtUnix, 0).UTC()
	}
	return wishes, total, nil
}
