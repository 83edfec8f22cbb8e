package store

import (
	"context"
	"fmt"
	"time"
)

// Subscriber is an email signup with its content preferences.
type Subscriber struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	WantsWishMates bool      `db:"wants_wish_mates" json:"wants_wish_mates"`
	WantsTips      bool      `db:"wants_tips" json:"wants_tips"`
	WantsEducation bool      `db:"wants_education" json:"wants_education"`
	Status         string    `db:"status" json:"status"`
	Confirmed      bool      `db:"confirmed" json:"confirmed"`
	Source         string    `db:"source" json:"source"`
	IPAddress      string    `db:"ip_address" json:"-"`
	CreatedAtUnix  int64     `db:"created_at" json:"-"`
	CreatedAt      time.Time `db:"-" json:"created_at"`
}

// AddSubscriber stores a new signup. A repeated email returns ErrDuplicate.
func (db *DB) AddSubscriber(ctx context.Context, s Subscriber) (int64, error) {
	s.Email = normalizeEmail(s.Email)
	if s.Status == "" {
		s.Status = "active"
	}
	s.CreatedAtUnix = s.CreatedAt.Unix()

	res, err := db.conn.NamedExecContext(ctx, `INSERT INTO email_subscribers
		(email, wants_wish_mates, wants_tips, wants_education, status, confirmed, source, ip_address, created_at)
		VALUES (:email, :wants_wish_mates, :wants_tips, :wants_education, :status, :confirmed, :source, :ip_address, :created_at)`, s)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("subscriber %s: %w", s.Email, ErrDuplicate)
		}
		return 0, fmt.Errorf("insert subscriber: %w", err)
	}
	return res.LastInsertId()
}

// ListSubscribers returns every signup, newest first.
func (db *DB) ListSubscribers(ctx context.Context) ([]Subscriber, error) {
	subs := []Subscriber{}
	err := db.conn.SelectContext(ctx, &subs, `SELECT id, email, wants_wish_mates, wants_tips, wants_education,
		status, confirmed, COALESCE(source, '') AS source, COALESCE(ip_address, '') AS ip_address, created_at
		FROM email_subscribers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	for i := range subs {
		subs[i].CreatedAt = time.Unix(subs[i].CreatedAtUnix, 0).UTC()
	}
	return subs, nil
}

// Summary is the admin report over stored rows.
type Summary struct {
	UsersByTier          map[string]int `json:"users_by_tier"`
	TotalUsers           int            `json:"total_users"`
	TotalWishes          int            `json:"total_wishes"`
	AnonymousWishes      int            `json:"anonymous_wishes"`
	WishesLast24h        int            `json:"wishes_last_24h"`
	MeanFavorablePercent float64        `json:"mean_favorable_percent"`
	MeanIntensity        float64        `json:"mean_intensity"`
	SubscribersTotal     int            `json:"subscribers_total"`
	SubscribersActive    int            `json:"subscribers_active"`
	SubscribersConfirmed int            `json:"subscribers_confirmed"`
	SubscribersBySource  map[string]int `json:"subscribers_by_source"`
	WaitlistTotal        int            `json:"waitlist_total"`
	WaitlistPending      int            `json:"waitlist_pending"`
}

type groupCount struct {
	Key   string `db:"k"`
	Count int    `db:"n"`
}

// Summary aggregates users, wishes and subscribers for the admin view.
func (db *DB) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	s := &Summary{
		UsersByTier:         make(map[string]int),
		SubscribersBySource: make(map[string]int),
	}

	var tiers []groupCount
	if err := db.conn.SelectContext(ctx, &tiers, `SELECT tier AS k, COUNT(*) AS n FROM users GROUP BY tier`); err != nil {
		return nil, fmt.Errorf("users by tier: %w", err)
	}
	for _, g := range tiers {
		s.UsersByTier[g.Key] = g.Count
		s.TotalUsers += g.Count
	}

	var wishAgg struct {
		Total     int     `db:"total"`
		Anonymous int     `db:"anonymous"`
		Recent    int     `db:"recent"`
		MeanFav   float64 `db:"mean_fav"`
		MeanInt   float64 `db:"mean_int"`
	}
	err := db.conn.GetContext(ctx, &wishAgg, `SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN user_id IS NULL THEN 1 ELSE 0 END), 0) AS anonymous,
		COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0) AS recent,
		COALESCE(AVG(favorable_percent), 0.0) AS mean_fav,
		COALESCE(AVG(intensity), 0.0) AS mean_int
		FROM wishes`, now.Add(-24*time.Hour).Unix())
	if err != nil {
		return nil, fmt.Errorf("wish totals: %w", err)
	}
	s.TotalWishes = wishAgg.Total
	s.AnonymousWishes = wishAgg.Anonymous
	s.WishesLast24h = wishAgg.Recent
	s.MeanFavorablePercent = wishAgg.MeanFav
	s.MeanIntensity = wishAgg.MeanInt

	var subAgg struct {
		Total     int `db:"total"`
		Active    int `db:"active"`
		Confirmed int `db:"confirmed"`
	}
	err = db.conn.GetContext(ctx, &subAgg, `SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active,
		COALESCE(SUM(confirmed), 0) AS confirmed
		FROM email_subscribers`)
	if err != nil {
		return nil, fmt.Errorf("subscriber totals: %w", err)
	}
	s.SubscribersTotal = subAgg.Total
	s.SubscribersActive = subAgg.Active
	s.SubscribersConfirmed = subAgg.Confirmed

	var sources []groupCount
	if err := db.conn.SelectContext(ctx, &sources, `SELECT COALESCE(source, 'unknown') AS k, COUNT(*) AS n
		FROM email_subscribers GROUP BY COALESCE(source, 'unknown')`); err != nil {
		return nil, fmt.Errorf("subscribers by source: %w", err)
	}
	for _, g := range sources {
		s.SubscribersBySource[g.Key] = g.Count
	}

	var waitAgg struct {
		Total   int `db:"total"`
		Pending int `db:"pending"`
	}
	err = db.conn.GetContext(ctx, &waitAgg, `SELECT
		COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending
		FROM waitlist`)
	if err != nil {
		return nil, fmt.Errorf("waitlist totals: %w", err)
	}
	s.WaitlistTotal = waitAgg.Total
	s.WaitlistPending = waitAgg.Pending

	return s, nil
}
