// Package quota implements the monthly wish allowances of each subscription tier.
package quota

import (
	"errors"
	"time"
)

// Tier names a subscription level.
type Tier string

const (
	TierFree      Tier = "free"
	TierPremium   Tier = "premium"
	TierUnlimited Tier = "unlimited"
)

// ErrLimitReached is returned when a user has no wishes left this month.
var ErrLimitReached = errors.New("monthly wish limit reached")

var monthlyLimits = map[Tier]int{
	TierFree:      1,
	TierPremium:   10,
	TierUnlimited: 999999,
}

// ParseTier validates a tier name.
func ParseTier(name string) (Tier, bool) {
	t := Tier(name)
	_, ok := monthlyLimits[t]
	return t, ok
}

// Limit returns the monthly allowance of t. Unknown tiers get the free allowance.
func Limit(t Tier) int {
	if l, ok := monthlyLimits[t]; ok {
		return l
	}
	return monthlyLimits[TierFree]
}

// Usage is the per-user counter state persisted alongside the account.
type Usage struct {
	Tier            Tier
	WishesThisMonth int
	TotalWishes     int
	BonusWishes     int
	LastReset       time.Time
}

// rollover zeroes the monthly counter when now falls in a later calendar month.
func (u *Usage) rollover(now time.Time) {
	last := u.LastReset.UTC()
	cur := now.UTC()
	if last.Year() != cur.Year() || last.Month() != cur.Month() {
		u.WishesThisMonth = 0
		u.LastReset = cur
	}
}

// Check reports whether u may make another wish at now. It may reset the
// monthly counter as a side effect.
func Check(u *Usage, now time.Time) error {
	if u.BonusWishes > 0 {
		return nil
	}
	u.rollover(now)
	if u.WishesThisMonth >= Limit(u.Tier) {
		return ErrLimitReached
	}
	return nil
}

// Consume records one wish, spending purchased bonus wishes first.
func Consume(u *Usage, now time.Time) error {
	if err := Check(u, now); err != nil {
		return err
	}
	if u.BonusWishes > 0 {
		u.BonusWishes--
	} else {
		u.WishesThisMonth++
	}
	u.TotalWishes++
	return nil
}

// Remaining is the number of monthly wishes left, not counting bonus wishes.
func Remaining(u Usage) int {
	r := Limit(u.Tier) - u.WishesThisMonth
	if r < 0 {
		return 0
	}
	return r
}
