package quota

import (
	"errors"
	"testing"
	"time"
)

var march = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

func TestLimit(t *testing.T) {
	tests := []struct {
		tier     Tier
		expected int
	}{
		{TierFree, 1},
		{TierPremium, 10},
		{TierUnlimited, 999999},
		{Tier("gold"), 1},
	}
	for _, tt := range tests {
		if got := Limit(tt.tier); got != tt.expected {
			t.Errorf("Limit(%q) = %d, want %d", tt.tier, got, tt.expected)
		}
	}
}

func TestParseTier(t *testing.T) {
	if _, ok := ParseTier("premium"); !ok {
		t.Errorf("ParseTier(premium) rejected")
	}
	if _, ok := ParseTier("platinum"); ok {
		t.Errorf("ParseTier(platinum) accepted")
	}
}

func TestConsume_FreeTier(t *testing.T) {
	u := &Usage{Tier: TierFree, LastReset: march}

	if err := Consume(u, march); err != nil {
		t.Fatalf("first wish: %v", err)
	}
	if err := Consume(u, march.Add(time.Hour)); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("second wish: got %v, want ErrLimitReached", err)
	}
	if u.WishesThisMonth != 1 || u.TotalWishes != 1 {
		t.Errorf("usage = %+v, want 1 monthly / 1 total", u)
	}
	if Remaining(*u) != 0 {
		t.Errorf("Remaining() = %d, want 0", Remaining(*u))
	}
}

func TestConsume_BonusFirst(t *testing.T) {
	u := &Usage{Tier: TierFree, WishesThisMonth: 1, BonusWishes: 2, LastReset: march}

	for i := 0; i < 2; i++ {
		if err := Consume(u, march); err != nil {
			t.Fatalf("bonus wish %d: %v", i, err)
		}
	}
	if u.BonusWishes != 0 || u.WishesThisMonth != 1 || u.TotalWishes != 2 {
		t.Errorf("usage = %+v, want bonus spent and monthly untouched", u)
	}
	if err := Check(u, march); !errors.Is(err, ErrLimitReached) {
		t.Errorf("Check() = %v, want ErrLimitReached", err)
	}
}

func TestCheck_MonthlyReset(t *testing.T) {
	u := &Usage{Tier: TierPremium, WishesThisMonth: 10, LastReset: march}

	if err := Check(u, march.AddDate(0, 0, 10)); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("same month: got %v, want ErrLimitReached", err)
	}

	april := time.Date(2026, time.April, 1, 0, 0, 1, 0, time.UTC)
	if err := Check(u, april); err != nil {
		t.Fatalf("new month: %v", err)
	}
	if u.WishesThisMonth != 0 || !u.LastReset.Equal(april) {
		t.Errorf("usage after rollover = %+v", u)
	}

	// Same month number in a different year also resets.
	u.WishesThisMonth = 10
	if err := Check(u, april.AddDate(1, 0, 0)); err != nil {
		t.Errorf("next year: %v", err)
	}
}

func TestRemaining(t *testing.T) {
	if got := Remaining(Usage{Tier: TierPremium, WishesThisMonth: 3}); got != 7 {
		t.Errorf("Remaining() = %d, want 7", got)
	}
	if got := Remaining(Usage{Tier: TierFree, WishesThisMonth: 5}); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}
