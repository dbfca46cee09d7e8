package domain

import "time"

// PromoCode is an admin-created code that credits neurons on redemption.
type PromoCode struct {
	ID            int64      `db:"id"`
	Code          string     `db:"code"`
	RewardNeurons int64      `db:"reward_neurons"`
	MaxUses       *int       `db:"max_uses"`
	UsedCount     int        `db:"used_count"`
	IsActive      bool       `db:"is_active"`
	CreatedAt     time.Time  `db:"created_at"`
	ExpiresAt     *time.Time `db:"expires_at"`
}

// Redeemable reports whether the code can still be used at the given time.
func (p *PromoCode) Redeemable(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
		return false
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return false
	}
	return true
}
