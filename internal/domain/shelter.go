package domain

import "time"

// ShelterListing is a Bet put up for sale by its owner.
type ShelterListing struct {
	ID        int64     `db:"id"`
	BetID     int64     `db:"bet_id"`
	SellerID  int64     `db:"seller_id"`
	Price     int64     `db:"price"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

// ShelterSellRequest remembers which Bet a seller is currently entering a
// price for. One pending request per player.
type ShelterSellRequest struct {
	ID        int64     `db:"id"`
	PlayerID  int64     `db:"player_id"`
	BetID     int64     `db:"bet_id"`
	CreatedAt time.Time `db:"created_at"`
}

// MarketListing is a listing row joined with its Bet for display.
type MarketListing struct {
	ListingID int64
	Price     int64
	SellerID  int64
	BetID     int64
	BetName   string
	BetRarity Rarity
	BetLevel  int
}

// ShelterPriceLimits returns the allowed price range for a rarity tier.
func ShelterPriceLimits(r Rarity) (min, max int64, ok bool) {
	switch r {
	case RarityCommon:
		return 80, 350, true
	case RarityRare:
		return 120, 560, true
	case RarityEpic:
		return 160, 840, true
	case RarityLegendary:
		return 210, 1200, true
	default:
		return 0, 0, false
	}
}
