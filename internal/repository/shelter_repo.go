package repository

import (
	"context"
	"errors"

	"bets_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShelterRepository struct {
	db *pgxpool.Pool
}

func NewShelterRepository(db *pgxpool.Pool) *ShelterRepository {
	return &ShelterRepository{db: db}
}

// ListMarket returns active listings joined with their Bets, newest first.
func (r *ShelterRepository) ListMarket(ctx context.Context) ([]*domain.MarketListing, error) {
	rows, err := r.db.Query(ctx,
		`SELECT l.id, l.price, l.seller_id, b.id, b.name, b.rarity, b.level
		 FROM shelter_listings l
		 JOIN bets b ON b.id = l.bet_id
		 WHERE l.is_active = true AND b.is_active = true AND b.in_shelter = true
		 ORDER BY l.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.MarketListing
	for rows.Next() {
		var m domain.MarketListing
		if err := rows.Scan(&m.ListingID, &m.Price, &m.SellerID, &m.BetID, &m.BetName, &m.BetRarity, &m.BetLevel); err != nil {
			return nil, err
		}
		res = append(res, &m)
	}
	return res, rows.Err()
}

// GetForUpdateTx loads and locks a listing row.
func (r *ShelterRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, listingID int64) (*domain.ShelterListing, error) {
	var l domain.ShelterListing
	err := tx.QueryRow(ctx,
		`SELECT id, bet_id, seller_id, price, is_active, created_at
		 FROM shelter_listings WHERE id = $1 FOR UPDATE`, listingID,
	).Scan(&l.ID, &l.BetID, &l.SellerID, &l.Price, &l.IsActive, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// UpsertListingTx creates the Bet's listing or re-activates the old one
// with a new seller and price (the bet_id unique constraint keeps one
// listing row per Bet).
func (r *ShelterRepository) UpsertListingTx(ctx context.Context, tx pgx.Tx, betID, sellerID, price int64) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx,
		`INSERT INTO shelter_listings (bet_id, seller_id, price)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (bet_id) DO UPDATE
		 SET seller_id = EXCLUDED.seller_id, price = EXCLUDED.price, is_active = true
		 RETURNING id`,
		betID, sellerID, price,
	).Scan(&id)
	return id, err
}

// DeactivateTx closes a listing after a sale or delist.
func (r *ShelterRepository) DeactivateTx(ctx context.Context, tx pgx.Tx, listingID int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE shelter_listings SET is_active = false WHERE id = $1`, listingID)
	return err
}

// FindActiveBySellerBet locates the seller's active listing for a Bet.
func (r *ShelterRepository) FindActiveBySellerBetTx(ctx context.Context, tx pgx.Tx, sellerID, betID int64) (*domain.ShelterListing, error) {
	var l domain.ShelterListing
	err := tx.QueryRow(ctx,
		`SELECT id, bet_id, seller_id, price, is_active, created_at
		 FROM shelter_listings
		 WHERE seller_id = $1 AND bet_id = $2 AND is_active = true
		 FOR UPDATE`, sellerID, betID,
	).Scan(&l.ID, &l.BetID, &l.SellerID, &l.Price, &l.IsActive, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ReplaceSellRequest remembers which Bet the seller is pricing right now,
// dropping any previous request.
func (r *ShelterRepository) ReplaceSellRequest(ctx context.Context, playerID, betID int64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO shelter_sell_requests (player_id, bet_id)
		 VALUES ($1, $2)
		 ON CONFLICT (player_id) DO UPDATE
		 SET bet_id = EXCLUDED.bet_id, created_at = now()`,
		playerID, betID)
	return err
}

// TakeSellRequestTx pops the seller's pending request.
func (r *ShelterRepository) TakeSellRequestTx(ctx context.Context, tx pgx.Tx, playerID int64) (*domain.ShelterSellRequest, error) {
	var req domain.ShelterSellRequest
	err := tx.QueryRow(ctx,
		`DELETE FROM shelter_sell_requests WHERE player_id = $1
		 RETURNING id, player_id, bet_id, created_at`, playerID,
	).Scan(&req.ID, &req.PlayerID, &req.BetID, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}
	return &req, nil
}
