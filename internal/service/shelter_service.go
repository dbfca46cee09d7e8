package service

import (
	"context"
	"fmt"
	"log/slog"

	"bets_bot/internal/domain"
	"bets_bot/internal/logger"
	"bets_bot/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ShelterService is the player-to-player Bet market: sellers list a Bet at
// a rarity-bounded price, buyers purchase it in one atomic transfer.
type ShelterService struct {
	db          *pgxpool.Pool
	players     *PlayerService
	betRepo     *repository.BetRepository
	shelterRepo *repository.ShelterRepository
	notifier    Notifier
	log         *slog.Logger
}

func NewShelterService(db *pgxpool.Pool, players *PlayerService, notifier Notifier) *ShelterService {
	return &ShelterService{
		db:          db,
		players:     players,
		betRepo:     repository.NewBetRepository(db),
		shelterRepo: repository.NewShelterRepository(db),
		notifier:    notifier,
		log:         logger.With("component", "shelter_service"),
	}
}

// Market returns all active listings for display.
func (s *ShelterService) Market(ctx context.Context) ([]*domain.MarketListing, error) {
	return s.shelterRepo.ListMarket(ctx)
}

// BeginSell records which Bet the seller is pricing. The bot asks for the
// price in the next message; CompleteSell consumes the request.
func (s *ShelterService) BeginSell(ctx context.Context, tgID, betID int64) (min, max int64, err error) {
	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return 0, 0, err
	}
	bet, err := s.betRepo.GetOwnedActive(ctx, betID, player.ID)
	if err != nil {
		return 0, 0, err
	}
	if !bet.Available() {
		return 0, 0, fmt.Errorf("%w: bet %d is busy", domain.ErrInvalidState, betID)
	}
	min, max, ok := domain.ShelterPriceLimits(bet.Rarity)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown rarity %q", domain.ErrInvalidState, bet.Rarity)
	}
	if err := s.shelterRepo.ReplaceSellRequest(ctx, player.ID, betID); err != nil {
		return 0, 0, err
	}
	return min, max, nil
}

// CompleteSell turns the pending sell request into a live listing at the
// given price. The Bet is parked in the shelter until sold or delisted.
func (s *ShelterService) CompleteSell(ctx context.Context, tgID, price int64) (*domain.ShelterListing, *domain.Bet, error) {
	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := s.shelterRepo.TakeSellRequestTx(ctx, tx, player.ID)
	if err != nil {
		return nil, nil, err
	}

	bet, err := s.betRepo.GetForUpdateTx(ctx, tx, req.BetID)
	if err != nil {
		return nil, nil, err
	}
	if bet.OwnerID != player.ID || !bet.Available() {
		return nil, nil, fmt.Errorf("%w: bet %d is no longer sellable", domain.ErrStaleReference, bet.ID)
	}

	min, max, ok := domain.ShelterPriceLimits(bet.Rarity)
	if !ok || price < min || price > max {
		return nil, nil, fmt.Errorf("%w: price for %s must be %d..%d", domain.ErrPolicyViolation, bet.Rarity.Label(), min, max)
	}

	listingID, err := s.shelterRepo.UpsertListingTx(ctx, tx, bet.ID, player.ID, price)
	if err != nil {
		return nil, nil, err
	}
	if err := s.betRepo.SetInShelterTx(ctx, tx, bet.ID, true); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	s.log.Info("shelter listing created", "listing_id", listingID,
		"bet_id", bet.ID, "seller_id", player.ID, "price", price)

	bet.InShelter = true
	return &domain.ShelterListing{
		ID:       listingID,
		BetID:    bet.ID,
		SellerID: player.ID,
		Price:    price,
		IsActive: true,
	}, bet, nil
}

// PurchaseResult describes a completed shelter purchase.
type PurchaseResult struct {
	Bet          *domain.Bet
	Price        int64
	BuyerBalance int64
	SellerTgID   int64
}

// Buy performs the purchase atomically: the buyer pays, the seller is
// credited, ownership moves and the listing goes inactive. Buying your own
// listing is refused.
func (s *ShelterService) Buy(ctx context.Context, tgID, listingID int64) (*PurchaseResult, error) {
	buyer, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	listing, err := s.shelterRepo.GetForUpdateTx(ctx, tx, listingID)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive {
		return nil, fmt.Errorf("%w: listing %d already sold", domain.ErrStaleReference, listingID)
	}
	if listing.SellerID == buyer.ID {
		return nil, fmt.Errorf("%w: cannot buy your own listing", domain.ErrPolicyViolation)
	}

	bet, err := s.betRepo.GetForUpdateTx(ctx, tx, listing.BetID)
	if err != nil {
		return nil, err
	}
	if bet.OwnerID != listing.SellerID || !bet.IsActive || !bet.InShelter {
		return nil, fmt.Errorf("%w: listed bet %d changed hands", domain.ErrStaleReference, bet.ID)
	}

	meta := map[string]interface{}{"listing_id": listing.ID, "bet_id": bet.ID}
	buyerBalance, err := s.players.AdjustNeuronsTx(ctx, tx, buyer.ID, -listing.Price, domain.TxShelterPurchase, meta)
	if err != nil {
		return nil, err
	}
	if _, err := s.players.AdjustNeuronsTx(ctx, tx, listing.SellerID, listing.Price, domain.TxShelterSale, meta); err != nil {
		return nil, err
	}

	if err := s.shelterRepo.DeactivateTx(ctx, tx, listing.ID); err != nil {
		return nil, err
	}
	if err := s.betRepo.SetInShelterTx(ctx, tx, bet.ID, false); err != nil {
		return nil, err
	}
	if err := s.betRepo.TransferOwnershipTx(ctx, tx, bet.ID, buyer.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	shelterSales.Inc()
	s.log.Info("shelter purchase", "listing_id", listing.ID, "bet_id", bet.ID,
		"seller_id", listing.SellerID, "buyer_id", buyer.ID, "price", listing.Price)

	bet.OwnerID = buyer.ID
	bet.InShelter = false

	res := &PurchaseResult{Bet: bet, Price: listing.Price, BuyerBalance: buyerBalance}
	if seller, err := s.players.UserForPlayer(ctx, listing.SellerID); err == nil {
		res.SellerTgID = seller.TgID
		s.notifier.Notify(ctx, seller.TgID,
			fmt.Sprintf("Ваш Бет %s продан в приюте за %d нейронов!", bet.Name, listing.Price))
	}
	return res, nil
}

// Delist takes the seller's listing off the market and frees the Bet.
func (s *ShelterService) Delist(ctx context.Context, tgID, betID int64) error {
	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	listing, err := s.shelterRepo.FindActiveBySellerBetTx(ctx, tx, player.ID, betID)
	if err != nil {
		return err
	}
	if err := s.shelterRepo.DeactivateTx(ctx, tx, listing.ID); err != nil {
		return err
	}
	if err := s.betRepo.SetInShelterTx(ctx, tx, betID, false); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.log.Info("shelter listing removed", "listing_id", listing.ID, "bet_id", betID)
	return nil
}
