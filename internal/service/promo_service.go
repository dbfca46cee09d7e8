package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bets_bot/internal/domain"
	"bets_bot/internal/logger"
	"bets_bot/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PromoService creates and redeems neuron promo codes. Codes are
// single-use per player and may carry a global use cap and an expiry.
type PromoService struct {
	db        *pgxpool.Pool
	players   *PlayerService
	promoRepo *repository.PromoRepository
	log       *slog.Logger
}

func NewPromoService(db *pgxpool.Pool, players *PlayerService) *PromoService {
	return &PromoService{
		db:        db,
		players:   players,
		promoRepo: repository.NewPromoRepository(db),
		log:       logger.With("component", "promo_service"),
	}
}

// CreateCode mints a new promo code. With code == "" a random one is
// generated. maxUses <= 0 means unlimited, ttl <= 0 means no expiry.
func (s *PromoService) CreateCode(ctx context.Context, code string, reward int64, maxUses int, ttl time.Duration) (*domain.PromoCode, error) {
	if reward <= 0 {
		return nil, fmt.Errorf("%w: reward must be positive", domain.ErrPolicyViolation)
	}
	if code == "" {
		code = "BETS-" + strings.ToUpper(uuid.NewString()[:8])
	}
	code = strings.ToUpper(strings.TrimSpace(code))

	p := &domain.PromoCode{Code: code, RewardNeurons: reward}
	if maxUses > 0 {
		p.MaxUses = &maxUses
	}
	if ttl > 0 {
		t := time.Now().UTC().Add(ttl)
		p.ExpiresAt = &t
	}
	if err := s.promoRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("promo code created", "code", p.Code, "reward", reward, "max_uses", maxUses)
	return p, nil
}

// Redeem credits the code's reward to the player. Each player can redeem a
// code once; exhausted or expired codes are refused.
func (s *PromoService) Redeem(ctx context.Context, tgID int64, code string) (reward, balance int64, err error) {
	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return 0, 0, err
	}
	code = strings.ToUpper(strings.TrimSpace(code))

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	promo, err := s.promoRepo.GetByCodeForUpdateTx(ctx, tx, code)
	if err != nil {
		return 0, 0, err
	}
	if !promo.Redeemable(time.Now().UTC()) {
		return 0, 0, fmt.Errorf("%w: code %s is no longer valid", domain.ErrInvalidState, code)
	}
	if err := s.promoRepo.RedeemTx(ctx, tx, promo.ID, player.ID); err != nil {
		return 0, 0, err
	}

	balance, err = s.players.AdjustNeuronsTx(ctx, tx, player.ID, promo.RewardNeurons, domain.TxPromoReward,
		map[string]interface{}{"promo_id": promo.ID})
	if err != nil {
		return 0, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}

	promoRedemptions.Inc()
	s.log.Info("promo redeemed", "code", code, "player_id", player.ID, "reward", promo.RewardNeurons)
	return promo.RewardNeurons, balance, nil
}
