package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bets_bot/internal/domain"
	"bets_bot/internal/game"
	"bets_bot/internal/logger"
	"bets_bot/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LabService manages lab stints: committing a Bet for a fixed duration and
// paying out neurons once the stint finished.
type LabService struct {
	db         *pgxpool.Pool
	players    *PlayerService
	betRepo    *repository.BetRepository
	playerRepo *repository.PlayerRepository
	log        *slog.Logger
}

func NewLabService(db *pgxpool.Pool, players *PlayerService) *LabService {
	return &LabService{
		db:         db,
		players:    players,
		betRepo:    repository.NewBetRepository(db),
		playerRepo: repository.NewPlayerRepository(db),
		log:        logger.With("component", "lab_service"),
	}
}

// StartLab commits an available Bet to a stint of one of the offered
// durations. The Bet is unavailable for merges and the shelter until the
// stint is collected.
func (s *LabService) StartLab(ctx context.Context, tgID, betID int64, minutes int) (*domain.Bet, error) {
	if _, ok := game.ValidLabDuration(minutes); !ok {
		return nil, fmt.Errorf("%w: %d minutes is not an offered stint", domain.ErrPolicyViolation, minutes)
	}

	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	bet, err := s.betRepo.GetForUpdateTx(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if bet.OwnerID != player.ID {
		return nil, fmt.Errorf("%w: bet %d belongs to another player", domain.ErrPolicyViolation, betID)
	}
	if !bet.Available() {
		return nil, fmt.Errorf("%w: bet %d is busy", domain.ErrInvalidState, betID)
	}

	now := time.Now().UTC()
	ends := now.Add(time.Duration(minutes) * time.Minute)
	if err := s.betRepo.StartLabTx(ctx, tx, bet.ID, now, ends); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	labStints.Inc()
	s.log.Info("lab stint started", "player_id", player.ID, "bet_id", bet.ID, "minutes", minutes)

	bet.InLab = true
	bet.LabStartedAt = &now
	bet.LabEndsAt = &ends
	return bet, nil
}

// LabCollectResult describes a paid-out stint.
type LabCollectResult struct {
	Bet       *domain.Bet
	Reward    int64
	Balance   int64
	RankUps   int
	RankAfter int
}

// CollectLab pays out a finished stint and frees the Bet. Collecting before
// the stint ends is refused with the remaining time in the error.
func (s *LabService) CollectLab(ctx context.Context, tgID, betID int64) (*LabCollectResult, error) {
	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	bet, err := s.betRepo.GetForUpdateTx(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if bet.OwnerID != player.ID {
		return nil, fmt.Errorf("%w: bet %d belongs to another player", domain.ErrPolicyViolation, betID)
	}
	if !bet.InLab || bet.LabStartedAt == nil || bet.LabEndsAt == nil {
		return nil, fmt.Errorf("%w: bet %d is not in the lab", domain.ErrInvalidState, betID)
	}

	now := time.Now().UTC()
	if now.Before(*bet.LabEndsAt) {
		left := bet.LabEndsAt.Sub(now).Round(time.Minute)
		return nil, fmt.Errorf("%w: stint ends in %s", domain.ErrInvalidState, left)
	}

	player, err = s.playerRepo.GetForUpdateTx(ctx, tx, player.ID)
	if err != nil {
		return nil, err
	}

	minutes := game.LabStintMinutes(*bet.LabStartedAt, *bet.LabEndsAt)
	reward := game.LabReward(player.Rank, bet.Level, bet.Rarity, minutes)

	if err := s.betRepo.FinishLabTx(ctx, tx, bet.ID); err != nil {
		return nil, err
	}
	balance, err := s.players.AdjustNeuronsTx(ctx, tx, player.ID, reward, domain.TxLabReward,
		map[string]interface{}{"bet_id": bet.ID, "minutes": minutes})
	if err != nil {
		return nil, err
	}
	_, rankAfter, rankUps, err := s.players.AwardXPTx(ctx, tx, player.ID, game.LabXPReward)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.log.Info("lab stint collected", "player_id", player.ID, "bet_id", bet.ID,
		"minutes", minutes, "reward", reward)

	bet.InLab = false
	bet.LabStartedAt = nil
	bet.LabEndsAt = nil
	return &LabCollectResult{
		Bet:       bet,
		Reward:    reward,
		Balance:   balance,
		RankUps:   rankUps,
		RankAfter: rankAfter,
	}, nil
}

// LabStatus lists the player's Bets currently in the lab.
func (s *LabService) LabStatus(ctx context.Context, tgID int64) ([]*domain.Bet, error) {
	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}
	return s.betRepo.ListOwned(ctx, player.ID, repository.BetFilter{OnlyInLab: true})
}
