package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"bets_bot/internal/domain"
	"bets_bot/internal/game"
	"bets_bot/internal/logger"
	"bets_bot/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NoshenieService runs the gacha draw: one free draw per calendar day,
// paid draws after that, a legendary pity counter and name-collision
// level-ups instead of duplicate Bets.
type NoshenieService struct {
	db         *pgxpool.Pool
	players    *PlayerService
	betRepo    *repository.BetRepository
	playerRepo *repository.PlayerRepository
	log        *slog.Logger
}

func NewNoshenieService(db *pgxpool.Pool, players *PlayerService) *NoshenieService {
	return &NoshenieService{
		db:         db,
		players:    players,
		betRepo:    repository.NewBetRepository(db),
		playerRepo: repository.NewPlayerRepository(db),
		log:        logger.With("component", "noshenie_service"),
	}
}

// NoshenieResult describes one completed draw.
type NoshenieResult struct {
	Free      bool
	Reward    int64
	Balance   int64
	Bet       *domain.Bet
	LeveledUp bool
	PityHit   bool
	RankUps   int
	RankAfter int
}

// Draw performs one noshenie for the player. The first draw of a calendar
// day is free; later draws cost neurons. Drawing a name the player already
// holds levels the existing Bet up instead of creating a twin.
func (s *NoshenieService) Draw(ctx context.Context, tgID int64, username, firstName string) (*NoshenieResult, error) {
	player, err := s.players.GetOrCreatePlayer(ctx, tgID, username, firstName)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	player, err = s.playerRepo.GetForUpdateTx(ctx, tx, player.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res := &NoshenieResult{
		Free:    player.LastFreeNoshenieAt == nil || !sameDay(*player.LastFreeNoshenieAt, now),
		Balance: player.Neurons,
	}

	if !res.Free {
		res.Balance, err = s.players.AdjustNeuronsTx(ctx, tx, player.ID, -game.NoshenieCost, domain.TxNoshenieCost, nil)
		if err != nil {
			return nil, err
		}
	}

	rarity := game.RollRarity(player.NoshenieCount)
	res.PityHit = rarity == domain.RarityLegendary && player.NoshenieCount >= game.LegendaryPityThreshold-1
	name := game.RollBetName(rarity)

	existing, err := s.betRepo.FindActiveByNameTx(ctx, tx, player.ID, name)
	switch {
	case err == nil:
		level := game.NextBetLevel(existing.Level)
		if err := s.betRepo.SetLevelTx(ctx, tx, existing.ID, level); err != nil {
			return nil, err
		}
		existing.Level = level
		res.Bet = existing
		res.LeveledUp = true
	case errors.Is(err, domain.ErrBetNotFound):
		bet, err := s.betRepo.CreateTx(ctx, tx, player.ID, name, rarity, domain.MinBetLevel)
		if err != nil {
			return nil, err
		}
		res.Bet = bet
		player.CountBets++
	default:
		return nil, err
	}

	res.Reward = game.RollNoshenieReward()
	res.Balance, err = s.players.AdjustNeuronsTx(ctx, tx, player.ID, res.Reward, domain.TxNoshenieReward, nil)
	if err != nil {
		return nil, err
	}

	if rarity == domain.RarityLegendary {
		player.NoshenieCount = 0
	} else {
		player.NoshenieCount++
	}
	player.LastNoshenieAt = &now
	if res.Free {
		player.LastFreeNoshenieAt = &now
	}
	if err := s.playerRepo.RecordNoshenieTx(ctx, tx, player); err != nil {
		return nil, err
	}

	_, rankAfter, rankUps, err := s.players.AwardXPTx(ctx, tx, player.ID, game.NoshenieXPReward)
	if err != nil {
		return nil, err
	}
	res.RankUps = rankUps
	res.RankAfter = rankAfter

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	nosheniaDone.Inc()
	s.log.Info("noshenie done", "player_id", player.ID, "bet", res.Bet.Name,
		"rarity", res.Bet.Rarity, "leveled_up", res.LeveledUp, "free", res.Free)
	return res, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
