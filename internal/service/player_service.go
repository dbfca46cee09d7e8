package service

import (
	"context"

	"bets_bot/internal/domain"
	"bets_bot/internal/game"
	"bets_bot/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlayerService is the ledger: it owns every balance, rank and profile
// mutation. Other services go through it so each change lands with its
// audit row in one transaction.
type PlayerService struct {
	db              *pgxpool.Pool
	userRepo        *repository.UserRepository
	playerRepo      *repository.PlayerRepository
	transactionRepo *repository.TransactionRepository
	betRepo         *repository.BetRepository

	startingNeurons int64
}

func NewPlayerService(db *pgxpool.Pool, startingNeurons int64) *PlayerService {
	return &PlayerService{
		db:              db,
		userRepo:        repository.NewUserRepository(db),
		playerRepo:      repository.NewPlayerRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		betRepo:         repository.NewBetRepository(db),
		startingNeurons: startingNeurons,
	}
}

// GetOrCreatePlayer resolves a Telegram identity into a game profile,
// creating the user and player rows lazily. Safe under concurrent
// first-time calls: both inserts are upserts keyed on unique constraints.
func (s *PlayerService) GetOrCreatePlayer(ctx context.Context, tgID int64, username, firstName string) (*domain.Player, error) {
	user, err := s.userRepo.Upsert(ctx, tgID, username, firstName)
	if err != nil {
		return nil, err
	}
	return s.playerRepo.Create(ctx, user.ID, s.startingNeurons)
}

// GetPlayerByTgID resolves an existing profile without creating one.
func (s *PlayerService) GetPlayerByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	return s.playerRepo.GetByTgID(ctx, tgID)
}

// UserForPlayer resolves the Telegram identity behind a player profile.
func (s *PlayerService) UserForPlayer(ctx context.Context, playerID int64) (*domain.User, error) {
	return s.userRepo.GetByPlayerID(ctx, playerID)
}

// OwnedBets lists the player's Bet collection, rare-first.
func (s *PlayerService) OwnedBets(ctx context.Context, tgID int64, onlyAvailable bool) ([]*domain.Bet, error) {
	player, err := s.playerRepo.GetByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}
	return s.betRepo.ListOwned(ctx, player.ID, repository.BetFilter{OnlyAvailable: onlyAvailable})
}

// AdjustNeurons applies a signed balance change in its own transaction,
// recording the audit row. Fails with domain.ErrInsufficientFunds when the
// balance would go negative; nothing is committed partially.
func (s *PlayerService) AdjustNeurons(ctx context.Context, playerID int64, delta int64, txType string, meta map[string]interface{}) (newBalance int64, err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	newBalance, err = s.AdjustNeuronsTx(ctx, tx, playerID, delta, txType, meta)
	if err != nil {
		return 0, err
	}
	return newBalance, tx.Commit(ctx)
}

// AdjustNeuronsTx is AdjustNeurons scoped to a caller-owned transaction,
// used when the balance change is one step of a bigger atomic operation.
func (s *PlayerService) AdjustNeuronsTx(ctx context.Context, tx pgx.Tx, playerID int64, delta int64, txType string, meta map[string]interface{}) (int64, error) {
	newBalance, err := s.playerRepo.AdjustNeuronsTx(ctx, tx, playerID, delta)
	if err != nil {
		return 0, err
	}

	record := &domain.NeuronTransaction{
		PlayerID: playerID,
		Type:     txType,
		Amount:   delta,
		Meta:     meta,
	}
	if err := s.transactionRepo.CreateTx(ctx, tx, record); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// AwardXPTx runs the rank engine over a locked player row and persists the
// result. Returns the rank delta for rank-up notifications.
func (s *PlayerService) AwardXPTx(ctx context.Context, tx pgx.Tx, playerID int64, amount int) (rankBefore, rankAfter, rankUps int, err error) {
	p, err := s.playerRepo.GetForUpdateTx(ctx, tx, playerID)
	if err != nil {
		return 0, 0, 0, err
	}

	newRank, newXP, ups := game.AddXP(p.Rank, p.XP, amount)
	if ups == 0 && newXP == p.XP {
		return p.Rank, p.Rank, 0, nil
	}
	if err := s.playerRepo.SetRankXPTx(ctx, tx, playerID, newRank, newXP); err != nil {
		return 0, 0, 0, err
	}
	return p.Rank, newRank, ups, nil
}

// AwardXP is AwardXPTx in its own transaction.
func (s *PlayerService) AwardXP(ctx context.Context, playerID int64, amount int) (rankBefore, rankAfter, rankUps int, err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rankBefore, rankAfter, rankUps, err = s.AwardXPTx(ctx, tx, playerID, amount)
	if err != nil {
		return 0, 0, 0, err
	}
	return rankBefore, rankAfter, rankUps, tx.Commit(ctx)
}
