package service

import (
	"context"
	"log/slog"

	"bets_bot/internal/domain"
	"bets_bot/internal/logger"
	"bets_bot/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminService backs the admin bot commands and the admin HTTP API.
type AdminService struct {
	db         *pgxpool.Pool
	players    *PlayerService
	playerRepo *repository.PlayerRepository
	userRepo   *repository.UserRepository
	mergeRepo  *repository.MergeRepository
	txRepo     *repository.TransactionRepository
	notifier   Notifier
	adminIDs   map[int64]bool
	log        *slog.Logger
}

func NewAdminService(db *pgxpool.Pool, players *PlayerService, notifier Notifier, adminTgIDs []int64) *AdminService {
	ids := make(map[int64]bool, len(adminTgIDs))
	for _, id := range adminTgIDs {
		ids[id] = true
	}
	return &AdminService{
		db:         db,
		players:    players,
		playerRepo: repository.NewPlayerRepository(db),
		userRepo:   repository.NewUserRepository(db),
		mergeRepo:  repository.NewMergeRepository(db),
		txRepo:     repository.NewTransactionRepository(db),
		notifier:   notifier,
		adminIDs:   ids,
		log:        logger.With("component", "admin_service"),
	}
}

// IsAdmin reports whether the Telegram account is on the admin list.
func (s *AdminService) IsAdmin(tgID int64) bool {
	return s.adminIDs[tgID]
}

// Stats is the operational snapshot shown to admins.
type Stats struct {
	Players         int64 `json:"players"`
	MergesWaiting   int64 `json:"merges_waiting"`
	MergesActive    int64 `json:"merges_active"`
	MergesCompleted int64 `json:"merges_completed"`
	NeuronsSpent    int64 `json:"neurons_spent_on_merges"`
	NeuronsAwarded  int64 `json:"neurons_awarded_by_merges"`
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	var err error

	if st.Players, err = s.playerRepo.Count(ctx); err != nil {
		return nil, err
	}
	if st.MergesWaiting, err = s.mergeRepo.CountByStatus(ctx, domain.MergeWaiting); err != nil {
		return nil, err
	}
	confirm, err := s.mergeRepo.CountByStatus(ctx, domain.MergeConfirm)
	if err != nil {
		return nil, err
	}
	selectBet, err := s.mergeRepo.CountByStatus(ctx, domain.MergeSelectBet)
	if err != nil {
		return nil, err
	}
	st.MergesActive = confirm + selectBet
	if st.MergesCompleted, err = s.mergeRepo.CountByStatus(ctx, domain.MergeCompleted); err != nil {
		return nil, err
	}
	if st.NeuronsSpent, err = s.txRepo.SumByType(ctx, domain.TxMergeCost); err != nil {
		return nil, err
	}
	if st.NeuronsAwarded, err = s.txRepo.SumByType(ctx, domain.TxMergeReward); err != nil {
		return nil, err
	}
	return &st, nil
}

// GrantNeurons credits (or with a negative amount debits) a player's
// balance, recording an adjustment row.
func (s *AdminService) GrantNeurons(ctx context.Context, targetTgID, amount int64) (int64, error) {
	player, err := s.players.GetPlayerByTgID(ctx, targetTgID)
	if err != nil {
		return 0, err
	}
	balance, err := s.players.AdjustNeurons(ctx, player.ID, amount, domain.TxAdminAdjust, nil)
	if err != nil {
		return 0, err
	}
	s.log.Info("admin neuron grant", "target_tg_id", targetTgID, "amount", amount)
	return balance, nil
}

// Broadcast pushes a message to every known user. Send failures are the
// notifier's problem; the broadcast keeps going.
func (s *AdminService) Broadcast(ctx context.Context, text string) (int, error) {
	ids, err := s.userRepo.AllTgIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.notifier.Notify(ctx, id, text)
	}
	s.log.Info("broadcast sent", "recipients", len(ids))
	return len(ids), nil
}

// LeaderboardEntry is one row of the rank leaderboard.
type LeaderboardEntry struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Rank     int    `json:"rank"`
	XP       int    `json:"xp"`
}

// Leaderboard returns the top players by rank.
func (s *AdminService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := s.playerRepo.TopByRank(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, LeaderboardEntry{
			Position: i + 1,
			Name:     row.User.DisplayName(),
			Rank:     row.Player.Rank,
			XP:       row.Player.XP,
		})
	}
	return entries, nil
}
