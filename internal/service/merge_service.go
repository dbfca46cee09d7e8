package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bets_bot/internal/domain"
	"bets_bot/internal/game"
	"bets_bot/internal/logger"
	"bets_bot/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MergeService drives the two-player merge negotiation: FIFO pairing,
// mutual confirmation, bet selection and the atomic resolution. Every step
// runs in one transaction that checks the session status and applies the
// transition together, so two concurrent chat sessions can never
// double-pair a waiting slot or double-resolve a completed merge.
type MergeService struct {
	db         *pgxpool.Pool
	players    *PlayerService
	playerRepo *repository.PlayerRepository
	betRepo    *repository.BetRepository
	mergeRepo  *repository.MergeRepository
	notifier   Notifier
	log        *slog.Logger
}

func NewMergeService(db *pgxpool.Pool, players *PlayerService, notifier Notifier) *MergeService {
	return &MergeService{
		db:         db,
		players:    players,
		playerRepo: repository.NewPlayerRepository(db),
		betRepo:    repository.NewBetRepository(db),
		mergeRepo:  repository.NewMergeRepository(db),
		notifier:   notifier,
		log:        logger.With("component", "merge_service"),
	}
}

// MergeRequestOutcome tells the bot what happened on /merge.
type MergeRequestOutcome int

const (
	// MergeQueued: no partner available, a waiting session was created.
	MergeQueued MergeRequestOutcome = iota
	// MergePaired: the caller joined the oldest waiting session.
	MergePaired
	// MergeAlreadyActive: the caller already holds a non-terminal session.
	MergeAlreadyActive
)

// MergeRequestResult carries the outcome of RequestMerge.
type MergeRequestResult struct {
	Outcome MergeRequestOutcome
	Session *domain.MergeSession

	// Set when Outcome == MergePaired.
	SelfUser    *domain.User
	PartnerUser *domain.User
}

// RequestMerge joins the merge queue or pairs with the oldest waiting
// session from a different player. A player holds at most one non-terminal
// session at a time.
func (s *MergeService) RequestMerge(ctx context.Context, tgID int64, username, firstName string) (*MergeRequestResult, error) {
	player, err := s.players.GetOrCreatePlayer(ctx, tgID, username, firstName)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	active, err := s.mergeRepo.FindActiveByPlayerTx(ctx, tx, player.ID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}
	if active != nil {
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return &MergeRequestResult{Outcome: MergeAlreadyActive, Session: active}, nil
	}

	waiting, err := s.mergeRepo.OldestWaitingTx(ctx, tx, player.ID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}

	if waiting == nil {
		session, err := s.mergeRepo.CreateWaitingTx(ctx, tx, player.ID)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		s.log.Info("merge queue joined", "session_id", session.ID, "player_id", player.ID)
		return &MergeRequestResult{Outcome: MergeQueued, Session: session}, nil
	}

	if err := s.mergeRepo.PairTx(ctx, tx, waiting.ID, player.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	waiting.Player2ID = &player.ID
	waiting.Status = domain.MergeConfirm

	selfUser, err := s.players.UserForPlayer(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	partnerUser, err := s.players.UserForPlayer(ctx, waiting.Player1ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("merge paired", "session_id", waiting.ID,
		"player1_id", waiting.Player1ID, "player2_id", player.ID)
	mergesPaired.Inc()

	return &MergeRequestResult{
		Outcome:     MergePaired,
		Session:     waiting,
		SelfUser:    selfUser,
		PartnerUser: partnerUser,
	}, nil
}

// ConfirmResult carries the outcome of a confirmation vote.
type ConfirmResult struct {
	Declined      bool
	BothConfirmed bool

	// Set when BothConfirmed: one prompt per side telling the bot whom
	// to ask for a pick and which Bets are eligible.
	PickPrompts []PickPrompt
}

// PickPrompt is the bet-selection prompt for one side of the session.
type PickPrompt struct {
	TgID      int64
	SessionID int64
	Bets      []*domain.Bet
}

// ConfirmMerge applies one side's yes/no vote. A "no" cancels immediately
// and notifies the partner; the last "yes" moves the session to bet
// selection.
func (s *MergeService) ConfirmMerge(ctx context.Context, tgID, sessionID int64, accept bool) (*ConfirmResult, error) {
	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	session, err := s.mergeRepo.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.MergeConfirm || session.Player2ID == nil {
		return nil, fmt.Errorf("%w: session %d is %s", domain.ErrInvalidState, session.ID, session.Status)
	}
	if !session.Participant(player.ID) {
		return nil, fmt.Errorf("%w: player %d is not in session %d", domain.ErrPolicyViolation, player.ID, session.ID)
	}

	isPlayer1 := session.Player1ID == player.ID

	if !accept {
		if err := s.mergeRepo.SetStatusTx(ctx, tx, session.ID, domain.MergeConfirm, domain.MergeCancelled); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		mergesCancelled.Inc()
		s.notifyPartner(ctx, session, player.ID, "Слияние отменено другим игроком.")
		return &ConfirmResult{Declined: true}, nil
	}

	both, err := s.mergeRepo.SetConfirmedTx(ctx, tx, session.ID, isPlayer1)
	if err != nil {
		return nil, err
	}
	if both {
		if err := s.mergeRepo.SetStatusTx(ctx, tx, session.ID, domain.MergeConfirm, domain.MergeSelectBet); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	res := &ConfirmResult{BothConfirmed: both}
	if !both {
		return res, nil
	}

	for _, pid := range []int64{session.Player1ID, *session.Player2ID} {
		user, err := s.players.UserForPlayer(ctx, pid)
		if err != nil {
			return nil, err
		}
		bets, err := s.betRepo.ListOwned(ctx, pid, repository.BetFilter{OnlyAvailable: true})
		if err != nil {
			return nil, err
		}
		eligible := bets[:0]
		for _, b := range bets {
			if b.MergeEligible() {
				eligible = append(eligible, b)
			}
		}
		res.PickPrompts = append(res.PickPrompts, PickPrompt{
			TgID:      user.TgID,
			SessionID: session.ID,
			Bets:      eligible,
		})
	}
	return res, nil
}

// MergeResolution is the final result delivered to both players.
type MergeResolution struct {
	WinnerTgID    int64
	LoserTgID     int64
	WinnerName    string
	LoserName     string
	WinnerBetName string
	LoserBetName  string
	NewLevel      int
	WinnerReward  int64
	LoserReward   int64
	WinnerRankUps int
	LoserRankUps  int
	WinnerRank    int
	LoserRank     int
}

// PickResult carries the outcome of a bet selection.
type PickResult struct {
	BothPicked bool
	// Resolution is set once both picks landed and the duel resolved.
	Resolution *MergeResolution
}

// PickBet records (or overwrites) the caller's selection. The second pick
// triggers resolution inside the same transaction; any resolution failure
// rolls the whole step back, leaving the session in select_bet.
func (s *MergeService) PickBet(ctx context.Context, tgID, sessionID, betID int64) (*PickResult, error) {
	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	session, err := s.mergeRepo.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.MergeSelectBet || session.Player2ID == nil {
		return nil, fmt.Errorf("%w: session %d is %s", domain.ErrInvalidState, session.ID, session.Status)
	}
	if !session.Participant(player.ID) {
		return nil, fmt.Errorf("%w: player %d is not in session %d", domain.ErrPolicyViolation, player.ID, session.ID)
	}

	bet, err := s.betRepo.GetForUpdateTx(ctx, tx, betID)
	if err != nil {
		return nil, err
	}
	if bet.OwnerID != player.ID || !bet.MergeEligible() {
		return nil, fmt.Errorf("%w: bet %d is not eligible", domain.ErrPolicyViolation, betID)
	}

	isPlayer1 := session.Player1ID == player.ID
	both, err := s.mergeRepo.SetPickTx(ctx, tx, session.ID, isPlayer1, betID)
	if err != nil {
		return nil, err
	}

	if !both {
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return &PickResult{}, nil
	}

	if isPlayer1 {
		session.Player1BetID = &betID
	} else {
		session.Player2BetID = &betID
	}

	resolution, err := s.resolveTx(ctx, tx, session)
	if err != nil {
		// Roll back the pick as well: the session stays in select_bet
		// and both players are told why nothing happened.
		s.notifyBoth(ctx, session, "Слияние не удалось:\n"+reasonText(err))
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	mergesCompleted.Inc()
	s.announceResolution(ctx, resolution)
	return &PickResult{BothPicked: true, Resolution: resolution}, nil
}

// resolveTx performs the duel inside the caller's transaction: it
// re-validates both bets and both balances, rolls the winner, applies the
// economy and completes the session. All-or-nothing.
func (s *MergeService) resolveTx(ctx context.Context, tx pgx.Tx, session *domain.MergeSession) (*MergeResolution, error) {
	if session.Player1BetID == nil || session.Player2BetID == nil || session.Player2ID == nil {
		return nil, fmt.Errorf("%w: picks missing on session %d", domain.ErrInvalidState, session.ID)
	}
	if *session.Player1BetID == *session.Player2BetID {
		return nil, fmt.Errorf("%w: both sides picked bet %d", domain.ErrPolicyViolation, *session.Player1BetID)
	}

	// Lock player rows in id order to avoid deadlocks between concurrent
	// resolutions sharing a player.
	p1ID, p2ID := session.Player1ID, *session.Player2ID
	firstID, secondID := p1ID, p2ID
	if firstID > secondID {
		firstID, secondID = secondID, firstID
	}
	first, err := s.playerRepo.GetForUpdateTx(ctx, tx, firstID)
	if err != nil {
		return nil, err
	}
	second, err := s.playerRepo.GetForUpdateTx(ctx, tx, secondID)
	if err != nil {
		return nil, err
	}
	player1, player2 := first, second
	if player1.ID != p1ID {
		player1, player2 = second, first
	}

	bet1, err := s.betRepo.GetForUpdateTx(ctx, tx, *session.Player1BetID)
	if err != nil {
		return nil, err
	}
	bet2, err := s.betRepo.GetForUpdateTx(ctx, tx, *session.Player2BetID)
	if err != nil {
		return nil, err
	}

	// Guard against anything that changed between selection and now: a
	// bet sold, staked or already consumed aborts without mutating.
	if bet1.OwnerID != player1.ID || bet2.OwnerID != player2.ID {
		return nil, fmt.Errorf("%w: bet ownership changed", domain.ErrStaleReference)
	}
	if !bet1.MergeEligible() || !bet2.MergeEligible() {
		return nil, fmt.Errorf("%w: bet no longer eligible", domain.ErrStaleReference)
	}

	// Both must afford the cost before anything is deducted.
	if player1.Neurons < game.MergeCost || player2.Neurons < game.MergeCost {
		return nil, fmt.Errorf("%w: merge costs %d neurons", domain.ErrInsufficientFunds, game.MergeCost)
	}

	outcome := game.ResolveMerge(
		game.MergeSide{PlayerRank: player1.Rank, BetLevel: bet1.Level, BetRarity: bet1.Rarity},
		game.MergeSide{PlayerRank: player2.Rank, BetLevel: bet2.Level, BetRarity: bet2.Rarity},
		game.RollWinChance(),
		game.RollMergeReward(),
	)

	winner, loser := player1, player2
	winnerBet, loserBet := bet1, bet2
	if !outcome.Player1Wins {
		winner, loser = player2, player1
		winnerBet, loserBet = bet2, bet1
	}

	meta := map[string]interface{}{"merge_session_id": session.ID}
	for _, pid := range []int64{winner.ID, loser.ID} {
		if _, err := s.players.AdjustNeuronsTx(ctx, tx, pid, -game.MergeCost, domain.TxMergeCost, meta); err != nil {
			return nil, err
		}
	}

	if err := s.betRepo.SetLevelTx(ctx, tx, winnerBet.ID, outcome.NewLevel); err != nil {
		return nil, err
	}
	if err := s.betRepo.RetireTx(ctx, tx, loserBet.ID); err != nil {
		return nil, err
	}

	if _, err := s.players.AdjustNeuronsTx(ctx, tx, winner.ID, outcome.WinnerReward, domain.TxMergeReward, meta); err != nil {
		return nil, err
	}
	if _, err := s.players.AdjustNeuronsTx(ctx, tx, loser.ID, outcome.LoserReward, domain.TxMergeReward, meta); err != nil {
		return nil, err
	}

	_, winnerRank, winnerUps, err := s.players.AwardXPTx(ctx, tx, winner.ID, game.MergeXPReward)
	if err != nil {
		return nil, err
	}
	_, loserRank, loserUps, err := s.players.AwardXPTx(ctx, tx, loser.ID, game.MergeXPReward)
	if err != nil {
		return nil, err
	}

	if err := s.mergeRepo.SetStatusTx(ctx, tx, session.ID, domain.MergeSelectBet, domain.MergeCompleted); err != nil {
		return nil, err
	}

	winnerUser, err := s.players.UserForPlayer(ctx, winner.ID)
	if err != nil {
		return nil, err
	}
	loserUser, err := s.players.UserForPlayer(ctx, loser.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info("merge resolved", "session_id", session.ID,
		"winner_id", winner.ID, "loser_id", loser.ID,
		"winner_bet_id", winnerBet.ID, "new_level", outcome.NewLevel)

	return &MergeResolution{
		WinnerTgID:    winnerUser.TgID,
		LoserTgID:     loserUser.TgID,
		WinnerName:    winnerUser.DisplayName(),
		LoserName:     loserUser.DisplayName(),
		WinnerBetName: winnerBet.Name,
		LoserBetName:  loserBet.Name,
		NewLevel:      outcome.NewLevel,
		WinnerReward:  outcome.WinnerReward,
		LoserReward:   outcome.LoserReward,
		WinnerRankUps: winnerUps,
		LoserRankUps:  loserUps,
		WinnerRank:    winnerRank,
		LoserRank:     loserRank,
	}, nil
}

// ActiveSession returns the caller's current non-terminal session, or
// domain.ErrSessionNotFound.
func (s *MergeService) ActiveSession(ctx context.Context, tgID int64) (*domain.MergeSession, error) {
	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	session, err := s.mergeRepo.FindActiveByPlayerTx(ctx, tx, player.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// CancelMerge cancels the session on behalf of one of its participants and
// notifies the other party when the session was already paired.
func (s *MergeService) CancelMerge(ctx context.Context, tgID, sessionID int64) error {
	player, err := s.players.GetPlayerByTgID(ctx, tgID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	session, err := s.mergeRepo.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		return err
	}
	if session.Status.Terminal() {
		return fmt.Errorf("%w: session %d already %s", domain.ErrInvalidState, session.ID, session.Status)
	}
	if !session.Participant(player.ID) {
		return fmt.Errorf("%w: player %d is not in session %d", domain.ErrPolicyViolation, player.ID, session.ID)
	}

	if err := s.mergeRepo.SetStatusTx(ctx, tx, session.ID, session.Status, domain.MergeCancelled); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	mergesCancelled.Inc()
	s.log.Info("merge cancelled", "session_id", session.ID, "by_player_id", player.ID)
	s.notifyPartner(ctx, session, player.ID, "Слияние отменено другим игроком.")
	return nil
}

// notifyPartner pushes a message to the session participant other than
// actorPlayerID, when one exists.
func (s *MergeService) notifyPartner(ctx context.Context, session *domain.MergeSession, actorPlayerID int64, text string) {
	partnerID := session.Player1ID
	if partnerID == actorPlayerID {
		if session.Player2ID == nil {
			return
		}
		partnerID = *session.Player2ID
	}

	user, err := s.players.UserForPlayer(ctx, partnerID)
	if err != nil {
		s.log.Warn("partner lookup for notification failed", "player_id", partnerID, "error", err)
		return
	}
	s.notifier.Notify(ctx, user.TgID, text)
}

func (s *MergeService) notifyBoth(ctx context.Context, session *domain.MergeSession, text string) {
	ids := []int64{session.Player1ID}
	if session.Player2ID != nil {
		ids = append(ids, *session.Player2ID)
	}
	for _, pid := range ids {
		user, err := s.players.UserForPlayer(ctx, pid)
		if err != nil {
			continue
		}
		s.notifier.Notify(ctx, user.TgID, text)
	}
}

func (s *MergeService) announceResolution(ctx context.Context, r *MergeResolution) {
	winnerText := fmt.Sprintf(
		"Слияние завершено успешно!🌟\n\nПобеда за %s\nПроиграл %s\n\n"+
			"Бет %s повысил уровень до %d!\nВы получили %d нейронов\nОпыт: +%d",
		r.WinnerName, r.LoserName, r.WinnerBetName, r.NewLevel, r.WinnerReward, game.MergeXPReward)
	loserText := fmt.Sprintf(
		"Слияние завершено успешно!🌟\n\nПобеда за %s\nВаш бет %s проигран!\n"+
			"Вы получили %d нейронов\nОпыт: +%d",
		r.WinnerName, r.LoserBetName, r.LoserReward, game.MergeXPReward)

	s.notifier.Notify(ctx, r.WinnerTgID, winnerText)
	s.notifier.Notify(ctx, r.LoserTgID, loserText)

	if r.WinnerRankUps > 0 {
		s.notifier.Notify(ctx, r.WinnerTgID,
			fmt.Sprintf("🐦‍🔥ВАШ РАНГ ПОВЫШЕН: %d -> %d🐦‍🔥", r.WinnerRank-r.WinnerRankUps, r.WinnerRank))
	}
	if r.LoserRankUps > 0 {
		s.notifier.Notify(ctx, r.LoserTgID,
			fmt.Sprintf("🐦‍🔥ВАШ РАНГ ПОВЫШЕН: %d -> %d🐦‍🔥", r.LoserRank-r.LoserRankUps, r.LoserRank))
	}
}

// reasonText maps a failure to the message both players see.
func reasonText(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return fmt.Sprintf("У обоих игроков должно быть минимум %d нейронов для слияния.", game.MergeCost)
	case errors.Is(err, domain.ErrStaleReference):
		return "Один из выбранных Бетов больше недоступен."
	case errors.Is(err, domain.ErrPolicyViolation):
		return "Нельзя использовать один и тот же Бэт для обоих игроков."
	default:
		return "Неизвестная ошибка."
	}
}
