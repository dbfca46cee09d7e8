package repository

import (
	"context"
	"errors"

	"bets_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const mergeColumns = `id, player1_id, player2_id, player1_confirmed, player2_confirmed,
	player1_bet_id, player2_bet_id, status, created_at`

type MergeRepository struct {
	db *pgxpool.Pool
}

func NewMergeRepository(db *pgxpool.Pool) *MergeRepository {
	return &MergeRepository{db: db}
}

func scanMergeSession(row pgx.Row) (*domain.MergeSession, error) {
	var m domain.MergeSession
	err := row.Scan(
		&m.ID,
		&m.Player1ID,
		&m.Player2ID,
		&m.Player1Confirmed,
		&m.Player2Confirmed,
		&m.Player1BetID,
		&m.Player2BetID,
		&m.Status,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MergeRepository) GetByID(ctx context.Context, id int64) (*domain.MergeSession, error) {
	return scanMergeSession(r.db.QueryRow(ctx,
		`SELECT `+mergeColumns+` FROM merge_sessions WHERE id = $1`, id))
}

// GetForUpdateTx loads and locks a session row inside a transaction so a
// concurrent step against the same session waits instead of double-firing.
func (r *MergeRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.MergeSession, error) {
	return scanMergeSession(tx.QueryRow(ctx,
		`SELECT `+mergeColumns+` FROM merge_sessions WHERE id = $1 FOR UPDATE`, id))
}

// FindActiveByPlayerTx returns the player's non-terminal session if any,
// locked for the duration of the transaction. At most one such session can
// exist per player.
func (r *MergeRepository) FindActiveByPlayerTx(ctx context.Context, tx pgx.Tx, playerID int64) (*domain.MergeSession, error) {
	return scanMergeSession(tx.QueryRow(ctx,
		`SELECT `+mergeColumns+` FROM merge_sessions
		 WHERE status IN ('waiting', 'confirm', 'select_bet')
		   AND (player1_id = $1 OR player2_id = $1)
		 LIMIT 1
		 FOR UPDATE`, playerID))
}

// OldestWaitingTx pops the head of the FIFO queue: the oldest waiting
// session created by someone other than the requester. SKIP LOCKED keeps
// two concurrent pair attempts from grabbing the same slot.
func (r *MergeRepository) OldestWaitingTx(ctx context.Context, tx pgx.Tx, excludePlayerID int64) (*domain.MergeSession, error) {
	return scanMergeSession(tx.QueryRow(ctx,
		`SELECT `+mergeColumns+` FROM merge_sessions
		 WHERE status = 'waiting' AND player1_id <> $1
		 ORDER BY created_at, id
		 LIMIT 1
		 FOR UPDATE SKIP LOCKED`, excludePlayerID))
}

// CreateWaitingTx enqueues a new waiting session for the creator.
func (r *MergeRepository) CreateWaitingTx(ctx context.Context, tx pgx.Tx, player1ID int64) (*domain.MergeSession, error) {
	return scanMergeSession(tx.QueryRow(ctx,
		`INSERT INTO merge_sessions (player1_id, status)
		 VALUES ($1, 'waiting')
		 RETURNING `+mergeColumns, player1ID))
}

// PairTx attaches player2 and moves the session to confirm. The expected
// status in the WHERE clause makes the transition a compare-and-set.
func (r *MergeRepository) PairTx(ctx context.Context, tx pgx.Tx, sessionID, player2ID int64) error {
	return r.casExec(ctx, tx,
		`UPDATE merge_sessions SET player2_id = $1, status = 'confirm'
		 WHERE id = $2 AND status = 'waiting'`,
		player2ID, sessionID)
}

// SetStatusTx transitions the session, enforcing the edge table both in
// code and in the compare-and-set update.
func (r *MergeRepository) SetStatusTx(ctx context.Context, tx pgx.Tx, sessionID int64, from, to domain.MergeStatus) error {
	if !from.CanTransition(to) {
		return domain.ErrInvalidState
	}
	return r.casExec(ctx, tx,
		`UPDATE merge_sessions SET status = $1 WHERE id = $2 AND status = $3`,
		to, sessionID, from)
}

// SetConfirmedTx records one side's yes vote and reports whether both
// flags are now set, in a single atomic update.
func (r *MergeRepository) SetConfirmedTx(ctx context.Context, tx pgx.Tx, sessionID int64, isPlayer1 bool) (bothConfirmed bool, err error) {
	column := "player2_confirmed"
	if isPlayer1 {
		column = "player1_confirmed"
	}
	err = tx.QueryRow(ctx,
		`UPDATE merge_sessions SET `+column+` = true
		 WHERE id = $1 AND status = 'confirm'
		 RETURNING player1_confirmed AND player2_confirmed`,
		sessionID,
	).Scan(&bothConfirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrInvalidState
		}
		return false, err
	}
	return bothConfirmed, nil
}

// SetPickTx records (or overwrites) one side's Bet selection and reports
// whether both picks are now in.
func (r *MergeRepository) SetPickTx(ctx context.Context, tx pgx.Tx, sessionID int64, isPlayer1 bool, betID int64) (bothPicked bool, err error) {
	column := "player2_bet_id"
	if isPlayer1 {
		column = "player1_bet_id"
	}
	err = tx.QueryRow(ctx,
		`UPDATE merge_sessions SET `+column+` = $1
		 WHERE id = $2 AND status = 'select_bet'
		 RETURNING player1_bet_id IS NOT NULL AND player2_bet_id IS NOT NULL`,
		betID, sessionID,
	).Scan(&bothPicked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrInvalidState
		}
		return false, err
	}
	return bothPicked, nil
}

// CountByStatus returns how many sessions sit in the given status; used by
// the admin stats endpoint ("total merges" counts completed ones).
func (r *MergeRepository) CountByStatus(ctx context.Context, status domain.MergeStatus) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM merge_sessions WHERE status = $1`, status).Scan(&n)
	return n, err
}

func (r *MergeRepository) casExec(ctx context.Context, tx pgx.Tx, sql string, args ...any) error {
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}
