package repository

import (
	"context"
	"errors"

	"bets_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const playerColumns = `id, user_id, rank, xp, neurons, count_bets, noshenie_count,
	created_at, last_noshenie_at, last_free_noshenie_at`

type PlayerRepository struct {
	db *pgxpool.Pool
}

func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Rank,
		&p.XP,
		&p.Neurons,
		&p.CountBets,
		&p.NoshenieCount,
		&p.CreatedAt,
		&p.LastNoshenieAt,
		&p.LastFreeNoshenieAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	return scanPlayer(r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id))
}

func (r *PlayerRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Player, error) {
	return scanPlayer(r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE user_id = $1`, userID))
}

// GetByTgID resolves a profile straight from the Telegram identity.
func (r *PlayerRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.Player, error) {
	return scanPlayer(r.db.QueryRow(ctx,
		`SELECT p.id, p.user_id, p.rank, p.xp, p.neurons, p.count_bets, p.noshenie_count,
		        p.created_at, p.last_noshenie_at, p.last_free_noshenie_at
		 FROM players p
		 JOIN users u ON u.id = p.user_id
		 WHERE u.tg_id = $1`, tgID))
}

// Create inserts a fresh profile for the user. The user_id unique
// constraint serializes concurrent first-time creations; on conflict the
// existing row is returned.
func (r *PlayerRepository) Create(ctx context.Context, userID int64, startingNeurons int64) (*domain.Player, error) {
	p, err := scanPlayer(r.db.QueryRow(ctx,
		`INSERT INTO players (user_id, neurons)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING
		 RETURNING `+playerColumns,
		userID, startingNeurons,
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrPlayerNotFound) {
		return nil, err
	}
	// Lost the race: another request inserted the row first.
	return r.GetByUserID(ctx, userID)
}

// GetForUpdateTx loads and locks the profile row inside a transaction.
func (r *PlayerRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.Player, error) {
	return scanPlayer(tx.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1 FOR UPDATE`, id))
}

// AdjustNeuronsTx applies a signed balance change inside a transaction.
// The WHERE guard keeps the committed balance non-negative.
func (r *PlayerRepository) AdjustNeuronsTx(ctx context.Context, tx pgx.Tx, playerID int64, delta int64) (int64, error) {
	var newBalance int64
	err := tx.QueryRow(ctx,
		`UPDATE players SET neurons = neurons + $1
		 WHERE id = $2 AND neurons + $1 >= 0
		 RETURNING neurons`,
		delta, playerID,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			_ = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM players WHERE id = $1)`, playerID).Scan(&exists)
			if !exists {
				return 0, domain.ErrPlayerNotFound
			}
			return 0, domain.ErrInsufficientFunds
		}
		return 0, err
	}
	return newBalance, nil
}

// SetRankXPTx persists the rank engine's result.
func (r *PlayerRepository) SetRankXPTx(ctx context.Context, tx pgx.Tx, playerID int64, rank, xp int) error {
	tag, err := tx.Exec(ctx,
		`UPDATE players SET rank = $1, xp = $2 WHERE id = $3`,
		rank, xp, playerID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

// RecordNoshenieTx updates the draw bookkeeping fields after a draw.
func (r *PlayerRepository) RecordNoshenieTx(ctx context.Context, tx pgx.Tx, p *domain.Player) error {
	_, err := tx.Exec(ctx,
		`UPDATE players
		 SET count_bets = $1, noshenie_count = $2, last_noshenie_at = $3, last_free_noshenie_at = $4
		 WHERE id = $5`,
		p.CountBets, p.NoshenieCount, p.LastNoshenieAt, p.LastFreeNoshenieAt, p.ID,
	)
	return err
}

// TopByRank returns the leaderboard ordered by rank then xp.
func (r *PlayerRepository) TopByRank(ctx context.Context, limit int) ([]struct {
	Player domain.Player
	User   domain.User
}, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.user_id, p.rank, p.xp, p.neurons, p.count_bets, p.noshenie_count,
		        p.created_at, p.last_noshenie_at, p.last_free_noshenie_at,
		        u.id, u.tg_id, COALESCE(u.username, ''), COALESCE(u.first_name, ''), u.created_at
		 FROM players p
		 JOIN users u ON u.id = p.user_id
		 ORDER BY p.rank DESC, p.xp DESC, p.id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []struct {
		Player domain.Player
		User   domain.User
	}
	for rows.Next() {
		var p domain.Player
		var u domain.User
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Rank, &p.XP, &p.Neurons, &p.CountBets, &p.NoshenieCount,
			&p.CreatedAt, &p.LastNoshenieAt, &p.LastFreeNoshenieAt,
			&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		res = append(res, struct {
			Player domain.Player
			User   domain.User
		}{Player: p, User: u})
	}
	return res, rows.Err()
}

// Count returns the total number of player profiles.
func (r *PlayerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM players`).Scan(&n)
	return n, err
}
