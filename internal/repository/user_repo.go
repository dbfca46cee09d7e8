package repository

import (
	"context"
	"errors"

	"bets_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), created_at
		 FROM users
		 WHERE tg_id = $1`,
		tgID,
	)

	var u domain.User
	if err := row.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), created_at
		 FROM users
		 WHERE id = $1`,
		id,
	)

	var u domain.User
	if err := row.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByPlayerID resolves the User owning the given player profile.
func (r *UserRepository) GetByPlayerID(ctx context.Context, playerID int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT u.id, u.tg_id, COALESCE(u.username, ''), COALESCE(u.first_name, ''), u.created_at
		 FROM users u
		 JOIN players p ON p.user_id = u.id
		 WHERE p.id = $1`,
		playerID,
	)

	var u domain.User
	if err := row.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, err
	}
	return &u, nil
}

// AllTgIDs returns every known Telegram id, for broadcasts.
func (r *UserRepository) AllTgIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT tg_id FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Upsert creates the user on first contact or refreshes the chat names.
// The tg_id unique constraint makes concurrent first calls collapse into
// one row.
func (r *UserRepository) Upsert(ctx context.Context, tgID int64, username, firstName string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO users (tg_id, username, first_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (tg_id) DO UPDATE
		 SET username = EXCLUDED.username, first_name = EXCLUDED.first_name
		 RETURNING id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), created_at`,
		tgID, username, firstName,
	)

	var u domain.User
	if err := row.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
