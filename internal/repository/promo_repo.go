package repository

import (
	"context"
	"errors"

	"bets_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PromoRepository struct {
	db *pgxpool.Pool
}

func NewPromoRepository(db *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{db: db}
}

func (r *PromoRepository) Create(ctx context.Context, p *domain.PromoCode) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO promo_codes (code, reward_neurons, max_uses, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, used_count, is_active, created_at`,
		p.Code, p.RewardNeurons, p.MaxUses, p.ExpiresAt,
	).Scan(&p.ID, &p.UsedCount, &p.IsActive, &p.CreatedAt)
}

// GetByCodeForUpdateTx loads and locks a promo row, so concurrent
// redemptions serialize on the use counter.
func (r *PromoRepository) GetByCodeForUpdateTx(ctx context.Context, tx pgx.Tx, code string) (*domain.PromoCode, error) {
	var p domain.PromoCode
	err := tx.QueryRow(ctx,
		`SELECT id, code, reward_neurons, max_uses, used_count, is_active, created_at, expires_at
		 FROM promo_codes WHERE code = $1 FOR UPDATE`, code,
	).Scan(&p.ID, &p.Code, &p.RewardNeurons, &p.MaxUses, &p.UsedCount, &p.IsActive, &p.CreatedAt, &p.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPromoNotFound
		}
		return nil, err
	}
	return &p, nil
}

// RedeemTx records a redemption and bumps the use counter. The unique
// (promo_id, player_id) constraint rejects double redemption.
func (r *PromoRepository) RedeemTx(ctx context.Context, tx pgx.Tx, promoID, playerID int64) error {
	tag, err := tx.Exec(ctx,
		`INSERT INTO promo_redemptions (promo_id, player_id)
		 VALUES ($1, $2)
		 ON CONFLICT (promo_id, player_id) DO NOTHING`,
		promoID, playerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPolicyViolation
	}

	_, err = tx.Exec(ctx,
		`UPDATE promo_codes SET used_count = used_count + 1 WHERE id = $1`, promoID)
	return err
}
