package repository

import (
	"context"
	"errors"
	"time"

	"bets_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const betColumns = `id, owner_id, name, rarity, level, is_active, in_lab, in_shelter,
	lab_started_at, lab_ends_at, created_at`

// rarityOrderSQL maps the rarity column to its tier index for ordering.
const rarityOrderSQL = `CASE rarity
	WHEN 'legendary' THEN 3
	WHEN 'epic' THEN 2
	WHEN 'rare' THEN 1
	ELSE 0 END`

// BetFilter narrows ListOwned. Zero value lists every active Bet.
type BetFilter struct {
	OnlyAvailable bool // exclude bets in the lab or the shelter
	OnlyInLab     bool
}

type BetRepository struct {
	db *pgxpool.Pool
}

func NewBetRepository(db *pgxpool.Pool) *BetRepository {
	return &BetRepository{db: db}
}

func scanBet(row pgx.Row) (*domain.Bet, error) {
	var b domain.Bet
	err := row.Scan(
		&b.ID,
		&b.OwnerID,
		&b.Name,
		&b.Rarity,
		&b.Level,
		&b.IsActive,
		&b.InLab,
		&b.InShelter,
		&b.LabStartedAt,
		&b.LabEndsAt,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBetNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BetRepository) GetByID(ctx context.Context, id int64) (*domain.Bet, error) {
	return scanBet(r.db.QueryRow(ctx,
		`SELECT `+betColumns+` FROM bets WHERE id = $1`, id))
}

// GetOwnedActive loads a Bet only when it is active and owned by the given
// player.
func (r *BetRepository) GetOwnedActive(ctx context.Context, id, ownerID int64) (*domain.Bet, error) {
	return scanBet(r.db.QueryRow(ctx,
		`SELECT `+betColumns+` FROM bets
		 WHERE id = $1 AND owner_id = $2 AND is_active = true`, id, ownerID))
}

// ListOwned returns the player's active Bets in the contractual listing
// order: rarity desc, level desc, oldest first.
func (r *BetRepository) ListOwned(ctx context.Context, ownerID int64, filter BetFilter) ([]*domain.Bet, error) {
	q := `SELECT ` + betColumns + ` FROM bets WHERE owner_id = $1 AND is_active = true`
	if filter.OnlyAvailable {
		q += ` AND in_lab = false AND in_shelter = false`
	}
	if filter.OnlyInLab {
		q += ` AND in_lab = true`
	}
	q += ` ORDER BY ` + rarityOrderSQL + ` DESC, level DESC, created_at, id`

	rows, err := r.db.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []*domain.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// CountActive counts the Bets a player really holds (merge losses excluded).
func (r *BetRepository) CountActive(ctx context.Context, ownerID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bets WHERE owner_id = $1 AND is_active = true`, ownerID,
	).Scan(&n)
	return n, err
}

// FindActiveByNameTx finds the player's active Bet with the given name, used
// by the draw flow to level up repeats instead of duplicating them.
func (r *BetRepository) FindActiveByNameTx(ctx context.Context, tx pgx.Tx, ownerID int64, name string) (*domain.Bet, error) {
	return scanBet(tx.QueryRow(ctx,
		`SELECT `+betColumns+` FROM bets
		 WHERE owner_id = $1 AND name = $2 AND is_active = true
		 LIMIT 1`, ownerID, name))
}

// CreateTx inserts a new Bet inside a transaction.
func (r *BetRepository) CreateTx(ctx context.Context, tx pgx.Tx, ownerID int64, name string, rarity domain.Rarity, level int) (*domain.Bet, error) {
	return scanBet(tx.QueryRow(ctx,
		`INSERT INTO bets (owner_id, name, rarity, level)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+betColumns,
		ownerID, name, rarity, level))
}

// SetLevelTx updates the level of an active Bet.
func (r *BetRepository) SetLevelTx(ctx context.Context, tx pgx.Tx, betID int64, level int) error {
	tag, err := tx.Exec(ctx,
		`UPDATE bets SET level = $1 WHERE id = $2 AND is_active = true`, level, betID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBetNotFound
	}
	return nil
}

// RetireTx soft-deletes a Bet. Retiring an already retired Bet is a no-op.
func (r *BetRepository) RetireTx(ctx context.Context, tx pgx.Tx, betID int64) error {
	_, err := tx.Exec(ctx, `UPDATE bets SET is_active = false WHERE id = $1`, betID)
	return err
}

// TransferOwnershipTx reassigns a Bet to a new owner. The guard refuses
// bets that are retired, in the lab or listed in the shelter; a shelter
// sale clears the shelter flag first.
func (r *BetRepository) TransferOwnershipTx(ctx context.Context, tx pgx.Tx, betID, newOwnerID int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE bets SET owner_id = $1
		 WHERE id = $2 AND is_active = true AND in_lab = false AND in_shelter = false`,
		newOwnerID, betID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBetNotFound
	}
	return nil
}

// StartLabTx marks a Bet as staked in the lab for the given window.
func (r *BetRepository) StartLabTx(ctx context.Context, tx pgx.Tx, betID int64, startedAt, endsAt time.Time) error {
	tag, err := tx.Exec(ctx,
		`UPDATE bets SET in_lab = true, lab_started_at = $1, lab_ends_at = $2
		 WHERE id = $3 AND is_active = true AND in_lab = false AND in_shelter = false`,
		startedAt, endsAt, betID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// FinishLabTx releases a Bet from the lab.
func (r *BetRepository) FinishLabTx(ctx context.Context, tx pgx.Tx, betID int64) error {
	tag, err := tx.Exec(ctx,
		`UPDATE bets SET in_lab = false, lab_started_at = NULL, lab_ends_at = NULL
		 WHERE id = $1 AND in_lab = true`, betID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState
	}
	return nil
}

// SetInShelterTx flips the shelter flag on a Bet.
func (r *BetRepository) SetInShelterTx(ctx context.Context, tx pgx.Tx, betID int64, inShelter bool) error {
	tag, err := tx.Exec(ctx,
		`UPDATE bets SET in_shelter = $1 WHERE id = $2 AND is_active = true`, inShelter, betID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBetNotFound
	}
	return nil
}

// GetForUpdateTx loads and locks a Bet row inside a transaction.
func (r *BetRepository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.Bet, error) {
	return scanBet(tx.QueryRow(ctx,
		`SELECT `+betColumns+` FROM bets WHERE id = $1 FOR UPDATE`, id))
}
