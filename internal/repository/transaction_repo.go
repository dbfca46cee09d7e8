package repository

import (
	"context"

	"bets_bot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository records the neuron audit trail. Every committed
// balance mutation writes one row here inside the same transaction.
type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) CreateTx(ctx context.Context, tx pgx.Tx, t *domain.NeuronTransaction) error {
	return tx.QueryRow(ctx,
		`INSERT INTO neuron_transactions (player_id, type, amount, meta)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		t.PlayerID, t.Type, t.Amount, t.Meta,
	).Scan(&t.ID, &t.CreatedAt)
}

// ListByPlayer returns the most recent transactions for a player.
func (r *TransactionRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]*domain.NeuronTransaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, player_id, type, amount, meta, created_at
		 FROM neuron_transactions
		 WHERE player_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.NeuronTransaction
	for rows.Next() {
		var t domain.NeuronTransaction
		if err := rows.Scan(&t.ID, &t.PlayerID, &t.Type, &t.Amount, &t.Meta, &t.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &t)
	}
	return res, rows.Err()
}

// SumByType aggregates issued/spent neurons per transaction type; used by
// admin stats.
func (r *TransactionRepository) SumByType(ctx context.Context, txType string) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM neuron_transactions WHERE type = $1`, txType).Scan(&sum)
	return sum, err
}
