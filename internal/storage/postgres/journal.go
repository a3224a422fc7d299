package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Journal persists dispatched alerts. It doubles as a restart-safe dedup
// index keyed by transaction hash and log index.
type Journal struct {
	pool *pgxpool.Pool
}

func NewJournal(ctx context.Context, dsn string) (*Journal, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Journal{pool: pool}, nil
}

func (j *Journal) Close() {
	if j.pool != nil {
		j.pool.Close()
	}
}

// Seen reports whether an alert was already recorded for the log.
func (j *Journal) Seen(ctx context.Context, txHash string, logIndex uint) (bool, error) {
	var exists bool
	err := j.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM alerts WHERE tx_hash = $1 AND log_index = $2
		)
	`, txHash, int64(logIndex)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query alert: %w", err)
	}
	return exists, nil
}

// Record stores one dispatched alert. Idempotent on (tx_hash, log_index,
// chat_id).
func (j *Journal) Record(ctx context.Context, txHash string, logIndex uint, pool string, chatID int64, spentUsd float64) error {
	_, err := j.pool.Exec(ctx, `
		INSERT INTO alerts (tx_hash, log_index, pool, chat_id, spent_usd, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (tx_hash, log_index, chat_id) DO NOTHING
	`,
		txHash,
		int64(logIndex),
		pool,
		chatID,
		spentUsd,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}
