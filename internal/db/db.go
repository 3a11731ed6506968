package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTxTimeout = 10 * time.Second

// TxBeginner is the slice of *pgxpool.Pool the transaction templates need.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// DB hands out one fresh transaction per template invocation, all drawn from
// the shared pool. txTimeout bounds each invocation, acquisition included,
// so a drained pool surfaces as an error instead of parking the caller.
type DB struct {
	pool      TxBeginner
	txTimeout time.Duration
}

func New(pool TxBeginner, txTimeout time.Duration) *DB {
	if txTimeout <= 0 {
		txTimeout = defaultTxTimeout
	}
	return &DB{pool: pool, txTimeout: txTimeout}
}

// Connect opens the shared connection pool. Acquisition never hangs past the
// caller's context deadline; a dead server fails the initial ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 30
	cfg.MinConns = 2
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}
