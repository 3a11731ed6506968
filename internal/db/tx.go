package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ReadTx runs fn in a READ COMMITTED transaction that is always rolled back.
// Mutations made through it never become durable; read-write work belongs in
// WriteTx.
func (d *DB) ReadTx(ctx context.Context, fn func(pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.txTimeout)
	defer cancel()

	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return wrapConflict(err)
	}
	return nil
}

// WriteTx runs fn in a SERIALIZABLE transaction and commits on success. Any
// failure in fn or in the commit rolls the whole transaction back and
// surfaces to the caller; serialization conflicts come back as
// ErrSerialization so the caller can retry the unit of work. Units of work
// use INSERT ... RETURNING so server-generated ids and timestamps are in
// hand before the commit.
func (d *DB) WriteTx(ctx context.Context, fn func(pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.txTimeout)
	defer cancel()

	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin write tx: %w", err)
	}
	// No-op once Commit succeeds.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return wrapConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapConflict(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func wrapConflict(err error) error {
	if isSerializationFailure(err) {
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return err
}
