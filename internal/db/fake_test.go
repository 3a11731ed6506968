package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx implements pgx.Tx for template and query tests.
type fakeTx struct {
	execFunc     func(sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFunc func(sql string, args ...any) pgx.Row
	copyFromFunc func(table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error)

	commits   int
	rollbacks int
	commitErr error
}

func (t *fakeTx) Begin(_ context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(_ context.Context) error {
	t.commits++
	return t.commitErr
}

func (t *fakeTx) Rollback(_ context.Context) error {
	t.rollbacks++
	return nil
}

func (t *fakeTx) CopyFrom(_ context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	if t.copyFromFunc != nil {
		return t.copyFromFunc(table, cols, src)
	}
	return 0, errors.New("copyFrom not configured")
}

func (t *fakeTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("prepare not configured")
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if t.execFunc != nil {
		return t.execFunc(sql, args...)
	}
	return pgconn.NewCommandTag(""), nil
}

func (t *fakeTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("query not configured")
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if t.queryRowFunc != nil {
		return t.queryRowFunc(sql, args...)
	}
	return errRow{errors.New("queryRow not configured")}
}

func (t *fakeTx) Conn() *pgx.Conn { return nil }

type errRow struct{ err error }

func (r errRow) Scan(_ ...any) error { return r.err }

type scanRow struct{ fn func(dest ...any) error }

func (r scanRow) Scan(dest ...any) error { return r.fn(dest...) }

// fakeBeginner stands in for the pool.
type fakeBeginner struct {
	tx       *fakeTx
	beginErr error
	lastOpts pgx.TxOptions
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.lastOpts = opts
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	return b.tx, nil
}

// blockedBeginner models an exhausted pool: acquisition waits until the
// context expires.
type blockedBeginner struct{}

func (blockedBeginner) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// fakeRunner feeds units of work a fakeTx directly, bypassing the pool.
type fakeRunner struct{ tx *fakeTx }

func (r *fakeRunner) ReadTx(_ context.Context, fn func(pgx.Tx) error) error  { return fn(r.tx) }
func (r *fakeRunner) WriteTx(_ context.Context, fn func(pgx.Tx) error) error { return fn(r.tx) }
