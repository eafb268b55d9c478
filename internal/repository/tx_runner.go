package repository

import (
	"context"

	"github.com/cloo-solutions/docpilot/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner opens pgx transactions for service.TxRunner callers.
type TxRunner struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

// WithTx runs fn in a transaction. Errors from fn are returned unwrapped so
// domain errors keep their codes.
func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, r.opts, func(tx pgx.Tx) error {
		return fn(txRepositories{tx: tx})
	})
}

type txRepositories struct {
	tx pgx.Tx
}

func (r txRepositories) Sources() service.SourceRepository {
	return NewSourceRepositoryWithTx(r.tx)
}

func (r txRepositories) IngestionJobs() service.IngestionJobRepository {
	return NewIngestionJobRepositoryWithTx(r.tx)
}
