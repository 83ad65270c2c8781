package sqlstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/aussiebroadwan/filekeep/internal/filekeep/store"
)

type txStore struct {
	tx      *sql.Tx
	qb      sq.StatementBuilderType
	dialect Dialect
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the outer Store owns the connection.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

// ApplyMigrations is a no-op inside a transaction.
func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Identities() store.Identities { return &identitiesRepo{db: t.tx, qb: t.qb} }
func (t *txStore) Files() store.Files           { return &filesRepo{db: t.tx, qb: t.qb} }
