package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
)

// querier is what *pgxpool.Pool and pgx.Tx have in common.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres implementation of booking.Store.
type Store struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewStore(pool *db.Pool, outboxRepo *outbox.Repository) *Store {
	return &Store{pool: pool, outbox: outboxRepo}
}

func (s *Store) InTx(ctx context.Context, fn func(booking.Tx) error) error {
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		return fn(&txStore{tx: tx, outbox: s.outbox})
	})
}

type txStore struct {
	tx     pgx.Tx
	outbox *outbox.Repository
}

var (
	_ booking.Store = (*Store)(nil)
	_ booking.Tx    = (*txStore)(nil)
)
