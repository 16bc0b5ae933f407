package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

const (
	exclusionViolation = "23P01"
	uniqueViolation    = "23505"
)

// IsConflict reports an exclusion or unique constraint violation.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == exclusionViolation || pgErr.Code == uniqueViolation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// translate maps driver errors onto the model sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case IsNotFound(err):
		return model.ErrNotFound
	case IsConflict(err):
		return model.ErrConflict
	default:
		return err
	}
}
