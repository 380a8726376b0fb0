package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	domainerrors "github.com/leaseworks/lease-engine/internal/domain/errors"
)

// translateError maps storage failures onto the domain error taxonomy so the
// services never see driver errors.
func translateError(err error, notFound *domainerrors.AppError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return domainerrors.NewConflictError("record already exists").WithCause(err)
		case "23503": // foreign_key_violation
			return domainerrors.NewValidationError("INVALID_REFERENCE", "referenced record does not exist").WithCause(err)
		}
	}
	return domainerrors.NewInternalError("database operation failed").WithCause(err)
}
