package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/corray333/backend-labs/fulfillment/internal/service/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeSerializationFail   = "40001"
	codeDeadlockDetected    = "40P01"
)

// MapError classifies a driver error into the service error taxonomy,
// keeping the original error in the chain.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", errs.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeForeignKeyViolation:
			return fmt.Errorf("%w: %w", errs.ErrNotFound, err)
		case pgErr.Code == codeCheckViolation:
			return fmt.Errorf("%w: %w", errs.ErrValidation, err)
		case pgErr.Code == codeSerializationFail, pgErr.Code == codeDeadlockDetected:
			return fmt.Errorf("%w: %w", errs.ErrConflict, err)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			return fmt.Errorf("%w: %w", errs.ErrTransientStore, err)
		}

		return err
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", errs.ErrTransientStore, err)
	}

	return err
}
