package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gatepass/gatepass/internal/models"
)

var (
	// ErrRemoteUnavailable wraps every transport or backend failure.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrAlreadyExists is returned by Create when a row with the same id is
	// already stored, typically from an earlier attempt whose reply was lost.
	ErrAlreadyExists = errors.New("already exists")
)

const uniqueViolation = "23505"

// mapError converts a database error into the gateway taxonomy. Not-found
// and validation errors pass through, a primary key violation becomes
// ErrAlreadyExists, and everything else, including context deadlines,
// becomes ErrRemoteUnavailable.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrValidation) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && strings.HasSuffix(pgErr.ConstraintName, "_pkey") {
		return fmt.Errorf("%w: %s: %s", ErrAlreadyExists, op, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w: %s: %w", ErrRemoteUnavailable, op, err)
}
