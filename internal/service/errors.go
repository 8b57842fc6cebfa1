package service

import (
	"errors"
	"fmt"

	"beeja-hrm-backend/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("request already resolved")
	ErrUnavailable  = errors.New("storage unavailable")
)

// NeedsConnectionRequestError tells the caller that the pair is gated by
// the approval workflow and carries enough context to start it.
type NeedsConnectionRequestError struct {
	RecipientID   string
	RecipientRole model.Role
}

func (e *NeedsConnectionRequestError) Error() string {
	return fmt.Sprintf("connection request required to chat with %s (%s)", e.RecipientID, e.RecipientRole)
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// unavailable wraps a store failure so handlers map it to 503 while the
// underlying cause stays in the error chain for logs.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

// isUniqueViolation detects a Postgres unique-index conflict, which the
// services translate into ErrConflict.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
