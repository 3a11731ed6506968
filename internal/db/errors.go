package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrUserNotFound: the identifier resolves to no row. Non-retryable.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists: insert hit the primary-key constraint.
	ErrUserExists = errors.New("user already exists")
	// ErrReferralCycle: the assignment would make a user its own ancestor.
	ErrReferralCycle = errors.New("referral would create a cycle")
	// ErrSerialization: a concurrent writer won; retry the whole unit of work.
	ErrSerialization = errors.New("serialization conflict")
)

// IsRetryable reports whether the caller should re-run the unit of work.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSerialization)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}
