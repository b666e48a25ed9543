package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"eva_exchange/internal/shared/apperr"
)

// Postgres SQLSTATE codes inspected below.
const (
	codeForeignKeyViolation  = "23503"
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsForeignKeyViolation reports whether err is a rejected reference to a missing row.
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated) || pgCode(err) == codeForeignKeyViolation
}

// IsDuplicateKey reports whether err is a unique or primary key violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == codeUniqueViolation
}

// IsSerializationFailure reports whether the store aborted the unit because of a concurrent writer.
func IsSerializationFailure(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// Classify maps a driver error onto an apperr category. Errors that already
// carry a category pass through unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case apperr.HasCategory(err):
		return err
	case IsDuplicateKey(err), IsSerializationFailure(err):
		return fmt.Errorf("%w: %w", apperr.ErrConflict, err)
	default:
		return apperr.Unavailable(err)
	}
}
