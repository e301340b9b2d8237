package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation      = "23505"
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	mysqlDuplicateEntry    = 1062
)

// sqliteUniqueMarker is the sqlite message for extended code 2067.
const sqliteUniqueMarker = "UNIQUE constraint failed"

// IsDuplicateKeyErr reports whether err is a unique constraint violation on any supported dialect.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if PGCode(err) == pgUniqueViolation {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	return strings.Contains(err.Error(), sqliteUniqueMarker)
}

// IsLockTimeout reports a postgres lock_not_available failure.
func IsLockTimeout(err error) bool {
	return PGCode(err) == pgLockNotAvailable
}

func IsSerializationFailure(err error) bool {
	return PGCode(err) == pgSerializationFailure
}

// PGCode returns the SQLSTATE of a postgres error, or "" for anything else.
func PGCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsNotFound reports whether err means the queried row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
