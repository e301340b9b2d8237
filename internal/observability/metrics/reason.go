package metrics

import (
	"context"
	"errors"

	"github.com/smallbiznis/stockledger/pkg/db"
)

const (
	ReasonDeadlineExceeded     = "deadline_exceeded"
	ReasonDBLockTimeout        = "db_lock_timeout"
	ReasonSerializationFailure = "serialization_failure"
	ReasonUniqueViolation      = "unique_violation"
	ReasonNotFound             = "not_found"
	ReasonUnknown              = "unknown"
)

// ClassifyReason maps err onto a bounded label set.
func ClassifyReason(err error) string {
	switch {
	case err == nil:
		return ReasonUnknown
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ReasonDeadlineExceeded
	case db.IsLockTimeout(err):
		return ReasonDBLockTimeout
	case db.IsSerializationFailure(err):
		return ReasonSerializationFailure
	case db.IsDuplicateKeyErr(err):
		return ReasonUniqueViolation
	case db.IsNotFound(err):
		return ReasonNotFound
	default:
		return ReasonUnknown
	}
}
