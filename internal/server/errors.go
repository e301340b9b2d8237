package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	invoicedomain "github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	perioddomain "github.com/smallbiznis/stockledger/internal/period/domain"
	productdomain "github.com/smallbiznis/stockledger/internal/product/domain"
	stockdomain "github.com/smallbiznis/stockledger/internal/stock/domain"
	"github.com/smallbiznis/stockledger/pkg/db"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

var (
	notFoundErrors = []error{
		ErrNotFound,
		invoicedomain.ErrInvoiceNotFound,
	}
	conflictErrors = []error{
		invoicedomain.ErrInvoiceNotDraft,
		ledgerdomain.ErrDuplicateMove,
	}
	// unprocessableErrors are configuration or data problems of the invoice
	// being posted; their messages are safe to return.
	unprocessableErrors = []error{
		invoicedomain.ErrInvalidInvoice,
		invoicedomain.ErrInvalidInvoiceType,
		invoicedomain.ErrMissingLineAccount,
		invoicedomain.ErrEmptyInvoice,
		perioddomain.ErrPeriodNotFound,
		perioddomain.ErrFiscalYearNotFound,
		currencydomain.ErrRateNotFound,
		currencydomain.ErrNotFound,
		productdomain.ErrMissingAccount,
		productdomain.ErrInvalidUnit,
		productdomain.ErrUnitCategoryMismatch,
		stockdomain.ErrProductMismatch,
		stockdomain.ErrInvalidMoveType,
		ledgerdomain.ErrUnbalancedMove,
		ledgerdomain.ErrAccountNotFound,
		ledgerdomain.ErrMissingPartyOnLine,
		ledgerdomain.ErrInvalidLineAmount,
		ledgerdomain.ErrInvalidMoveLines,
	}
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidInvoiceID):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Field: "request", Code: codeOf(err), Message: err.Error()},
			},
		}
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case matchesAny(err, conflictErrors):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case matchesAny(err, unprocessableErrors):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable_entity",
			Message: err.Error(),
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		db.IsLockTimeout(err),
		db.IsSerializationFailure(err):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyError feeds the request logger.
func classifyError(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, codeOf(err)
}

// codeOf is the text of the first known sentinel err wraps.
func codeOf(err error) string {
	for _, group := range [][]error{
		{ErrInvalidRequest, invoicedomain.ErrInvalidInvoiceID},
		notFoundErrors,
		conflictErrors,
		unprocessableErrors,
	} {
		for _, target := range group {
			if errors.Is(err, target) {
				return target.Error()
			}
		}
	}
	if asValidationErrors(err) != nil {
		return "validation_error"
	}
	return ErrInternal.Error()
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}
