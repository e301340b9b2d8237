package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	// PostMove validates and persists move with its lines, assigning IDs.
	PostMove(ctx context.Context, move *Move) error
	GetMoveByOrigin(ctx context.Context, origin string) (*Move, error)
	GetAccounts(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]*Account, error)
}

var (
	ErrInvalidCompany     = errors.New("invalid_company")
	ErrInvalidPeriod      = errors.New("invalid_period")
	ErrInvalidOrigin      = errors.New("invalid_origin")
	ErrInvalidDate        = errors.New("invalid_date")
	ErrInvalidMoveLines   = errors.New("invalid_move_lines")
	ErrInvalidAccount     = errors.New("invalid_account")
	ErrInvalidLineAmount  = errors.New("invalid_line_amount")
	ErrUnbalancedMove     = errors.New("unbalanced_move")
	ErrDuplicateMove      = errors.New("duplicate_move")
	ErrMoveNotFound       = errors.New("move_not_found")
	ErrAccountNotFound    = errors.New("account_not_found")
	ErrMissingPartyOnLine = errors.New("missing_party_on_line")
)

// ValidateBalanced checks every line posts a single non-negative side and
// the debit total equals the credit total.
func ValidateBalanced(lines []MoveLine) error {
	if len(lines) == 0 {
		return ErrInvalidMoveLines
	}

	debit := decimal.Zero
	credit := decimal.Zero
	for i, line := range lines {
		if line.AccountID == 0 {
			return fmt.Errorf("%w: line %d", ErrInvalidAccount, i)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d is negative", ErrInvalidLineAmount, i)
		}
		if !line.Debit.IsZero() && !line.Credit.IsZero() {
			return fmt.Errorf("%w: line %d has both debit and credit", ErrInvalidLineAmount, i)
		}
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}

	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debit %s, credit %s", ErrUnbalancedMove, debit, credit)
	}
	return nil
}
