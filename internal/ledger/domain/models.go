package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AccountKind classifies chart-of-accounts entries.
type AccountKind string

const (
	AccountKindReceivable AccountKind = "receivable"
	AccountKindPayable    AccountKind = "payable"
	AccountKindStock      AccountKind = "stock"
	AccountKindExpense    AccountKind = "expense"
	AccountKindRevenue    AccountKind = "revenue"
	AccountKindOther      AccountKind = "other"
)

// Account defines a chart-of-accounts entry.
type Account struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	CompanyID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_accounts_company_code,priority:1"`
	Code          string       `gorm:"type:text;not null;uniqueIndex:ux_accounts_company_code,priority:2"`
	Name          string       `gorm:"type:text;not null"`
	Kind          AccountKind  `gorm:"type:text;not null"`
	PartyRequired bool         `gorm:"not null;default:false"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// RequiresParty is nil-safe.
func (a *Account) RequiresParty() bool {
	return a != nil && a.PartyRequired
}

type MoveState string

const (
	MoveStateDraft  MoveState = "draft"
	MoveStatePosted MoveState = "posted"
)

// Move is the immutable header of a posted accounting entry.
type Move struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	CompanyID   snowflake.ID      `gorm:"not null;index"`
	PeriodID    snowflake.ID      `gorm:"not null;index"`
	Date        time.Time         `gorm:"not null"`
	Origin      string            `gorm:"type:text;not null;uniqueIndex:ux_account_moves_origin"`
	Description string            `gorm:"type:text;not null;default:''"`
	State       MoveState         `gorm:"type:text;not null"`
	Metadata    datatypes.JSONMap `gorm:"not null"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Lines []MoveLine `gorm:"-"`
}

// TableName sets the database table name.
func (Move) TableName() string { return "account_moves" }

// MoveLine is one debit or credit posting of a move. A line has either a
// debit or a credit, never both.
type MoveLine struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	MoveID      snowflake.ID    `gorm:"not null;index"`
	AccountID   snowflake.ID    `gorm:"not null;index"`
	PartyID     *snowflake.ID   `gorm:"index"`
	Description string          `gorm:"type:text;not null;default:''"`
	Debit       decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	Credit      decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	// AmountSecondCurrency is signed like Debit minus Credit.
	AmountSecondCurrency decimal.NullDecimal `gorm:"type:decimal(20,6)"`
	SecondCurrencyID     *snowflake.ID
	CreatedAt            time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (MoveLine) TableName() string { return "account_move_lines" }

// Balance is Debit minus Credit.
func (l MoveLine) Balance() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}
