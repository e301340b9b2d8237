package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	"gorm.io/gorm"
)

// MoveLineTranslator turns one invoice line into the ledger lines it posts.
// Implementations may wrap another translator and extend its result.
type MoveLineTranslator interface {
	MoveLines(ctx context.Context, line *InvoiceLine) ([]ledgerdomain.MoveLine, error)
}

type Repository interface {
	// LoadForPosting returns the invoice with company, currency, account and
	// lines attached; every line carries its product, unit, account and linked
	// stock moves.
	LoadForPosting(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	MarkPosted(ctx context.Context, db *gorm.DB, invoice *Invoice, moveID snowflake.ID, postedAt time.Time) error
}

type Service interface {
	// PostInvoice posts the invoice move and records stock consumption in one
	// transaction. Posting an already posted invoice returns its move.
	PostInvoice(ctx context.Context, id snowflake.ID) (*PostResult, error)
	// PreviewMoveLines translates the invoice without persisting the move.
	PreviewMoveLines(ctx context.Context, id snowflake.ID) (*PreviewResult, error)
}

type PostResult struct {
	Invoice       *Invoice
	Move          *ledgerdomain.Move
	AlreadyPosted bool
}

type PreviewResult struct {
	Invoice *Invoice
	Lines   []ledgerdomain.MoveLine
}

var (
	ErrInvalidInvoiceID   = errors.New("invalid_invoice_id")
	ErrInvoiceNotFound    = errors.New("invoice_not_found")
	ErrInvoiceNotDraft    = errors.New("invoice_not_draft")
	ErrInvalidInvoiceType = errors.New("invalid_invoice_type")
	ErrInvalidInvoice     = errors.New("invalid_invoice")
	ErrMissingLineAccount = errors.New("missing_line_account")
	ErrEmptyInvoice       = errors.New("empty_invoice")
)
