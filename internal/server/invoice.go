package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
)

type moveLineResponse struct {
	AccountID            string  `json:"account_id"`
	PartyID              *string `json:"party_id,omitempty"`
	Description          string  `json:"description"`
	Debit                string  `json:"debit"`
	Credit               string  `json:"credit"`
	AmountSecondCurrency *string `json:"amount_second_currency,omitempty"`
	SecondCurrencyID     *string `json:"second_currency_id,omitempty"`
}

type invoiceResponse struct {
	ID       string     `json:"id"`
	Number   string     `json:"number"`
	Type     string     `json:"type"`
	State    string     `json:"state"`
	MoveID   *string    `json:"move_id,omitempty"`
	PostedAt *time.Time `json:"posted_at,omitempty"`
}

type previewResponse struct {
	Invoice invoiceResponse    `json:"invoice"`
	Lines   []moveLineResponse `json:"lines"`
}

type postResponse struct {
	Invoice       invoiceResponse    `json:"invoice"`
	MoveID        string             `json:"move_id"`
	AlreadyPosted bool               `json:"already_posted"`
	Lines         []moveLineResponse `json:"lines"`
}

func (s *Server) PreviewInvoiceMoveLines(c *gin.Context) {
	id, ok := parseInvoiceID(c)
	if !ok {
		return
	}

	result, err := s.invoiceSvc.PreviewMoveLines(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": previewResponse{
			Invoice: toInvoiceResponse(result.Invoice),
			Lines:   toMoveLineResponses(result.Lines),
		},
		"warnings": warningsOf(c),
	})
}

func (s *Server) PostInvoice(c *gin.Context) {
	id, ok := parseInvoiceID(c)
	if !ok {
		return
	}

	result, err := s.invoiceSvc.PostInvoice(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := postResponse{
		Invoice:       toInvoiceResponse(result.Invoice),
		AlreadyPosted: result.AlreadyPosted,
		Lines:         []moveLineResponse{},
	}
	if result.Move != nil {
		resp.MoveID = result.Move.ID.String()
		resp.Lines = toMoveLineResponses(result.Move.Lines)
	}

	status := http.StatusCreated
	if result.AlreadyPosted {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": resp, "warnings": warningsOf(c)})
}

func parseInvoiceID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}

func toInvoiceResponse(inv *invoicedomain.Invoice) invoiceResponse {
	if inv == nil {
		return invoiceResponse{}
	}
	resp := invoiceResponse{
		ID:       inv.ID.String(),
		Number:   inv.Number,
		Type:     string(inv.Type),
		State:    string(inv.State),
		PostedAt: inv.PostedAt,
	}
	if inv.MoveID != nil {
		resp.MoveID = idString(inv.MoveID)
	}
	return resp
}

func toMoveLineResponses(lines []ledgerdomain.MoveLine) []moveLineResponse {
	out := make([]moveLineResponse, 0, len(lines))
	for _, line := range lines {
		item := moveLineResponse{
			AccountID:        line.AccountID.String(),
			PartyID:          idString(line.PartyID),
			Description:      line.Description,
			Debit:            line.Debit.String(),
			Credit:           line.Credit.String(),
			SecondCurrencyID: idString(line.SecondCurrencyID),
		}
		if line.AmountSecondCurrency.Valid {
			amount := line.AmountSecondCurrency.Decimal.String()
			item.AmountSecondCurrency = &amount
		}
		out = append(out, item)
	}
	return out
}

func idString(id *snowflake.ID) *string {
	if id == nil {
		return nil
	}
	value := id.String()
	return &value
}
