package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/stockledger/internal/config"
	invoicedomain "github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	perioddomain "github.com/smallbiznis/stockledger/internal/period/domain"
	"github.com/smallbiznis/stockledger/internal/txcontext"
	warningdomain "github.com/smallbiznis/stockledger/internal/warning/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvoiceService struct {
	preview     *invoicedomain.PreviewResult
	post        *invoicedomain.PostResult
	err         error
	warn        *warningdomain.Warning
	lastID      snowflake.ID
	lastSession string
}

func (f *fakeInvoiceService) PostInvoice(ctx context.Context, id snowflake.ID) (*invoicedomain.PostResult, error) {
	f.record(ctx, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.post, nil
}

func (f *fakeInvoiceService) PreviewMoveLines(ctx context.Context, id snowflake.ID) (*invoicedomain.PreviewResult, error) {
	f.record(ctx, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.preview, nil
}

func (f *fakeInvoiceService) record(ctx context.Context, id snowflake.ID) {
	f.lastID = id
	f.lastSession, _ = txcontext.SessionFromContext(ctx)
	if f.warn != nil {
		warningdomain.CollectorFromContext(ctx).Add(*f.warn)
	}
}

func newTestServer(t *testing.T, svc invoicedomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	engine := NewEngine(EngineParams{Cfg: config.Config{Environment: "test"}, Log: log})
	return NewServer(ServerParams{
		Gin:        engine,
		Cfg:        config.Config{Environment: "test"},
		Log:        log,
		InvoiceSvc: svc,
	})
}

type envelope struct {
	Data     json.RawMessage         `json:"data"`
	Warnings []warningdomain.Warning `json:"warnings"`
	Error    *errorPayload           `json:"error"`
}

func do(t *testing.T, s *Server, method, path string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func sampleInvoice() *invoicedomain.Invoice {
	return &invoicedomain.Invoice{
		ID:     snowflake.ID(42),
		Number: "INV/0042",
		Type:   invoicedomain.InvoiceTypeOutInvoice,
		State:  invoicedomain.InvoiceStateDraft,
	}
}

func TestPreviewReturnsLinesAndWarnings(t *testing.T) {
	party := snowflake.ID(7)
	svc := &fakeInvoiceService{
		preview: &invoicedomain.PreviewResult{
			Invoice: sampleInvoice(),
			Lines: []ledgerdomain.MoveLine{
				{AccountID: 100, Description: "Widget", Debit: decimal.Zero, Credit: decimal.RequireFromString("25.5")},
				{AccountID: 200, PartyID: &party, Debit: decimal.RequireFromString("25.5"), Credit: decimal.Zero},
			},
		},
		warn: &warningdomain.Warning{Name: "stock_different_product", Key: "invoice_line:1.stock.different_product", Message: "mismatch"},
	}
	s := newTestServer(t, svc)

	rec, body := do(t, s, http.MethodGet, "/v1/invoices/42/move-lines", map[string]string{HeaderSession: "sess-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1", rec.Header().Get(HeaderSession))
	assert.Equal(t, "sess-1", svc.lastSession)
	assert.Equal(t, snowflake.ID(42), svc.lastID)

	var data previewResponse
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "42", data.Invoice.ID)
	assert.Equal(t, "out_invoice", data.Invoice.Type)
	require.Len(t, data.Lines, 2)
	assert.Equal(t, "25.5", data.Lines[0].Credit)
	assert.Equal(t, "0", data.Lines[0].Debit)
	assert.Nil(t, data.Lines[0].PartyID)
	require.NotNil(t, data.Lines[1].PartyID)
	assert.Equal(t, "7", *data.Lines[1].PartyID)

	require.Len(t, body.Warnings, 1)
	assert.Equal(t, "invoice_line:1.stock.different_product", body.Warnings[0].Key)
}

func TestSessionHeaderGeneratedWhenMissing(t *testing.T) {
	svc := &fakeInvoiceService{preview: &invoicedomain.PreviewResult{Invoice: sampleInvoice()}}
	s := newTestServer(t, svc)

	rec, body := do(t, s, http.MethodGet, "/v1/invoices/42/move-lines", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	session := rec.Header().Get(HeaderSession)
	assert.NotEmpty(t, session)
	assert.Equal(t, session, svc.lastSession)
	assert.NotNil(t, body.Warnings)
	assert.Empty(t, body.Warnings)
}

func TestPostInvoiceStatus(t *testing.T) {
	posted := sampleInvoice()
	posted.State = invoicedomain.InvoiceStatePosted
	moveID := snowflake.ID(900)
	posted.MoveID = &moveID

	move := &ledgerdomain.Move{ID: moveID, Lines: []ledgerdomain.MoveLine{{AccountID: 1, Debit: decimal.NewFromInt(3), Credit: decimal.Zero}}}

	t.Run("created", func(t *testing.T) {
		s := newTestServer(t, &fakeInvoiceService{post: &invoicedomain.PostResult{Invoice: posted, Move: move}})
		rec, body := do(t, s, http.MethodPost, "/v1/invoices/42/post", nil)

		require.Equal(t, http.StatusCreated, rec.Code)
		var data postResponse
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.Equal(t, "900", data.MoveID)
		assert.False(t, data.AlreadyPosted)
		require.NotNil(t, data.Invoice.MoveID)
		assert.Equal(t, "900", *data.Invoice.MoveID)
		require.Len(t, data.Lines, 1)
		assert.Equal(t, "3", data.Lines[0].Debit)
	})

	t.Run("already posted", func(t *testing.T) {
		s := newTestServer(t, &fakeInvoiceService{post: &invoicedomain.PostResult{Invoice: posted, Move: move, AlreadyPosted: true}})
		rec, body := do(t, s, http.MethodPost, "/v1/invoices/42/post", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var data postResponse
		require.NoError(t, json.Unmarshal(body.Data, &data))
		assert.True(t, data.AlreadyPosted)
	})
}

func TestInvalidInvoiceID(t *testing.T) {
	svc := &fakeInvoiceService{}
	s := newTestServer(t, svc)

	rec, body := do(t, s, http.MethodPost, "/v1/invoices/abc/post", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "validation_error", body.Error.Type)
	require.Len(t, body.Error.Errors, 1)
	assert.Equal(t, "id", body.Error.Errors[0].Field)
	assert.Zero(t, svc.lastID)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"not found", fmt.Errorf("%w: id 42", invoicedomain.ErrInvoiceNotFound), http.StatusNotFound, "not_found"},
		{"not draft", invoicedomain.ErrInvoiceNotDraft, http.StatusConflict, "conflict"},
		{"no period", fmt.Errorf("%w: company 1", perioddomain.ErrPeriodNotFound), http.StatusUnprocessableEntity, "unprocessable_entity"},
		{"unbalanced", ledgerdomain.ErrUnbalancedMove, http.StatusUnprocessableEntity, "unprocessable_entity"},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, "service_unavailable"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, &fakeInvoiceService{err: tc.err})
			rec, body := do(t, s, http.MethodPost, "/v1/invoices/42/post", nil)

			assert.Equal(t, tc.status, rec.Code)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.typ, body.Error.Type)
		})
	}
}

func TestHealthAndFallback(t *testing.T) {
	s := newTestServer(t, &fakeInvoiceService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(t, s, http.MethodGet, "/v1/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "not_found", body.Error.Type)
}

func TestClassifyError(t *testing.T) {
	typ, code := classifyError(fmt.Errorf("wrap: %w", invoicedomain.ErrInvoiceNotDraft))
	assert.Equal(t, "conflict", typ)
	assert.Equal(t, "invoice_not_draft", code)
}
