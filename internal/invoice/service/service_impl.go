package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stockledger/internal/clock"
	invoicedomain "github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/stockledger/internal/observability/metrics"
	perioddomain "github.com/smallbiznis/stockledger/internal/period/domain"
	stockdomain "github.com/smallbiznis/stockledger/internal/stock/domain"
	"github.com/smallbiznis/stockledger/pkg/db"
	"github.com/smallbiznis/stockledger/pkg/log/ctxlogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Repo       invoicedomain.Repository
	Translator invoicedomain.MoveLineTranslator
	Ledger     ledgerdomain.Service
	Periods    perioddomain.Resolver
	Stock      stockdomain.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	tracer     trace.Tracer
	obsMetrics *obsmetrics.Metrics

	repo       invoicedomain.Repository
	translator invoicedomain.MoveLineTranslator
	ledger     ledgerdomain.Service
	periods    perioddomain.Resolver
	stock      stockdomain.Repository
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		clock:      p.Clock,
		tracer:     otel.Tracer("stockledger/invoice"),
		obsMetrics: p.ObsMetrics,

		repo:       p.Repo,
		translator: p.Translator,
		ledger:     p.Ledger,
		periods:    p.Periods,
		stock:      p.Stock,
	}
}

func (s *Service) PostInvoice(ctx context.Context, id snowflake.ID) (*invoicedomain.PostResult, error) {
	if id == 0 {
		return nil, invoicedomain.ErrInvalidInvoiceID
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "invoice.post", trace.WithAttributes(attribute.String("invoice.id", id.String())))
	defer span.End()

	var result *invoicedomain.PostResult
	err := db.Transaction(ctx, s.db, func(ctx context.Context) error {
		conn := db.Conn(ctx, s.db)
		invoice, err := s.repo.LoadForPosting(ctx, conn, id)
		if err != nil {
			return err
		}

		if invoice.IsPosted() {
			move, err := s.ledger.GetMoveByOrigin(ctx, invoice.Origin())
			if err != nil {
				return err
			}
			result = &invoicedomain.PostResult{Invoice: invoice, Move: move, AlreadyPosted: true}
			return nil
		}
		if invoice.State != invoicedomain.InvoiceStateDraft {
			return invoicedomain.ErrInvoiceNotDraft
		}

		lines, err := s.buildMoveLines(ctx, invoice)
		if err != nil {
			return err
		}
		move, err := s.postInvoiceToLedger(ctx, invoice, lines)
		if err != nil {
			return err
		}
		if err := s.stock.SaveAngloSaxonQuantities(ctx, conn, invoice.StockMoves()); err != nil {
			return err
		}
		if err := s.repo.MarkPosted(ctx, conn, invoice, move.ID, s.clock.Now().UTC()); err != nil {
			return err
		}

		result = &invoicedomain.PostResult{Invoice: invoice, Move: move}
		return nil
	})
	s.obsMetrics.ObservePostDuration("post", time.Since(start))
	if err != nil {
		s.fail(ctx, span, "post invoice failed", id, err)
		return nil, err
	}

	if result.AlreadyPosted {
		ctxlogger.WithContext(ctx, s.log).Info("invoice already posted",
			zap.String("invoice_id", id.String()),
			zap.String("move_id", result.Move.ID.String()),
		)
		return result, nil
	}

	s.obsMetrics.IncInvoicePosted(string(result.Invoice.Type))
	span.SetAttributes(attribute.String("move.id", result.Move.ID.String()))
	return result, nil
}

func (s *Service) PreviewMoveLines(ctx context.Context, id snowflake.ID) (*invoicedomain.PreviewResult, error) {
	if id == 0 {
		return nil, invoicedomain.ErrInvalidInvoiceID
	}

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "invoice.preview", trace.WithAttributes(attribute.String("invoice.id", id.String())))
	defer span.End()
	defer func() { s.obsMetrics.ObservePostDuration("preview", time.Since(start)) }()

	invoice, err := s.repo.LoadForPosting(ctx, db.Conn(ctx, s.db), id)
	if err != nil {
		s.fail(ctx, span, "preview invoice failed", id, err)
		return nil, err
	}

	if invoice.IsPosted() {
		move, err := s.ledger.GetMoveByOrigin(ctx, invoice.Origin())
		if err != nil {
			s.fail(ctx, span, "preview invoice failed", id, err)
			return nil, err
		}
		return &invoicedomain.PreviewResult{Invoice: invoice, Lines: move.Lines}, nil
	}

	lines, err := s.buildMoveLines(ctx, invoice)
	if err != nil {
		s.fail(ctx, span, "preview invoice failed", id, err)
		return nil, err
	}
	return &invoicedomain.PreviewResult{Invoice: invoice, Lines: lines}, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, msg string, id snowflake.ID, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.obsMetrics.IncPostFailure(err)

	log := ctxlogger.WithContext(ctx, s.log)
	if errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
		log.Info(msg, zap.String("invoice_id", id.String()), zap.Error(err))
		return
	}
	log.Warn(msg, zap.String("invoice_id", id.String()), zap.Error(err))
}
