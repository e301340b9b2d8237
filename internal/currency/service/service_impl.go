package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/stockledger/internal/clock"
	"github.com/smallbiznis/stockledger/internal/currency/domain"
	"github.com/smallbiznis/stockledger/internal/txcontext"
	"github.com/smallbiznis/stockledger/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Converter {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("currency.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// Compute converts amount from one currency to another using the rates
// effective at the date scoped on ctx, or today when none is scoped.
func (s *Service) Compute(ctx context.Context, from *domain.Currency, amount decimal.Decimal, to *domain.Currency, round bool) (decimal.Decimal, error) {
	if from == nil || to == nil {
		return decimal.Zero, domain.ErrInvalidCurrency
	}
	if from.ID == to.ID {
		if round {
			return to.Round(amount), nil
		}
		return amount, nil
	}

	date := txcontext.DateOr(ctx, s.clock.Now())
	conn := db.Conn(ctx, s.db)

	fromRate, err := s.repo.FindRate(ctx, conn, from.ID, date)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := s.repo.FindRate(ctx, conn, to.ID, date)
	if err != nil {
		return decimal.Zero, err
	}
	if fromRate == nil || !fromRate.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s on %s", domain.ErrRateNotFound, from.Code, date.Format("2006-01-02"))
	}
	if toRate == nil || !toRate.Rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s on %s", domain.ErrRateNotFound, to.Code, date.Format("2006-01-02"))
	}

	converted := amount.Mul(toRate.Rate).Div(fromRate.Rate)
	if round {
		converted = to.Round(converted)
	}
	s.log.Debug("converted amount",
		zap.String("from", from.Code),
		zap.String("to", to.Code),
		zap.String("date", date.Format("2006-01-02")),
		zap.String("amount", amount.String()),
		zap.String("converted", converted.String()),
	)
	return converted, nil
}
