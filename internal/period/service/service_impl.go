package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	perioddomain "github.com/smallbiznis/stockledger/internal/period/domain"
	"github.com/smallbiznis/stockledger/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	log *zap.Logger

	periodrepo     repository.Repository[perioddomain.Period]
	fiscalyearrepo repository.Repository[perioddomain.FiscalYear]
}

func NewService(p ServiceParam) perioddomain.Resolver {
	return &Service{
		log: p.Log.Named("period.service"),

		periodrepo:     repository.ProvideStore[perioddomain.Period](p.DB),
		fiscalyearrepo: repository.ProvideStore[perioddomain.FiscalYear](p.DB),
	}
}

// Find returns the period of companyID covering the calendar day of date,
// read in date's own location, with its fiscal year.
// Standard periods win over adjustment periods; ties go to the earliest start.
func (s *Service) Find(ctx context.Context, companyID snowflake.ID, date time.Time) (*perioddomain.Period, error) {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	periods, err := s.periodrepo.Find(ctx,
		&perioddomain.Period{CompanyID: companyID},
		repository.Where("start_date <= ? AND end_date >= ?", day, day),
		repository.OrderBy("start_date ASC, id ASC"),
	)
	if err != nil {
		return nil, err
	}

	period := pick(periods)
	if period == nil {
		return nil, fmt.Errorf("%w: company %s on %s", perioddomain.ErrPeriodNotFound, companyID, day.Format("2006-01-02"))
	}

	fiscalYear, err := s.fiscalyearrepo.FindOne(ctx, &perioddomain.FiscalYear{ID: period.FiscalYearID})
	if err != nil {
		return nil, err
	}
	if fiscalYear == nil {
		return nil, fmt.Errorf("%w: %s", perioddomain.ErrFiscalYearNotFound, period.FiscalYearID)
	}
	period.FiscalYear = fiscalYear

	s.log.Debug("resolved period",
		zap.String("company_id", companyID.String()),
		zap.String("period_id", period.ID.String()),
		zap.String("stock_method", string(fiscalYear.AccountStockMethod)),
	)
	return period, nil
}

func pick(periods []*perioddomain.Period) *perioddomain.Period {
	var adjustment *perioddomain.Period
	for _, period := range periods {
		if period.Type != perioddomain.PeriodTypeAdjustment {
			return period
		}
		if adjustment == nil {
			adjustment = period
		}
	}
	return adjustment
}
