package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// StockMethod is the stock accounting method a fiscal year posts with.
type StockMethod string

const (
	StockMethodContinental StockMethod = "continental"
	StockMethodAngloSaxon  StockMethod = "anglo_saxon"
)

// FiscalYear groups the periods of a company accounting year.
type FiscalYear struct {
	ID                 snowflake.ID `gorm:"primaryKey"`
	CompanyID          snowflake.ID `gorm:"not null;index"`
	Name               string       `gorm:"type:text;not null"`
	StartDate          time.Time    `gorm:"not null"`
	EndDate            time.Time    `gorm:"not null"`
	AccountStockMethod StockMethod  `gorm:"type:text;not null;default:'continental'"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (FiscalYear) TableName() string { return "fiscal_years" }

type PeriodType string

const (
	PeriodTypeStandard   PeriodType = "standard"
	PeriodTypeAdjustment PeriodType = "adjustment"
)

// Period covers [StartDate, EndDate] inclusive, by day.
type Period struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	CompanyID    snowflake.ID `gorm:"not null;index:ix_periods_company_dates,priority:1"`
	FiscalYearID snowflake.ID `gorm:"not null;index"`
	Name         string       `gorm:"type:text;not null"`
	Type         PeriodType   `gorm:"type:text;not null;default:'standard'"`
	StartDate    time.Time    `gorm:"not null;index:ix_periods_company_dates,priority:2"`
	EndDate      time.Time    `gorm:"not null;index:ix_periods_company_dates,priority:3"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`

	FiscalYear *FiscalYear `gorm:"-"`
}

// TableName sets the database table name.
func (Period) TableName() string { return "periods" }

// StockMethod returns the fiscal year method, continental when unknown.
func (p *Period) StockMethod() StockMethod {
	if p == nil || p.FiscalYear == nil || p.FiscalYear.AccountStockMethod == "" {
		return StockMethodContinental
	}
	return p.FiscalYear.AccountStockMethod
}

func (p *Period) IsAngloSaxon() bool {
	return p.StockMethod() == StockMethodAngloSaxon
}

// Resolver finds the period a company posts into on a date.
type Resolver interface {
	Find(ctx context.Context, companyID snowflake.ID, date time.Time) (*Period, error)
}

var (
	ErrPeriodNotFound     = errors.New("period_not_found")
	ErrFiscalYearNotFound = errors.New("fiscal_year_not_found")
)
