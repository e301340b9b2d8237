package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/stockledger/internal/clock"
	"github.com/smallbiznis/stockledger/internal/currency/domain"
	"github.com/smallbiznis/stockledger/internal/currency/repository"
	"github.com/smallbiznis/stockledger/internal/txcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, domain.Converter, *domain.Currency, *domain.Currency) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Currency{}, &domain.Rate{}))

	usd := &domain.Currency{ID: snowflake.ID(1), Code: "USD", Name: "US Dollar", Rounding: decimal.RequireFromString("0.01")}
	eur := &domain.Currency{ID: snowflake.ID(2), Code: "EUR", Name: "Euro", Rounding: decimal.RequireFromString("0.01")}
	require.NoError(t, conn.Create(usd).Error)
	require.NoError(t, conn.Create(eur).Error)

	rates := []domain.Rate{
		{ID: 10, CurrencyID: usd.ID, Date: day(2024, 1, 1), Rate: decimal.NewFromInt(1)},
		{ID: 11, CurrencyID: eur.ID, Date: day(2024, 1, 1), Rate: decimal.RequireFromString("0.5")},
		{ID: 12, CurrencyID: eur.ID, Date: day(2024, 6, 1), Rate: decimal.RequireFromString("0.8")},
	}
	require.NoError(t, conn.Create(&rates).Error)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(day(2024, 7, 1)),
		Repo:  repository.Provide(),
	})
	return conn, svc, usd, eur
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeUsesScopedDate(t *testing.T) {
	_, svc, usd, eur := setup(t)

	ctx := txcontext.WithDate(context.Background(), day(2024, 3, 15))
	got, err := svc.Compute(ctx, eur, decimal.NewFromInt(10), usd, true)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(20)), "got %s", got)
}

func TestComputeFallsBackToClock(t *testing.T) {
	_, svc, usd, eur := setup(t)

	got, err := svc.Compute(context.Background(), eur, decimal.NewFromInt(10), usd, true)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("12.5")), "got %s", got)
}

func TestComputeSameCurrencyOnlyRounds(t *testing.T) {
	_, svc, usd, _ := setup(t)

	got, err := svc.Compute(context.Background(), usd, decimal.RequireFromString("1.239"), usd, true)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("1.24")))

	raw, err := svc.Compute(context.Background(), usd, decimal.RequireFromString("1.239"), usd, false)
	require.NoError(t, err)
	assert.True(t, raw.Equal(decimal.RequireFromString("1.239")))
}

func TestComputeMissingRate(t *testing.T) {
	_, svc, usd, eur := setup(t)

	ctx := txcontext.WithDate(context.Background(), day(2023, 12, 31))
	_, err := svc.Compute(ctx, eur, decimal.NewFromInt(1), usd, true)
	assert.True(t, errors.Is(err, domain.ErrRateNotFound))

	_, err = svc.Compute(ctx, nil, decimal.NewFromInt(1), usd, true)
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)
}
