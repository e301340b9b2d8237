package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idPtr(v int64) *snowflake.ID {
	id := snowflake.ID(v)
	return &id
}

func TestStockAccountIDFallsBackToCategory(t *testing.T) {
	p := &Product{
		Code:                   "WIDGET",
		AccountStockSupplierID: idPtr(11),
		Category: &Category{
			AccountStockSupplierID: idPtr(21),
			AccountStockCustomerID: idPtr(22),
			AccountCOGSID:          idPtr(23),
		},
	}

	supplier, err := p.StockAccountID(StockAccountSupplier)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(11), supplier)

	customer, err := p.StockAccountID(StockAccountCustomer)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(22), customer)

	cogs, err := p.COGSAccountID()
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(23), cogs)
}

func TestStockAccountIDMissing(t *testing.T) {
	p := &Product{Code: "BARE"}

	_, err := p.StockAccountID(StockAccountCustomer)
	assert.ErrorIs(t, err, ErrMissingAccount)

	_, err = p.COGSAccountID()
	assert.ErrorIs(t, err, ErrMissingAccount)

	_, err = p.StockAccountID(StockAccountKind("lost"))
	assert.ErrorIs(t, err, ErrInvalidAccountKind)
}

func TestIsGoods(t *testing.T) {
	assert.True(t, (&Product{Type: ProductTypeGoods}).IsGoods())
	assert.False(t, (&Product{Type: ProductTypeService}).IsGoods())
	assert.False(t, (*Product)(nil).IsGoods())
}

func TestComputeQuantityAndPrice(t *testing.T) {
	unit := &Unit{ID: 1, Symbol: "u", Category: "unit", Factor: decimal.NewFromInt(1)}
	dozen := &Unit{ID: 2, Symbol: "dz", Category: "unit", Factor: decimal.NewFromInt(12)}
	kg := &Unit{ID: 3, Symbol: "kg", Category: "weight", Factor: decimal.NewFromInt(1)}

	qty, err := ComputeQuantity(dozen, decimal.NewFromInt(2), unit)
	require.NoError(t, err)
	assert.True(t, qty.Equal(decimal.NewFromInt(24)))

	price, err := ComputePrice(dozen, decimal.NewFromInt(24), unit)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(2)))

	same, err := ComputeQuantity(nil, decimal.NewFromInt(5), unit)
	require.NoError(t, err)
	assert.True(t, same.Equal(decimal.NewFromInt(5)))

	_, err = ComputeQuantity(unit, decimal.NewFromInt(1), kg)
	assert.ErrorIs(t, err, ErrUnitCategoryMismatch)

	_, err = ComputePrice(&Unit{ID: 4, Category: "unit"}, decimal.NewFromInt(1), unit)
	assert.ErrorIs(t, err, ErrInvalidUnit)
}
