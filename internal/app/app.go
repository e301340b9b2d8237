package app

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stockledger/internal/anglosaxon"
	"github.com/smallbiznis/stockledger/internal/clock"
	"github.com/smallbiznis/stockledger/internal/company"
	"github.com/smallbiznis/stockledger/internal/config"
	"github.com/smallbiznis/stockledger/internal/currency"
	"github.com/smallbiznis/stockledger/internal/ledger"
	"github.com/smallbiznis/stockledger/internal/logger"
	"github.com/smallbiznis/stockledger/internal/observability"
	"github.com/smallbiznis/stockledger/internal/period"
	"github.com/smallbiznis/stockledger/internal/product"
	"github.com/smallbiznis/stockledger/internal/stock"
	"github.com/smallbiznis/stockledger/internal/warning"
	"github.com/smallbiznis/stockledger/pkg/db"
	"go.uber.org/fx"
)

// Infrastructure wires config, logging, telemetry, the database and ids.
var Infrastructure = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	fx.Provide(NewSnowflakeNode),
	db.Module,
	clock.Module,
)

// Domain wires every service needed to post invoices. The invoice module is
// nested in anglosaxon so the translator decorator applies to it.
var Domain = fx.Options(
	company.Module,
	currency.Module,
	product.Module,
	stock.Module,
	period.Module,
	ledger.Module,
	warning.Module,
	anglosaxon.Module,
)

func NewSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
