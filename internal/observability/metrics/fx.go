package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/stockledger/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("observability.metrics",
	fx.Provide(func(cfg config.Config) *Metrics {
		return New(Config{ServiceName: cfg.AppName, Environment: cfg.Environment}, prometheus.DefaultRegisterer)
	}),
)
