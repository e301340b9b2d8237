package period

import (
	"github.com/smallbiznis/stockledger/internal/period/service"
	"go.uber.org/fx"
)

var Module = fx.Module("period.service",
	fx.Provide(service.NewService),
)
