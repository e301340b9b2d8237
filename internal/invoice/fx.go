package invoice

import (
	"github.com/smallbiznis/stockledger/internal/invoice/repository"
	"github.com/smallbiznis/stockledger/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewBaseTranslator),
	fx.Provide(service.NewService),
)
