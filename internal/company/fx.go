package company

import (
	"github.com/smallbiznis/stockledger/internal/company/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("company.repository",
	fx.Provide(repository.Provide),
)
