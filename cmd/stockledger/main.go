package main

import (
	"github.com/smallbiznis/stockledger/internal/app"
	"github.com/smallbiznis/stockledger/internal/migration"
	"github.com/smallbiznis/stockledger/internal/server"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		app.Infrastructure,
		migration.Module,
		app.Domain,
		server.Module,
	).Run()
}
