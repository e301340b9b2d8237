package anglosaxon

import (
	"github.com/smallbiznis/stockledger/internal/invoice"
	"go.uber.org/fx"
)

// Module provides invoice posting with the base line translator decorated.
// Decorations only reach the module's own scope, so invoice.Module is nested
// here instead of being included next to it.
var Module = fx.Module("anglosaxon",
	invoice.Module,
	fx.Decorate(Decorate),
)
