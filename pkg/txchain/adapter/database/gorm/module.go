package gorm

import (
	"go.uber.org/fx"

	"github.com/jmens/txchain/pkg/txchain/core/tx"
)

// Module provides the GORM connection provider as tx.ConnectionProvider.
// Dialects register themselves; import the dialect packages that should be available.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewProvider,
		fx.As(new(tx.ConnectionProvider)),
	)),
)
