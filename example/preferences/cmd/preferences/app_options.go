package main

import (
	"context"

	"go.uber.org/fx"

	app "github.com/jmens/txchain/example/preferences/internal/app"
	gormadapter "github.com/jmens/txchain/pkg/txchain/adapter/database/gorm"
	_ "github.com/jmens/txchain/pkg/txchain/adapter/database/gorm/mysql"
	_ "github.com/jmens/txchain/pkg/txchain/adapter/database/gorm/postgres"
	_ "github.com/jmens/txchain/pkg/txchain/adapter/database/gorm/sqlite"
	diagnostics "github.com/jmens/txchain/pkg/txchain/component/diagnostics"
	config "github.com/jmens/txchain/pkg/txchain/core/config"
	metrics "github.com/jmens/txchain/pkg/txchain/infrastructure/metrics"
	listener "github.com/jmens/txchain/pkg/txchain/listener"
	logger "github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// GetApplicationOptions builds the fx options of the preferences application.
func GetApplicationOptions(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig) []fx.Option {
	var options []fx.Option

	options = append(options, fx.Supply(
		embeddedConfig,
		fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
		fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
	))
	options = append(options, logger.Module)
	options = append(options, config.Module)
	options = append(options, gormadapter.Module)
	options = append(options, listener.Module)
	options = append(options, metrics.Module)
	options = append(options, diagnostics.Module)
	options = append(options, app.Module)
	options = append(options, fx.Invoke(fx.Annotate(startPipeline, fx.ParamTags("", "", "", "", `name:"appCtx"`))))

	return options
}
