package config

import (
	"go.uber.org/fx"

	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

// Params defines the dependencies of NewConfigProvider.
type Params struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string `name:"envFilePath" optional:"true"`
}

// NewConfigProvider loads *Config and applies its log level.
func NewConfigProvider(p Params) (*Config, error) {
	cfg, err := LoadConfig(p.EnvFilePath, p.EmbeddedConfig)
	if err != nil {
		return nil, err
	}
	logger.SetLogLevel(cfg.Txchain.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.Txchain.System.Logging.Level)
	return cfg, nil
}

// Module provides *Config from the supplied EmbeddedConfig.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
)
