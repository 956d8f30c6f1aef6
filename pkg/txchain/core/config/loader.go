package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jmens/txchain/pkg/txchain/support/util/logger"
)

var isolationLevels = map[string]struct{}{
	"":                 {},
	"READ_UNCOMMITTED": {},
	"READ_COMMITTED":   {},
	"WRITE_COMMITTED":  {},
	"REPEATABLE_READ":  {},
	"SERIALIZABLE":     {},
}

// LoadConfig builds the configuration in four layers, each overriding the previous one:
// defaults from NewConfig, the embedded YAML, an optional .env file, and TXCHAIN_* variables.
//
// A missing .env file is not an error. The embedded YAML may be empty.
//
// Parameters:
//
//	envFilePath: Path of the .env file to load; empty skips the layer.
//	embeddedConfig: The YAML bytes compiled into the binary.
//
// Returns:
//
//	The validated configuration, or an error if a layer cannot be parsed or validation fails.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Debugf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	}

	cfg := NewConfig()

	if len(embeddedConfig) > 0 {
		if err := yaml.Unmarshal(embeddedConfig, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedded config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment variables: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that defaults cannot guarantee.
func Validate(cfg *Config) error {
	p := cfg.Txchain.Pipeline
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("pipeline.name must not be empty")
	}
	if strings.TrimSpace(p.CompletionAddress) == "" {
		return fmt.Errorf("pipeline.completion_address must not be empty")
	}
	if _, ok := isolationLevels[strings.ToUpper(p.IsolationLevel)]; !ok {
		return fmt.Errorf("unknown pipeline.isolation_level '%s'", p.IsolationLevel)
	}
	ref := cfg.Txchain.Infrastructure.DBRef
	if _, ok := cfg.Txchain.Database[ref]; !ok {
		return fmt.Errorf("database configuration '%s' referenced by infrastructure.db_ref not found", ref)
	}
	return nil
}
