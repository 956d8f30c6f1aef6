// Package config provides the application configuration and its loader.
package config

// EmbeddedConfig holds the content of the YAML configuration compiled into the binary.
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelSilent LogLevel = "SILENT"
)

// DefaultCompletionAddress is the address the terminal message is published on.
const DefaultCompletionAddress = "mainverticle"

// PipelineConfig holds settings of the transactional pipeline run.
type PipelineConfig struct {
	// Name identifies the pipeline in logs, metrics and traces.
	Name string `yaml:"name" env:"NAME"`
	// ForceDBError makes the fault-injection step insert a malformed row.
	ForceDBError bool `yaml:"force_db_error" env:"FORCE_DB_ERROR"`
	// CompletionAddress is the named channel receiving "Success" or "Error".
	CompletionAddress string `yaml:"completion_address" env:"COMPLETION_ADDRESS"`
	// DumpAfterRollback runs the table dump as an inspection after a successful rollback.
	DumpAfterRollback bool `yaml:"dump_after_rollback" env:"DUMP_AFTER_ROLLBACK"`
	// IsolationLevel is the transaction isolation level (e.g. "SERIALIZABLE"); empty uses the driver default.
	IsolationLevel string `yaml:"isolation_level" env:"ISOLATION_LEVEL"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g. "INFO", "DEBUG").
	Level string `yaml:"level" env:"LEVEL"`
	// SQLLevel is the GORM logging level ("SILENT", "ERROR", "WARN", "INFO").
	SQLLevel string `yaml:"sql_level" env:"SQL_LEVEL"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
}

// InfrastructureConfig names the connections used by infrastructure components.
type InfrastructureConfig struct {
	// DBRef is the key in Database used by the connection provider.
	DBRef string `yaml:"db_ref" env:"DB_REF"`
}

// DiagnosticsConfig holds settings for the diagnostics sinks.
type DiagnosticsConfig struct {
	// ParquetPath, when set, receives the final joined rows as a parquet file.
	ParquetPath string `yaml:"parquet_path" env:"PARQUET_PATH"`
}

// TelemetryConfig holds tracing settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the URL of an OTLP/HTTP collector (e.g. http://localhost:4318); empty disables export.
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// TxchainConfig holds all configuration under the "txchain" top-level key.
type TxchainConfig struct {
	Pipeline       PipelineConfig       `yaml:"pipeline" envPrefix:"PIPELINE_"`
	System         SystemConfig         `yaml:"system"`
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	Diagnostics    DiagnosticsConfig    `yaml:"diagnostics" envPrefix:"DIAGNOSTICS_"`
	Telemetry      TelemetryConfig      `yaml:"telemetry" envPrefix:"TELEMETRY_"`
	// Database holds named raw database configurations, decoded on demand by the provider.
	Database map[string]interface{} `yaml:"database"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Txchain TxchainConfig `yaml:"txchain" envPrefix:"TXCHAIN_"`
}

// NewConfig returns a Config populated with defaults.
// The default database is a private in-memory SQLite database, so every run starts on an
// empty schema.
func NewConfig() *Config {
	return &Config{
		Txchain: TxchainConfig{
			Pipeline: PipelineConfig{
				Name:              "preferences",
				CompletionAddress: DefaultCompletionAddress,
				DumpAfterRollback: true,
			},
			System: SystemConfig{
				Logging: LoggingConfig{Level: string(LogLevelInfo), SQLLevel: string(LogLevelSilent)},
			},
			Infrastructure: InfrastructureConfig{DBRef: "default"},
			Telemetry:      TelemetryConfig{ServiceName: "txchain"},
			Database: map[string]interface{}{
				"default": map[string]interface{}{
					"type":     "sqlite",
					"database": ":memory:",
					"pool": map[string]interface{}{
						"max_open_conns": 1,
						"max_idle_conns": 1,
					},
				},
			},
		},
	}
}
