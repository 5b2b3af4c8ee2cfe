package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Lifecycle LifecycleConfig `yaml:"lifecycle" mapstructure:"lifecycle"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Docgen    DocgenConfig    `yaml:"docgen" mapstructure:"docgen"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds extraction backend settings.
type AnthropicConfig struct {
	Key              string  `yaml:"key" mapstructure:"key"`
	Model            string  `yaml:"model" mapstructure:"model"`
	MaxTokens        int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature      float64 `yaml:"temperature" mapstructure:"temperature"`
	UseBatch         bool    `yaml:"use_batch" mapstructure:"use_batch"`
	PollTimeoutSecs  int     `yaml:"poll_timeout_secs" mapstructure:"poll_timeout_secs"`
	MaxRetryAttempts int     `yaml:"max_retry_attempts" mapstructure:"max_retry_attempts"`
}

// IngestConfig configures document intake.
type IngestConfig struct {
	UserAgent        string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	MaxDocumentBytes int64   `yaml:"max_document_bytes" mapstructure:"max_document_bytes"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst            int     `yaml:"burst" mapstructure:"burst"`
}

// LifecycleConfig resolves the state machine's policy knobs.
type LifecycleConfig struct {
	AllowUnknownStatus    bool `yaml:"allow_unknown_status" mapstructure:"allow_unknown_status"`
	AllowTerminalOverride bool `yaml:"allow_terminal_override" mapstructure:"allow_terminal_override"`
}

// NotifyConfig configures outbound email.
type NotifyConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	From     string `yaml:"from" mapstructure:"from"`
}

// DocgenConfig configures insertion-order document output.
type DocgenConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// BatchConfig configures bulk intake.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.path", "intake.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.temperature", 0.1)
	v.SetDefault("anthropic.use_batch", false)
	v.SetDefault("anthropic.poll_timeout_secs", 600)
	v.SetDefault("anthropic.max_retry_attempts", 3)
	v.SetDefault("ingest.user_agent", "intake-cli/1.0")
	v.SetDefault("ingest.timeout_secs", 30)
	v.SetDefault("ingest.max_retries", 3)
	v.SetDefault("ingest.max_document_bytes", 25<<20)
	v.SetDefault("ingest.rate_limit", 5)
	v.SetDefault("ingest.burst", 5)
	v.SetDefault("lifecycle.allow_unknown_status", false)
	v.SetDefault("lifecycle.allow_terminal_override", false)
	v.SetDefault("notify.port", 587)
	v.SetDefault("docgen.output_dir", "pdfs")
	v.SetDefault("batch.max_concurrent", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode actually needs. Modes:
// "intake" (pipeline commands), "store" (store-only commands), "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	storeOK := func() {
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for the postgres driver")
			}
		case "sqlite":
			if c.Store.Path == "" {
				problems = append(problems, "store.path is required for the sqlite driver")
			}
		default:
			problems = append(problems, "store.driver must be postgres or sqlite")
		}
	}

	switch mode {
	case "intake":
		storeOK()
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 32 {
			problems = append(problems, "batch.max_concurrent must be between 1 and 32")
		}
	case "store":
		storeOK()
	case "serve":
		storeOK()
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
