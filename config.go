package coalesce

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/coalesce/signature"
)

// EnvPrefix is the prefix of every environment variable read by LoadConfigEnv.
const EnvPrefix = "COALESCE_"

// SignatureConfig controls how channel signatures are derived from arguments.
type SignatureConfig struct {
	// Encoding selects the argument encoder: "json" (readable) or "cbor"
	// (deterministic CBOR, hex encoded).
	//
	// Default: "json"
	Encoding string `yaml:"encoding" env:"ENCODING"`

	// Compact replaces the encoded arguments with a 128-bit xxh3 digest.
	// Keeps signatures short in logs and metric labels at the cost of readability.
	Compact bool `yaml:"compact" env:"COMPACT"`
}

// Config is the configuration for the Manager.
//
// All duration fields accept standard Go duration strings like "500ms", "30s", "5m".
type Config struct {
	// MinInterval is the floor applied to requested refresh intervals.
	// Positive intervals below it are raised to MinInterval so a single consumer
	// cannot turn a channel into a busy loop.
	//
	// Default: 100ms
	MinInterval time.Duration `yaml:"minInterval" env:"MIN_INTERVAL"`

	// OperationTimeout bounds each operation call through its context.
	// Zero means no timeout; operations then only stop when the Manager is closed.
	OperationTimeout time.Duration `yaml:"operationTimeout" env:"OPERATION_TIMEOUT"`

	// EventBufferSize is the capacity of the observability sink queue.
	// Notifications are dropped when the queue is full.
	//
	// Default: 256
	EventBufferSize int `yaml:"eventBufferSize" env:"EVENT_BUFFER_SIZE"`

	// Signature controls channel signature generation.
	Signature SignatureConfig `yaml:"signature" envPrefix:"SIGNATURE_"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		MinInterval:      100 * time.Millisecond,
		OperationTimeout: 0, // No timeout - operations own their deadlines
		EventBufferSize:  256,
		Signature: SignatureConfig{
			Encoding: string(signature.EncodingJSON),
			Compact:  false,
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.MinInterval == 0 {
		cfg.MinInterval = defaults.MinInterval
	}
	if cfg.EventBufferSize == 0 {
		cfg.EventBufferSize = defaults.EventBufferSize
	}
	if cfg.Signature.Encoding == "" {
		cfg.Signature.Encoding = defaults.Signature.Encoding
	}
	// Note: OperationTimeout of 0 is valid (no timeout), so we don't apply default
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - MinInterval > 0
//   - OperationTimeout >= 0
//   - EventBufferSize >= 1
//   - Signature.Encoding is a known encoding
//
// Returns:
//   - error: Validation error with clear explanation, nil if valid
func (cfg *Config) Validate() error {
	if cfg.MinInterval <= 0 {
		return fmt.Errorf("MinInterval must be > 0, got %v", cfg.MinInterval)
	}

	if cfg.OperationTimeout < 0 {
		return fmt.Errorf("OperationTimeout must be >= 0, got %v", cfg.OperationTimeout)
	}

	if cfg.EventBufferSize < 1 {
		return fmt.Errorf("EventBufferSize must be >= 1, got %d", cfg.EventBufferSize)
	}

	if _, err := signature.ParseEncoding(cfg.Signature.Encoding); err != nil {
		return err
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for non-recommended values.
//
// This is called after Validate() in NewManager() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.MinInterval < 10*time.Millisecond {
		logger.Warn(
			"MinInterval is very short, fast subscribers may hammer the backend",
			"minInterval", cfg.MinInterval,
			"recommended", "100ms or higher",
		)
	}

	if cfg.EventBufferSize < 16 {
		logger.Warn(
			"EventBufferSize is small, sink notifications will be dropped under load",
			"eventBufferSize", cfg.EventBufferSize,
			"recommended", 256,
		)
	}
}

// LoadConfigYAML reads a YAML configuration file on top of DefaultConfig.
//
// Fields missing from the file keep their default values.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Config: Parsed configuration
//   - error: Read or parse error
func LoadConfigYAML(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadConfigEnv reads configuration from COALESCE_* environment variables on top of DefaultConfig.
//
// Recognized variables:
//   - COALESCE_MIN_INTERVAL
//   - COALESCE_OPERATION_TIMEOUT
//   - COALESCE_EVENT_BUFFER_SIZE
//   - COALESCE_SIGNATURE_ENCODING
//   - COALESCE_SIGNATURE_COMPACT
//
// Returns:
//   - Config: Parsed configuration
//   - error: Parse error for malformed values
func LoadConfigEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Returns:
//   - Config: Configuration with a tiny interval floor and a large event queue
//
// Example:
//
//	cfg := coalesce.TestConfig()
//	mgr, err := coalesce.NewManager(&cfg)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.MinInterval = 10 * time.Millisecond
	cfg.EventBufferSize = 1024

	return cfg
}
