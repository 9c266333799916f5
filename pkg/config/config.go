// Package config provides configuration loading and validation for simsketch.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/hashfamily"
	"github.com/Sumatoshi-tech/simsketch/pkg/alg/minhash"
)

// Sentinel validation errors.
var (
	ErrInvalidShingleSize  = errors.New("shingle size must be at least 1")
	ErrInvalidHashCount    = errors.New("hash count must be at least 1")
	ErrSeedCountMismatch   = errors.New("number of seeds must equal hash count")
	ErrInvalidDocumentSize = errors.New("invalid max document size")
	ErrInvalidPort         = errors.New("invalid server port")
	ErrInvalidLogFormat    = errors.New("log format must be json or text")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrInvalidSampleRatio  = errors.New("sample ratio must be between 0 and 1")
)

const (
	// configName is the config file name without extension.
	configName = ".simsketch"

	// configType is the config file format.
	configType = "yaml"

	// envPrefix is the environment variable prefix for simsketch settings.
	envPrefix = "SIMSKETCH"

	maxPort = 65535

	logFormatJSON = "json"
	logFormatText = "text"
)

// Config holds all configuration for simsketch.
type Config struct {
	Sketch    SketchConfig    `mapstructure:"sketch"`
	Input     InputConfig     `mapstructure:"input"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// SketchConfig holds the MinHash parameters. Signatures are comparable only
// when both sides use the same shingle size and seeds, so production setups
// should pin either Seed or Seeds.
type SketchConfig struct {
	// Seeds lists one seed per hash function. Takes precedence over Seed.
	Seeds []uint32 `mapstructure:"seeds"`

	// Seed derives HashCount seeds deterministically. Zero means random.
	Seed        uint64 `mapstructure:"seed"`
	ShingleSize int    `mapstructure:"shingle_size"`
	HashCount   int    `mapstructure:"hash_count"`
}

// InputConfig controls which documents are read.
type InputConfig struct {
	MaxDocumentSize string `mapstructure:"max_document_size"`
	Workers         int    `mapstructure:"workers"`
	SkipVendor      bool   `mapstructure:"skip_vendor"`
	SkipDotFiles    bool   `mapstructure:"skip_dotfiles"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	Port         int           `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	Environment  string  `mapstructure:"environment"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when no file or env is present.
func Default() *Config {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	var config Config

	// Defaults always decode.
	_ = viperCfg.Unmarshal(&config)

	return &config
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("sketch.shingle_size", DefaultShingleSize)
	viperCfg.SetDefault("sketch.hash_count", DefaultHashCount)
	viperCfg.SetDefault("sketch.seed", DefaultSeed)
	viperCfg.SetDefault("sketch.seeds", []uint32{})

	viperCfg.SetDefault("input.max_document_size", DefaultMaxDocumentSize)
	viperCfg.SetDefault("input.workers", DefaultWorkers)
	viperCfg.SetDefault("input.skip_vendor", DefaultSkipVendor)
	viperCfg.SetDefault("input.skip_dotfiles", DefaultSkipDotFiles)

	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	viperCfg.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	viperCfg.SetDefault("server.idle_timeout", DefaultServerIdleTimeout)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.environment", DefaultEnvironment)
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if c.Sketch.ShingleSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidShingleSize, c.Sketch.ShingleSize)
	}

	if c.Sketch.HashCount < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidHashCount, c.Sketch.HashCount)
	}

	if len(c.Sketch.Seeds) > 0 && len(c.Sketch.Seeds) != c.Sketch.HashCount {
		return fmt.Errorf("%w: %d seeds, hash count %d", ErrSeedCountMismatch, len(c.Sketch.Seeds), c.Sketch.HashCount)
	}

	_, sizeErr := c.MaxDocumentBytes()
	if sizeErr != nil {
		return sizeErr
	}

	if c.Server.Port <= 0 || c.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Logging.Format != logFormatJSON && c.Logging.Format != logFormatText {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	_, levelErr := c.LogLevel()
	if levelErr != nil {
		return levelErr
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// MaxDocumentBytes parses the humanized max document size (e.g. "1MB", "512KiB").
func (c *Config) MaxDocumentBytes() (int64, error) {
	size, err := humanize.ParseBytes(c.Input.MaxDocumentSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidDocumentSize, c.Input.MaxDocumentSize, err)
	}

	if size == 0 || size > uint64(1<<62) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDocumentSize, c.Input.MaxDocumentSize)
	}

	return int64(size), nil
}

// LogLevel parses the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Logging.Level))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return level, nil
}

// LogJSON reports whether logs are written as JSON.
func (c *Config) LogJSON() bool {
	return c.Logging.Format == logFormatJSON
}

// Family builds the configured hash family: explicit seeds first, then a
// derived family when a base seed is set, otherwise a random one.
func (c *Config) Family() (hashfamily.Family, error) {
	switch {
	case len(c.Sketch.Seeds) > 0:
		return hashfamily.FromSeeds(c.Sketch.Seeds)
	case c.Sketch.Seed != 0:
		return hashfamily.Derive(c.Sketch.HashCount, c.Sketch.Seed)
	default:
		return hashfamily.Random(c.Sketch.HashCount)
	}
}

// NewHasher builds a MinHash hasher from the sketch section.
func (c *Config) NewHasher() (*minhash.Hasher, error) {
	if c.Sketch.HashCount < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHashCount, c.Sketch.HashCount)
	}

	fam, err := c.Family()
	if err != nil {
		return nil, fmt.Errorf("build hash family: %w", err)
	}

	return minhash.NewWithFamily(c.Sketch.ShingleSize, fam)
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
