package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/simsketch/pkg/alg/minhash"
	"github.com/Sumatoshi-tech/simsketch/pkg/config"
	"github.com/Sumatoshi-tech/simsketch/pkg/observability"
	"github.com/Sumatoshi-tech/simsketch/pkg/version"
)

// sketchFlags are the flags shared by every command that builds signatures.
type sketchFlags struct {
	configPath  string
	shingleSize int
	hashCount   int
	seed        uint64
	workers     int
	verbose     bool
}

func (f *sketchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (default: .simsketch.yaml in the working or home directory)")
	cmd.Flags().IntVarP(&f.shingleSize, "shingle-size", "k", config.DefaultShingleSize, "Tokens per shingle")
	cmd.Flags().IntVarP(&f.hashCount, "hash-count", "n", config.DefaultHashCount, "Number of hash functions (signature length)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Derive hash seeds from this value (0 = configured seeds or random)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Parallel sketching workers (0 = CPU count)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Debug logging to stderr")
}

// load reads the config file and environment, then applies explicitly set flags.
func (f *sketchFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("shingle-size") {
		cfg.Sketch.ShingleSize = f.shingleSize
	}

	if flags.Changed("hash-count") {
		cfg.Sketch.HashCount = f.hashCount
		// Explicit seeds of another length would no longer match.
		if len(cfg.Sketch.Seeds) != f.hashCount {
			cfg.Sketch.Seeds = nil
		}
	}

	if flags.Changed("seed") {
		cfg.Sketch.Seed = f.seed
		cfg.Sketch.Seeds = nil
	}

	if flags.Changed("workers") {
		cfg.Input.Workers = f.workers
	}

	if f.verbose {
		cfg.Logging.Level = "debug"
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// telemetry bundles the providers and instruments every command uses.
type telemetry struct {
	providers observability.Providers
	red       *observability.REDMetrics
	sketch    *observability.SketchMetrics
}

func (t telemetry) logger() *slog.Logger {
	return t.providers.Logger
}

func (t telemetry) shutdown(cmd *cobra.Command) {
	err := t.providers.Shutdown(cmd.Context())
	if err != nil {
		t.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

func initTelemetry(cfg *config.Config, mode observability.AppMode, prometheus bool) (telemetry, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return telemetry{}, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Telemetry.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.LogJSON() || mode == observability.ModeMCP
	obsCfg.DebugTrace = level <= slog.LevelDebug
	obsCfg.Prometheus = prometheus

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return telemetry{}, fmt.Errorf("init observability: %w", err)
	}

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return telemetry{}, err
	}

	sketch, err := observability.NewSketchMetrics(providers.Meter)
	if err != nil {
		return telemetry{}, err
	}

	return telemetry{providers: providers, red: red, sketch: sketch}, nil
}

// newHasher builds the hasher and logs its parameters.
func newHasher(cfg *config.Config, logger *slog.Logger) (*minhash.Hasher, error) {
	h, err := cfg.NewHasher()
	if err != nil {
		return nil, err
	}

	if len(cfg.Sketch.Seeds) == 0 && cfg.Sketch.Seed == 0 {
		logger.Debug("using random hash seeds; pass --seed for reproducible signatures")
	}

	logger.Debug("hasher ready", "shingle_size", h.ShingleSize(), "hash_count", h.HashCount())

	return h, nil
}
