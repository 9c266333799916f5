package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/simsketch/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "simsketch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultShingleSize, cfg.Sketch.ShingleSize)
	assert.Equal(t, config.DefaultHashCount, cfg.Sketch.HashCount)
	assert.Equal(t, uint64(0), cfg.Sketch.Seed)
	assert.Empty(t, cfg.Sketch.Seeds)
	assert.Equal(t, "1MB", cfg.Input.MaxDocumentSize)
	assert.True(t, cfg.Input.SkipVendor)
	assert.True(t, cfg.Input.SkipDotFiles)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, time.Minute, cfg.Server.IdleTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.LogJSON())
}

func TestDefault_MatchesLoadedDefaults(t *testing.T) {
	t.Parallel()

	loaded, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, loaded, config.Default())
	require.NoError(t, config.Default().Validate())
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
sketch:
  shingle_size: 5
  hash_count: 4
  seeds: [11, 22, 33, 44]

input:
  max_document_size: "512KiB"
  skip_vendor: false

server:
  host: "0.0.0.0"
  port: 9000
  read_timeout: "15s"

logging:
  level: debug
  format: json
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Sketch.ShingleSize)
	assert.Equal(t, 4, cfg.Sketch.HashCount)
	assert.Equal(t, []uint32{11, 22, 33, 44}, cfg.Sketch.Seeds)
	assert.False(t, cfg.Input.SkipVendor)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.LogJSON())

	size, err := cfg.MaxDocumentBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(512*1024), size)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("SIMSKETCH_SKETCH_SHINGLE_SIZE", "2")
	t.Setenv("SIMSKETCH_SKETCH_HASH_COUNT", "64")
	t.Setenv("SIMSKETCH_SKETCH_SEED", "42")
	t.Setenv("SIMSKETCH_SERVER_PORT", "9090")

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Sketch.ShingleSize)
	assert.Equal(t, 64, cfg.Sketch.HashCount)
	assert.Equal(t, uint64(42), cfg.Sketch.Seed)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfig_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "zero shingle size", content: "sketch:\n  shingle_size: 0\n", wantErr: config.ErrInvalidShingleSize},
		{name: "zero hash count", content: "sketch:\n  hash_count: 0\n", wantErr: config.ErrInvalidHashCount},
		{name: "seed count mismatch", content: "sketch:\n  hash_count: 3\n  seeds: [1, 2]\n", wantErr: config.ErrSeedCountMismatch},
		{name: "bad document size", content: "input:\n  max_document_size: lots\n", wantErr: config.ErrInvalidDocumentSize},
		{name: "zero document size", content: "input:\n  max_document_size: 0B\n", wantErr: config.ErrInvalidDocumentSize},
		{name: "bad port", content: "server:\n  port: 70000\n", wantErr: config.ErrInvalidPort},
		{name: "bad log format", content: "logging:\n  format: xml\n", wantErr: config.ErrInvalidLogFormat},
		{name: "bad log level", content: "logging:\n  level: loud\n", wantErr: config.ErrInvalidLogLevel},
		{name: "bad sample ratio", content: "telemetry:\n  sample_ratio: 2\n", wantErr: config.ErrInvalidSampleRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.LoadConfig(writeConfig(t, tt.content))

			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "sketch: [unterminated"))

	require.Error(t, err)
}

func TestNewHasher_ExplicitSeeds(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Sketch.HashCount = 3
	cfg.Sketch.Seeds = []uint32{7, 8, 9}

	h, err := cfg.NewHasher()

	require.NoError(t, err)
	assert.Equal(t, []uint32{7, 8, 9}, h.Family().Seeds())
	assert.Equal(t, config.DefaultShingleSize, h.ShingleSize())
}

func TestNewHasher_DerivedSeedIsReproducible(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Sketch.Seed = 1234

	a, err := cfg.NewHasher()
	require.NoError(t, err)

	b, err := cfg.NewHasher()
	require.NoError(t, err)

	assert.True(t, a.Family().Equal(b.Family()))
	assert.Equal(t, config.DefaultHashCount, a.HashCount())
}

func TestNewHasher_RandomWhenUnseeded(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Sketch.HashCount = 64

	a, err := cfg.NewHasher()
	require.NoError(t, err)

	b, err := cfg.NewHasher()
	require.NoError(t, err)

	assert.False(t, a.Family().Equal(b.Family()))
}

func TestNewHasher_Invalid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Sketch.HashCount = 0

	_, err := cfg.NewHasher()

	assert.ErrorIs(t, err, config.ErrInvalidHashCount)
}
