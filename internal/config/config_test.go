package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8086, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "location_of_schools.csv", cfg.Data.InputCSV)
	assert.Equal(t, "duckdb", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 20.0, cfg.Heat.RadiusKm, 0.001)
	assert.InDelta(t, 6.0, cfg.Heat.Zoom, 0.001)
	assert.InDelta(t, -19.0154, cfg.Heat.CenterLat, 1e-9)
	assert.InDelta(t, 29.1549, cfg.Heat.CenterLon, 1e-9)
	assert.InDelta(t, 0.1, cfg.Grid.CellSize, 1e-9)
	assert.Equal(t, "grid", cfg.Grid.Source)
	assert.InDelta(t, 0.12, cfg.Hex.Size, 1e-9)
	assert.False(t, cfg.Pipeline.SkipClean)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
server:
  port: 9090
grid:
  source: hex
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "hex", cfg.Grid.Source)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.12, cfg.Hex.Size, 1e-9)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data:\n  dir: /srv/schoolmap\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/schoolmap", cfg.Data.Dir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SCHOOLMAP_STORE_DRIVER", "duckdb")
	t.Setenv("SCHOOLMAP_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "duckdb", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("SCHOOLMAP_SERVER_PORT", "3000")
	t.Setenv("SCHOOLMAP_HEAT_RADIUS_KM", "12.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 12.5, cfg.Heat.RadiusKm, 1e-9)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port must be between 1 and 65535"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port must be between 1 and 65535"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, "store.driver must be duckdb or sqlite"},
		{"unknown grid source", func(c *Config) { c.Grid.Source = "square" }, "grid.source must be grid or hex"},
		{"cell size", func(c *Config) { c.Grid.CellSize = 0 }, "grid.cell_size must be > 0"},
		{"hex size", func(c *Config) { c.Hex.Size = -1 }, "hex.size must be > 0"},
		{"radius", func(c *Config) { c.Heat.RadiusKm = 0 }, "heat.radius_km must be > 0"},
		{"data dir", func(c *Config) { c.Data.Dir = "" }, "data.dir is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "data.dir")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
