// Package config loads schoolmap settings from config.yaml, SCHOOLMAP_*
// environment variables and defaults, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g. SCHOOLMAP_SERVER_PORT.
const EnvPrefix = "SCHOOLMAP"

// Config holds the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Data     DataConfig     `yaml:"data" mapstructure:"data"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Heat     HeatConfig     `yaml:"heat" mapstructure:"heat"`
	Grid     GridConfig     `yaml:"grid" mapstructure:"grid"`
	Hex      HexConfig      `yaml:"hex" mapstructure:"hex"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string   `yaml:"host" mapstructure:"host"`
	Port        int      `yaml:"port" mapstructure:"port"`
	WebDir      string   `yaml:"web_dir" mapstructure:"web_dir"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// DataConfig locates the datasets.
type DataConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	InputCSV  string `yaml:"input_csv" mapstructure:"input_csv"`
	AdminFile string `yaml:"admin_file" mapstructure:"admin_file"`
}

// StoreConfig configures the analytical store. Driver is "duckdb" or
// "sqlite"; an empty Path opens an in-memory database.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// HeatConfig holds heatmap defaults.
type HeatConfig struct {
	RadiusKm  float64 `yaml:"radius_km" mapstructure:"radius_km"`
	Zoom      float64 `yaml:"zoom" mapstructure:"zoom"`
	CenterLat float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon float64 `yaml:"center_lon" mapstructure:"center_lon"`
}

// GridConfig configures the density grid.
type GridConfig struct {
	CellSize float64 `yaml:"cell_size" mapstructure:"cell_size"`
	// Source is the density layer served by default: "grid" or "hex".
	Source string `yaml:"source" mapstructure:"source"`
}

// HexConfig configures the hex density layer.
type HexConfig struct {
	Size float64 `yaml:"size" mapstructure:"size"`
}

// PipelineConfig configures dataset builds.
type PipelineConfig struct {
	SkipClean bool `yaml:"skip_clean" mapstructure:"skip_clean"`
}

// Load reads configuration from file and environment. An empty file
// looks for config.yaml in the working directory; a missing default file
// is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()

	// Config file
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8086)
	v.SetDefault("server.web_dir", "")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.input_csv", "location_of_schools.csv")
	v.SetDefault("data.admin_file", "")
	v.SetDefault("store.driver", "duckdb")
	v.SetDefault("store.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("heat.radius_km", 20.0)
	v.SetDefault("heat.zoom", 6.0)
	v.SetDefault("heat.center_lat", -19.0154)
	v.SetDefault("heat.center_lon", 29.1549)
	v.SetDefault("grid.cell_size", 0.1)
	v.SetDefault("grid.source", "grid")
	v.SetDefault("hex.size", 0.12)
	v.SetDefault("pipeline.skip_clean", false)

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

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	switch c.Store.Driver {
	case "duckdb", "sqlite":
	default:
		errs = append(errs, "store.driver must be duckdb or sqlite")
	}
	switch c.Grid.Source {
	case "grid", "hex":
	default:
		errs = append(errs, "grid.source must be grid or hex")
	}
	if c.Grid.CellSize <= 0 {
		errs = append(errs, "grid.cell_size must be > 0")
	}
	if c.Hex.Size <= 0 {
		errs = append(errs, "hex.size must be > 0")
	}
	if c.Heat.RadiusKm <= 0 {
		errs = append(errs, "heat.radius_km must be > 0")
	}
	if c.Data.Dir == "" {
		errs = append(errs, "data.dir is required")
	}
	if len(errs) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(errs, "; "))
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
