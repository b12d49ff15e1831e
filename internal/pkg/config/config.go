package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Overlay   OverlayConfig   `mapstructure:"overlay"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// NATSConfig configures frame publishing. An empty URL disables it.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig configures the catalog cache. An empty address disables it.
type ValkeyConfig struct {
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Catalog sources.
const (
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

type CatalogConfig struct {
	Source   string `mapstructure:"source"`
	Path     string `mapstructure:"path"`
	CacheTTL int    `mapstructure:"cache_ttl"`
}

type OverlayConfig struct {
	DefaultZoom        int      `mapstructure:"default_zoom"`
	MaxClusteringZoom  int      `mapstructure:"max_clustering_zoom"`
	DensityFactor      float64  `mapstructure:"density_factor"`
	NearbyRadiusMeters float64  `mapstructure:"nearby_radius_meters"`
	ClipMode           string   `mapstructure:"clip_mode"`
	Palette            []string `mapstructure:"palette"`
	MaxSessions        int      `mapstructure:"max_sessions"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "transit")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "stopmap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("valkey.key_prefix", "stopmap:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("catalog.source", CatalogFile)
	v.SetDefault("catalog.path", "testdata/catalog.yaml")
	v.SetDefault("catalog.cache_ttl", 3600)
	v.SetDefault("overlay.default_zoom", 16)
	v.SetDefault("overlay.max_clustering_zoom", 17)
	v.SetDefault("overlay.density_factor", 1.0)
	v.SetDefault("overlay.nearby_radius_meters", 10000.0)
	v.SetDefault("overlay.clip_mode", "strict")
	v.SetDefault("overlay.max_sessions", 10000)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: STOPMAP_OVERLAY_CLIP_MODE → overlay.clip_mode
	v.SetEnvPrefix("STOPMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Catalog.Source {
	case CatalogFile:
		if c.Catalog.Path == "" {
			errs = append(errs, "catalog.path is required for the file source")
		}
	case CatalogPostgres:
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("catalog.source must be %q or %q, got %q", CatalogFile, CatalogPostgres, c.Catalog.Source))
	}

	if c.Overlay.DefaultZoom <= 0 {
		errs = append(errs, "overlay.default_zoom must be positive")
	}
	if c.Overlay.MaxClusteringZoom <= 0 {
		errs = append(errs, "overlay.max_clustering_zoom must be positive")
	}
	if c.Overlay.DensityFactor <= 0 {
		errs = append(errs, "overlay.density_factor must be positive")
	}
	if c.Overlay.NearbyRadiusMeters <= 0 {
		errs = append(errs, "overlay.nearby_radius_meters must be positive")
	}
	if m := c.Overlay.ClipMode; m != "" && m != "strict" && m != "crossing" {
		errs = append(errs, fmt.Sprintf("overlay.clip_mode must be strict or crossing, got %q", m))
	}
	for _, p := range c.Overlay.Palette {
		if !isHexColor(p) {
			errs = append(errs, fmt.Sprintf("overlay.palette entry %q is not a #rrggbb colour", p))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}
