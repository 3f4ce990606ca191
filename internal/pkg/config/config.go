package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Input     InputConfig     `mapstructure:"input"`
	Reach     ReachConfig     `mapstructure:"reach"`
	Cluster   ClusterConfig   `mapstructure:"cluster"`
	Render    RenderConfig    `mapstructure:"render"`
	Output    OutputConfig    `mapstructure:"output"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// InputConfig locates the stops and population tables.
type InputConfig struct {
	// StopsSource is "file" (CSV/XLSX at StopsPath) or "postgres".
	StopsSource    string      `mapstructure:"stops_source"`
	StopsPath      string      `mapstructure:"stops_path"`
	AgencySlug     string      `mapstructure:"agency_slug"`
	PopulationPath string      `mapstructure:"population_path"`
	Sheet          string      `mapstructure:"sheet"`
	StopColumns    StopColumns `mapstructure:"stop_columns"`
	PopColumns     PopColumns  `mapstructure:"population_columns"`
}

// StopColumns names the stops table columns.
type StopColumns struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
	Lat  string `mapstructure:"lat"`
	Lon  string `mapstructure:"lon"`
}

// PopColumns names the population table columns.
type PopColumns struct {
	Lat    string `mapstructure:"lat"`
	Lon    string `mapstructure:"lon"`
	Weight string `mapstructure:"weight"`
}

// ReachConfig controls the stop buffer. The radius is in degrees.
type ReachConfig struct {
	BufferDegrees float64 `mapstructure:"buffer_degrees"`
}

// ClusterConfig controls population clustering. Eps is a surface distance
// in kilometres, converted to radians before clustering.
type ClusterConfig struct {
	EpsKm      float64 `mapstructure:"eps_km"`
	MinSamples int     `mapstructure:"min_samples"`
}

// RenderConfig controls map appearance.
type RenderConfig struct {
	CircleSizeScale float64 `mapstructure:"circle_size_scale"`
	StopsZoom       int     `mapstructure:"stops_zoom"`
	ReachZoom       int     `mapstructure:"reach_zoom"`
	ClustersZoom    int     `mapstructure:"clusters_zoom"`
	ClusterColors   int     `mapstructure:"cluster_colors"`
	PaletteSeed     uint64  `mapstructure:"palette_seed"`
	FitBounds       bool    `mapstructure:"fit_bounds"`
	TileURL         string  `mapstructure:"tile_url"`
	Attribution     string  `mapstructure:"attribution"`
}

// OutputConfig names the files written by an analysis run.
type OutputConfig struct {
	Dir            string `mapstructure:"dir"`
	StopsMap       string `mapstructure:"stops_map"`
	ReachMap       string `mapstructure:"reach_map"`
	ClustersMap    string `mapstructure:"clusters_map"`
	ClusterSummary string `mapstructure:"cluster_summary"`
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

type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
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

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	return unmarshal(v)
}

// LoadFile reads configuration from an explicit YAML file plus environment variables.
func LoadFile(service, path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	return unmarshal(v)
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("input.stops_source", "file")
	v.SetDefault("input.stops_path", "data/stops.txt")
	v.SetDefault("input.agency_slug", "")
	v.SetDefault("input.population_path", "data/population.csv")
	v.SetDefault("input.sheet", "")
	v.SetDefault("input.stop_columns.id", "stop_id")
	v.SetDefault("input.stop_columns.name", "stop_name")
	v.SetDefault("input.stop_columns.lat", "stop_lat")
	v.SetDefault("input.stop_columns.lon", "stop_lon")
	v.SetDefault("input.population_columns.lat", "lat")
	v.SetDefault("input.population_columns.lon", "lon")
	v.SetDefault("input.population_columns.weight", "Pop")
	v.SetDefault("reach.buffer_degrees", 0.0045) // ~500 m at the equator
	v.SetDefault("cluster.eps_km", 2.0)
	v.SetDefault("cluster.min_samples", 1000)
	v.SetDefault("render.circle_size_scale", 100.0)
	v.SetDefault("render.stops_zoom", 2)
	v.SetDefault("render.reach_zoom", 7)
	v.SetDefault("render.clusters_zoom", 7)
	v.SetDefault("render.cluster_colors", 1000)
	v.SetDefault("render.palette_seed", 1)
	v.SetDefault("render.fit_bounds", false)
	v.SetDefault("render.tile_url", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("render.attribution", "&copy; OpenStreetMap contributors")
	v.SetDefault("output.dir", "out")
	v.SetDefault("output.stops_map", "population_stops.html")
	v.SetDefault("output.reach_map", "population_reach.html")
	v.SetDefault("output.clusters_map", "clusters.html")
	v.SetDefault("output.cluster_summary", "cluster_summary.html")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "transit")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "bilbopass")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	// Environment variables: REACHMAP_CLUSTER_MIN_SAMPLES → cluster.min_samples
	v.SetEnvPrefix("REACHMAP")
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

	switch c.Input.StopsSource {
	case "file":
		if c.Input.StopsPath == "" {
			errs = append(errs, "input.stops_path is required when input.stops_source is file")
		}
	case "postgres":
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
		errs = append(errs, fmt.Sprintf("input.stops_source must be file or postgres, got %q", c.Input.StopsSource))
	}
	if c.Input.PopulationPath == "" {
		errs = append(errs, "input.population_path is required")
	}
	if c.Reach.BufferDegrees <= 0 {
		errs = append(errs, "reach.buffer_degrees must be positive")
	}
	if c.Cluster.EpsKm <= 0 {
		errs = append(errs, "cluster.eps_km must be positive")
	}
	if c.Cluster.MinSamples <= 0 {
		errs = append(errs, "cluster.min_samples must be positive")
	}
	if c.Render.CircleSizeScale <= 0 {
		errs = append(errs, "render.circle_size_scale must be positive")
	}
	if c.Render.ClusterColors <= 0 {
		errs = append(errs, "render.cluster_colors must be positive")
	}
	zooms := []struct {
		key  string
		zoom int
	}{
		{"render.stops_zoom", c.Render.StopsZoom},
		{"render.reach_zoom", c.Render.ReachZoom},
		{"render.clusters_zoom", c.Render.ClustersZoom},
	}
	for _, z := range zooms {
		if z.zoom < 0 || z.zoom > 20 {
			errs = append(errs, fmt.Sprintf("%s must be 0-20, got %d", z.key, z.zoom))
		}
	}
	if c.Output.Dir == "" {
		errs = append(errs, "output.dir is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
