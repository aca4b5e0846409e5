package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 3001
	DefaultShutdownTimeout = 5 * time.Second
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultSnapshotSource  = "file"
	DefaultSnapshotTimeout = 30 * time.Second
	DefaultSnapshotDir     = "data"
	DefaultSnapshotFormat  = "json"
	DefaultSQLDriver       = "sqlite"
	DefaultS3Region        = "us-east-1"
	DefaultMetricsPath     = "/metrics"
)

// Environment variables that override values from the file.
const (
	EnvHTTPPort       = "API_PORT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvSnapshotSource = "BOTDECK_SNAPSHOT_SOURCE"
)

// Config holds the server-side configuration parsed from the `server:`
// section of config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API listens on (default 3001).
	HTTPPort int `yaml:"http_port"`

	// ShutdownTimeout bounds how long in-flight requests may take to finish
	// after a shutdown signal.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Log      LogConfig      `yaml:"log"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | text.
	Format string `yaml:"format"`

	// File enables a size-rotated log file in addition to stdout.
	File LogFileConfig `yaml:"file"`
}

// LogFileConfig configures the rotated log file. An empty Path disables it.
type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// SnapshotConfig selects where the bots/workers/logs snapshot is read from.
// Only the block matching Source is used.
type SnapshotConfig struct {
	// Source is one of: file | sql | s3 | http.
	Source string `yaml:"source"`

	// Timeout bounds the whole fetch of the three collections.
	Timeout time.Duration `yaml:"timeout"`

	File FileSourceConfig `yaml:"file"`
	SQL  SQLSourceConfig  `yaml:"sql"`
	S3   S3SourceConfig   `yaml:"s3"`
	HTTP HTTPSourceConfig `yaml:"http"`
}

// FileSourceConfig reads bots.<ext>, workers.<ext> and logs.<ext> from Dir.
type FileSourceConfig struct {
	Dir string `yaml:"dir"`

	// Format is one of: json | yaml.
	Format string `yaml:"format"`
}

// SQLSourceConfig reads the bots, workers and logs tables of a database.
type SQLSourceConfig struct {
	// Driver is one of: sqlite | pgx.
	Driver string `yaml:"driver"`

	// DSN is the data source name passed to the driver. DSNEnv, when set,
	// names an environment variable that takes precedence over DSN.
	DSN    string `yaml:"dsn"`
	DSNEnv string `yaml:"dsn_env"`
}

// EffectiveDSN returns the DSN resolved from the environment, falling back
// to the literal DSN.
func (s SQLSourceConfig) EffectiveDSN() string {
	if s.DSNEnv != "" {
		if v := os.Getenv(s.DSNEnv); v != "" {
			return v
		}
	}
	return s.DSN
}

// S3SourceConfig reads <Prefix>bots.json, <Prefix>workers.json and
// <Prefix>logs.json from Bucket.
type S3SourceConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`

	// Endpoint overrides the AWS endpoint, e.g. for MinIO.
	Endpoint     string `yaml:"endpoint"`
	UsePathStyle bool   `yaml:"use_path_style"`

	// AccessKeyEnv and SecretKeyEnv name environment variables holding
	// static credentials. When empty the default AWS credential chain is used.
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
}

// StaticCredentials returns the access and secret keys resolved from the
// environment. ok is false unless both are set.
func (s S3SourceConfig) StaticCredentials() (access, secret string, ok bool) {
	if s.AccessKeyEnv == "" || s.SecretKeyEnv == "" {
		return "", "", false
	}
	access, secret = os.Getenv(s.AccessKeyEnv), os.Getenv(s.SecretKeyEnv)
	return access, secret, access != "" && secret != ""
}

// HTTPSourceConfig fetches <BaseURL>/bots.json, /workers.json and /logs.json.
type HTTPSourceConfig struct {
	BaseURL string            `yaml:"base_url"`
	Headers map[string]string `yaml:"headers"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with defaults, then environment overrides are
// applied, then the result is validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        DefaultHTTPPort,
			ShutdownTimeout: DefaultShutdownTimeout,
			Log: LogConfig{
				Level:  DefaultLogLevel,
				Format: DefaultLogFormat,
				File: LogFileConfig{
					MaxSizeMB:  100,
					MaxBackups: 3,
					MaxAgeDays: 28,
				},
			},
			Snapshot: SnapshotConfig{
				Source:  DefaultSnapshotSource,
				Timeout: DefaultSnapshotTimeout,
				File:    FileSourceConfig{Dir: DefaultSnapshotDir, Format: DefaultSnapshotFormat},
				SQL:     SQLSourceConfig{Driver: DefaultSQLDriver},
				S3:      S3SourceConfig{Region: DefaultS3Region},
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    DefaultMetricsPath,
			},
		},
	}
}

// applyEnv overlays the supported environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvHTTPPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q is not a number", EnvHTTPPort, v)
		}
		cfg.Server.HTTPPort = port
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Server.Log.Level = v
	}
	if v := os.Getenv(EnvSnapshotSource); v != "" {
		cfg.Server.Snapshot.Source = v
	}
	return nil
}

// NormalizeLevel maps a log level name to one of debug, info, warn or error.
// Matching ignores case and surrounding space, "warning" means warn and an
// empty name means info.
func NormalizeLevel(name string) (string, bool) {
	switch l := strings.ToLower(strings.TrimSpace(name)); l {
	case "debug", "info", "warn", "error":
		return l, true
	case "warning":
		return "warn", true
	case "":
		return "info", true
	}
	return "", false
}

// validate checks structural constraints on the parsed configuration and
// canonicalizes the log level.
func validate(cfg *Config) error {
	s := cfg.Server
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", s.HTTPPort)
	}
	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}

	level, ok := NormalizeLevel(s.Log.Level)
	if !ok {
		return fmt.Errorf("server.log.level %q unknown: want debug|info|warn|error", s.Log.Level)
	}
	cfg.Server.Log.Level = level
	switch s.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("server.log.format %q unknown: want json|text", s.Log.Format)
	}

	if s.Snapshot.Timeout < 0 {
		return fmt.Errorf("server.snapshot.timeout must not be negative")
	}
	switch s.Snapshot.Source {
	case "file":
		if s.Snapshot.File.Dir == "" {
			return fmt.Errorf("server.snapshot.file.dir is required")
		}
		switch s.Snapshot.File.Format {
		case "json", "yaml":
		default:
			return fmt.Errorf("server.snapshot.file.format %q unknown: want json|yaml", s.Snapshot.File.Format)
		}
	case "sql":
		switch s.Snapshot.SQL.Driver {
		case "sqlite", "pgx":
		default:
			return fmt.Errorf("server.snapshot.sql.driver %q unknown: want sqlite|pgx", s.Snapshot.SQL.Driver)
		}
		if s.Snapshot.SQL.EffectiveDSN() == "" {
			return fmt.Errorf("server.snapshot.sql.dsn is required")
		}
	case "s3":
		if s.Snapshot.S3.Bucket == "" {
			return fmt.Errorf("server.snapshot.s3.bucket is required")
		}
	case "http":
		if s.Snapshot.HTTP.BaseURL == "" {
			return fmt.Errorf("server.snapshot.http.base_url is required")
		}
	default:
		return fmt.Errorf("server.snapshot.source %q unknown: want file|sql|s3|http", s.Snapshot.Source)
	}

	if s.Metrics.Enabled {
		p := s.Metrics.Path
		if p == "" || p[0] != '/' {
			return fmt.Errorf("server.metrics.path %q must start with /", p)
		}
		if p == "/" || p == "/health" || p == "/bots" || strings.HasPrefix(p, "/bots/") {
			return fmt.Errorf("server.metrics.path %q collides with an API route", p)
		}
	}
	return nil
}
