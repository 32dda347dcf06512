package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/vango-dev/cveboard/internal/errors"
	"github.com/vango-dev/cveboard/pkg/routepath"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "cveboard.json"

	// TOMLConfigFileName is the alternative TOML configuration file, read
	// when no cveboard.json exists.
	TOMLConfigFileName = "cveboard.toml"

	// DefaultPort is the default server port.
	DefaultPort = 8080

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultBasePath is the default application base path.
	DefaultBasePath = "/"

	// DefaultMetricsPath is where metrics are served when enabled.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "cveboard"
)

// Environment variables that override the file.
const (
	EnvBaseURL = "BASE_URL"
	EnvPort    = "CVEBOARD_PORT"
)

// View sources.
const (
	SourceEmbed = "embed"
	SourceDir   = "dir"
	SourceS3    = "s3"
)

// Config represents the complete cveboard.json configuration.
type Config struct {
	// BasePath is the path prefix the application is served under.
	BasePath string `json:"base_path,omitempty" toml:"base_path,omitempty"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty" toml:"server,omitempty"`

	// Views selects where view templates are loaded from.
	Views ViewsConfig `json:"views,omitempty" toml:"views,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" toml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty" toml:"tracing,omitempty"`

	// Logging contains log output configuration.
	Logging LoggingConfig `json:"logging,omitempty" toml:"logging,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" toml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" toml:"port,omitempty"`
}

// ViewsConfig selects the view template source.
type ViewsConfig struct {
	// Source is one of "embed", "dir" or "s3" (default: "embed").
	Source string `json:"source,omitempty" toml:"source,omitempty"`

	// Dir is the template directory when Source is "dir".
	Dir string `json:"dir,omitempty" toml:"dir,omitempty"`

	// S3 configures the bucket when Source is "s3".
	S3 S3Config `json:"s3,omitempty" toml:"s3,omitempty"`
}

// S3Config locates view templates in a bucket.
type S3Config struct {
	Bucket   string `json:"bucket,omitempty" toml:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty" toml:"prefix,omitempty"`
	Region   string `json:"region,omitempty" toml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" toml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty"`
	Path      string `json:"path,omitempty" toml:"path,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" toml:"enabled,omitempty"`
	TracerName string `json:"tracer_name,omitempty" toml:"tracer_name,omitempty"`
}

// LoggingConfig contains log settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default: info).
	Level string `json:"level,omitempty" toml:"level,omitempty"`

	// Format is "text" or "json" (default: text).
	Format string `json:"format,omitempty" toml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		BasePath: DefaultBasePath,
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Views: ViewsConfig{
			Source: SourceEmbed,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
			Path:      DefaultMetricsPath,
		},
		Tracing: TracingConfig{
			TracerName: DefaultNamespace,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory, preferring
// cveboard.json over cveboard.toml.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		if alt := filepath.Join(dir, TOMLConfigFileName); fileExists(alt) {
			path = alt
		}
	}
	return LoadFile(path)
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		return New(), nil
	}
	return Load(dir)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E120").
				WithTarget(path).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("E121").WithTarget(path).Wrap(err)
	}

	cfg := New()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E121").
			WithTarget(path).
			WithSuggestion("Check that " + filepath.Base(path) + " is well formed").
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as TOML when the
// path ends in .toml and JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E121").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E121").WithTarget(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in values a partial file left empty.
func (c *Config) applyDefaults() {
	d := New()
	if c.BasePath == "" {
		c.BasePath = d.BasePath
	}
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Views.Source == "" {
		c.Views.Source = d.Views.Source
	}
	if c.Views.Source == SourceDir && c.Views.Dir != "" && !filepath.IsAbs(c.Views.Dir) {
		c.Views.Dir = filepath.Join(c.Dir(), c.Views.Dir)
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = d.Tracing.TracerName
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
}

// ApplyEnv overrides the configuration from the environment. getenv is
// usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if base := getenv(EnvBaseURL); base != "" {
		c.BasePath = base
	}
	if port := getenv(EnvPort); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return errors.New("E122").
				WithTarget(EnvPort).
				WithDetail("Port must be an integer").
				Wrap(err)
		}
		c.Server.Port = n
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E122").
			WithTarget("server.port").
			WithDetail("Port must be between 0 and 65535")
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return errors.New("E122").
			WithTarget("base_path").
			WithDetail("The base path must start with /")
	}
	if _, err := routepath.Clean(c.BasePath); err != nil {
		return errors.New("E122").WithTarget("base_path").Wrap(err)
	}
	switch c.Views.Source {
	case SourceEmbed:
	case SourceDir:
		if c.Views.Dir == "" {
			return errors.New("E122").
				WithTarget("views.dir").
				WithDetail("A directory is required when views.source is dir")
		}
	case SourceS3:
		if c.Views.S3.Bucket == "" {
			return errors.New("E122").
				WithTarget("views.s3.bucket").
				WithDetail("A bucket is required when views.source is s3")
		}
	default:
		return errors.New("E122").
			WithTarget("views.source").
			WithDetail("views.source must be one of embed, dir, s3")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("E122").
			WithTarget("metrics.path").
			WithDetail("The metrics path must start with /")
	}
	if _, ok := parseLevel(c.Logging.Level); !ok {
		return errors.New("E122").
			WithTarget("logging.level").
			WithDetail("logging.level must be one of debug, info, warn, error")
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return errors.New("E122").
			WithTarget("logging.format").
			WithDetail("logging.format must be text or json")
	}
	return nil
}

// Address returns the host:port the server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Logger builds the slog logger described by the logging section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Logging.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	return fileExists(filepath.Join(dir, ConfigFileName)) ||
		fileExists(filepath.Join(dir, TOMLConfigFileName))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// FindProjectRoot walks up directories to find the directory containing
// cveboard.json or cveboard.toml.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E120").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
