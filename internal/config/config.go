// Package config loads pixbatch settings. Later sources override earlier
// ones: built-in defaults, a YAML file, a .env file, then PIXBATCH_*
// environment variables. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/AnyUserName/pixbatch/internal/profile"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "pixbatch.yaml"

// Config holds all configuration values.
type Config struct {
	// Logging
	LogLevel slog.Level
	LogFile  string

	// Batch
	Profile      string
	OutputDir    string
	ArchiveName  string
	CacheEntries int

	// Metrics
	MetricsFile string

	// Profiles declared in the config file, already registered.
	Profiles []profile.Profile
}

// fileConfig is the YAML layout.
type fileConfig struct {
	LogLevel     string            `yaml:"log_level"`
	LogFile      string            `yaml:"log_file"`
	Profile      string            `yaml:"profile"`
	OutputDir    string            `yaml:"output_dir"`
	ArchiveName  string            `yaml:"archive_name"`
	CacheEntries *int              `yaml:"cache_entries"`
	MetricsFile  string            `yaml:"metrics_file"`
	Profiles     []profile.Profile `yaml:"profiles"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:     slog.LevelInfo,
		Profile:      "default",
		OutputDir:    "./pixbatch_out",
		ArchiveName:  "images.zip",
		CacheEntries: 64,
	}
}

// Load builds the configuration. path names a YAML file that must exist;
// an empty path reads DefaultFile when present. envFiles default to
// ".env"; missing env files are ignored and never override variables
// already set in the environment.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	required := path != ""
	if !required {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if required || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	if err := cfg.loadEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}
	setString(&c.LogFile, fc.LogFile)
	setString(&c.Profile, fc.Profile)
	setString(&c.OutputDir, fc.OutputDir)
	setString(&c.ArchiveName, fc.ArchiveName)
	setString(&c.MetricsFile, fc.MetricsFile)
	if fc.CacheEntries != nil {
		c.CacheEntries = *fc.CacheEntries
	}

	base := profile.Get("default")
	for _, p := range fc.Profiles {
		if p.TargetSizeKB == 0 {
			p.TargetSizeKB = base.TargetSizeKB
		}
		if p.Quality == 0 {
			p.Quality = base.Quality
		}
		if p.Format == "" {
			p.Format = base.Format
		}
		if err := profile.Register(p); err != nil {
			return fmt.Errorf("config profile %q: %w", p.Name, err)
		}
		c.Profiles = append(c.Profiles, p)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv("PIXBATCH_LOG_LEVEL"); v != "" {
		c.LogLevel = parseLogLevel(v)
	}
	c.LogFile = getEnv("PIXBATCH_LOG_FILE", c.LogFile)
	c.Profile = getEnv("PIXBATCH_PROFILE", c.Profile)
	c.OutputDir = getEnv("PIXBATCH_OUT_DIR", c.OutputDir)
	c.ArchiveName = getEnv("PIXBATCH_ARCHIVE", c.ArchiveName)
	c.MetricsFile = getEnv("PIXBATCH_METRICS_FILE", c.MetricsFile)
	if v := os.Getenv("PIXBATCH_CACHE_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("PIXBATCH_CACHE_ENTRIES: invalid value %q", v)
		}
		c.CacheEntries = n
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
