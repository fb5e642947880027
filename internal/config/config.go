package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dgallion1/testdocgen/internal/render"
)

type Config struct {
	// Document
	Title     string
	Output    string
	SourceDir string
	ImagesDir string

	// Preview server
	Addr           string
	APIKey         string
	Workers        int
	MaxQueueSize   int
	MaxUploadBytes int64
	RunTTL         time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Title:          "Documentation",
		Output:         "docs/tests.md",
		SourceDir:      ".",
		Addr:           ":8090",
		Workers:        2,
		MaxQueueSize:   16,
		MaxUploadBytes: 52428800, // 50MB
		RunTTL:         1 * time.Hour,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load builds the configuration from defaults, the TOML file named by
// TESTDOCGEN_CONFIG if any, and TESTDOCGEN_* environment variables, in
// increasing precedence.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("TESTDOCGEN_CONFIG"); path != "" {
		var err error
		if cfg, err = LoadFile(path, cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Title = envOr("TESTDOCGEN_TITLE", cfg.Title)
	cfg.Output = envOr("TESTDOCGEN_OUTPUT", cfg.Output)
	cfg.SourceDir = envOr("TESTDOCGEN_SRC", cfg.SourceDir)
	cfg.ImagesDir = envOr("TESTDOCGEN_IMAGES", cfg.ImagesDir)

	cfg.Addr = envOr("TESTDOCGEN_ADDR", cfg.Addr)
	cfg.APIKey = envOr("TESTDOCGEN_API_KEY", cfg.APIKey)
	cfg.Workers = envInt("TESTDOCGEN_WORKERS", cfg.Workers)
	cfg.MaxQueueSize = envInt("TESTDOCGEN_MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("TESTDOCGEN_MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.RunTTL = envDuration("TESTDOCGEN_RUN_TTL", cfg.RunTTL)

	cfg.LogLevel = envOr("TESTDOCGEN_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("TESTDOCGEN_LOG_FORMAT", cfg.LogFormat)

	cfg.clamp()
	return cfg, nil
}

type fileConfig struct {
	Title          string `toml:"title"`
	Output         string `toml:"output"`
	Source         string `toml:"source"`
	Images         string `toml:"images"`
	Addr           string `toml:"addr"`
	APIKey         string `toml:"api_key"`
	Workers        int    `toml:"workers"`
	MaxQueueSize   int    `toml:"max_queue_size"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
	RunTTL         string `toml:"run_ttl"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
}

// LoadFile overlays the keys defined in the TOML file at path onto base.
// Relative directories in the file are resolved against the file's directory.
func LoadFile(path string, base Config) (Config, error) {
	cfg := base

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}
	dir := filepath.Dir(path)

	if meta.IsDefined("title") {
		cfg.Title = strings.TrimSpace(raw.Title)
	}
	if meta.IsDefined("output") {
		cfg.Output = resolve(dir, raw.Output)
	}
	if meta.IsDefined("source") {
		cfg.SourceDir = resolve(dir, raw.Source)
	}
	if meta.IsDefined("images") {
		cfg.ImagesDir = resolve(dir, raw.Images)
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("api_key") {
		cfg.APIKey = raw.APIKey
	}
	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}
	if meta.IsDefined("max_queue_size") {
		cfg.MaxQueueSize = raw.MaxQueueSize
	}
	if meta.IsDefined("max_upload_bytes") {
		cfg.MaxUploadBytes = raw.MaxUploadBytes
	}
	if meta.IsDefined("run_ttl") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.RunTTL))
		if err != nil {
			return Config{}, fmt.Errorf("parse run_ttl: %w", err)
		}
		cfg.RunTTL = d
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}

	cfg.clamp()
	return cfg, nil
}

func resolve(dir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func (c *Config) clamp() {
	d := Defaults()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.RunTTL <= 0 {
		c.RunTTL = d.RunTTL
	}
}

// Validate checks the settings needed to generate a document.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Output) == "" {
		return errors.New("output file is required")
	}
	if _, err := render.FormatFor(c.Output); err != nil {
		return fmt.Errorf("output %s: %w", c.Output, err)
	}
	info, err := os.Stat(c.SourceDir)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", c.SourceDir)
	}
	if c.ImagesDir != "" {
		if info, err := os.Stat(c.ImagesDir); err != nil || !info.IsDir() {
			return fmt.Errorf("images directory %s not found", c.ImagesDir)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q must be text or json", c.LogFormat)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
