// Package config reads process configuration from the environment, with an
// optional .env file, and builds the shared components of the binaries.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/alqadi/procuredocs"
	"github.com/alqadi/procuredocs/canvas"
	"github.com/alqadi/procuredocs/registry"
)

// Config is the process configuration.
type Config struct {
	TemplatesFile      string        // DOCS_TEMPLATES_FILE, merged over the built-in templates
	FontDir            string        // DOCS_FONT_DIR
	FontFamily         string        // DOCS_FONT_FAMILY
	LogLevel           string        // DOCS_LOG_LEVEL
	LogFormat          string        // DOCS_LOG_FORMAT, "json" or "text"
	StrictDefaults     bool          // DOCS_STRICT_DEFAULTS
	RenderConcurrency  int           // DOCS_RENDER_CONCURRENCY
	RedisAddress       string        // REDIS_ADDRESS, empty disables cache and lock
	CacheTTL           time.Duration // DOCS_CACHE_TTL
	GCSBucket          string        // GCS_BUCKET, empty disables the archive
	GCSPrefix          string        // GCS_PREFIX
	GCSCredentialsJSON string        // GCS_CREDENTIALS_JSON, ADC when empty
	Port               string        // PORT
	AllowedOrigins     []string      // CORS_ALLOWED_ORIGINS, comma separated
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Config{
		TemplatesFile:      strings.TrimSpace(getenv("DOCS_TEMPLATES_FILE")),
		FontDir:            strings.TrimSpace(getenv("DOCS_FONT_DIR")),
		FontFamily:         orDefault(getenv("DOCS_FONT_FAMILY"), "NotoNaskhArabic"),
		LogLevel:           orDefault(getenv("DOCS_LOG_LEVEL"), "info"),
		LogFormat:          orDefault(getenv("DOCS_LOG_FORMAT"), "json"),
		RedisAddress:       strings.TrimSpace(getenv("REDIS_ADDRESS")),
		GCSBucket:          strings.TrimSpace(getenv("GCS_BUCKET")),
		GCSPrefix:          orDefault(getenv("GCS_PREFIX"), "documents"),
		GCSCredentialsJSON: strings.TrimSpace(getenv("GCS_CREDENTIALS_JSON")),
		Port:               orDefault(getenv("PORT"), "8080"),
		AllowedOrigins:     splitAndTrim(getenv("CORS_ALLOWED_ORIGINS")),
	}

	var err error
	if c.StrictDefaults, err = boolFromEnv(getenv, "DOCS_STRICT_DEFAULTS", false); err != nil {
		return Config{}, err
	}
	if c.RenderConcurrency, err = intFromEnv(getenv, "DOCS_RENDER_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}
	if c.RenderConcurrency < 1 {
		return Config{}, fmt.Errorf("config: DOCS_RENDER_CONCURRENCY must be positive, got %d", c.RenderConcurrency)
	}
	if c.CacheTTL, err = durationFromEnv(getenv, "DOCS_CACHE_TTL", time.Hour); err != nil {
		return Config{}, err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return Config{}, fmt.Errorf("config: DOCS_LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return Config{}, fmt.Errorf("config: DOCS_LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return c, nil
}

// NewLogger returns a logger writing to stdout at level in format ("json"
// or "text").
func NewLogger(level, format string) (*logrus.Logger, error) {
	return newLogger(os.Stdout, level, format)
}

func newLogger(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	if format == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l, nil
}

// Registry builds the template registry: the built-in templates plus those
// of TemplatesFile.
func (c Config) Registry(log logrus.FieldLogger) (*registry.Registry, error) {
	cfg := registry.Builtin()
	if c.TemplatesFile != "" {
		extra, err := registry.LoadFile(c.TemplatesFile)
		if err != nil {
			return nil, err
		}
		cfg = registry.Merge(cfg, extra)
	}
	opts := []registry.Option{registry.WithLogger(log)}
	if c.StrictDefaults {
		opts = append(opts, registry.WithStrictDefaults())
	}
	reg, err := registry.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	for _, err := range reg.Lint() {
		log.WithError(err).Warn("template configuration")
	}
	return reg, nil
}

// Fonts loads FontFamily from FontDir, or the embedded Latin fonts when no
// directory is configured.
func (c Config) Fonts() (*canvas.FontSet, error) {
	if c.FontDir == "" {
		return canvas.DefaultFonts(), nil
	}
	return canvas.LoadFontDir(c.FontDir, c.FontFamily)
}

// Engine builds the render engine.
func (c Config) Engine(log logrus.FieldLogger) (*procuredocs.Engine, error) {
	reg, err := c.Registry(log)
	if err != nil {
		return nil, err
	}
	fonts, err := c.Fonts()
	if err != nil {
		return nil, err
	}
	if c.FontDir == "" {
		log.Warn("DOCS_FONT_DIR not set; the embedded fonts have no Arabic glyphs")
	}
	return procuredocs.New(reg,
		procuredocs.WithLogger(log),
		procuredocs.WithFonts(fonts),
		procuredocs.WithConcurrency(c.RenderConcurrency),
	)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intFromEnv(getenv func(string) string, key string, def int) (int, error) {
	val := strings.TrimSpace(getenv(key))
	if val == "" {
		return def, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(getenv func(string) string, key string, def bool) (bool, error) {
	val := strings.TrimSpace(getenv(key))
	if val == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func durationFromEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(getenv(key))
	if val == "" {
		return def, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
