// Package config loads sheetcalc settings from a TOML file, a .env file,
// and SHEETCALC_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/vogtb/go-spreadsheet/packages/spreadsheet"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SHEETCALC_"

// Config is the full sheetcalc configuration
type Config struct {
	Names   NamesConfig   `toml:"names"`
	Log     LogConfig     `toml:"log"`
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
}

// NamesConfig controls which cell names are accepted and how they are
// folded. an empty pattern means the default cell name syntax.
type NamesConfig struct {
	Pattern   string `toml:"pattern"`
	Normalize string `toml:"normalize"` // upper, lower, none
}

type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text, json
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type StorageConfig struct {
	LockTimeout Duration `toml:"lock_timeout"`
}

// Duration is a wrapper for time.Duration that supports TOML marshaling.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return d.Duration.String()
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Names: NamesConfig{
			Normalize: "none",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			LockTimeout: Duration{5 * time.Second},
		},
	}
}

// Load builds the configuration. envFiles are loaded into the process
// environment first (".env" when none are given); missing env files and a
// missing config file are not errors. path may be empty.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with SHEETCALC_<SECTION>_<KEY>
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"NAMES_PATTERN":   &c.Names.Pattern,
		"NAMES_NORMALIZE": &c.Names.Normalize,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FORMAT":      &c.Log.Format,
		"SERVER_ADDR":     &c.Server.Addr,
	}
	for key, field := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*field = v
		}
	}

	if v, ok := lookup(EnvPrefix + "STORAGE_LOCK_TIMEOUT"); ok {
		if err := c.Storage.LockTimeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%sSTORAGE_LOCK_TIMEOUT: %w", EnvPrefix, err)
		}
	}
	return nil
}

// Validate checks every setting that can be checked without side effects
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.NamePolicy(); err != nil {
		errs = append(errs, fmt.Errorf("names.pattern: %w", err))
	}
	if _, err := spreadsheet.NormalizerByName(c.Names.Normalize); err != nil {
		errs = append(errs, fmt.Errorf("names.normalize: %w", err))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q (want text or json)", c.Log.Format))
	}
	if c.Storage.LockTimeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("storage.lock_timeout: must be positive, got %s", c.Storage.LockTimeout))
	}
	return errors.Join(errs...)
}

// NamePolicy returns the configured name policy
func (c *Config) NamePolicy() (spreadsheet.NamePolicy, error) {
	if c.Names.Pattern == "" {
		return spreadsheet.DefaultNamePolicy(), nil
	}
	return spreadsheet.PatternPolicy(c.Names.Pattern)
}

// SpreadsheetOptions turns the names section into spreadsheet options
func (c *Config) SpreadsheetOptions(logger *slog.Logger) ([]spreadsheet.Option, error) {
	policy, err := c.NamePolicy()
	if err != nil {
		return nil, err
	}
	normalize, err := spreadsheet.NormalizerByName(c.Names.Normalize)
	if err != nil {
		return nil, err
	}
	opts := []spreadsheet.Option{
		spreadsheet.WithNamePolicy(policy),
		spreadsheet.WithNormalizer(normalize),
	}
	if logger != nil {
		opts = append(opts, spreadsheet.WithLogger(logger))
	}
	return opts, nil
}

// SlogLevel parses the log level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// NewLogger builds the logger described by the log section
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
