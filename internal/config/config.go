// Package config provides the configuration management for the phicalc
// application. It defines the configuration structure, binds it to the
// command-line flags, layers the YAML file and the environment on top of the
// defaults, and validates the result.
//
// Precedence, from highest to lowest: explicit flags, PHICALC_* environment
// variables, the YAML configuration file, built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/phicalc/internal/errors"
	"github.com/agbru/phicalc/internal/logging"
	"github.com/agbru/phicalc/internal/sequence"
	"github.com/agbru/phicalc/internal/ui"
)

const (
	// EnvPrefix is the prefix for all environment variables used by phicalc.
	EnvPrefix = "PHICALC_"
	// ConfigEnv names the variable holding the configuration file path when
	// --config is not given.
	ConfigEnv = EnvPrefix + "CONFIG"
)

// Default configuration values.
// These can be overridden via the configuration file, environment variables
// or command-line flags.
const (
	DefaultSequence = "fibonacci"
	DefaultStrategy = "doubling"
	DefaultTimeout  = time.Minute
	DefaultPort     = "8080"
	// DefaultServerMaxIndex bounds the index accepted by the HTTP server when
	// no max index is configured. The CLI has no bound by default.
	DefaultServerMaxIndex uint64 = 1_000_000
	DefaultTheme                 = "dark"
	DefaultLogLevel              = "info"
	DefaultCacheTTL              = 24 * time.Hour
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Sequence is the default sequence for commands that accept --seq.
	Sequence string
	// Strategy is the default strategy for commands that accept --strategy.
	Strategy string
	// Timeout sets the maximum duration of a single command or request.
	Timeout time.Duration
	// NaiveLimit is the largest index accepted by the naive strategy.
	NaiveLimit uint64
	// MemoLimit is the largest index accepted by the memoized strategy.
	MemoLimit uint64
	// MaxIndex bounds every index and count; 0 means no bound.
	MaxIndex uint64

	// Port specifies the port to listen on in server mode.
	Port string

	// JSONOutput, if true, outputs results as JSON records.
	JSONOutput bool
	// Quiet mode prints bare values for scripting.
	Quiet bool
	// Verbose displays full values instead of truncated ones.
	Verbose bool
	// HexOutput displays exact terms in hexadecimal.
	HexOutput bool
	// OutputFile, if specified, saves a computed term to this file path.
	OutputFile string
	// NoColor disables colored output. NO_COLOR is honored as well.
	NoColor bool
	// Theme selects the color theme.
	Theme string
	// LogLevel is the zerolog level name.
	LogLevel string

	// RedisAddr enables the term cache when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// ConfigFile is the path of the YAML configuration file.
	ConfigFile string
}

// Default returns the configuration used when nothing is overridden.
func Default() AppConfig {
	return AppConfig{
		Sequence:   DefaultSequence,
		Strategy:   DefaultStrategy,
		Timeout:    DefaultTimeout,
		NaiveLimit: sequence.DefaultNaiveLimit,
		MemoLimit:  sequence.DefaultMemoLimit,
		Port:       DefaultPort,
		Theme:      DefaultTheme,
		LogLevel:   DefaultLogLevel,
		CacheTTL:   DefaultCacheTTL,
	}
}

// BindFlags resets c to Default() and registers the global flags on fs,
// storing into c. Command-specific flags (--seq, --strategy, --port, ...) are
// bound by the commands themselves.
func BindFlags(fs *pflag.FlagSet, c *AppConfig) {
	d := Default()
	*c = d
	fs.StringVar(&c.ConfigFile, "config", "", "Path to a YAML configuration file (also "+ConfigEnv+").")
	fs.DurationVar(&c.Timeout, "timeout", d.Timeout, "Maximum execution time of a command.")
	fs.BoolVar(&c.JSONOutput, "json", false, "Output results as JSON.")
	fs.BoolVarP(&c.Quiet, "quiet", "q", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVarP(&c.Verbose, "verbose", "v", false, "Display full values instead of truncating them.")
	fs.BoolVar(&c.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR).")
	fs.StringVar(&c.Theme, "theme", d.Theme, "Color theme: "+strings.Join(ui.ThemeNames(), ", ")+".")
	fs.StringVar(&c.LogLevel, "log-level", d.LogLevel, "Log level: trace, debug, info, warn, error.")
	fs.StringVar(&c.RedisAddr, "redis-addr", "", "Redis address of the term cache (empty disables caching).")
	fs.StringVar(&c.RedisPassword, "redis-password", "", "Redis password.")
	fs.IntVar(&c.RedisDB, "redis-db", 0, "Redis database number.")
	fs.DurationVar(&c.CacheTTL, "cache-ttl", d.CacheTTL, "Lifetime of cached terms.")
	fs.Uint64Var(&c.NaiveLimit, "naive-limit", d.NaiveLimit, fmt.Sprintf("Largest index accepted by the naive strategy (max %d).", sequence.MaxUint64Index))
	fs.Uint64Var(&c.MemoLimit, "memo-limit", d.MemoLimit, "Largest index accepted by the memoized strategy.")
}

// Load completes c after flag parsing: it reads the configuration file named
// by --config or PHICALC_CONFIG, applies the environment, normalizes names
// and validates the result. Values whose flag was set explicitly in fs are
// never overridden.
//
// Parameters:
//   - fs: The parsed flag set of the running command.
//   - c: The configuration bound to fs.
//
// Returns:
//   - error: A ConfigError if the file or a value is invalid.
func Load(fs *pflag.FlagSet, c *AppConfig) error {
	path := c.ConfigFile
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if err := applyFile(path, c, fs); err != nil {
			return err
		}
	}
	if err := applyEnvOverrides(c, fs); err != nil {
		return err
	}

	c.Sequence = strings.ToLower(strings.TrimSpace(c.Sequence))
	c.Strategy = strings.ToLower(strings.TrimSpace(c.Strategy))
	c.Theme = strings.ToLower(c.Theme)
	c.LogLevel = strings.ToLower(c.LogLevel)
	return c.Validate(sequence.StrategyNames())
}

// Validate checks the semantic consistency of the configuration parameters.
//
// Parameters:
//   - availableStrategies: The canonical strategy names; aliases of these
//     names are accepted too.
//
// Returns:
//   - error: An error of type ConfigError if the configuration is invalid,
//     nil otherwise.
func (c AppConfig) Validate(availableStrategies []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.NaiveLimit > sequence.MaxUint64Index {
		return apperrors.NewConfigError("naive limit %d is above %d", c.NaiveLimit, sequence.MaxUint64Index)
	}
	if _, err := sequence.ParseKind(c.Sequence); err != nil {
		return apperrors.NewConfigError("unrecognized sequence: '%s'", c.Sequence)
	}
	s, err := sequence.ParseStrategy(c.Strategy)
	if err != nil || !contains(availableStrategies, s.String()) {
		return apperrors.NewConfigError("unrecognized strategy: '%s'. Valid strategies are: [%s]",
			c.Strategy, strings.Join(availableStrategies, ", "))
	}
	if !ui.IsValidTheme(c.Theme) {
		return apperrors.NewConfigError("unrecognized theme: '%s'. Valid themes are: [%s]",
			c.Theme, strings.Join(ui.ThemeNames(), ", "))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("unrecognized log level: '%s'", c.LogLevel)
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return apperrors.NewConfigError("invalid port: '%s'", c.Port)
	}
	if c.RedisDB < 0 {
		return apperrors.NewConfigError("redis database cannot be negative: %d", c.RedisDB)
	}
	if c.CacheTTL < 0 {
		return apperrors.NewConfigError("cache TTL cannot be negative: %s", c.CacheTTL)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// EngineOptions converts the strategy limits into engine options.
func (c AppConfig) EngineOptions() []sequence.Option {
	return []sequence.Option{
		sequence.WithNaiveLimit(c.NaiveLimit),
		sequence.WithMemoLimit(c.MemoLimit),
	}
}

// Kind returns the configured default sequence. It assumes Validate passed.
func (c AppConfig) Kind() sequence.Kind {
	k, _ := sequence.ParseKind(c.Sequence)
	return k
}

// StrategyValue returns the configured default strategy. It assumes Validate
// passed.
func (c AppConfig) StrategyValue() sequence.Strategy {
	s, _ := sequence.ParseStrategy(c.Strategy)
	return s
}

// fileConfig mirrors the YAML file. Pointer fields distinguish a missing key
// from a zero value.
type fileConfig struct {
	Sequence   *string        `yaml:"sequence,omitempty"`
	Strategy   *string        `yaml:"strategy,omitempty"`
	Timeout    *time.Duration `yaml:"timeout,omitempty"`
	NaiveLimit *uint64        `yaml:"naive_limit,omitempty"`
	MemoLimit  *uint64        `yaml:"memo_limit,omitempty"`
	MaxIndex   *uint64        `yaml:"max_index,omitempty"`
	Port       *string        `yaml:"port,omitempty"`
	JSON       *bool          `yaml:"json,omitempty"`
	Quiet      *bool          `yaml:"quiet,omitempty"`
	Verbose    *bool          `yaml:"verbose,omitempty"`
	NoColor    *bool          `yaml:"no_color,omitempty"`
	Theme      *string        `yaml:"theme,omitempty"`
	LogLevel   *string        `yaml:"log_level,omitempty"`
	Redis      *redisConfig   `yaml:"redis,omitempty"`
}

type redisConfig struct {
	Addr     *string        `yaml:"addr,omitempty"`
	Password *string        `yaml:"password,omitempty"`
	DB       *int           `yaml:"db,omitempty"`
	TTL      *time.Duration `yaml:"ttl,omitempty"`
}

// applyFile reads the YAML file at path and copies every key whose flag was
// not set explicitly. Unknown keys are rejected.
func applyFile(path string, c *AppConfig, fs *pflag.FlagSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigError("failed to read config: %v", err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewConfigError("failed to parse YAML %s: %v", path, err)
	}

	setValue(fs, "seq", &c.Sequence, fc.Sequence)
	setValue(fs, "strategy", &c.Strategy, fc.Strategy)
	setValue(fs, "timeout", &c.Timeout, fc.Timeout)
	setValue(fs, "naive-limit", &c.NaiveLimit, fc.NaiveLimit)
	setValue(fs, "memo-limit", &c.MemoLimit, fc.MemoLimit)
	setValue(fs, "max-index", &c.MaxIndex, fc.MaxIndex)
	setValue(fs, "port", &c.Port, fc.Port)
	setValue(fs, "json", &c.JSONOutput, fc.JSON)
	setValue(fs, "quiet", &c.Quiet, fc.Quiet)
	setValue(fs, "verbose", &c.Verbose, fc.Verbose)
	setValue(fs, "no-color", &c.NoColor, fc.NoColor)
	setValue(fs, "theme", &c.Theme, fc.Theme)
	setValue(fs, "log-level", &c.LogLevel, fc.LogLevel)
	if r := fc.Redis; r != nil {
		setValue(fs, "redis-addr", &c.RedisAddr, r.Addr)
		setValue(fs, "redis-password", &c.RedisPassword, r.Password)
		setValue(fs, "redis-db", &c.RedisDB, r.DB)
		setValue(fs, "cache-ttl", &c.CacheTTL, r.TTL)
	}
	return nil
}

func setValue[T any](fs *pflag.FlagSet, flag string, dst, src *T) {
	if src != nil && !isFlagSet(fs, flag) {
		*dst = *src
	}
}
