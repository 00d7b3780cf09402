package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/phicalc/internal/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// lookupEnv returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) and whether it is set to a non-empty value.
func lookupEnv(key string) (string, bool) {
	val := os.Getenv(EnvPrefix + key)
	return val, val != ""
}

// parseEnvBool accepts "true", "1", "yes" as true and "false", "0", "no" as
// false (case-insensitive).
func parseEnvBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

// isFlagSet checks if a flag was explicitly set on the command line. Flags
// the running command does not define count as unset.
func isFlagSet(fs *pflag.FlagSet, names ...string) bool {
	if fs == nil {
		return false
	}
	for _, name := range names {
		if f := fs.Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}

// envBinding ties a PHICALC_* variable to the flag it shadows and the parser
// that stores it.
type envBinding struct {
	key   string
	flag  string
	apply func(c *AppConfig, val string) error
}

var envBindings = []envBinding{
	{"SEQUENCE", "seq", func(c *AppConfig, v string) error { c.Sequence = v; return nil }},
	{"STRATEGY", "strategy", func(c *AppConfig, v string) error { c.Strategy = v; return nil }},
	{"TIMEOUT", "timeout", func(c *AppConfig, v string) error { return parseDuration(v, &c.Timeout) }},
	{"NAIVE_LIMIT", "naive-limit", func(c *AppConfig, v string) error { return parseUint(v, &c.NaiveLimit) }},
	{"MEMO_LIMIT", "memo-limit", func(c *AppConfig, v string) error { return parseUint(v, &c.MemoLimit) }},
	{"MAX_INDEX", "max-index", func(c *AppConfig, v string) error { return parseUint(v, &c.MaxIndex) }},
	{"PORT", "port", func(c *AppConfig, v string) error { c.Port = v; return nil }},
	{"JSON", "json", func(c *AppConfig, v string) error { return parseBool(v, &c.JSONOutput) }},
	{"QUIET", "quiet", func(c *AppConfig, v string) error { return parseBool(v, &c.Quiet) }},
	{"VERBOSE", "verbose", func(c *AppConfig, v string) error { return parseBool(v, &c.Verbose) }},
	{"HEX", "hex", func(c *AppConfig, v string) error { return parseBool(v, &c.HexOutput) }},
	{"OUTPUT", "output", func(c *AppConfig, v string) error { c.OutputFile = v; return nil }},
	{"NO_COLOR", "no-color", func(c *AppConfig, v string) error { return parseBool(v, &c.NoColor) }},
	{"THEME", "theme", func(c *AppConfig, v string) error { c.Theme = v; return nil }},
	{"LOG_LEVEL", "log-level", func(c *AppConfig, v string) error { c.LogLevel = v; return nil }},
	{"REDIS_ADDR", "redis-addr", func(c *AppConfig, v string) error { c.RedisAddr = v; return nil }},
	{"REDIS_PASSWORD", "redis-password", func(c *AppConfig, v string) error { c.RedisPassword = v; return nil }},
	{"REDIS_DB", "redis-db", func(c *AppConfig, v string) error { return parseInt(v, &c.RedisDB) }},
	{"CACHE_TTL", "cache-ttl", func(c *AppConfig, v string) error { return parseDuration(v, &c.CacheTTL) }},
}

func parseDuration(v string, dst *time.Duration) error {
	d, err := time.ParseDuration(v)
	if err == nil {
		*dst = d
	}
	return err
}

func parseUint(v string, dst *uint64) error {
	n, err := strconv.ParseUint(v, 10, 64)
	if err == nil {
		*dst = n
	}
	return err
}

func parseInt(v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err == nil {
		*dst = n
	}
	return err
}

func parseBool(v string, dst *bool) error {
	b, err := parseEnvBool(v)
	if err == nil {
		*dst = b
	}
	return err
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > File > Defaults.
//
// Supported environment variables (all prefixed with PHICALC_):
//   - SEQUENCE, STRATEGY: default sequence and strategy
//   - TIMEOUT: command timeout (duration: "5m", "30s")
//   - NAIVE_LIMIT, MEMO_LIMIT, MAX_INDEX: index limits (uint64)
//   - PORT: port for server mode
//   - JSON, QUIET, VERBOSE, HEX, NO_COLOR: output switches (bool: true/false, 1/0, yes/no)
//   - OUTPUT: output file path
//   - THEME, LOG_LEVEL: presentation and logging
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, CACHE_TTL: term cache
//
// Unlike flags, a malformed value is reported as a ConfigError instead of
// being ignored silently.
func applyEnvOverrides(c *AppConfig, fs *pflag.FlagSet) error {
	for _, b := range envBindings {
		if isFlagSet(fs, b.flag) {
			continue
		}
		val, ok := lookupEnv(b.key)
		if !ok {
			continue
		}
		if err := b.apply(c, val); err != nil {
			return apperrors.NewConfigError("invalid value %q for %s%s", val, EnvPrefix, b.key)
		}
	}
	return nil
}
