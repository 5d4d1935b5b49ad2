package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// envTag is the parsed form of a field's env, envAlt, default and required tags.
type envTag struct {
	name     string
	alt      string
	fallback string
	required bool
}

func parseEnvTag(f reflect.StructField) (envTag, bool) {
	name := f.Tag.Get("env")
	if name == "" {
		return envTag{}, false
	}
	return envTag{
		name:     name,
		alt:      f.Tag.Get("envAlt"),
		fallback: f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
	}, true
}

// value returns the primary variable, then the alternate, then the default.
func (t envTag) value() (string, error) {
	for _, key := range []string{t.name, t.alt} {
		if key == "" {
			continue
		}
		if v := os.Getenv(key); v != "" {
			return v, nil
		}
	}
	if t.required {
		return "", fmt.Errorf("required environment variable %s is not set", t.name)
	}
	return t.fallback, nil
}

// loadStruct fills tagged fields of v and its nested structs. Every bad
// variable is reported, not only the first.
func loadStruct(v reflect.Value) error {
	var errs []error

	for i := 0; i < v.NumField(); i++ {
		sf := v.Type().Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		if sf.Type.Kind() == reflect.Struct && sf.Type != timeType {
			if err := loadStruct(fv); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		tag, ok := parseEnvTag(sf)
		if !ok {
			continue
		}
		raw, err := tag.value()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if raw == "" {
			continue
		}
		if err := setField(fv, raw); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %s=%q: %w", tag.name, raw, err))
		}
	}

	return errors.Join(errs...)
}

// setField converts raw to the field's type. Durations use
// time.ParseDuration and string slices are comma separated.
func setField(field reflect.Value, raw string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// problems collects validation failures.
type problems []string

func (p *problems) require(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var p problems

	db := c.Database
	p.require(db.URL != "", "DATABASE_URL is required")
	p.require(db.MaxConns > 0, "DB_MAX_CONNS must be positive")
	p.require(db.MinConns >= 0, "DB_MIN_CONNS must be non-negative")
	p.require(db.MaxConns >= db.MinConns, "DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", db.MaxConns, db.MinConns)
	p.require(db.ConnectTimeout > 0, "DB_CONNECT_TIMEOUT must be positive")

	srv := c.Server
	p.require(srv.Port > 0 && srv.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", srv.Port)
	p.require(srv.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.require(srv.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	imp := c.Import
	p.require(imp.MaxFileSize > 0, "IMPORT_MAX_FILE_SIZE must be positive")
	p.require(imp.BatchSize > 0, "IMPORT_BATCH_SIZE must be positive")
	p.require(imp.StreamBatchSize > 0, "IMPORT_STREAM_BATCH_SIZE must be positive")
	p.require(imp.ProgressInterval >= 0, "IMPORT_PROGRESS_INTERVAL must be non-negative")
	p.require(imp.MaxConcurrent > 0, "IMPORT_MAX_CONCURRENT must be positive")
	p.require(imp.MaxWaitTime > 0, "IMPORT_MAX_WAIT_TIME must be positive")

	p.require(c.History.RetentionDays >= 0, "HISTORY_RETENTION_DAYS must be non-negative")
	p.require(c.History.RetentionDays == 0 || c.History.PruneInterval > 0,
		"HISTORY_PRUNE_INTERVAL must be positive when retention is enabled")

	p.require(c.Search.DefaultLimit > 0, "SEARCH_DEFAULT_LIMIT must be positive")
	p.require(c.Search.MaxLimit >= c.Search.DefaultLimit,
		"SEARCH_MAX_LIMIT (%d) must be >= SEARCH_DEFAULT_LIMIT (%d)", c.Search.MaxLimit, c.Search.DefaultLimit)

	if c.Rate.Enabled {
		p.require(c.Rate.RequestsPerMinute > 0, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
		p.require(c.Rate.ImportLimit > 0, "RATE_LIMIT_IMPORT must be positive when rate limiting is enabled")
	}

	p.require(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		p.require(false, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		p.require(false, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}
	p.require(c.Logging.File == "" || c.Logging.FileMaxSizeMB > 0,
		"LOG_FILE_MAX_SIZE_MB must be positive when LOG_FILE is set")

	return p.err()
}

// String summarizes the config for startup logs. The database URL and
// API keys never appear.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{addr=%s db=[MASKED] pool=%d-%d import={max_size=%d batch=%d stream_batch=%d concurrent=%d} "+
			"history_days=%d rate=%v/%d api_keys=%d log=%s/%s}",
		c.Server.Addr(),
		c.Database.MinConns, c.Database.MaxConns,
		c.Import.MaxFileSize, c.Import.BatchSize, c.Import.StreamBatchSize, c.Import.MaxConcurrent,
		c.History.RetentionDays,
		c.Rate.Enabled, c.Rate.RequestsPerMinute,
		len(c.Security.APIKeys),
		c.Logging.Level, c.Logging.Format,
	)
}
