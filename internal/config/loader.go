package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/sanctions/internal/core"
)

// Section names, as accepted by Check. Each is the lower-cased name of a
// Config field.
const (
	SectionTransform = "transform"
	SectionScreen    = "screen"
	SectionValidate  = "validate"
	SectionFetch     = "fetch"
	SectionServer    = "server"
	SectionLogging   = "logging"
)

// issue is one configuration problem and the section it belongs to.
type issue struct {
	section string
	msg     string
}

// Load reads configuration from environment variables and applies defaults
// for unset values. It always returns a usable Config: a variable that does
// not parse keeps its default and is recorded instead. Check reports those
// records, so a bad SERVER_PORT only fails the commands that serve.
func Load() *Config {
	cfg := &Config{}

	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Type.Kind() != reflect.Struct {
			continue
		}
		cfg.issues = append(cfg.issues, loadSection(strings.ToLower(field.Name), v.Field(i))...)
	}

	return cfg
}

// loadSection populates one section struct from environment variables.
func loadSection(section string, v reflect.Value) []issue {
	var issues []issue
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		envName := field.Tag.Get("env")
		if envName == "" || !fieldVal.CanSet() {
			continue
		}
		defaultVal := field.Tag.Get("default")

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" {
			if alt := field.Tag.Get("envAlt"); alt != "" {
				value = os.Getenv(alt)
			}
		}
		if value == "" {
			value = defaultVal
		}
		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			issues = append(issues, issue{section, fmt.Sprintf("invalid value for %s=%q: %v", envName, value, err)})
			if defaultVal != "" {
				_ = setField(fieldVal, defaultVal)
			}
		}
	}

	return issues
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Slice:
		// Comma-separated; blanks dropped
		var result []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Check reports every parse and validation failure in the named sections,
// or in all sections when none are named.
func (c *Config) Check(sections ...string) error {
	var errs []string
	for _, is := range append(slices.Clone(c.issues), c.validate()...) {
		if len(sections) == 0 || slices.Contains(sections, is.section) {
			errs = append(errs, is.msg)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// validate checks value ranges section by section.
func (c *Config) validate() []issue {
	var issues []issue
	add := func(section, format string, args ...any) {
		issues = append(issues, issue{section, fmt.Sprintf(format, args...)})
	}

	if c.Transform.Input == "" {
		add(SectionTransform, "TRANSFORM_INPUT must not be empty")
	}
	if c.Transform.Output == "" {
		add(SectionTransform, "TRANSFORM_OUTPUT must not be empty")
	}
	if _, err := core.ParseShape(c.Transform.Format); err != nil {
		add(SectionTransform, "TRANSFORM_FORMAT (%q) must be one of: simple, graph", c.Transform.Format)
	}

	if c.Validate.MinRows < 0 {
		add(SectionValidate, "VALIDATE_MIN_ROWS must be non-negative")
	}

	if c.Fetch.Timeout <= 0 {
		add(SectionFetch, "FETCH_TIMEOUT must be positive")
	}
	if c.Fetch.Retries < 0 {
		add(SectionFetch, "FETCH_RETRIES must be non-negative")
	}
	if c.Fetch.Backoff < 0 {
		add(SectionFetch, "FETCH_BACKOFF must be non-negative")
	}
	if c.Fetch.MinBytes < 0 {
		add(SectionFetch, "FETCH_MIN_BYTES must be non-negative")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		add(SectionServer, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 {
		add(SectionServer, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		add(SectionServer, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		add(SectionServer, "SERVER_REQUEST_TIMEOUT must be positive")
	}
	if c.Server.MaxBatch <= 0 {
		add(SectionServer, "SERVER_MAX_BATCH must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		add(SectionLogging, "LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		add(SectionLogging, "LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	return issues
}

// String returns a one-line summary of the config for debug logging.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Transform: {Input: %q, Output: %q, Format: %q}, ",
		c.Transform.Input, c.Transform.Output, c.Transform.Format)
	fmt.Fprintf(&b, "Screen: {Input: %q, Entities: %q, Output: %q}, ",
		c.Screen.Input, c.Screen.Entities, c.Screen.Output)
	fmt.Fprintf(&b, "Fetch: {Timeout: %s, Retries: %d, SourcesFile: %q}, ",
		c.Fetch.Timeout, c.Fetch.Retries, c.Fetch.SourcesFile)
	fmt.Fprintf(&b, "Server: {Addr: %q}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
