// Package config loads contextview settings.
//
// Settings are layered: built-in defaults, then an optional TOML or YAML
// file, then CONTEXTVIEW_* environment variables. Later layers override
// earlier ones field by field.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/contextview/internal/app"
)

// Summarizer kinds.
const (
	SummarizerNone    = "none"
	SummarizerPattern = "pattern"
	SummarizerLua     = "lua"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the complete contextview configuration.
type Config struct {
	Log        LogConfig        `toml:"log" yaml:"log"`
	Summarizer SummarizerConfig `toml:"summarizer" yaml:"summarizer"`
	Session    SessionConfig    `toml:"session" yaml:"session"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	// Kind is one of "none", "pattern" or "lua".
	Kind string `toml:"kind" yaml:"kind"`

	// Patterns are regular expressions for the pattern summarizer.
	Patterns []string `toml:"patterns" yaml:"patterns"`

	// Script is the Lua script path for the lua summarizer.
	Script string `toml:"script" yaml:"script"`

	// EntryPoint is the Lua function to call.
	EntryPoint string `toml:"entry_point" yaml:"entry_point"`

	// TimeoutMS bounds one script run, in milliseconds.
	TimeoutMS int `toml:"timeout_ms" yaml:"timeout_ms"`

	// Watch reloads the script when it changes.
	Watch bool `toml:"watch" yaml:"watch"`
}

// Timeout returns TimeoutMS as a duration.
func (s SummarizerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMS) * time.Millisecond
}

// SessionConfig configures the document manager.
type SessionConfig struct {
	// MaxDocuments limits open documents. Zero means no limit.
	MaxDocuments int `toml:"max_documents" yaml:"max_documents"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: FormatText,
		},
		Summarizer: SummarizerConfig{
			Kind:       SummarizerNone,
			EntryPoint: "summarize",
			TimeoutMS:  2000,
		},
	}
}

// Validate checks every setting.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(path, msg string, v any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v})
	}

	if !app.ValidLogLevel(c.Log.Level) {
		invalid("log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	if c.Log.Format != FormatText && c.Log.Format != FormatJSON {
		invalid("log.format", "must be text or json", c.Log.Format)
	}

	switch c.Summarizer.Kind {
	case SummarizerNone:
	case SummarizerPattern:
		if len(c.Summarizer.Patterns) == 0 {
			invalid("summarizer.patterns", "pattern summarizer needs at least one pattern", c.Summarizer.Patterns)
		}
	case SummarizerLua:
		if c.Summarizer.Script == "" {
			invalid("summarizer.script", "lua summarizer needs a script", c.Summarizer.Script)
		}
		if c.Summarizer.EntryPoint == "" {
			invalid("summarizer.entry_point", "must not be empty", c.Summarizer.EntryPoint)
		}
	default:
		invalid("summarizer.kind", "must be none, pattern or lua", c.Summarizer.Kind)
	}
	if c.Summarizer.TimeoutMS < 0 {
		invalid("summarizer.timeout_ms", "must not be negative", c.Summarizer.TimeoutMS)
	}
	if c.Session.MaxDocuments < 0 {
		invalid("session.max_documents", "must not be negative", c.Session.MaxDocuments)
	}

	return errors.Join(errs...)
}

// LoggerConfig converts the log settings.
func (c *Config) LoggerConfig() app.LoggerConfig {
	cfg := app.DefaultLoggerConfig()
	cfg.Level = app.ParseLogLevel(c.Log.Level)
	cfg.JSON = c.Log.Format == FormatJSON
	return cfg
}

// Load builds a configuration from defaults, the file at path (skipped when
// path is empty) and the process environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeFile overlays the settings in a TOML or YAML file. Settings absent
// from the file keep their current values. Unknown keys are errors.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return c.mergeTOML(path, data)
	case ".yaml", ".yml":
		return c.mergeYAML(path, data)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func (c *Config) mergeTOML(path string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return pe
	}
	return nil
}

func (c *Config) mergeYAML(path string, data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		// An empty document is not an error.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}
