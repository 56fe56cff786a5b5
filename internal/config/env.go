package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "CONTEXTVIEW_"

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// envSetter applies one environment value to the configuration.
type envSetter func(c *Config, val string) error

// envMapping maps environment variables to settings.
var envMapping = map[string]envSetter{
	EnvPrefix + "LOG_LEVEL": func(c *Config, v string) error {
		c.Log.Level = v
		return nil
	},
	EnvPrefix + "LOG_FORMAT": func(c *Config, v string) error {
		c.Log.Format = v
		return nil
	},
	EnvPrefix + "SUMMARIZER": func(c *Config, v string) error {
		c.Summarizer.Kind = v
		return nil
	},
	EnvPrefix + "PATTERNS": func(c *Config, v string) error {
		c.Summarizer.Patterns = splitList(v)
		return nil
	},
	EnvPrefix + "SCRIPT": func(c *Config, v string) error {
		c.Summarizer.Script = v
		return nil
	},
	EnvPrefix + "ENTRY_POINT": func(c *Config, v string) error {
		c.Summarizer.EntryPoint = v
		return nil
	},
	EnvPrefix + "TIMEOUT_MS": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Summarizer.TimeoutMS = n
		return nil
	},
	EnvPrefix + "WATCH": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Summarizer.Watch = b
		return nil
	},
	EnvPrefix + "MAX_DOCUMENTS": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Session.MaxDocuments = n
		return nil
	},
}

// EnvVars returns the names of all recognized environment variables.
func EnvVars() []string {
	names := make([]string, 0, len(envMapping))
	for name := range envMapping {
		names = append(names, name)
	}
	return names
}

// ApplyEnv overrides settings from environment variables found by lookup.
// Empty values are treated as set.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for name, set := range envMapping {
		val, ok := lookup(name)
		if !ok {
			continue
		}
		if err := set(c, strings.TrimSpace(val)); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, name, val, err)
		}
	}
	return nil
}

// splitList splits a comma separated value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
