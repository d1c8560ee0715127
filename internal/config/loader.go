package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"
)

// Load reads and strictly decodes the config file at path. YAML is the
// primary format; a .json file is accepted as-is. Unknown keys and
// trailing tokens are rejected so typos fail at startup instead of being
// silently ignored.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jb, err := toJSON(path, raw)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config: trailing data")
		}
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// toJSON funnels both formats through the one strict JSON decode above.
// YAML input is unmarshaled loosely, its map keys stringified (JSON has no
// non-string keys) and re-marshaled.
func toJSON(path string, raw []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return raw, nil
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return json.Marshal(stringifyKeys(doc))
}

func stringifyKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = stringifyKeys(e)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = stringifyKeys(e)
		}
		return m
	case []any:
		for i, e := range t {
			t[i] = stringifyKeys(e)
		}
		return t
	}
	return v
}

// Durations travel through the config as Go duration strings ("5m",
// "26h") and become typed at wiring time in cmd/remindbot.

// ParseDurationField parses one such field. Empty means unset and yields
// zero; negatives are rejected.
func ParseDurationField(path, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: %q is not a duration (want Go syntax, e.g. \"5m\" or \"26h\"): %w", path, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: %q is negative", path, raw)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with a fallback for unset
// fields.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil || d > 0 {
		return d, err
	}
	return def, nil
}

func (c *Config) validate() error {
	switch strings.TrimSpace(c.Storage.Driver) {
	case "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			return errors.New("storage.path is required for the sqlite driver")
		}
	case "mysql":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return errors.New("storage.dsn is required for the mysql driver")
		}
	case "":
		return errors.New("storage.driver is required (sqlite or mysql)")
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}

	if strings.TrimSpace(c.WhatsApp.StorePath) == "" {
		return errors.New("whatsapp.store_path is required")
	}

	// Durations are parsed where they are consumed; validate them here so
	// a bad value fails at startup rather than mid-run.
	for _, f := range []struct{ path, raw string }{
		{"storage.busy_timeout", c.Storage.BusyTimeout},
		{"storage.ping_timeout", c.Storage.PingTimeout},
		{"session.reconnect_delay", c.Session.ReconnectDelay},
		{"notify.interval", c.Notify.Interval},
		{"notify.window", c.Notify.Window},
		{"notify.min_lead", c.Notify.MinLead},
	} {
		if _, err := ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	return nil
}
