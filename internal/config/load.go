package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"hwbot/internal/homework"
	logx "hwbot/pkg/logx"
)

// Parse reads and strictly decodes a config file (.json, .yaml or .yml).
// Unknown keys and trailing data are rejected.
func Parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := formatOf(path)
	jb := b
	if format == formatYAML {
		if jb, err = yamlToJSON(b); err != nil {
			return nil, fmt.Errorf("yaml config %s: %w", path, err)
		}
	}

	cfg := Defaults()
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%s config %s: %w", format, path, err)
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid config %s: trailing data", path)
		}
		return nil, err
	}
	return cfg, nil
}

// Load builds the runtime configuration: file (optional), then environment
// overrides, then secrets. A missing secret returns an error wrapping
// ErrMissingSecret; nothing else in the service is fatal.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		c, err := Parse(path)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	o, err := loadOverrides()
	if err != nil {
		return nil, err
	}
	cfg.applyOverrides(o)

	sec, err := LoadSecrets()
	if err != nil {
		return nil, err
	}
	cfg.Secrets = sec

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks everything that can be checked without network access.
func (c *Config) Validate() error {
	if err := c.Secrets.Validate(); err != nil {
		return err
	}
	if _, err := c.ChatID(); err != nil {
		return err
	}
	if ep := strings.TrimSpace(c.Practicum.Endpoint); ep != "" {
		u, err := url.Parse(ep)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("practicum.endpoint: invalid url %q", ep)
		}
	}
	if _, err := c.Timeouts(); err != nil {
		return err
	}
	if c.Telegram.RatePerSec < 0 {
		return fmt.Errorf("telegram.rate_per_sec must be >= 0")
	}
	if c.Telegram.HistorySize < 0 {
		return fmt.Errorf("telegram.history_size must be >= 0")
	}
	if c.Poll.StartFrom < 0 {
		return fmt.Errorf("poll.start_from must be >= 0")
	}
	if _, err := homework.NewCatalog(c.Catalog.Language); err != nil {
		return fmt.Errorf("catalog.language: %w", err)
	}
	if !logx.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Observability.Enabled && strings.TrimSpace(c.Observability.Addr) != "" {
		if _, _, err := net.SplitHostPort(c.Observability.Addr); err != nil {
			return fmt.Errorf("observability.addr: %w", err)
		}
	}
	return nil
}

// ChatID parses TELEGRAM_CHAT_ID (numeric id; negative for groups).
func (c *Config) ChatID() (int64, error) {
	raw := strings.TrimSpace(c.Secrets.TelegramChatID)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("TELEGRAM_CHAT_ID: invalid chat id %q", raw)
	}
	return id, nil
}

// AdvanceCursor defaults to true when omitted.
func (c *Config) AdvanceCursor() bool {
	if c.Poll.AdvanceCursor == nil {
		return true
	}
	return *c.Poll.AdvanceCursor
}

// DisablePreview defaults to true when omitted.
func (c *Config) DisablePreview() bool {
	if c.Telegram.DisablePreview == nil {
		return true
	}
	return *c.Telegram.DisablePreview
}
