package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// ErrMissingSecret reports a required secret absent from the environment.
// It is the only fatal startup condition of the service.
var ErrMissingSecret = errors.New("missing required secret")

// Secrets are read from the environment only.
type Secrets struct {
	PracticumToken string `envconfig:"PRACTICUM_TOKEN"`
	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`
}

// Overrides are optional environment values that win over the file.
type Overrides struct {
	PracticumEndpoint string `envconfig:"PRACTICUM_ENDPOINT"`
	PollInterval      string `envconfig:"HWBOT_POLL_INTERVAL"`
	LogLevel          string `envconfig:"HWBOT_LOG_LEVEL"`
}

// LoadSecrets reads and checks all three secrets. Every missing name is
// listed in the returned error, which wraps ErrMissingSecret.
func LoadSecrets() (Secrets, error) {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return Secrets{}, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Secrets{}, err
	}
	return s, nil
}

func (s Secrets) Validate() error {
	var missing []string
	if strings.TrimSpace(s.PracticumToken) == "" {
		missing = append(missing, "PRACTICUM_TOKEN")
	}
	if strings.TrimSpace(s.TelegramToken) == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if strings.TrimSpace(s.TelegramChatID) == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSecret, strings.Join(missing, ", "))
	}
	return nil
}

func loadOverrides() (Overrides, error) {
	var o Overrides
	if err := envconfig.Process("", &o); err != nil {
		return Overrides{}, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return o, nil
}

func (c *Config) applyOverrides(o Overrides) {
	if v := strings.TrimSpace(o.PracticumEndpoint); v != "" {
		c.Practicum.Endpoint = v
	}
	if v := strings.TrimSpace(o.PollInterval); v != "" {
		c.Poll.Interval = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		c.Logging.Level = v
	}
}
