package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultSendTimeout    = 15 * time.Second
	DefaultPollInterval   = 600 * time.Second
	DefaultReadTimeout    = 10 * time.Second
	DefaultIdleTimeout    = 60 * time.Second
)

// Timeouts holds every duration setting with defaults applied.
type Timeouts struct {
	Request           time.Duration // practicum.request_timeout
	Send              time.Duration // telegram.send_timeout
	PollInterval      time.Duration // poll.interval
	ObservabilityRead time.Duration // observability.read_timeout
	ObservabilityIdle time.Duration // observability.idle_timeout
}

// Timeouts parses the duration strings of every section. Empty or "0s"
// selects the default; errors name the offending key.
func (c *Config) Timeouts() (Timeouts, error) {
	var t Timeouts
	fields := []struct {
		key string
		raw string
		def time.Duration
		dst *time.Duration
	}{
		{"practicum.request_timeout", c.Practicum.RequestTimeout, DefaultRequestTimeout, &t.Request},
		{"telegram.send_timeout", c.Telegram.SendTimeout, DefaultSendTimeout, &t.Send},
		{"poll.interval", c.Poll.Interval, DefaultPollInterval, &t.PollInterval},
		{"observability.read_timeout", c.Observability.ReadTimeout, DefaultReadTimeout, &t.ObservabilityRead},
		{"observability.idle_timeout", c.Observability.IdleTimeout, DefaultIdleTimeout, &t.ObservabilityIdle},
	}
	for _, f := range fields {
		d, err := parseDuration(f.key, f.raw)
		if err != nil {
			return Timeouts{}, err
		}
		if d == 0 {
			d = f.def
		}
		*f.dst = d
	}
	return t, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q (want e.g. \"30s\" or \"10m\")", key, raw)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must not be negative", key)
	}
	return d, nil
}
