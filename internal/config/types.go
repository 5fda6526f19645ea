package config

// Config is the on-disk configuration. Every section is optional; secrets
// never live here, they come from the environment (see Secrets).
type Config struct {
	Practicum     PracticumConfig     `json:"practicum"`
	Telegram      TelegramConfig      `json:"telegram"`
	Poll          PollConfig          `json:"poll"`
	Catalog       CatalogConfig       `json:"catalog"`
	Logging       LoggingConfig       `json:"logging"`
	Observability ObservabilityConfig `json:"observability"`
	Systemd       SystemdConfig       `json:"systemd"`

	Secrets Secrets `json:"-"`
}

type PracticumConfig struct {
	Endpoint string `json:"endpoint,omitempty"`
	// AuthScheme prefixes the token in the Authorization header (default "OAuth").
	AuthScheme string `json:"auth_scheme,omitempty"`
	// RequestTimeout is a Go duration string (e.g. "30s").
	RequestTimeout string `json:"request_timeout,omitempty"`
}

type TelegramConfig struct {
	// ThreadID targets a forum topic inside the recipient chat (0 = none).
	ThreadID       int    `json:"thread_id,omitempty"`
	RatePerSec     int    `json:"rate_per_sec,omitempty"`
	SendTimeout    string `json:"send_timeout,omitempty"`
	DisablePreview *bool  `json:"disable_preview,omitempty"`
	HistorySize    int    `json:"history_size,omitempty"`
	APIURL         string `json:"api_url,omitempty"`
}

// PollConfig controls the poll loop.
//
// Defaults (when fields are omitted/zero):
//   - interval: "600s"
//   - advance_cursor: true
//   - start_from: 0 (process start time)
type PollConfig struct {
	Interval string `json:"interval,omitempty"`
	// AdvanceCursor is a pointer so an explicit false is distinguishable from "omitted".
	AdvanceCursor *bool `json:"advance_cursor,omitempty"`
	StartFrom     int64 `json:"start_from,omitempty"`
}

type CatalogConfig struct {
	Language string `json:"language,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// ObservabilityConfig controls the optional HTTP endpoint
// (/healthz, /status, /metrics, /debug/pprof/).
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:9090").
//   - A non-loopback address requires a token or allow_insecure.
type ObservabilityConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`
	Token         string `json:"token,omitempty"` // optional bearer token (do not log)
	AllowInsecure bool   `json:"allow_insecure,omitempty"`
	Pprof         bool   `json:"pprof,omitempty"`
	ReadTimeout   string `json:"read_timeout,omitempty"`
	IdleTimeout   string `json:"idle_timeout,omitempty"`
}

type SystemdConfig struct {
	// Notify sends READY/STOPPING/WATCHDOG to systemd when NOTIFY_SOCKET is set.
	Notify bool `json:"notify"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Console: true},
		Systemd: SystemdConfig{Notify: true},
	}
}
