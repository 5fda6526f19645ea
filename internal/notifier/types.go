package notifier

import (
	"time"

	kit "hwbot/internal/transport"
)

// Config controls delivery.
type Config struct {
	Target         kit.ChatTarget
	RatePerSec     int
	SendTimeout    time.Duration
	DisablePreview bool
	HistorySize    int
}

// HistoryItem records one delivery attempt.
type HistoryItem struct {
	At    time.Time `json:"at"`
	Text  string    `json:"text"`
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
}
