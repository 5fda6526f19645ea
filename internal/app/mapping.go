package app

import (
	"fmt"
	"strings"

	"hwbot/internal/config"
	"hwbot/internal/notifier"
	"hwbot/internal/observability/server"
	"hwbot/internal/practicum"
	kit "hwbot/internal/transport"
	telegram "hwbot/internal/transport/telegram/adapter"
	"hwbot/internal/watch"
	logx "hwbot/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapPracticumConfig(cfg *config.Config) (practicum.Config, error) {
	ts, err := cfg.Timeouts()
	if err != nil {
		return practicum.Config{}, err
	}
	return practicum.Config{
		Endpoint:   strings.TrimSpace(cfg.Practicum.Endpoint),
		Token:      cfg.Secrets.PracticumToken,
		AuthScheme: strings.TrimSpace(cfg.Practicum.AuthScheme),
		Timeout:    ts.Request,
	}, nil
}

func mapTelegramConfig(cfg *config.Config) (telegram.Config, error) {
	ts, err := cfg.Timeouts()
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:   cfg.Secrets.TelegramToken,
		Timeout: ts.Send,
		URL:     strings.TrimSpace(cfg.Telegram.APIURL),
	}, nil
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	chatID, err := cfg.ChatID()
	if err != nil {
		return notifier.Config{}, err
	}
	ts, err := cfg.Timeouts()
	if err != nil {
		return notifier.Config{}, err
	}
	if cfg.Telegram.RatePerSec < 0 {
		return notifier.Config{}, fmt.Errorf("telegram.rate_per_sec must be >= 0")
	}
	history := cfg.Telegram.HistorySize
	if history == 0 {
		history = 20
	}
	return notifier.Config{
		Target:         kit.ChatTarget{ChatID: chatID, ThreadID: cfg.Telegram.ThreadID},
		RatePerSec:     cfg.Telegram.RatePerSec,
		SendTimeout:    ts.Send,
		DisablePreview: cfg.DisablePreview(),
		HistorySize:    history,
	}, nil
}

func mapWatchConfig(cfg *config.Config) (watch.Config, error) {
	ts, err := cfg.Timeouts()
	if err != nil {
		return watch.Config{}, err
	}
	return watch.Config{
		Interval:      ts.PollInterval,
		AdvanceCursor: cfg.AdvanceCursor(),
		StartFrom:     cfg.Poll.StartFrom,
	}, nil
}

// mapObservabilityConfig reports enabled=false when the endpoint is off.
func mapObservabilityConfig(cfg *config.Config) (server.Config, bool, error) {
	oc := cfg.Observability
	if !oc.Enabled {
		return server.Config{}, false, nil
	}
	ts, err := cfg.Timeouts()
	if err != nil {
		return server.Config{}, false, err
	}
	return server.Config{
		Addr:          oc.Addr,
		Token:         oc.Token,
		AllowInsecure: oc.AllowInsecure,
		Pprof:         oc.Pprof,
		ReadTimeout:   ts.ObservabilityRead,
		IdleTimeout:   ts.ObservabilityIdle,
	}, true, nil
}
