package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hwbot/internal/app"
	"hwbot/internal/config"
	logx "hwbot/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to config json/yaml (optional)")
	flag.Parse()

	boot := logx.NewConsole("info").With(logx.String("comp", "main"))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if errors.Is(err, config.ErrMissingSecret) {
			boot.Error("required environment variables are missing; refusing to start", logx.Err(err))
		} else {
			boot.Error("config load failed", logx.Err(err))
		}
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		boot.Error("fatal", logx.Err(err))
		os.Exit(1)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	if err := a.Start(context.Background()); err != nil {
		boot.Error("fatal start", logx.Err(err))
		os.Exit(1)
	}

	reason := app.StopFatalError
	select {
	case sig := <-sigs:
		reason = app.StopReasonFromSignal(sig)
	case <-a.Done():
	}

	if reason == app.StopFatalError {
		a.Logger().Error("exiting after fatal error", logx.Err(a.Err()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = a.Stop(ctx, reason)
	cancel()
	if reason == app.StopFatalError {
		os.Exit(1)
	}
}
