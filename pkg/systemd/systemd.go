// Package systemd reports service state to the systemd manager over the
// sd_notify socket. Every call is a no-op when the process was not started
// by systemd (NOTIFY_SOCKET unset) or when notifications are disabled.
package systemd

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "hwbot/pkg/logx"
)

type Notifier struct {
	enabled bool
	log     logx.Logger

	notify   func(state string) (bool, error)
	watchdog func() (time.Duration, error)
}

func New(enabled bool, log logx.Logger) *Notifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Notifier{
		enabled:  enabled,
		log:      log.With(logx.String("comp", "systemd")),
		notify:   func(state string) (bool, error) { return daemon.SdNotify(false, state) },
		watchdog: func() (time.Duration, error) { return daemon.SdWatchdogEnabled(false) },
	}
}

// Ready sends READY=1 with a human readable status line.
func (n *Notifier) Ready(status string) {
	n.send(daemon.SdNotifyReady + "\nSTATUS=" + status)
}

func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

func (n *Notifier) Status(status string) {
	n.send("STATUS=" + status)
}

func (n *Notifier) send(state string) bool {
	if n == nil || !n.enabled {
		return false
	}
	sent, err := n.notify(state)
	if err != nil {
		n.log.Warn("sd_notify failed", logx.Err(err))
		return false
	}
	return sent
}

// Watchdog pings WATCHDOG=1 at half the interval configured with
// WatchdogSec= until ctx is done. Returns immediately when the watchdog
// is not enabled for this process.
func (n *Notifier) Watchdog(ctx context.Context) error {
	if n == nil || !n.enabled {
		return nil
	}
	interval, err := n.watchdog()
	if err != nil {
		return err
	}
	if interval <= 0 {
		return nil
	}
	every := interval / 2
	n.log.Info("watchdog enabled", logx.Duration("interval", interval))

	t := time.NewTicker(every)
	defer t.Stop()
	for {
		n.send(daemon.SdNotifyWatchdog)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
