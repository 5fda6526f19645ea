package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"hwbot/internal/config"
	"hwbot/internal/homework"
	"hwbot/internal/notifier"
	"hwbot/internal/observability/metrics"
	"hwbot/internal/observability/server"
	"hwbot/internal/practicum"
	"hwbot/internal/runtime/supervisor"
	kit "hwbot/internal/transport"
	telegram "hwbot/internal/transport/telegram/adapter"
	"hwbot/internal/watch"
	logx "hwbot/pkg/logx"
	"hwbot/pkg/systemd"
)

type App struct {
	cfg *config.Config

	log  logx.Logger
	sink *logx.Sink

	metrics *metrics.Recorder
	notif   *notifier.Service
	loop    *watch.Loop
	obs     *server.Service
	sd      *systemd.Notifier

	mu        sync.Mutex
	sup       *supervisor.Supervisor
	startedAt time.Time
}

type Option func(*options)

type options struct {
	log        logx.Logger
	sender     kit.Sender
	clock      watch.Clock
	httpClient *http.Client
}

// WithLogger skips opening the configured log sinks.
func WithLogger(log logx.Logger) Option { return func(o *options) { o.log = log } }

// WithSender replaces the Telegram adapter.
func WithSender(s kit.Sender) Option { return func(o *options) { o.sender = s } }

func WithClock(c watch.Clock) Option { return func(o *options) { o.clock = c } }

// WithHTTPClient is used for status API requests.
func WithHTTPClient(hc *http.Client) Option { return func(o *options) { o.httpClient = hc } }

// New wires every component from cfg. Nothing starts running until Start.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	a := &App{cfg: cfg, log: o.log}
	if a.log.IsZero() {
		a.log, a.sink = logx.Open(mapLogConfig(cfg))
	}
	log := a.log

	a.metrics = metrics.New()

	catalog, err := homework.NewCatalog(cfg.Catalog.Language)
	if err != nil {
		return nil, a.fail(err)
	}

	pcfg, err := mapPracticumConfig(cfg)
	if err != nil {
		return nil, a.fail(err)
	}
	popts := []practicum.Option{practicum.WithLogger(log.With(logx.String("comp", "practicum")))}
	if o.httpClient != nil {
		popts = append(popts, practicum.WithHTTPClient(o.httpClient))
	}
	poller, err := practicum.New(pcfg, popts...)
	if err != nil {
		return nil, a.fail(err)
	}

	sender := o.sender
	if sender == nil {
		tcfg, err := mapTelegramConfig(cfg)
		if err != nil {
			return nil, a.fail(err)
		}
		ad, err := telegram.New(tcfg, log.With(logx.String("comp", "telegram")))
		if err != nil {
			return nil, a.fail(fmt.Errorf("telegram: %w", err))
		}
		sender = ad
	}

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, a.fail(err)
	}
	a.notif = notifier.New(ncfg, sender, log.With(logx.String("comp", "notifier")))

	wcfg, err := mapWatchConfig(cfg)
	if err != nil {
		return nil, a.fail(err)
	}
	wopts := []watch.Option{
		watch.WithLogger(log.With(logx.String("comp", "watch"))),
		watch.WithMetrics(a.metrics),
	}
	if o.clock != nil {
		wopts = append(wopts, watch.WithClock(o.clock))
	}
	a.loop, err = watch.New(wcfg, poller, homework.NewParser(catalog), a.notif, wopts...)
	if err != nil {
		return nil, a.fail(err)
	}

	ocfg, enabled, err := mapObservabilityConfig(cfg)
	if err != nil {
		return nil, a.fail(err)
	}
	if enabled {
		a.obs, err = server.New(ocfg, a.Status, a.metrics, log)
		if err != nil {
			return nil, a.fail(err)
		}
	}

	a.sd = systemd.New(cfg.Systemd.Notify, log)

	log.Info("app configured",
		logx.String("endpoint", poller.Endpoint()),
		logx.String("catalog", catalog.Language()),
		logx.Duration("interval", wcfg.Interval),
		logx.Bool("observability", enabled),
		logx.Secret("practicum_token", cfg.Secrets.PracticumToken),
		logx.Secret("telegram_token", cfg.Secrets.TelegramToken),
	)
	return a, nil
}

func (a *App) fail(err error) error {
	_ = a.sink.Close()
	return err
}

func (a *App) Logger() logx.Logger { return a.log }

// Loop exposes the poll loop (status and tests).
func (a *App) Loop() *watch.Loop { return a.loop }

// Status is the document served on /status.
type Status struct {
	StartedAt     time.Time              `json:"started_at"`
	Loop          watch.Snapshot         `json:"loop"`
	Notifications []notifier.HistoryItem `json:"notifications"`
	Goroutines    supervisor.Counters    `json:"goroutines"`
}

func (a *App) Status() any {
	a.mu.Lock()
	sup := a.sup
	started := a.startedAt
	a.mu.Unlock()
	return Status{
		StartedAt:     started,
		Loop:          a.loop.Snapshot(),
		Notifications: a.notif.History(),
		Goroutines:    sup.Counters(),
	}
}

// Start launches the poll loop and the optional endpoints under one supervisor.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sup != nil {
		return fmt.Errorf("app already started")
	}
	a.startedAt = time.Now()
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	// The loop recovers its own panics; a restart here only covers bugs
	// outside Tick, and keeps cursor and last.
	a.sup.GoRestart("watch.loop", a.loop.Run, supervisor.WithRestartBackoff(time.Second, time.Minute))

	if a.obs != nil {
		obs := a.obs
		// Observability is optional; never take the loop down with it.
		a.sup.GoRestart("observability.serve", obs.Serve, supervisor.WithRestartBackoff(500*time.Millisecond, 10*time.Second))
	}
	a.sup.Go0("systemd.watchdog", func(ctx context.Context) {
		if err := a.sd.Watchdog(ctx); err != nil {
			a.log.Warn("systemd watchdog disabled", logx.Err(err))
		}
	})

	a.sd.Ready("polling")
	a.log.Info("started")
	return nil
}

// Done is closed when the app context ends (signal, Stop, or fatal error).
func (a *App) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Stop cancels every goroutine and waits for them within ctx.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	a.mu.Lock()
	sup := a.sup
	a.mu.Unlock()
	if sup == nil {
		return a.sink.Close()
	}

	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.sd.Stopping()

	err := sup.Stop(ctx)
	if err != nil {
		a.log.Warn("stop incomplete", logx.Err(err))
	} else {
		a.log.Info("stopped", logx.Any("goroutines", sup.Counters()))
	}
	_ = a.sink.Close()
	return err
}
