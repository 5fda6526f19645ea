// Package watch runs the poll loop: fetch the latest homework status, turn
// it into text, suppress repeats and hand the rest to the notifier.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"hwbot/internal/dedup"
	"hwbot/internal/homework"
	"hwbot/internal/observability/metrics"
	logx "hwbot/pkg/logx"
)

// FailurePrefix starts every failure notification.
const FailurePrefix = "Failure: "

const DefaultInterval = 600 * time.Second

type Poller interface {
	Fetch(ctx context.Context, cursor int64) (any, error)
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Config struct {
	Interval time.Duration
	// AdvanceCursor moves the cursor to the server's current_date after an
	// iteration that produced a status message. When false the cursor keeps
	// its start value for the process lifetime.
	AdvanceCursor bool
	// StartFrom is the initial cursor (unix seconds). Zero means Clock.Now().
	StartFrom int64
}

// Loop owns cursor and last. Only Snapshot may be called from other goroutines.
type Loop struct {
	cfg      Config
	poller   Poller
	parser   *homework.Parser
	notifier Notifier
	clock    Clock
	log      logx.Logger
	metrics  *metrics.Recorder

	mu          sync.Mutex
	started     bool
	state       State
	cursor      int64
	last        dedup.Last
	iterations  uint64
	lastTickAt  time.Time
	lastOutcome string
	nextTickAt  time.Time
}

type Option func(*Loop)

func WithClock(c Clock) Option { return func(l *Loop) { l.clock = c } }

func WithLogger(log logx.Logger) Option { return func(l *Loop) { l.log = log } }

func WithMetrics(m *metrics.Recorder) Option { return func(l *Loop) { l.metrics = m } }

func New(cfg Config, poller Poller, parser *homework.Parser, notifier Notifier, opts ...Option) (*Loop, error) {
	if poller == nil {
		return nil, errors.New("watch: poller is required")
	}
	if parser == nil {
		return nil, errors.New("watch: parser is required")
	}
	if notifier == nil {
		return nil, errors.New("watch: notifier is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	l := &Loop{cfg: cfg, poller: poller, parser: parser, notifier: notifier, clock: SystemClock{}}
	for _, o := range opts {
		o(l)
	}
	if l.clock == nil {
		l.clock = SystemClock{}
	}
	if l.log.IsZero() {
		l.log = logx.Nop()
	}
	return l, nil
}

// Run polls forever with one sleep per iteration. It returns only when ctx
// is done. Calling Run again (e.g. after a recovered panic) keeps cursor and
// last from the previous run.
func (l *Loop) Run(ctx context.Context) error {
	l.init()
	l.log.Info("poll loop started",
		logx.Duration("interval", l.cfg.Interval),
		logx.Bool("advance_cursor", l.cfg.AdvanceCursor),
		logx.Int64("cursor", l.Cursor()),
	)
	for {
		if err := ctx.Err(); err != nil {
			l.setState(StateIdle)
			return err
		}
		l.Tick(ctx)

		l.mu.Lock()
		l.state = StateSleeping
		l.nextTickAt = l.clock.Now().Add(l.cfg.Interval)
		l.mu.Unlock()

		if err := l.clock.Sleep(ctx, l.cfg.Interval); err != nil {
			l.setState(StateIdle)
			l.log.Info("poll loop stopped", logx.Err(err))
			return err
		}
	}
}

func (l *Loop) init() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true
	l.cursor = l.cfg.StartFrom
	if l.cursor <= 0 {
		l.cursor = l.clock.Now().Unix()
	}
	l.metrics.Cursor(l.cursor)
}

// Tick runs one iteration: poll, validate, parse, decide, notify.
// Every failure becomes a deduplicated failure notification; nothing escapes.
func (l *Loop) Tick(ctx context.Context) (res Result) {
	l.init()
	log := l.log.With(logx.String("tick", uuid.NewString()))
	start := l.clock.Now()

	// decided is set once a text has gone through dedup; a later panic must
	// not produce a second notification for the same tick.
	var decided bool
	defer func() {
		if r := recover(); r != nil {
			log.Error("tick panicked", logx.Any("panic", r), logx.Bool("decided", decided))
			if decided {
				res.Err = homework.InternalError(r)
			} else {
				res = l.failed(ctx, log, homework.InternalError(r), start)
			}
		}
		l.mu.Lock()
		l.iterations++
		l.lastTickAt = start
		l.mu.Unlock()
	}()

	text, raw, err := l.poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down; a cancelled request is not a service failure.
			return Result{Err: ctx.Err()}
		}
		decided = true
		return l.failed(ctx, log, err, start)
	}

	l.observe("ok", start)
	decided = true
	res = l.offer(ctx, log, text)

	if l.cfg.AdvanceCursor {
		if ts, ok := homework.ReportedTime(raw); ok {
			l.setCursor(ts)
		}
	}
	l.metrics.Success(start)
	return res
}

func (l *Loop) poll(ctx context.Context) (string, any, error) {
	l.setState(StatePolling)
	raw, err := l.poller.Fetch(ctx, l.Cursor())
	if err != nil {
		return "", nil, err
	}

	l.setState(StateValidating)
	items, err := homework.Validate(raw)
	if err != nil {
		return "", raw, err
	}

	l.setState(StateParsing)
	text, err := l.parser.Parse(items[0])
	if err != nil {
		return "", raw, err
	}
	return text, raw, nil
}

func (l *Loop) failed(ctx context.Context, log logx.Logger, err error, start time.Time) Result {
	kind := homework.KindOf(err)
	l.observe(kind.String(), start)
	log.Error("poll iteration failed", logx.String("kind", kind.String()), logx.Err(err))

	res := l.offer(ctx, log, FailurePrefix+homework.Describe(err))
	res.Err = err
	return res
}

func (l *Loop) offer(ctx context.Context, log logx.Logger, text string) Result {
	l.setState(StateDeciding)
	l.mu.Lock()
	emit := l.last.Offer(text)
	l.mu.Unlock()

	res := Result{Text: text, Emitted: emit}
	if !emit {
		l.metrics.Notification(metrics.ResultSuppressed)
		log.Debug("notification suppressed (unchanged)")
		return res
	}

	l.setState(StateNotifying)
	if err := l.deliver(ctx, text); err != nil {
		res.DeliveryErr = err
		l.metrics.Notification(metrics.ResultFailed)
		log.Error("notification delivery failed", logx.Err(err))
		return res
	}
	l.metrics.Notification(metrics.ResultSent)
	log.Info("notification sent", logx.String("text", text))
	return res
}

// deliver calls the notifier. A panic there is a delivery failure like any
// other; it must not reach Tick's recover and become a failure notification.
func (l *Loop) deliver(ctx context.Context, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = homework.DeliveryError(fmt.Errorf("notifier panicked: %v", r))
		}
	}()
	return l.notifier.Notify(ctx, text)
}

func (l *Loop) observe(outcome string, start time.Time) {
	l.mu.Lock()
	l.lastOutcome = outcome
	l.mu.Unlock()
	l.metrics.ObservePoll(outcome, l.clock.Now().Sub(start))
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

func (l *Loop) setCursor(ts int64) {
	l.mu.Lock()
	prev := l.cursor
	l.cursor = ts
	l.mu.Unlock()
	l.metrics.Cursor(ts)
	if ts != prev {
		l.log.Debug("cursor advanced", logx.Int64("from", prev), logx.Int64("to", ts))
	}
}

// Cursor returns the lower bound used by the next poll.
func (l *Loop) Cursor() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}

// Last returns the most recently emitted text.
func (l *Loop) Last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last.Value()
}

func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		State:       l.state.String(),
		Cursor:      l.cursor,
		Last:        l.last.Value(),
		Iterations:  l.iterations,
		LastTickAt:  l.lastTickAt,
		LastOutcome: l.lastOutcome,
		NextTickAt:  l.nextTickAt,
	}
}
