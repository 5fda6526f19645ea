package watch

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hwbot/internal/homework"
	"hwbot/internal/observability/metrics"
)

const approvedText = `Changed review status for "hw1". Работа проверена: ревьюеру всё понравилось. Ура!`

type step struct {
	raw any
	err error
}

// scriptedPoller replays steps in order and repeats the last one.
type scriptedPoller struct {
	mu      sync.Mutex
	steps   []step
	cursors []int64
	panicAt int
}

func (p *scriptedPoller) Fetch(ctx context.Context, cursor int64) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursors = append(p.cursors, cursor)
	n := len(p.cursors)
	if p.panicAt == n {
		panic("poller exploded")
	}
	i := min(n-1, len(p.steps)-1)
	return p.steps[i].raw, p.steps[i].err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return n.err
}

func (n *recordingNotifier) texts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

// fakeClock advances on Sleep and stops Run after maxSleeps.
type fakeClock struct {
	mu        sync.Mutex
	now       time.Time
	sleeps    []time.Duration
	maxSleeps int
}

var errStop = errors.New("stop")

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if c.maxSleeps > 0 && len(c.sleeps) >= c.maxSleeps {
		return errStop
	}
	return ctx.Err()
}

func payload(items ...map[string]any) map[string]any {
	list := make([]any, 0, len(items))
	for _, it := range items {
		list = append(list, it)
	}
	return map[string]any{"homeworks": list}
}

func item(name, status string) map[string]any {
	return map[string]any{"homework_name": name, "status": status}
}

func newLoop(t *testing.T, cfg Config, p Poller, n Notifier, clk Clock) *Loop {
	t.Helper()
	l, err := New(cfg, p, homework.NewParser(homework.DefaultCatalog()), n, WithClock(clk), WithMetrics(metrics.New()))
	require.NoError(t, err)
	return l
}

func startClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func TestScenarioApprovedEmitsOnce(t *testing.T) {
	p := &scriptedPoller{steps: []step{{raw: payload(item("hw1", "approved"))}}}
	n := &recordingNotifier{}
	l := newLoop(t, Config{}, p, n, startClock())

	res := l.Tick(context.Background())
	assert.True(t, res.Emitted)
	assert.NoError(t, res.Err)
	assert.Equal(t, approvedText, res.Text)
	assert.Equal(t, approvedText, l.Last())

	res = l.Tick(context.Background())
	assert.False(t, res.Emitted)
	assert.Equal(t, []string{approvedText}, n.texts())
}

func TestScenarioTransportErrorDedupThenRecover(t *testing.T) {
	refused := homework.TransportError(syscall.ECONNREFUSED)
	p := &scriptedPoller{steps: []step{
		{err: refused},
		{err: refused},
		{raw: payload(item("hw1", "approved"))},
	}}
	n := &recordingNotifier{}
	l := newLoop(t, Config{}, p, n, startClock())

	r1 := l.Tick(context.Background())
	r2 := l.Tick(context.Background())
	r3 := l.Tick(context.Background())

	assert.True(t, r1.Emitted)
	assert.Equal(t, homework.KindTransport, homework.KindOf(r1.Err))
	assert.False(t, r2.Emitted)
	assert.True(t, r3.Emitted)

	want := FailurePrefix + "api request failed: " + syscall.ECONNREFUSED.Error()
	assert.Equal(t, []string{want, approvedText}, n.texts())
	assert.Equal(t, approvedText, l.Last())
}

func TestScenarioUnknownStatus(t *testing.T) {
	p := &scriptedPoller{steps: []step{{raw: payload(item("hw2", "archived"))}}}
	n := &recordingNotifier{}
	l := newLoop(t, Config{}, p, n, startClock())

	res := l.Tick(context.Background())
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, homework.UnknownStatusError("archived"))
	l.Tick(context.Background())

	sent := n.texts()
	require.Len(t, sent, 1)
	assert.Equal(t, `Failure: unknown status "archived"`, sent[0])
	assert.Contains(t, sent[0], "archived")
}

func TestFailureKindsBecomeNotifications(t *testing.T) {
	cases := []struct {
		name string
		step step
		want string
	}{
		{"protocol", step{err: homework.ProtocolError(500)}, "Failure: api returned status 500"},
		{"not a mapping", step{raw: []any{}}, "Failure: not a mapping"},
		{"missing homeworks", step{raw: map[string]any{}}, "Failure: missing homeworks"},
		{"homeworks not a list", step{raw: map[string]any{"homeworks": "x"}}, "Failure: homeworks not a list"},
		{"empty", step{raw: payload()}, "Failure: no homeworks"},
		{"missing status", step{raw: payload(map[string]any{"homework_name": "hw"})}, `Failure: missing field "status"`},
		{"plain error", step{err: errors.New("weird")}, "Failure: weird"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := &recordingNotifier{}
			l := newLoop(t, Config{}, &scriptedPoller{steps: []step{tc.step}}, n, startClock())
			res := l.Tick(context.Background())
			require.Error(t, res.Err)
			assert.Equal(t, []string{tc.want}, n.texts())
		})
	}
}

func TestDeliveryFailureDoesNotNotifyAgain(t *testing.T) {
	p := &scriptedPoller{steps: []step{{raw: payload(item("hw1", "approved"))}}}
	n := &recordingNotifier{err: homework.DeliveryError(errors.New("chat not found"))}
	l := newLoop(t, Config{}, p, n, startClock())

	res := l.Tick(context.Background())
	assert.True(t, res.Emitted)
	assert.NoError(t, res.Err)
	assert.Equal(t, homework.KindDelivery, homework.KindOf(res.DeliveryErr))
	// last is the text handed to the notifier even if delivery failed.
	assert.Equal(t, approvedText, l.Last())

	l.Tick(context.Background())
	assert.Equal(t, []string{approvedText}, n.texts())
}

// panickingNotifier panics on its first call and records the rest.
type panickingNotifier struct {
	recordingNotifier
	calls int
}

func (n *panickingNotifier) Notify(ctx context.Context, text string) error {
	n.mu.Lock()
	n.calls++
	first := n.calls == 1
	n.mu.Unlock()
	if first {
		panic("sender nil deref")
	}
	return n.recordingNotifier.Notify(ctx, text)
}

func TestNotifierPanicIsDeliveryFailure(t *testing.T) {
	p := &scriptedPoller{steps: []step{{raw: payload(item("hw1", "approved"))}}}
	n := &panickingNotifier{}
	l := newLoop(t, Config{}, p, n, startClock())

	res := l.Tick(context.Background())
	assert.True(t, res.Emitted)
	assert.NoError(t, res.Err)
	assert.Equal(t, homework.KindDelivery, homework.KindOf(res.DeliveryErr))
	assert.ErrorContains(t, res.DeliveryErr, "sender nil deref")
	assert.Equal(t, 1, n.calls)
	assert.Equal(t, approvedText, l.Last())

	res = l.Tick(context.Background())
	assert.False(t, res.Emitted)
	assert.Equal(t, 1, n.calls)
	assert.Empty(t, n.texts())
}

func TestQuietStreakAfterStatusNotifiesOnce(t *testing.T) {
	raw := payload(item("hw1", "approved"))
	raw["current_date"] = float64(1700000900)
	p := &scriptedPoller{steps: []step{{raw: raw}, {raw: payload()}, {raw: payload()}}}
	n := &recordingNotifier{}
	l := newLoop(t, Config{AdvanceCursor: true}, p, n, startClock())

	assert.True(t, l.Tick(context.Background()).Emitted)

	res := l.Tick(context.Background())
	assert.True(t, res.Emitted)
	assert.Equal(t, homework.KindEmpty, homework.KindOf(res.Err))

	res = l.Tick(context.Background())
	assert.False(t, res.Emitted)

	assert.Equal(t, []string{approvedText, "Failure: no homeworks"}, n.texts())
	// A failed iteration never moves the cursor.
	assert.Equal(t, []int64{1700000000, 1700000900, 1700000900}, p.cursors)
}

func TestCursorAdvancesToServerTime(t *testing.T) {
	raw := payload(item("hw1", "reviewing"))
	raw["current_date"] = float64(1700000900)
	p := &scriptedPoller{steps: []step{{raw: raw}, {raw: payload()}}}
	l := newLoop(t, Config{AdvanceCursor: true}, p, &recordingNotifier{}, startClock())

	l.Tick(context.Background())
	l.Tick(context.Background())
	assert.Equal(t, []int64{1700000000, 1700000900}, p.cursors)
	assert.Equal(t, int64(1700000900), l.Cursor())
}

func TestCursorAdvanceDisabled(t *testing.T) {
	raw := payload(item("hw1", "reviewing"))
	raw["current_date"] = float64(1700000900)
	p := &scriptedPoller{steps: []step{{raw: raw}}}
	l := newLoop(t, Config{AdvanceCursor: false}, p, &recordingNotifier{}, startClock())

	l.Tick(context.Background())
	l.Tick(context.Background())
	assert.Equal(t, []int64{1700000000, 1700000000}, p.cursors)
}

func TestCursorStaysAfterFailure(t *testing.T) {
	raw := payload(item("hw2", "archived"))
	raw["current_date"] = float64(1700000900)
	p := &scriptedPoller{steps: []step{{raw: raw}}}
	l := newLoop(t, Config{AdvanceCursor: true}, p, &recordingNotifier{}, startClock())

	l.Tick(context.Background())
	assert.Equal(t, int64(1700000000), l.Cursor())
}

func TestStartFromOverridesClock(t *testing.T) {
	p := &scriptedPoller{steps: []step{{raw: payload(item("hw1", "approved"))}}}
	l := newLoop(t, Config{StartFrom: 42}, p, &recordingNotifier{}, startClock())
	l.Tick(context.Background())
	assert.Equal(t, []int64{42}, p.cursors)
}

func TestPanicBecomesFailureNotification(t *testing.T) {
	p := &scriptedPoller{steps: []step{{raw: payload(item("hw1", "approved"))}}, panicAt: 1}
	n := &recordingNotifier{}
	l := newLoop(t, Config{}, p, n, startClock())

	res := l.Tick(context.Background())
	assert.Equal(t, homework.KindInternal, homework.KindOf(res.Err))
	assert.Equal(t, []string{"Failure: internal error: poller exploded"}, n.texts())

	res = l.Tick(context.Background())
	assert.True(t, res.Emitted)
	assert.Equal(t, approvedText, res.Text)
}

func TestRunSleepsOncePerIteration(t *testing.T) {
	clk := startClock()
	clk.maxSleeps = 3
	p := &scriptedPoller{steps: []step{{raw: payload(item("hw1", "approved"))}}}
	n := &recordingNotifier{}
	l := newLoop(t, Config{Interval: 10 * time.Second}, p, n, clk)

	err := l.Run(context.Background())
	assert.ErrorIs(t, err, errStop)
	assert.Len(t, p.cursors, 3)
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second, 10 * time.Second}, clk.sleeps)
	assert.Equal(t, []string{approvedText}, n.texts())

	snap := l.Snapshot()
	assert.Equal(t, "idle", snap.State)
	assert.Equal(t, uint64(3), snap.Iterations)
	assert.Equal(t, "ok", snap.LastOutcome)
	assert.Equal(t, approvedText, snap.Last)
}

func TestRunKeepsStateAcrossRestarts(t *testing.T) {
	clk := startClock()
	clk.maxSleeps = 1
	p := &scriptedPoller{steps: []step{{raw: payload(item("hw1", "approved"))}}}
	n := &recordingNotifier{}
	l := newLoop(t, Config{}, p, n, clk)

	_ = l.Run(context.Background())
	clk.maxSleeps = 2
	_ = l.Run(context.Background())

	assert.Equal(t, []string{approvedText}, n.texts())
	assert.Equal(t, []int64{1700000000, 1700000000}, p.cursors)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedPoller{steps: []step{{raw: payload(item("hw1", "approved"))}}}
	l := newLoop(t, Config{}, p, &recordingNotifier{}, startClock())

	assert.ErrorIs(t, l.Run(ctx), context.Canceled)
	assert.Empty(t, p.cursors)
}

func TestCancelledFetchIsNotReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &scriptedPoller{steps: []step{{err: homework.TransportError(context.Canceled)}}}
	n := &recordingNotifier{}
	l := newLoop(t, Config{}, p, n, startClock())

	res := l.Tick(ctx)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, n.texts())
}

func TestNewValidatesDependencies(t *testing.T) {
	parser := homework.NewParser(homework.DefaultCatalog())
	_, err := New(Config{}, nil, parser, &recordingNotifier{})
	assert.Error(t, err)
	_, err = New(Config{}, &scriptedPoller{}, nil, &recordingNotifier{})
	assert.Error(t, err)
	_, err = New(Config{}, &scriptedPoller{}, parser, nil)
	assert.Error(t, err)

	l, err := New(Config{}, &scriptedPoller{}, parser, &recordingNotifier{})
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, l.cfg.Interval)
}

func TestSystemClockSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SystemClock{}.Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, SystemClock{}.Sleep(context.Background(), time.Millisecond))
}
