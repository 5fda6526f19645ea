package systemd

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "hwbot/pkg/logx"
)

// listen binds a unixgram socket and points NOTIFY_SOCKET at it.
func listen(t *testing.T) *net.UnixConn {
	t.Helper()
	dir, err := os.MkdirTemp("", "sd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	path := filepath.Join(dir, "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func read(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestReadyAndStopping(t *testing.T) {
	conn := listen(t)
	n := New(true, logx.Nop())

	n.Ready("polling")
	got := read(t, conn)
	assert.True(t, strings.HasPrefix(got, "READY=1"))
	assert.Contains(t, got, "STATUS=polling")

	n.Stopping()
	assert.Equal(t, "STOPPING=1", read(t, conn))
}

func TestDisabledSendsNothing(t *testing.T) {
	conn := listen(t)
	n := New(false, logx.Nop())
	n.Ready("x")
	assert.False(t, n.send("STATUS=x"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, err := conn.Read(make([]byte, 16))
	assert.Error(t, err)
}

func TestNoSocketIsNoop(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	n := New(true, logx.Nop())
	assert.False(t, n.send(daemon.SdNotifyReady))
}

func TestWatchdogPings(t *testing.T) {
	n := New(true, logx.Nop())
	pings := make(chan string, 8)
	n.notify = func(state string) (bool, error) {
		select {
		case pings <- state:
		default:
		}
		return true, nil
	}
	n.watchdog = func() (time.Duration, error) { return 20 * time.Millisecond, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Watchdog(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case s := <-pings:
			assert.Equal(t, "WATCHDOG=1", s)
		case <-time.After(2 * time.Second):
			t.Fatal("no watchdog ping")
		}
	}
	cancel()
	assert.NoError(t, <-done)
}

func TestWatchdogDisabledReturns(t *testing.T) {
	n := New(true, logx.Nop())
	n.watchdog = func() (time.Duration, error) { return 0, nil }
	assert.NoError(t, n.Watchdog(context.Background()))
}
