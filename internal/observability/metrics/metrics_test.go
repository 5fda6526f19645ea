package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.ObservePoll("ok", 10*time.Millisecond)
	r.ObservePoll("transport", time.Millisecond)
	r.ObservePoll("transport", time.Millisecond)
	r.Notification(ResultSent)
	r.Notification(ResultSuppressed)
	r.Notification(ResultSuppressed)
	r.Cursor(1700000000)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.polls.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.polls.WithLabelValues("transport")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.notifications.WithLabelValues(ResultSuppressed)))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.cursor))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObservePoll("ok", time.Second)
	r.Notification(ResultFailed)
	r.Cursor(1)
	r.Success(time.Now())
	assert.Nil(t, r.Registry())
}
