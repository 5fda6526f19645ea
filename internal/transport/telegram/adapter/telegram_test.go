package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kit "hwbot/internal/transport"
	logx "hwbot/pkg/logx"
)

func TestSplitShortTextIsUntouched(t *testing.T) {
	assert.Equal(t, []string{"hello"}, splitTelegramText("hello", 10, ""))
}

func TestSplitPrefersNewlines(t *testing.T) {
	text := strings.Repeat("a", 6) + "\n" + strings.Repeat("b", 6)
	got := splitTelegramText(text, 10, "")
	assert.Equal(t, []string{"aaaaaa", "bbbbbb"}, got)
}

func TestSplitHardCutCountsRunes(t *testing.T) {
	text := strings.Repeat("ж", 25)
	got := splitTelegramText(text, 10, "")
	require.Len(t, got, 3)
	assert.Equal(t, strings.Repeat("ж", 10), got[0])
	assert.Equal(t, strings.Repeat("ж", 5), got[2])
}

func TestSplitAvoidsOpenHTMLTag(t *testing.T) {
	text := "abcdef<b>bold</b>"
	got := splitTelegramText(text, 8, "HTML")
	require.NotEmpty(t, got)
	assert.Equal(t, "abcdef", got[0])
}

func TestNewRejectsEmptyToken(t *testing.T) {
	_, err := New(Config{Token: " "}, logx.Nop())
	assert.Error(t, err)
}

func TestSendTextPostsToBotAPI(t *testing.T) {
	var (
		mu    sync.Mutex
		texts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		texts = append(texts, body["text"].(string))
		n := len(texts)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 100 + n, "date": 0, "chat": map[string]any{"id": 42, "type": "private"}},
		})
	}))
	defer srv.Close()

	a, err := New(Config{Token: "123:abc", Offline: true, URL: srv.URL}, logx.Nop())
	require.NoError(t, err)

	ref, err := a.SendText(context.Background(), kit.ChatTarget{ChatID: 42}, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ref.ChatID)
	assert.Equal(t, 101, ref.MessageID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hello"}, texts)
}

func TestSendTextHonorsCancelledContext(t *testing.T) {
	a, err := New(Config{Token: "123:abc", Offline: true, URL: "http://127.0.0.1:1"}, logx.Nop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.SendText(ctx, kit.ChatTarget{ChatID: 1}, "x", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
