package alerts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"statuspage/app/internal/stats"
)

type captured struct {
	path   string
	header http.Header
	body   []byte
}

// recorder is a fake receiver for every channel
type recorder struct {
	mu     sync.Mutex
	status int
	got    []captured
}

func newRecorder(t *testing.T, status int) (*recorder, *httptest.Server) {
	t.Helper()
	rec := &recorder{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.got = append(rec.got, captured{path: r.URL.Path, header: r.Header.Clone(), body: body})
		rec.mu.Unlock()
		w.WriteHeader(rec.status)
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func (r *recorder) byPath(path string) *captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.got {
		if r.got[i].path == path {
			return &r.got[i]
		}
	}
	return nil
}

var downEvent = Event{
	MonitorID:   7,
	MonitorName: "API <prod>",
	Status:      stats.StatusDown,
	Msg:         "connection refused",
	Time:        time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
}

// ----- channel selection -----

func TestEnabled(t *testing.T) {
	assert.False(t, NewManager(Config{}, nil, nil).Enabled())
	assert.False(t, NewManager(Config{TelegramBotToken: "x"}, nil, nil).Enabled(), "telegram needs a chat id")
	assert.True(t, NewManager(Config{WebhookURL: "http://hook"}, nil, nil).Enabled())
	assert.True(t, NewManager(Config{DiscordWebhookURL: "http://hook"}, nil, nil).Enabled())
	assert.True(t, NewManager(Config{TelegramBotToken: "x", TelegramChatID: "1"}, nil, nil).Enabled())
}

func TestNotify_NoChannels(t *testing.T) {
	assert.NoError(t, NewManager(Config{}, nil, nil).Notify(context.Background(), downEvent))
}

// ----- fan out -----

func TestNotify_AllChannels(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK)
	core, logs := observer.New(zap.InfoLevel)
	m := NewManager(Config{
		StatusPageURL:     "status.example.com/",
		WebhookURL:        srv.URL + "/hook",
		WebhookSecret:     "s3cret",
		DiscordWebhookURL: srv.URL + "/discord",
		TelegramBotToken:  "TOKEN",
		TelegramChatID:    "42",
		TelegramAPIBase:   srv.URL,
	}, srv.Client(), zap.New(core))

	require.NoError(t, m.Notify(context.Background(), downEvent))
	assert.Equal(t, 3, logs.FilterMessage("alert_sent").Len())

	hook := rec.byPath("/hook")
	require.NotNil(t, hook)
	assert.Equal(t, Sign("s3cret", hook.body), hook.header.Get(SignatureHeader))
	assert.Equal(t, "application/json", hook.header.Get("Content-Type"))
	var wp webhookPayload
	require.NoError(t, json.Unmarshal(hook.body, &wp))
	assert.Equal(t, "status_change", wp.Event)
	assert.Equal(t, int64(7), wp.MonitorID)
	assert.Equal(t, "down", wp.Status)
	assert.Equal(t, "http://status.example.com", wp.StatusPageURL)
	assert.Equal(t, "2024-05-01T12:00:00Z", wp.Timestamp)

	discord := rec.byPath("/discord")
	require.NotNil(t, discord)
	var dp discordPayload
	require.NoError(t, json.Unmarshal(discord.body, &dp))
	require.Len(t, dp.Embeds, 1)
	assert.Equal(t, 0xef4444, dp.Embeds[0].Color)
	assert.Equal(t, "DOWN", dp.Embeds[0].Fields[1].Value)

	tg := rec.byPath("/botTOKEN/sendMessage")
	require.NotNil(t, tg)
	var tm telegramMessage
	require.NoError(t, json.Unmarshal(tg.body, &tm))
	assert.Equal(t, "42", tm.ChatID)
	assert.Equal(t, "HTML", tm.ParseMode)
	assert.Contains(t, tm.Text, "API &lt;prod&gt;")
	assert.NotContains(t, tm.Text, "<prod>")
}

func TestNotify_PendingIsSilent(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusOK)
	m := NewManager(Config{WebhookURL: srv.URL}, srv.Client(), nil)

	ev := downEvent
	ev.Status = stats.StatusPending
	require.NoError(t, m.Notify(context.Background(), ev))
	assert.Empty(t, rec.got)
}

func TestNotify_ReceiverError(t *testing.T) {
	_, srv := newRecorder(t, http.StatusBadGateway)
	core, logs := observer.New(zap.InfoLevel)
	m := NewManager(Config{WebhookURL: srv.URL}, srv.Client(), zap.New(core))

	err := m.Notify(context.Background(), downEvent)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "webhook: "))
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, 1, logs.FilterMessage("alert_failed").Len())
}

func TestNotify_NoSignatureWithoutSecret(t *testing.T) {
	rec, srv := newRecorder(t, http.StatusNoContent)
	m := NewManager(Config{WebhookURL: srv.URL + "/hook"}, srv.Client(), nil)
	require.NoError(t, m.Notify(context.Background(), downEvent))
	hook := rec.byPath("/hook")
	require.NotNil(t, hook)
	assert.Empty(t, hook.header.Get(SignatureHeader))
}

// ----- formatting -----

func TestSubject(t *testing.T) {
	ev := Event{MonitorName: "db"}
	ev.Status = stats.StatusUp
	assert.Equal(t, "✅ Monitor Recovered: db", Subject(ev))
	ev.Status = stats.StatusMaintenance
	assert.Equal(t, "🔧 Monitor In Maintenance: db", Subject(ev))
	ev.Status = stats.StatusDown
	assert.Equal(t, "🔴 Monitor Down: db", Subject(ev))
}

func TestNormalizeStatusPageURL(t *testing.T) {
	cases := map[string]string{
		"":                      "",
		"   ":                   "",
		"example.com":           "http://example.com",
		"example.com/":          "http://example.com",
		"example.com/status//":  "http://example.com/status",
		"https://example.com/":  "https://example.com",
		"  http://example.com ": "http://example.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeStatusPageURL(in), "input %q", in)
	}
}

func TestSignIsStable(t *testing.T) {
	body := []byte(`{"a":1}`)
	assert.Equal(t, Sign("k", body), Sign("k", body))
	assert.NotEqual(t, Sign("k", body), Sign("other", body))
	assert.True(t, strings.HasPrefix(Sign("k", body), "sha256="))
}
