package alerts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"statuspage/app/internal/stats"
)

// Config selects the notification channels. Empty fields disable a channel.
type Config struct {
	StatusPageURL string

	WebhookURL    string
	WebhookSecret string

	DiscordWebhookURL string

	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIBase  string // defaults to https://api.telegram.org
}

// Event is a monitor status change reported by a pushed heartbeat
type Event struct {
	MonitorID   int64
	MonitorName string
	Status      stats.Status
	Msg         string
	Time        time.Time
}

// Manager fans status changes out to every configured channel
type Manager struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

// NewManager creates a manager. A nil client gets a 10s timeout client.
func NewManager(cfg Config, client *http.Client, log *zap.Logger) *Manager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TelegramAPIBase == "" {
		cfg.TelegramAPIBase = "https://api.telegram.org"
	}
	cfg.StatusPageURL = normalizeStatusPageURL(cfg.StatusPageURL)
	return &Manager{cfg: cfg, client: client, log: log}
}

// Enabled reports whether at least one channel is configured
func (m *Manager) Enabled() bool {
	return len(m.channels()) > 0
}

type channel struct {
	name string
	send func(ctx context.Context, ev Event) error
}

func (m *Manager) channels() []channel {
	var out []channel
	if m.cfg.WebhookURL != "" {
		out = append(out, channel{"webhook", m.sendWebhook})
	}
	if m.cfg.DiscordWebhookURL != "" {
		out = append(out, channel{"discord", m.sendDiscord})
	}
	if m.cfg.TelegramBotToken != "" && m.cfg.TelegramChatID != "" {
		out = append(out, channel{"telegram", m.sendTelegram})
	}
	return out
}

// Notify sends ev on all channels concurrently. Pending transitions are not
// announced. The first channel error is returned after all sends finish.
func (m *Manager) Notify(ctx context.Context, ev Event) error {
	if ev.Status == stats.StatusPending {
		return nil
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	var g errgroup.Group
	for _, ch := range m.channels() {
		g.Go(func() error {
			err := ch.send(ctx, ev)
			if err != nil {
				m.log.Warn("alert_failed",
					zap.String("channel", ch.name),
					zap.Int64("monitor_id", ev.MonitorID),
					zap.Error(err),
				)
				return fmt.Errorf("%s: %w", ch.name, err)
			}
			m.log.Info("alert_sent",
				zap.String("channel", ch.name),
				zap.Int64("monitor_id", ev.MonitorID),
				zap.String("status", ev.Status.String()),
			)
			return nil
		})
	}
	return g.Wait()
}

// Subject is the one-line headline of a status change
func Subject(ev Event) string {
	switch ev.Status {
	case stats.StatusUp:
		return fmt.Sprintf("✅ Monitor Recovered: %s", ev.MonitorName)
	case stats.StatusMaintenance:
		return fmt.Sprintf("🔧 Monitor In Maintenance: %s", ev.MonitorName)
	default:
		return fmt.Sprintf("🔴 Monitor Down: %s", ev.MonitorName)
	}
}

// statusType is the lower-case status word used in payloads
func statusType(s stats.Status) string {
	if s == stats.StatusUp || s == stats.StatusMaintenance {
		return s.String()
	}
	return stats.StatusDown.String()
}

func (m *Manager) postJSON(ctx context.Context, url string, body []byte, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "statuspage/1.0")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func normalizeStatusPageURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "http://" + raw
	}
	return raw
}
