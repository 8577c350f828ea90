package alerts

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"
)

// SignatureHeader carries the HMAC-SHA256 of the webhook body when a secret is set
const SignatureHeader = "X-Statuspage-Signature"

type webhookPayload struct {
	Event         string `json:"event"`
	MonitorID     int64  `json:"monitor_id"`
	MonitorName   string `json:"monitor_name"`
	Status        string `json:"status"`
	Subject       string `json:"subject"`
	Message       string `json:"message"`
	StatusPageURL string `json:"status_page_url,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// Sign returns the signature header value for body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (m *Manager) sendWebhook(ctx context.Context, ev Event) error {
	body, err := json.Marshal(webhookPayload{
		Event:         "status_change",
		MonitorID:     ev.MonitorID,
		MonitorName:   ev.MonitorName,
		Status:        statusType(ev.Status),
		Subject:       Subject(ev),
		Message:       ev.Msg,
		StatusPageURL: m.cfg.StatusPageURL,
		Timestamp:     ev.Time.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	header := http.Header{}
	if m.cfg.WebhookSecret != "" {
		header.Set(SignatureHeader, Sign(m.cfg.WebhookSecret, body))
	}
	return m.postJSON(ctx, m.cfg.WebhookURL, body, header)
}
