package alerts

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

var discordColors = map[string]int{"down": 0xef4444, "maintenance": 0x808080, "up": 0x22c55e}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	URL         string         `json:"url,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	Timestamp   string         `json:"timestamp"`
}

type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

func (m *Manager) sendDiscord(ctx context.Context, ev Event) error {
	st := statusType(ev.Status)
	body, err := json.Marshal(discordPayload{
		Username: "Status Page",
		Embeds: []discordEmbed{{
			Title:       Subject(ev),
			Description: ev.Msg,
			URL:         m.cfg.StatusPageURL,
			Color:       discordColors[st],
			Fields: []discordField{
				{Name: "Monitor", Value: ev.MonitorName, Inline: true},
				{Name: "Status", Value: strings.ToUpper(st), Inline: true},
			},
			Timestamp: ev.Time.UTC().Format(time.RFC3339),
		}},
	})
	if err != nil {
		return err
	}
	return m.postJSON(ctx, m.cfg.DiscordWebhookURL, body, nil)
}
