package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"time"
)

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// telegramText renders the HTML message body; user supplied text is escaped
func telegramText(ev Event, statusPageURL string) string {
	text := fmt.Sprintf("<b>%s</b>\n\n%s\n\n🕒 %s",
		html.EscapeString(Subject(ev)),
		html.EscapeString(ev.Msg),
		ev.Time.UTC().Format(time.RFC1123),
	)
	if statusPageURL != "" {
		text += "\n" + html.EscapeString(statusPageURL)
	}
	return text
}

func (m *Manager) sendTelegram(ctx context.Context, ev Event) error {
	body, err := json.Marshal(telegramMessage{
		ChatID:    m.cfg.TelegramChatID,
		Text:      telegramText(ev, m.cfg.StatusPageURL),
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", m.cfg.TelegramAPIBase, m.cfg.TelegramBotToken)
	return m.postJSON(ctx, url, body, nil)
}
