package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rapidaid/rapidaid/internal/types"
)

// TelegramChannel posts announcements into one ops chat.
type TelegramChannel struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramChannel authorizes the bot. An empty endpoint means the public
// Bot API.
func NewTelegramChannel(token string, chatID int64, endpoint string) (*TelegramChannel, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: httpTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	return &TelegramChannel{api: api, chatID: chatID}, nil
}

func (t *TelegramChannel) Channel() string {
	return types.ChannelTelegram
}

func (t *TelegramChannel) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	b.WriteString(msg.Subject)
	if msg.Body != "" {
		b.WriteString("\n\n")
		b.WriteString(msg.Body)
	}
	for _, f := range msg.Fields {
		fmt.Fprintf(&b, "\n%s: %s", f.Name, f.Value)
	}

	if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, b.String())); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	return nil
}
