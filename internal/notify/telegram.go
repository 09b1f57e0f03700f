package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dailybuddy/core/internal/domain/entities"
)

// TelegramChannel pushes notifications to a Telegram chat. This is the
// "phone buzz" channel for when no browser tab is open.
type TelegramChannel struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramChannel authorizes the bot once at startup; a bad token
// disables the channel rather than crashing later.
func NewTelegramChannel(token string, chatID int64) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram authorization failed: %w", err)
	}
	return &TelegramChannel{bot: bot, chatID: chatID}, nil
}

func (t *TelegramChannel) Name() string {
	return "telegram"
}

func (t *TelegramChannel) Send(_ context.Context, n entities.Notification) error {
	text := fmt.Sprintf("*%s*\n%s", escapeMarkdown(n.Title), escapeMarkdown(n.Body))
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if n.Priority != entities.PriorityHigh {
		msg.DisableNotification = true
	}

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func escapeMarkdown(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '*', '_', '`', '[':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
