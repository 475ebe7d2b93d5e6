package telegram

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrMissingChatID is returned when a notifier is built without a destination chat.
var ErrMissingChatID = errors.New("telegram chat id is required")

// Notifier delivers Markdown digests to one chat.
type Notifier interface {
	SendMessage(text string) error
}

// sender is the part of tgbotapi.BotAPI the notifier needs.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type client struct {
	bot    sender
	chatID int64
}

// NewClient authenticates the bot token and returns a Notifier bound to chatID.
func NewClient(botToken string, chatID int64) (Notifier, error) {
	if chatID == 0 {
		return nil, ErrMissingChatID
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate telegram bot: %w", err)
	}
	return newClient(bot, chatID), nil
}

func newClient(bot sender, chatID int64) *client {
	return &client{bot: bot, chatID: chatID}
}

// SendMessage posts text as Markdown without link previews.
func (c *client) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message to chat %d: %w", c.chatID, err)
	}
	return nil
}

// SendAll sends parts in order and stops at the first failure.
func SendAll(n Notifier, parts []string) error {
	for i, part := range parts {
		if err := n.SendMessage(part); err != nil {
			return fmt.Errorf("part %d of %d: %w", i+1, len(parts), err)
		}
	}
	return nil
}
