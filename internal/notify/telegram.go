package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/Veraticus/payroll-sentinel/internal/alert"
	"github.com/Veraticus/payroll-sentinel/internal/common"
	"github.com/Veraticus/payroll-sentinel/internal/model"
)

// ChannelTelegram names the Telegram channel in history entries.
const ChannelTelegram = "telegram"

// TelegramSender is the part of *telebot.Bot the notifier needs.
type TelegramSender interface {
	Send(to telebot.Recipient, what any, opts ...any) (*telebot.Message, error)
}

// ChatResolver returns a company-specific chat id, or 0 to use the default.
type ChatResolver func(ctx context.Context, companyID string) (int64, error)

// TelegramNotifier sends alerts to a Telegram chat through a bot.
type TelegramNotifier struct {
	sender  TelegramSender
	resolve ChatResolver
	chatID  int64
}

// NewTelegramBot creates a send-only bot for token.
func NewTelegramBot(token string) (*telebot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: telegram bot token is required", common.ErrMissingConfig)
	}
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Client: newHTTPClient(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return bot, nil
}

// NewTelegramNotifier creates a notifier sending to chatID unless resolve
// names a company-specific chat. resolve may be nil.
func NewTelegramNotifier(sender TelegramSender, chatID int64, resolve ChatResolver) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID, resolve: resolve}
}

// Send implements alert.Notifier.
func (t *TelegramNotifier) Send(ctx context.Context, a model.AlertTrigger) (alert.SendResult, error) {
	chatID := t.chatID
	if t.resolve != nil {
		id, err := t.resolve(ctx, a.CompanyID)
		if err != nil {
			return alert.SendResult{}, fmt.Errorf("failed to resolve telegram chat: %w", err)
		}
		if id != 0 {
			chatID = id
		}
	}
	if chatID == 0 {
		return alert.SendResult{}, fmt.Errorf("%w: no telegram chat for company %s", common.ErrMissingConfig, a.CompanyID)
	}

	msg, err := t.sender.Send(telebot.ChatID(chatID), Format(a), &telebot.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return alert.SendResult{}, fmt.Errorf("%w: telegram: %w", common.ErrNotifierFailed, err)
	}

	result := alert.SendResult{Channel: ChannelTelegram, Success: true}
	if msg != nil {
		result.ChannelMessageID = strconv.Itoa(msg.ID)
	}
	return result, nil
}

var _ alert.Notifier = (*TelegramNotifier)(nil)
