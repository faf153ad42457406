// Package notifier delivers extracted OTP records to a Telegram chat.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/arsal072-sys/protonsms072/internal/model"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends OTP cards and operator alerts to a single chat.
type Telegram struct {
	api        telegramAPI
	chatID     int64
	supportURL string
	numbersURL string
	log        *slog.Logger
}

// NewTelegram creates a Telegram notifier with the given bot token.
// supportURL and numbersURL are optional inline-keyboard buttons.
func NewTelegram(token string, chatID int64, supportURL, numbersURL string, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{
		api:        api,
		chatID:     chatID,
		supportURL: supportURL,
		numbersURL: numbersURL,
		log:        log,
	}, nil
}

// Notify sends one OTP record as a markdown card.
func (t *Telegram) Notify(ctx context.Context, rec model.OtpRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.send(FormatRecord(rec))
}

// AlertSessionExpired tells the operator the panel session no longer
// works. The poll loop debounces it; this just sends.
func (t *Telegram) AlertSessionExpired(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.send(FormatSessionExpired())
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if kb, ok := t.keyboard(); ok {
		msg.ReplyMarkup = kb
	}
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	t.log.Debug("message sent", "chat_id", t.chatID)
	return nil
}

func (t *Telegram) keyboard() (tgbotapi.InlineKeyboardMarkup, bool) {
	var row []tgbotapi.InlineKeyboardButton
	if t.supportURL != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("🆘 Support", t.supportURL))
	}
	if t.numbersURL != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("📲 Numbers", t.numbersURL))
	}
	if len(row) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(row), true
}
