package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends through the Bot API client.
type TelegramNotifier struct {
	Bot *tgbotapi.BotAPI
}

func NewTelegramNotifier(bot *tgbotapi.BotAPI) *TelegramNotifier {
	return &TelegramNotifier{Bot: bot}
}

func (n *TelegramNotifier) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

func (n *TelegramNotifier) SendChoices(ctx context.Context, chatID int64, text string, rows [][]Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if len(rows) > 0 {
		msg.ReplyMarkup = InlineKeyboard(rows)
	}
	if _, err := n.Bot.Send(msg); err != nil {
		return fmt.Errorf("send choices to %d: %w", chatID, err)
	}
	return nil
}

func (n *TelegramNotifier) SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := n.Bot.Send(doc); err != nil {
		return fmt.Errorf("send document to %d: %w", chatID, err)
	}
	return nil
}

// AnswerCallback stops the client-side spinner of a pressed button.
func (n *TelegramNotifier) AnswerCallback(callbackID string) error {
	_, err := n.Bot.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

// InlineKeyboard converts button rows into Bot API markup.
func InlineKeyboard(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		out = append(out, btns)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: out}
}
