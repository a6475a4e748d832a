package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	b.SendMessage(chatID, "Use /add to create a countdown, or /help for the full command list")
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	chatID := callback.Message.Chat.ID
	msgID := callback.Message.MessageID

	parts := strings.Split(callback.Data, ":")
	if len(parts) < 2 {
		return
	}
	id := parts[1]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch parts[0] {
	case "del":
		c, err := b.countdowns.Get(id)
		if err != nil || c == nil || c.ChatID != chatID {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Countdown not found"))
			return
		}
		if err := b.countdowns.Delete(ctx, id); err != nil {
			log.Printf("Error deleting countdown %s: %v", id, err)
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Delete failed"))
			return
		}
		b.api.Request(tgbotapi.NewCallback(callback.ID, "Deleted"))
		edit := tgbotapi.NewEditMessageText(chatID, msgID, fmt.Sprintf("🗑 <b>%s</b> deleted", c.Title))
		edit.ParseMode = "HTML"
		b.api.Send(edit)

	case "star":
		c, err := b.countdowns.Get(id)
		if err != nil || c == nil || c.ChatID != chatID {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Countdown not found"))
			return
		}
		if err := b.countdowns.Star(id, !c.IsStarred); err != nil {
			log.Printf("Error starring countdown %s: %v", id, err)
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Update failed"))
			return
		}
		if c.IsStarred {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "Unstarred"))
		} else {
			b.api.Request(tgbotapi.NewCallback(callback.ID, "⭐ Starred"))
		}

	default:
		b.api.Request(tgbotapi.NewCallback(callback.ID, ""))
	}
}
