// Package telegram mirrors the new-postings message to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"go-careerwatch/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxMessageRunes is the Telegram limit for one text message.
const MaxMessageRunes = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api    sender
	chatID int64
}

func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//api.Debug = true

	return &Bot{
		api:    api,
		chatID: chatID,
	}, nil
}

func (b *Bot) Name() string {
	return "telegram"
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

// Notify sends the subject as a bold header, then the plain-text body in
// chunks of at most MaxMessageRunes.
func (b *Bot) Notify(ctx context.Context, msg notify.Message) error {
	header := tgbotapi.NewMessage(b.chatID, "*"+escapeMarkdown(msg.Subject)+"*")
	header.ParseMode = "MarkdownV2"
	if err := b.send(ctx, header); err != nil {
		return err
	}

	chunks := Chunk(msg.Text, MaxMessageRunes)
	for i, chunk := range chunks {
		m := tgbotapi.NewMessage(b.chatID, chunk)
		m.DisableWebPagePreview = true
		if err := b.send(ctx, m); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	log.Printf("✅ Telegram message sent (%d chunks)", len(chunks)+1)
	return nil
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return &notify.Error{Notifier: b.Name(), Err: err}
	}
	if _, err := b.api.Send(c); err != nil {
		return &notify.Error{Notifier: b.Name(), Err: err}
	}
	return nil
}

// Chunk splits text into pieces of at most limit runes, breaking after a
// newline when one falls inside the window.
func Chunk(text string, limit int) []string {
	if strings.TrimSpace(text) == "" || limit <= 0 {
		return nil
	}

	var chunks []string
	for text != "" {
		if utf8.RuneCountInString(text) <= limit {
			chunks = append(chunks, text)
			break
		}

		// byte offset of the rune just past the window
		cut := 0
		for i := 0; i < limit; i++ {
			_, size := utf8.DecodeRuneInString(text[cut:])
			cut += size
		}
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
			cut = nl + 1
		}

		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	return chunks
}
