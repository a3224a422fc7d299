package telegram

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"buypulse/internal/alert"
	"buypulse/internal/model"
)

var markdownEscaper = regexp.MustCompile("([_*\\[\\]()~`>#+\\-=|{}.!])")

// Dispatcher delivers composed alerts to Telegram chats and operational
// messages to the system channel.
type Dispatcher struct {
	bot            *tgbotapi.BotAPI
	systemBot      *tgbotapi.BotAPI
	systemChatID   int64
	systemThreadID int
	limiter        *rate.Limiter
	logger         *zap.Logger
}

// NewDispatcher authenticates both bot tokens. systemToken may equal token.
func NewDispatcher(token, systemToken string, systemChatID int64, systemThreadID int, logger *zap.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init bot: %w", err)
	}

	systemBot := bot
	if systemToken != "" && systemToken != token {
		systemBot, err = tgbotapi.NewBotAPI(systemToken)
		if err != nil {
			return nil, fmt.Errorf("init system bot: %w", err)
		}
	}

	return &Dispatcher{
		bot:            bot,
		systemBot:      systemBot,
		systemChatID:   systemChatID,
		systemThreadID: systemThreadID,
		limiter:        rate.NewLimiter(rate.Limit(5), 5),
		logger:         logger,
	}, nil
}

// SendText posts a Markdown message to the chat.
func (d *Dispatcher) SendText(ctx context.Context, chatID int64, threadID int, text string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero("message_thread_id", threadID)
	params["text"] = text
	params["parse_mode"] = tgbotapi.ModeMarkdown
	params["disable_web_page_preview"] = "true"

	if _, err := d.bot.MakeRequest("sendMessage", params); err != nil {
		d.logger.Warn("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
		d.LogEvent("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
		return err
	}
	return nil
}

// SendMedia posts a captioned media message. Delivery failure falls back to
// a text-only message.
func (d *Dispatcher) SendMedia(ctx context.Context, chatID int64, threadID int, media *alert.Media, caption string) error {
	if media == nil {
		return d.SendText(ctx, chatID, threadID, caption)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint, field := mediaEndpoint(media.Kind)

	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero("message_thread_id", threadID)
	params["caption"] = caption
	params["parse_mode"] = tgbotapi.ModeMarkdown

	var err error
	if media.FileID != "" {
		params[field] = media.FileID
		_, err = d.bot.MakeRequest(endpoint, params)
	} else {
		files := []tgbotapi.RequestFile{{
			Name: field,
			Data: tgbotapi.FileBytes{Name: field, Bytes: media.Bytes},
		}}
		_, err = d.bot.UploadFiles(endpoint, params, files)
	}
	if err != nil {
		d.logger.Warn("send media failed", zap.Int64("chat_id", chatID), zap.Error(err))
		d.LogEvent("Failed to send media", zap.Int64("chat_id", chatID), zap.Error(err))
		return d.SendText(ctx, chatID, threadID, caption)
	}
	return nil
}

func mediaEndpoint(kind model.MediaKind) (endpoint, field string) {
	switch kind {
	case model.MediaVideo:
		return "sendVideo", "video"
	case model.MediaAnimation:
		return "sendAnimation", "animation"
	default:
		return "sendPhoto", "photo"
	}
}

// LogEvent posts an operational message to the system channel. Best-effort:
// its own failures are logged locally and swallowed.
func (d *Dispatcher) LogEvent(message string, fields ...zap.Field) {
	if d.systemChatID == 0 {
		return
	}

	if _, err := d.systemBot.MakeRequest("sendMessage", d.systemMessageParams(message, fields)); err != nil {
		d.logger.Warn("system channel send failed", zap.Error(err))
	}
}

func (d *Dispatcher) systemMessageParams(message string, fields []zap.Field) tgbotapi.Params {
	text := "🚨 " + markdownEscaper.ReplaceAllString(message, "\\$1")
	if suffix := renderFields(fields); suffix != "" {
		text += "\n" + markdownEscaper.ReplaceAllString(suffix, "\\$1")
	}

	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", d.systemChatID)
	params.AddNonZero("message_thread_id", d.systemThreadID)
	params["text"] = text
	params["parse_mode"] = tgbotapi.ModeMarkdownV2
	return params
}

func renderFields(fields []zap.Field) string {
	if len(fields) == 0 {
		return ""
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for key := range enc.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := ""
	for i, key := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", key, enc.Fields[key])
	}
	return out
}
