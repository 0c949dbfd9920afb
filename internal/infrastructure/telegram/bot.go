// Package telegram connects moderation, alerts and channel posts to the Telegram bot API.
package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"HempNewsPipeline/internal/config"
)

// ErrNoChat is returned when a chat identifier is missing.
var ErrNoChat = errors.New("telegram: chat not configured")

// API is the part of the bot client the adapters use.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

var _ API = (*tgbotapi.BotAPI)(nil)

// NewBot authenticates against the bot API. It returns nil, nil without a token
// so callers can run with Telegram disabled.
func NewBot(cfg config.TelegramConfig, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, nil
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return bot, nil
}

// chat is either a numeric chat id or a public @channel name.
type chat struct {
	id       int64
	username string
}

func parseChat(raw string) (chat, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return chat{}, ErrNoChat
	}
	if strings.HasPrefix(raw, "@") {
		return chat{username: raw}, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return chat{}, fmt.Errorf("parse chat id %q: %w", raw, err)
	}
	return chat{id: id}, nil
}

func (c chat) message(text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(c.id, text)
	msg.ChannelUsername = c.username
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}

func (c chat) photo(url, caption string) tgbotapi.PhotoConfig {
	photo := tgbotapi.NewPhoto(c.id, tgbotapi.FileURL(url))
	photo.ChannelUsername = c.username
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	return photo
}

func (c chat) matches(id int64) bool {
	return c.username == "" && c.id == id
}
