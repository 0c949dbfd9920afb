package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/internal/textutil"
)

const callbackAnswerWidth = 190

// Inbox reads decision buttons and admin commands from the bot update stream.
type Inbox struct {
	bot    API
	admin  string
	logger *slog.Logger
}

var _ ports.OperatorInbox = (*Inbox)(nil)

// NewInbox accepts events only from adminChatID.
func NewInbox(bot API, adminChatID string, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{bot: bot, admin: adminChatID, logger: logger}
}

// Poll fetches updates starting at offset and returns the offset to use next time.
func (i *Inbox) Poll(_ context.Context, offset int) ([]domain.OperatorEvent, int, error) {
	if i.bot == nil {
		return nil, offset, fmt.Errorf("telegram inbox misconfigured")
	}
	admin, err := parseChat(i.admin)
	if err != nil {
		return nil, offset, err
	}

	cfg := tgbotapi.NewUpdate(offset)
	cfg.AllowedUpdates = []string{"message", "callback_query"}
	updates, err := i.bot.GetUpdates(cfg)
	if err != nil {
		return nil, offset, fmt.Errorf("get updates: %w", err)
	}

	next := offset
	var events []domain.OperatorEvent
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
		event, ok := i.toEvent(u, admin)
		if ok {
			events = append(events, event)
		}
	}
	return events, next, nil
}

func (i *Inbox) toEvent(u tgbotapi.Update, admin chat) (domain.OperatorEvent, bool) {
	switch {
	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil || !admin.matches(cb.Message.Chat.ID) {
			i.logger.Warn("callback from foreign chat ignored", "update_id", u.UpdateID)
			return domain.OperatorEvent{}, false
		}
		action, id, ok := ParseCallbackData(cb.Data)
		if !ok {
			i.logger.Warn("unknown callback data", "data", cb.Data)
			return domain.OperatorEvent{}, false
		}
		return domain.OperatorEvent{
			Action:     action,
			DraftID:    id,
			Operator:   userName(cb.From),
			ChatID:     cb.Message.Chat.ID,
			MessageID:  cb.Message.MessageID,
			CallbackID: cb.ID,
		}, true

	case u.Message != nil:
		msg := u.Message
		if msg.Chat == nil || !admin.matches(msg.Chat.ID) {
			return domain.OperatorEvent{}, false
		}
		action, ok := parseCommand(msg.Text)
		if !ok {
			return domain.OperatorEvent{}, false
		}
		return domain.OperatorEvent{
			Action:    action,
			Operator:  userName(msg.From),
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
		}, true
	}
	return domain.OperatorEvent{}, false
}

// parseCommand maps /status and /help; any other command gets the help text.
func parseCommand(text string) (domain.OperatorAction, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	if cmd == "/status" {
		return domain.ActionStatus, true
	}
	return domain.ActionHelp, true
}

// Reply answers the callback, drops the buttons once a decision was applied
// and posts the outcome text to the chat.
func (i *Inbox) Reply(_ context.Context, event domain.OperatorEvent, outcome domain.DecisionOutcome) error {
	if i.bot == nil {
		return fmt.Errorf("telegram inbox misconfigured")
	}

	var errs []error
	if event.CallbackID != "" {
		answer := tgbotapi.NewCallback(event.CallbackID, textutil.Truncate(outcome.Message, callbackAnswerWidth))
		if _, err := i.bot.Request(answer); err != nil {
			errs = append(errs, fmt.Errorf("answer callback: %w", err))
		}
		if outcome.Applied && event.MessageID != 0 {
			edit := tgbotapi.NewEditMessageReplyMarkup(event.ChatID, event.MessageID,
				tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
			if _, err := i.bot.Request(edit); err != nil {
				errs = append(errs, fmt.Errorf("remove keyboard: %w", err))
			}
		}
	}

	if strings.TrimSpace(outcome.Message) != "" {
		msg := tgbotapi.NewMessage(event.ChatID, outcome.Message)
		msg.DisableWebPagePreview = true
		if _, err := i.bot.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("send reply: %w", err))
		}
	}
	return errors.Join(errs...)
}

func userName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
