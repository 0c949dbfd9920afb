package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/internal/textutil"
)

// AlertDetailWidth bounds the error detail carried by an alert.
const AlertDetailWidth = 500

var alertIcons = map[domain.AlertLevel]string{
	domain.AlertInfo:     "ℹ️",
	domain.AlertWarn:     "⚠️",
	domain.AlertError:    "❌",
	domain.AlertCritical: "🚨",
}

// Alerter sends operator alerts to the admin chat. Without a bot or chat it
// only logs them.
type Alerter struct {
	bot    API
	chatID string
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.Alerter = (*Alerter)(nil)

// NewAlerter builds an alerter; bot may be nil.
func NewAlerter(bot API, chatID string, logger *slog.Logger) *Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Alerter{bot: bot, chatID: chatID, logger: logger, now: time.Now}
}

// Alert delivers the alert; low levels are sent silently.
func (a *Alerter) Alert(ctx context.Context, level domain.AlertLevel, title, detail string) error {
	detail = textutil.Truncate(detail, AlertDetailWidth)

	if a.bot == nil || strings.TrimSpace(a.chatID) == "" {
		a.logger.Log(ctx, logLevel(level), "alert", "level", string(level), "title", title, "detail", detail)
		return nil
	}
	target, err := parseChat(a.chatID)
	if err != nil {
		return err
	}

	msg := target.message(alertText(level, title, detail, a.now()))
	msg.DisableNotification = level == domain.AlertInfo || level == domain.AlertWarn
	msg.DisableWebPagePreview = true
	if _, err := a.bot.Send(msg); err != nil {
		return fmt.Errorf("send %s alert: %w", level, err)
	}
	return nil
}

func alertText(level domain.AlertLevel, title, detail string, at time.Time) string {
	icon, ok := alertIcons[level]
	if !ok {
		icon = "📋"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>HempNews: %s</b>\n\n", icon, level)
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(title))
	if detail != "" {
		if level == domain.AlertCritical || level == domain.AlertError {
			fmt.Fprintf(&b, "\n<code>%s</code>\n", html.EscapeString(detail))
		} else {
			fmt.Fprintf(&b, "\n%s\n", html.EscapeString(detail))
		}
	}
	fmt.Fprintf(&b, "\n<i>⏰ %s</i>", at.UTC().Format("2006-01-02 15:04 UTC"))
	return b.String()
}

func logLevel(level domain.AlertLevel) slog.Level {
	switch level {
	case domain.AlertInfo:
		return slog.LevelInfo
	case domain.AlertWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
