package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/internal/textutil"
)

const (
	previewSummaryWidth = 600
	callbackSeparator   = "_"
)

// Notifier sends draft previews with approve and reject buttons to the admin chat.
type Notifier struct {
	bot    API
	chatID string
}

var _ ports.ModerationNotifier = (*Notifier)(nil)

// NewNotifier registers the bot and the admin chat identifier.
func NewNotifier(bot API, adminChatID string) *Notifier {
	return &Notifier{bot: bot, chatID: adminChatID}
}

// NotifyDraft posts the preview and returns the Telegram message id.
func (n *Notifier) NotifyDraft(_ context.Context, draft domain.DraftArticle) (int, error) {
	if n.bot == nil {
		return 0, fmt.Errorf("telegram notifier misconfigured")
	}
	target, err := parseChat(n.chatID)
	if err != nil {
		return 0, err
	}

	msg := target.message(previewText(draft))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Опублікувати", CallbackData(domain.ActionApprove, draft.ID)),
		tgbotapi.NewInlineKeyboardButtonData("❌ Відхилити", CallbackData(domain.ActionReject, draft.ID)),
	))

	sent, err := n.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send draft %s: %w", draft.ID, err)
	}
	return sent.MessageID, nil
}

// CallbackData encodes a decision button payload such as approve_ab12cd34.
func CallbackData(action domain.OperatorAction, draftID string) string {
	return string(action) + callbackSeparator + draftID
}

// ParseCallbackData is the inverse of CallbackData.
func ParseCallbackData(data string) (domain.OperatorAction, string, bool) {
	action, id, ok := strings.Cut(data, callbackSeparator)
	if !ok || id == "" {
		return "", "", false
	}
	switch domain.OperatorAction(action) {
	case domain.ActionApprove, domain.ActionReject:
		return domain.OperatorAction(action), id, true
	default:
		return "", "", false
	}
}

func previewText(draft domain.DraftArticle) string {
	article := draft.Article
	summary := textutil.Truncate(textutil.PlainText(article.Summary), previewSummaryWidth)

	var b strings.Builder
	b.WriteString("📰 <b>Нова стаття для модерації</b>\n\n")
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(article.Title))
	if summary != "" {
		fmt.Fprintf(&b, "%s\n\n", html.EscapeString(summary))
	}
	fmt.Fprintf(&b, "Категорія: %s %s\n", article.Category.Emoji(), html.EscapeString(string(article.Category)))
	if len(article.Tags) > 0 {
		fmt.Fprintf(&b, "Теги: %s\n", html.EscapeString(strings.Join(article.Tags, ", ")))
	}
	if draft.SourceURL != "" {
		fmt.Fprintf(&b, "Джерело: <a href=\"%s\">%s</a>\n", html.EscapeString(draft.SourceURL), html.EscapeString(sourceLabel(draft)))
	}
	if draft.Image != nil && strings.HasPrefix(draft.Image.URL, "http") {
		fmt.Fprintf(&b, "Зображення: <a href=\"%s\">%s</a>\n", html.EscapeString(draft.Image.URL), html.EscapeString(draft.Image.SourceTag))
	}
	fmt.Fprintf(&b, "ID: <code>%s</code>", html.EscapeString(draft.ID))
	return b.String()
}

func sourceLabel(draft domain.DraftArticle) string {
	if draft.SourceName != "" {
		return draft.SourceName
	}
	return draft.SourceURL
}
