package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"unicode/utf8"

	"HempNewsPipeline/internal/domain"
	"HempNewsPipeline/internal/ports"
	"HempNewsPipeline/internal/textutil"
)

const captionLimit = 1024

// ChannelPoster announces published articles in the public channel.
type ChannelPoster struct {
	bot     API
	channel string
	siteURL string
	logger  *slog.Logger
}

var _ ports.SocialPoster = (*ChannelPoster)(nil)

// NewChannelPoster posts to channelID; relative image paths are resolved against siteURL.
func NewChannelPoster(bot API, channelID, siteURL string, logger *slog.Logger) *ChannelPoster {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelPoster{bot: bot, channel: channelID, siteURL: strings.TrimRight(siteURL, "/"), logger: logger}
}

// Post sends a photo post when the draft has an image and falls back to text.
func (p *ChannelPoster) Post(_ context.Context, draft domain.DraftArticle, pub domain.Publication) error {
	if p.bot == nil {
		return fmt.Errorf("telegram poster misconfigured")
	}
	target, err := parseChat(p.channel)
	if err != nil {
		return err
	}

	text := postText(draft, pub)
	if draft.Image != nil && draft.Image.URL != "" {
		imageURL := draft.Image.URL
		if strings.HasPrefix(imageURL, "/") {
			imageURL = p.siteURL + imageURL
		}
		caption := text
		if utf8.RuneCountInString(caption) > captionLimit {
			caption = postText(shortened(draft), pub)
		}
		_, err := p.bot.Send(target.photo(imageURL, caption))
		if err == nil {
			return nil
		}
		p.logger.Warn("channel photo failed, sending text", "draft_id", draft.ID, "error", err)
	}

	msg := target.message(text)
	if _, err := p.bot.Send(msg); err != nil {
		return fmt.Errorf("post draft %s: %w", draft.ID, err)
	}
	return nil
}

func postText(draft domain.DraftArticle, pub domain.Publication) string {
	article := draft.Article
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>\n\n", article.Category.Emoji(), html.EscapeString(article.Title))
	if summary := textutil.PlainText(article.Summary); summary != "" {
		fmt.Fprintf(&b, "%s\n\n", html.EscapeString(summary))
	}
	if pub.URL != "" {
		fmt.Fprintf(&b, "<a href=\"%s\">Читати повністю →</a>", html.EscapeString(pub.URL))
	}
	return strings.TrimSpace(b.String())
}

// shortened trims the summary so that the caption fits the photo limit.
func shortened(draft domain.DraftArticle) domain.DraftArticle {
	draft.Article.Summary = textutil.Truncate(textutil.PlainText(draft.Article.Summary), captionLimit/2)
	return draft
}
