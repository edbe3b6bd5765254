package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"musebot/internal/core/domain"
	"musebot/internal/core/port"
	"musebot/internal/core/service"

	"github.com/rs/zerolog/log"
)

// LyricsHandler runs the drafting half of the pipeline and replies with the
// post-processed lyrics instead of generating music.
type LyricsHandler struct {
	captioner  port.Captioner
	searcher   port.LyricsSearcher
	composer   port.LyricComposer
	textSender port.TextSender
	searchK    int
	command    string
}

func NewLyricsHandler(captioner port.Captioner,
	searcher port.LyricsSearcher,
	composer port.LyricComposer,
	textSender port.TextSender,
	searchK int,
	command string) *LyricsHandler {
	return &LyricsHandler{
		captioner:  captioner,
		searcher:   searcher,
		composer:   composer,
		textSender: textSender,
		searchK:    searchK,
		command:    command,
	}
}

func (h *LyricsHandler) GetCommand() string {
	return h.command
}

func (h *LyricsHandler) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", h.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	go h.textSender.SendChatAction(ctx, message.ChatID, domain.Typing)

	query, err := resolveQuery(ctx, h.captioner, message)
	if err != nil {
		_ = h.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to describe image: %w", err), message)
		return nil
	}

	if query == "" {
		_ = h.textSender.NotifyAndReturnError(ctx,
			errors.New("send a photo or describe the song: /lyrics <description>"), message)
		return nil
	}

	hits, err := h.searcher.Search(ctx, query, h.searchK)
	if err != nil {
		l.Warn().Err(err).Msg("corpus search failed, composing without references")
		hits = nil
	}

	guide, err := h.composer.ComposeLyrics(ctx, query, hits)
	if err != nil {
		return h.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to draft lyrics: %w", err), message)
	}

	lyrics := service.RefineLyrics(service.ExtractLyricSection(guide))
	if lyrics == "" {
		return h.textSender.NotifyAndReturnError(ctx, domain.ErrEmptyLyrics, message)
	}

	if err := h.textSender.SendMessageReply(ctx, message.ChatID, message.ID, lyrics); err != nil {
		l.Error().Err(err).Msg(domain.ErrSendingReplyFailed.Error())
		return err
	}

	return nil
}
