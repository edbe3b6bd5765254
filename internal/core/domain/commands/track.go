package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"musebot/internal/core/domain"
	"musebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// TrackHandler reports the current state of a previously submitted
// generation job, useful after a session timed out.
type TrackHandler struct {
	generator  port.MusicGenerator
	textSender port.TextSender
	command    string
}

func NewTrackHandler(generator port.MusicGenerator, textSender port.TextSender, command string) *TrackHandler {
	return &TrackHandler{generator: generator, textSender: textSender, command: command}
}

func (h *TrackHandler) GetCommand() string {
	return h.command
}

func (h *TrackHandler) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("command", h.GetCommand()).
		Logger()

	l.Info().Msg("handling request")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	go h.textSender.SendChatAction(ctx, message.ChatID, domain.Typing)

	jobHandle := domain.ParseCommandArgs(message.Text)
	if jobHandle == "" {
		_ = h.textSender.NotifyAndReturnError(ctx, errors.New("usage: /track <job id>"), message)
		return nil
	}

	status, tracks, err := h.generator.CheckGeneration(ctx, jobHandle)
	if err != nil {
		_ = h.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to check job: %w", err), message)
		return nil
	}

	sb := &strings.Builder{}
	fmt.Fprintf(sb, "job %s: %s", jobHandle, status)
	if !status.Terminal() {
		sb.WriteString(" (still in progress, check again later)")
	}
	for _, track := range tracks {
		fmt.Fprintf(sb, "\n%s", track.Title)
		if track.AudioURL != "" {
			fmt.Fprintf(sb, ": %s", track.AudioURL)
		}
	}

	if err := h.textSender.SendMessageReply(ctx, message.ChatID, message.ID, sb.String()); err != nil {
		l.Error().Err(err).Msg(domain.ErrSendingReplyFailed.Error())
		return err
	}

	return nil
}
