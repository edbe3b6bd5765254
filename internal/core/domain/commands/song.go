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

// SongHandler runs the full pipeline: caption or text query, corpus
// references, agent-drafted lyrics, music generation, audio delivery.
type SongHandler struct {
	captioner   port.Captioner
	searcher    port.LyricsSearcher
	composer    port.LyricComposer
	generator   port.MusicGenerator
	downloader  port.AudioDownloader
	payloads    *service.PayloadBuilder
	textSender  port.TextSender
	audioSender port.AudioSender
	credits     service.Tracker
	searchK     int
	command     string
}

func NewSongHandler(captioner port.Captioner,
	searcher port.LyricsSearcher,
	composer port.LyricComposer,
	generator port.MusicGenerator,
	downloader port.AudioDownloader,
	payloads *service.PayloadBuilder,
	textSender port.TextSender,
	audioSender port.AudioSender,
	credits service.Tracker,
	searchK int,
	command string) *SongHandler {
	return &SongHandler{
		captioner:   captioner,
		searcher:    searcher,
		composer:    composer,
		generator:   generator,
		downloader:  downloader,
		payloads:    payloads,
		textSender:  textSender,
		audioSender: audioSender,
		credits:     credits,
		searchK:     searchK,
		command:     command,
	}
}

func (h *SongHandler) GetCommand() string {
	return h.command
}

func (h *SongHandler) Respond(ctx context.Context, timeout time.Duration, message *domain.Message) error {
	l := log.With().
		Int("messageId", message.ID).
		Int64("chatId", message.ChatID).
		Str("imageURL", message.ImageURL).
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
			errors.New("send a photo or describe the song: /song <description>"), message)
		return nil
	}

	if !h.credits.CheckLimit(ctx, message.ChatID, message.ID) {
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

	payload, err := h.payloads.FromLyricGuide(guide)
	if err != nil {
		return h.textSender.NotifyAndReturnError(ctx, fmt.Errorf("failed to build generation payload: %w", err), message)
	}

	if err := h.textSender.SendMessageReply(ctx, message.ChatID, message.ID,
		"generating your track, this can take a few minutes"); err != nil {
		l.Warn().Err(err).Msg(domain.ErrSendingReplyFailed.Error())
	}

	result, err := h.generator.GenerateFromPayload(ctx, payload)
	if err != nil {
		return h.textSender.NotifyAndReturnError(ctx, fmt.Errorf("music generation failed: %w", err), message)
	}

	l.Info().Str("jobHandle", result.JobHandle).Int("tracks", len(result.Tracks)).Msg("generation finished")

	h.credits.AddTracks(message.ChatID, len(result.Tracks))

	go h.textSender.SendChatAction(ctx, message.ChatID, domain.UploadingAudio)

	for i, track := range result.Tracks {
		if track.AudioURL == "" {
			l.Warn().Str("trackId", track.ID).Msg("track has no audio URL, skipping")
			continue
		}

		audio, path, err := h.downloader.DownloadTrack(ctx, track, i+1)
		if err != nil {
			l.Error().Err(err).Str("audioURL", track.AudioURL).Msg("failed to download track")
			_ = h.textSender.NotifyAndReturnError(ctx,
				fmt.Errorf("failed to download track %q: %w", track.Title, err), message)
			continue
		}

		l.Debug().Str("path", path).Msg("track saved")

		if err := h.audioSender.SendAudioFileReply(ctx, message.ChatID, message.ID, track.Title, audio); err != nil {
			l.Error().Err(err).Msg(domain.ErrSendingReplyFailed.Error())
			return err
		}
	}

	return nil
}
