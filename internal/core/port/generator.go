package port

import (
	"context"
	"musebot/internal/core/domain"
)

type Captioner interface {
	// CaptionImage turns an image into a short mood/scene query suitable as
	// search and writing context.
	CaptionImage(ctx context.Context, imageURL string) (string, error)
}

type LyricComposer interface {
	// ComposeLyrics drafts a lyric guide for the query, using the corpus hits
	// as stylistic references.
	ComposeLyrics(ctx context.Context, query string, refs []domain.CorpusHit) (string, error)
}

type MusicGenerator interface {
	// GenerateFromPayload submits the generation payload and blocks until the
	// provider reports a terminal result or the session deadline elapses.
	GenerateFromPayload(ctx context.Context, payload map[string]any) (*domain.GenerationResult, error)
	// CheckGeneration fetches and normalizes the current state of a
	// previously submitted job without waiting.
	CheckGeneration(ctx context.Context, jobHandle string) (domain.GenerationStatus, []domain.Track, error)
}
