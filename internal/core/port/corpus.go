package port

import (
	"context"
	"musebot/internal/core/domain"
)

type LyricsSearcher interface {
	// Search returns up to k reference lyrics ranked by relevance to the query.
	Search(ctx context.Context, query string, k int) ([]domain.CorpusHit, error)
}
