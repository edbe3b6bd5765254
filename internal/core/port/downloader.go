package port

import (
	"context"
	"musebot/internal/core/domain"
)

type AudioDownloader interface {
	// DownloadTrack fetches the track's audio to local storage and returns the
	// bytes along with the saved path.
	DownloadTrack(ctx context.Context, track domain.Track, index int) ([]byte, string, error)
}
