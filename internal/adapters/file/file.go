package file

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"musebot/internal/core/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// AudioStore downloads generated tracks into a local output directory.
type AudioStore struct {
	dir string
}

func NewAudioStore(dir string) *AudioStore {
	return &AudioStore{dir: dir}
}

// DownloadTrack fetches the track's audio into the output directory and
// returns the bytes along with the saved path.
func (a *AudioStore) DownloadTrack(ctx context.Context, track domain.Track, index int) ([]byte, string, error) {
	name := AudioFileName(index, track.Title, track.AudioURL)

	path, err := DownloadToFile(ctx, track.AudioURL, a.dir, name)
	if err != nil {
		return nil, "", err
	}

	buf, err := GetFile(path)
	if err != nil {
		return nil, "", err
	}

	return buf, path, nil
}

// DownloadToFile streams the content behind url into dir/filename and
// returns the full path. Generated audio can be large, so it is never
// buffered in memory on the way to disk.
func DownloadToFile(ctx context.Context, url, dir, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("error creating request %w", err)
		log.Error().Err(err).Str("url", url).Send()
		return "", err
	}

	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request %w", err)
		log.Error().Err(err).Str("url", url).Send()
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		err = fmt.Errorf("unexpected status code on download: %d", res.StatusCode)
		log.Error().Err(err).Str("url", url).Send()
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output dir %w", err)
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating output file %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, res.Body)
	if err != nil {
		return "", fmt.Errorf("error writing output file %w", err)
	}

	log.Debug().Str("path", path).Int64("bytes", written).Msg("saved download")

	return path, nil
}

// GetFile reads back a previously saved file.
func GetFile(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("error reading file %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	return buf, nil
}

// AudioFileName derives a safe, indexed mp3 filename from a track title,
// falling back to the URL basename and finally to a random name.
func AudioFileName(index int, title, url string) string {
	name := sanitize(title)

	if name == "" {
		name = urlBasename(url)
	}

	if name == "" {
		id, err := uuid.NewV4()
		if err == nil {
			name = id.String()
		} else {
			name = "track"
		}
	}

	name = fmt.Sprintf("%02d_%s", index, name)
	if !strings.HasSuffix(name, ".mp3") {
		name += ".mp3"
	}

	return name
}

func sanitize(title string) string {
	var sb strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '.', r == '_', r == '-':
			sb.WriteRune(r)
		case r > 127:
			// keep non-ASCII letters, titles are often Korean
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	return strings.TrimSpace(sb.String())
}

func urlBasename(url string) string {
	parts := strings.Split(url, "/")
	last := parts[len(parts)-1]
	if i := strings.Index(last, "?"); i >= 0 {
		last = last[:i]
	}

	return strings.TrimSuffix(last, ".mp3")
}
