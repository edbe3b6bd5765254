package file

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"musebot/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadToFile(t *testing.T) {
	tests := []struct {
		name       string
		inputBytes []byte
		status     int
		wantErr    bool
	}{
		{
			name:       "success",
			inputBytes: []byte("mp3 bytes"),
			status:     http.StatusOK,
			wantErr:    false,
		},
		{
			name:       "not found",
			inputBytes: []byte("not found"),
			status:     http.StatusNotFound,
			wantErr:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, err := w.Write(tc.inputBytes)
				assert.NoError(t, err)
			}))
			defer srv.Close()

			dir := t.TempDir()

			path, err := DownloadToFile(t.Context(), srv.URL, dir, "01_test.mp3")
			if tc.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "01_test.mp3"), path)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.inputBytes, content)
		})
	}
}

func TestDownloadToFile_CreatesDir(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "nested", "outputs")

	path, err := DownloadToFile(t.Context(), srv.URL, dir, "a.mp3")
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestGetFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))

	got, err := GetFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), got)

	_, err = GetFile(filepath.Join(dir, "missing.mp3"))
	assert.Error(t, err)
}

func TestAudioStore_DownloadTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("mp3 bytes"))
	}))
	defer srv.Close()

	store := NewAudioStore(t.TempDir())

	audio, path, err := store.DownloadTrack(t.Context(), domain.Track{
		Title:    "봄날의 노래",
		AudioURL: srv.URL + "/t1.mp3",
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, []byte("mp3 bytes"), audio)
	assert.Contains(t, filepath.Base(path), "01_")
	assert.Contains(t, filepath.Base(path), "봄날의 노래")
	assert.FileExists(t, path)
}

func TestAudioFileName(t *testing.T) {
	tests := []struct {
		name  string
		index int
		title string
		url   string
		want  string
	}{
		{
			name:  "title used when present",
			index: 1,
			title: "My Song",
			url:   "https://cdn/abc.mp3",
			want:  "01_My Song.mp3",
		},
		{
			name:  "korean title survives",
			index: 2,
			title: "봄날",
			url:   "https://cdn/abc.mp3",
			want:  "02_봄날.mp3",
		},
		{
			name:  "unsafe characters replaced",
			index: 3,
			title: "a/b:c",
			url:   "",
			want:  "03_a_b_c.mp3",
		},
		{
			name:  "url basename fallback",
			index: 4,
			title: "",
			url:   "https://cdn/path/track4.mp3?token=x",
			want:  "04_track4.mp3",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AudioFileName(tc.index, tc.title, tc.url))
		})
	}
}

func TestAudioFileName_RandomFallback(t *testing.T) {
	got := AudioFileName(5, "", "")

	assert.True(t, strings.HasPrefix(got, "05_"))
	assert.True(t, strings.HasSuffix(got, ".mp3"))
	assert.Greater(t, len(got), len("05_.mp3"))
}
