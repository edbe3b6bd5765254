package generator

import (
	"strings"

	"musebot/internal/core/domain"
)

const defaultTrackTitle = "Untitled Track"

// The provider has no stable response schema: field names and nesting vary
// between API versions and deployments. Every parsing decision below is an
// ordered alias chain where the first present, non-empty value wins.

// lookupValue returns the first value found among the candidate key paths.
// Path segments are separated by '.'.
func lookupValue(doc map[string]any, paths ...string) (any, bool) {
	for _, path := range paths {
		node := any(doc)
		found := true
		for _, key := range strings.Split(path, ".") {
			m, ok := node.(map[string]any)
			if !ok {
				found = false
				break
			}
			node, ok = m[key]
			if !ok {
				found = false
				break
			}
		}
		if found && node != nil {
			return node, true
		}
	}
	return nil, false
}

// lookupString returns the first non-empty string among the candidate key paths.
func lookupString(doc map[string]any, paths ...string) string {
	for _, path := range paths {
		v, ok := lookupValue(doc, path)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// providerCode extracts the provider-level status code embedded in the body,
// distinct from the transport status code.
func providerCode(doc map[string]any) (int, bool) {
	switch n := doc["code"].(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func providerMessage(doc map[string]any) string {
	return lookupString(doc, "msg", "message")
}

func canonicalStatus(raw string) domain.GenerationStatus {
	switch strings.ToUpper(raw) {
	case "SUCCESS", "DONE", "COMPLETED":
		return domain.StatusSuccess
	case "FAILED", "ERROR":
		return domain.StatusFailed
	case "PENDING":
		return domain.StatusPending
	case "PROCESSING":
		return domain.StatusProcessing
	default:
		return domain.StatusUnknown
	}
}

// statusDocument is the normalized form of one record-info response.
type statusDocument struct {
	Status    domain.GenerationStatus
	RawStatus string
	Tracks    []domain.Track
}

// parseStatusDocument maps a raw status response to its canonical form. Pure
// function, tolerant by construction: unknown statuses keep the session
// waiting, junk result items are skipped, and a missing or empty result
// container yields nil tracks.
func parseStatusDocument(doc map[string]any) statusDocument {
	rawStatus := lookupString(doc, "data.status", "data.taskStatus", "status", "taskStatus")

	container, _ := lookupValue(doc,
		"data.response.sunoData",
		"data.response.data",
		"data.response.songs",
		"data.sunoData",
		"data.data",
		"result",
	)

	var items []any
	switch v := container.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	}

	containerTitle := lookupString(doc, "data.title")

	var tracks []domain.Track
	for _, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}

		title := lookupString(rec, "title")
		if title == "" {
			title = containerTitle
		}
		if title == "" {
			title = defaultTrackTitle
		}

		tracks = append(tracks, domain.Track{
			ID:    lookupString(rec, "id", "musicId", "songId"),
			Title: title,
			// Direct download URL preferred over CDN source over stream.
			AudioURL: lookupString(rec, "audioUrl", "sourceAudioUrl", "streamAudioUrl"),
			ImageURL: lookupString(rec, "imageUrl", "coverUrl"),
			Raw:      rec,
		})
	}

	return statusDocument{
		Status:    canonicalStatus(rawStatus),
		RawStatus: rawStatus,
		Tracks:    tracks,
	}
}
