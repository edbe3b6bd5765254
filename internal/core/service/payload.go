package service

import (
	"regexp"
	"strings"

	"musebot/internal/core/domain"

	"github.com/spf13/viper"
)

const (
	defaultPayloadModel = "V4_5"
	defaultPayloadStyle = "K-pop ballad / Korean language / Korean lyrics / " +
		"warm female vocal / soft piano & strings / 85-92 BPM"
	defaultPayloadTitle = "Musebot Track"

	maxTitleRunes  = 80
	minLyricLength = 10
)

// The merged agent guide is a numbered document; the lyrics live in section
// four. Header phrasing drifts between model outputs, so several patterns
// are tried in order.
var lyricSectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)###\s*4\)[^\n]*\n(.*)$`),
	regexp.MustCompile(`(?is)\b4\)\s*lyrics[^\n]*\n(.*)$`),
	regexp.MustCompile(`(?is)lyrics\s*draft[:\-]?\s*\n(.*)$`),
}

var (
	reLyricHeader     = regexp.MustCompile(`(?i)###\s*4\)|4\)\s*lyrics|lyrics\s*draft`)
	reNumberedSection = regexp.MustCompile(`^###?\s*[123]\)`)
)

// PayloadBuilder turns a lyric guide into the generation request payload and
// normalizes caller-supplied payloads into the shape the provider accepts.
type PayloadBuilder struct {
	model       string
	style       string
	title       string
	callbackURL string
}

func NewPayloadBuilder() *PayloadBuilder {
	b := &PayloadBuilder{
		model:       viper.GetString("suno.model"),
		style:       viper.GetString("suno.style"),
		title:       viper.GetString("suno.title"),
		callbackURL: viper.GetString("suno.callback_url"),
	}

	if b.model == "" {
		b.model = defaultPayloadModel
	}
	if b.style == "" {
		b.style = defaultPayloadStyle
	}
	if b.title == "" {
		b.title = defaultPayloadTitle
	}

	return b
}

// FromLyricGuide extracts the lyric section from a merged agent guide,
// post-processes the language mix and wraps the result in a normalized
// payload.
func (b *PayloadBuilder) FromLyricGuide(guide string) (map[string]any, error) {
	lyrics := RefineLyrics(ExtractLyricSection(guide))
	return b.Normalize(map[string]any{"prompt": lyrics})
}

// Normalize coerces a raw payload: lyrics move into "prompt", instrumental
// becomes a real boolean, required fields are defaulted, overlong titles are
// truncated and nil values are stripped. An empty prompt is an error.
func (b *PayloadBuilder) Normalize(payload map[string]any) (map[string]any, error) {
	p := make(map[string]any, len(payload)+6)
	for k, v := range payload {
		p[k] = v
	}

	if _, ok := p["prompt"]; !ok {
		if lyrics, ok := p["lyrics"]; ok {
			p["prompt"] = lyrics
			delete(p, "lyrics")
		}
	}

	if _, ok := p["customMode"]; !ok {
		p["customMode"] = true
	}

	p["instrumental"] = coerceBool(p["instrumental"])

	if s, _ := p["model"].(string); s == "" {
		p["model"] = b.model
	}
	if s, _ := p["style"].(string); s == "" {
		p["style"] = b.style
	}
	if s, _ := p["title"].(string); s == "" {
		p["title"] = b.title
	}
	if title, ok := p["title"].(string); ok {
		if runes := []rune(title); len(runes) > maxTitleRunes {
			p["title"] = string(runes[:maxTitleRunes-4]) + "..."
		}
	}

	if b.callbackURL != "" {
		if _, ok := p["callBackUrl"]; !ok {
			p["callBackUrl"] = b.callbackURL
		}
		if _, ok := p["callbackUrl"]; !ok {
			p["callbackUrl"] = b.callbackURL
		}
	}

	if s, _ := p["prompt"].(string); strings.TrimSpace(s) == "" {
		return nil, domain.ErrEmptyLyrics
	}

	// some provider versions reject null values
	for k, v := range p {
		if v == nil {
			delete(p, k)
		}
	}

	return p, nil
}

// ExtractLyricSection pulls the lyrics draft out of the numbered guide. If
// no header pattern matches, the numbered non-lyric sections are dropped
// line by line; failing that, the whole guide is used.
func ExtractLyricSection(guide string) string {
	text := cleanGuide(guide)

	for _, re := range lyricSectionPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if candidate := strings.TrimSpace(m[1]); len(candidate) >= minLyricLength {
				return candidate
			}
		}
	}

	var kept []string
	inLyrics := false
	for _, line := range strings.Split(text, "\n") {
		switch {
		case reLyricHeader.MatchString(line):
			inLyrics = true
		case reNumberedSection.MatchString(strings.TrimSpace(line)):
			inLyrics = false
		case inLyrics:
			kept = append(kept, line)
		}
	}
	if len(kept) > 0 {
		return strings.TrimSpace(strings.Join(kept, "\n"))
	}

	return text
}

func cleanGuide(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "y":
			return true
		}
	}
	return false
}
