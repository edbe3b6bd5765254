package generator

import (
	"context"
	"fmt"
	"strings"

	"musebot/internal/core/domain"

	"github.com/revrost/go-openrouter"
	"github.com/rs/zerolog/log"
)

// OpenRouterClient is the subset of the openrouter client the adapter uses.
type OpenRouterClient interface {
	CreateChatCompletion(ctx context.Context,
		ccr openrouter.ChatCompletionRequest) (openrouter.ChatCompletionResponse, error)
}

// OpenRouter drafts lyric guides and captions images through OpenRouter
// chat completions.
type OpenRouter struct {
	client OpenRouterClient
	model  string
}

func NewOpenRouter(apiKey, model string) *OpenRouter {
	return &OpenRouter{
		model: model,
		client: openrouter.NewClient(
			apiKey,
			openrouter.WithXTitle("musebot"),
		),
	}
}

const lyricSystemPrompt = "You are a lyric writing assistant. Write Korean lyrics by default, " +
	"mixing in English only where the language mix rules allow. Never write romanized Korean, " +
	"never pad lines with meaningless repeated syllables (la, na)."

const mixGuide = `[language mix rules]
- Verse: at least 95% Korean (English <= 5%)
- Pre-Chorus: at least 90% Korean (English <= 10%)
- Chorus/Hook: 20-35% English allowed, short keywords and refrains only
- Bridge/Outro: English <= 15%, no full English sentences
[allowed English words]
love, baby, yeah, oh, feel, heart, light, dream, tonight, stay, you, me, we, my, your
[forbidden]
- romanized Korean (e.g. saranghae)
- meaningless syllable repetition (la, na)`

const captionInstruction = "Describe the mood, scenery and emotional tone of this image in one short " +
	"sentence, as a query for finding songs that match it. No preamble, just the sentence."

// mergeOutputFormat is referenced by the payload builder when it extracts
// the lyric section from the merged guide.
const mergeOutputFormat = `Output format:
1) 8 core keywords
2) 6 mood tags
3) one-line narrative outline
### 4) Lyrics Draft
(8 bars of Korean lyrics)`

const maxReferenceChars = 200

// CaptionImage turns an image into a short search query.
func (o *OpenRouter) CaptionImage(ctx context.Context, imageURL string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model: o.model,
		Messages: []openrouter.ChatCompletionMessage{
			{
				Role: openrouter.ChatMessageRoleUser,
				Content: openrouter.Content{Multi: []openrouter.ChatMessagePart{
					{
						Type:     openrouter.ChatMessagePartTypeImageURL,
						ImageURL: &openrouter.ChatMessageImageURL{URL: imageURL},
					},
					{
						Type: openrouter.ChatMessagePartTypeText,
						Text: captionInstruction,
					},
				}},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openrouter API error: %w", err)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content.Text), nil
}

// ComposeLyrics runs a three-role debate over the query and reference
// lyrics, then merges the proposals into one lyric guide.
func (o *OpenRouter) ComposeLyrics(ctx context.Context, query string, refs []domain.CorpusHit) (string, error) {
	refContext := buildReferenceContext(query, refs)

	roles := []struct {
		name        string
		instruction string
	}{
		{"emotion agent", "propose the emotional tone and arc"},
		{"mood agent", "propose mood, genre and tempo tags"},
		{"structure agent", "propose the narrative flow and section structure"},
	}

	proposals := make([]string, len(roles))
	for i, role := range roles {
		proposal, err := o.callAgent(ctx, role.name, role.instruction, refContext)
		if err != nil {
			return "", fmt.Errorf("agent %q failed: %w", role.name, err)
		}
		log.Debug().Str("agent", role.name).Int("chars", len(proposal)).Msg("agent proposal received")
		proposals[i] = proposal
	}

	mergePrompt := fmt.Sprintf(`Combine the following three proposals into one agreed lyric guide.
- emotion: %s
- mood: %s
- structure: %s
%s`, proposals[0], proposals[1], proposals[2], mergeOutputFormat)

	resp, err := o.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model: o.model,
		Messages: []openrouter.ChatCompletionMessage{
			{Role: openrouter.ChatMessageRoleSystem, Content: openrouter.Content{Text: lyricSystemPrompt}},
			{Role: openrouter.ChatMessageRoleUser, Content: openrouter.Content{Text: mergePrompt}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openrouter API error on merge: %w", err)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content.Text), nil
}

func (o *OpenRouter) callAgent(ctx context.Context, roleName, instruction, refContext string) (string, error) {
	msg := fmt.Sprintf(`%s
[role] %s
[instruction] %s
[context]
%s
[output instructions]
- respect the per-section English ratios
- English words only from the allowed list
- no romanized Korean, no meaningless syllable repetition
- write Korean-first sentences`, mixGuide, roleName, instruction, refContext)

	resp, err := o.client.CreateChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model: o.model,
		Messages: []openrouter.ChatCompletionMessage{
			{Role: openrouter.ChatMessageRoleSystem, Content: openrouter.Content{Text: lyricSystemPrompt}},
			{Role: openrouter.ChatMessageRoleUser, Content: openrouter.Content{Text: msg}},
		},
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content.Text), nil
}

func buildReferenceContext(query string, refs []domain.CorpusHit) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "query: %s\nreferences:\n", query)

	for _, ref := range refs {
		text := ref.Text
		if len(text) > maxReferenceChars {
			text = text[:maxReferenceChars] + "..."
		}
		fmt.Fprintf(sb, "- %s / %s / %s\n", ref.Title, ref.Singer, text)
	}

	return sb.String()
}
