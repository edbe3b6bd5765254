package commands

import (
	"context"

	"musebot/internal/core/domain"
	"musebot/internal/core/port"
)

// resolveQuery turns the incoming message into a song query: the photo is
// captioned when present, otherwise the command arguments are used verbatim.
func resolveQuery(ctx context.Context, captioner port.Captioner, message *domain.Message) (string, error) {
	if message.ImageURL != "" {
		return captioner.CaptionImage(ctx, message.ImageURL)
	}

	return domain.ParseCommandArgs(message.Text), nil
}
