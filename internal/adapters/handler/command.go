package handler

import (
	"context"
	"time"

	"musebot/internal/core/domain"
	"musebot/internal/core/service"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog/log"
)

// Registry resolves a command string to its handler.
type Registry interface {
	Get(command string) (domain.CommandResponder, error)
}

type Command struct {
	registry Registry
	auth     service.Authorizer
	timeout  time.Duration
}

func NewCommand(registry Registry, auth service.Authorizer, timeout time.Duration) *Command {
	return &Command{registry: registry, auth: auth, timeout: timeout}
}

// Handle matches bot.HandlerFunc. Responding happens on its own goroutine so
// a slow generation never blocks the update loop.
func (c *Command) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}

	msg := update.Message
	text := msg.Text
	if msg.Photo != nil && msg.Caption != "" {
		text = msg.Caption
	}

	log.Debug().Str("message", text).Msg("received command")

	cmd := domain.ParseCommand(text)
	commandHandler, err := c.registry.Get(cmd)
	if err != nil {
		log.Debug().Str("command", cmd).Msg("no handler for command")
		return
	}

	if c.auth != nil && !c.auth.IsAuthorized(ctx, msg.Chat.ID, msg.ID) {
		return
	}

	imageURL := make(chan string)
	go getOptionalImage(ctx, b, msg, imageURL)

	go func() {
		err := commandHandler.Respond(context.Background(), c.timeout, &domain.Message{
			ID:       msg.ID,
			ChatID:   msg.Chat.ID,
			Username: getUserNameFromMessage(msg.From),
			Text:     text,
			ImageURL: <-imageURL,
		})
		if err != nil {
			log.Err(err).Str("command", cmd).Msg("failed to respond to command")
		}
	}()
}

func getOptionalImage(ctx context.Context, b *bot.Bot, msg *models.Message, url chan<- string) {
	var photos []models.PhotoSize

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.Photo != nil {
		photos = msg.ReplyToMessage.Photo
	}

	if msg.Photo != nil {
		photos = msg.Photo
	}

	if len(photos) == 0 {
		url <- ""
		return
	}

	f, err := b.GetFile(ctx, &bot.GetFileParams{FileID: findMediumSizedImage(photos)})
	if err != nil {
		log.Error().Msg("error getting file from telegram api")
		url <- ""
		return
	}

	url <- b.FileDownloadLink(f)
}

const minSize = 80000
const maxSize = 130000

// Caption models want enough pixels to read the scene, not the original
// multi-megabyte upload.
func findMediumSizedImage(photos []models.PhotoSize) string {
	for _, photo := range photos {
		if photo.FileSize > minSize && photo.FileSize < maxSize {
			return photo.FileID
		}
	}

	return photos[len(photos)-1].FileID
}

func getUserNameFromMessage(user *models.User) string {
	if user == nil {
		return ""
	}

	if user.Username == "" {
		return user.FirstName
	}

	return "@" + user.Username
}
