package port

import (
	"context"
	"musebot/internal/core/domain"
)

type TextSender interface {
	// SendMessageReply sends a reply to a specified message with the given text.
	SendMessageReply(ctx context.Context, chatID int64, messageID int, text string) error
	// SendChatAction repeatedly signals activity in a chat until the context is done.
	SendChatAction(ctx context.Context, chatID int64, action domain.Action)
	// NotifyAndReturnError sends an error notification to the originating chat
	// and returns the error.
	NotifyAndReturnError(ctx context.Context, err error, message *domain.Message) error
}

type AudioSender interface {
	// SendAudioFileReply sends audio bytes to the chat as a reply to the provided message.
	SendAudioFileReply(ctx context.Context, chatID int64, messageID int, title string, audio []byte) error
}
