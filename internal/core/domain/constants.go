package domain

import "errors"

var (
	ErrSendingReplyFailed = errors.New("failed to send reply")
	ErrEmptyLyrics        = errors.New("empty lyrics prompt")
)
