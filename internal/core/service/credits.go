package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"musebot/internal/core/port"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Tracker interface {
	AddTracks(chatID int64, n int)
	CheckLimit(ctx context.Context, chatID int64, messageID int) bool
}

// CreditTracker limits how many tracks a chat may generate per day. Each
// returned track consumes one credit; the counters reset at midnight.
type CreditTracker struct {
	chats      map[int64]int
	dailyLimit int
	mutex      sync.Mutex
	sender     port.TextSender
}

func NewCreditTracker(ctx context.Context, sender port.TextSender) *CreditTracker {
	ct := &CreditTracker{
		chats:      make(map[int64]int),
		sender:     sender,
		dailyLimit: viper.GetInt("credits.daily_track_limit"),
	}

	go ct.resetLoop(ctx)

	return ct
}

func (t *CreditTracker) AddTracks(chatID int64, n int) {
	t.mutex.Lock()
	t.chats[chatID] += n
	t.mutex.Unlock()
}

const overLimit = "You have used your %d generated tracks for today. The limit resets in %s."

func (t *CreditTracker) CheckLimit(ctx context.Context, chatID int64, messageID int) bool {
	t.mutex.Lock()
	used := t.chats[chatID]
	t.mutex.Unlock()

	if t.dailyLimit > 0 && used >= t.dailyLimit {
		err := t.sender.SendMessageReply(ctx, chatID, messageID,
			fmt.Sprintf(overLimit, t.dailyLimit, time.Until(nextResetTime()).Truncate(time.Second)))
		if err != nil {
			log.Warn().Err(err).Msg("failed to send daily limit notice")
		}
		return false
	}

	return true
}

func (t *CreditTracker) resetLoop(ctx context.Context) {
	reset := nextResetTime()

	for {
		log.Debug().Time("reset", reset).Msg("running credit reset timer")
		select {
		case <-time.After(time.Until(reset)):
			log.Debug().Msg("resetting daily generation credits")
			t.mutex.Lock()
			t.chats = make(map[int64]int)
			t.mutex.Unlock()
			reset = nextResetTime()
		case <-ctx.Done():
			log.Debug().Msg("stopping credit reset loop")
			return
		}
	}
}

func nextResetTime() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
}
