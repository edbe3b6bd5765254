package service

import (
	"fmt"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestCreditTracker_CheckLimit(t *testing.T) {
	tests := []struct {
		name       string
		dailyLimit int
		used       int
		want       bool
		expectSend bool
	}{
		{
			name:       "under limit",
			dailyLimit: 4,
			used:       3,
			want:       true,
		},
		{
			name:       "at limit",
			dailyLimit: 4,
			used:       4,
			want:       false,
			expectSend: true,
		},
		{
			name:       "over limit",
			dailyLimit: 4,
			used:       9,
			want:       false,
			expectSend: true,
		},
		{
			name:       "zero limit disables tracking",
			dailyLimit: 0,
			used:       100,
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSender := &mockTextSender{}
			tracker := &CreditTracker{
				chats:      map[int64]int{42: tt.used},
				dailyLimit: tt.dailyLimit,
				sender:     mockSender,
			}

			got := tracker.CheckLimit(t.Context(), 42, 1)

			assert.Equal(t, tt.want, got)
			if tt.expectSend {
				assert.True(t, mockSender.sendCalled)
				assert.Contains(t, mockSender.sendReplies[0],
					fmt.Sprintf("You have used your %d generated tracks", tt.dailyLimit))
			} else {
				assert.False(t, mockSender.sendCalled)
			}
		})
	}
}

func TestCreditTracker_AddTracks(t *testing.T) {
	tracker := &CreditTracker{
		chats:      make(map[int64]int),
		dailyLimit: 4,
		sender:     &mockTextSender{},
	}

	tracker.AddTracks(42, 2)
	tracker.AddTracks(42, 2)
	tracker.AddTracks(77, 1)

	assert.False(t, tracker.CheckLimit(t.Context(), 42, 1))
	assert.True(t, tracker.CheckLimit(t.Context(), 77, 1))
}

func TestNewCreditTracker_ReadsConfig(t *testing.T) {
	viper.Reset()
	viper.Set("credits.daily_track_limit", 6)

	tracker := NewCreditTracker(t.Context(), &mockTextSender{})

	assert.Equal(t, 6, tracker.dailyLimit)
	assert.True(t, tracker.CheckLimit(t.Context(), 1, 1))
}
