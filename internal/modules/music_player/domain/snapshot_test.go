package domain

import (
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

func TestSnapshot_Remaining(t *testing.T) {
	current := Track{Duration: 3 * time.Minute}
	snapshot := Snapshot{
		Current:  &current,
		Position: time.Minute,
		Queue: []Track{
			{Duration: 2 * time.Minute},
			{Duration: time.Hour, IsStream: true},
			{Duration: 30 * time.Second},
		},
	}

	expected := 4*time.Minute + 30*time.Second
	if got := snapshot.Remaining(); got != expected {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestSnapshot_RemainingPositionPastDuration(t *testing.T) {
	current := Track{Duration: time.Minute}
	snapshot := Snapshot{Current: &current, Position: 2 * time.Minute}

	if got := snapshot.Remaining(); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestSnapshot_CanPlay(t *testing.T) {
	channel := snowflake.ID(10)
	queued := []Track{{Title: "A"}}

	tests := []struct {
		name     string
		snapshot Snapshot
		expected bool
	}{
		{name: "connected idle with queue", snapshot: Snapshot{AudioChannelID: &channel, Queue: queued}, expected: true},
		{name: "paused with queue", snapshot: Snapshot{AudioChannelID: &channel, Queue: queued, State: StatePaused}, expected: true},
		{name: "already playing", snapshot: Snapshot{AudioChannelID: &channel, Queue: queued, State: StatePlaying}, expected: false},
		{name: "empty queue", snapshot: Snapshot{AudioChannelID: &channel}, expected: false},
		{name: "not connected", snapshot: Snapshot{Queue: queued}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snapshot.CanPlay(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestPlaybackState_String(t *testing.T) {
	tests := []struct {
		state    PlaybackState
		expected string
	}{
		{StateIdle, "idle"},
		{StateConnecting, "connecting"},
		{StatePlaying, "playing"},
		{StatePaused, "paused"},
		{PlaybackState(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
