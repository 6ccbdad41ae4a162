// Package realtime bridges change-feed events published on Redis pub/sub
// into a per-user notification list and a site-wide activity feed.
package realtime

import (
	"encoding/json"
	"time"
)

// Channel names of the consumed change feeds.
const (
	ChannelNotifications = "notifications"
	ChannelActivityFeed  = "activity_feed"
	ChannelVerifications = "airdrop_verifications"
	ChannelUserRewards   = "user_rewards"
)

// NotificationRow is an inserted notifications row.
type NotificationRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityRow is an inserted activity_feed row.
type ActivityRow struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// VerificationRow carries the fields the provider reads from an
// airdrop_verifications row.
type VerificationRow struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	AirdropID string `json:"airdrop_id"`
	Status    string `json:"status"`
}

// VerificationChange is an update event: old and new row.
type VerificationChange struct {
	Old VerificationRow `json:"old"`
	New VerificationRow `json:"new"`
}

// RewardRow carries the fields the provider reads from a user_rewards row.
type RewardRow struct {
	UserID      string `json:"user_id"`
	TotalPoints int    `json:"total_points"`
}

// RewardChange is an update event: old and new row.
type RewardChange struct {
	Old RewardRow `json:"old"`
	New RewardRow `json:"new"`
}

// Decoders tolerate missing optional fields: absent strings default below,
// absent numbers stay zero. A malformed payload returns an error and the
// event is dropped by the caller.

func decodeNotification(payload []byte) (NotificationRow, error) {
	var row NotificationRow
	if err := json.Unmarshal(payload, &row); err != nil {
		return row, err
	}
	if row.Title == "" {
		row.Title = "Notification"
	}
	if row.Type == "" {
		row.Type = "info"
	}
	return row, nil
}

func decodeActivity(payload []byte) (ActivityRow, error) {
	var row ActivityRow
	if err := json.Unmarshal(payload, &row); err != nil {
		return row, err
	}
	if row.Type == "" {
		row.Type = "general"
	}
	return row, nil
}

func decodeVerificationChange(payload []byte) (VerificationChange, error) {
	var ch VerificationChange
	err := json.Unmarshal(payload, &ch)
	return ch, err
}

func decodeRewardChange(payload []byte) (RewardChange, error) {
	var ch RewardChange
	err := json.Unmarshal(payload, &ch)
	return ch, err
}
