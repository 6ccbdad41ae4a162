package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher emits change-feed events. The catalog service uses it so the
// platform's own writes show up on the same channels the provider consumes.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher { return &Publisher{rdb: rdb} }

func (p *Publisher) publish(ctx context.Context, channel string, v any) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", channel, err)
	}
	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", channel, err)
	}
	return nil
}

func (p *Publisher) PublishNotification(ctx context.Context, row NotificationRow) error {
	return p.publish(ctx, ChannelNotifications, row)
}

func (p *Publisher) PublishActivity(ctx context.Context, row ActivityRow) error {
	return p.publish(ctx, ChannelActivityFeed, row)
}

func (p *Publisher) PublishVerificationChange(ctx context.Context, old, updated VerificationRow) error {
	return p.publish(ctx, ChannelVerifications, VerificationChange{Old: old, New: updated})
}

func (p *Publisher) PublishRewardChange(ctx context.Context, old, updated RewardRow) error {
	return p.publish(ctx, ChannelUserRewards, RewardChange{Old: old, New: updated})
}
