package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	maxNotifications = 50
	maxActivity      = 20
)

// Notification is a client-visible notification, either delivered directly
// on the notifications channel or synthesized from a verification or reward
// change.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// ActivityItem is one entry of the site-wide activity feed.
type ActivityItem struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// PubSub is the slice of redis.PubSub the provider consumes.
type PubSub interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// Subscriber opens a pub/sub subscription over the named channels.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) PubSub
}

type redisSubscriber struct{ rdb *redis.Client }

func (s redisSubscriber) Subscribe(ctx context.Context, channels ...string) PubSub {
	return s.rdb.Subscribe(ctx, channels...)
}

// SessionFunc resolves the current user. A failure means there is no session
// to attach feeds to; the provider then stays disconnected.
type SessionFunc func(ctx context.Context) (userID string, err error)

// Provider holds the per-user notification list and the activity feed, fed
// by the four change-feed channels. Lists are most recent first and capped.
type Provider struct {
	userID string
	pubsub PubSub
	done   chan struct{}

	mu            sync.Mutex
	connected     bool
	closed        bool
	notifications []*Notification
	activity      []*ActivityItem
	now           func() time.Time
}

// NewProvider resolves the session and, when that succeeds, subscribes to
// all four channels and starts consuming. On session failure the provider
// is returned disconnected with no subscriptions.
func NewProvider(ctx context.Context, rdb *redis.Client, session SessionFunc) *Provider {
	return newProvider(ctx, redisSubscriber{rdb: rdb}, session)
}

func newProvider(ctx context.Context, sub Subscriber, session SessionFunc) *Provider {
	p := &Provider{
		done: make(chan struct{}),
		now:  time.Now,
	}
	userID, err := session(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("realtime session lookup failed, provider disconnected")
		return p
	}
	p.userID = userID
	p.connected = true
	p.pubsub = sub.Subscribe(ctx, ChannelNotifications, ChannelActivityFeed, ChannelVerifications, ChannelUserRewards)
	go p.consume()
	log.Info().Str("user_id", userID).Msg("realtime provider connected")
	return p
}

func (p *Provider) consume() {
	ch := p.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			p.handle(msg.Channel, []byte(msg.Payload))
		case <-p.done:
			return
		}
	}
}

// handle routes one raw event. Events arriving after Close are dropped.
func (p *Provider) handle(channel string, payload []byte) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	switch channel {
	case ChannelNotifications:
		row, err := decodeNotification(payload)
		if err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed event")
			return
		}
		if row.UserID != "" && row.UserID != p.userID {
			return
		}
		p.pushNotification(&Notification{
			ID:        row.ID,
			Type:      row.Type,
			Title:     row.Title,
			Message:   row.Message,
			CreatedAt: row.CreatedAt,
		})
	case ChannelActivityFeed:
		row, err := decodeActivity(payload)
		if err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed event")
			return
		}
		p.pushActivity(&ActivityItem{
			ID:        row.ID,
			Type:      row.Type,
			Message:   row.Message,
			CreatedAt: row.CreatedAt,
		})
	case ChannelVerifications:
		change, err := decodeVerificationChange(payload)
		if err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed event")
			return
		}
		p.onVerificationChange(change)
	case ChannelUserRewards:
		change, err := decodeRewardChange(payload)
		if err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed event")
			return
		}
		p.onRewardChange(change)
	}
}

// onVerificationChange synthesizes a notification for the pending→approved
// and pending→rejected transitions of the current user's submissions.
func (p *Provider) onVerificationChange(ch VerificationChange) {
	if ch.New.UserID != p.userID {
		return
	}
	if ch.Old.Status != "pending" {
		return
	}
	var n *Notification
	switch ch.New.Status {
	case "approved":
		n = &Notification{
			Type:    "success",
			Title:   "Verification Approved!",
			Message: "Your airdrop task verification has been approved. Points have been added to your account.",
		}
	case "rejected":
		n = &Notification{
			Type:    "error",
			Title:   "Verification Rejected",
			Message: "Your airdrop task verification was rejected. Please review the requirements and try again.",
		}
	default:
		return
	}
	n.ID = uuid.NewString()
	n.CreatedAt = p.now()
	p.pushNotification(n)
}

// onRewardChange synthesizes a notification when the current user's total
// points increased.
func (p *Provider) onRewardChange(ch RewardChange) {
	if ch.New.UserID != p.userID {
		return
	}
	earned := ch.New.TotalPoints - ch.Old.TotalPoints
	if earned <= 0 {
		return
	}
	p.pushNotification(&Notification{
		ID:        uuid.NewString(),
		Type:      "reward",
		Title:     "Points Earned!",
		Message:   fmt.Sprintf("You earned %d points! Your total is now %d points.", earned, ch.New.TotalPoints),
		CreatedAt: p.now(),
	})
}

func (p *Provider) pushNotification(n *Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.notifications = append([]*Notification{n}, p.notifications...)
	if len(p.notifications) > maxNotifications {
		p.notifications = p.notifications[:maxNotifications]
	}
}

func (p *Provider) pushActivity(a *ActivityItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.activity = append([]*ActivityItem{a}, p.activity...)
	if len(p.activity) > maxActivity {
		p.activity = p.activity[:maxActivity]
	}
}

// Notifications returns the retained notifications, most recent first.
func (p *Provider) Notifications() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Notification, len(p.notifications))
	for i, n := range p.notifications {
		out[i] = *n
	}
	return out
}

// Activity returns the retained activity feed, most recent first.
func (p *Provider) Activity() []ActivityItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ActivityItem, len(p.activity))
	for i, a := range p.activity {
		out[i] = *a
	}
	return out
}

// UnreadCount counts retained notifications not yet marked read.
func (p *Provider) UnreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, n := range p.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead flags a retained notification as read. Local state only.
func (p *Provider) MarkRead(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.notifications {
		if n.ID == id {
			n.Read = true
			return true
		}
	}
	return false
}

// UserID reports which user the feeds are filtered for. A server-hosted
// provider runs site-scoped, so user-filtered channels only carry rows
// addressed to that scope; per-user feeds need a per-session provider.
func (p *Provider) UserID() string {
	return p.userID
}

// Connected reports whether the provider attached to the change feeds.
func (p *Provider) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected && !p.closed
}

// Close unsubscribes all channels. Events still in flight are dropped.
func (p *Provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.connected = false
	p.mu.Unlock()

	close(p.done)
	if p.pubsub != nil {
		return p.pubsub.Close()
	}
	return nil
}
