package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakePubSub struct {
	ch     chan *redis.Message
	closed bool
}

func (f *fakePubSub) Channel(_ ...redis.ChannelOption) <-chan *redis.Message { return f.ch }

func (f *fakePubSub) Close() error {
	f.closed = true
	return nil
}

type fakeSubscriber struct {
	pubsub   *fakePubSub
	channels []string
}

func (f *fakeSubscriber) Subscribe(_ context.Context, channels ...string) PubSub {
	f.channels = channels
	return f.pubsub
}

func sessionFor(userID string) SessionFunc {
	return func(context.Context) (string, error) { return userID, nil }
}

func newTestProvider(t *testing.T, userID string) (*Provider, *fakeSubscriber) {
	t.Helper()
	sub := &fakeSubscriber{pubsub: &fakePubSub{ch: make(chan *redis.Message)}}
	p := newProvider(context.Background(), sub, sessionFor(userID))
	t.Cleanup(func() { p.Close() })
	return p, sub
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestSessionFailureLeavesProviderDisconnected(t *testing.T) {
	sub := &fakeSubscriber{pubsub: &fakePubSub{ch: make(chan *redis.Message)}}
	p := newProvider(context.Background(), sub, func(context.Context) (string, error) {
		return "", errors.New("no session")
	})
	if p.Connected() {
		t.Fatal("provider reports connected without a session")
	}
	if sub.channels != nil {
		t.Fatalf("subscribed despite session failure: %v", sub.channels)
	}
}

func TestSubscribesAllFourChannels(t *testing.T) {
	_, sub := newTestProvider(t, "u1")
	want := []string{ChannelNotifications, ChannelActivityFeed, ChannelVerifications, ChannelUserRewards}
	if len(sub.channels) != len(want) {
		t.Fatalf("subscribed channels: %v", sub.channels)
	}
	for i, ch := range want {
		if sub.channels[i] != ch {
			t.Fatalf("channel %d = %q, want %q", i, sub.channels[i], ch)
		}
	}
}

func TestNotificationFilteredByUser(t *testing.T) {
	p, _ := newTestProvider(t, "u1")

	p.handle(ChannelNotifications, mustJSON(t, NotificationRow{ID: "n1", UserID: "u1", Title: "Hello"}))
	p.handle(ChannelNotifications, mustJSON(t, NotificationRow{ID: "n2", UserID: "u2", Title: "Other"}))

	got := p.Notifications()
	if len(got) != 1 || got[0].ID != "n1" {
		t.Fatalf("notifications = %+v", got)
	}
}

func TestMissingOptionalFieldsDefaulted(t *testing.T) {
	p, _ := newTestProvider(t, "u1")

	p.handle(ChannelNotifications, []byte(`{"id":"n1","user_id":"u1"}`))
	got := p.Notifications()
	if len(got) != 1 {
		t.Fatalf("notifications = %+v", got)
	}
	if got[0].Title != "Notification" || got[0].Type != "info" {
		t.Fatalf("defaults not applied: %+v", got[0])
	}

	p.handle(ChannelActivityFeed, []byte(`{"id":"a1","message":"joined"}`))
	acts := p.Activity()
	if len(acts) != 1 || acts[0].Type != "general" {
		t.Fatalf("activity defaults not applied: %+v", acts)
	}
}

func TestMalformedEventDropped(t *testing.T) {
	p, _ := newTestProvider(t, "u1")
	p.handle(ChannelNotifications, []byte(`{not json`))
	if got := p.Notifications(); len(got) != 0 {
		t.Fatalf("malformed event retained: %+v", got)
	}
}

func TestNotificationListCappedMostRecentFirst(t *testing.T) {
	p, _ := newTestProvider(t, "u1")
	for i := 0; i < maxNotifications+10; i++ {
		p.handle(ChannelNotifications, mustJSON(t, NotificationRow{
			ID: fmt.Sprintf("n%d", i), UserID: "u1", Title: "t",
		}))
	}
	got := p.Notifications()
	if len(got) != maxNotifications {
		t.Fatalf("len = %d, want %d", len(got), maxNotifications)
	}
	if got[0].ID != fmt.Sprintf("n%d", maxNotifications+9) {
		t.Fatalf("newest first violated, head = %s", got[0].ID)
	}
}

func TestActivityFeedCapped(t *testing.T) {
	p, _ := newTestProvider(t, "u1")
	for i := 0; i < maxActivity+5; i++ {
		p.handle(ChannelActivityFeed, mustJSON(t, ActivityRow{ID: fmt.Sprintf("a%d", i), Message: "m"}))
	}
	if got := p.Activity(); len(got) != maxActivity {
		t.Fatalf("len = %d, want %d", len(got), maxActivity)
	}
}

func TestVerificationApprovalSynthesizesNotification(t *testing.T) {
	p, _ := newTestProvider(t, "u1")
	p.handle(ChannelVerifications, mustJSON(t, VerificationChange{
		Old: VerificationRow{ID: "v1", UserID: "u1", Status: "pending"},
		New: VerificationRow{ID: "v1", UserID: "u1", Status: "approved"},
	}))
	got := p.Notifications()
	if len(got) != 1 {
		t.Fatalf("notifications = %+v", got)
	}
	if got[0].Type != "success" || got[0].Title != "Verification Approved!" {
		t.Fatalf("unexpected synthesized notification: %+v", got[0])
	}
}

func TestVerificationRejectionSynthesizesNotification(t *testing.T) {
	p, _ := newTestProvider(t, "u1")
	p.handle(ChannelVerifications, mustJSON(t, VerificationChange{
		Old: VerificationRow{ID: "v1", UserID: "u1", Status: "pending"},
		New: VerificationRow{ID: "v1", UserID: "u1", Status: "rejected"},
	}))
	got := p.Notifications()
	if len(got) != 1 || got[0].Type != "error" {
		t.Fatalf("notifications = %+v", got)
	}
}

func TestVerificationNonTransitionsIgnored(t *testing.T) {
	p, _ := newTestProvider(t, "u1")
	// other user
	p.handle(ChannelVerifications, mustJSON(t, VerificationChange{
		Old: VerificationRow{UserID: "u2", Status: "pending"},
		New: VerificationRow{UserID: "u2", Status: "approved"},
	}))
	// not from pending
	p.handle(ChannelVerifications, mustJSON(t, VerificationChange{
		Old: VerificationRow{UserID: "u1", Status: "approved"},
		New: VerificationRow{UserID: "u1", Status: "rejected"},
	}))
	// still pending
	p.handle(ChannelVerifications, mustJSON(t, VerificationChange{
		Old: VerificationRow{UserID: "u1", Status: "pending"},
		New: VerificationRow{UserID: "u1", Status: "pending"},
	}))
	if got := p.Notifications(); len(got) != 0 {
		t.Fatalf("notifications = %+v", got)
	}
}

func TestRewardIncreaseSynthesizesNotification(t *testing.T) {
	p, _ := newTestProvider(t, "u1")
	p.handle(ChannelUserRewards, mustJSON(t, RewardChange{
		Old: RewardRow{UserID: "u1", TotalPoints: 100},
		New: RewardRow{UserID: "u1", TotalPoints: 150},
	}))
	got := p.Notifications()
	if len(got) != 1 {
		t.Fatalf("notifications = %+v", got)
	}
	if got[0].Type != "reward" {
		t.Fatalf("type = %q", got[0].Type)
	}
	want := "You earned 50 points! Your total is now 150 points."
	if got[0].Message != want {
		t.Fatalf("message = %q, want %q", got[0].Message, want)
	}
}

func TestRewardNoIncreaseIgnored(t *testing.T) {
	p, _ := newTestProvider(t, "u1")
	p.handle(ChannelUserRewards, mustJSON(t, RewardChange{
		Old: RewardRow{UserID: "u1", TotalPoints: 100},
		New: RewardRow{UserID: "u1", TotalPoints: 100},
	}))
	p.handle(ChannelUserRewards, mustJSON(t, RewardChange{
		Old: RewardRow{UserID: "u1", TotalPoints: 100},
		New: RewardRow{UserID: "u1", TotalPoints: 80},
	}))
	if got := p.Notifications(); len(got) != 0 {
		t.Fatalf("notifications = %+v", got)
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	p, _ := newTestProvider(t, "u1")
	p.handle(ChannelNotifications, mustJSON(t, NotificationRow{ID: "n1", UserID: "u1", Title: "a"}))
	p.handle(ChannelNotifications, mustJSON(t, NotificationRow{ID: "n2", UserID: "u1", Title: "b"}))

	if got := p.UnreadCount(); got != 2 {
		t.Fatalf("unread = %d", got)
	}
	if !p.MarkRead("n1") {
		t.Fatal("MarkRead(n1) = false")
	}
	if p.MarkRead("missing") {
		t.Fatal("MarkRead(missing) = true")
	}
	if got := p.UnreadCount(); got != 1 {
		t.Fatalf("unread after mark = %d", got)
	}
}

func TestEventsAfterCloseDropped(t *testing.T) {
	sub := &fakeSubscriber{pubsub: &fakePubSub{ch: make(chan *redis.Message)}}
	p := newProvider(context.Background(), sub, sessionFor("u1"))
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !sub.pubsub.closed {
		t.Fatal("pubsub not closed")
	}
	if p.Connected() {
		t.Fatal("connected after close")
	}

	p.handle(ChannelNotifications, mustJSON(t, NotificationRow{
		ID: "late", UserID: "u1", Title: "t", CreatedAt: time.Now(),
	}))
	if got := p.Notifications(); len(got) != 0 {
		t.Fatalf("late event retained: %+v", got)
	}

	// second close is a no-op
	if err := p.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
