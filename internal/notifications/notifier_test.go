package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"appfeed/internal/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.Publish(context.Background(), events.Event{Type: events.FeedCreated, AppID: "app1"}))
	assert.NoError(t, n.StartFeedSubscriber(context.Background(), func(string, string) {}))
}

func TestFeedChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "feed_events:app1", FeedChannel("app1"))

	appID, ok := AppFromChannel("feed_events:app1")
	assert.True(t, ok)
	assert.Equal(t, "app1", appID)

	_, ok = AppFromChannel("feed_events:")
	assert.False(t, ok)
	_, ok = AppFromChannel("notifications:user:1")
	assert.False(t, ok)
}

func TestNotifier_PublishReachesSubscriber(t *testing.T) {
	_, rdb := newTestRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type delivery struct{ channel, payload string }
	got := make(chan delivery, 4)
	require.NoError(t, n.StartFeedSubscriber(ctx, func(channel, payload string) {
		got <- delivery{channel, payload}
	}))

	require.NoError(t, n.Publish(context.Background(), events.Event{Type: events.FeedCreated, AppID: "app1", FeedID: "f1"}))
	// Replies carry no app and are not routed.
	require.NoError(t, n.Publish(context.Background(), events.Event{Type: events.ReplyAdded, CommentID: "c1"}))

	select {
	case d := <-got:
		assert.Equal(t, "feed_events:app1", d.channel)
		var e events.Event
		require.NoError(t, json.Unmarshal([]byte(d.payload), &e))
		assert.Equal(t, events.FeedCreated, e.Type)
		assert.Equal(t, "f1", e.FeedID)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("event not delivered")
	}

	assert.Never(t, func() bool { return len(got) > 0 }, 10*testPollInterval, testPollInterval)
}

func TestNotifier_OnlyWatchedSkipsUnwatchedApps(t *testing.T) {
	_, rdb := newTestRedis(t)
	n := NewNotifier(rdb).OnlyWatched(func(_ context.Context, appID string) bool {
		return appID == "watched"
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan string, 4)
	require.NoError(t, n.StartFeedSubscriber(ctx, func(channel, _ string) { got <- channel }))

	require.NoError(t, n.Publish(context.Background(), events.Event{Type: events.FeedCreated, AppID: "idle"}))
	require.NoError(t, n.Publish(context.Background(), events.Event{Type: events.FeedCreated, AppID: "watched"}))

	select {
	case ch := <-got:
		assert.Equal(t, "feed_events:watched", ch)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("watched event not delivered")
	}
	assert.Never(t, func() bool { return len(got) > 0 }, 10*testPollInterval, testPollInterval)
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	_, rdb := newTestRedis(t)
	n := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	payloads := make(chan string, 4)
	require.NoError(t, n.StartFeedSubscriber(ctx, func(_ string, payload string) { payloads <- payload }))

	require.NoError(t, n.Publish(context.Background(), events.Event{Type: events.FeedDeleted, AppID: "app1", FeedID: "before"}))
	assert.Eventually(t, func() bool { return len(payloads) == 1 }, testEventuallyTimeout, testPollInterval)
	<-payloads

	cancel()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, n.Publish(context.Background(), events.Event{Type: events.FeedDeleted, AppID: "app1", FeedID: "after"}))
	assert.Never(t, func() bool { return len(payloads) > 0 }, 200*time.Millisecond, testPollInterval)
}
