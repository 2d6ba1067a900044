// Package notifications fans committed feed events out to live websocket
// viewers through Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"

	"appfeed/internal/events"
	"appfeed/internal/observability"

	"github.com/redis/go-redis/v9"
)

const feedChannelPrefix = "feed_events:"

// FeedChannel derives the Redis channel name for an app's live feed.
func FeedChannel(appID string) string {
	return feedChannelPrefix + appID
}

// AppFromChannel extracts the app id from a feed channel name.
func AppFromChannel(channel string) (string, bool) {
	if !strings.HasPrefix(channel, feedChannelPrefix) {
		return "", false
	}
	appID := strings.TrimPrefix(channel, feedChannelPrefix)
	return appID, appID != ""
}

// Notifier publishes feed events into per-app Redis channels.
type Notifier struct {
	rdb     *redis.Client
	watched func(ctx context.Context, appID string) bool
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// OnlyWatched makes Publish skip apps for which watched reports no viewers.
func (n *Notifier) OnlyWatched(watched func(ctx context.Context, appID string) bool) *Notifier {
	n.watched = watched
	return n
}

// Publish sends the event to its app channel. Events without an app id are
// not routable to viewers and are dropped.
func (n *Notifier) Publish(ctx context.Context, event events.Event) error {
	if n.rdb == nil || event.AppID == "" {
		return nil
	}
	if n.watched != nil && !n.watched(ctx, event.AppID) {
		observability.FeedEventsPublished.WithLabelValues(string(event.Type), "redis", "skipped").Inc()
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	err = n.rdb.Publish(ctx, FeedChannel(event.AppID), payload).Err()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.FeedEventsPublished.WithLabelValues(string(event.Type), "redis", outcome).Inc()
	return err
}

// StartFeedSubscriber subscribes to `feed_events:*` and calls onMessage for
// each incoming message until ctx is cancelled.
func (n *Notifier) StartFeedSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, feedChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe feed events: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.GlobalLogger.Error("panic in feed subscriber",
								"panic", fmt.Sprint(r), "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
