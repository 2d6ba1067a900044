package service

import (
	"context"
	"time"

	"appfeed/internal/events"
	"appfeed/internal/featureflags"
	"appfeed/internal/observability"
)

// publishTimeout bounds how long a write waits on its event sinks.
const publishTimeout = 2 * time.Second

// emitter publishes domain events after a write has committed. Publishing is
// gated by the live_feed_events flag and never fails the write.
type emitter struct {
	publisher events.Publisher
	flags     *featureflags.Manager
	now       func() time.Time
	timeout   time.Duration
}

func newEmitter(publisher events.Publisher, flags *featureflags.Manager) emitter {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return emitter{publisher: publisher, flags: flags, now: time.Now, timeout: publishTimeout}
}

func (e emitter) emit(ctx context.Context, event events.Event) {
	if !e.flags.Enabled(featureflags.LiveFeedEvents, event.AppID) {
		return
	}
	event.OccurredAt = e.now().UTC()

	// The write has committed, so a client disconnect must not cancel the
	// publish, but a stalled sink must not hold the response either.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()
	if err := e.publisher.Publish(pctx, event); err != nil {
		observability.LogAsyncOperationError(ctx, "publish_"+string(event.Type), err, map[string]interface{}{
			"app_id":  event.AppID,
			"feed_id": event.FeedID,
		})
	}
}
