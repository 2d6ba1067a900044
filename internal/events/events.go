// Package events defines the feed domain events emitted after committed
// writes and the sinks they are published to.
package events

import (
	"context"
	"errors"
	"time"
)

// Type names a domain event.
type Type string

const (
	FeedCreated  Type = "feed_created"
	FeedDeleted  Type = "feed_deleted"
	LikeToggled  Type = "like_toggled"
	CommentAdded Type = "comment_added"
	ReplyAdded   Type = "reply_added"
)

// Event is the payload delivered to every sink. AppID is empty only for
// replies, which carry no tenant.
type Event struct {
	Type       Type      `json:"type"`
	AppID      string    `json:"appId,omitempty"`
	FeedID     string    `json:"feedId,omitempty"`
	CommentID  string    `json:"commentId,omitempty"`
	ReplyID    string    `json:"replyId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	ActorKey   string    `json:"actorKey,omitempty"`
	Liked      *bool     `json:"liked,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Key partitions events so a feed's history stays ordered within one sink
// partition.
func (e Event) Key() string {
	switch {
	case e.FeedID != "":
		return e.FeedID
	case e.CommentID != "":
		return e.CommentID
	default:
		return e.AppID
	}
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher. Every sink is attempted; the
// failures are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
