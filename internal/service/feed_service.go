package service

import (
	"context"

	"appfeed/internal/events"
	"appfeed/internal/featureflags"
	"appfeed/internal/models"
	"appfeed/internal/observability"
	"appfeed/internal/repository"
	"appfeed/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

type FeedService struct {
	feeds    repository.FeedRepository
	identity *IdentityService
	enricher *Enricher
	emitter
}

type CreateFeedInput struct {
	AppID   string
	Caption string
	Image   string
	UserID  string
}

type ToggleLikeInput struct {
	FeedID string
	AppID  string
	UserID string
}

func NewFeedService(
	feeds repository.FeedRepository,
	identity *IdentityService,
	enricher *Enricher,
	publisher events.Publisher,
	flags *featureflags.Manager,
) *FeedService {
	return &FeedService{
		feeds:    feeds,
		identity: identity,
		enricher: enricher,
		emitter:  newEmitter(publisher, flags),
	}
}

// CreateFeed registers the app if needed and stores the feed with empty likes.
func (s *FeedService) CreateFeed(ctx context.Context, in CreateFeedInput) (*models.Feed, error) {
	span, ctx := observability.StartServiceSpan(ctx, "feed", "CreateFeed", attribute.String("app.id", in.AppID))
	defer span.End()

	if err := validation.AddFeed(in.AppID, in.Caption); err != nil {
		return nil, err
	}
	if err := s.identity.RegisterApp(ctx, in.AppID); err != nil {
		span.SetError(err)
		return nil, err
	}

	feed := &models.Feed{
		AppID:   in.AppID,
		Caption: in.Caption,
		Image:   in.Image,
		UserID:  in.UserID,
	}
	if err := s.feeds.Create(ctx, feed); err != nil {
		span.SetError(err)
		return nil, err
	}

	s.emit(ctx, events.Event{Type: events.FeedCreated, AppID: feed.AppID, FeedID: feed.ID, UserID: feed.UserID})
	return feed, nil
}

// ListFeeds returns the app's feeds newest first, enriched.
func (s *FeedService) ListFeeds(ctx context.Context, appID string) ([]*models.Feed, error) {
	if err := validation.AppID(appID); err != nil {
		return nil, err
	}
	feeds, err := s.feeds.ListByApp(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := enrich(ctx, s.enricher, appID, feeds); err != nil {
		return nil, err
	}
	return feeds, nil
}

// ListFeedsByUser returns one author's feeds in the app newest first, enriched.
func (s *FeedService) ListFeedsByUser(ctx context.Context, appID, userID string) ([]*models.Feed, error) {
	if err := validation.AppID(appID); err != nil {
		return nil, err
	}
	feeds, err := s.feeds.ListByAppAndUser(ctx, appID, userID)
	if err != nil {
		return nil, err
	}
	if err := enrich(ctx, s.enricher, appID, feeds); err != nil {
		return nil, err
	}
	return feeds, nil
}

// ActorKey is the likes map key for a caller: the user id, else the app id.
func ActorKey(appID, userID string) string {
	if userID != "" {
		return userID
	}
	return appID
}

// ToggleLike flips the caller's like on the feed and returns the new state.
func (s *FeedService) ToggleLike(ctx context.Context, in ToggleLikeInput) (bool, error) {
	span, ctx := observability.StartServiceSpan(ctx, "feed", "ToggleLike", attribute.String("feed.id", in.FeedID))
	defer span.End()

	if err := validation.ToggleLike(in.AppID, in.FeedID); err != nil {
		return false, err
	}
	actor := ActorKey(in.AppID, in.UserID)
	liked, err := s.feeds.ToggleLike(ctx, in.FeedID, actor)
	if err != nil {
		span.SetError(err)
		return false, err
	}

	if liked {
		observability.LikeToggles.WithLabelValues("true").Inc()
	} else {
		observability.LikeToggles.WithLabelValues("false").Inc()
	}
	s.emit(ctx, events.Event{
		Type:     events.LikeToggled,
		AppID:    in.AppID,
		FeedID:   in.FeedID,
		UserID:   in.UserID,
		ActorKey: actor,
		Liked:    &liked,
	})
	return liked, nil
}

// DeleteFeed removes the feed, its likes and its comments. Replies to those
// comments are kept. Deleting a missing feed succeeds.
func (s *FeedService) DeleteFeed(ctx context.Context, feedID string) (*repository.DeleteFeedResult, error) {
	span, ctx := observability.StartServiceSpan(ctx, "feed", "DeleteFeed", attribute.String("feed.id", feedID))
	defer span.End()

	if err := validation.DeleteFeed(feedID); err != nil {
		return nil, err
	}
	res, err := s.feeds.Delete(ctx, feedID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.AddAttributes(attribute.Int64("comments.deleted", res.CommentsDeleted))

	if res.FeedDeleted {
		s.emit(ctx, events.Event{Type: events.FeedDeleted, AppID: res.AppID, FeedID: feedID})
	}
	return res, nil
}
