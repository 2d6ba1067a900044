package service

import (
	"context"

	"appfeed/internal/events"
	"appfeed/internal/featureflags"
	"appfeed/internal/models"
	"appfeed/internal/repository"
	"appfeed/internal/validation"
)

type InteractionService struct {
	comments repository.CommentRepository
	replies  repository.ReplyRepository
	enricher *Enricher
	emitter
}

type AddCommentInput struct {
	AppID   string
	FeedID  string
	Comment string
	UserID  string
}

type AddReplyInput struct {
	CommentID string
	Reply     string
	UserID    string
}

func NewInteractionService(
	comments repository.CommentRepository,
	replies repository.ReplyRepository,
	enricher *Enricher,
	publisher events.Publisher,
	flags *featureflags.Manager,
) *InteractionService {
	return &InteractionService{
		comments: comments,
		replies:  replies,
		enricher: enricher,
		emitter:  newEmitter(publisher, flags),
	}
}

// AddComment stores a comment. The feed is not checked.
func (s *InteractionService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if err := validation.AddComment(in.AppID, in.Comment); err != nil {
		return nil, err
	}
	comment := &models.Comment{
		AppID:   in.AppID,
		FeedID:  in.FeedID,
		Comment: in.Comment,
		UserID:  in.UserID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	s.emit(ctx, events.Event{
		Type:      events.CommentAdded,
		AppID:     comment.AppID,
		FeedID:    comment.FeedID,
		CommentID: comment.ID,
		UserID:    comment.UserID,
	})
	return comment, nil
}

// ListComments returns the feed's comments newest first, enriched.
func (s *InteractionService) ListComments(ctx context.Context, appID, feedID string) ([]*models.Comment, error) {
	if err := validation.AppID(appID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByFeed(ctx, appID, feedID)
	if err != nil {
		return nil, err
	}
	if err := enrich(ctx, s.enricher, appID, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListCommentsByApp returns every comment in the app as stored: unordered and
// without author snapshots.
func (s *InteractionService) ListCommentsByApp(ctx context.Context, appID string) ([]*models.Comment, error) {
	if err := validation.AppID(appID); err != nil {
		return nil, err
	}
	return s.comments.ListByApp(ctx, appID)
}

// AddReply stores a reply. The comment is not checked.
func (s *InteractionService) AddReply(ctx context.Context, in AddReplyInput) (*models.Reply, error) {
	if err := validation.AddReply(in.Reply); err != nil {
		return nil, err
	}
	reply := &models.Reply{
		CommentID: in.CommentID,
		Reply:     in.Reply,
		UserID:    in.UserID,
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, err
	}
	s.emit(ctx, events.Event{
		Type:      events.ReplyAdded,
		CommentID: reply.CommentID,
		ReplyID:   reply.ID,
		UserID:    reply.UserID,
	})
	return reply, nil
}

// ListReplies returns the comment's replies, enriched, in no particular order.
func (s *InteractionService) ListReplies(ctx context.Context, commentID string) ([]*models.Reply, error) {
	replies, err := s.replies.ListByComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := enrich(ctx, s.enricher, "", replies); err != nil {
		return nil, err
	}
	return replies, nil
}
