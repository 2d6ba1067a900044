package repository

import (
	"context"

	"appfeed/internal/models"
	"appfeed/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByFeed(ctx context.Context, appID, feedID string) ([]*models.Comment, error)
	ListByApp(ctx context.Context, appID string) ([]*models.Comment, error)
	DeleteByFeed(ctx context.Context, feedID string) (int64, error)
}

type commentRepository struct {
	db    *gorm.DB
	clock Clock
	log   *observability.RepoLogger
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, clock: defaultClock, log: observability.NewRepoLogger("comments")}
}

// Create stamps and inserts the comment. The feed is not required to exist.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	ctx, end := track(ctx, "comments", "create")
	defer end()

	comment.TimeStamp = r.clock.Now()
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return storageError(ctx, r.log, "create", err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"comment_id": comment.ID, "feed_id": comment.FeedID})
	return nil
}

func (r *commentRepository) ListByFeed(ctx context.Context, appID, feedID string) ([]*models.Comment, error) {
	ctx, end := track(ctx, "comments", "list_by_feed")
	defer end()

	comments := []*models.Comment{}
	if err := r.db.WithContext(ctx).
		Where("feed_id = ? AND app_id = ?", feedID, appID).
		Order("time_stamp DESC").
		Find(&comments).Error; err != nil {
		return nil, storageError(ctx, r.log, "list_by_feed", err)
	}
	return comments, nil
}

// ListByApp returns every comment of the app in storage order.
func (r *commentRepository) ListByApp(ctx context.Context, appID string) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	if err := r.db.WithContext(ctx).Where("app_id = ?", appID).Find(&comments).Error; err != nil {
		return nil, storageError(ctx, r.log, "list_by_app", err)
	}
	return comments, nil
}

func (r *commentRepository) DeleteByFeed(ctx context.Context, feedID string) (int64, error) {
	result := r.db.WithContext(ctx).Where("feed_id = ?", feedID).Delete(&models.Comment{})
	if result.Error != nil {
		return 0, storageError(ctx, r.log, "delete_by_feed", result.Error)
	}
	return result.RowsAffected, nil
}
