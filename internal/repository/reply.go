package repository

import (
	"context"

	"appfeed/internal/models"
	"appfeed/internal/observability"

	"gorm.io/gorm"
)

// ReplyRepository defines persistence operations for replies.
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	ListByComment(ctx context.Context, commentID string) ([]*models.Reply, error)
	CountOrphans(ctx context.Context) (int64, error)
}

type replyRepository struct {
	db    *gorm.DB
	clock Clock
	log   *observability.RepoLogger
}

// NewReplyRepository returns a new ReplyRepository implementation.
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db, clock: defaultClock, log: observability.NewRepoLogger("replies")}
}

// Create stamps and inserts the reply. The comment is not required to exist.
func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	ctx, end := track(ctx, "replies", "create")
	defer end()

	reply.TimeStamp = r.clock.Now()
	if err := r.db.WithContext(ctx).Create(reply).Error; err != nil {
		return storageError(ctx, r.log, "create", err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"reply_id": reply.ID, "comment_id": reply.CommentID})
	return nil
}

// ListByComment returns the comment's replies without any ordering.
func (r *replyRepository) ListByComment(ctx context.Context, commentID string) ([]*models.Reply, error) {
	replies := []*models.Reply{}
	if err := r.db.WithContext(ctx).Where("comment_id = ?", commentID).Find(&replies).Error; err != nil {
		return nil, storageError(ctx, r.log, "list_by_comment", err)
	}
	return replies, nil
}

// CountOrphans counts replies whose comment no longer exists.
func (r *replyRepository) CountOrphans(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Reply{}).
		Joins("LEFT JOIN comments ON comments.id = replies.comment_id").
		Where("comments.id IS NULL").
		Count(&n).Error
	if err != nil {
		return 0, storageError(ctx, r.log, "count_orphans", err)
	}
	return n, nil
}
