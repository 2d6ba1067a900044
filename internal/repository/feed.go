package repository

import (
	"context"
	"errors"

	"appfeed/internal/models"
	"appfeed/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedRepository defines persistence operations for feeds and their likes.
type FeedRepository interface {
	Create(ctx context.Context, feed *models.Feed) error
	GetByID(ctx context.Context, feedID string) (*models.Feed, error)
	ListByApp(ctx context.Context, appID string) ([]*models.Feed, error)
	ListByAppAndUser(ctx context.Context, appID, userID string) ([]*models.Feed, error)
	ToggleLike(ctx context.Context, feedID, actorKey string) (bool, error)
	Delete(ctx context.Context, feedID string) (*DeleteFeedResult, error)
}

// DeleteFeedResult reports what a feed deletion removed.
type DeleteFeedResult struct {
	AppID           string
	FeedDeleted     bool
	CommentsDeleted int64
	LikesDeleted    int64
}

type feedRepository struct {
	db    *gorm.DB
	clock Clock
	log   *observability.RepoLogger
}

// NewFeedRepository returns a new FeedRepository implementation.
func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db, clock: defaultClock, log: observability.NewRepoLogger("feeds")}
}

// Create stamps and inserts the feed. Any likes on the value are ignored.
func (r *feedRepository) Create(ctx context.Context, feed *models.Feed) error {
	ctx, end := track(ctx, "feeds", "create")
	defer end()

	feed.TimeStamp = r.clock.Now()
	if err := r.db.WithContext(ctx).Create(feed).Error; err != nil {
		return storageError(ctx, r.log, "create", err)
	}
	feed.Likes = map[string]bool{}
	r.log.LogCreate(ctx, map[string]interface{}{"feed_id": feed.ID, "app_id": feed.AppID})
	return nil
}

func (r *feedRepository) GetByID(ctx context.Context, feedID string) (*models.Feed, error) {
	var feed models.Feed
	err := r.db.WithContext(ctx).Where("id = ?", feedID).Take(&feed).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewFeedNotFoundError(feedID)
	}
	if err != nil {
		return nil, storageError(ctx, r.log, "get", err)
	}
	feeds := []*models.Feed{&feed}
	if err := r.attachLikes(ctx, r.db, feeds); err != nil {
		return nil, err
	}
	return &feed, nil
}

func (r *feedRepository) ListByApp(ctx context.Context, appID string) ([]*models.Feed, error) {
	return r.list(ctx, r.db.Where("app_id = ?", appID))
}

func (r *feedRepository) ListByAppAndUser(ctx context.Context, appID, userID string) ([]*models.Feed, error) {
	return r.list(ctx, r.db.Where("app_id = ? AND user_id = ?", appID, userID))
}

func (r *feedRepository) list(ctx context.Context, scope *gorm.DB) ([]*models.Feed, error) {
	ctx, end := track(ctx, "feeds", "list")
	defer end()

	feeds := []*models.Feed{}
	if err := scope.WithContext(ctx).Order("time_stamp DESC").Find(&feeds).Error; err != nil {
		return nil, storageError(ctx, r.log, "list", err)
	}
	if err := r.attachLikes(ctx, r.db, feeds); err != nil {
		return nil, err
	}
	return feeds, nil
}

// attachLikes folds feed_likes rows into each feed's map with one query.
func (r *feedRepository) attachLikes(ctx context.Context, db *gorm.DB, feeds []*models.Feed) error {
	if len(feeds) == 0 {
		return nil
	}
	ids := make([]string, len(feeds))
	byID := make(map[string]*models.Feed, len(feeds))
	for i, f := range feeds {
		f.Likes = map[string]bool{}
		ids[i] = f.ID
		byID[f.ID] = f
	}

	var likes []models.FeedLike
	if err := db.WithContext(ctx).Where("feed_id IN ?", ids).Find(&likes).Error; err != nil {
		return storageError(ctx, r.log, "load_likes", err)
	}
	for _, l := range likes {
		if f, ok := byID[l.FeedID]; ok {
			f.Likes[l.ActorKey] = l.Liked
		}
	}
	return nil
}

// ToggleLike flips likes[actorKey] for the feed and returns the new value.
// The flip is a single upsert, so concurrent toggles by one actor never lose
// an update and other actors' entries are untouched.
func (r *feedRepository) ToggleLike(ctx context.Context, feedID, actorKey string) (bool, error) {
	ctx, end := track(ctx, "feed_likes", "toggle_like")
	defer end()

	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Feed{}).Where("id = ?", feedID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return models.NewFeedNotFoundError(feedID)
		}

		now := r.clock.Now()
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "feed_id"}, {Name: "actor_key"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "liked"}, Value: gorm.Expr("NOT feed_likes.liked")},
				{Column: clause.Column{Name: "updated_at"}, Value: now},
			},
		}).Create(&models.FeedLike{FeedID: feedID, ActorKey: actorKey, Liked: true, UpdatedAt: now}).Error; err != nil {
			return err
		}

		var like models.FeedLike
		if err := tx.Where("feed_id = ? AND actor_key = ?", feedID, actorKey).Take(&like).Error; err != nil {
			return err
		}
		liked = like.Liked
		return nil
	})
	if err != nil {
		return false, storageError(ctx, r.log, "toggle_like", err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"feed_id": feedID, "actor_key": actorKey, "liked": liked})
	return liked, nil
}

// Delete removes the feed, its likes and every comment on it in one
// transaction. Replies are left in place. Comments are removed even when the
// feed itself is already gone.
func (r *feedRepository) Delete(ctx context.Context, feedID string) (*DeleteFeedResult, error) {
	ctx, end := track(ctx, "feeds", "delete")
	defer end()

	res := &DeleteFeedResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var feed models.Feed
		err := tx.Select("id", "app_id").Where("id = ?", feedID).Take(&feed).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		res.AppID = feed.AppID

		likes := tx.Where("feed_id = ?", feedID).Delete(&models.FeedLike{})
		if likes.Error != nil {
			return likes.Error
		}
		res.LikesDeleted = likes.RowsAffected

		n, err := NewCommentRepository(tx).DeleteByFeed(ctx, feedID)
		if err != nil {
			return err
		}
		res.CommentsDeleted = n

		deleted := tx.Where("id = ?", feedID).Delete(&models.Feed{})
		if deleted.Error != nil {
			return deleted.Error
		}
		res.FeedDeleted = deleted.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, storageError(ctx, r.log, "delete", err)
	}
	r.log.LogDelete(ctx, map[string]interface{}{
		"feed_id":          feedID,
		"comments_deleted": res.CommentsDeleted,
		"likes_deleted":    res.LikesDeleted,
	})
	return res, nil
}
