package repository

import (
	"context"
	"errors"
	"sort"

	"appfeed/internal/cache"
	"appfeed/internal/models"
	"appfeed/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByCredentials(ctx context.Context, appID, username, password string) (*models.User, error)
	ListByApp(ctx context.Context, appID string) ([]models.User, error)
	FindInApp(ctx context.Context, appID, userID string) ([]models.User, error)
	UpdateLocation(ctx context.Context, appID, userID, latitude, longitude string) error
	UpdateProfile(ctx context.Context, appID, userID string, in ProfileUpdate) error
	AuthorByID(ctx context.Context, userID string) (models.Author, bool, error)
	AuthorsByIDs(ctx context.Context, userIDs []string) (map[string]models.Author, error)
}

// ProfileUpdate carries the fields updateProfile may change.
type ProfileUpdate struct {
	Name         string
	Bio          string
	ProfileImage string
}

type userRepository struct {
	db      *gorm.DB
	authors *cache.AuthorCache
	log     *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation. authors may
// be nil, in which case author lookups always hit the database.
func NewUserRepository(db *gorm.DB, authors *cache.AuthorCache) UserRepository {
	return &userRepository{db: db, authors: authors, log: observability.NewRepoLogger("users")}
}

// Create inserts the user. The (app_id, username) unique index makes this a
// conditional create: a conflicting row fails the insert itself.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, end := track(ctx, "users", "create")
	defer end()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewDuplicateUsernameError(err)
		}
		return storageError(ctx, r.log, "create", err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"user_id": user.ID, "app_id": user.AppID})
	return nil
}

func (r *userRepository) FindByCredentials(ctx context.Context, appID, username, password string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("app_id = ? AND username = ? AND password = ?", appID, username, password).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("User", username)
	}
	if err != nil {
		return nil, storageError(ctx, r.log, "find_by_credentials", err)
	}
	return &user, nil
}

func (r *userRepository) ListByApp(ctx context.Context, appID string) ([]models.User, error) {
	ctx, end := track(ctx, "users", "list")
	defer end()

	users := []models.User{}
	if err := r.db.WithContext(ctx).Where("app_id = ?", appID).Find(&users).Error; err != nil {
		return nil, storageError(ctx, r.log, "list", err)
	}
	return users, nil
}

func (r *userRepository) FindInApp(ctx context.Context, appID, userID string) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.WithContext(ctx).Where("app_id = ? AND id = ?", appID, userID).Find(&users).Error; err != nil {
		return nil, storageError(ctx, r.log, "find_in_app", err)
	}
	return users, nil
}

func (r *userRepository) UpdateLocation(ctx context.Context, appID, userID, latitude, longitude string) error {
	return r.update(ctx, appID, userID, map[string]interface{}{
		"latitude":  latitude,
		"longitude": longitude,
	})
}

func (r *userRepository) UpdateProfile(ctx context.Context, appID, userID string, in ProfileUpdate) error {
	if err := r.update(ctx, appID, userID, map[string]interface{}{
		"name":          in.Name,
		"bio":           in.Bio,
		"profile_image": in.ProfileImage,
	}); err != nil {
		return err
	}
	// Best effort; the TTL bounds staleness if this fails.
	_ = r.authors.Forget(ctx, userID)
	return nil
}

// update applies a partial update to exactly the given columns. A map is used
// so empty strings are written rather than skipped.
func (r *userRepository) update(ctx context.Context, appID, userID string, fields map[string]interface{}) error {
	ctx, end := track(ctx, "users", "update")
	defer end()

	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("app_id = ? AND id = ?", appID, userID).
		Updates(fields)
	if result.Error != nil {
		return storageError(ctx, r.log, "update", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewUserNotFoundError(userID)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"user_id": userID, "app_id": appID})
	return nil
}

// AuthorByID looks up a single author snapshot without the cache.
func (r *userRepository) AuthorByID(ctx context.Context, userID string) (models.Author, bool, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("id", "username", "profile_image").
		Where("id = ?", userID).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Author{}, false, nil
	}
	if err != nil {
		return models.Author{}, false, storageError(ctx, r.log, "author_by_id", err)
	}
	return user.Author(), true, nil
}

// AuthorsByIDs resolves snapshots for the distinct ids, serving what it can
// from the cache and loading the rest in one query. Unknown ids are absent
// from the result.
func (r *userRepository) AuthorsByIDs(ctx context.Context, userIDs []string) (map[string]models.Author, error) {
	ids := distinct(userIDs)
	found, missing := r.authors.GetMany(ctx, ids)
	if len(missing) == 0 {
		return found, nil
	}

	ctx, end := track(ctx, "users", "authors_by_ids")
	defer end()

	var users []models.User
	if err := r.db.WithContext(ctx).
		Select("id", "username", "profile_image").
		Where("id IN ?", missing).
		Find(&users).Error; err != nil {
		return nil, storageError(ctx, r.log, "authors_by_ids", err)
	}

	loaded := make(map[string]models.Author, len(users))
	for i := range users {
		loaded[users[i].ID] = users[i].Author()
		found[users[i].ID] = users[i].Author()
	}
	r.authors.SetMany(ctx, loaded)
	return found, nil
}

// distinct drops empty and repeated ids, returning them sorted.
func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
