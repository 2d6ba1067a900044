package repository

import (
	"context"

	"appfeed/internal/models"
	"appfeed/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppRepository defines persistence operations for tenant records.
type AppRepository interface {
	Ensure(ctx context.Context, appID string) error
}

type appRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewAppRepository returns a new AppRepository implementation.
func NewAppRepository(db *gorm.DB) AppRepository {
	return &appRepository{db: db, log: observability.NewRepoLogger("apps")}
}

// Ensure creates the app row if it is missing. Concurrent callers race safely:
// the insert is a no-op on conflict.
func (r *appRepository) Ensure(ctx context.Context, appID string) error {
	ctx, end := track(ctx, "apps", "ensure")
	defer end()

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.App{ID: appID})
	if result.Error != nil {
		return storageError(ctx, r.log, "ensure", result.Error)
	}
	if result.RowsAffected > 0 {
		r.log.LogCreate(ctx, map[string]interface{}{"app_id": appID})
	}
	return nil
}
