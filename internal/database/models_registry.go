package database

import "appfeed/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.App{},
		&models.User{},
		&models.Feed{},
		&models.FeedLike{},
		&models.Comment{},
		&models.Reply{},
	}
}
