// Package models contains data structures for the feed service's domain models.
package models

import "time"

// App is a tenant namespace. Rows are created the first time a feed names an
// unseen app id and are never updated or removed.
type App struct {
	ID        string    `gorm:"primaryKey;type:varchar(128)" json:"id"`
	CreatedAt time.Time `json:"-"`
}
