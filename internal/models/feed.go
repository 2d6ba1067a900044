package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feed is a captioned image posted to an app, optionally by a user.
type Feed struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"feedId"`
	AppID     string    `gorm:"type:varchar(128);not null;index:idx_feeds_app_time,priority:1;index:idx_feeds_app_user_time,priority:1" json:"appId"`
	Caption   string    `gorm:"type:text;not null" json:"caption"`
	Image     string    `gorm:"type:text" json:"image"`
	UserID    string    `gorm:"type:varchar(128);not null;index:idx_feeds_app_user_time,priority:2" json:"userId"`
	TimeStamp time.Time `gorm:"not null;index:idx_feeds_app_time,priority:2;index:idx_feeds_app_user_time,priority:3" json:"timeStamp"`

	// Likes is folded from feed_likes on read; never persisted on this row.
	Likes map[string]bool `gorm:"-" json:"likes"`
	// Username and ProfileImage are attached by enrichment.
	Username     string `gorm:"-" json:"username,omitempty"`
	ProfileImage string `gorm:"-" json:"profileImage,omitempty"`
}

// BeforeCreate assigns a generated id when none was supplied.
func (f *Feed) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

func (f *Feed) AuthorID() string { return f.UserID }

func (f *Feed) SetAuthor(a Author) {
	f.Username = a.Username
	f.ProfileImage = a.ProfileImage
}

// FeedLike holds one actor's toggle state for a feed. The actor key is the
// user id when present, else the app id.
type FeedLike struct {
	FeedID    string    `gorm:"primaryKey;type:varchar(36)" json:"feedId"`
	ActorKey  string    `gorm:"primaryKey;type:varchar(128)" json:"actorKey"`
	Liked     bool      `gorm:"not null" json:"liked"`
	UpdatedAt time.Time `json:"-"`
}
