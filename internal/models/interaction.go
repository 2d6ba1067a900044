package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a remark on a feed. The feed is not required to exist.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"commentId"`
	AppID     string    `gorm:"type:varchar(128);not null;index:idx_comments_app_feed_time,priority:1" json:"appId"`
	FeedID    string    `gorm:"type:varchar(128);not null;index;index:idx_comments_app_feed_time,priority:2" json:"feedId"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	UserID    string    `gorm:"type:varchar(128);not null" json:"userId"`
	TimeStamp time.Time `gorm:"not null;index:idx_comments_app_feed_time,priority:3" json:"timeStamp"`

	Username     string `gorm:"-" json:"username,omitempty"`
	ProfileImage string `gorm:"-" json:"profileImage,omitempty"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Comment) AuthorID() string { return c.UserID }

func (c *Comment) SetAuthor(a Author) {
	c.Username = a.Username
	c.ProfileImage = a.ProfileImage
}

// Reply answers a comment. Replies outlive their comment's feed.
type Reply struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"replyId"`
	CommentID string    `gorm:"type:varchar(128);not null;index" json:"commentId"`
	Reply     string    `gorm:"type:text;not null" json:"reply"`
	UserID    string    `gorm:"type:varchar(128);not null" json:"userId"`
	TimeStamp time.Time `gorm:"not null" json:"timeStamp"`

	Username     string `gorm:"-" json:"username,omitempty"`
	ProfileImage string `gorm:"-" json:"profileImage,omitempty"`
}

func (r *Reply) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *Reply) AuthorID() string { return r.UserID }

func (r *Reply) SetAuthor(a Author) {
	r.Username = a.Username
	r.ProfileImage = a.ProfileImage
}
