package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultProfileImage is assigned to new users and to app-authored records.
const DefaultProfileImage = "https://procodingclass.github.io/tynker-vr-gamers-assets/assets/defaultProfileImage.png"

// User is a tenant-scoped account. Username is unique per app.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"userId"`
	AppID        string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_users_app_username,priority:1" json:"appId"`
	Username     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_app_username,priority:2" json:"username"`
	Name         string    `gorm:"not null" json:"name"`
	Password     string    `gorm:"not null" json:"-"`
	ProfileImage string    `json:"profileImage"`
	Bio          string    `json:"bio"`
	Latitude     string    `json:"latitude"`
	Longitude    string    `json:"longitude"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// BeforeCreate assigns a generated id when none was supplied.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Author returns the display snapshot attached to records this user wrote.
func (u *User) Author() Author {
	return Author{Username: u.Username, ProfileImage: u.ProfileImage}
}
