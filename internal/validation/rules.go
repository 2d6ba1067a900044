// Package validation holds the request pre-conditions checked before any
// storage access. Each rule set reports only its first failing rule.
package validation

import (
	"unicode/utf8"

	"appfeed/internal/models"
)

const (
	MsgInvalidAppID        = "Invalid app Id"
	MsgInvalidFeedID       = "Invalid feed Id"
	MsgInvalidName         = "Invalid Name"
	MsgInvalidFullName     = "Invalid Full Name"
	MsgInvalidUsername     = "Invalid Username"
	MsgInvalidPassword     = "Invalid password"
	MsgShortPassword       = "Password should be at least 5 characters long"
	MsgShortCaption        = "Caption should be at least 5 characters long"
	MsgInvalidComment      = "Invalid comment"
	MsgInvalidReply        = "Invalid reply"
	MsgInvalidUserID       = "Invalid userId"
	MsgInvalidUserIDLong   = "Invalid User Id"
	MsgInvalidLatitude     = "Invalid latitude"
	MsgInvalidLongitude    = "Invalid longitude"
	MsgInvalidProfileImage = "Invalid profile image"
)

// Rule is a single pre-condition. It returns the failure message, or "" when
// the value passes.
type Rule func() string

// MinLength fails with message when value has fewer than min characters.
func MinLength(value string, min int, message string) Rule {
	return func() string {
		if utf8.RuneCountInString(value) < min {
			return message
		}
		return ""
	}
}

// First runs rules in order and returns a validation error for the first one
// that fails.
func First(rules ...Rule) error {
	for _, rule := range rules {
		if msg := rule(); msg != "" {
			return models.NewValidationError(msg)
		}
	}
	return nil
}

func appID(id string) Rule { return MinLength(id, 2, MsgInvalidAppID) }

// AppID checks the tenant identifier carried by read operations.
func AppID(id string) error {
	return First(appID(id))
}

func SignUp(app, name, username, password string) error {
	return First(
		appID(app),
		MinLength(name, 3, MsgInvalidName),
		MinLength(username, 3, MsgInvalidUsername),
		MinLength(password, 5, MsgShortPassword),
	)
}

func SignIn(app, username, password string) error {
	return First(
		appID(app),
		MinLength(username, 3, MsgInvalidUsername),
		MinLength(password, 5, MsgInvalidPassword),
	)
}

func UpdateLocation(app, userID, latitude, longitude string) error {
	return First(
		appID(app),
		MinLength(userID, 3, MsgInvalidUserID),
		MinLength(latitude, 2, MsgInvalidLatitude),
		MinLength(longitude, 2, MsgInvalidLongitude),
	)
}

// UpdateProfile leaves bio unchecked; an empty bio clears it.
func UpdateProfile(app, userID, name, profileImage string) error {
	return First(
		appID(app),
		MinLength(name, 2, MsgInvalidFullName),
		MinLength(userID, 2, MsgInvalidUserIDLong),
		MinLength(profileImage, 2, MsgInvalidProfileImage),
	)
}

func AddFeed(app, caption string) error {
	return First(
		appID(app),
		MinLength(caption, 5, MsgShortCaption),
	)
}

func ToggleLike(app, feedID string) error {
	return First(
		appID(app),
		MinLength(feedID, 2, MsgInvalidFeedID),
	)
}

func DeleteFeed(feedID string) error {
	return First(MinLength(feedID, 2, MsgInvalidFeedID))
}

func AddComment(app, comment string) error {
	return First(
		appID(app),
		MinLength(comment, 1, MsgInvalidComment),
	)
}

func AddReply(reply string) error {
	return First(MinLength(reply, 1, MsgInvalidReply))
}
