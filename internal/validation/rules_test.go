package validation

import (
	"testing"

	"appfeed/internal/models"

	"github.com/stretchr/testify/assert"
)

func assertValidationMessage(t *testing.T, err error, want string) {
	t.Helper()
	if want == "" {
		assert.NoError(t, err)
		return
	}
	var appErr *models.AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Equal(t, models.CodeValidation, appErr.Code)
		assert.Equal(t, want, appErr.Message)
	}
}

func TestMinLength_CountsCharacters(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", MinLength("héllo", 5, "short")())
	assert.Equal(t, "short", MinLength("héll", 5, "short")())
	assert.Equal(t, "short", MinLength("", 1, "short")())
}

func TestSignUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                          string
		app, fullName, user, password string
		want                          string
	}{
		{"valid", "app1", "Neo", "neo", "pass12", ""},
		{"short app", "a", "Neo", "neo", "pass12", MsgInvalidAppID},
		{"short name", "app1", "Ne", "neo", "pass12", MsgInvalidName},
		{"short username", "app1", "Neo", "ne", "pass12", MsgInvalidUsername},
		{"short password", "app1", "Neo", "neo", "pass", MsgShortPassword},
		{"first failure wins", "", "", "", "", MsgInvalidAppID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertValidationMessage(t, SignUp(tc.app, tc.fullName, tc.user, tc.password), tc.want)
		})
	}
}

func TestSignIn(t *testing.T) {
	t.Parallel()
	assertValidationMessage(t, SignIn("app1", "neo", "pass12"), "")
	assertValidationMessage(t, SignIn("app1", "neo", "pass"), MsgInvalidPassword)
	assertValidationMessage(t, SignIn("app1", "n", "pass"), MsgInvalidUsername)
}

func TestFeedRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"add feed", AddFeed("app1", "Nice sunset!"), ""},
		{"add feed short caption", AddFeed("app1", "Nice"), MsgShortCaption},
		{"add feed short app", AddFeed("x", "Nice sunset!"), MsgInvalidAppID},
		{"toggle like", ToggleLike("app1", "f1"), ""},
		{"toggle like short feed", ToggleLike("app1", "f"), MsgInvalidFeedID},
		{"delete feed", DeleteFeed("f1"), ""},
		{"delete feed empty", DeleteFeed(""), MsgInvalidFeedID},
		{"add comment", AddComment("app1", "!"), ""},
		{"add comment empty", AddComment("app1", ""), MsgInvalidComment},
		{"add reply", AddReply("k"), ""},
		{"add reply empty", AddReply(""), MsgInvalidReply},
		{"app id", AppID("app1"), ""},
		{"app id short", AppID("a"), MsgInvalidAppID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assertValidationMessage(t, tc.err, tc.want)
		})
	}
}

func TestProfileRules(t *testing.T) {
	t.Parallel()
	assertValidationMessage(t, UpdateLocation("app1", "u-1", "12", "77"), "")
	assertValidationMessage(t, UpdateLocation("app1", "u1", "12", "77"), MsgInvalidUserID)
	assertValidationMessage(t, UpdateLocation("app1", "u-1", "1", "77"), MsgInvalidLatitude)
	assertValidationMessage(t, UpdateLocation("app1", "u-1", "12", ""), MsgInvalidLongitude)

	assertValidationMessage(t, UpdateProfile("app1", "u1", "Ne", "img"), "")
	assertValidationMessage(t, UpdateProfile("app1", "u1", "N", "img"), MsgInvalidFullName)
	assertValidationMessage(t, UpdateProfile("app1", "u", "Ne", "img"), MsgInvalidUserIDLong)
	assertValidationMessage(t, UpdateProfile("app1", "u1", "Ne", ""), MsgInvalidProfileImage)
}
