package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"appfeed/internal/config"
	"appfeed/internal/database"
	"appfeed/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Port:                  "0",
		Env:                   "test",
		DBDriver:              "sqlite",
		AllowedOrigins:        "http://localhost:5173",
		FeatureFlags:          "live_feed_events=on",
		AuthorCacheTTLSeconds: 60,
		RateLimitPerMinute:    1000,
	}
}

// newTestApp returns an app over an in-memory SQLite store and no Redis.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	s, err := NewServerWithDeps(testConfig(), db, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.hub.Shutdown(t.Context()) })
	return s.App()
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestUserRoutes_SignUpAndSignIn(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/api/user/signUp",
		fiber.Map{"appId": "app1", "username": "neo", "name": "Neo", "password": "pass12"})
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]any)
	assert.Equal(t, "neo", user["username"])
	assert.Equal(t, models.DefaultProfileImage, user["profileImage"])
	assert.NotContains(t, user, "password")

	status, body = doJSON(t, app, http.MethodPost, "/api/user/signUp",
		fiber.Map{"appId": "app1", "username": "neo", "name": "Other", "password": "pass34"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username already exist", body["errorMessage"])
	assert.Equal(t, models.CodeDuplicateUsername, body["code"])

	status, body = doJSON(t, app, http.MethodPost, "/api/user/signIn",
		fiber.Map{"appId": "app1", "username": "neo", "password": "pass12"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, user["userId"], body["user"].(map[string]any)["userId"])

	status, body = doJSON(t, app, http.MethodPost, "/api/user/signIn",
		fiber.Map{"appId": "app1", "username": "neo", "password": "wrong1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Incorrect credentials", body["errorMessage"])
}

func TestUserRoutes_Validation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name    string
		path    string
		body    fiber.Map
		message string
	}{
		{"short app id", "/api/user/signUp", fiber.Map{"appId": "a", "username": "neo", "name": "Neo", "password": "pass12"}, "Invalid app Id"},
		{"short password", "/api/user/signUp", fiber.Map{"appId": "app1", "username": "neo", "name": "Neo", "password": "p"}, "Password should be at least 5 characters long"},
		{"short latitude", "/api/user/updateLocation", fiber.Map{"appId": "app1", "userId": "u-1", "latitude": "1", "longitude": "77"}, "Invalid latitude"},
		{"short profile image", "/api/user/updateProfile", fiber.Map{"appId": "app1", "userId": "u1", "name": "Neo", "profileImage": "x"}, "Invalid profile image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.message, body["errorMessage"])
			assert.Equal(t, models.CodeValidation, body["code"])
		})
	}
}

func TestUserRoutes_ProfileAndLocation(t *testing.T) {
	app := newTestApp(t)

	_, body := doJSON(t, app, http.MethodPost, "/api/user/signUp",
		fiber.Map{"appId": "app1", "username": "neo", "name": "Neo", "password": "pass12"})
	userID := body["user"].(map[string]any)["userId"].(string)

	status, body := doJSON(t, app, http.MethodPost, "/api/user/updateLocation",
		fiber.Map{"appId": "app1", "userId": userID, "latitude": "12.97", "longitude": "77.59"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Location updated successfully", body["successMessage"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/user/updateLocation",
		fiber.Map{"appId": "app2", "userId": userID, "latitude": "12.97", "longitude": "77.59"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = doJSON(t, app, http.MethodPost, "/api/user/updateProfile",
		fiber.Map{"appId": "app1", "userId": userID, "name": "Thomas", "bio": "the one", "profileImage": "neo.png"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Profile updated successfully", body["successMessage"])

	status, body = doJSON(t, app, http.MethodGet, "/api/user/getProfile/"+userID+"/app1", nil)
	require.Equal(t, http.StatusOK, status)
	profiles := body["user"].([]any)
	require.Len(t, profiles, 1)
	profile := profiles[0].(map[string]any)
	assert.Equal(t, "Thomas", profile["name"])
	assert.Equal(t, "the one", profile["bio"])
	assert.Equal(t, "12.97", profile["latitude"])

	status, body = doJSON(t, app, http.MethodGet, "/api/user/getProfile/"+userID+"/app2", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No user found", body["errorMessage"])
	assert.Equal(t, []any{}, body["user"])

	status, body = doJSON(t, app, http.MethodGet, "/api/user/getUsers/app1", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, body["allUsers"], 1)

	status, body = doJSON(t, app, http.MethodGet, "/api/feeds/getUsers/app9", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["users"])
	assert.Equal(t, "No users found", body["successMessage"])
}

func TestFeedRoutes_AppAuthoredFeed(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/api/feeds/getFeeds/app1", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{}, body["feeds"])
	assert.Equal(t, "No feeds found!", body["successMessage"])

	status, body = doJSON(t, app, http.MethodPost, "/api/feeds/addFeed",
		fiber.Map{"appId": "app1", "caption": "Nice", "image": "img.png"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Caption should be at least 5 characters long", body["errorMessage"])

	status, body = doJSON(t, app, http.MethodPost, "/api/feeds/addFeed",
		fiber.Map{"appId": "app1", "caption": "Nice sunset!", "image": "img.png"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Feed added successfully", body["successMessage"])
	assert.NotContains(t, body, "feed")

	status, body = doJSON(t, app, http.MethodGet, "/api/feeds/getFeeds/app1", nil)
	require.Equal(t, http.StatusOK, status)
	feeds := body["feeds"].([]any)
	require.Len(t, feeds, 1)
	feed := feeds[0].(map[string]any)
	assert.Equal(t, "Added by app", feed["username"])
	assert.Equal(t, models.DefaultProfileImage, feed["profileImage"])
	assert.Equal(t, "", feed["userId"])
	assert.Equal(t, map[string]any{}, feed["likes"])
}

func TestFeedRoutes_LikeCommentDelete(t *testing.T) {
	app := newTestApp(t)

	doJSON(t, app, http.MethodPost, "/api/feeds/addFeed", fiber.Map{"appId": "app1", "caption": "Nice sunset!", "userId": "u1"})
	_, body := doJSON(t, app, http.MethodGet, "/api/feeds/getMyFeeds/app1/u1", nil)
	feeds := body["feeds"].([]any)
	require.Len(t, feeds, 1)
	feedID := feeds[0].(map[string]any)["feedId"].(string)

	like := fiber.Map{"appId": "app1", "feedId": feedID, "userId": "u1"}
	status, body := doJSON(t, app, http.MethodPost, "/api/feeds/likeFeed", like)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Feed likes handled successfully", body["successMessage"])
	assert.Equal(t, true, body["liked"])
	_, body = doJSON(t, app, http.MethodPost, "/api/feeds/likeFeed", like)
	assert.Equal(t, false, body["liked"])

	_, body = doJSON(t, app, http.MethodGet, "/api/feeds/getFeeds/app1", nil)
	likes := body["feeds"].([]any)[0].(map[string]any)["likes"].(map[string]any)
	assert.Equal(t, map[string]any{"u1": false}, likes)

	status, body = doJSON(t, app, http.MethodPost, "/api/feeds/likeFeed", fiber.Map{"appId": "app1", "feedId": "missing"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Feed id not exists", body["errorMessage"])

	status, body = doJSON(t, app, http.MethodPost, "/api/feeds/addComment",
		fiber.Map{"appId": "app1", "feedId": feedID, "comment": "Nice!"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Comment added successfully", body["successMessage"])
	assert.Equal(t, map[string]any{}, body["data"])

	_, body = doJSON(t, app, http.MethodGet, "/api/feeds/getComments/app1/"+feedID, nil)
	comments := body["comments"].([]any)
	require.Len(t, comments, 1)
	comment := comments[0].(map[string]any)
	assert.Equal(t, "Added by app", comment["username"])
	commentID := comment["commentId"].(string)

	_, body = doJSON(t, app, http.MethodGet, "/api/feeds/getComments/app1", nil)
	raw := body["comments"].([]any)[0].(map[string]any)
	assert.NotContains(t, raw, "username")

	status, body = doJSON(t, app, http.MethodPost, "/api/feeds/addReply",
		fiber.Map{"commentId": commentID, "reply": "thanks"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Reply added successfully", body["successMessage"])

	status, body = doJSON(t, app, http.MethodDelete, "/api/feeds/deleteFeed", fiber.Map{"feedId": feedID})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Feed deleted successfully", body["successMessage"])

	_, body = doJSON(t, app, http.MethodGet, "/api/feeds/getComments/app1/"+feedID, nil)
	assert.Equal(t, []any{}, body["comments"])
	assert.Equal(t, "No comments found", body["successMessage"])

	_, body = doJSON(t, app, http.MethodGet, "/api/feeds/getReplies/"+commentID, nil)
	assert.Len(t, body["replies"], 1)

	status, _ = doJSON(t, app, http.MethodDelete, "/api/feeds/deleteFeed", fiber.Map{"feedId": feedID})
	assert.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, http.MethodDelete, "/api/feeds/deleteFeed", fiber.Map{"feedId": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid feed Id", body["errorMessage"])
}

func TestFeedRoutes_MalformedBody(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/feeds/addFeed", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthRoutes(t *testing.T) {
	app := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["status"])

	status, body = doJSON(t, app, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestFeatureFlagRoute(t *testing.T) {
	app := newTestApp(t)
	status, body := doJSON(t, app, http.MethodGet, "/api/feature-flags/app1", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"live_feed_events": true}, body["evaluated"])
}

func TestFeedWebSocket_RequiresUpgrade(t *testing.T) {
	app := newTestApp(t)

	status, _ := doJSON(t, app, http.MethodGet, "/api/feeds/ws/app1", nil)
	assert.Equal(t, http.StatusUpgradeRequired, status)

	status, body := doJSON(t, app, http.MethodGet, "/api/feeds/ws/a", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid app Id", body["errorMessage"])
}
