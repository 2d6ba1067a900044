package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"appfeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtxHandler_AddsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&ctxHandler{slog.NewTextHandler(&buf, nil)})

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, AppIDKey, "app1")
	logger.With("component", "test").InfoContext(ctx, "hello")

	out := buf.String()
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "app_id=app1")
	assert.Contains(t, out, "component=test")
}

func TestContextMiddleware_PropagatesRequestAndAppID(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(ContextMiddleware())

	var gotRequestID, gotAppID string
	app.Get("/feeds/:appId", func(c *fiber.Ctx) error {
		WithAppID(c, c.Params("appId"))
		gotRequestID, _ = c.UserContext().Value(RequestIDKey).(string)
		gotAppID, _ = c.UserContext().Value(AppIDKey).(string)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/feeds/app1", nil)
	req.Header.Set(fiber.HeaderXRequestID, "fixed-id")
	resp, err := app.Test(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "fixed-id", gotRequestID)
	assert.Equal(t, "app1", gotAppID)
}

func TestContextMiddleware_CorrelationID(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(ContextMiddleware())

	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = observability.ExtractCorrelationID(c.UserContext())
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"falls back to request id", map[string]string{fiber.HeaderXRequestID: "req-1"}, "req-1"},
		{"header wins", map[string]string{fiber.HeaderXRequestID: "req-2", HeaderCorrelationID: "corr-9"}, "corr-9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger_ProductionUsesJSON(t *testing.T) {
	logger := NewLogger("production")
	h, ok := logger.Handler().(*ctxHandler)
	require.True(t, ok)
	_, isJSON := h.Handler.(*slog.JSONHandler)
	assert.True(t, isJSON)
}
