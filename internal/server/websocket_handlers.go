package server

import (
	"errors"

	"appfeed/internal/models"
	"appfeed/internal/notifications"
	"appfeed/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedWebSocketUpgrade rejects non-upgrade requests and invalid app ids
// before the handshake.
func (s *Server) FeedWebSocketUpgrade(c *fiber.Ctx) error {
	appID := tenant(c, c.Params("appId"))
	if err := validation.AppID(appID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// FeedWebSocketHandler streams the app's live feed events to the viewer.
// Incoming messages are ignored.
func (s *Server) FeedWebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		appID := conn.Params("appId")

		client, err := s.hub.Register(appID, conn)
		if err != nil {
			code := websocket.CloseTryAgainLater
			if errors.Is(err, notifications.ErrHubShutdown) {
				code = websocket.CloseGoingAway
			}
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, err.Error()))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
