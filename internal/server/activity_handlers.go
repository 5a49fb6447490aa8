package server

import (
	"context"
	"fmt"

	"nextfilm/internal/middleware"
	"nextfilm/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ActivityStream upgrades to a websocket that pushes the caller's activity
// events (post.liked, user.followed, comment.created) as JSON text frames.
// Mounted behind RequireIdentity; browsers authenticate with the session cookie.
// @Summary Activity stream
// @Tags activity
// @Security BearerAuth
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Router /ws/activity [get]
func (s *Server) ActivityStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		observability.ActiveWebSockets.Inc()
		defer observability.ActiveWebSockets.Dec()

		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("activity stream rejected", "user_id", uid, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// startActivityFanout forwards Redis activity events to connected streams
// until ctx ends. Without Redis nothing is published, so nothing is wired.
func (s *Server) startActivityFanout(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	if err := s.hub.StartWiring(ctx, s.notifier); err != nil {
		return fmt.Errorf("activity fan-out: %w", err)
	}
	return nil
}
