package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"jamsesh/internal/middleware"
	"jamsesh/internal/models"
	"jamsesh/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

const postStreamKeepAlive = 25 * time.Second

// StreamPostEvents handles GET /api/posts/stream
// @Summary Post change stream
// @Description Server-sent events, one per post create/update/delete, so clients can refresh their feeds
// @Tags posts
// @Produce text/event-stream
// @Success 200
// @Failure 503 {object} models.ErrorResponse
// @Router /posts/stream [get]
func (s *Server) StreamPostEvents(c *fiber.Ctx) error {
	if s.redis == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error: "Live updates are unavailable",
		})
	}

	ctx, cancel := context.WithCancel(s.baseContext())
	events := make(chan notifications.PostEvent, 16)
	err := s.notifier.SubscribePosts(ctx, func(ev notifications.PostEvent) {
		select {
		case events <- ev:
		default:
			// Slow reader; it will catch up on its next refresh.
		}
	})
	if err != nil {
		cancel()
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewUpstreamError("Live updates are unavailable", err))
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		if err := streamPostEvents(ctx, w, events, postStreamKeepAlive); err != nil {
			middleware.Logger.Debug("post stream closed", "error", err)
		}
	})
	return nil
}

// baseContext is cancelled when the server shuts down.
func (s *Server) baseContext() context.Context {
	if s.shutdownCtx == nil {
		return context.Background()
	}
	return s.shutdownCtx
}

// streamPostEvents writes events as SSE frames until ctx ends or a write fails.
func streamPostEvents(ctx context.Context, w *bufio.Writer, events <-chan notifications.PostEvent, keepAlive time.Duration) error {
	if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if err := writePostEvent(w, ev); err != nil {
				return err
			}
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return err
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
}

func writePostEvent(w io.Writer, ev notifications.PostEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
