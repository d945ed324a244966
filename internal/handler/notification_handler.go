package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/middleware"
	"github.com/noah-isme/lira-intern-api/internal/service"
	"github.com/noah-isme/lira-intern-api/internal/utils"
)

// NotificationHandler manages SSE notification streams and read state.
type NotificationHandler struct {
	service   service.NotificationService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger, keepAlive time.Duration) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		logger:    logger.With().Str("component", "notification_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	authenticated := middleware.AuthOptions{RequireUser: true}

	router.Get("", middleware.WithAuth(h.list, authenticated))
	router.Get("/stream", middleware.WithAuth(h.stream, authenticated))
	router.Get("/unread-count", middleware.WithAuth(h.unreadCount, authenticated))
	router.Post("/read-all", middleware.WithAuth(h.markAllRead, authenticated))
	router.Patch("/:id/read", middleware.WithAuth(h.markRead, authenticated))
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	var query dto.NotificationListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	notifications, err := h.service.List(requestContext(c), middleware.UserID(c), query)
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "notifications", notifications)
}

func (h *NotificationHandler) unreadCount(c *fiber.Ctx) error {
	count, err := h.service.UnreadCount(requestContext(c), middleware.UserID(c))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "unread notifications", fiber.Map{"unread": count})
}

// stream holds the connection open as server-sent events. Comments keep idle
// proxies from closing it; a slow reader loses notifications, never blocks publishers.
func (h *NotificationHandler) stream(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	interval := h.keepAlive
	if interval <= 0 {
		interval = 30 * time.Second
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	done := requestContext(c).Done()
	notifications, unsubscribe := h.service.Subscribe(userID)
	log := h.logger.With().Str("user_id", userID).Logger()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		events := sseWriter{w: w}

		if err := events.retry(sseRetry); err != nil {
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			var err error
			select {
			case <-done:
				return
			case notification, open := <-notifications:
				if !open {
					return
				}
				err = writeNotificationEvent(w, notification)
			case <-ticker.C:
				err = writeKeepAlive(w)
			}
			if err != nil {
				log.Debug().Err(err).Msg("notification stream closed by client")
				return
			}
		}
	})

	return nil
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid notification id")
	}

	notification, err := h.service.MarkRead(requestContext(c), id, middleware.UserID(c))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "notification updated", notification)
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	updated, err := h.service.MarkAllRead(requestContext(c), middleware.UserID(c))
	if err != nil {
		return sendServiceError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "notifications updated", fiber.Map{"updated": updated})
}

// sseRetry tells browsers how long to wait before reconnecting.
const sseRetry = 5 * time.Second

// sseWriter frames server-sent events and flushes after each one.
type sseWriter struct {
	w *bufio.Writer
}

func (s sseWriter) retry(after time.Duration) error {
	if _, err := fmt.Fprintf(s.w, "retry: %d\n\n", after.Milliseconds()); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s sseWriter) event(name, id string, data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: %s\nid: %s\ndata: %s\n\n", name, id, data); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s sseWriter) comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	return s.w.Flush()
}

func writeNotificationEvent(w *bufio.Writer, notification dto.NotificationResponse) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return sseWriter{w: w}.event("notification", notification.ID, payload)
}

func writeKeepAlive(w *bufio.Writer) error {
	return sseWriter{w: w}.comment("keep-alive " + time.Now().UTC().Format(time.RFC3339))
}
