package session

import (
	"bufio"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/events"
	"github.com/wichananm65/souq-backend/internal/logger"
	"github.com/wichananm65/souq-backend/internal/user"
)

type Handler struct {
	users     UserReader
	carts     CartCounter
	admins    AdminChecker
	broker    *events.Broker
	heartbeat time.Duration
}

func NewHandler(users UserReader, carts CartCounter, admins AdminChecker, broker *events.Broker) *Handler {
	return &Handler{users: users, carts: carts, admins: admins, broker: broker, heartbeat: heartbeat}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/session", h.getSession)
	app.Get("/api/v1/session/events", h.streamEvents)
}

func (h *Handler) getSession(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	ctx := c.UserContext()
	u, err := h.users.GetByID(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		return user.Unauthorized(c)
	}
	if err != nil {
		logger.FromCtx(c).Error("load session user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load session"})
	}
	count, err := h.carts.Count(ctx, userID)
	if err != nil {
		logger.FromCtx(c).Error("load cart count", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load session"})
	}
	snap := Snapshot{User: &u, CartCount: count}
	if h.admins != nil {
		if snap.IsAdmin, err = h.admins.IsAdmin(ctx, userID); err != nil {
			logger.FromCtx(c).Warn("admin check for session", zap.Error(err))
		}
	}
	return c.JSON(snap)
}

// streamEvents sends one INITIAL_SESSION frame and then every auth and cart
// event for the caller. The stream ends when its own token signs out or when
// the client goes away.
func (h *Handler) streamEvents(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return user.Unauthorized(c)
	}
	u, err := h.users.GetByID(c.UserContext(), userID)
	if err != nil {
		return user.Unauthorized(c)
	}
	count, err := h.carts.Count(c.UserContext(), userID)
	if err != nil {
		logger.FromCtx(c).Error("load cart count", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load session"})
	}

	ch, cancel := h.broker.Subscribe(userID)
	log := logger.FromCtx(c).With(zap.String("user_id", userID.String()))
	ref := &sessionRef{UserID: userID, Email: u.Email}
	jti := user.TokenIDFromCtx(c)
	beat := h.heartbeat

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		if err := writeFrame(w, message{Event: events.InitialSession, Session: ref, CartCount: count}); err != nil {
			return
		}
		ticker := time.NewTicker(beat)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				var mine bool
				if jti, mine = follow(jti, ev); !mine {
					continue
				}
				var m message
				count, m = apply(count, ref, ev)
				if err := writeFrame(w, m); err != nil {
					log.Debug("session stream closed", zap.Error(err))
					return
				}
				if ev.Type == events.SignedOut {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}
