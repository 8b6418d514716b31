package user

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/wichananm65/souq-backend/internal/events"
	"github.com/wichananm65/souq-backend/internal/logger"
	"github.com/wichananm65/souq-backend/internal/metrics"
	"github.com/wichananm65/souq-backend/internal/validation"
)

type Handler struct {
	service *Service
	tokens  *TokenIssuer
	deny    *Denylist
	broker  *events.Broker
	limiter fiber.Handler
	created func(ctx context.Context, u User) error
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FullName        string `json:"full_name" validate:"notblank,max=120"`
	RedirectURL     string `json:"redirect_url" validate:"omitempty,url"`
}

func NewHandler(service *Service, tokens *TokenIssuer, deny *Denylist, broker *events.Broker) *Handler {
	return &Handler{service: service, tokens: tokens, deny: deny, broker: broker}
}

// WithRateLimit guards sign-in and sign-up with h.
func (h *Handler) WithRateLimit(limiter fiber.Handler) *Handler {
	h.limiter = limiter
	return h
}

// OnSignUp runs fn for every newly registered account before the session is
// issued. A failure is logged and does not undo the registration.
func (h *Handler) OnSignUp(fn func(ctx context.Context, u User) error) *Handler {
	h.created = fn
	return h
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	guard := h.limiter
	if guard == nil {
		guard = func(c *fiber.Ctx) error { return c.Next() }
	}
	app.Post("/api/v1/auth/sign-in", guard, h.signIn)
	app.Post("/api/v1/auth/sign-up", guard, h.signUp)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/auth/user", h.currentUser)
	app.Post("/api/v1/auth/refresh", h.refresh)
	app.Post("/api/v1/auth/sign-out", h.signOut)
}

func (h *Handler) signIn(c *fiber.Ctx) error {
	payload := new(signInRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}

	u, err := h.service.Authenticate(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("sign_in", "failure").Inc()
		if errors.Is(err, ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid login credentials"})
		}
		logger.FromCtx(c).Error("sign-in failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "sign-in failed"})
	}
	metrics.AuthAttempts.WithLabelValues("sign_in", "success").Inc()
	return h.issue(c, fiber.StatusOK, u, events.Event{Type: events.SignedIn}, "")
}

func (h *Handler) signUp(c *fiber.Ctx) error {
	payload := new(signUpRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if errs := validation.Struct(payload); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid input", "errors": errs})
	}

	u, err := h.service.Register(c.UserContext(), payload.Email, payload.Password, payload.FullName)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("sign_up", "failure").Inc()
		if errors.Is(err, ErrEmailExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "User already registered"})
		}
		logger.FromCtx(c).Error("sign-up failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "sign-up failed"})
	}
	metrics.AuthAttempts.WithLabelValues("sign_up", "success").Inc()
	if h.created != nil {
		if err := h.created(c.UserContext(), u); err != nil {
			logger.FromCtx(c).Warn("post sign-up hook", zap.String("user_id", u.ID.String()), zap.Error(err))
		}
	}
	return h.issue(c, fiber.StatusCreated, u, events.Event{Type: events.SignedIn}, payload.RedirectURL)
}

// issue signs a new session for u and announces it as ev.
func (h *Handler) issue(c *fiber.Ctx, status int, u User, ev events.Event, redirect string) error {
	session, err := h.tokens.Issue(u)
	if err != nil {
		logger.FromCtx(c).Error("sign token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}
	ev.UserID, ev.Email, ev.TokenID = u.ID, u.Email, session.TokenID
	h.broker.Publish(ev)

	body := fiber.Map{"session": session}
	if redirect != "" {
		body["redirect_to"] = redirect
	}
	return c.Status(status).JSON(body)
}

func (h *Handler) currentUser(c *fiber.Ctx) error {
	userID, err := GetUserIDFromCtx(c)
	if err != nil {
		return Unauthorized(c)
	}
	u, err := h.service.GetByID(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Unauthorized(c)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(u)
}

func (h *Handler) refresh(c *fiber.Ctx) error {
	tok, _ := c.Locals(localsToken).(*jwt.Token)
	claims, err := claimsFrom(tok)
	if err != nil {
		return Unauthorized(c)
	}
	u, err := h.service.GetByID(c.UserContext(), claims.UserID)
	if err != nil {
		return Unauthorized(c)
	}
	h.deny.Revoke(claims.ID, claims.ExpiresAt)
	return h.issue(c, fiber.StatusOK, u, events.Event{Type: events.TokenRefreshed, ReplacesTokenID: claims.ID}, "")
}

// signOut revokes the presented token and resets the cart badge of the
// streams opened with it. Other devices stay signed in.
func (h *Handler) signOut(c *fiber.Ctx) error {
	tok, _ := c.Locals(localsToken).(*jwt.Token)
	claims, err := claimsFrom(tok)
	if err != nil {
		return c.JSON(fiber.Map{"message": "signed out"})
	}
	h.deny.Revoke(claims.ID, claims.ExpiresAt)
	h.broker.Publish(events.WithCount(events.Event{Type: events.SignedOut, UserID: claims.UserID, Email: claims.Email, TokenID: claims.ID}, 0))
	return c.JSON(fiber.Map{"message": "signed out"})
}
