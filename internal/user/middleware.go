package user

import (
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	localsToken = "user"
	authPath    = "/auth"
)

// Unauthorized is the single response for a missing or invalid session. The
// redirect tells the client to send the visitor to the sign-in screen.
func Unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized", "redirect": authPath})
}

// Protect verifies the bearer token once per request and rejects revoked ones.
func Protect(secret []byte, deny *Denylist) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: secret,
		ContextKey: localsToken,
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return Unauthorized(c)
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			tok, _ := c.Locals(localsToken).(*jwt.Token)
			claims, err := claimsFrom(tok)
			if err != nil || (deny != nil && deny.Revoked(claims.ID)) {
				return Unauthorized(c)
			}
			return c.Next()
		},
	})
}

// Optional resolves the session when a valid token is present and otherwise
// lets the request through anonymously.
func Optional(secret []byte, deny *Denylist) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: secret,
		ContextKey: localsToken,
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			c.Locals(localsToken, nil)
			return c.Next()
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			tok, _ := c.Locals(localsToken).(*jwt.Token)
			if claims, err := claimsFrom(tok); err != nil || (deny != nil && deny.Revoked(claims.ID)) {
				c.Locals(localsToken, nil)
			}
			return c.Next()
		},
	})
}

// TokenIDFromCtx returns the jti of the presented session token, or "" when
// there is none.
func TokenIDFromCtx(c *fiber.Ctx) string {
	tok, _ := c.Locals(localsToken).(*jwt.Token)
	claims, err := claimsFrom(tok)
	if err != nil {
		return ""
	}
	return claims.ID
}

// GetUserIDFromCtx returns the user id of the resolved session.
func GetUserIDFromCtx(c *fiber.Ctx) (uuid.UUID, error) {
	tok, ok := c.Locals(localsToken).(*jwt.Token)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	claims, err := claimsFrom(tok)
	if err != nil {
		return uuid.Nil, fiber.ErrUnauthorized
	}
	return claims.UserID, nil
}
