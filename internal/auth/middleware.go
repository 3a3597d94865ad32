package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const actorContextKey = "auth.actor"

// Middleware authenticates every request with a Bearer token and stores the
// resulting Actor in the echo context.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenStr == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			actor, err := ParseToken(tokenStr, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(actorContextKey, actor)
			return next(c)
		}
	}
}

// ActorFromContext returns the actor stored by Middleware.
func ActorFromContext(c echo.Context) (Actor, bool) {
	actor, ok := c.Get(actorContextKey).(Actor)
	return actor, ok
}

// SetActor is a test helper for handler tests that bypass Middleware.
func SetActor(c echo.Context, actor Actor) {
	c.Set(actorContextKey, actor)
}
