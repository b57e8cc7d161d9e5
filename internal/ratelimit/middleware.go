package ratelimit

import (
	"fmt"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Middleware gates a route group on the limiter, keyed by client IP.
// Rejections answer 429 with a wait hint in both the Retry-After header
// and the body.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, wait := l.Allow(c.RealIP())
			if !ok {
				seconds := int(math.Ceil(wait.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"code":        "RATE_LIMITED",
					"message":     "Too many requests, slow down",
					"retry_after": seconds,
				})
			}
			return next(c)
		}
	}
}
