package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"taskflow/internal/caching"

	"github.com/labstack/echo/v4"
)

// RateLimit caps requests per client IP within a fixed window, counted in Redis under the
// given scope. When the cache is unreachable requests are let through.
func RateLimit(cache caching.CacheService, scope string, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cache == nil {
				return next(c)
			}

			ctx := c.Request().Context()
			key := caching.RateLimitKey(scope, c.RealIP())

			limited, remaining, err := cache.IsRateLimited(ctx, key, limit, window)
			if err != nil {
				slog.WarnContext(ctx, "rate limiter unavailable", "scope", scope, "error", err)
				return next(c)
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if limited {
				header.Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
			}
			return next(c)
		}
	}
}
