package middleware

import (
	"errors"
	"log/slog"

	"taskflow/internal/common"
	"taskflow/internal/models"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	tokenContextKey = "user"

	msgMissingToken = "missing or invalid token"
)

// JWT verifies the bearer token and stores the caller's id on the request context, where
// handlers read it back with common.GetUserIDFromContext.
func JWT(secret string) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		ContextKey:    tokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(models.TokenClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			slog.DebugContext(c.Request().Context(), "token rejected", "path", c.Path(), "error", err)
			return common.NewUnauthorizedError(msgMissingToken)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(attachUser(next))
	}
}

func attachUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := claimsFromContext(c)
		if err != nil {
			return common.NewUnauthorizedError(msgMissingToken)
		}

		userID, err := claims.UserID()
		if err != nil {
			return common.NewUnauthorizedError(msgMissingToken)
		}

		c.Set("user_id", userID)
		ctx := common.WithUserID(c.Request().Context(), userID)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func claimsFromContext(c echo.Context) (*models.TokenClaims, error) {
	token, ok := c.Get(tokenContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("no token in context")
	}
	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}
	return claims, nil
}
