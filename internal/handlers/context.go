package handlers

import (
	"taskflow/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// currentUser returns the id the JWT middleware stored on the request context.
func currentUser(c echo.Context) (uuid.UUID, error) {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, common.NewUnauthorizedError("missing or invalid token")
	}
	return userID, nil
}
