package handlers

import (
	"context"
	"net/http"

	"taskflow/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// DashboardService is the read side consumed by the dashboard routes.
type DashboardService interface {
	Stats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error)
	Analytics(ctx context.Context, userID uuid.UUID, timeframe string) (*models.Analytics, error)
}

type DashboardHandlers struct {
	dashboard DashboardService
}

func NewDashboardHandlers(dashboard DashboardService) *DashboardHandlers {
	return &DashboardHandlers{dashboard: dashboard}
}

func (h *DashboardHandlers) Stats(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	stats, err := h.dashboard.Stats(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Analytics accepts ?timeframe=week|month|year; unknown values fall back to month.
func (h *DashboardHandlers) Analytics(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	result, err := h.dashboard.Analytics(c.Request().Context(), userID, c.QueryParam("timeframe"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
