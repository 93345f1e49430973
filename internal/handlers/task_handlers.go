package handlers

import (
	"net/http"

	"taskflow/internal/common"
	"taskflow/internal/models"
	"taskflow/internal/services"

	"github.com/labstack/echo/v4"
)

type TaskHandlers struct {
	taskService services.TaskService
}

func NewTaskHandlers(taskService services.TaskService) *TaskHandlers {
	return &TaskHandlers{taskService: taskService}
}

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    *int    `json:"priority"`
	Status      *string `json:"status"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *int    `json:"priority"`
	Status      *string `json:"status"`
}

type archiveResponse struct {
	ArchivedCount int `json:"archived_count"`
}

func (h *TaskHandlers) ListTasks(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	tasks, err := h.taskService.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandlers) CreateTask(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.Create(c.Request().Context(), userID, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *TaskHandlers) UpdateTask(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return err
	}

	var req UpdateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	task, err := h.taskService.Update(c.Request().Context(), userID, id, models.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *TaskHandlers) DeleteTask(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "task deleted"})
}

// ArchiveTasks moves the caller's tasks from before last week out of the active list.
func (h *TaskHandlers) ArchiveTasks(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	count, err := h.taskService.Archive(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, archiveResponse{ArchivedCount: count})
}
