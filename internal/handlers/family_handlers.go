package handlers

import (
	"net/http"

	"taskflow/internal/common"
	"taskflow/internal/models"
	"taskflow/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// FamilyHandlers serves the family registry and the shared family task list.
type FamilyHandlers struct {
	familyService     services.FamilyService
	familyTaskService services.FamilyTaskService
}

func NewFamilyHandlers(familyService services.FamilyService, familyTaskService services.FamilyTaskService) *FamilyHandlers {
	return &FamilyHandlers{
		familyService:     familyService,
		familyTaskService: familyTaskService,
	}
}

type CreateFamilyRequest struct {
	Name string `json:"name" validate:"max=100"`
}

type JoinFamilyRequest struct {
	InvitationCode string `json:"invitation_code"`
}

type createFamilyResponse struct {
	FamilyID       uuid.UUID `json:"family_id"`
	Name           string    `json:"name"`
	InvitationCode string    `json:"invitation_code"`
}

type joinFamilyResponse struct {
	FamilyID uuid.UUID `json:"family_id"`
	Name     string    `json:"name"`
}

type CreateFamilyTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    *int    `json:"priority"`
	AssignedTo  string  `json:"assigned_to"`
}

type UpdateFamilyTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *int    `json:"priority"`
	Status      *string `json:"status"`
	AssignedTo  *string `json:"assigned_to"`
}

func (h *FamilyHandlers) GetInfo(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	info, err := h.familyService.GetInfo(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

func (h *FamilyHandlers) CreateFamily(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CreateFamilyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	family, err := h.familyService.Create(c.Request().Context(), userID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, createFamilyResponse{
		FamilyID:       family.ID,
		Name:           family.Name,
		InvitationCode: family.InvitationCode,
	})
}

func (h *FamilyHandlers) JoinFamily(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req JoinFamilyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	family, err := h.familyService.Join(c.Request().Context(), userID, req.InvitationCode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, joinFamilyResponse{FamilyID: family.ID, Name: family.Name})
}

func (h *FamilyHandlers) ListMembers(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	members, err := h.familyService.ListMembers(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if members == nil {
		members = []*models.FamilyMember{}
	}
	return c.JSON(http.StatusOK, members)
}

func (h *FamilyHandlers) LeaveFamily(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.familyService.Leave(c.Request().Context(), userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "left family"})
}

func (h *FamilyHandlers) ListTasks(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	tasks, err := h.familyTaskService.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if tasks == nil {
		tasks = []*models.FamilyTask{}
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *FamilyHandlers) CreateTask(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CreateFamilyTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := common.ValidateRequiredString(req.Title, "title"); err != nil {
		return err
	}
	assignee, err := common.ValidateUUID(req.AssignedTo, "assigned_to")
	if err != nil {
		return err
	}

	task, err := h.familyTaskService.Create(c.Request().Context(), userID, services.CreateFamilyTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssignedTo:  assignee,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

func (h *FamilyHandlers) UpdateTask(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return err
	}

	var req UpdateFamilyTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	update := models.FamilyTaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	}
	if req.AssignedTo != nil {
		assignee, err := common.ValidateUUID(*req.AssignedTo, "assigned_to")
		if err != nil {
			return err
		}
		update.AssignedTo = &assignee
	}

	task, err := h.familyTaskService.Update(c.Request().Context(), userID, id, update)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

func (h *FamilyHandlers) DeleteTask(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return err
	}

	if err := h.familyTaskService.Delete(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "task deleted"})
}
