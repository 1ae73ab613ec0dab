package availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"classbook/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Create availability group
// @Description  Creates a provider availability group seeded with weekday office hours.
// @Tags         availability
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body availability.CreateGroupRequest true "Group payload"
// @Success      201 {object} availability.AvailabilityGroup
// @Failure      400 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/availability-groups [post]
func (h *Handler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	group, err := h.service.CreateGroup(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, group)
}

// @Summary      Get availability group
// @Tags         availability
// @Produce      json
// @Security     BearerAuth
// @Param        groupID path int true "Group ID"
// @Success      200 {object} availability.AvailabilityGroup
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/availability-groups/{groupID} [get]
func (h *Handler) GetGroup(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("groupID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid group ID"})
		return
	}

	group, err := h.service.GetGroupByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Availability group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch availability group"})
		return
	}

	c.JSON(http.StatusOK, group)
}

// @Summary      List availability groups for an owner
// @Tags         availability
// @Produce      json
// @Security     BearerAuth
// @Param        owner_id query int true "Owner ID"
// @Success      200 {array} availability.AvailabilityGroup
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/availability-groups [get]
func (h *Handler) ListGroups(c *gin.Context) {
	ownerID, err := strconv.Atoi(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "owner_id query param required"})
		return
	}

	groups, err := h.service.ListGroupsByOwner(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch availability groups"})
		return
	}

	c.JSON(http.StatusOK, groups)
}

// @Summary      Update availability group
// @Description  Replaces the weekly schedule and/or flips the default flag. Setting is_default clears it on the owner's other groups.
// @Tags         availability
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        groupID path int true "Group ID"
// @Param        request body availability.UpdateGroupRequest true "Update payload"
// @Success      200 {object} availability.AvailabilityGroup
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/availability-groups/{groupID} [put]
func (h *Handler) UpdateGroup(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("groupID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid group ID"})
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	group, err := h.service.UpdateGroup(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Availability group not found"})
		case errors.Is(err, ErrSlotOrder), errors.Is(err, ErrSlotOverlap), errors.Is(err, ErrInvalidClock):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update availability group"})
		}
		return
	}

	c.JSON(http.StatusOK, group)
}

// @Summary      Delete availability group
// @Tags         availability
// @Produce      json
// @Security     BearerAuth
// @Param        groupID path int true "Group ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/availability-groups/{groupID} [delete]
func (h *Handler) DeleteGroup(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("groupID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid group ID"})
		return
	}

	if err := h.service.DeleteGroup(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Availability group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to delete availability group"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Availability group deleted"})
}

// @Summary      Create slot exclusion
// @Description  Stores a date-specific blackout window. No validation against existing availability is performed.
// @Tags         availability
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body availability.CreateExclusionRequest true "Exclusion payload"
// @Success      201 {object} availability.SlotExclusion
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/exclusions [post]
func (h *Handler) CreateExclusion(c *gin.Context) {
	var req CreateExclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	exclusion, err := h.service.CreateExclusion(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, exclusion)
}

// @Summary      List slot exclusions for an owner
// @Tags         availability
// @Produce      json
// @Security     BearerAuth
// @Param        owner_id query int true "Owner ID"
// @Success      200 {array} availability.SlotExclusion
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/exclusions [get]
func (h *Handler) ListExclusions(c *gin.Context) {
	ownerID, err := strconv.Atoi(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "owner_id query param required"})
		return
	}

	exclusions, err := h.service.ListExclusionsByOwner(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch exclusions"})
		return
	}

	c.JSON(http.StatusOK, exclusions)
}

// @Summary      Update slot exclusion
// @Tags         availability
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        exclusionID path int true "Exclusion ID"
// @Param        request body availability.UpdateExclusionRequest true "Update payload"
// @Success      200 {object} availability.SlotExclusion
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/exclusions/{exclusionID} [put]
func (h *Handler) UpdateExclusion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("exclusionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid exclusion ID"})
		return
	}

	var req UpdateExclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	exclusion, err := h.service.UpdateExclusion(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrExclusionNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Exclusion not found"})
		default:
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, exclusion)
}

// @Summary      Delete slot exclusion
// @Tags         availability
// @Produce      json
// @Security     BearerAuth
// @Param        exclusionID path int true "Exclusion ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/exclusions/{exclusionID} [delete]
func (h *Handler) DeleteExclusion(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("exclusionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid exclusion ID"})
		return
	}

	if err := h.service.DeleteExclusion(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrExclusionNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Exclusion not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to delete exclusion"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Exclusion deleted"})
}

// @Summary      Effective bookable windows for a date
// @Description  Weekly slots for the date's weekday minus that date's exclusions.
// @Tags         availability
// @Produce      json
// @Security     BearerAuth
// @Param        owner_id query int true "Owner ID"
// @Param        date query string true "Date (YYYY-MM-DD)"
// @Success      200 {object} availability.EffectiveWindowsResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/availability/effective [get]
func (h *Handler) EffectiveWindows(c *gin.Context) {
	ownerID, err := strconv.Atoi(c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "owner_id query param required"})
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}

	windows, err := h.service.EffectiveWindows(c.Request.Context(), ownerID, date)
	if err != nil {
		if errors.Is(err, ErrNoDefaultGroup) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Owner has no default availability group"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to resolve availability"})
		return
	}

	c.JSON(http.StatusOK, EffectiveWindowsResponse{
		OwnerID: ownerID,
		Date:    date.Format("2006-01-02"),
		Windows: windows,
	})
}
