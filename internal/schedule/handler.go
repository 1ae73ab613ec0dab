package schedule

import (
	"errors"
	"io"
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

// @Summary      Create class type
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schedule.CreateClassTypeRequest true "Class type payload"
// @Success      201 {object} schedule.ClassType
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/class-types [post]
func (h *Handler) CreateClassType(c *gin.Context) {
	var req CreateClassTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ct, err := h.service.CreateClassType(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create class type"})
		return
	}

	c.JSON(http.StatusCreated, ct)
}

// @Summary      List class types
// @Tags         schedule
// @Produce      json
// @Success      200 {array} schedule.ClassType
// @Router       /class-types [get]
func (h *Handler) ListClassTypes(c *gin.Context) {
	types, err := h.service.ListClassTypes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to list class types"})
		return
	}

	c.JSON(http.StatusOK, types)
}

// @Summary      List branches
// @Tags         schedule
// @Produce      json
// @Success      200 {array} schedule.Branch
// @Router       /branches [get]
func (h *Handler) ListBranches(c *gin.Context) {
	branches, err := h.service.ListBranches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to list branches"})
		return
	}

	c.JSON(http.StatusOK, branches)
}

// @Summary      Create class template
// @Description  Creates a recurring weekly class. Rejects overlapping templates for the same instructor and weekday.
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schedule.CreateTemplateRequest true "Template payload"
// @Success      201 {object} schedule.ClassTemplate
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/templates [post]
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	t, err := h.service.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTemplateConflict):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrInvalidClock), errors.Is(err, ErrTimeOrder):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrClassTypeNotFound), errors.Is(err, ErrBranchNotFound):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create template"})
		}
		return
	}

	c.JSON(http.StatusCreated, t)
}

// @Summary      Get class template
// @Tags         schedule
// @Produce      json
// @Security     BearerAuth
// @Param        templateID path int true "Template ID"
// @Success      200 {object} schedule.ClassTemplate
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/templates/{templateID} [get]
func (h *Handler) GetTemplate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("templateID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid template ID"})
		return
	}

	t, err := h.service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Template not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch template"})
		return
	}

	c.JSON(http.StatusOK, t)
}

// @Summary      List class templates
// @Tags         schedule
// @Produce      json
// @Security     BearerAuth
// @Param        branch_id query int false "Filter by branch"
// @Success      200 {array} schedule.ClassTemplate
// @Router       /admin/templates [get]
func (h *Handler) ListTemplates(c *gin.Context) {
	branchID, ok := optionalIntQuery(c, "branch_id")
	if !ok {
		return
	}

	templates, err := h.service.ListTemplates(c.Request.Context(), branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to list templates"})
		return
	}

	c.JSON(http.StatusOK, templates)
}

// @Summary      Update class template
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        templateID path int true "Template ID"
// @Param        request body schedule.UpdateTemplateRequest true "Fields to update"
// @Success      200 {object} schedule.ClassTemplate
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/templates/{templateID} [put]
func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("templateID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid template ID"})
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	t, err := h.service.UpdateTemplate(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrTemplateNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Template not found"})
		case errors.Is(err, ErrTemplateConflict):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrInvalidClock), errors.Is(err, ErrTimeOrder):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update template"})
		}
		return
	}

	c.JSON(http.StatusOK, t)
}

// @Summary      Delete class template
// @Description  Removes the template. Sessions already generated from it are untouched.
// @Tags         schedule
// @Produce      json
// @Security     BearerAuth
// @Param        templateID path int true "Template ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/templates/{templateID} [delete]
func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("templateID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid template ID"})
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Template not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to delete template"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Template deleted"})
}

// @Summary      Generate class sessions
// @Description  Materializes sessions from active templates over [start_date, end_date). Safe to re-run: existing sessions are skipped.
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schedule.GenerateRequest true "Generation range"
// @Success      200 {object} api.GenerateResponse
// @Failure      400 {object} api.ErrorResponse
// @Router       /admin/sessions/generate [post]
func (h *Handler) GenerateSessions(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	created, err := h.service.GenerateSessions(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrRangeTooLarge) || errors.Is(err, ErrInvalidClock) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to generate sessions"})
		return
	}

	c.JSON(http.StatusOK, api.GenerateResponse{Created: created, Message: "Sessions generated"})
}

// @Summary      Create ad-hoc class session
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schedule.CreateSessionRequest true "Session payload"
// @Success      201 {object} schedule.ClassSession
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	sess, err := h.service.CreateSession(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionConflict):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrTimeOrder), errors.Is(err, ErrClassTypeNotFound), errors.Is(err, ErrBranchNotFound):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create session"})
		}
		return
	}

	c.JSON(http.StatusCreated, sess)
}

// @Summary      Get class session
// @Tags         schedule
// @Produce      json
// @Param        sessionID path int true "Session ID"
// @Success      200 {object} schedule.SessionWithAvailability
// @Failure      404 {object} api.ErrorResponse
// @Router       /sessions/{sessionID} [get]
func (h *Handler) GetSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid session ID"})
		return
	}

	sess, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch session"})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// @Summary      List class sessions
// @Tags         schedule
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "RFC3339 lower bound"
// @Param        to query string false "RFC3339 upper bound"
// @Param        branch_id query int false "Filter by branch"
// @Param        class_type_id query int false "Filter by class type"
// @Param        instructor_id query int false "Filter by instructor"
// @Param        include_cancelled query bool false "Include cancelled sessions"
// @Success      200 {array} schedule.SessionWithAvailability
// @Router       /admin/sessions [get]
func (h *Handler) ListSessions(c *gin.Context) {
	var f SessionFilter
	var ok bool

	if f.BranchID, ok = optionalIntQuery(c, "branch_id"); !ok {
		return
	}
	if f.ClassTypeID, ok = optionalIntQuery(c, "class_type_id"); !ok {
		return
	}
	if f.InstructorID, ok = optionalIntQuery(c, "instructor_id"); !ok {
		return
	}
	if f.From, ok = optionalTimeQuery(c, "from"); !ok {
		return
	}
	if f.To, ok = optionalTimeQuery(c, "to"); !ok {
		return
	}
	f.IncludeCancelled = c.Query("include_cancelled") == "true"

	sessions, err := h.service.ListSessions(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// @Summary      Update class session
// @Description  Adjusts instructor, times, or capacity. Capacity may not drop below the booked count.
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        sessionID path int true "Session ID"
// @Param        request body schedule.UpdateSessionRequest true "Fields to update"
// @Success      200 {object} schedule.ClassSession
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/sessions/{sessionID} [put]
func (h *Handler) UpdateSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid session ID"})
		return
	}

	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	sess, err := h.service.UpdateSession(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Session not found"})
		case errors.Is(err, ErrCapacityBelowBooked), errors.Is(err, ErrSessionConflict):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrTimeOrder):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update session"})
		}
		return
	}

	c.JSON(http.StatusOK, sess)
}

// @Summary      Cancel class session
// @Description  Flags the session cancelled. Bookings are kept; no new bookings are accepted.
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        sessionID path int true "Session ID"
// @Param        request body schedule.CancelSessionRequest false "Cancellation reason"
// @Success      200 {object} schedule.ClassSession
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/sessions/{sessionID}/cancel [post]
func (h *Handler) CancelSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid session ID"})
		return
	}

	var req CancelSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	sess, err := h.service.CancelSession(c.Request.Context(), id, req.Reason)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to cancel session"})
		return
	}

	c.JSON(http.StatusOK, sess)
}

// @Summary      Weekly public schedule
// @Description  Returns non-cancelled sessions in [week_start, week_start+7d) with remaining spots.
// @Tags         schedule
// @Produce      json
// @Param        week_start query string true "Week start date (YYYY-MM-DD)"
// @Param        branch_id query int false "Filter by branch"
// @Success      200 {object} schedule.WeeklyScheduleResponse
// @Failure      400 {object} api.ErrorResponse
// @Router       /schedule [get]
func (h *Handler) WeeklySchedule(c *gin.Context) {
	weekStart, err := time.Parse("2006-01-02", c.Query("week_start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "week_start must be YYYY-MM-DD"})
		return
	}

	branchID, ok := optionalIntQuery(c, "branch_id")
	if !ok {
		return
	}

	resp, err := h.service.WeeklySchedule(c.Request.Context(), weekStart, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch schedule"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func optionalIntQuery(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid " + name})
		return nil, false
	}
	return &v, true
}

func optionalTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: name + " must be RFC3339"})
		return nil, false
	}
	return &v, true
}
