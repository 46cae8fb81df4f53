package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/models"
	"github.com/campushq/staff-attend-api/internal/service"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
	"github.com/campushq/staff-attend-api/pkg/response"
)

// ScheduleHandler exposes schedule management endpoints. Conflict rejections
// carry the colliding slots in the response meta so clients can highlight
// them.
type ScheduleHandler struct {
	service *service.ScheduleService
	logger  *zap.Logger
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(svc *service.ScheduleService, logger *zap.Logger) *ScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleHandler{service: svc, logger: logger}
}

func respondWithConflicts(c *gin.Context, conflicts []models.ScheduleConflict, err error) {
	appErr := appErrors.FromError(err)
	if len(conflicts) == 0 {
		response.Error(c, appErr)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, response.Envelope{
		Error: appErr,
		Meta:  map[string]interface{}{"conflicts": conflicts},
	})
}

// Create stores a single schedule slot.
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req models.ScheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	schedule, conflicts, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		respondWithConflicts(c, conflicts, err)
		return
	}
	response.Created(c, schedule)
}

// BulkCreate stores a batch of slots atomically.
func (h *ScheduleHandler) BulkCreate(c *gin.Context) {
	var req models.BulkScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	schedules, conflicts, err := h.service.BulkCreate(c.Request.Context(), req)
	if err != nil {
		respondWithConflicts(c, conflicts, err)
		return
	}
	response.Created(c, schedules)
}

// Get loads a slot by id.
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	schedule, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Update replaces a slot.
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.ScheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	schedule, conflicts, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		respondWithConflicts(c, conflicts, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete removes a slot.
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List returns slots with filters and pagination.
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := models.ScheduleFilter{
		Room:      c.Query("room"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("class_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.ClassID = &id
		}
	}
	if raw := c.Query("teacher_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.TeacherID = &id
		}
	}
	if raw := c.Query("day_of_week"); raw != "" {
		if day, err := strconv.Atoi(raw); err == nil {
			filter.DayOfWeek = &day
		}
	}

	schedules, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}
