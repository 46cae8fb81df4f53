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

// LeaveHandler exposes leave request endpoints.
type LeaveHandler struct {
	service *service.LeaveService
	logger  *zap.Logger
}

// NewLeaveHandler constructs a LeaveHandler.
func NewLeaveHandler(svc *service.LeaveService, logger *zap.Logger) *LeaveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveHandler{service: svc, logger: logger}
}

// Submit files a leave request for the caller.
func (h *LeaveHandler) Submit(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.CreateLeaveRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	leave, err := h.service.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// Get loads a leave request. Non-privileged callers can only read their own.
func (h *LeaveHandler) Get(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	leave, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	if leave.UserID != claims.UserID && claims.Role != models.RoleHead && claims.Role != models.RoleAdmin {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "cannot read another user's leave request"))
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// Decide approves or rejects a pending request.
func (h *LeaveHandler) Decide(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.DecideLeaveRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	leave, err := h.service.Decide(c.Request.Context(), claims.UserID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leave, nil)
}

// List returns leave requests. Non-privileged callers are scoped to their own.
func (h *LeaveHandler) List(c *gin.Context) {
	claims, err := currentClaims(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := models.LeaveFilter{
		DateFrom:  c.Query("date_from"),
		DateTo:    c.Query("date_to"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.LeaveStatus(raw)
		filter.Status = &status
	}

	if claims.Role == models.RoleHead || claims.Role == models.RoleAdmin {
		if raw := c.Query("user_id"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				filter.UserID = &id
			}
		}
	} else {
		filter.UserID = &claims.UserID
	}

	leaves, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, pagination)
}
