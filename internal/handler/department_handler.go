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

// DepartmentHandler exposes department and major endpoints.
type DepartmentHandler struct {
	service *service.DepartmentService
	logger  *zap.Logger
}

// NewDepartmentHandler constructs a DepartmentHandler.
func NewDepartmentHandler(svc *service.DepartmentService, logger *zap.Logger) *DepartmentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentHandler{service: svc, logger: logger}
}

// CreateDepartment stores a new department.
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	var req models.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	dept, err := h.service.CreateDepartment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dept)
}

// GetDepartment loads a department by id.
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	dept, err := h.service.GetDepartment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dept, nil)
}

// UpdateDepartment applies partial changes.
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	dept, err := h.service.UpdateDepartment(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dept, nil)
}

// DeleteDepartment removes a department.
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.DeleteDepartment(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListDepartments returns departments with pagination.
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	filter := models.DepartmentFilter{
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	depts, pagination, err := h.service.ListDepartments(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, depts, pagination)
}

// CreateMajor stores a new major.
func (h *DepartmentHandler) CreateMajor(c *gin.Context) {
	var req models.CreateMajorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	major, err := h.service.CreateMajor(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, major)
}

// GetMajor loads a major by id.
func (h *DepartmentHandler) GetMajor(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	major, err := h.service.GetMajor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, major, nil)
}

// UpdateMajor applies partial changes.
func (h *DepartmentHandler) UpdateMajor(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateMajorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	major, err := h.service.UpdateMajor(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, major, nil)
}

// DeleteMajor removes a major.
func (h *DepartmentHandler) DeleteMajor(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.DeleteMajor(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMajors returns majors with pagination.
func (h *DepartmentHandler) ListMajors(c *gin.Context) {
	filter := models.MajorFilter{
		Search:    c.Query("search"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("department_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.DepartmentID = &id
		}
	}

	majors, pagination, err := h.service.ListMajors(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, majors, pagination)
}
