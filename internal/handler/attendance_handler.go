package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/middleware"
	"github.com/campushq/staff-attend-api/internal/models"
	"github.com/campushq/staff-attend-api/internal/policy"
	"github.com/campushq/staff-attend-api/internal/service"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
	"github.com/campushq/staff-attend-api/pkg/response"
)

// AttendanceHandler exposes attendance marking and reporting endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
	logger  *zap.Logger
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(svc *service.AttendanceService, logger *zap.Logger) *AttendanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceHandler{service: svc, logger: logger}
}

func denyStatus(kind policy.DenyKind) int {
	switch kind {
	case policy.DenyMissingFields:
		return http.StatusBadRequest
	case policy.DenyUnauthenticated:
		return http.StatusUnauthorized
	case policy.DenyRoleNotPermitted:
		return http.StatusForbidden
	case policy.DenyTargetNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// Mark creates an attendance record for a target user.
//
// The responses here are plain {"message": ...} bodies rather than the usual
// envelope; existing clients match on these exact strings and statuses.
//
// @Summary      Mark attendance
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        request body models.MarkAttendanceRequest true "Mark payload"
// @Success      200 {object} models.AttendanceRecord
// @Failure      400 {object} map[string]string
// @Failure      401 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Security     BearerAuth
// @Router       /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req models.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// A malformed body has the same effect as absent fields.
		c.JSON(http.StatusBadRequest, gin.H{"message": policy.MsgMissingFields})
		return
	}

	var callerID int64
	var callerRole models.UserRole
	if claims, ok := middleware.ClaimsFromContext(c); ok {
		callerID = claims.UserID
		callerRole = claims.Role
	}

	record, decision, err := h.service.Mark(c.Request.Context(), callerID, callerRole, req)
	if err != nil {
		h.logger.Error("attendance mark failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Failed to mark attendance: %v", appErrors.FromError(err).Message)})
		return
	}
	if !decision.Allowed {
		c.JSON(denyStatus(decision.Kind), gin.H{"message": decision.Message})
		return
	}

	c.JSON(http.StatusOK, record)
}

// List returns attendance rows with filters and pagination.
//
// @Summary      List attendance records
// @Tags         attendance
// @Produce      json
// @Param        user_id   query int    false "Filter by user"
// @Param        role      query string false "Filter by role"
// @Param        status    query string false "Filter by status"
// @Param        date_from query string false "Range start (YYYY-MM-DD)"
// @Param        date_to   query string false "Range end (YYYY-MM-DD)"
// @Success      200 {object} response.Envelope
// @Security     BearerAuth
// @Router       /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	filter := models.AttendanceFilter{
		DateFrom:  c.Query("date_from"),
		DateTo:    c.Query("date_to"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("user_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.UserID = &id
		}
	}
	if raw := c.Query("role"); raw != "" {
		role := models.UserRole(raw)
		filter.Role = &role
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AttendanceStatus(raw)
		filter.Status = &status
	}

	rows, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Summary aggregates a user's attendance over a date range.
//
// @Summary      Attendance summary for a user
// @Tags         attendance
// @Produce      json
// @Param        id        path  int    true  "User id"
// @Param        date_from query string false "Range start"
// @Param        date_to   query string false "Range end"
// @Success      200 {object} response.Envelope
// @Security     BearerAuth
// @Router       /attendance/summary/{id} [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	userID, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), userID, c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Report returns flat report rows for a date range.
//
// @Summary      Attendance report
// @Tags         attendance
// @Produce      json
// @Param        date_from query string true  "Range start"
// @Param        date_to   query string true  "Range end"
// @Param        role      query string false "Filter by role"
// @Success      200 {object} response.Envelope
// @Security     BearerAuth
// @Router       /attendance/report [get]
func (h *AttendanceHandler) Report(c *gin.Context) {
	dateFrom, dateTo := c.Query("date_from"), c.Query("date_to")
	if dateFrom == "" || dateTo == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date_from and date_to are required"))
		return
	}

	rows, err := h.service.Report(c.Request.Context(), dateFrom, dateTo, roleQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Export streams the report as a CSV or PDF attachment.
//
// @Summary      Export attendance report
// @Tags         attendance
// @Produce      application/octet-stream
// @Param        format    query string true  "csv or pdf"
// @Param        date_from query string true  "Range start"
// @Param        date_to   query string true  "Range end"
// @Param        role      query string false "Filter by role"
// @Success      200 {file} binary
// @Security     BearerAuth
// @Router       /attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	dateFrom, dateTo := c.Query("date_from"), c.Query("date_to")
	if dateFrom == "" || dateTo == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date_from and date_to are required"))
		return
	}

	var (
		data        []byte
		filename    string
		contentType string
		err         error
	)
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, filename, err = h.service.ExportCSV(c.Request.Context(), dateFrom, dateTo, roleQuery(c))
		contentType = "text/csv"
	case "pdf":
		data, filename, err = h.service.ExportPDF(c.Request.Context(), dateFrom, dateTo, roleQuery(c))
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	// archive=true stores the file and answers with a shareable signed link
	// instead of streaming the bytes.
	if c.Query("archive") == "true" && h.service.ArchiveEnabled() {
		token, expiresAt, err := h.service.ArchiveExport(filename, data)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, gin.H{
			"filename":   filename,
			"token":      token,
			"expires_at": expiresAt,
		}, nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// Download streams an archived export addressed by a signed token. The token
// is the credential; no session is required.
func (h *AttendanceHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	file, filename, err := h.service.OpenArchivedExport(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := "text/csv"
	if strings.HasSuffix(filename, ".pdf") {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		h.logger.Warn("failed to stream archived export", zap.Error(err))
	}
}

func roleQuery(c *gin.Context) *models.UserRole {
	raw := c.Query("role")
	if raw == "" {
		return nil
	}
	role := models.UserRole(raw)
	return &role
}
