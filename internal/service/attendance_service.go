package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushq/staff-attend-api/internal/models"
	"github.com/campushq/staff-attend-api/internal/policy"
	appErrors "github.com/campushq/staff-attend-api/pkg/errors"
	"github.com/campushq/staff-attend-api/pkg/export"
	"github.com/campushq/staff-attend-api/pkg/storage"
)

type attendanceRepository interface {
	Insert(ctx context.Context, record *models.AttendanceRecord) error
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, int, error)
	Summary(ctx context.Context, userID int64, dateFrom, dateTo string) (*models.AttendanceSummary, error)
	Report(ctx context.Context, dateFrom, dateTo string, role *models.UserRole) ([]models.AttendanceReportRow, error)
}

type directoryUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// userDirectory adapts the user repository to the lookup the marking policy
// performs.
type userDirectory struct {
	repo directoryUserRepository
}

func (d userDirectory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return d.repo.FindByID(ctx, id)
}

// NewUserDirectory exposes the adapter for wiring.
func NewUserDirectory(repo directoryUserRepository) policy.UserDirectory {
	return userDirectory{repo: repo}
}

// AttendanceService runs the marking policy and persists the resulting
// records, plus read-side listing, summary and export operations.
type AttendanceService struct {
	repo      attendanceRepository
	policy    *policy.MarkingPolicy
	audit     AuditWriter
	metrics   *MetricsService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	summaries summaryInvalidator
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, markingPolicy *policy.MarkingPolicy, audit AuditWriter, metrics *MetricsService, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:    repo,
		policy:  markingPolicy,
		audit:   audit,
		metrics: metrics,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Mark evaluates the marking rules for the caller and, when allowed, inserts
// the attendance row. The returned decision carries the denial message for
// refused requests; the error is non-nil only for infrastructure failures.
// Repeated marks for the same user and date each produce a new row.
func (s *AttendanceService) Mark(ctx context.Context, callerID int64, callerRole models.UserRole, req models.MarkAttendanceRequest) (*models.AttendanceRecord, policy.Decision, error) {
	decision, err := s.policy.Evaluate(ctx, policy.Request{
		CallerID:     callerID,
		CallerRole:   callerRole,
		TargetUserID: req.TargetUserID,
		Date:         req.Date,
		Status:       req.Status,
	})
	if err != nil {
		return nil, policy.Decision{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve target user")
	}
	if !decision.Allowed {
		if s.metrics != nil {
			s.metrics.RecordPolicyDenial()
		}
		s.logger.Info("attendance mark denied",
			zap.Int64("caller_id", callerID),
			zap.String("caller_role", string(callerRole)),
			zap.Int64("target_user_id", req.TargetUserID),
			zap.String("kind", string(decision.Kind)))
		return nil, decision, nil
	}

	record := &models.AttendanceRecord{
		UserID:   req.TargetUserID,
		Date:     req.Date,
		Status:   models.AttendanceStatus(req.Status),
		MarkedAt: decision.Audit.MarkedAt,
		MarkedBy: decision.Audit.MarkedBy,
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, decision, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance record")
	}

	if s.metrics != nil {
		s.metrics.RecordAttendanceMark()
	}
	if s.summaries != nil {
		s.summaries.Invalidate(ctx)
	}
	if s.audit != nil {
		payload, mErr := json.Marshal(record)
		if mErr != nil {
			s.logger.Warn("failed to marshal attendance audit payload", zap.Error(mErr))
		}
		s.audit.Write(ctx, &models.AuditLog{
			UserID:     &callerID,
			Action:     models.AuditActionAttendanceMark,
			Resource:   "attendance",
			ResourceID: &record.ID,
			NewValues:  payload,
		})
	}

	return record, decision, nil
}

// List returns attendance rows matching the filter.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, *models.Pagination, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return rows, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Summary aggregates a user's attendance over a date range.
func (s *AttendanceService) Summary(ctx context.Context, userID int64, dateFrom, dateTo string) (*models.AttendanceSummary, error) {
	summary, err := s.repo.Summary(ctx, userID, dateFrom, dateTo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build attendance summary")
	}
	return summary, nil
}

// Report fetches the flat report rows for a date range.
func (s *AttendanceService) Report(ctx context.Context, dateFrom, dateTo string, role *models.UserRole) ([]models.AttendanceReportRow, error) {
	rows, err := s.repo.Report(ctx, dateFrom, dateTo, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build attendance report")
	}
	return rows, nil
}

// ExportCSV renders the report as CSV bytes.
func (s *AttendanceService) ExportCSV(ctx context.Context, dateFrom, dateTo string, role *models.UserRole) ([]byte, string, error) {
	rows, err := s.Report(ctx, dateFrom, dateTo, role)
	if err != nil {
		return nil, "", err
	}
	data, err := s.csv.Render(reportDataset(rows))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, exportFilename("csv", dateFrom, dateTo), nil
}

// ExportPDF renders the report as PDF bytes.
func (s *AttendanceService) ExportPDF(ctx context.Context, dateFrom, dateTo string, role *models.UserRole) ([]byte, string, error) {
	rows, err := s.Report(ctx, dateFrom, dateTo, role)
	if err != nil {
		return nil, "", err
	}
	title := fmt.Sprintf("Attendance Report %s to %s", dateFrom, dateTo)
	data, err := s.pdf.Render(reportDataset(rows), title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, exportFilename("pdf", dateFrom, dateTo), nil
}

func reportDataset(rows []models.AttendanceReportRow) export.Dataset {
	ds := export.Dataset{
		Headers: []string{"user_id", "user_name", "role", "date", "status", "marked_by"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		ds.Rows = append(ds.Rows, map[string]string{
			"user_id":   strconv.FormatInt(row.UserID, 10),
			"user_name": row.UserName,
			"role":      string(row.UserRole),
			"date":      row.Date,
			"status":    string(row.Status),
			"marked_by": strconv.FormatInt(row.MarkedBy, 10),
		})
	}
	return ds
}

func exportFilename(ext, dateFrom, dateTo string) string {
	stamp := time.Now().UTC().Format("20060102150405")
	return fmt.Sprintf("attendance_%s_%s_%s.%s", dateFrom, dateTo, stamp, ext)
}

// EnableExportArchive turns on archiving of rendered exports. Archived files
// are addressed by signed tokens so download links can be shared without a
// session.
func (s *AttendanceService) EnableExportArchive(store *storage.LocalStorage, signer *storage.SignedURLSigner) {
	s.store = store
	s.signer = signer
}

// SetSummaryInvalidator registers the dashboard cache hook fired after each
// stored mark.
func (s *AttendanceService) SetSummaryInvalidator(inv summaryInvalidator) {
	s.summaries = inv
}

// ArchiveEnabled reports whether export archiving is configured.
func (s *AttendanceService) ArchiveEnabled() bool {
	return s.store != nil && s.signer != nil
}

// ArchiveExport persists a rendered export and returns a signed download
// token plus its expiry.
func (s *AttendanceService) ArchiveExport(filename string, data []byte) (string, time.Time, error) {
	if !s.ArchiveEnabled() {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrValidation, "export archiving is not enabled")
	}
	if _, err := s.store.Save(filename, data); err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive export")
	}
	token, expiresAt, err := s.signer.Generate(uuid.NewString(), filename)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return token, expiresAt, nil
}

// OpenArchivedExport validates a download token and streams the stored file.
func (s *AttendanceService) OpenArchivedExport(token string) (io.ReadCloser, string, error) {
	if !s.ArchiveEnabled() {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "export archiving is not enabled")
	}
	_, filename, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.store.Open(filename)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "archived export not found")
	}
	return file, filename, nil
}
