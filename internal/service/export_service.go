package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studystack/studystack-api/internal/models"
	appErrors "github.com/studystack/studystack-api/pkg/errors"
	"github.com/studystack/studystack-api/pkg/export"
)

type catalogLister interface {
	ListApproved(ctx context.Context, resourceType models.ResourceType) []models.Resource
}

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries a rendered catalog document.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders the approved catalog of a category as a downloadable
// document for moderators.
type ExportService struct {
	catalog catalogLister
	audit   auditWriter
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(catalog catalogLister, audit auditWriter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		catalog: catalog,
		audit:   audit,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// ExportApproved renders the current approved snapshot of one category.
func (s *ExportService) ExportApproved(ctx context.Context, resourceType models.ResourceType, format ExportFormat, actor *models.JWTClaims) (*ExportResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !resourceType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown resource type")
	}

	rows := s.catalog.ListApproved(ctx, resourceType)
	table := export.Table{
		Title:   fmt.Sprintf("Approved %s catalog", resourceType),
		Headers: []string{"Title", "Degree", "Branch", "Semester", "Subject", "Submitted By", "Approved At"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		submittedBy := ""
		if r.SubmittedBy != nil {
			submittedBy = *r.SubmittedBy
		}
		approvedAt := ""
		if r.AdminApprovedAt != nil {
			approvedAt = r.AdminApprovedAt.UTC().Format(time.RFC3339)
		}
		table.Rows = append(table.Rows, []string{
			r.DisplayTitle(),
			r.Degree,
			r.Branch,
			strconv.Itoa(r.Semester),
			r.Subject,
			submittedBy,
			approvedAt,
		})
	}

	var (
		data        []byte
		err         error
		contentType string
		ext         string
	)
	switch format {
	case ExportFormatCSV:
		data, err = s.csv.Render(table)
		contentType, ext = "text/csv", "csv"
	case ExportFormatPDF:
		data, err = s.pdf.Render(table)
		contentType, ext = "application/pdf", "pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.writeAudit(ctx, actor, resourceType, format, len(rows))

	return &ExportResult{
		FileName:    fmt.Sprintf("catalog_%s_%s.%s", resourceType, time.Now().UTC().Format("20060102"), ext),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (s *ExportService) writeAudit(ctx context.Context, actor *models.JWTClaims, resourceType models.ResourceType, format ExportFormat, count int) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		ID:        uuid.New().String(),
		UserID:    &actor.UserID,
		Action:    models.AuditActionCatalogExport,
		Resource:  "resources",
		NewValues: []byte(fmt.Sprintf(`{"resource_type":%q,"format":%q,"rows":%d}`, resourceType, format, count)),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write export audit entry", zap.Error(err))
	}
}
