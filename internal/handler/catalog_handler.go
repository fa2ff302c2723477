package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studystack/studystack-api/internal/dto"
	"github.com/studystack/studystack-api/internal/models"
	"github.com/studystack/studystack-api/internal/service"
	appErrors "github.com/studystack/studystack-api/pkg/errors"
	"github.com/studystack/studystack-api/pkg/response"
)

type catalogAPI interface {
	ListApproved(ctx context.Context, resourceType models.ResourceType) []models.Resource
	ListPending(ctx context.Context) []models.Resource
	Submit(ctx context.Context, req dto.SubmitResourceRequest, upload service.ResourceUpload) (*models.Resource, error)
	SubscribeApproved(resourceType models.ResourceType, fn service.SnapshotFunc) func()
	GetDownloadURL(ctx context.Context, id string) (string, error)
	Download(ctx context.Context, id, token string) (*service.ResourceDownload, error)
}

// CatalogHandler exposes the public browsing and contribution endpoints.
type CatalogHandler struct {
	catalog catalogAPI
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(catalog catalogAPI) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func parseResourceType(c *gin.Context) (models.ResourceType, bool) {
	resourceType := models.ResourceType(c.Param("type"))
	if !resourceType.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "resource type must be one of "+models.ResourceTypeNames()))
		return "", false
	}
	return resourceType, true
}

// List godoc
// @Summary List approved resources
// @Description Returns the approved resources of one category, newest first, optionally narrowed by equality filters
// @Tags Catalog
// @Produce json
// @Param type path string true "Resource type" Enums(pyqs, notes, assignments, solutions)
// @Param degree query string false "Degree filter"
// @Param branch query string false "Branch filter"
// @Param semester query string false "Semester filter"
// @Param subject query string false "Subject filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resources/{type} [get]
func (h *CatalogHandler) List(c *gin.Context) {
	resourceType, ok := parseResourceType(c)
	if !ok {
		return
	}
	var query dto.BrowseQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter parameters"))
		return
	}

	rows := h.catalog.ListApproved(c.Request.Context(), resourceType)
	filtered := service.ApplyFilters(rows, query.FilterSet())

	response.JSON(c, http.StatusOK, filtered, map[string]interface{}{"total": len(filtered)})
}

// Subjects godoc
// @Summary List subject filter values
// @Description Returns the distinct subjects present in the approved resources of one category, sorted ascending
// @Tags Catalog
// @Produce json
// @Param type path string true "Resource type" Enums(pyqs, notes, assignments, solutions)
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /resources/{type}/subjects [get]
func (h *CatalogHandler) Subjects(c *gin.Context) {
	resourceType, ok := parseResourceType(c)
	if !ok {
		return
	}
	rows := h.catalog.ListApproved(c.Request.Context(), resourceType)
	response.JSON(c, http.StatusOK, service.DistinctSubjects(rows))
}

// Submit godoc
// @Summary Submit a resource
// @Description Accepts a PDF upload with classification metadata; the resource enters the moderation queue
// @Tags Catalog
// @Accept multipart/form-data
// @Produce json
// @Param degree formData string true "Degree"
// @Param branch formData string true "Branch"
// @Param semester formData int true "Semester"
// @Param subject formData string true "Subject"
// @Param resourceType formData string true "Resource type"
// @Param submittedByName formData string false "Contributor name"
// @Param file formData file true "PDF file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /resources [post]
func (h *CatalogHandler) Submit(c *gin.Context) {
	var req dto.SubmitResourceRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file"))
		return
	}
	defer file.Close() //nolint:errcheck

	res, err := h.catalog.Submit(c.Request.Context(), req, service.ResourceUpload{
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Live godoc
// @Summary Stream approved resources
// @Description Server-sent event stream delivering full replacement snapshots of one category
// @Tags Catalog
// @Produce text/event-stream
// @Param type path string true "Resource type" Enums(pyqs, notes, assignments, solutions)
// @Success 200 {string} string "event stream"
// @Failure 400 {object} response.Envelope
// @Router /resources/{type}/live [get]
func (h *CatalogHandler) Live(c *gin.Context) {
	resourceType, ok := parseResourceType(c)
	if !ok {
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	snapshots := make(chan []models.Resource, 8)
	unsubscribe := h.catalog.SubscribeApproved(resourceType, func(rows []models.Resource) {
		// drop when the client lags; the next snapshot supersedes this one
		select {
		case snapshots <- rows:
		default:
		}
	})
	defer unsubscribe()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-snapshots:
			c.SSEvent("snapshot", snap)
			c.Writer.Flush()
		}
	}
}

// Download godoc
// @Summary Download a stored PDF
// @Description Streams the stored file after validating the signed token
// @Tags Catalog
// @Produce application/pdf
// @Param id path string true "Resource ID"
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /downloads/{id} [get]
func (h *CatalogHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "download token required"))
		return
	}

	dl, err := h.catalog.Download(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer dl.File.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+dl.Filename+`"`)
	c.DataFromReader(http.StatusOK, dl.SizeBytes, "application/pdf", io.Reader(dl.File), nil)
}
