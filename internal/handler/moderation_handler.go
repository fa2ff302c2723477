package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studystack/studystack-api/internal/models"
	"github.com/studystack/studystack-api/internal/service"
	"github.com/studystack/studystack-api/pkg/response"
)

type moderationAPI interface {
	Approve(ctx context.Context, id string, actor *models.JWTClaims) (*models.Resource, error)
	Reject(ctx context.Context, id string, actor *models.JWTClaims) (*models.Resource, error)
}

type exportAPI interface {
	ExportApproved(ctx context.Context, resourceType models.ResourceType, format service.ExportFormat, actor *models.JWTClaims) (*service.ExportResult, error)
}

// ModerationHandler exposes the authenticated moderation endpoints.
type ModerationHandler struct {
	catalog    catalogAPI
	moderation moderationAPI
	export     exportAPI
}

// NewModerationHandler creates a new handler.
func NewModerationHandler(catalog catalogAPI, moderation moderationAPI, export exportAPI) *ModerationHandler {
	return &ModerationHandler{catalog: catalog, moderation: moderation, export: export}
}

// Pending godoc
// @Summary List pending resources
// @Description Returns every resource awaiting a moderation decision; an unreachable store yields an empty list
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /moderation/resources [get]
func (h *ModerationHandler) Pending(c *gin.Context) {
	pending := h.catalog.ListPending(c.Request.Context())
	response.JSON(c, http.StatusOK, pending, map[string]interface{}{"total": len(pending)})
}

// Approve godoc
// @Summary Approve a resource
// @Description Publishes the resource and stamps the decision time; repeat calls are idempotent
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /moderation/resources/{id}/approve [post]
func (h *ModerationHandler) Approve(c *gin.Context) {
	res, err := h.moderation.Approve(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Reject godoc
// @Summary Reject a resource
// @Description Keeps the resource in the moderation queue by re-asserting the pending state
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /moderation/resources/{id}/reject [post]
func (h *ModerationHandler) Reject(c *gin.Context) {
	res, err := h.moderation.Reject(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// DownloadURL godoc
// @Summary Generate a signed download URL
// @Description Returns the resource together with a time-limited download link for review
// @Tags Moderation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /moderation/resources/{id}/download-url [get]
func (h *ModerationHandler) DownloadURL(c *gin.Context) {
	id := c.Param("id")
	url, err := h.catalog.GetDownloadURL(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": id, "downloadUrl": url})
}

// Export godoc
// @Summary Export the approved catalog
// @Description Renders the approved resources of one category as CSV or PDF
// @Tags Moderation
// @Produce application/octet-stream
// @Security BearerAuth
// @Param type path string true "Resource type" Enums(pyqs, notes, assignments, solutions)
// @Param format query string false "Output format" Enums(csv, pdf) default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /moderation/export/{type} [get]
func (h *ModerationHandler) Export(c *gin.Context) {
	resourceType := models.ResourceType(c.Param("type"))
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	res, err := h.export.ExportApproved(c.Request.Context(), resourceType, format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+res.FileName+`"`)
	c.Data(http.StatusOK, res.ContentType, res.Data)
}
