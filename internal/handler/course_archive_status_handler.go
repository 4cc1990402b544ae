package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/openedx-sample-plugin/internal/dto"
	"github.com/noah-isme/openedx-sample-plugin/internal/models"
	"github.com/noah-isme/openedx-sample-plugin/internal/service"
	appErrors "github.com/noah-isme/openedx-sample-plugin/pkg/errors"
	"github.com/noah-isme/openedx-sample-plugin/pkg/response"
)

type courseArchiveStatusService interface {
	List(ctx context.Context, query dto.CourseArchiveStatusQuery, actor *models.JWTClaims) ([]models.CourseArchiveStatus, models.Pagination, error)
	Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.CourseArchiveStatus, error)
	Create(ctx context.Context, req dto.CourseArchiveStatusRequest, actor *models.JWTClaims) (*models.CourseArchiveStatus, error)
	Update(ctx context.Context, id int64, req dto.CourseArchiveStatusRequest, partial bool, actor *models.JWTClaims) (*models.CourseArchiveStatus, error)
	Delete(ctx context.Context, id int64, actor *models.JWTClaims) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type courseArchiveStatusExporter interface {
	ExportCourseArchiveStatuses(ctx context.Context, format service.ExportFormat, query dto.CourseArchiveStatusQuery, actor *models.JWTClaims) (*service.ExportResult, error)
}

// CourseArchiveStatusHandler exposes the course archive status API.
type CourseArchiveStatusHandler struct {
	service  courseArchiveStatusService
	exporter courseArchiveStatusExporter
}

// NewCourseArchiveStatusHandler builds a handler.
func NewCourseArchiveStatusHandler(service courseArchiveStatusService, exporter courseArchiveStatusExporter) *CourseArchiveStatusHandler {
	return &CourseArchiveStatusHandler{service: service, exporter: exporter}
}

// List godoc
// @Summary List course archive statuses
// @Description Staff see every row, other users only their own.
// @Tags CourseArchiveStatus
// @Produce json
// @Param course_id query string false "Course key"
// @Param is_archived query bool false "Archived flag"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sample-plugin/api/v1/course-archive-status/ [get]
func (h *CourseArchiveStatusHandler) List(c *gin.Context) {
	var query dto.CourseArchiveStatusQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, dto.SerializeCourseArchiveStatuses(items), pagination)
}

// Create godoc
// @Summary Create a course archive status
// @Tags CourseArchiveStatus
// @Accept json
// @Produce json
// @Param payload body dto.CourseArchiveStatusRequest true "Archive status"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sample-plugin/api/v1/course-archive-status/ [post]
func (h *CourseArchiveStatusHandler) Create(c *gin.Context) {
	req, ok := bindArchiveStatus(c)
	if !ok {
		return
	}
	status, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.SerializeCourseArchiveStatus(*status))
}

// Retrieve godoc
// @Summary Get a course archive status
// @Tags CourseArchiveStatus
// @Produce json
// @Param id path int true "Archive status ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sample-plugin/api/v1/course-archive-status/{id}/ [get]
func (h *CourseArchiveStatusHandler) Retrieve(c *gin.Context) {
	id, ok := statusID(c)
	if !ok {
		return
	}
	status, err := h.service.Get(c.Request.Context(), id, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.SerializeCourseArchiveStatus(*status))
}

// Update godoc
// @Summary Replace a course archive status
// @Tags CourseArchiveStatus
// @Accept json
// @Produce json
// @Param id path int true "Archive status ID"
// @Param payload body dto.CourseArchiveStatusRequest true "Archive status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sample-plugin/api/v1/course-archive-status/{id}/ [put]
func (h *CourseArchiveStatusHandler) Update(c *gin.Context) {
	h.update(c, false)
}

// PartialUpdate godoc
// @Summary Update fields of a course archive status
// @Tags CourseArchiveStatus
// @Accept json
// @Produce json
// @Param id path int true "Archive status ID"
// @Param payload body dto.CourseArchiveStatusRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sample-plugin/api/v1/course-archive-status/{id}/ [patch]
func (h *CourseArchiveStatusHandler) PartialUpdate(c *gin.Context) {
	h.update(c, true)
}

func (h *CourseArchiveStatusHandler) update(c *gin.Context, partial bool) {
	id, ok := statusID(c)
	if !ok {
		return
	}
	req, ok := bindArchiveStatus(c)
	if !ok {
		return
	}
	status, err := h.service.Update(c.Request.Context(), id, req, partial, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.SerializeCourseArchiveStatus(*status))
}

// Delete godoc
// @Summary Delete a course archive status
// @Tags CourseArchiveStatus
// @Param id path int true "Archive status ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /sample-plugin/api/v1/course-archive-status/{id}/ [delete]
func (h *CourseArchiveStatusHandler) Delete(c *gin.Context) {
	id, ok := statusID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export course archive statuses
// @Tags CourseArchiveStatus
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param course_id query string false "Course key"
// @Param is_archived query bool false "Archived flag"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /sample-plugin/api/v1/course-archive-status/export [get]
func (h *CourseArchiveStatusHandler) Export(c *gin.Context) {
	var query dto.CourseArchiveStatusQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	result, err := h.exporter.ExportCourseArchiveStatuses(c.Request.Context(), service.ExportFormat(c.Query("format")), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

// Purge godoc
// @Summary Purge archive statuses past the retention window
// @Tags CourseArchiveStatus
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sample-plugin/api/v1/course-archive-status/purge [post]
func (h *CourseArchiveStatusHandler) Purge(c *gin.Context) {
	removed, err := h.service.PurgeExpired(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"removed": removed})
}

func bindArchiveStatus(c *gin.Context) (dto.CourseArchiveStatusRequest, bool) {
	var req dto.CourseArchiveStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid archive status payload"))
		return req, false
	}
	return req, true
}

func statusID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.ErrNotFound)
		return 0, false
	}
	return id, true
}
