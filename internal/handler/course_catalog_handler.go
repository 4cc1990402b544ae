package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/openedx-sample-plugin/pkg/errors"
	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
	"github.com/noah-isme/openedx-sample-plugin/pkg/opaquekeys"
	"github.com/noah-isme/openedx-sample-plugin/pkg/response"
)

type catalogEmitter interface {
	Emit(ctx context.Context, data *events.CourseCatalogData) (events.Metadata, error)
}

// CourseCatalogRequest is the catalog information published for a course.
type CourseCatalogRequest struct {
	Name            string     `json:"name" binding:"required"`
	Start           time.Time  `json:"start" binding:"required"`
	End             *time.Time `json:"end"`
	EnrollmentStart *time.Time `json:"enrollment_start"`
	EnrollmentEnd   *time.Time `json:"enrollment_end"`
	Pacing          string     `json:"pacing" binding:"omitempty,oneof=instructor self"`
	Hidden          bool       `json:"hidden"`
	InvitationOnly  bool       `json:"invitation_only"`
}

// CourseCatalogHandler publishes catalog changes from the authoring host.
type CourseCatalogHandler struct {
	emitter catalogEmitter
}

// NewCourseCatalogHandler builds a handler.
func NewCourseCatalogHandler(emitter catalogEmitter) *CourseCatalogHandler {
	return &CourseCatalogHandler{emitter: emitter}
}

// Publish godoc
// @Summary Publish course catalog information
// @Tags Courses
// @Accept json
// @Produce json
// @Param course_id path string true "Course key"
// @Param payload body CourseCatalogRequest true "Catalog information"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{course_id}/catalog-info [post]
func (h *CourseCatalogHandler) Publish(c *gin.Context) {
	key, err := opaquekeys.ParseCourseKey(c.Param("course_id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course key"))
		return
	}
	var req CourseCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid catalog payload"))
		return
	}
	if req.Pacing == "" {
		req.Pacing = "instructor"
	}

	meta, err := h.emitter.Emit(c.Request.Context(), &events.CourseCatalogData{
		CourseKey: key,
		Name:      req.Name,
		ScheduleData: events.CourseScheduleData{
			Start:           req.Start,
			Pacing:          req.Pacing,
			End:             req.End,
			EnrollmentStart: req.EnrollmentStart,
			EnrollmentEnd:   req.EnrollmentEnd,
		},
		Hidden:         req.Hidden,
		InvitationOnly: req.InvitationOnly,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"event_id": meta.ID.String(), "event_type": meta.EventType}, nil)
}
