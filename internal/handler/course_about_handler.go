package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/openedx-sample-plugin/pkg/errors"
	"github.com/noah-isme/openedx-sample-plugin/pkg/filters"
	"github.com/noah-isme/openedx-sample-plugin/pkg/opaquekeys"
	"github.com/noah-isme/openedx-sample-plugin/pkg/response"
)

type courseAboutFilter interface {
	Run(ctx context.Context, params filters.CourseAboutPageURLParams) (filters.CourseAboutPageURLParams, error)
}

// CourseAboutHandler resolves about page links through the configured filter.
type CourseAboutHandler struct {
	filter courseAboutFilter
}

// NewCourseAboutHandler builds a handler.
func NewCourseAboutHandler(filter courseAboutFilter) *CourseAboutHandler {
	return &CourseAboutHandler{filter: filter}
}

// AboutURL godoc
// @Summary Resolve a course about page URL
// @Tags Courses
// @Produce json
// @Param course_id path string true "Course key"
// @Param org query string false "Organization"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{course_id}/about-url [get]
func (h *CourseAboutHandler) AboutURL(c *gin.Context) {
	key, err := opaquekeys.ParseCourseKey(c.Param("course_id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course key"))
		return
	}
	org := c.DefaultQuery("org", key.Org)

	params := filters.CourseAboutPageURLParams{URL: defaultAboutURL(c, key), Org: org}
	out, err := h.filter.Run(c.Request.Context(), params)
	if err != nil {
		var halt *filters.Halt[filters.CourseAboutPageURLParams]
		if errors.As(err, &halt) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, halt.Reason))
			return
		}
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"course_id": key.String(), "url": out.URL, "org": out.Org})
}

func defaultAboutURL(c *gin.Context, key opaquekeys.CourseKey) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/courses/%s/about", scheme, c.Request.Host, key)
}
