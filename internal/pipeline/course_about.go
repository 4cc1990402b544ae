// Package pipeline holds the filter steps the plugin contributes.
package pipeline

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/pkg/filters"
)

const (
	// ChangeCourseAboutPageURLStep is the name the step is configured under.
	ChangeCourseAboutPageURLStep = "sample_plugin.pipeline.ChangeCourseAboutPageUrl"

	// DefaultCourseAboutURLTemplate is where about pages are redirected to;
	// {course_id} is replaced by the matched course key.
	DefaultCourseAboutURLTemplate = "https://example.com/new_about_page/{course_id}"
)

var courseIDPattern = regexp.MustCompile(`(?P<course_id>course-v1:[^/]+)`)

// ChangeCourseAboutPageURL points course about links to another site.
type ChangeCourseAboutPageURL struct {
	template string
	logger   *zap.Logger
}

// NewChangeCourseAboutPageURL builds the step. An empty template selects
// DefaultCourseAboutURLTemplate.
func NewChangeCourseAboutPageURL(template string, logger *zap.Logger) *ChangeCourseAboutPageURL {
	if template == "" {
		template = DefaultCourseAboutURLTemplate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeCourseAboutPageURL{template: template, logger: logger}
}

// RunFilter rewrites the URL when it contains a course key and otherwise
// returns the params unchanged. It never fails.
func (s *ChangeCourseAboutPageURL) RunFilter(_ context.Context, params filters.CourseAboutPageURLParams) (*filters.CourseAboutPageURLParams, error) {
	match := courseIDPattern.FindStringSubmatch(params.URL)
	if match == nil {
		return &params, nil
	}
	courseID := match[courseIDPattern.SubexpIndex("course_id")]
	s.logger.Debug("replacing course about url", zap.String("course_id", courseID))

	out := params
	out.URL = strings.ReplaceAll(s.template, "{course_id}", courseID)
	return &out, nil
}

// Register adds the step to registry.
func Register(registry *filters.StepRegistry, template string, logger *zap.Logger) error {
	return filters.Register[filters.CourseAboutPageURLParams](registry, ChangeCourseAboutPageURLStep, NewChangeCourseAboutPageURL(template, logger))
}
