package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/internal/pipeline"
	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
	"github.com/noah-isme/openedx-sample-plugin/pkg/filters"
	"github.com/noah-isme/openedx-sample-plugin/pkg/slots"
)

func buildAboutFilter(t *testing.T, configs map[string]filters.Config) *filters.Filter[filters.CourseAboutPageURLParams] {
	t.Helper()
	registry := filters.NewStepRegistry()
	require.NoError(t, pipeline.Register(registry, pipeline.DefaultCourseAboutURLTemplate, zap.NewNop()))
	halt := filters.StepFunc[filters.CourseAboutPageURLParams](func(context.Context, filters.CourseAboutPageURLParams) (*filters.CourseAboutPageURLParams, error) {
		return nil, &filters.Halt[filters.CourseAboutPageURLParams]{Reason: "course is private"}
	})
	require.NoError(t, filters.Register[filters.CourseAboutPageURLParams](registry, "test.Halt", halt))
	f, err := filters.Build[filters.CourseAboutPageURLParams](filters.CourseAboutPageURLRequestedType, configs, registry)
	require.NoError(t, err)
	return f
}

func serveAbout(f courseAboutFilter, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/courses/:course_id/about-url", NewCourseAboutHandler(f).AboutURL)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = "lms.example.org"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAboutURLRunsConfiguredStep(t *testing.T) {
	f := buildAboutFilter(t, map[string]filters.Config{
		filters.CourseAboutPageURLRequestedType: {Pipeline: []string{pipeline.ChangeCourseAboutPageURLStep}},
	})

	w := serveAbout(f, "/courses/course-v1:edX+DemoX+Demo_Course/about-url?org=edX")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{
		"course_id":"course-v1:edX+DemoX+Demo_Course",
		"url":"https://example.com/new_about_page/course-v1:edX+DemoX+Demo_Course",
		"org":"edX"}}`, w.Body.String())
}

func TestAboutURLWithoutPipelineKeepsDefault(t *testing.T) {
	f := buildAboutFilter(t, nil)

	w := serveAbout(f, "/courses/course-v1:edX+DemoX+Demo_Course/about-url")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"url":"http://lms.example.org/courses/course-v1:edX+DemoX+Demo_Course/about"`)
	assert.Contains(t, w.Body.String(), `"org":"edX"`)
}

func TestAboutURLHaltIsForbidden(t *testing.T) {
	f := buildAboutFilter(t, map[string]filters.Config{
		filters.CourseAboutPageURLRequestedType: {Pipeline: []string{"test.Halt"}},
	})

	w := serveAbout(f, "/courses/course-v1:edX+DemoX+Demo_Course/about-url")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "course is private")
}

func TestAboutURLRejectsBadKey(t *testing.T) {
	w := serveAbout(buildAboutFilter(t, nil), "/courses/not-a-key/about-url")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type emitterMock struct {
	data *events.CourseCatalogData
	err  error
}

func (m *emitterMock) Emit(ctx context.Context, data *events.CourseCatalogData) (events.Metadata, error) {
	m.data = data
	return events.NewCatalog().CourseCatalogInfoChanged.NewMetadata(), m.err
}

func servePublish(emitter catalogEmitter, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/courses/:course_id/catalog-info", NewCourseCatalogHandler(emitter).Publish)
	req := httptest.NewRequest(http.MethodPost, "/courses/course-v1:edX+DemoX+Demo_Course/catalog-info", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCatalogPublishEmitsEvent(t *testing.T) {
	emitter := &emitterMock{}

	w := servePublish(emitter, `{"name":"Demonstration Course","start":"2025-01-01T00:00:00Z"}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, emitter.data)
	assert.Equal(t, "course-v1:edX+DemoX+Demo_Course", emitter.data.CourseKey.String())
	assert.Equal(t, "instructor", emitter.data.ScheduleData.Pacing)
	assert.Contains(t, w.Body.String(), events.CourseCatalogInfoChangedType)
}

func TestCatalogPublishValidatesAndPropagates(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, servePublish(&emitterMock{}, `{"start":"2025-01-01T00:00:00Z"}`).Code)
	assert.Equal(t, http.StatusInternalServerError, servePublish(&emitterMock{err: errors.New("stream down")}, `{"name":"x","start":"2025-01-01T00:00:00Z"}`).Code)
}

func TestSlotsConfig(t *testing.T) {
	registry := slots.NewRegistry()
	require.NoError(t, registry.Add(slots.Item{
		MFE:    "learner-dashboard",
		SlotID: "custom_course_list",
		Op:     slots.OpInsert,
		Widget: slots.Widget{ID: "custom_course_list", Type: slots.DirectPlugin, Priority: 50, Component: "CourseList", Import: "@openedx/sample-plugin"},
	}))
	h := NewSlotsHandler(registry)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/plugin-slots", h.Config)
	r.GET("/plugin-slots/env.config.jsx", h.EnvConfig)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plugin-slots?mfe=learner-dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"custom_course_list"`)
	assert.Contains(t, w.Body.String(), `"priority":50`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plugin-slots/env.config.jsx?mfe=learner-dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "PLUGIN_OPERATIONS.Insert")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plugin-slots", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
