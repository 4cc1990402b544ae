// Package app is the sample plugin's registration descriptor.
package app

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/internal/handler"
	"github.com/noah-isme/openedx-sample-plugin/internal/middleware"
	"github.com/noah-isme/openedx-sample-plugin/internal/pipeline"
	"github.com/noah-isme/openedx-sample-plugin/internal/pluginsettings"
	"github.com/noah-isme/openedx-sample-plugin/internal/repository"
	"github.com/noah-isme/openedx-sample-plugin/internal/service"
	"github.com/noah-isme/openedx-sample-plugin/internal/signals"
	"github.com/noah-isme/openedx-sample-plugin/pkg/config"
	appErrors "github.com/noah-isme/openedx-sample-plugin/pkg/errors"
	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
	"github.com/noah-isme/openedx-sample-plugin/pkg/filters"
	"github.com/noah-isme/openedx-sample-plugin/pkg/plugin"
	"github.com/noah-isme/openedx-sample-plugin/pkg/response"
)

const (
	Name      = "sample_plugin"
	Namespace = "sample_plugin"
	Prefix    = "sample-plugin/"
)

// ErrNoDatabase is returned when the archive API is enabled on a host
// without a database.
var ErrNoDatabase = errors.New("sample plugin: archive API needs a database")

// New returns the descriptor installed into both the LMS and the CMS.
// overrides carries SAMPLE_PLUGIN_* values from the process environment.
func New(overrides config.PluginConfig) (plugin.AppConfig, error) {
	urls := plugin.URLConfig{Namespace: Namespace, Prefix: Prefix, Routes: Routes}
	layers := map[plugin.SettingsType]plugin.SettingsFunc{
		plugin.SettingsCommon:     pluginsettings.WithOverrides(overrides, pluginsettings.Common),
		plugin.SettingsTest:       pluginsettings.Test,
		plugin.SettingsProduction: pluginsettings.Production,
	}
	receivers := []plugin.SignalReceiver{{
		EventType: events.CourseCatalogInfoChangedType,
		Name:      signals.LogCourseInfoChangedReceiver,
		Connect: func(catalog *events.Catalog, host *plugin.Host) error {
			return signals.Connect(catalog, hostLogger(host).Named("signals"))
		},
	}}

	return plugin.NewAppConfig(plugin.AppConfig{
		Name:    Name,
		Verbose: "Sample Plugin",
		URLs: map[plugin.ProjectType]plugin.URLConfig{
			plugin.LMS: urls,
			plugin.CMS: urls,
		},
		Settings: map[plugin.ProjectType]map[plugin.SettingsType]plugin.SettingsFunc{
			plugin.LMS: layers,
			plugin.CMS: layers,
		},
		Signals: map[plugin.ProjectType][]plugin.SignalReceiver{
			plugin.LMS: receivers,
			plugin.CMS: receivers,
		},
		Steps: map[plugin.ProjectType]plugin.StepsFunc{
			plugin.LMS: RegisterSteps,
		},
	})
}

// RegisterSteps adds the course about step using the configured template.
func RegisterSteps(registry *filters.StepRegistry, host *plugin.Host) error {
	template := pluginsettings.Section(host.Settings).CourseAboutURLTemplate
	return pipeline.Register(registry, template, hostLogger(host).Named("pipeline"))
}

// Routes mounts the course archive status API.
func Routes(rg *gin.RouterGroup, host *plugin.Host) error {
	logger := hostLogger(host)
	cfg := pluginsettings.Section(host.Settings)
	if !cfg.EnableArchiving {
		logger.Info("course archiving disabled; archive status API answers FEATURE_DISABLED")
		rg.Any("/api/v1/course-archive-status/*path", func(c *gin.Context) {
			response.Error(c, appErrors.ErrFeatureDisabled)
		})
		return nil
	}
	if host.DB == nil {
		return ErrNoDatabase
	}

	metrics, err := service.NewArchiveStatusMetrics(host.Registerer)
	if err != nil {
		return err
	}
	statuses := service.NewCourseArchiveStatusService(
		repository.NewCourseArchiveStatusRepository(host.DB),
		validator.New(),
		metrics,
		logger.Named("archive_status"),
		service.CourseArchiveStatusConfig{RetentionDays: cfg.ArchiveRetentionDays},
	)
	exports := service.NewExportService(statuses, logger.Named("export"), nil, nil)
	h := handler.NewCourseArchiveStatusHandler(statuses, exports)

	api := rg.Group("/api/v1/course-archive-status")
	if host.Authenticate != nil {
		api.Use(host.Authenticate)
	}
	api.GET("/", h.List)
	api.POST("/", h.Create)
	api.GET("/export", h.Export)
	api.POST("/purge", middleware.RequireStaff(), h.Purge)
	api.GET("/:id/", h.Retrieve)
	api.PUT("/:id/", h.Update)
	api.PATCH("/:id/", h.PartialUpdate)
	api.DELETE("/:id/", h.Delete)
	return nil
}

func hostLogger(host *plugin.Host) *zap.Logger {
	if host == nil || host.Logger == nil {
		return zap.NewNop()
	}
	return host.Logger
}
