// Package pluginsettings merges the plugin's configuration into the host
// settings for each settings layer.
package pluginsettings

import (
	"slices"

	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/internal/pipeline"
	"github.com/noah-isme/openedx-sample-plugin/pkg/config"
	"github.com/noah-isme/openedx-sample-plugin/pkg/database"
	"github.com/noah-isme/openedx-sample-plugin/pkg/filters"
	"github.com/noah-isme/openedx-sample-plugin/pkg/settings"
)

// SectionName keys the plugin's section in the host settings.
const SectionName = "sample_plugin"

// Plugin is the plugin's own settings section.
type Plugin struct {
	CourseAboutURLTemplate string
	ArchiveRetentionDays   int
	EnableArchiving        bool

	EventBusEnabled  bool
	EventBusStream   string
	EventBusGroup    string
	EventBusConsumer string

	defaulted bool
}

// Section returns the plugin section of s.
func Section(s *settings.Settings) *Plugin {
	return settings.Section[Plugin](s, SectionName)
}

// Common applies to every environment. Overrides loaded from the process
// environment are merged in with WithOverrides.
func Common(s *settings.Settings, logger *zap.Logger) error {
	p := Section(s)
	if !p.defaulted {
		p.EnableArchiving = true
		p.defaulted = true
	}
	if p.CourseAboutURLTemplate == "" {
		p.CourseAboutURLTemplate = pipeline.DefaultCourseAboutURLTemplate
	}
	if p.ArchiveRetentionDays == 0 {
		p.ArchiveRetentionDays = 365
	}
	configureFilters(s, logger)
	return nil
}

// Test keeps tests self-contained: in-memory SQLite and no event bus.
func Test(s *settings.Settings, logger *zap.Logger) error {
	s.Database = config.DatabaseConfig{Driver: database.DriverSQLite, AutoMigrate: true}
	s.GinMode = "test"
	Section(s).EventBusEnabled = false
	logger.Debug("test settings applied")
	return nil
}

// Production pins PostgreSQL and release mode.
func Production(s *settings.Settings, logger *zap.Logger) error {
	s.Database.Driver = database.DriverPostgres
	s.Debug = false
	s.GinMode = "release"
	logger.Debug("production settings applied")
	return nil
}

// WithOverrides wraps fn so SAMPLE_PLUGIN_* values from cfg are merged
// into the section after fn applied its defaults.
func WithOverrides(cfg config.PluginConfig, fn func(*settings.Settings, *zap.Logger) error) func(*settings.Settings, *zap.Logger) error {
	return func(s *settings.Settings, logger *zap.Logger) error {
		if err := fn(s, logger); err != nil {
			return err
		}
		p := Section(s)
		if cfg.CourseAboutURLTemplate != "" {
			p.CourseAboutURLTemplate = cfg.CourseAboutURLTemplate
		}
		if cfg.ArchiveRetentionDays != 0 {
			p.ArchiveRetentionDays = cfg.ArchiveRetentionDays
		}
		p.EnableArchiving = cfg.EnableArchiving
		p.EventBusEnabled = cfg.EventBusEnabled
		p.EventBusStream = cfg.EventBusStream
		p.EventBusGroup = cfg.EventBusGroup
		p.EventBusConsumer = cfg.EventBusConsumer
		return nil
	}
}

// configureFilters registers the course about step without disturbing
// pipelines other apps configured for the same filter.
func configureFilters(s *settings.Settings, logger *zap.Logger) {
	if s.OpenEdxFiltersConfig == nil {
		s.OpenEdxFiltersConfig = map[string]filters.Config{}
	}
	filterType := filters.CourseAboutPageURLRequestedType
	step := pipeline.ChangeCourseAboutPageURLStep

	cfg, exists := s.OpenEdxFiltersConfig[filterType]
	switch {
	case !exists:
		logger.Debug("creating filter configuration", zap.String("filter", filterType))
		cfg = filters.Config{Pipeline: []string{step}, FailSilently: false}
	case slices.Contains(cfg.Pipeline, step):
		logger.Info("pipeline step already registered; the plugin may be loaded twice or another app registered the same step",
			zap.String("filter", filterType),
			zap.String("step", step),
		)
	default:
		cfg.Pipeline = append(slices.Clone(cfg.Pipeline), step)
		logger.Debug("added step to existing filter configuration", zap.String("filter", filterType), zap.String("step", step))
	}
	s.OpenEdxFiltersConfig[filterType] = cfg

	logger.Debug("final filter configuration",
		zap.String("filter", filterType),
		zap.Strings("pipeline", cfg.Pipeline),
		zap.Bool("fail_silently", cfg.FailSilently),
	)
}
