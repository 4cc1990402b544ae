// Package plugin defines the descriptor an installable app hands to the
// host, and the registry the host uses to wire installed apps at startup.
package plugin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
	"github.com/noah-isme/openedx-sample-plugin/pkg/filters"
	"github.com/noah-isme/openedx-sample-plugin/pkg/settings"
)

// ProjectType names a host process an app can be installed into.
type ProjectType string

const (
	LMS ProjectType = "lms.djangoapp"
	CMS ProjectType = "cms.djangoapp"
)

// SettingsType names a settings layer.
type SettingsType string

const (
	SettingsCommon     SettingsType = "common"
	SettingsTest       SettingsType = "test"
	SettingsProduction SettingsType = "production"
)

var (
	ErrInvalidApp    = errors.New("plugin: invalid app config")
	ErrDuplicateApp  = errors.New("plugin: app already registered")
	ErrUnknownSignal = errors.New("plugin: unknown signal")
)

// Host is what the host process lends to plugin routes and receivers.
type Host struct {
	Logger   *zap.Logger
	Settings *settings.Settings
	DB       *sqlx.DB
	// Authenticate resolves the requesting user from the request.
	Authenticate gin.HandlerFunc
	Registerer   prometheus.Registerer
	Steps        *filters.StepRegistry
}

// URLConfig mounts an app's routes under Prefix.
type URLConfig struct {
	Namespace string
	Prefix    string
	Routes    func(rg *gin.RouterGroup, host *Host) error
}

// SettingsFunc mutates the host settings for one settings layer.
type SettingsFunc func(s *settings.Settings, logger *zap.Logger) error

// SignalReceiver connects a handler to one host signal.
type SignalReceiver struct {
	EventType string
	Name      string
	Connect   func(catalog *events.Catalog, host *Host) error
}

// StepsFunc registers an app's filter pipeline steps so the host can
// resolve them by name from the filters setting.
type StepsFunc func(registry *filters.StepRegistry, host *Host) error

// AppConfig is an app's registration descriptor.
type AppConfig struct {
	Name    string
	Verbose string

	URLs     map[ProjectType]URLConfig
	Settings map[ProjectType]map[SettingsType]SettingsFunc
	Signals  map[ProjectType][]SignalReceiver
	Steps    map[ProjectType]StepsFunc
}

// NewAppConfig validates cfg and returns it.
func NewAppConfig(cfg AppConfig) (AppConfig, error) {
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate reports the first problem with the descriptor.
func (a AppConfig) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidApp)
	}
	for project, urls := range a.URLs {
		if !knownProject(project) {
			return fmt.Errorf("%w: %s: unknown project type %q", ErrInvalidApp, a.Name, project)
		}
		switch {
		case urls.Namespace == "":
			return fmt.Errorf("%w: %s: url namespace is required", ErrInvalidApp, a.Name)
		case urls.Prefix == "":
			return fmt.Errorf("%w: %s: url prefix is required", ErrInvalidApp, a.Name)
		case strings.HasPrefix(urls.Prefix, "/"):
			return fmt.Errorf("%w: %s: url prefix %q must not start with a slash", ErrInvalidApp, a.Name, urls.Prefix)
		case urls.Routes == nil:
			return fmt.Errorf("%w: %s: routes are required", ErrInvalidApp, a.Name)
		}
	}
	for project, layers := range a.Settings {
		if !knownProject(project) {
			return fmt.Errorf("%w: %s: unknown project type %q", ErrInvalidApp, a.Name, project)
		}
		for layer, fn := range layers {
			if !knownSettings(layer) {
				return fmt.Errorf("%w: %s: unknown settings type %q", ErrInvalidApp, a.Name, layer)
			}
			if fn == nil {
				return fmt.Errorf("%w: %s: nil %s settings func", ErrInvalidApp, a.Name, layer)
			}
		}
	}
	for project, receivers := range a.Signals {
		if !knownProject(project) {
			return fmt.Errorf("%w: %s: unknown project type %q", ErrInvalidApp, a.Name, project)
		}
		for _, r := range receivers {
			if r.EventType == "" || r.Name == "" || r.Connect == nil {
				return fmt.Errorf("%w: %s: receiver needs event type, name and connect func", ErrInvalidApp, a.Name)
			}
		}
	}
	for project, fn := range a.Steps {
		if !knownProject(project) {
			return fmt.Errorf("%w: %s: unknown project type %q", ErrInvalidApp, a.Name, project)
		}
		if fn == nil {
			return fmt.Errorf("%w: %s: nil steps func", ErrInvalidApp, a.Name)
		}
	}
	return nil
}

// Targets reports whether the app declares anything for project.
func (a AppConfig) Targets(project ProjectType) bool {
	_, urls := a.URLs[project]
	_, layers := a.Settings[project]
	_, receivers := a.Signals[project]
	_, steps := a.Steps[project]
	return urls || layers || receivers || steps
}

func knownProject(p ProjectType) bool {
	return p == LMS || p == CMS
}

func knownSettings(t SettingsType) bool {
	return t == SettingsCommon || t == SettingsTest || t == SettingsProduction
}

// SettingsChain returns the settings layers applied for an environment,
// common first.
func SettingsChain(env string) []SettingsType {
	switch env {
	case string(SettingsTest):
		return []SettingsType{SettingsCommon, SettingsTest}
	case string(SettingsProduction):
		return []SettingsType{SettingsCommon, SettingsProduction}
	default:
		return []SettingsType{SettingsCommon}
	}
}
