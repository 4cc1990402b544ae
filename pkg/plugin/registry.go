package plugin

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
	"github.com/noah-isme/openedx-sample-plugin/pkg/settings"
)

// Registry holds the apps installed in a host process in registration order.
type Registry struct {
	mu   sync.RWMutex
	apps []AppConfig
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register validates and installs an app.
func (r *Registry) Register(app AppConfig) error {
	if err := app.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.Name == app.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateApp, app.Name)
		}
	}
	r.apps = append(r.apps, app)
	return nil
}

// Apps lists the apps that declare anything for project.
func (r *Registry) Apps(project ProjectType) []AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []AppConfig
	for _, app := range r.apps {
		if app.Targets(project) {
			out = append(out, app)
		}
	}
	return out
}

// MountURLs registers every app's routes for project under its prefix and
// returns the mounted namespaces.
func (r *Registry) MountURLs(router gin.IRouter, project ProjectType, host *Host) ([]string, error) {
	var namespaces []string
	for _, app := range r.Apps(project) {
		urls, ok := app.URLs[project]
		if !ok {
			continue
		}
		group := router.Group("/" + urls.Prefix)
		if err := urls.Routes(group, host); err != nil {
			return namespaces, fmt.Errorf("mount %s urls: %w", app.Name, err)
		}
		namespaces = append(namespaces, urls.Namespace)
		hostLogger(host).Info("mounted plugin urls",
			zap.String("app", app.Name),
			zap.String("namespace", urls.Namespace),
			zap.String("prefix", urls.Prefix),
		)
	}
	return namespaces, nil
}

// ApplySettings runs every app's settings func for one layer.
func (r *Registry) ApplySettings(project ProjectType, layer SettingsType, s *settings.Settings, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, app := range r.Apps(project) {
		fn, ok := app.Settings[project][layer]
		if !ok {
			continue
		}
		if err := fn(s, logger.Named(app.Name)); err != nil {
			return fmt.Errorf("apply %s %s settings: %w", app.Name, layer, err)
		}
	}
	return nil
}

// ConnectSignals connects every app's receivers for project to catalog.
func (r *Registry) ConnectSignals(project ProjectType, catalog *events.Catalog, host *Host) error {
	known := map[string]struct{}{}
	for _, eventType := range catalog.EventTypes() {
		known[eventType] = struct{}{}
	}
	for _, app := range r.Apps(project) {
		for _, receiver := range app.Signals[project] {
			if _, ok := known[receiver.EventType]; !ok {
				return fmt.Errorf("%w: %s wants %s", ErrUnknownSignal, app.Name, receiver.EventType)
			}
			if err := receiver.Connect(catalog, host); err != nil {
				return fmt.Errorf("connect %s receiver %s: %w", app.Name, receiver.Name, err)
			}
			hostLogger(host).Info("connected signal receiver",
				zap.String("app", app.Name),
				zap.String("receiver", receiver.Name),
				zap.String("event_type", receiver.EventType),
			)
		}
	}
	return nil
}

// RegisterSteps lets every app add its pipeline steps to the host's step
// registry. It must run before filters are built.
func (r *Registry) RegisterSteps(project ProjectType, host *Host) error {
	if host == nil || host.Steps == nil {
		return fmt.Errorf("%w: host has no step registry", ErrInvalidApp)
	}
	for _, app := range r.Apps(project) {
		fn, ok := app.Steps[project]
		if !ok {
			continue
		}
		if err := fn(host.Steps, host); err != nil {
			return fmt.Errorf("register %s steps: %w", app.Name, err)
		}
	}
	return nil
}

func hostLogger(host *Host) *zap.Logger {
	if host == nil || host.Logger == nil {
		return zap.NewNop()
	}
	return host.Logger
}
