// Package settings holds the host settings object that plugin settings
// functions receive and mutate during startup.
package settings

import (
	"fmt"
	"sync"

	"github.com/noah-isme/openedx-sample-plugin/pkg/config"
	"github.com/noah-isme/openedx-sample-plugin/pkg/filters"
)

// Settings is built by the host from its config and then handed to every
// installed plugin in turn. Plugins keep their own typed values in sections.
type Settings struct {
	Env     string
	Debug   bool
	GinMode string

	Database config.DatabaseConfig
	Redis    config.RedisConfig

	// OpenEdxFiltersConfig maps a filter type to its pipeline.
	OpenEdxFiltersConfig map[string]filters.Config

	mu       sync.Mutex
	sections map[string]any
}

// FromConfig seeds settings from the loaded process configuration.
func FromConfig(cfg *config.Config) *Settings {
	s := &Settings{OpenEdxFiltersConfig: map[string]filters.Config{}}
	if cfg == nil {
		return s
	}
	s.Env = cfg.Env
	s.Debug = cfg.Env == config.EnvDevelopment
	s.Database = cfg.Database
	s.Redis = cfg.Redis
	return s
}

// Section returns the plugin section stored under name, creating a zero
// value on first use. It panics if the section was stored with another type.
func Section[T any](s *Settings, name string) *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sections == nil {
		s.sections = map[string]any{}
	}
	if existing, ok := s.sections[name]; ok {
		typed, ok := existing.(*T)
		if !ok {
			panic(fmt.Sprintf("settings: section %q holds %T", name, existing))
		}
		return typed
	}
	section := new(T)
	s.sections[name] = section
	return section
}

// Sections lists the names of every plugin section.
func (s *Settings) Sections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sections))
	for name := range s.sections {
		out = append(out, name)
	}
	return out
}
