package events

import (
	"time"

	"github.com/noah-isme/openedx-sample-plugin/pkg/opaquekeys"
)

// CourseCatalogInfoChangedType fires when course catalog metadata is published.
const CourseCatalogInfoChangedType = "org.openedx.content_authoring.course.catalog_info.changed.v1"

// CourseScheduleData is the schedule portion of catalog data.
type CourseScheduleData struct {
	Start           time.Time  `json:"start"`
	Pacing          string     `json:"pacing"`
	End             *time.Time `json:"end,omitempty"`
	EnrollmentStart *time.Time `json:"enrollment_start,omitempty"`
	EnrollmentEnd   *time.Time `json:"enrollment_end,omitempty"`
}

// CourseCatalogData is the payload of CourseCatalogInfoChanged.
type CourseCatalogData struct {
	CourseKey      opaquekeys.CourseKey `json:"course_key"`
	Name           string               `json:"name"`
	ScheduleData   CourseScheduleData   `json:"schedule_data"`
	Hidden         bool                 `json:"hidden"`
	InvitationOnly bool                 `json:"invitation_only"`
}

// Catalog holds the signals a host process exposes. It is built once at
// startup and passed to plugins instead of living in package globals.
type Catalog struct {
	CourseCatalogInfoChanged *Signal[*CourseCatalogData]
}

// CatalogOption customises every signal in a catalog.
type CatalogOption func(*catalogOptions)

type catalogOptions struct {
	source   string
	observer Observer
}

// WithSource sets the emitting service, e.g. "openedx/cms/web".
func WithSource(source string) CatalogOption {
	return func(o *catalogOptions) { o.source = source }
}

// WithObserver registers a hook called after each receiver runs.
func WithObserver(observer Observer) CatalogOption {
	return func(o *catalogOptions) { o.observer = observer }
}

// NewCatalog declares the host signals.
func NewCatalog(opts ...CatalogOption) *Catalog {
	o := catalogOptions{source: "openedx/lms/web"}
	for _, opt := range opts {
		opt(&o)
	}

	changed := NewSignal[*CourseCatalogData](CourseCatalogInfoChangedType, 0)
	changed.source = o.source
	changed.observer = o.observer

	return &Catalog{CourseCatalogInfoChanged: changed}
}

// EventTypes lists the event types the catalog can dispatch.
func (c *Catalog) EventTypes() []string {
	return []string{c.CourseCatalogInfoChanged.EventType()}
}
