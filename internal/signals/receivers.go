// Package signals holds the plugin's event receivers.
package signals

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
)

// LogCourseInfoChangedReceiver is the connection name of the catalog receiver.
const LogCourseInfoChangedReceiver = "sample_plugin.signals.log_course_info_changed"

// ErrMissingCatalogInfo is returned for a catalog event without a course key.
var ErrMissingCatalogInfo = errors.New("course catalog event carries no course key")

// LogCourseInfoChanged returns the receiver that logs every catalog change.
func LogCourseInfoChanged(logger *zap.Logger) events.Receiver[*events.CourseCatalogData] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(_ context.Context, meta events.Metadata, info *events.CourseCatalogData) error {
		if info == nil || info.CourseKey.IsZero() {
			return ErrMissingCatalogInfo
		}
		key := info.CourseKey.String()
		logger.Info(key+" has been updated!",
			zap.String("course_key", key),
			zap.String("event_id", meta.ID.String()),
		)
		return nil
	}
}

// Connect subscribes the plugin receivers to catalog.
func Connect(catalog *events.Catalog, logger *zap.Logger) error {
	return catalog.CourseCatalogInfoChanged.Connect(LogCourseInfoChangedReceiver, LogCourseInfoChanged(logger))
}
