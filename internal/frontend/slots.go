// Package frontend declares the widgets this plugin injects into MFEs.
package frontend

import "github.com/noah-isme/openedx-sample-plugin/pkg/slots"

const (
	LearnerDashboardMFE = "learner-dashboard"
	CourseListSlot      = "custom_course_list"

	// PackageName is the npm package shipping the plugin components.
	PackageName = "@openedx/sample-plugin"
)

// Items returns the slot injections in registration order.
func Items() []slots.Item {
	return []slots.Item{
		{
			MFE:    LearnerDashboardMFE,
			SlotID: CourseListSlot,
			Op:     slots.OpInsert,
			Widget: slots.Widget{
				ID:        CourseListSlot,
				Type:      slots.DirectPlugin,
				Priority:  50,
				Component: "CourseList",
				Import:    PackageName,
			},
		},
	}
}

// Register adds every injection to registry.
func Register(registry *slots.Registry) error {
	return registry.Add(Items()...)
}
