package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseList(priority int) Item {
	return Item{
		MFE:    "learner-dashboard",
		SlotID: "custom_course_list",
		Op:     OpInsert,
		Widget: Widget{
			ID:        "course-list",
			Type:      DirectPlugin,
			Priority:  priority,
			Component: "CourseList",
			Import:    "@openedx/sample-plugin",
		},
	}
}

func TestAddRejectsInvalidItems(t *testing.T) {
	r := NewRegistry()

	missingComponent := courseList(50)
	missingComponent.Widget.Component = ""
	assert.ErrorIs(t, r.Add(missingComponent), ErrInvalidItem)

	badOp := courseList(50)
	badOp.Op = "Replace"
	assert.ErrorIs(t, r.Add(badOp), ErrInvalidItem)

	iframe := courseList(50)
	iframe.Widget.Type = IframePlugin
	assert.ErrorIs(t, r.Add(iframe), ErrInvalidItem)

	assert.Empty(t, r.Items("learner-dashboard"))
}

func TestAddRejectsDuplicateWidget(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(courseList(50)))
	assert.ErrorIs(t, r.Add(courseList(10)), ErrDuplicateItem)
}

func TestItemsOrderedByPriorityThenInsertion(t *testing.T) {
	r := NewRegistry()
	first := courseList(50)
	second := courseList(50)
	second.Widget.ID = "second"
	early := courseList(10)
	early.Widget.ID = "early"
	other := courseList(1)
	other.MFE = "learning"

	require.NoError(t, r.Add(first, second, early, other))

	items := r.Items("learner-dashboard")
	require.Len(t, items, 3)
	assert.Equal(t, "early", items[0].Widget.ID)
	assert.Equal(t, "course-list", items[1].Widget.ID)
	assert.Equal(t, "second", items[2].Widget.ID)
	assert.Equal(t, []string{"learner-dashboard", "learning"}, r.MFEs())
}

func TestConfigGroupsBySlot(t *testing.T) {
	r := NewRegistry()
	hide := Item{MFE: "learner-dashboard", SlotID: "widget_sidebar", Op: OpHide, Widget: Widget{ID: "default_contents"}}
	require.NoError(t, r.Add(courseList(50), hide))

	cfg := r.Config("learner-dashboard")
	require.Len(t, cfg, 2)
	require.Len(t, cfg["custom_course_list"].Plugins, 1)
	assert.Equal(t, OpInsert, cfg["custom_course_list"].Plugins[0].Op)
	assert.Equal(t, "CourseList", cfg["custom_course_list"].Plugins[0].Widget.Component)
	assert.Equal(t, OpHide, cfg["widget_sidebar"].Plugins[0].Op)
	assert.Empty(t, r.Config("authn"))
}

func TestRenderEnvConfig(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(courseList(50)))

	out, err := r.Render("learner-dashboard")
	require.NoError(t, err)

	assert.Contains(t, out, `import CourseList from "@openedx/sample-plugin";`)
	assert.Contains(t, out, `"custom_course_list": {`)
	assert.Contains(t, out, "op: PLUGIN_OPERATIONS.Insert,")
	assert.Contains(t, out, "type: DIRECT_PLUGIN,")
	assert.Contains(t, out, "priority: 50,")
	assert.Contains(t, out, "RenderWidget: CourseList,")
	assert.Contains(t, out, "export default config;")
}

func TestRenderQuotesDottedSlotIDs(t *testing.T) {
	r := NewRegistry()
	item := courseList(50)
	item.SlotID = "org.openedx.frontend.learner_dashboard.course_list.v1"
	require.NoError(t, r.Add(item))

	out, err := r.Render("learner-dashboard")
	require.NoError(t, err)

	assert.Contains(t, out, `    "org.openedx.frontend.learner_dashboard.course_list.v1": {`)
	assert.NotContains(t, out, "    org.openedx.frontend.learner_dashboard.course_list.v1: {")
}
