package filters

// CourseAboutPageURLRequestedType is run when the LMS resolves the link to
// a course's about page.
const CourseAboutPageURLRequestedType = "org.openedx.learning.course_about.page.url.requested.v1"

// CourseAboutPageURLParams are the parameters of CourseAboutPageURLRequested.
type CourseAboutPageURLParams struct {
	URL string `json:"url"`
	Org string `json:"org"`
	// Extra carries caller keyword arguments steps pass through untouched.
	Extra map[string]any `json:"-"`
}
