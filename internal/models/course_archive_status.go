package models

import (
	"time"

	"github.com/noah-isme/openedx-sample-plugin/pkg/opaquekeys"
)

// CourseArchiveStatus records whether a learner has archived a course run
// on their dashboard. One row per (course, user).
type CourseArchiveStatus struct {
	ID          int64                `db:"id" json:"id"`
	CourseID    opaquekeys.CourseKey `db:"course_id" json:"course_id"`
	UserID      int64                `db:"user_id" json:"user"`
	IsArchived  bool                 `db:"is_archived" json:"is_archived"`
	ArchiveDate *time.Time           `db:"archive_date" json:"archive_date"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`
}

// SetArchived flips the archived flag, stamping or clearing ArchiveDate.
func (s *CourseArchiveStatus) SetArchived(archived bool, now time.Time) {
	if archived && (!s.IsArchived || s.ArchiveDate == nil) {
		stamp := now.UTC()
		s.ArchiveDate = &stamp
	}
	if !archived {
		s.ArchiveDate = nil
	}
	s.IsArchived = archived
}

// CourseArchiveStatusFilter narrows list queries.
type CourseArchiveStatusFilter struct {
	UserID     *int64
	CourseID   *opaquekeys.CourseKey
	IsArchived *bool
	Page       int
	PageSize   int
}
