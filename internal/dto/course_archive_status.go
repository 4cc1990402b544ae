package dto

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/openedx-sample-plugin/internal/models"
	"github.com/noah-isme/openedx-sample-plugin/pkg/opaquekeys"
)

// CourseArchiveStatusFields lists the serialized fields in output order.
var CourseArchiveStatusFields = []string{
	"id",
	"course_id",
	"user",
	"is_archived",
	"archive_date",
	"created_at",
	"updated_at",
}

// CourseArchiveStatusReadOnlyFields are rendered but never written from input.
var CourseArchiveStatusReadOnlyFields = []string{"id", "created_at", "updated_at", "archive_date"}

// CourseArchiveStatusRequest carries the writable fields of a create or
// update. Read-only keys in the payload are dropped by decoding.
type CourseArchiveStatusRequest struct {
	CourseID   *string `json:"course_id" validate:"omitempty,coursekey"`
	User       *int64  `json:"user" validate:"omitempty,gt=0"`
	IsArchived *bool   `json:"is_archived"`
}

// CourseArchiveStatusResponse is the read shape of a status row.
type CourseArchiveStatusResponse struct {
	ID          int64      `json:"id"`
	CourseID    string     `json:"course_id"`
	User        int64      `json:"user"`
	IsArchived  bool       `json:"is_archived"`
	ArchiveDate *time.Time `json:"archive_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CourseArchiveStatusQuery captures list query parameters.
type CourseArchiveStatusQuery struct {
	CourseID   string `form:"course_id" validate:"omitempty,coursekey"`
	IsArchived *bool  `form:"is_archived"`
	Page       int    `form:"page" validate:"omitempty,gte=1"`
	PageSize   int    `form:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// SerializeCourseArchiveStatus renders a model row.
func SerializeCourseArchiveStatus(s models.CourseArchiveStatus) CourseArchiveStatusResponse {
	return CourseArchiveStatusResponse{
		ID:          s.ID,
		CourseID:    s.CourseID.String(),
		User:        s.UserID,
		IsArchived:  s.IsArchived,
		ArchiveDate: s.ArchiveDate,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// SerializeCourseArchiveStatuses renders a list of rows.
func SerializeCourseArchiveStatuses(items []models.CourseArchiveStatus) []CourseArchiveStatusResponse {
	out := make([]CourseArchiveStatusResponse, 0, len(items))
	for _, item := range items {
		out = append(out, SerializeCourseArchiveStatus(item))
	}
	return out
}

// RegisterValidations adds the coursekey tag to v.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("coursekey", func(fl validator.FieldLevel) bool {
		_, err := opaquekeys.ParseCourseKey(fl.Field().String())
		return err == nil
	})
}
