package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/internal/dto"
	"github.com/noah-isme/openedx-sample-plugin/internal/models"
	appErrors "github.com/noah-isme/openedx-sample-plugin/pkg/errors"
	"github.com/noah-isme/openedx-sample-plugin/pkg/opaquekeys"
)

type courseArchiveStatusStore interface {
	Create(ctx context.Context, status *models.CourseArchiveStatus) error
	GetByID(ctx context.Context, id int64) (*models.CourseArchiveStatus, error)
	GetByCourseAndUser(ctx context.Context, courseID opaquekeys.CourseKey, userID int64) (*models.CourseArchiveStatus, error)
	List(ctx context.Context, filter models.CourseArchiveStatusFilter) ([]models.CourseArchiveStatus, int, error)
	Update(ctx context.Context, status *models.CourseArchiveStatus) error
	Delete(ctx context.Context, id int64) error
	DeleteArchivedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type archiveChangeRecorder interface {
	RecordArchiveChange(action string)
}

// CourseArchiveStatusConfig tunes the service.
type CourseArchiveStatusConfig struct {
	// RetentionDays bounds how long archived rows are kept; zero keeps them forever.
	RetentionDays int
}

// CourseArchiveStatusService applies the ownership rules of the archive
// status API: learners reach only their own rows, staff reach every row.
type CourseArchiveStatusService struct {
	repo      courseArchiveStatusStore
	validator *validator.Validate
	metrics   archiveChangeRecorder
	logger    *zap.Logger
	cfg       CourseArchiveStatusConfig
	now       func() time.Time
}

// NewCourseArchiveStatusService constructs the service.
func NewCourseArchiveStatusService(repo courseArchiveStatusStore, validate *validator.Validate, metrics archiveChangeRecorder, logger *zap.Logger, cfg CourseArchiveStatusConfig) *CourseArchiveStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if err := dto.RegisterValidations(validate); err != nil {
		logger.Error("register course key validation", zap.Error(err))
	}
	return &CourseArchiveStatusService{
		repo:      repo,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// List returns the rows visible to actor.
func (s *CourseArchiveStatusService) List(ctx context.Context, query dto.CourseArchiveStatusQuery, actor *models.JWTClaims) ([]models.CourseArchiveStatus, models.Pagination, error) {
	if actor == nil {
		return nil, models.Pagination{}, appErrors.ErrNotAuthenticated
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters")
	}

	filter := models.CourseArchiveStatusFilter{
		IsArchived: query.IsArchived,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if query.CourseID != "" {
		key, err := opaquekeys.ParseCourseKey(query.CourseID)
		if err != nil {
			return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		filter.CourseID = &key
	}
	if !actor.IsStaff {
		userID := actor.UserID
		filter.UserID = &userID
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course archive statuses")
	}
	return items, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one row; rows of other learners read as not found.
func (s *CourseArchiveStatusService) Get(ctx context.Context, id int64, actor *models.JWTClaims) (*models.CourseArchiveStatus, error) {
	if actor == nil {
		return nil, appErrors.ErrNotAuthenticated
	}
	status, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course archive status not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course archive status")
	}
	if !actor.IsStaff && status.UserID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course archive status not found")
	}
	return status, nil
}

// Create stores a new row. The user defaults to the requester; only staff
// may name another user.
func (s *CourseArchiveStatusService) Create(ctx context.Context, req dto.CourseArchiveStatusRequest, actor *models.JWTClaims) (*models.CourseArchiveStatus, error) {
	if actor == nil {
		return nil, appErrors.ErrNotAuthenticated
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course archive status payload")
	}
	if req.CourseID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_id is required")
	}
	userID, err := s.resolveUser(req.User, actor.UserID, actor)
	if err != nil {
		return nil, err
	}
	key, err := opaquekeys.ParseCourseKey(*req.CourseID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := s.ensureUnique(ctx, key, userID, 0); err != nil {
		return nil, err
	}

	status := &models.CourseArchiveStatus{CourseID: key, UserID: userID}
	if req.IsArchived != nil {
		status.SetArchived(*req.IsArchived, s.now())
	}
	if err := s.repo.Create(ctx, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course archive status")
	}

	s.record("create")
	s.logger.Info("course archive status created",
		zap.Int64("id", status.ID),
		zap.String("course_id", key.String()),
		zap.Int64("user_id", userID),
		zap.Int64("actor_id", actor.UserID),
	)
	return status, nil
}

// Update applies a full (PUT) or partial (PATCH) update.
func (s *CourseArchiveStatusService) Update(ctx context.Context, id int64, req dto.CourseArchiveStatusRequest, partial bool, actor *models.JWTClaims) (*models.CourseArchiveStatus, error) {
	if actor == nil {
		return nil, appErrors.ErrNotAuthenticated
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course archive status payload")
	}
	if !partial && req.CourseID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_id is required")
	}
	status, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	userID, err := s.resolveUser(req.User, status.UserID, actor)
	if err != nil {
		return nil, err
	}
	key := status.CourseID
	if req.CourseID != nil {
		if key, err = opaquekeys.ParseCourseKey(*req.CourseID); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
	}
	if key != status.CourseID || userID != status.UserID {
		if err := s.ensureUnique(ctx, key, userID, status.ID); err != nil {
			return nil, err
		}
	}

	status.CourseID = key
	status.UserID = userID
	if req.IsArchived != nil {
		status.SetArchived(*req.IsArchived, s.now())
	}
	if err := s.repo.Update(ctx, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course archive status not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course archive status")
	}

	s.record("update")
	return status, nil
}

// Delete removes a row the actor can reach.
func (s *CourseArchiveStatusService) Delete(ctx context.Context, id int64, actor *models.JWTClaims) error {
	status, err := s.Get(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, status.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course archive status not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course archive status")
	}
	s.record("delete")
	return nil
}

// PurgeExpired deletes archived rows older than the retention window.
func (s *CourseArchiveStatusService) PurgeExpired(ctx context.Context) (int64, error) {
	if s.cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	removed, err := s.repo.DeleteArchivedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.record("purge")
		s.logger.Info("purged archived course statuses", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	}
	return removed, nil
}

func (s *CourseArchiveStatusService) resolveUser(requested *int64, fallback int64, actor *models.JWTClaims) (int64, error) {
	if requested == nil {
		return fallback, nil
	}
	if *requested != actor.UserID && !actor.IsStaff {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "you can only manage your own course archive statuses")
	}
	return *requested, nil
}

func (s *CourseArchiveStatusService) ensureUnique(ctx context.Context, key opaquekeys.CourseKey, userID, selfID int64) error {
	existing, err := s.repo.GetByCourseAndUser(ctx, key, userID)
	switch {
	case err == nil && existing.ID != selfID:
		return appErrors.Clone(appErrors.ErrConflict, "course archive status with this course_id and user already exists")
	case err == nil, errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course archive status")
	}
}

func (s *CourseArchiveStatusService) record(action string) {
	if s.metrics != nil {
		s.metrics.RecordArchiveChange(action)
	}
}
