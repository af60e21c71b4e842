package repository

import (
	"context"
	"time"

	"github.com/lshigami/examcore/internal/model"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	Create(ctx context.Context, attempt *model.Attempt) error
	FindByID(ctx context.Context, id string) (*model.Attempt, error)
	// FindActive returns the newest in-progress attempt for the owner and
	// scope; sectionID is only matched for section-only attempts.
	FindActive(ctx context.Context, candidateID, examID uint, attemptType model.AttemptType, sectionID uint) (*model.Attempt, error)
	ListByCandidateAndExam(ctx context.Context, candidateID, examID uint) ([]model.Attempt, error)
	CountByStatus(ctx context.Context, examID uint) (map[model.AttemptStatus]int64, error)
	Save(ctx context.Context, attempt *model.Attempt) error
	// ExpireOverdue flips every in-progress attempt whose deadline passed
	// before now. Already expired rows are untouched.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(ctx context.Context, attempt *model.Attempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) FindByID(ctx context.Context, id string) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&attempt).Error; err != nil {
		return nil, translate(err)
	}
	return &attempt, nil
}

func (r *attemptRepository) FindActive(ctx context.Context, candidateID, examID uint, attemptType model.AttemptType, sectionID uint) (*model.Attempt, error) {
	q := r.db.WithContext(ctx).
		Where("candidate_id = ? AND exam_id = ? AND attempt_type = ? AND status = ?", candidateID, examID, attemptType, model.StatusInProgress)
	if attemptType == model.AttemptSectionOnly {
		q = q.Where("active_section_id = ?", sectionID)
	}
	var attempt model.Attempt
	if err := q.Order("started_at DESC").First(&attempt).Error; err != nil {
		return nil, translate(err)
	}
	return &attempt, nil
}

func (r *attemptRepository) ListByCandidateAndExam(ctx context.Context, candidateID, examID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.WithContext(ctx).
		Where("candidate_id = ? AND exam_id = ?", candidateID, examID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) CountByStatus(ctx context.Context, examID uint) (map[model.AttemptStatus]int64, error) {
	var rows []struct {
		Status model.AttemptStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Attempt{}).
		Select("status, COUNT(*) as count").
		Where("exam_id = ?", examID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.AttemptStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *attemptRepository) Save(ctx context.Context, attempt *model.Attempt) error {
	return r.db.WithContext(ctx).Save(attempt).Error
}

func (r *attemptRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Attempt{}).
		Where("status = ? AND expires_at < ?", model.StatusInProgress, now).
		Updates(map[string]interface{}{
			"status":        model.StatusExpired,
			"expired_at":    now,
			"expire_reason": model.ExpireReasonTimeLimit,
		})
	return res.RowsAffected, res.Error
}
