package repository

import (
	"context"

	"github.com/lshigami/examcore/internal/model"
	"gorm.io/gorm"
)

type ExamWithSectionCount struct {
	model.Exam
	SectionCount int
}

type ExamRepository interface {
	Create(ctx context.Context, exam *model.Exam) error
	FindByIDWithContent(ctx context.Context, id uint) (*model.Exam, error)
	FindAllWithSectionCount(ctx context.Context) ([]ExamWithSectionCount, error)
}

type examRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

// Create inserts the exam with its whole section/part/group/question tree.
func (r *examRepository) Create(ctx context.Context, exam *model.Exam) error {
	return translate(r.db.WithContext(ctx).Create(exam).Error)
}

func (r *examRepository) FindByIDWithContent(ctx context.Context, id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.db.WithContext(ctx).
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.order_in_exam ASC, sections.id ASC")
		}).
		Preload("Sections.Parts", func(db *gorm.DB) *gorm.DB {
			return db.Order("parts.order_in_section ASC, parts.id ASC")
		}).
		Preload("Sections.Parts.Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_groups.order_in_part ASC, question_groups.id ASC")
		}).
		Preload("Sections.Parts.Groups.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_in_group ASC, questions.id ASC")
		}).
		First(&exam, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &exam, nil
}

func (r *examRepository) FindAllWithSectionCount(ctx context.Context) ([]ExamWithSectionCount, error) {
	var results []ExamWithSectionCount
	err := r.db.WithContext(ctx).Model(&model.Exam{}).
		Select("exams.*, (SELECT COUNT(*) FROM sections WHERE sections.exam_id = exams.id AND sections.deleted_at IS NULL) as section_count").
		Where("exams.deleted_at IS NULL").
		Order("exams.created_at DESC").
		Scan(&results).Error
	return results, err
}
