package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/examcore/internal/dto"
	"github.com/lshigami/examcore/internal/repository"
	"github.com/rs/zerolog/log"
)

type UserExamService interface {
	GetAllExams(ctx context.Context) ([]dto.ExamSummaryDTO, error)
	GetExamDetails(ctx context.Context, examID uint, withAnswers bool) (*dto.ExamResponseDTO, error)
}

type userExamService struct {
	examRepo repository.ExamRepository
}

func NewUserExamService(examRepo repository.ExamRepository) UserExamService {
	return &userExamService{examRepo: examRepo}
}

func (s *userExamService) GetAllExams(ctx context.Context) ([]dto.ExamSummaryDTO, error) {
	exams, err := s.examRepo.FindAllWithSectionCount(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get all exams with section count from repository")
		return nil, fmt.Errorf("error fetching exams: %w", err)
	}

	dtos := make([]dto.ExamSummaryDTO, 0, len(exams))
	for _, e := range exams {
		dtos = append(dtos, dto.ExamSummaryDTO{
			ID:              e.Exam.ID,
			Title:           e.Exam.Title,
			Description:     e.Exam.Description,
			ExamType:        string(e.Exam.ExamType),
			Variant:         string(e.Exam.Variant),
			DurationMinutes: e.Exam.DurationMinutes,
			SectionCount:    e.SectionCount,
			CreatedAt:       e.Exam.CreatedAt,
		})
	}
	return dtos, nil
}

func (s *userExamService) GetExamDetails(ctx context.Context, examID uint, withAnswers bool) (*dto.ExamResponseDTO, error) {
	exam, err := s.examRepo.FindByIDWithContent(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, fmt.Errorf("exam %d: %w", examID, ErrNotFound)
		}
		log.Error().Err(err).Uint("examID", examID).Msg("Failed to get exam details from repository")
		return nil, fmt.Errorf("error fetching exam %d: %w", examID, err)
	}
	return toExamResponse(exam, withAnswers)
}
