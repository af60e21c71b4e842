package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/lshigami/examcore/internal/dto"
	"github.com/lshigami/examcore/internal/model"
	"github.com/lshigami/examcore/internal/repository"
	"github.com/rs/zerolog/log"
)

type AdminExamService interface {
	CreateExam(ctx context.Context, req dto.ExamCreateDTO) (*dto.ExamResponseDTO, error)
}

type adminExamService struct {
	examRepo repository.ExamRepository
}

func NewAdminExamService(examRepo repository.ExamRepository) AdminExamService {
	return &adminExamService{examRepo: examRepo}
}

var knownSectionTypes = map[model.SectionType]bool{
	model.SectionListening:         true,
	model.SectionReading:           true,
	model.SectionWriting:           true,
	model.SectionSpeaking:          true,
	model.SectionAnalyticalWriting: true,
}

func (s *adminExamService) CreateExam(ctx context.Context, req dto.ExamCreateDTO) (*dto.ExamResponseDTO, error) {
	exam, err := buildExam(req)
	if err != nil {
		return nil, err
	}

	if err := s.examRepo.Create(ctx, exam); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: an exam titled %q already exists", ErrInvalidState, req.Title)
		}
		log.Error().Err(err).Str("title", req.Title).Msg("Failed to create exam in database")
		return nil, fmt.Errorf("database error creating exam: %w", err)
	}

	created, err := s.examRepo.FindByIDWithContent(ctx, exam.ID)
	if err != nil {
		log.Error().Err(err).Uint("examID", exam.ID).Msg("Failed to retrieve newly created exam for response")
		created = exam
	}
	return toExamResponse(created, true)
}

func buildExam(req dto.ExamCreateDTO) (*model.Exam, error) {
	exam := &model.Exam{
		Title:           req.Title,
		Description:     req.Description,
		ExamType:        model.ExamType(req.ExamType),
		Variant:         model.ExamVariant(req.Variant),
		DurationMinutes: req.DurationMinutes,
	}
	if exam.ExamType == model.ExamTypeIELTS && exam.Variant == "" {
		exam.Variant = model.VariantAcademic
	}

	sectionOrders := map[int]bool{}
	for i, sDto := range req.Sections {
		sectionType := model.SectionType(sDto.SectionType)
		if !knownSectionTypes[sectionType] {
			return nil, validationErr("section %q has unknown sectionType %q", sDto.Title, sDto.SectionType)
		}
		order := sDto.OrderInExam
		if order == 0 {
			order = i + 1
		}
		if sectionOrders[order] {
			return nil, validationErr("duplicate orderInExam %d", order)
		}
		sectionOrders[order] = true

		section := model.Section{
			Title:           sDto.Title,
			SectionType:     sectionType,
			OrderInExam:     order,
			DurationMinutes: sDto.DurationMinutes,
		}
		for j, pDto := range sDto.Parts {
			part := model.Part{Title: pDto.Title, OrderInSection: orDefault(pDto.OrderInSection, j+1)}
			for k, gDto := range pDto.Groups {
				group := model.QuestionGroup{Instructions: gDto.Instructions, OrderInPart: orDefault(gDto.OrderInPart, k+1)}
				for n, qDto := range gDto.Questions {
					question, err := buildQuestion(qDto, n+1)
					if err != nil {
						return nil, err
					}
					group.Questions = append(group.Questions, question)
				}
				part.Groups = append(part.Groups, group)
			}
			section.Parts = append(section.Parts, part)
		}
		exam.Sections = append(exam.Sections, section)
	}
	return exam, nil
}

func buildQuestion(qDto dto.QuestionCreateDTO, defaultOrder int) (model.Question, error) {
	var question model.Question
	if err := copier.Copy(&question, &qDto); err != nil {
		return model.Question{}, fmt.Errorf("copy question: %w", err)
	}
	question.CorrectAnswer = []byte(qDto.CorrectAnswer)
	question.OrderInGroup = orDefault(qDto.OrderInGroup, defaultOrder)
	if question.Weight <= 0 {
		question.Weight = 1
	}

	if len(qDto.CorrectAnswer) > 0 {
		var ref model.ResponseValue
		if err := ref.UnmarshalJSON(qDto.CorrectAnswer); err != nil {
			return model.Question{}, validationErr("correctAnswer of %q: %v", qDto.Prompt, err)
		}
	}
	if model.NormalizeQuestionType(qDto.QuestionType) == model.TypeUnknown {
		log.Warn().Str("questionType", qDto.QuestionType).Msg("Unknown question type will be graded by exact match")
	}
	return question, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// toExamResponse maps the exam tree; without answers the correct answers and
// explanations are removed.
func toExamResponse(exam *model.Exam, withAnswers bool) (*dto.ExamResponseDTO, error) {
	var resp dto.ExamResponseDTO
	if err := copier.CopyWithOption(&resp, exam, copier.Option{DeepCopy: true}); err != nil {
		log.Error().Err(err).Uint("examID", exam.ID).Msg("Failed to copy Exam model to ExamResponseDTO")
		return nil, fmt.Errorf("error preparing exam response: %w", err)
	}
	if withAnswers {
		return &resp, nil
	}
	for i := range resp.Sections {
		for j := range resp.Sections[i].Parts {
			for k := range resp.Sections[i].Parts[j].Groups {
				questions := resp.Sections[i].Parts[j].Groups[k].Questions
				for n := range questions {
					questions[n].CorrectAnswer = nil
					questions[n].Explanation = ""
				}
			}
		}
	}
	return &resp, nil
}
