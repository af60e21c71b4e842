package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lshigami/examcore/config"
	"github.com/lshigami/examcore/internal/dto"
	"github.com/lshigami/examcore/internal/model"
	"github.com/lshigami/examcore/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	TimeStatusExpired  = "expired"
	TimeStatusCritical = "critical"
	TimeStatusWarning  = "warning"
	TimeStatusNormal   = "normal"
	TimeStatusClosed   = "closed"

	criticalWindow = 5 * time.Minute
	warningWindow  = 15 * time.Minute

	defaultCancelReason = "cancelled_by_candidate"
	defaultExpireReason = "manual"
)

type AttemptService interface {
	CreateOrResume(ctx context.Context, p model.Principal, examID uint, forceNew bool) (*dto.AttemptResponseDTO, error)
	StartSection(ctx context.Context, p model.Principal, examID, sectionID uint) (*dto.AttemptResponseDTO, error)
	RecordResponse(ctx context.Context, p model.Principal, attemptID string, req dto.RecordResponseDTO) (*dto.AckResponse, error)
	SubmitSection(ctx context.Context, p model.Principal, attemptID string, sectionID uint) (*dto.SectionsStatusResponse, error)
	Submit(ctx context.Context, p model.Principal, attemptID string) (*dto.AttemptResponseDTO, error)
	Grade(ctx context.Context, p model.Principal, attemptID string) (*dto.GradeResultDTO, error)
	GradeManual(ctx context.Context, p model.Principal, attemptID string, updates []dto.GradeUpdateDTO) (*model.Scoring, error)
	GradeExternal(ctx context.Context, p model.Principal, attemptID string, updates []dto.GradeUpdateDTO, finalize bool) (*model.Scoring, error)
	Cancel(ctx context.Context, p model.Principal, attemptID, reason string) (*dto.AttemptResponseDTO, error)
	Expire(ctx context.Context, p model.Principal, attemptID, reason string, force bool) (*dto.AttemptResponseDTO, error)
	Status(ctx context.Context, p model.Principal, attemptID string) (*dto.AttemptStatusDTO, error)
	GetAttempt(ctx context.Context, p model.Principal, attemptID string) (*dto.AttemptResponseDTO, error)
	ListMyAttempts(ctx context.Context, p model.Principal, examID uint) ([]dto.AttemptSummaryDTO, error)
	AttemptStats(ctx context.Context, p model.Principal, examID uint) (*dto.AttemptStatsDTO, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

type AttemptSettings struct {
	// DefaultDuration applies when neither the exam nor its sections
	// declare a duration.
	DefaultDuration time.Duration
	// MaxTranscriptions bounds concurrent speech transcriptions per grade.
	MaxTranscriptions int
}

func NewAttemptSettings(cfg *config.Config) AttemptSettings {
	return AttemptSettings{
		DefaultDuration:   cfg.Attempts.DefaultExamDuration,
		MaxTranscriptions: cfg.Evaluator.MaxConcurrency,
	}
}

type attemptService struct {
	examRepo    repository.ExamRepository
	attemptRepo repository.AttemptRepository
	aggregator  ScoreAggregator
	transcriber SpeechTranscriber
	clock       Clock
	settings    AttemptSettings
}

func NewAttemptService(
	examRepo repository.ExamRepository,
	attemptRepo repository.AttemptRepository,
	aggregator ScoreAggregator,
	transcriber SpeechTranscriber,
	clock Clock,
	settings AttemptSettings,
) AttemptService {
	if settings.DefaultDuration <= 0 {
		settings.DefaultDuration = 120 * time.Minute
	}
	if settings.MaxTranscriptions < 1 {
		settings.MaxTranscriptions = 1
	}
	return &attemptService{
		examRepo:    examRepo,
		attemptRepo: attemptRepo,
		aggregator:  aggregator,
		transcriber: transcriber,
		clock:       clock,
		settings:    settings,
	}
}

func (s *attemptService) CreateOrResume(ctx context.Context, p model.Principal, examID uint, forceNew bool) (*dto.AttemptResponseDTO, error) {
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if len(exam.Sections) == 0 {
		return nil, validationErr("exam %d has no sections", examID)
	}

	active, err := s.findActive(ctx, p.ID, examID, model.AttemptFullExam, 0)
	if err != nil {
		return nil, err
	}
	if active != nil {
		if !forceNew {
			log.Info().Str("attemptID", active.ID).Uint("candidateID", p.ID).Msg("Resuming in-progress attempt")
			return toAttemptResponse(active), nil
		}
		now := s.clock.Now()
		active.Status = model.StatusCancelled
		active.CancelledAt = &now
		active.CancelReason = model.CancelReasonSuperseded
		if err := s.attemptRepo.Save(ctx, active); err != nil {
			log.Error().Err(err).Str("attemptID", active.ID).Msg("Failed to cancel superseded attempt")
			return nil, fmt.Errorf("cancel superseded attempt: %w", err)
		}
	}

	attempt := s.newAttempt(p, exam, exam.Sections, model.AttemptFullExam, nil, s.examDuration(exam))
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		log.Error().Err(err).Uint("examID", examID).Uint("candidateID", p.ID).Msg("Failed to create attempt")
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	log.Info().Str("attemptID", attempt.ID).Uint("examID", examID).Time("expiresAt", attempt.ExpiresAt).Msg("Attempt started")
	return toAttemptResponse(attempt), nil
}

func (s *attemptService) StartSection(ctx context.Context, p model.Principal, examID, sectionID uint) (*dto.AttemptResponseDTO, error) {
	exam, err := s.loadExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	section := exam.SectionByID(sectionID)
	if section == nil {
		return nil, fmt.Errorf("section %d of exam %d: %w", sectionID, examID, ErrNotFound)
	}

	active, err := s.findActive(ctx, p.ID, examID, model.AttemptSectionOnly, sectionID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return toAttemptResponse(active), nil
	}

	scope := sectionID
	attempt := s.newAttempt(p, exam, []model.Section{*section}, model.AttemptSectionOnly, &scope, s.sectionDuration(exam, section))
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		log.Error().Err(err).Uint("examID", examID).Uint("sectionID", sectionID).Msg("Failed to create section attempt")
		return nil, fmt.Errorf("create section attempt: %w", err)
	}
	log.Info().Str("attemptID", attempt.ID).Uint("sectionID", sectionID).Time("expiresAt", attempt.ExpiresAt).Msg("Section attempt started")
	return toAttemptResponse(attempt), nil
}

func (s *attemptService) RecordResponse(ctx context.Context, p model.Principal, attemptID string, req dto.RecordResponseDTO) (*dto.AckResponse, error) {
	attempt, err := s.loadForMutation(ctx, p, attemptID)
	if err != nil {
		return nil, err
	}
	value, err := req.Value()
	if err != nil {
		return nil, validationErr("response for question %d: %v", req.QuestionID, err)
	}
	exam, err := s.loadExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}
	ref, err := resolveQuestion(indexExam(exam), req)
	if err != nil {
		return nil, err
	}
	entry := attempt.SectionEntry(ref.SectionID)
	if entry == nil {
		return nil, validationErr("section %d is not part of attempt %s", ref.SectionID, attemptID)
	}
	if entry.Status != model.StatusInProgress {
		return nil, fmt.Errorf("section %d: %w", ref.SectionID, ErrSectionAlreadySubmitted)
	}

	attempt.Responses = upsertResponse(attempt.Responses, model.Response{
		SectionID:   ref.SectionID,
		PartID:      ref.PartID,
		GroupID:     ref.GroupID,
		QuestionID:  req.QuestionID,
		Response:    value,
		TimeSpentMs: req.TimeSpentMs,
		UpdatedAt:   s.clock.Now(),
	})
	if err := s.attemptRepo.Save(ctx, attempt); err != nil {
		log.Error().Err(err).Str("attemptID", attemptID).Uint("questionID", req.QuestionID).Msg("Failed to save response")
		return nil, fmt.Errorf("save response: %w", err)
	}
	return &dto.AckResponse{
		AttemptID:  attempt.ID,
		QuestionID: req.QuestionID,
		Responses:  len(attempt.Responses),
	}, nil
}

// resolveQuestion locates the question in the exam tree. Section, part and
// group ids sent by the client must agree with the tree when present.
func resolveQuestion(idx examIndex, req dto.RecordResponseDTO) (questionRef, error) {
	ref, ok := idx[req.QuestionID]
	if !ok {
		return questionRef{}, validationErr("question %d is not part of the exam", req.QuestionID)
	}
	if req.SectionID != 0 && req.SectionID != ref.SectionID {
		return questionRef{}, validationErr("question %d belongs to section %d, not %d", req.QuestionID, ref.SectionID, req.SectionID)
	}
	if req.PartID != 0 && req.PartID != ref.PartID {
		return questionRef{}, validationErr("question %d belongs to part %d, not %d", req.QuestionID, ref.PartID, req.PartID)
	}
	if req.GroupID != 0 && req.GroupID != ref.GroupID {
		return questionRef{}, validationErr("question %d belongs to group %d, not %d", req.QuestionID, ref.GroupID, req.GroupID)
	}
	return ref, nil
}

// upsertResponse keeps one response per question.
func upsertResponse(responses []model.Response, r model.Response) []model.Response {
	for i, existing := range responses {
		if existing.QuestionID == r.QuestionID {
			responses[i] = r
			return responses
		}
	}
	return append(responses, r)
}

func (s *attemptService) SubmitSection(ctx context.Context, p model.Principal, attemptID string, sectionID uint) (*dto.SectionsStatusResponse, error) {
	attempt, err := s.loadForMutation(ctx, p, attemptID)
	if err != nil {
		return nil, err
	}
	entry := attempt.SectionEntry(sectionID)
	if entry == nil {
		return nil, fmt.Errorf("section %d in attempt %s: %w", sectionID, attemptID, ErrNotFound)
	}
	if entry.Status != model.StatusInProgress {
		return nil, fmt.Errorf("section %d: %w", sectionID, ErrSectionAlreadySubmitted)
	}
	exam, err := s.loadExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	scoring := s.aggregator.Score(ctx, AggregateInput{Exam: exam, Responses: attempt.Responses, SectionID: sectionID})
	s.applySectionResult(exam, entry, scoring.PerQuestion, model.StatusSubmitted, now)
	if attempt.AttemptType == model.AttemptSectionOnly {
		s.submitAll(ctx, attempt, exam, now)
	}

	if err := s.saveUnlessExpired(ctx, attempt); err != nil {
		return nil, err
	}
	log.Info().Str("attemptID", attemptID).Uint("sectionID", sectionID).Float64("score", entry.Score).Msg("Section submitted")
	return &dto.SectionsStatusResponse{
		AttemptID:      attempt.ID,
		Status:         string(attempt.Status),
		SectionsStatus: attempt.SectionsStatus,
	}, nil
}

func (s *attemptService) Submit(ctx context.Context, p model.Principal, attemptID string) (*dto.AttemptResponseDTO, error) {
	attempt, err := s.loadForMutation(ctx, p, attemptID)
	if err != nil {
		return nil, err
	}
	exam, err := s.loadExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	s.submitAll(ctx, attempt, exam, s.clock.Now())
	if err := s.saveUnlessExpired(ctx, attempt); err != nil {
		return nil, err
	}
	log.Info().Str("attemptID", attemptID).Float64("score", attempt.Scoring.Data().Score).Msg("Attempt submitted")
	return toAttemptResponse(attempt), nil
}

// submitAll takes the light scoring snapshot and closes every open section.
func (s *attemptService) submitAll(ctx context.Context, attempt *model.Attempt, exam *model.Exam, now time.Time) {
	scoring := s.aggregator.Score(ctx, AggregateInput{
		Exam:      exam,
		Responses: attempt.Responses,
		SectionID: scopeSection(attempt),
	})
	for i := range attempt.SectionsStatus {
		entry := &attempt.SectionsStatus[i]
		if entry.Status == model.StatusInProgress {
			s.applySectionResult(exam, entry, scoring.PerQuestion, model.StatusSubmitted, now)
		}
	}
	attempt.Scoring = datatypes.NewJSONType(scoring)
	attempt.Status = model.StatusSubmitted
	attempt.SubmittedAt = timePtr(now)
}

// saveUnlessExpired re-reads the stored status before writing a submission;
// an attempt expired in the meantime fails instead of being resurrected.
func (s *attemptService) saveUnlessExpired(ctx context.Context, attempt *model.Attempt) error {
	latest, err := s.load(ctx, attempt.ID)
	if err != nil {
		return err
	}
	switch latest.Status {
	case model.StatusInProgress:
	case model.StatusExpired:
		return fmt.Errorf("attempt %s: %w", attempt.ID, ErrAttemptExpired)
	default:
		return fmt.Errorf("attempt %s is %s: %w", attempt.ID, latest.Status, ErrAttemptNotInProgress)
	}
	if err := s.attemptRepo.Save(ctx, attempt); err != nil {
		log.Error().Err(err).Str("attemptID", attempt.ID).Msg("Failed to save submission")
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

func (s *attemptService) Grade(ctx context.Context, p model.Principal, attemptID string) (*dto.GradeResultDTO, error) {
	attempt, err := s.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrPrivileged(p, attempt); err != nil {
		return nil, err
	}
	if err := s.requireGradable(ctx, attempt); err != nil {
		return nil, err
	}
	exam, err := s.loadExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	s.transcribePending(ctx, attempt)
	fresh := s.aggregator.Score(ctx, AggregateInput{
		Exam:      exam,
		Responses: attempt.Responses,
		SectionID: scopeSection(attempt),
		Deep:      true,
	})
	perQuestion := keepOverrides(attempt.Scoring.Data().PerQuestion, fresh.PerQuestion)
	scoring := s.aggregator.Summarize(exam, perQuestion)

	now := s.clock.Now()
	s.applyAllSections(exam, attempt, scoring.PerQuestion, model.StatusGraded, now)
	attempt.Scoring = datatypes.NewJSONType(scoring)
	attempt.Status = model.StatusGraded
	attempt.GradedAt = timePtr(now)
	if err := s.attemptRepo.Save(ctx, attempt); err != nil {
		log.Error().Err(err).Str("attemptID", attemptID).Msg("Failed to save grading")
		return nil, fmt.Errorf("save grading: %w", err)
	}
	log.Info().Str("attemptID", attemptID).Float64("score", scoring.Score).Float64("maxScore", scoring.MaxScore).Msg("Attempt graded")
	return gradeResult(attempt, scoring), nil
}

// transcribePending fills in transcripts for recorded answers that arrived
// without one. Failures leave the answer ungraded.
func (s *attemptService) transcribePending(ctx context.Context, attempt *model.Attempt) {
	if s.transcriber == nil {
		return
	}
	var g errgroup.Group
	g.SetLimit(s.settings.MaxTranscriptions)
	for i := range attempt.Responses {
		r := &attempt.Responses[i]
		if !r.Response.AwaitingTranscript() {
			continue
		}
		g.Go(func() error {
			transcript, err := s.transcriber.Transcribe(ctx, r.Response.Speech.AudioURL)
			if err != nil {
				log.Warn().Err(err).Str("attemptID", attempt.ID).Uint("questionID", r.QuestionID).Msg("Speech transcription failed")
				return nil
			}
			r.Response = model.SpeechValue(r.Response.Speech.AudioURL, transcript)
			return nil
		})
	}
	_ = g.Wait()
}

// keepOverrides lets manual and external grades survive an automatic
// re-grade. Every other entry comes from the fresh pass.
func keepOverrides(previous, fresh []model.QuestionResult) []model.QuestionResult {
	type key struct{ question, section uint }
	overrides := map[key]model.QuestionResult{}
	var order []key
	for _, r := range previous {
		if r.Source != model.SourceManual && r.Source != model.SourceExternal {
			continue
		}
		k := key{r.QuestionID, r.SectionID}
		if _, seen := overrides[k]; !seen {
			order = append(order, k)
		}
		overrides[k] = r
	}

	merged := make([]model.QuestionResult, 0, len(fresh)+len(overrides))
	used := map[key]bool{}
	for _, r := range fresh {
		k := key{r.QuestionID, r.SectionID}
		if o, ok := overrides[k]; ok {
			merged = append(merged, o)
			used[k] = true
			continue
		}
		merged = append(merged, r)
	}
	for _, k := range order {
		if !used[k] {
			merged = append(merged, overrides[k])
		}
	}
	return merged
}

func (s *attemptService) GradeManual(ctx context.Context, p model.Principal, attemptID string, updates []dto.GradeUpdateDTO) (*model.Scoring, error) {
	return s.override(ctx, p, attemptID, updates, model.SourceManual, true)
}

func (s *attemptService) GradeExternal(ctx context.Context, p model.Principal, attemptID string, updates []dto.GradeUpdateDTO, finalize bool) (*model.Scoring, error) {
	return s.override(ctx, p, attemptID, updates, model.SourceExternal, finalize)
}

// override merges grader updates and recomputes the totals from the merged
// list. finalize moves the attempt to graded.
func (s *attemptService) override(ctx context.Context, p model.Principal, attemptID string, updates []dto.GradeUpdateDTO, source string, finalize bool) (*model.Scoring, error) {
	if err := requirePrivileged(p); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, validationErr("at least one grade update is required")
	}
	attempt, err := s.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if err := s.requireGradable(ctx, attempt); err != nil {
		return nil, err
	}
	exam, err := s.loadExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	merged, err := s.aggregator.MergeOverrides(exam, attempt.Scoring.Data().PerQuestion, updates, source)
	if err != nil {
		return nil, err
	}
	scoring := s.aggregator.Summarize(exam, merged)

	now := s.clock.Now()
	sectionStatus := model.AttemptStatus("")
	if finalize {
		sectionStatus = model.StatusGraded
		attempt.Status = model.StatusGraded
		attempt.GradedAt = timePtr(now)
	}
	s.applyAllSections(exam, attempt, scoring.PerQuestion, sectionStatus, now)
	attempt.Scoring = datatypes.NewJSONType(scoring)
	if err := s.attemptRepo.Save(ctx, attempt); err != nil {
		log.Error().Err(err).Str("attemptID", attemptID).Str("source", source).Msg("Failed to save grade overrides")
		return nil, fmt.Errorf("save grade overrides: %w", err)
	}
	log.Info().Str("attemptID", attemptID).Str("source", source).Int("updates", len(updates)).Uint("graderID", p.ID).Msg("Grade overrides applied")
	return &scoring, nil
}

func (s *attemptService) requireGradable(ctx context.Context, attempt *model.Attempt) error {
	expired, err := s.applyExpiry(ctx, attempt)
	if err != nil {
		return err
	}
	if expired {
		return fmt.Errorf("attempt %s: %w", attempt.ID, ErrAttemptExpired)
	}
	if attempt.Status != model.StatusSubmitted && attempt.Status != model.StatusGraded {
		return fmt.Errorf("%w: cannot grade an attempt that is %s", ErrInvalidState, attempt.Status)
	}
	return nil
}

func (s *attemptService) Cancel(ctx context.Context, p model.Principal, attemptID, reason string) (*dto.AttemptResponseDTO, error) {
	attempt, err := s.loadForMutation(ctx, p, attemptID)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = defaultCancelReason
	}
	now := s.clock.Now()
	attempt.Status = model.StatusCancelled
	attempt.CancelledAt = &now
	attempt.CancelReason = reason
	if err := s.attemptRepo.Save(ctx, attempt); err != nil {
		log.Error().Err(err).Str("attemptID", attemptID).Msg("Failed to cancel attempt")
		return nil, fmt.Errorf("cancel attempt: %w", err)
	}
	log.Info().Str("attemptID", attemptID).Str("reason", reason).Msg("Attempt cancelled")
	return toAttemptResponse(attempt), nil
}

// Expire ends an attempt explicitly. Only privileged callers may force,
// which also covers submitted attempts that were never graded.
func (s *attemptService) Expire(ctx context.Context, p model.Principal, attemptID, reason string, force bool) (*dto.AttemptResponseDTO, error) {
	attempt, err := s.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrPrivileged(p, attempt); err != nil {
		return nil, err
	}
	if force && !p.Privileged() {
		return nil, fmt.Errorf("%w: only graders and admins may force expiry", ErrForbidden)
	}
	switch {
	case attempt.Status == model.StatusInProgress:
	case force && attempt.Status == model.StatusSubmitted:
	default:
		return nil, fmt.Errorf("attempt %s is %s: %w", attemptID, attempt.Status, ErrAttemptNotInProgress)
	}

	if reason == "" {
		reason = defaultExpireReason
	}
	now := s.clock.Now()
	actor := p.ID
	attempt.Status = model.StatusExpired
	attempt.ExpiredAt = &now
	attempt.ExpireReason = reason
	attempt.ExpiredBy = &actor
	if err := s.attemptRepo.Save(ctx, attempt); err != nil {
		log.Error().Err(err).Str("attemptID", attemptID).Msg("Failed to expire attempt")
		return nil, fmt.Errorf("expire attempt: %w", err)
	}
	log.Info().Str("attemptID", attemptID).Str("reason", reason).Uint("actorID", actor).Bool("force", force).Msg("Attempt expired")
	return toAttemptResponse(attempt), nil
}

func (s *attemptService) Status(ctx context.Context, p model.Principal, attemptID string) (*dto.AttemptStatusDTO, error) {
	attempt, err := s.loadForRead(ctx, p, attemptID)
	if err != nil {
		return nil, err
	}
	exam, err := s.loadExam(ctx, attempt.ExamID)
	if err != nil {
		return nil, err
	}

	remaining := attempt.ExpiresAt.Sub(s.clock.Now())
	if remaining < 0 || attempt.Status != model.StatusInProgress {
		remaining = 0
	}
	progress := dto.ProgressDTO{
		TotalQuestions: exam.QuestionCount(scopeSection(attempt)),
		TotalSections:  len(attempt.SectionsStatus),
	}
	for _, r := range attempt.Responses {
		if !r.Response.IsEmpty() {
			progress.Answered++
		}
	}
	for _, e := range attempt.SectionsStatus {
		if e.Status != model.StatusInProgress {
			progress.SectionsSubmitted++
		}
	}

	return &dto.AttemptStatusDTO{
		AttemptID: attempt.ID,
		Status:    string(attempt.Status),
		TimeInfo: dto.TimeInfoDTO{
			RemainingMs: remaining.Milliseconds(),
			IsExpired:   attempt.Status == model.StatusExpired,
			TimeStatus:  timeStatus(attempt.Status, remaining),
			ExpiresAt:   attempt.ExpiresAt,
		},
		Progress: progress,
	}, nil
}

// timeStatus buckets the remaining time of a running attempt. Submitted,
// graded and cancelled attempts are closed; their clock no longer runs.
func timeStatus(status model.AttemptStatus, remaining time.Duration) string {
	switch {
	case status == model.StatusExpired:
		return TimeStatusExpired
	case status != model.StatusInProgress:
		return TimeStatusClosed
	case remaining <= 0:
		return TimeStatusExpired
	case remaining < criticalWindow:
		return TimeStatusCritical
	case remaining < warningWindow:
		return TimeStatusWarning
	}
	return TimeStatusNormal
}

func (s *attemptService) GetAttempt(ctx context.Context, p model.Principal, attemptID string) (*dto.AttemptResponseDTO, error) {
	attempt, err := s.loadForRead(ctx, p, attemptID)
	if err != nil {
		return nil, err
	}
	return toAttemptResponse(attempt), nil
}

func (s *attemptService) ListMyAttempts(ctx context.Context, p model.Principal, examID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.attemptRepo.ListByCandidateAndExam(ctx, p.ID, examID)
	if err != nil {
		log.Error().Err(err).Uint("examID", examID).Uint("candidateID", p.ID).Msg("Failed to list attempts")
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	summaries := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		if _, err := s.applyExpiry(ctx, a); err != nil {
			return nil, err
		}
		scoring := a.Scoring.Data()
		summary := dto.AttemptSummaryDTO{
			ID:          a.ID,
			ExamID:      a.ExamID,
			AttemptType: string(a.AttemptType),
			Status:      string(a.Status),
			StartedAt:   a.StartedAt,
			ExpiresAt:   a.ExpiresAt,
			SubmittedAt: a.SubmittedAt,
			Score:       scoring.Score,
			MaxScore:    scoring.MaxScore,
		}
		if scoring.Scaled != nil {
			scaled := scoring.Scaled.Score
			summary.ScaledScore = &scaled
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *attemptService) AttemptStats(ctx context.Context, p model.Principal, examID uint) (*dto.AttemptStatsDTO, error) {
	if err := requirePrivileged(p); err != nil {
		return nil, err
	}
	counts, err := s.attemptRepo.CountByStatus(ctx, examID)
	if err != nil {
		log.Error().Err(err).Uint("examID", examID).Msg("Failed to count attempts")
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	stats := &dto.AttemptStatsDTO{ExamID: examID, ByStatus: map[string]int64{}}
	for status, n := range counts {
		stats.ByStatus[string(status)] = n
		stats.Total += n
	}
	return stats, nil
}

func (s *attemptService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.attemptRepo.ExpireOverdue(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("expire overdue attempts: %w", err)
	}
	return n, nil
}

func (s *attemptService) load(ctx context.Context, attemptID string) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, fmt.Errorf("attempt %s: %w", attemptID, ErrNotFound)
		}
		log.Error().Err(err).Str("attemptID", attemptID).Msg("Failed to load attempt")
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	return attempt, nil
}

func (s *attemptService) loadExam(ctx context.Context, examID uint) (*model.Exam, error) {
	exam, err := s.examRepo.FindByIDWithContent(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, fmt.Errorf("exam %d: %w", examID, ErrNotFound)
		}
		log.Error().Err(err).Uint("examID", examID).Msg("Failed to load exam content")
		return nil, fmt.Errorf("load exam: %w", err)
	}
	return exam, nil
}

// findActive returns the caller's live in-progress attempt for the scope, or
// nil. A stale one found on the way is expired first.
func (s *attemptService) findActive(ctx context.Context, candidateID, examID uint, attemptType model.AttemptType, sectionID uint) (*model.Attempt, error) {
	active, err := s.attemptRepo.FindActive(ctx, candidateID, examID, attemptType, sectionID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Uint("examID", examID).Uint("candidateID", candidateID).Msg("Failed to look up active attempt")
		return nil, fmt.Errorf("find active attempt: %w", err)
	}
	expired, err := s.applyExpiry(ctx, active)
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, nil
	}
	return active, nil
}

func (s *attemptService) loadForRead(ctx context.Context, p model.Principal, attemptID string) (*model.Attempt, error) {
	attempt, err := s.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrPrivileged(p, attempt); err != nil {
		return nil, err
	}
	if _, err := s.applyExpiry(ctx, attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// loadForMutation loads an owner's attempt that is still open for writes.
func (s *attemptService) loadForMutation(ctx context.Context, p model.Principal, attemptID string) (*model.Attempt, error) {
	attempt, err := s.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(p, attempt); err != nil {
		return nil, err
	}
	expired, err := s.applyExpiry(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if expired || attempt.Status == model.StatusExpired {
		return nil, fmt.Errorf("attempt %s: %w", attemptID, ErrAttemptExpired)
	}
	if attempt.Status != model.StatusInProgress {
		return nil, fmt.Errorf("attempt %s is %s: %w", attemptID, attempt.Status, ErrAttemptNotInProgress)
	}
	return attempt, nil
}

// applyExpiry flips an overdue in-progress attempt to expired and persists it.
func (s *attemptService) applyExpiry(ctx context.Context, attempt *model.Attempt) (bool, error) {
	if attempt.Status != model.StatusInProgress {
		return false, nil
	}
	now := s.clock.Now()
	if !now.After(attempt.ExpiresAt) {
		return false, nil
	}
	attempt.Status = model.StatusExpired
	attempt.ExpiredAt = &now
	attempt.ExpireReason = model.ExpireReasonTimeLimit
	if err := s.attemptRepo.Save(ctx, attempt); err != nil {
		log.Error().Err(err).Str("attemptID", attempt.ID).Msg("Failed to persist lazy expiry")
		return false, fmt.Errorf("persist expiry: %w", err)
	}
	log.Info().Str("attemptID", attempt.ID).Time("expiresAt", attempt.ExpiresAt).Msg("Attempt expired on access")
	return true, nil
}

func (s *attemptService) newAttempt(p model.Principal, exam *model.Exam, sections []model.Section, attemptType model.AttemptType, activeSection *uint, duration time.Duration) *model.Attempt {
	now := s.clock.Now()
	entries := make([]model.SectionStatus, 0, len(sections))
	for _, sec := range sections {
		entries = append(entries, model.SectionStatus{
			SectionID:   sec.ID,
			SectionType: sec.SectionType,
			Status:      model.StatusInProgress,
		})
	}
	return &model.Attempt{
		ID:              uuid.NewString(),
		CandidateID:     p.ID,
		ExamID:          exam.ID,
		AttemptType:     attemptType,
		ActiveSectionID: activeSection,
		Status:          model.StatusInProgress,
		StartedAt:       now,
		ExpiresAt:       now.Add(duration),
		SectionsStatus:  entries,
		Responses:       datatypes.JSONSlice[model.Response]{},
		Scoring:         datatypes.NewJSONType(model.Scoring{PerQuestion: []model.QuestionResult{}}),
	}
}

// examDuration prefers the exam's own duration, then the sum of its
// sections, then the configured default.
func (s *attemptService) examDuration(exam *model.Exam) time.Duration {
	if exam.DurationMinutes > 0 {
		return time.Duration(exam.DurationMinutes) * time.Minute
	}
	total := 0
	for _, sec := range exam.Sections {
		total += sec.DurationMinutes
	}
	if total > 0 {
		return time.Duration(total) * time.Minute
	}
	return s.settings.DefaultDuration
}

// sectionDuration prefers the section's own duration, then an even split of
// the exam duration across its sections.
func (s *attemptService) sectionDuration(exam *model.Exam, section *model.Section) time.Duration {
	if section.DurationMinutes > 0 {
		return time.Duration(section.DurationMinutes) * time.Minute
	}
	n := len(exam.Sections)
	if n == 0 {
		n = 1
	}
	if exam.DurationMinutes > 0 {
		return time.Duration(exam.DurationMinutes) * time.Minute / time.Duration(n)
	}
	return s.settings.DefaultDuration / time.Duration(n)
}

func (s *attemptService) applySectionResult(exam *model.Exam, entry *model.SectionStatus, perQuestion []model.QuestionResult, status model.AttemptStatus, now time.Time) {
	res := s.aggregator.SectionSummary(exam, perQuestion, entry.SectionID)
	entry.Score = res.Score
	entry.MaxScore = res.MaxScore
	entry.Accuracy = res.Accuracy
	entry.BandScore = res.BandScore
	if status != "" {
		entry.Status = status
	}
	if entry.SubmittedAt == nil {
		entry.SubmittedAt = timePtr(now)
	}
}

// applyAllSections refreshes every section entry. An empty status keeps the
// entry's current status.
func (s *attemptService) applyAllSections(exam *model.Exam, attempt *model.Attempt, perQuestion []model.QuestionResult, status model.AttemptStatus, now time.Time) {
	for i := range attempt.SectionsStatus {
		s.applySectionResult(exam, &attempt.SectionsStatus[i], perQuestion, status, now)
	}
}

func scopeSection(attempt *model.Attempt) uint {
	if attempt.AttemptType == model.AttemptSectionOnly && attempt.ActiveSectionID != nil {
		return *attempt.ActiveSectionID
	}
	return 0
}

func requireOwner(p model.Principal, attempt *model.Attempt) error {
	if attempt.CandidateID != p.ID {
		return fmt.Errorf("%w: attempt %s belongs to another candidate", ErrForbidden, attempt.ID)
	}
	return nil
}

func requireOwnerOrPrivileged(p model.Principal, attempt *model.Attempt) error {
	if p.Privileged() {
		return nil
	}
	return requireOwner(p, attempt)
}

func requirePrivileged(p model.Principal) error {
	if !p.Privileged() {
		return fmt.Errorf("%w: grader or admin role required", ErrForbidden)
	}
	return nil
}

func timePtr(t time.Time) *time.Time { return &t }

func toAttemptResponse(attempt *model.Attempt) *dto.AttemptResponseDTO {
	var resp dto.AttemptResponseDTO
	if err := copier.Copy(&resp, attempt); err != nil {
		log.Warn().Err(err).Str("attemptID", attempt.ID).Msg("Partial copy of attempt to response DTO")
	}
	resp.SectionsStatus = append([]model.SectionStatus{}, attempt.SectionsStatus...)
	resp.Responses = append([]model.Response{}, attempt.Responses...)
	resp.Scoring = nil
	if scoring := attempt.Scoring.Data(); scoring.ComputedAt != nil {
		resp.Scoring = &scoring
	}
	return &resp
}

func gradeResult(attempt *model.Attempt, scoring model.Scoring) *dto.GradeResultDTO {
	res := &dto.GradeResultDTO{
		Score:    scoring.Score,
		MaxScore: scoring.MaxScore,
		Accuracy: scoring.Accuracy,
		Scaled:   scoring.Scaled,
	}
	for _, e := range attempt.SectionsStatus {
		if e.BandScore == nil {
			continue
		}
		if res.BandScores == nil {
			res.BandScores = map[string]float64{}
		}
		res.BandScores[string(e.SectionType)] = *e.BandScore
	}
	return res
}
