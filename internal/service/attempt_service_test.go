package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lshigami/examcore/internal/dto"
	"github.com/lshigami/examcore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	return f.transcript, f.err
}

type AttemptServiceSuite struct {
	suite.Suite
	ctx      context.Context
	clock    *fakeClock
	attempts *memoryAttemptRepo
	exams    *staticExamRepo
	svc      AttemptService

	candidate model.Principal
	other     model.Principal
	grader    model.Principal
}

func (s *AttemptServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = newFakeClock()
	s.attempts = newMemoryAttemptRepo()
	s.exams = newStaticExamRepo(ieltsFixture())
	s.svc = NewAttemptService(s.exams, s.attempts, newTestAggregator(s.clock), nil, s.clock, AttemptSettings{})
	s.candidate = model.Principal{ID: 7, Role: model.RoleCandidate}
	s.other = model.Principal{ID: 8, Role: model.RoleCandidate}
	s.grader = model.Principal{ID: 1, Role: model.RoleGrader}
}

func TestAttemptServiceSuite(t *testing.T) {
	suite.Run(t, new(AttemptServiceSuite))
}

func (s *AttemptServiceSuite) start() *dto.AttemptResponseDTO {
	attempt, err := s.svc.CreateOrResume(s.ctx, s.candidate, 1, false)
	s.Require().NoError(err)
	return attempt
}

func (s *AttemptServiceSuite) answer(attemptID string, sectionID, questionID uint, value string) error {
	_, err := s.svc.RecordResponse(s.ctx, s.candidate, attemptID, dto.RecordResponseDTO{
		SectionID:  sectionID,
		QuestionID: questionID,
		Response:   []byte(`"` + value + `"`),
	})
	return err
}

func (s *AttemptServiceSuite) TestCreateInitialisesSections() {
	attempt := s.start()

	s.Equal(string(model.StatusInProgress), attempt.Status)
	s.Equal(string(model.AttemptFullExam), attempt.AttemptType)
	s.Equal(s.clock.Now().Add(60*time.Minute), attempt.ExpiresAt)
	s.Require().Len(attempt.SectionsStatus, 2)
	s.Equal(uint(10), attempt.SectionsStatus[0].SectionID)
	s.Equal(uint(20), attempt.SectionsStatus[1].SectionID)
	for _, e := range attempt.SectionsStatus {
		s.Equal(model.StatusInProgress, e.Status)
	}
	s.Empty(attempt.Responses)
	s.Nil(attempt.Scoring)
}

func (s *AttemptServiceSuite) TestCreateResumesActiveAttempt() {
	first := s.start()
	s.clock.Advance(time.Minute)
	second := s.start()
	s.Equal(first.ID, second.ID)
}

func (s *AttemptServiceSuite) TestForceNewSupersedesActiveAttempt() {
	first := s.start()
	s.clock.Advance(time.Minute)

	second, err := s.svc.CreateOrResume(s.ctx, s.candidate, 1, true)
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)

	old := s.attempts.stored(first.ID)
	s.Equal(model.StatusCancelled, old.Status)
	s.Equal(model.CancelReasonSuperseded, old.CancelReason)
}

func (s *AttemptServiceSuite) TestCreateForUnknownExam() {
	_, err := s.svc.CreateOrResume(s.ctx, s.candidate, 99, false)
	s.True(errors.Is(err, ErrNotFound))
}

func (s *AttemptServiceSuite) TestCreateReplacesStaleAttempt() {
	first := s.start()
	s.clock.Advance(61 * time.Minute)

	second := s.start()
	s.NotEqual(first.ID, second.ID)
	s.Equal(model.StatusExpired, s.attempts.stored(first.ID).Status)
}

func (s *AttemptServiceSuite) TestStartSectionScopesDurationAndSections() {
	attempt, err := s.svc.StartSection(s.ctx, s.candidate, 1, 20)
	s.Require().NoError(err)

	s.Equal(string(model.AttemptSectionOnly), attempt.AttemptType)
	s.Require().NotNil(attempt.ActiveSectionID)
	s.Equal(uint(20), *attempt.ActiveSectionID)
	s.Require().Len(attempt.SectionsStatus, 1)
	s.Equal(s.clock.Now().Add(30*time.Minute), attempt.ExpiresAt)

	again, err := s.svc.StartSection(s.ctx, s.candidate, 1, 20)
	s.Require().NoError(err)
	s.Equal(attempt.ID, again.ID)

	_, err = s.svc.StartSection(s.ctx, s.candidate, 1, 30)
	s.True(errors.Is(err, ErrNotFound))
}

func (s *AttemptServiceSuite) TestRecordResponseUpserts() {
	attempt := s.start()
	s.Require().NoError(s.answer(attempt.ID, 10, 101, "B"))
	s.Require().NoError(s.answer(attempt.ID, 10, 101, "A"))

	stored := s.attempts.stored(attempt.ID)
	s.Require().Len(stored.Responses, 1)
	s.Equal("A", stored.Responses[0].Response.Scalar)
}

func (s *AttemptServiceSuite) TestRecordResponseRejections() {
	attempt := s.start()

	err := s.answer(attempt.ID, 30, 101, "A")
	s.True(errors.Is(err, ErrValidation), "unknown section")

	_, err = s.svc.RecordResponse(s.ctx, s.other, attempt.ID, dto.RecordResponseDTO{SectionID: 10, QuestionID: 101, Response: []byte(`"A"`)})
	s.True(errors.Is(err, ErrForbidden), "foreign attempt")

	_, err = s.svc.RecordResponse(s.ctx, s.candidate, attempt.ID, dto.RecordResponseDTO{SectionID: 10, QuestionID: 101, Response: []byte(`{"bad":1}`)})
	s.True(errors.Is(err, ErrValidation), "malformed value")

	err = s.answer("missing", 10, 101, "A")
	s.True(errors.Is(err, ErrNotFound))

	err = s.answer(attempt.ID, 10, 999, "A")
	s.True(errors.Is(err, ErrValidation), "question outside the exam")

	_, err = s.svc.RecordResponse(s.ctx, s.candidate, attempt.ID, dto.RecordResponseDTO{SectionID: 20, PartID: 900, QuestionID: 201, Response: []byte(`"B"`)})
	s.True(errors.Is(err, ErrValidation), "part mismatch")

	_, err = s.svc.RecordResponse(s.ctx, s.candidate, attempt.ID, dto.RecordResponseDTO{SectionID: 20, GroupID: 12, QuestionID: 201, Response: []byte(`"B"`)})
	s.True(errors.Is(err, ErrValidation), "group mismatch")
	s.Empty(s.attempts.stored(attempt.ID).Responses)
}

func (s *AttemptServiceSuite) TestRecordResponseStoresTreeIDs() {
	attempt := s.start()
	_, err := s.svc.RecordResponse(s.ctx, s.candidate, attempt.ID, dto.RecordResponseDTO{SectionID: 20, PartID: 21, QuestionID: 201, Response: []byte(`"C"`)})
	s.Require().NoError(err)
	s.Require().NoError(s.answer(attempt.ID, 20, 201, "B"))

	stored := s.attempts.stored(attempt.ID)
	s.Require().Len(stored.Responses, 1)
	r := stored.Responses[0]
	s.Equal(uint(20), r.SectionID)
	s.Equal(uint(21), r.PartID)
	s.Equal(uint(22), r.GroupID)
	s.Equal("B", r.Response.Scalar)
}

func (s *AttemptServiceSuite) TestSubmittedSectionCannotBeRewrittenThroughAnotherSection() {
	attempt := s.start()
	s.Require().NoError(s.answer(attempt.ID, 10, 101, "D"))
	_, err := s.svc.SubmitSection(s.ctx, s.candidate, attempt.ID, 10)
	s.Require().NoError(err)

	for _, q := range []uint{101, 102, 103, 104} {
		err := s.answer(attempt.ID, 20, q, "A")
		s.True(errors.Is(err, ErrValidation), "question %d sent under the reading section", q)
		_, err = s.svc.RecordResponse(s.ctx, s.candidate, attempt.ID, dto.RecordResponseDTO{QuestionID: q, Response: []byte(`"A"`)})
		s.True(errors.Is(err, ErrSectionAlreadySubmitted), "question %d without a section id", q)
	}
	for _, part := range []uint{900, 901, 902} {
		_, err := s.svc.RecordResponse(s.ctx, s.candidate, attempt.ID, dto.RecordResponseDTO{SectionID: 20, PartID: part, QuestionID: 201, Response: []byte(`"B"`)})
		s.True(errors.Is(err, ErrValidation))
	}
	s.Require().NoError(s.answer(attempt.ID, 20, 201, "B"))

	submitted, err := s.svc.Submit(s.ctx, s.candidate, attempt.ID)
	s.Require().NoError(err)
	s.Require().NotNil(submitted.Scoring)
	s.Equal(1.0, submitted.Scoring.Score)
	s.Equal(2.0, submitted.Scoring.MaxScore)
	s.Len(submitted.Scoring.PerQuestion, 2)
}

func (s *AttemptServiceSuite) TestExpiryOnAccess() {
	attempt := s.start()
	s.clock.Advance(30 * time.Minute)
	s.Require().NoError(s.answer(attempt.ID, 10, 101, "A"))

	s.clock.Advance(31 * time.Minute)
	err := s.answer(attempt.ID, 10, 102, "A")
	s.True(errors.Is(err, ErrAttemptExpired))

	stored := s.attempts.stored(attempt.ID)
	s.Equal(model.StatusExpired, stored.Status)
	s.Equal(model.ExpireReasonTimeLimit, stored.ExpireReason)
	s.Require().NotNil(stored.ExpiredAt)
	s.Len(stored.Responses, 1)

	_, err = s.svc.Submit(s.ctx, s.candidate, attempt.ID)
	s.True(errors.Is(err, ErrAttemptExpired))
}

func (s *AttemptServiceSuite) TestSubmitSectionLocksSection() {
	attempt := s.start()
	s.Require().NoError(s.answer(attempt.ID, 10, 101, "A"))
	s.Require().NoError(s.answer(attempt.ID, 10, 102, "C"))

	res, err := s.svc.SubmitSection(s.ctx, s.candidate, attempt.ID, 10)
	s.Require().NoError(err)
	s.Equal(string(model.StatusInProgress), res.Status)
	s.Equal(model.StatusSubmitted, res.SectionsStatus[0].Status)
	s.Equal(1.0, res.SectionsStatus[0].Score)
	s.Equal(2.0, res.SectionsStatus[0].MaxScore)
	s.Equal(0.5, res.SectionsStatus[0].Accuracy)
	s.Require().NotNil(res.SectionsStatus[0].BandScore)
	s.Equal(model.StatusInProgress, res.SectionsStatus[1].Status)

	err = s.answer(attempt.ID, 10, 103, "A")
	s.True(errors.Is(err, ErrSectionAlreadySubmitted))
	s.True(errors.Is(err, ErrInvalidState))

	_, err = s.svc.SubmitSection(s.ctx, s.candidate, attempt.ID, 10)
	s.True(errors.Is(err, ErrSectionAlreadySubmitted))

	s.NoError(s.answer(attempt.ID, 20, 201, "B"), "other sections stay open")
}

func (s *AttemptServiceSuite) TestSubmitSectionOnSectionAttemptSubmitsAttempt() {
	attempt, err := s.svc.StartSection(s.ctx, s.candidate, 1, 20)
	s.Require().NoError(err)
	s.Require().NoError(s.answer(attempt.ID, 20, 201, "B"))

	res, err := s.svc.SubmitSection(s.ctx, s.candidate, attempt.ID, 20)
	s.Require().NoError(err)
	s.Equal(string(model.StatusSubmitted), res.Status)
}

func (s *AttemptServiceSuite) TestSubmitClosesEverySection() {
	attempt := s.start()
	s.Require().NoError(s.answer(attempt.ID, 10, 101, "A"))
	s.Require().NoError(s.answer(attempt.ID, 10, 102, "A"))
	s.Require().NoError(s.answer(attempt.ID, 10, 103, "A"))
	s.Require().NoError(s.answer(attempt.ID, 10, 104, "D"))

	submitted, err := s.svc.Submit(s.ctx, s.candidate, attempt.ID)
	s.Require().NoError(err)
	s.Equal(string(model.StatusSubmitted), submitted.Status)
	s.NotNil(submitted.SubmittedAt)
	for _, e := range submitted.SectionsStatus {
		s.Equal(model.StatusSubmitted, e.Status)
		s.NotNil(e.SubmittedAt)
	}
	s.Require().NotNil(submitted.Scoring)
	s.Equal(0.75, submitted.Scoring.Accuracy)

	_, err = s.svc.Submit(s.ctx, s.candidate, attempt.ID)
	s.True(errors.Is(err, ErrAttemptNotInProgress))
}

// sweepingRepo runs the expiry sweep right after the first load, as if the
// sweeper fired while a submission was being scored.
type sweepingRepo struct {
	*memoryAttemptRepo
	finds int
}

func (r *sweepingRepo) FindByID(ctx context.Context, id string) (*model.Attempt, error) {
	a, err := r.memoryAttemptRepo.FindByID(ctx, id)
	r.finds++
	if err == nil && r.finds == 1 {
		if _, sweepErr := r.memoryAttemptRepo.ExpireOverdue(ctx, a.ExpiresAt.Add(time.Second)); sweepErr != nil {
			return nil, sweepErr
		}
	}
	return a, err
}

func TestSubmitLosesRaceAgainstSweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	repo := &sweepingRepo{memoryAttemptRepo: newMemoryAttemptRepo()}
	svc := NewAttemptService(newStaticExamRepo(ieltsFixture()), repo, newTestAggregator(clock), nil, clock, AttemptSettings{})
	candidate := model.Principal{ID: 7, Role: model.RoleCandidate}

	attempt, err := svc.CreateOrResume(ctx, candidate, 1, false)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, candidate, attempt.ID)
	assert.True(t, errors.Is(err, ErrAttemptExpired))

	stored := repo.stored(attempt.ID)
	assert.Equal(t, model.StatusExpired, stored.Status)
	assert.Nil(t, stored.SubmittedAt, "an expired attempt is never resurrected")
}

func (s *AttemptServiceSuite) submitted() string {
	attempt := s.start()
	s.Require().NoError(s.answer(attempt.ID, 10, 101, "A"))
	s.Require().NoError(s.answer(attempt.ID, 10, 102, "C"))
	s.Require().NoError(s.answer(attempt.ID, 20, 201, "B"))
	_, err := s.svc.Submit(s.ctx, s.candidate, attempt.ID)
	s.Require().NoError(err)
	return attempt.ID
}

func (s *AttemptServiceSuite) TestGradeIsIdempotent() {
	id := s.submitted()

	first, err := s.svc.Grade(s.ctx, s.candidate, id)
	s.Require().NoError(err)
	s.Equal(2.0, first.Score)
	s.Equal(3.0, first.MaxScore)
	s.Require().NotNil(first.Scaled)
	s.Contains(first.BandScores, "Listening")
	s.Contains(first.BandScores, "Reading")

	stored := s.attempts.stored(id)
	s.Equal(model.StatusGraded, stored.Status)
	s.NotNil(stored.GradedAt)
	for _, e := range stored.SectionsStatus {
		s.Equal(model.StatusGraded, e.Status)
	}

	second, err := s.svc.Grade(s.ctx, s.grader, id)
	s.Require().NoError(err)
	s.Equal(first.Score, second.Score)
	s.Equal(first.MaxScore, second.MaxScore)
	s.Equal(first.Scaled, second.Scaled)
}

func (s *AttemptServiceSuite) TestGradeRequiresSubmission() {
	attempt := s.start()
	_, err := s.svc.Grade(s.ctx, s.candidate, attempt.ID)
	s.True(errors.Is(err, ErrInvalidState))

	id := s.submitted()
	_, err = s.svc.Grade(s.ctx, s.other, id)
	s.True(errors.Is(err, ErrForbidden))
}

func (s *AttemptServiceSuite) TestManualOverrideSurvivesRegrade() {
	id := s.submitted()

	_, err := s.svc.GradeManual(s.ctx, s.candidate, id, []dto.GradeUpdateDTO{{QuestionID: 102, Earned: 1}})
	s.True(errors.Is(err, ErrForbidden))

	scoring, err := s.svc.GradeManual(s.ctx, s.grader, id, []dto.GradeUpdateDTO{{QuestionID: 102, Earned: 1, Feedback: "accepted"}})
	s.Require().NoError(err)
	s.Equal(3.0, scoring.Score)
	s.Equal(model.StatusGraded, s.attempts.stored(id).Status)

	regraded, err := s.svc.Grade(s.ctx, s.grader, id)
	s.Require().NoError(err)
	s.Equal(3.0, regraded.Score)
}

func (s *AttemptServiceSuite) TestExternalOverrideFinalizesOnlyOnRequest() {
	id := s.submitted()

	_, err := s.svc.GradeExternal(s.ctx, s.grader, id, []dto.GradeUpdateDTO{{QuestionID: 102, Earned: 1}}, false)
	s.Require().NoError(err)
	s.Equal(model.StatusSubmitted, s.attempts.stored(id).Status)

	_, err = s.svc.GradeExternal(s.ctx, s.grader, id, []dto.GradeUpdateDTO{{QuestionID: 104, Earned: 1}}, true)
	s.Require().NoError(err)
	stored := s.attempts.stored(id)
	s.Equal(model.StatusGraded, stored.Status)
	s.Equal(4.0, stored.Scoring.Data().Score)
}

func (s *AttemptServiceSuite) TestCancel() {
	attempt := s.start()
	cancelled, err := s.svc.Cancel(s.ctx, s.candidate, attempt.ID, "")
	s.Require().NoError(err)
	s.Equal(string(model.StatusCancelled), cancelled.Status)
	s.Equal("cancelled_by_candidate", cancelled.CancelReason)

	_, err = s.svc.Cancel(s.ctx, s.candidate, attempt.ID, "again")
	s.True(errors.Is(err, ErrAttemptNotInProgress))
}

func (s *AttemptServiceSuite) TestExpire() {
	attempt := s.start()
	_, err := s.svc.Expire(s.ctx, s.candidate, attempt.ID, "", true)
	s.True(errors.Is(err, ErrForbidden), "candidates cannot force")

	expired, err := s.svc.Expire(s.ctx, s.candidate, attempt.ID, "", false)
	s.Require().NoError(err)
	s.Equal(string(model.StatusExpired), expired.Status)
	s.Equal("manual", expired.ExpireReason)
	stored := s.attempts.stored(attempt.ID)
	s.Require().NotNil(stored.ExpiredBy)
	s.Equal(s.candidate.ID, *stored.ExpiredBy)

	_, err = s.svc.Expire(s.ctx, s.grader, attempt.ID, "", true)
	s.True(errors.Is(err, ErrInvalidState), "terminal states are never left")
}

func (s *AttemptServiceSuite) TestForcedExpireOfSubmittedAttempt() {
	id := s.submitted()
	_, err := s.svc.Expire(s.ctx, s.candidate, id, "", false)
	s.True(errors.Is(err, ErrAttemptNotInProgress))

	expired, err := s.svc.Expire(s.ctx, s.grader, id, "abandoned", true)
	s.Require().NoError(err)
	s.Equal(string(model.StatusExpired), expired.Status)
	s.Equal("abandoned", expired.ExpireReason)
}

func (s *AttemptServiceSuite) TestStatusBuckets() {
	attempt := s.start()
	s.Require().NoError(s.answer(attempt.ID, 10, 101, "A"))

	status, err := s.svc.Status(s.ctx, s.candidate, attempt.ID)
	s.Require().NoError(err)
	s.Equal(TimeStatusNormal, status.TimeInfo.TimeStatus)
	s.Equal((60 * time.Minute).Milliseconds(), status.TimeInfo.RemainingMs)
	s.Equal(1, status.Progress.Answered)
	s.Equal(6, status.Progress.TotalQuestions)
	s.Equal(2, status.Progress.TotalSections)

	s.clock.Advance(50 * time.Minute)
	status, err = s.svc.Status(s.ctx, s.candidate, attempt.ID)
	s.Require().NoError(err)
	s.Equal(TimeStatusWarning, status.TimeInfo.TimeStatus)

	s.clock.Advance(6 * time.Minute)
	status, err = s.svc.Status(s.ctx, s.candidate, attempt.ID)
	s.Require().NoError(err)
	s.Equal(TimeStatusCritical, status.TimeInfo.TimeStatus)

	s.clock.Advance(5 * time.Minute)
	status, err = s.svc.Status(s.ctx, s.candidate, attempt.ID)
	s.Require().NoError(err)
	s.Equal(TimeStatusExpired, status.TimeInfo.TimeStatus)
	s.True(status.TimeInfo.IsExpired)
	s.Zero(status.TimeInfo.RemainingMs)
	s.Equal(string(model.StatusExpired), status.Status)
}

func (s *AttemptServiceSuite) TestStatusOfClosedAttempts() {
	id := s.submitted()
	status, err := s.svc.Status(s.ctx, s.candidate, id)
	s.Require().NoError(err)
	s.Equal(TimeStatusClosed, status.TimeInfo.TimeStatus)
	s.Zero(status.TimeInfo.RemainingMs)
	s.False(status.TimeInfo.IsExpired)

	s.clock.Advance(time.Minute)
	cancelled := s.start()
	_, err = s.svc.Cancel(s.ctx, s.candidate, cancelled.ID, "")
	s.Require().NoError(err)
	status, err = s.svc.Status(s.ctx, s.candidate, cancelled.ID)
	s.Require().NoError(err)
	s.Equal(TimeStatusClosed, status.TimeInfo.TimeStatus)
}

func TestTimeStatus(t *testing.T) {
	tests := []struct {
		status    model.AttemptStatus
		remaining time.Duration
		want      string
	}{
		{model.StatusInProgress, time.Hour, TimeStatusNormal},
		{model.StatusInProgress, 15 * time.Minute, TimeStatusNormal},
		{model.StatusInProgress, 14 * time.Minute, TimeStatusWarning},
		{model.StatusInProgress, 4 * time.Minute, TimeStatusCritical},
		{model.StatusInProgress, 0, TimeStatusExpired},
		{model.StatusExpired, time.Hour, TimeStatusExpired},
		{model.StatusSubmitted, time.Hour, TimeStatusClosed},
		{model.StatusGraded, time.Hour, TimeStatusClosed},
		{model.StatusCancelled, time.Hour, TimeStatusClosed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timeStatus(tt.status, tt.remaining), "%s with %s left", tt.status, tt.remaining)
	}
}

func (s *AttemptServiceSuite) TestReadsAreOwnerScoped() {
	attempt := s.start()
	_, err := s.svc.GetAttempt(s.ctx, s.other, attempt.ID)
	s.True(errors.Is(err, ErrForbidden))

	got, err := s.svc.GetAttempt(s.ctx, s.grader, attempt.ID)
	s.Require().NoError(err)
	s.Equal(attempt.ID, got.ID)
}

func (s *AttemptServiceSuite) TestListAndStats() {
	id := s.submitted()
	s.clock.Advance(time.Minute)
	s.start()

	list, err := s.svc.ListMyAttempts(s.ctx, s.candidate, 1)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(id, list[1].ID)
	s.Equal(2.0, list[1].Score)

	_, err = s.svc.AttemptStats(s.ctx, s.candidate, 1)
	s.True(errors.Is(err, ErrForbidden))

	stats, err := s.svc.AttemptStats(s.ctx, s.grader, 1)
	s.Require().NoError(err)
	s.EqualValues(2, stats.Total)
	s.EqualValues(1, stats.ByStatus[string(model.StatusSubmitted)])
	s.EqualValues(1, stats.ByStatus[string(model.StatusInProgress)])
}

func (s *AttemptServiceSuite) TestExpireOverdueSweep() {
	first := s.start()
	s.clock.Advance(61 * time.Minute)

	n, err := s.svc.ExpireOverdue(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, n)
	s.Equal(model.StatusExpired, s.attempts.stored(first.ID).Status)

	n, err = s.svc.ExpireOverdue(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

func TestGradeTranscribesPendingSpeech(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	exam := &model.Exam{
		ID:       2,
		Title:    "Speaking Mock",
		ExamType: model.ExamTypeIELTS,
		Sections: []model.Section{{
			ID: 30, ExamID: 2, SectionType: model.SectionSpeaking, DurationMinutes: 15,
			Parts: []model.Part{{ID: 31, SectionID: 30, Groups: []model.QuestionGroup{{ID: 32, PartID: 31, Questions: []model.Question{
				{ID: 301, QuestionType: "speaking_part_1", Prompt: "Describe your home town", CorrectAnswer: []byte(`"my home town is a quiet coastal village"`)},
			}}}}},
		}},
	}
	attempts := newMemoryAttemptRepo()
	transcriber := &fakeTranscriber{transcript: "my home town is a quiet coastal village near the sea"}
	svc := NewAttemptService(newStaticExamRepo(exam), attempts, newTestAggregator(clock), transcriber, clock, AttemptSettings{})
	candidate := model.Principal{ID: 3, Role: model.RoleCandidate}

	attempt, err := svc.CreateOrResume(ctx, candidate, 2, false)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(15*time.Minute), attempt.ExpiresAt)

	_, err = svc.RecordResponse(ctx, candidate, attempt.ID, dto.RecordResponseDTO{SectionID: 30, QuestionID: 301, AudioURL: "https://cdn/answer.webm"})
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, candidate, attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, submitted.Scoring)
	assert.Zero(t, submitted.Scoring.MaxScore, "untranscribed speech is not counted at submit")

	graded, err := svc.Grade(ctx, candidate, attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, graded.MaxScore)
	assert.Equal(t, 1.0, graded.Score)

	stored := attempts.stored(attempt.ID)
	assert.Equal(t, transcriber.transcript, stored.Responses[0].Response.Speech.Transcript)
}
