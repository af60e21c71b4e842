package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lshigami/examcore/internal/model"
	"github.com/lshigami/examcore/internal/repository"
	"gorm.io/datatypes"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type staticExamRepo struct {
	exams map[uint]*model.Exam
}

func newStaticExamRepo(exams ...*model.Exam) *staticExamRepo {
	r := &staticExamRepo{exams: map[uint]*model.Exam{}}
	for _, e := range exams {
		r.exams[e.ID] = e
	}
	return r
}

func (r *staticExamRepo) Create(ctx context.Context, exam *model.Exam) error {
	for _, e := range r.exams {
		if e.Title == exam.Title {
			return repository.ErrDuplicate
		}
	}
	exam.ID = uint(len(r.exams) + 1)
	r.exams[exam.ID] = exam
	return nil
}

func (r *staticExamRepo) FindByIDWithContent(ctx context.Context, id uint) (*model.Exam, error) {
	e, ok := r.exams[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return e, nil
}

func (r *staticExamRepo) FindAllWithSectionCount(ctx context.Context) ([]repository.ExamWithSectionCount, error) {
	var out []repository.ExamWithSectionCount
	for _, e := range r.exams {
		out = append(out, repository.ExamWithSectionCount{Exam: *e, SectionCount: len(e.Sections)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memoryAttemptRepo hands out copies so that a stale in-memory attempt never
// aliases the stored row.
type memoryAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]model.Attempt
	saves    int
}

func newMemoryAttemptRepo() *memoryAttemptRepo {
	return &memoryAttemptRepo{attempts: map[string]model.Attempt{}}
}

func cloneAttempt(a model.Attempt) model.Attempt {
	a.SectionsStatus = append(datatypes.JSONSlice[model.SectionStatus]{}, a.SectionsStatus...)
	a.Responses = append(datatypes.JSONSlice[model.Response]{}, a.Responses...)
	scoring := a.Scoring.Data()
	scoring.PerQuestion = append([]model.QuestionResult{}, scoring.PerQuestion...)
	a.Scoring = datatypes.NewJSONType(scoring)
	return a
}

func (r *memoryAttemptRepo) Create(ctx context.Context, attempt *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[attempt.ID] = cloneAttempt(*attempt)
	return nil
}

func (r *memoryAttemptRepo) FindByID(ctx context.Context, id string) (*model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	c := cloneAttempt(a)
	return &c, nil
}

func (r *memoryAttemptRepo) FindActive(ctx context.Context, candidateID, examID uint, attemptType model.AttemptType, sectionID uint) (*model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *model.Attempt
	for _, a := range r.attempts {
		if a.CandidateID != candidateID || a.ExamID != examID || a.AttemptType != attemptType || a.Status != model.StatusInProgress {
			continue
		}
		if attemptType == model.AttemptSectionOnly && (a.ActiveSectionID == nil || *a.ActiveSectionID != sectionID) {
			continue
		}
		if found == nil || a.StartedAt.After(found.StartedAt) {
			c := cloneAttempt(a)
			found = &c
		}
	}
	if found == nil {
		return nil, repository.ErrRecordNotFound
	}
	return found, nil
}

func (r *memoryAttemptRepo) ListByCandidateAndExam(ctx context.Context, candidateID, examID uint) ([]model.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Attempt
	for _, a := range r.attempts {
		if a.CandidateID == candidateID && a.ExamID == examID {
			out = append(out, cloneAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (r *memoryAttemptRepo) CountByStatus(ctx context.Context, examID uint) (map[model.AttemptStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[model.AttemptStatus]int64{}
	for _, a := range r.attempts {
		if a.ExamID == examID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (r *memoryAttemptRepo) Save(ctx context.Context, attempt *model.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.attempts[attempt.ID] = cloneAttempt(*attempt)
	return nil
}

func (r *memoryAttemptRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, a := range r.attempts {
		if a.Status == model.StatusInProgress && a.ExpiresAt.Before(now) {
			a.Status = model.StatusExpired
			a.ExpiredAt = &now
			a.ExpireReason = model.ExpireReasonTimeLimit
			r.attempts[id] = a
			n++
		}
	}
	return n, nil
}

func (r *memoryAttemptRepo) stored(id string) model.Attempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAttempt(r.attempts[id])
}

func mcq(id uint, correct string) model.Question {
	return model.Question{ID: id, QuestionType: "mcq", Prompt: "Choose one", CorrectAnswer: datatypes.JSON(`"` + correct + `"`), Weight: 1}
}

// ieltsFixture is a two-section IELTS exam: listening questions 101-104
// (answer A) and reading questions 201-202 (answer B).
func ieltsFixture() *model.Exam {
	return &model.Exam{
		ID:              1,
		Title:           "IELTS Academic Mock 1",
		ExamType:        model.ExamTypeIELTS,
		Variant:         model.VariantAcademic,
		DurationMinutes: 60,
		Sections: []model.Section{
			{
				ID: 10, ExamID: 1, SectionType: model.SectionListening, OrderInExam: 1,
				Parts: []model.Part{{ID: 11, SectionID: 10, Groups: []model.QuestionGroup{{ID: 12, PartID: 11, Questions: []model.Question{
					mcq(101, "A"), mcq(102, "A"), mcq(103, "A"), mcq(104, "A"),
				}}}}},
			},
			{
				ID: 20, ExamID: 1, SectionType: model.SectionReading, OrderInExam: 2,
				Parts: []model.Part{{ID: 21, SectionID: 20, Groups: []model.QuestionGroup{{ID: 22, PartID: 21, Questions: []model.Question{
					mcq(201, "B"), mcq(202, "B"),
				}}}}},
			},
		},
	}
}
