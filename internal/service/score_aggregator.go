package service

import (
	"context"

	"github.com/lshigami/examcore/internal/dto"
	"github.com/lshigami/examcore/internal/model"
	"golang.org/x/sync/errgroup"
)

// questionRef locates a question inside the exam tree.
type questionRef struct {
	Question    model.Question
	SectionID   uint
	PartID      uint
	GroupID     uint
	SectionType model.SectionType
}

type examIndex map[uint]questionRef

func indexExam(exam *model.Exam) examIndex {
	idx := examIndex{}
	for _, s := range exam.Sections {
		for _, p := range s.Parts {
			for _, g := range p.Groups {
				for _, q := range g.Questions {
					idx[q.ID] = questionRef{Question: q, SectionID: s.ID, PartID: p.ID, GroupID: g.ID, SectionType: s.SectionType}
				}
			}
		}
	}
	return idx
}

type AggregateInput struct {
	Exam      *model.Exam
	Responses []model.Response
	// SectionID limits scoring to one section; zero scores the whole exam.
	SectionID uint
	// Deep lets long-text and speaking answers reach the remote text judge.
	Deep bool
}

type SectionResult struct {
	Score     float64
	MaxScore  float64
	Accuracy  float64
	BandScore *float64
}

type ScoreAggregator interface {
	Score(ctx context.Context, in AggregateInput) model.Scoring
	Summarize(exam *model.Exam, perQuestion []model.QuestionResult) model.Scoring
	SectionSummary(exam *model.Exam, perQuestion []model.QuestionResult, sectionID uint) SectionResult
	MergeOverrides(exam *model.Exam, existing []model.QuestionResult, updates []dto.GradeUpdateDTO, source string) ([]model.QuestionResult, error)
}

type scoreAggregator struct {
	comparator     AnswerComparator
	converter      ScoreConverterService
	clock          Clock
	maxConcurrency int
}

func NewScoreAggregator(comparator AnswerComparator, converter ScoreConverterService, clock Clock, maxConcurrency int) ScoreAggregator {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &scoreAggregator{
		comparator:     comparator,
		converter:      converter,
		clock:          clock,
		maxConcurrency: maxConcurrency,
	}
}

type gradingJob struct {
	ref      questionRef
	response model.Response
}

// Score grades every response against the exam tree and converts the totals
// with the exam's standard. Responses to questions missing from the tree are
// skipped and each question is scored once. Comparisons run concurrently up
// to maxConcurrency; a failing remote judge only degrades its own question to
// the heuristic.
func (a *scoreAggregator) Score(ctx context.Context, in AggregateInput) model.Scoring {
	idx := indexExam(in.Exam)

	var jobs []gradingJob
	seen := map[uint]int{}
	for _, r := range in.Responses {
		ref, ok := idx[r.QuestionID]
		if !ok {
			continue
		}
		if in.SectionID != 0 && ref.SectionID != in.SectionID {
			continue
		}
		// the latest response to a question wins
		if i, dup := seen[r.QuestionID]; dup {
			jobs[i].response = r
			continue
		}
		seen[r.QuestionID] = len(jobs)
		jobs = append(jobs, gradingJob{ref: ref, response: r})
	}

	results := make([]model.QuestionResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(a.maxConcurrency)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			verdict := a.comparator.Compare(ctx, QuestionContext{
				Question:    job.ref.Question,
				ExamType:    in.Exam.ExamType,
				SectionType: job.ref.SectionType,
			}, job.response.Response, in.Deep)
			results[i] = resultFromVerdict(job.ref, verdict)
			return nil
		})
	}
	_ = g.Wait()

	return a.Summarize(in.Exam, results)
}

func resultFromVerdict(ref questionRef, v Verdict) model.QuestionResult {
	weight := ref.Question.EffectiveWeight()
	earned := 0.0
	if v.Correct {
		earned = weight
	}
	feedback := v.Feedback
	if feedback == "" && !v.Correct && ref.Question.Explanation != "" {
		feedback = ref.Question.Explanation
	}
	return model.QuestionResult{
		QuestionID: ref.Question.ID,
		SectionID:  ref.SectionID,
		PartID:     ref.PartID,
		GroupID:    ref.GroupID,
		IsCorrect:  v.Correct,
		Graded:     v.Graded,
		Earned:     earned,
		Max:        weight,
		Feedback:   feedback,
		Source:     model.SourceAuto,
	}
}

// Summarize recomputes totals and the scaled score from perQuestion alone.
// Ungraded entries are kept but do not count toward the totals.
func (a *scoreAggregator) Summarize(exam *model.Exam, perQuestion []model.QuestionResult) model.Scoring {
	var score, max float64
	tallies := map[uint]*SectionTally{}
	for _, r := range perQuestion {
		if !r.Graded {
			continue
		}
		score += r.Earned
		max += r.Max
		t, ok := tallies[r.SectionID]
		if !ok {
			t = &SectionTally{SectionID: r.SectionID}
			tallies[r.SectionID] = t
		}
		t.Earned += r.Earned
		t.Max += r.Max
		if r.Criteria != nil {
			t.Criteria = append(t.Criteria, *r.Criteria)
		}
	}

	// Tallies follow the exam's section order.
	var ordered []SectionTally
	for _, s := range exam.Sections {
		if t, ok := tallies[s.ID]; ok {
			t.SectionType = s.SectionType
			ordered = append(ordered, *t)
		}
	}

	now := a.clock.Now()
	if perQuestion == nil {
		perQuestion = []model.QuestionResult{}
	}
	return model.Scoring{
		Score:       score,
		MaxScore:    max,
		Accuracy:    ratio(score, max),
		PerQuestion: perQuestion,
		Scaled:      a.converter.Scale(exam, ordered),
		ComputedAt:  &now,
	}
}

func (a *scoreAggregator) SectionSummary(exam *model.Exam, perQuestion []model.QuestionResult, sectionID uint) SectionResult {
	var res SectionResult
	var criteria []model.BandCriteria
	for _, r := range perQuestion {
		if r.SectionID != sectionID || !r.Graded {
			continue
		}
		res.Score += r.Earned
		res.MaxScore += r.Max
		if r.Criteria != nil {
			criteria = append(criteria, *r.Criteria)
		}
	}
	res.Accuracy = ratio(res.Score, res.MaxScore)
	if exam.ExamType == model.ExamTypeIELTS {
		if s := exam.SectionByID(sectionID); s != nil {
			band := a.converter.SectionBand(exam, s.SectionType, res.Score, res.MaxScore, criteria)
			res.BandScore = &band
		}
	}
	return res
}

// MergeOverrides applies grader updates to perQuestion: an update replaces
// the entry for its question, or is appended when none exists.
func (a *scoreAggregator) MergeOverrides(exam *model.Exam, existing []model.QuestionResult, updates []dto.GradeUpdateDTO, source string) ([]model.QuestionResult, error) {
	idx := indexExam(exam)
	merged := make([]model.QuestionResult, len(existing))
	copy(merged, existing)

	for _, u := range updates {
		entry, err := overrideEntry(idx, u, source)
		if err != nil {
			return nil, err
		}

		replaced := false
		out := merged[:0]
		for _, r := range merged {
			if r.QuestionID == entry.QuestionID && (u.SectionID == 0 || r.SectionID == entry.SectionID) {
				if !replaced {
					out = append(out, entry)
					replaced = true
				}
				continue
			}
			out = append(out, r)
		}
		merged = out
		if !replaced {
			merged = append(merged, entry)
		}
	}
	return merged, nil
}

func overrideEntry(idx examIndex, u dto.GradeUpdateDTO, source string) (model.QuestionResult, error) {
	if u.QuestionID == 0 {
		return model.QuestionResult{}, validationErr("questionId is required")
	}
	entry := model.QuestionResult{
		QuestionID: u.QuestionID,
		SectionID:  u.SectionID,
		PartID:     u.PartID,
		GroupID:    u.GroupID,
		Graded:     true,
		Earned:     u.Earned,
		Max:        1,
		Feedback:   u.Feedback,
		Source:     source,
		Criteria:   u.Criteria,
	}
	if ref, ok := idx[u.QuestionID]; ok {
		entry.SectionID = ref.SectionID
		entry.PartID = ref.PartID
		entry.GroupID = ref.GroupID
		entry.Max = ref.Question.EffectiveWeight()
	} else if u.SectionID == 0 {
		return model.QuestionResult{}, validationErr("question %d is not part of the exam", u.QuestionID)
	}
	if u.Max != nil {
		entry.Max = *u.Max
	}
	if entry.Max <= 0 {
		return model.QuestionResult{}, validationErr("max for question %d must be positive", u.QuestionID)
	}
	if entry.Earned < 0 || entry.Earned > entry.Max {
		return model.QuestionResult{}, validationErr("earned %.2f for question %d is outside 0..%.2f", entry.Earned, u.QuestionID, entry.Max)
	}
	if u.IsCorrect != nil {
		entry.IsCorrect = *u.IsCorrect
	} else {
		entry.IsCorrect = entry.Earned >= entry.Max
	}
	return entry, nil
}

func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}
