package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lshigami/examcore/internal/dto"
	"github.com/lshigami/examcore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregator(clock Clock) ScoreAggregator {
	return NewScoreAggregator(NewAnswerComparator(nil, testThresholds), NewScoreConverterService(), clock, 4)
}

func respond(sectionID, questionID uint, v model.ResponseValue) model.Response {
	return model.Response{SectionID: sectionID, QuestionID: questionID, Response: v}
}

func TestScoreThreeOfFour(t *testing.T) {
	agg := newTestAggregator(newFakeClock())
	exam := ieltsFixture()

	scoring := agg.Score(context.Background(), AggregateInput{
		Exam: exam,
		Responses: []model.Response{
			respond(10, 101, model.ScalarValue("A")),
			respond(10, 102, model.ScalarValue("a")),
			respond(10, 103, model.ScalarValue("A")),
			respond(10, 104, model.ScalarValue("C")),
		},
	})

	assert.Equal(t, 3.0, scoring.Score)
	assert.Equal(t, 4.0, scoring.MaxScore)
	assert.Equal(t, 0.75, scoring.Accuracy)
	require.Len(t, scoring.PerQuestion, 4)
	for _, r := range scoring.PerQuestion {
		assert.Equal(t, uint(10), r.SectionID)
		assert.Equal(t, uint(11), r.PartID)
		assert.Equal(t, uint(12), r.GroupID)
		assert.Equal(t, model.SourceAuto, r.Source)
	}
	require.NotNil(t, scoring.Scaled)
	assert.Equal(t, 7.0, scoring.Scaled.SectionScores["Listening"])
	assert.Equal(t, 7.0, scoring.Scaled.Score)
	assert.NotNil(t, scoring.ComputedAt)
}

func TestScoreSkipsOrphansAndOtherSections(t *testing.T) {
	agg := newTestAggregator(newFakeClock())
	scoring := agg.Score(context.Background(), AggregateInput{
		Exam:      ieltsFixture(),
		SectionID: 20,
		Responses: []model.Response{
			respond(10, 101, model.ScalarValue("A")),
			respond(20, 201, model.ScalarValue("B")),
			respond(20, 999, model.ScalarValue("B")),
		},
	})
	require.Len(t, scoring.PerQuestion, 1)
	assert.Equal(t, uint(201), scoring.PerQuestion[0].QuestionID)
	assert.Equal(t, 1.0, scoring.Accuracy)
}

func TestScoreWithNoResponses(t *testing.T) {
	agg := newTestAggregator(newFakeClock())
	scoring := agg.Score(context.Background(), AggregateInput{Exam: ieltsFixture()})
	assert.Zero(t, scoring.MaxScore)
	assert.Zero(t, scoring.Accuracy)
	assert.NotNil(t, scoring.PerQuestion)
	assert.Nil(t, scoring.Scaled)
}

func TestSummarizeExcludesUngraded(t *testing.T) {
	agg := newTestAggregator(newFakeClock())
	scoring := agg.Summarize(ieltsFixture(), []model.QuestionResult{
		{QuestionID: 101, SectionID: 10, Graded: true, IsCorrect: true, Earned: 1, Max: 1},
		{QuestionID: 102, SectionID: 10, Graded: false, Max: 1},
	})
	assert.Equal(t, 1.0, scoring.MaxScore)
	assert.Len(t, scoring.PerQuestion, 2)
}

func TestSectionSummaryBand(t *testing.T) {
	agg := newTestAggregator(newFakeClock())
	res := agg.SectionSummary(ieltsFixture(), []model.QuestionResult{
		{QuestionID: 101, SectionID: 10, Graded: true, Earned: 1, Max: 1},
		{QuestionID: 102, SectionID: 10, Graded: true, Earned: 0, Max: 1},
		{QuestionID: 201, SectionID: 20, Graded: true, Earned: 1, Max: 1},
	}, 10)
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, 2.0, res.MaxScore)
	assert.Equal(t, 0.5, res.Accuracy)
	require.NotNil(t, res.BandScore)
	assert.Equal(t, 5.5, *res.BandScore)
}

func TestMergeOverrides(t *testing.T) {
	agg := newTestAggregator(newFakeClock())
	exam := ieltsFixture()
	existing := []model.QuestionResult{
		{QuestionID: 101, SectionID: 10, Graded: true, IsCorrect: true, Earned: 1, Max: 1, Source: model.SourceAuto},
		{QuestionID: 102, SectionID: 10, Graded: true, IsCorrect: false, Earned: 0, Max: 1, Source: model.SourceAuto},
	}

	merged, err := agg.MergeOverrides(exam, existing, []dto.GradeUpdateDTO{
		{QuestionID: 102, Earned: 1, Feedback: "accepted on review"},
		{QuestionID: 201, Earned: 0.5},
	}, model.SourceManual)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	assert.Equal(t, model.SourceAuto, merged[0].Source)
	assert.Equal(t, uint(102), merged[1].QuestionID)
	assert.True(t, merged[1].IsCorrect)
	assert.Equal(t, model.SourceManual, merged[1].Source)
	assert.Equal(t, "accepted on review", merged[1].Feedback)

	assert.Equal(t, uint(201), merged[2].QuestionID)
	assert.Equal(t, uint(20), merged[2].SectionID)
	assert.Equal(t, uint(22), merged[2].GroupID)
	assert.False(t, merged[2].IsCorrect)

	assert.Equal(t, model.SourceAuto, existing[1].Source, "input is not modified")
}

func TestMergeOverridesValidation(t *testing.T) {
	agg := newTestAggregator(newFakeClock())
	exam := ieltsFixture()

	_, err := agg.MergeOverrides(exam, nil, []dto.GradeUpdateDTO{{QuestionID: 999, Earned: 1}}, model.SourceManual)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = agg.MergeOverrides(exam, nil, []dto.GradeUpdateDTO{{QuestionID: 101, Earned: 2}}, model.SourceManual)
	assert.True(t, errors.Is(err, ErrValidation))

	max := 10.0
	merged, err := agg.MergeOverrides(exam, nil, []dto.GradeUpdateDTO{{QuestionID: 999, SectionID: 20, Earned: 7, Max: &max}}, model.SourceExternal)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, 10.0, merged[0].Max)
}

func TestScoreKeepsOneResultPerQuestion(t *testing.T) {
	agg := newTestAggregator(newFakeClock())
	dup := respond(20, 201, model.ScalarValue("B"))
	dup.PartID = 900
	scoring := agg.Score(context.Background(), AggregateInput{
		Exam: ieltsFixture(),
		Responses: []model.Response{
			respond(20, 201, model.ScalarValue("C")),
			dup,
			respond(10, 201, model.ScalarValue("B")),
		},
	})

	require.Len(t, scoring.PerQuestion, 1)
	assert.Equal(t, uint(21), scoring.PerQuestion[0].PartID)
	assert.Equal(t, 1.0, scoring.Score)
	assert.Equal(t, 1.0, scoring.MaxScore)
}

func fullListeningExam() *model.Exam {
	questions := make([]model.Question, 40)
	for i := range questions {
		questions[i] = mcq(uint(1001+i), "A")
	}
	return &model.Exam{
		ID:       2,
		ExamType: model.ExamTypeIELTS,
		Variant:  model.VariantAcademic,
		Sections: []model.Section{{
			ID: 50, ExamID: 2, SectionType: model.SectionListening,
			Parts: []model.Part{{ID: 51, SectionID: 50, Groups: []model.QuestionGroup{{ID: 52, PartID: 51, Questions: questions}}}},
		}},
	}
}

func TestScoreFullListeningSection(t *testing.T) {
	agg := newTestAggregator(newFakeClock())
	exam := fullListeningExam()

	tests := []struct {
		correct int
		band    float64
	}{
		{40, 9.0},
		{36, 8.0},
		{32, 7.5},
		{31, 7.0},
		{25, 6.0},
		{17, 5.0},
		{0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of 40", tt.correct), func(t *testing.T) {
			var responses []model.Response
			for i := 0; i < 40; i++ {
				answer := "B"
				if i < tt.correct {
					answer = "A"
				}
				responses = append(responses, respond(50, uint(1001+i), model.ScalarValue(answer)))
			}
			scoring := agg.Score(context.Background(), AggregateInput{Exam: exam, Responses: responses})

			assert.Equal(t, float64(tt.correct), scoring.Score)
			assert.Equal(t, 40.0, scoring.MaxScore)
			require.NotNil(t, scoring.Scaled)
			assert.Equal(t, tt.band, scoring.Scaled.SectionScores["Listening"])

			section := agg.SectionSummary(exam, scoring.PerQuestion, 50)
			require.NotNil(t, section.BandScore)
			assert.Equal(t, tt.band, *section.BandScore)
		})
	}
}

func essayExam(n int) *model.Exam {
	questions := make([]model.Question, n)
	for i := range questions {
		questions[i] = model.Question{
			ID:            uint(401 + i),
			QuestionType:  "essay",
			Prompt:        "Discuss both views.",
			CorrectAnswer: []byte(`"public transport reduces congestion"`),
			Weight:        1,
		}
	}
	return &model.Exam{
		ID:       3,
		ExamType: model.ExamTypeGeneral,
		Sections: []model.Section{{
			ID: 60, ExamID: 3, SectionType: model.SectionWriting,
			Parts: []model.Part{{ID: 61, SectionID: 60, Groups: []model.QuestionGroup{{ID: 62, PartID: 61, Questions: questions}}}},
		}},
	}
}

// pickyJudge fails for one candidate answer and scores the rest.
type pickyJudge struct {
	failOn string
}

func (j *pickyJudge) Judge(ctx context.Context, req EvaluationRequest) (float64, string, error) {
	if req.CandidateAnswer == j.failOn {
		return 0, "", errors.New("upstream 503")
	}
	return 0.9, "judged", nil
}

func TestScoreDeepIsolatesJudgeFailure(t *testing.T) {
	judge := &pickyJudge{failOn: "second essay"}
	agg := NewScoreAggregator(NewAnswerComparator(NewTextEvaluator(judge, time.Second), testThresholds), NewScoreConverterService(), newFakeClock(), 4)

	scoring := agg.Score(context.Background(), AggregateInput{
		Exam: essayExam(3),
		Deep: true,
		Responses: []model.Response{
			respond(60, 401, model.ScalarValue("first essay")),
			respond(60, 402, model.ScalarValue("second essay")),
			respond(60, 403, model.ScalarValue("third essay")),
		},
	})

	require.Len(t, scoring.PerQuestion, 3)
	for _, r := range scoring.PerQuestion {
		assert.True(t, r.Graded)
		if r.QuestionID == 402 {
			assert.NotEqual(t, "judged", r.Feedback)
			continue
		}
		assert.True(t, r.IsCorrect)
		assert.Equal(t, "judged", r.Feedback)
	}
	assert.Equal(t, 3.0, scoring.MaxScore)
	assert.GreaterOrEqual(t, scoring.Score, 2.0)
}

// gaugedJudge records the peak number of calls in flight.
type gaugedJudge struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (j *gaugedJudge) Judge(ctx context.Context, req EvaluationRequest) (float64, string, error) {
	n := j.inFlight.Add(1)
	defer j.inFlight.Add(-1)
	for {
		p := j.peak.Load()
		if n <= p || j.peak.CompareAndSwap(p, n) {
			break
		}
	}
	j.calls.Add(1)
	time.Sleep(10 * time.Millisecond)
	return 0.9, "judged", nil
}

func TestScoreDeepBoundsConcurrentJudgeCalls(t *testing.T) {
	judge := &gaugedJudge{}
	agg := NewScoreAggregator(NewAnswerComparator(NewTextEvaluator(judge, time.Second), testThresholds), NewScoreConverterService(), newFakeClock(), 2)

	var responses []model.Response
	for i := 0; i < 8; i++ {
		responses = append(responses, respond(60, uint(401+i), model.ScalarValue(fmt.Sprintf("essay %d", i))))
	}
	scoring := agg.Score(context.Background(), AggregateInput{Exam: essayExam(8), Deep: true, Responses: responses})

	assert.EqualValues(t, 8, judge.calls.Load())
	assert.LessOrEqual(t, judge.peak.Load(), int32(2))
	assert.Equal(t, 8.0, scoring.Score)
}
