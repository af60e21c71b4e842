package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/lshigami/examcore/config"
	"github.com/lshigami/examcore/internal/model"
)

// Thresholds are the minimum normalized evaluator scores at which a long
// answer counts as correct, per section type.
type Thresholds struct {
	Generic  float64
	Writing  float64
	Speaking float64
}

func NewThresholds(cfg *config.Config) Thresholds {
	return Thresholds{
		Generic:  cfg.Grading.GenericThreshold,
		Writing:  cfg.Grading.WritingThreshold,
		Speaking: cfg.Grading.SpeakingThreshold,
	}
}

func (t Thresholds) For(sectionType model.SectionType) float64 {
	switch sectionType {
	case model.SectionWriting, model.SectionAnalyticalWriting:
		return t.Writing
	case model.SectionSpeaking:
		return t.Speaking
	}
	return t.Generic
}

type QuestionContext struct {
	Question    model.Question
	ExamType    model.ExamType
	SectionType model.SectionType
}

// Verdict is the comparator's outcome. Graded is false only when correctness
// cannot be decided yet, e.g. untranscribed speech.
type Verdict struct {
	Correct  bool
	Graded   bool
	Fraction float64
	Feedback string
}

type AnswerComparator interface {
	Compare(ctx context.Context, q QuestionContext, answer model.ResponseValue, deep bool) Verdict
}

type answerComparator struct {
	evaluator  TextEvaluator
	thresholds Thresholds
}

func NewAnswerComparator(evaluator TextEvaluator, thresholds Thresholds) AnswerComparator {
	return &answerComparator{evaluator: evaluator, thresholds: thresholds}
}

func objective(ok bool) Verdict {
	if ok {
		return Verdict{Correct: true, Graded: true, Fraction: 1}
	}
	return Verdict{Graded: true}
}

// Compare dispatches on the canonical question type. With deep unset, long
// answers are scored by the local heuristic only and the remote judge is
// never called.
func (c *answerComparator) Compare(ctx context.Context, q QuestionContext, answer model.ResponseValue, deep bool) Verdict {
	ref := q.Question.Reference()
	if ref.Kind == model.KindNone {
		return Verdict{Graded: true, Feedback: "No reference answer is defined for this question."}
	}
	if answer.IsEmpty() {
		return Verdict{Graded: true, Feedback: "No answer provided."}
	}

	switch model.NormalizeQuestionType(q.Question.QuestionType) {
	case model.TypeSingleChoice:
		given, ok := singleItem(answer)
		return objective(ok && strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(firstItem(ref))))
	case model.TypeMultiChoice:
		return objective(sameSet(answer.Items(), ref.Items()))
	case model.TypeOrdering:
		return objective(sameSequence(answer.Items(), ref.Items()))
	case model.TypeShortText:
		single, ok := singleItem(answer)
		if !ok {
			return objective(false)
		}
		given := normalizeText(single)
		for _, accepted := range ref.Items() {
			if given == normalizeText(accepted) {
				return objective(true)
			}
		}
		return objective(false)
	case model.TypeSpeaking:
		if answer.AwaitingTranscript() {
			return Verdict{Graded: false, Feedback: "Awaiting transcription of the recorded answer."}
		}
		return c.evaluate(ctx, q, ref, answer, deep)
	case model.TypeLongText:
		return c.evaluate(ctx, q, ref, answer, deep)
	}
	return objective(answer.Text() == ref.Text())
}

func (c *answerComparator) evaluate(ctx context.Context, q QuestionContext, ref, answer model.ResponseValue, deep bool) Verdict {
	req := EvaluationRequest{
		ExamType:        q.ExamType,
		SectionType:     q.SectionType,
		QuestionText:    q.Question.Prompt,
		ReferenceAnswer: ref.Text(),
		CandidateAnswer: answer.Text(),
	}
	var ev Evaluation
	if deep && c.evaluator != nil {
		ev = c.evaluator.Evaluate(ctx, req)
	} else {
		ev = HeuristicEvaluation(req)
	}
	return Verdict{
		Correct:  ev.Fraction >= c.thresholds.For(q.SectionType),
		Graded:   true,
		Fraction: ev.Fraction,
		Feedback: ev.Explanation,
	}
}

func firstItem(v model.ResponseValue) string {
	items := v.Items()
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

// singleItem unwraps a scalar or a one-element list. Any other shape cannot
// match a single expected answer.
func singleItem(v model.ResponseValue) (string, bool) {
	items := v.Items()
	if len(items) != 1 {
		return "", false
	}
	return items[0], true
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func sameSet(a, b []string) bool {
	setA := map[string]bool{}
	for _, s := range a {
		setA[normalizeText(s)] = true
	}
	setB := map[string]bool{}
	for _, s := range b {
		setB[normalizeText(s)] = true
	}
	if len(setA) != len(setB) {
		return false
	}
	for k := range setA {
		if !setB[k] {
			return false
		}
	}
	return true
}

// sameSequence compares element-wise, coercing both sides to numbers when
// they parse as numbers.
func sameSequence(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, errX := strconv.ParseFloat(strings.TrimSpace(a[i]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(b[i]), 64)
		if errX == nil && errY == nil {
			if x != y {
				return false
			}
			continue
		}
		if normalizeText(a[i]) != normalizeText(b[i]) {
			return false
		}
	}
	return true
}
