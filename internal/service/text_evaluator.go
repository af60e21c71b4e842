package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/lshigami/examcore/internal/model"
	"github.com/rs/zerolog/log"
)

const (
	EvaluationSourceJudge     = "judge"
	EvaluationSourceHeuristic = "heuristic"
	EvaluationSourceEmpty     = "empty"

	heuristicLengthWeight   = 0.3
	heuristicCoverageWeight = 0.7
)

type EvaluationRequest struct {
	ExamType        model.ExamType
	SectionType     model.SectionType
	QuestionText    string
	ReferenceAnswer string
	CandidateAnswer string
}

type Evaluation struct {
	Fraction    float64 `json:"fraction"`
	Explanation string  `json:"explanation"`
	Source      string  `json:"source"`
}

// TextJudge is a remote quality judge returning a score in [0,1].
type TextJudge interface {
	Judge(ctx context.Context, req EvaluationRequest) (score float64, explanation string, err error)
}

type TextEvaluator interface {
	Evaluate(ctx context.Context, req EvaluationRequest) Evaluation
}

type textEvaluator struct {
	judge   TextJudge
	timeout time.Duration
}

// NewTextEvaluator wraps judge with a per-call timeout and the deterministic
// heuristic fallback. A nil judge always uses the heuristic.
func NewTextEvaluator(judge TextJudge, timeout time.Duration) TextEvaluator {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &textEvaluator{judge: judge, timeout: timeout}
}

func (e *textEvaluator) Evaluate(ctx context.Context, req EvaluationRequest) Evaluation {
	if strings.TrimSpace(req.CandidateAnswer) == "" {
		return Evaluation{Fraction: 0, Explanation: "No answer provided.", Source: EvaluationSourceEmpty}
	}
	if e.judge == nil {
		return HeuristicEvaluation(req)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	score, explanation, err := e.judge.Judge(callCtx, req)
	if err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", ErrEvaluatorUnavailable, err)).
			Str("sectionType", string(req.SectionType)).
			Msg("Text judge failed, using heuristic evaluation")
		return HeuristicEvaluation(req)
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		log.Warn().Float64("score", score).Str("sectionType", string(req.SectionType)).
			Msg("Text judge returned an out-of-range score, using heuristic evaluation")
		return HeuristicEvaluation(req)
	}
	return Evaluation{Fraction: score, Explanation: strings.TrimSpace(explanation), Source: EvaluationSourceJudge}
}

// HeuristicEvaluation scores an answer without any remote call: a length
// score against the target word range blended with the share of distinctive
// reference terms the answer covers. It is deterministic and side-effect free.
func HeuristicEvaluation(req EvaluationRequest) Evaluation {
	words := len(strings.Fields(req.CandidateAnswer))
	if words == 0 {
		return Evaluation{Fraction: 0, Explanation: "No answer provided.", Source: EvaluationSourceEmpty}
	}

	minWords, maxWords := targetLength(req)
	lengthScore := 1.0
	switch {
	case words < minWords:
		lengthScore = float64(words) / float64(minWords)
	case words > maxWords:
		lengthScore = float64(maxWords) / float64(words)
	}

	keyTerms := distinctiveTokens(req.ReferenceAnswer)
	coverage := lengthScore
	if len(keyTerms) > 0 {
		answerTerms := tokenSet(req.CandidateAnswer)
		found := 0
		for term := range keyTerms {
			if answerTerms[term] {
				found++
			}
		}
		coverage = float64(found) / float64(len(keyTerms))
	}

	fraction := clamp(heuristicLengthWeight*lengthScore+heuristicCoverageWeight*coverage, 0, 1)
	return Evaluation{
		Fraction: fraction,
		Explanation: fmt.Sprintf("Estimated without the remote judge: %d words (target %d-%d), %.0f%% of key terms covered.",
			words, minWords, maxWords, coverage*100),
		Source: EvaluationSourceHeuristic,
	}
}

func targetLength(req EvaluationRequest) (int, int) {
	if ref := len(strings.Fields(req.ReferenceAnswer)); ref > 0 {
		lo := (ref + 1) / 2
		if lo < 1 {
			lo = 1
		}
		return lo, ref * 2
	}
	switch req.SectionType {
	case model.SectionWriting, model.SectionAnalyticalWriting:
		return 150, 350
	case model.SectionSpeaking:
		return 40, 200
	}
	return 1, 200
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// distinctiveTokens keeps reference words longer than three characters.
func distinctiveTokens(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range splitWords(s) {
		if utf8.RuneCountInString(w) > 3 {
			out[w] = true
		}
	}
	return out
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range splitWords(s) {
		out[w] = true
	}
	return out
}
