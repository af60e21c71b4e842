package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/examcore/config"
	"github.com/lshigami/examcore/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type geminiJudge struct {
	client *genai.GenerativeModel
}

// NewGeminiJudge returns a nil judge when no API key is configured, leaving
// the evaluator on its heuristic.
func NewGeminiJudge(cfg *config.Config) (TextJudge, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Long answers will be scored heuristically.")
		return nil, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	gm := client.GenerativeModel(cfg.Evaluator.GeminiModel)
	gm.SetTemperature(0.1)
	return &geminiJudge{client: gm}, nil
}

// parseScoreAndFeedback reads the scoreFeedbackFormat layout: a "Score:"
// line followed by a "Feedback:" block.
func parseScoreAndFeedback(raw string) (float64, string, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	scoreLine, ok := strings.CutPrefix(strings.TrimSpace(lines[0]), "Score:")
	if !ok {
		return 0, "", fmt.Errorf("judge response does not start with Score: %q", raw)
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(scoreLine), 64)
	if err != nil {
		return 0, "", fmt.Errorf("judge score %q: %w", strings.TrimSpace(scoreLine), err)
	}
	rest := strings.TrimSpace(strings.Join(lines[1:], "\n"))
	feedback, _ := strings.CutPrefix(rest, "Feedback:")
	return score, strings.TrimSpace(feedback), nil
}

const scoreFeedbackFormat = `Format your response strictly as:
Score: [a number from 0.0 to 1.0]
Feedback:
[two or three sentences of constructive feedback]
`

func buildJudgePrompt(req EvaluationRequest, outputFormat string) string {
	var b strings.Builder
	examName := string(req.ExamType)
	if examName == "" {
		examName = "English proficiency"
	}
	b.WriteString(fmt.Sprintf("You are an expert %s examiner.\n", examName))

	switch req.SectionType {
	case model.SectionWriting, model.SectionAnalyticalWriting:
		b.WriteString("Evaluate the candidate's written response for task achievement, coherence and cohesion, lexical resource, and grammatical range and accuracy.\n\n")
	case model.SectionSpeaking:
		b.WriteString("Evaluate the transcript of the candidate's spoken response for fluency and coherence, lexical resource, grammatical range and accuracy, and relevance to the topic.\n\n")
	default:
		b.WriteString("Evaluate how well the candidate's answer matches the expected answer in meaning.\n\n")
	}

	b.WriteString("Task:\n---\n")
	b.WriteString(req.QuestionText)
	b.WriteString("\n---\n\n")
	if strings.TrimSpace(req.ReferenceAnswer) != "" {
		b.WriteString("Reference answer (not shown to the candidate):\n---\n")
		b.WriteString(req.ReferenceAnswer)
		b.WriteString("\n---\n\n")
	}
	b.WriteString("Candidate's answer:\n---\n")
	b.WriteString(req.CandidateAnswer)
	b.WriteString("\n---\n\n")
	b.WriteString(outputFormat)
	return b.String()
}

func (j *geminiJudge) Judge(ctx context.Context, req EvaluationRequest) (float64, string, error) {
	resp, err := j.client.GenerateContent(ctx, genai.Text(buildJudgePrompt(req, scoreFeedbackFormat)))
	if err != nil {
		return 0, "", fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return 0, "", fmt.Errorf("gemini returned no content")
	}

	var full strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			full.WriteString(string(txt))
		}
	}

	return parseScoreAndFeedback(full.String())
}
