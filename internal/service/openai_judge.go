package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lshigami/examcore/config"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

type openAIJudge struct {
	api   *openai.Client
	model string
}

const jsonVerdictFormat = `Respond with a JSON object: {"score": <number from 0.0 to 1.0>, "feedback": "<two or three sentences>"}`

type openAIVerdict struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// NewOpenAIJudge talks to any OpenAI-compatible chat completion endpoint.
func NewOpenAIJudge(cfg *config.Config) TextJudge {
	if cfg.Evaluator.OpenAIApiKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set. Long answers will be scored heuristically.")
		return nil
	}
	clientCfg := openai.DefaultConfig(cfg.Evaluator.OpenAIApiKey)
	if cfg.Evaluator.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.Evaluator.OpenAIBaseURL
	}
	return &openAIJudge{
		api:   openai.NewClientWithConfig(clientCfg),
		model: cfg.Evaluator.OpenAIModel,
	}
}

func (j *openAIJudge) Judge(ctx context.Context, req EvaluationRequest) (float64, string, error) {
	system := buildJudgePrompt(req, jsonVerdictFormat)

	resp, err := j.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: j.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return 0, "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, "", fmt.Errorf("openai returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	var verdict openAIVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return 0, "", fmt.Errorf("parse openai verdict: %w (raw: %s)", err, raw)
	}
	return verdict.Score, verdict.Feedback, nil
}

// NewTextJudge selects the configured remote judge. "none", or a provider
// without credentials, yields a nil judge.
func NewTextJudge(cfg *config.Config) (TextJudge, error) {
	switch strings.ToLower(cfg.Evaluator.Provider) {
	case "gemini", "":
		return NewGeminiJudge(cfg)
	case "openai":
		return NewOpenAIJudge(cfg), nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown evaluator provider %q", cfg.Evaluator.Provider)
}
