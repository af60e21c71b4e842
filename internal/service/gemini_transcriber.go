package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lshigami/examcore/config"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// SpeechTranscriber turns a recorded speaking answer into text so it can be
// graded like any long answer.
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

type geminiTranscriber struct {
	client *genai.GenerativeModel
	http   *http.Client
}

var supportedAudioTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/ogg":   true,
	"audio/webm":  true,
	"audio/mp4":   true,
	"audio/aac":   true,
	"audio/flac":  true,
}

// NewGeminiTranscriber returns nil when transcription is disabled or no
// API key is configured; speaking answers then stay ungraded until a
// transcript arrives with the response.
func NewGeminiTranscriber(cfg *config.Config) (SpeechTranscriber, error) {
	if !cfg.Evaluator.TranscribeSpeech || cfg.GeminiApiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Gemini client for transcription")
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	gm := client.GenerativeModel(cfg.Evaluator.GeminiModel)
	gm.SetTemperature(0)
	return &geminiTranscriber{client: gm, http: &http.Client{Timeout: cfg.Evaluator.Timeout}}, nil
}

// fetchAudioData downloads the recording and determines its MIME type from
// the Content-Type header, falling back to the URL's extension.
func fetchAudioData(ctx context.Context, client *http.Client, audioURL string) ([]byte, string, error) {
	if audioURL == "" {
		return nil, "", fmt.Errorf("audio URL is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request for %s: %w", audioURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch audio from URL %s: %w", audioURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch audio: status code %d from URL %s", resp.StatusCode, audioURL)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read audio data from URL %s: %w", audioURL, err)
	}

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil && supportedAudioTypes[mediaType] {
			return data, mediaType, nil
		}
	}
	mimeType, _, _ := mime.ParseMediaType(mime.TypeByExtension(filepath.Ext(audioURL)))
	if !supportedAudioTypes[mimeType] {
		return nil, "", fmt.Errorf("could not determine a supported audio MIME type for %s", audioURL)
	}
	return data, mimeType, nil
}

func (t *geminiTranscriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	data, mimeType, err := fetchAudioData(ctx, t.http, audioURL)
	if err != nil {
		return "", err
	}

	resp, err := t.client.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text("Transcribe the spoken English in this recording verbatim. Return only the transcript text."),
	)
	if err != nil {
		return "", fmt.Errorf("gemini transcription: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no transcript")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	transcript := strings.TrimSpace(sb.String())
	if transcript == "" {
		return "", fmt.Errorf("gemini returned an empty transcript")
	}
	return transcript, nil
}
