package dto

import (
	"encoding/json"
	"time"
)

// QuestionResponseDTO carries CorrectAnswer and Explanation only for
// privileged callers.
type QuestionResponseDTO struct {
	ID            uint            `json:"id"`
	Prompt        string          `json:"prompt"`
	QuestionType  string          `json:"questionType"`
	Weight        float64         `json:"weight"`
	OrderInGroup  int             `json:"orderInGroup"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty" swaggertype:"object"`
	Explanation   string          `json:"explanation,omitempty"`
}

type GroupResponseDTO struct {
	ID           uint                  `json:"id"`
	Instructions string                `json:"instructions,omitempty"`
	OrderInPart  int                   `json:"orderInPart"`
	Questions    []QuestionResponseDTO `json:"questions"`
}

type PartResponseDTO struct {
	ID             uint               `json:"id"`
	Title          string             `json:"title"`
	OrderInSection int                `json:"orderInSection"`
	Groups         []GroupResponseDTO `json:"groups"`
}

type SectionResponseDTO struct {
	ID              uint              `json:"id"`
	Title           string            `json:"title"`
	SectionType     string            `json:"sectionType"`
	OrderInExam     int               `json:"orderInExam"`
	DurationMinutes int               `json:"durationMinutes,omitempty"`
	Parts           []PartResponseDTO `json:"parts"`
}

// ExamResponseDTO is the full exam tree.
type ExamResponseDTO struct {
	ID              uint                 `json:"id"`
	Title           string               `json:"title"`
	Description     string               `json:"description,omitempty"`
	ExamType        string               `json:"examType"`
	Variant         string               `json:"variant,omitempty"`
	DurationMinutes int                  `json:"durationMinutes"`
	Sections        []SectionResponseDTO `json:"sections"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// ExamSummaryDTO is used for listing exams available to candidates.
type ExamSummaryDTO struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ExamType        string    `json:"examType"`
	Variant         string    `json:"variant,omitempty"`
	DurationMinutes int       `json:"durationMinutes"`
	SectionCount    int       `json:"sectionCount"`
	CreatedAt       time.Time `json:"createdAt"`
}
