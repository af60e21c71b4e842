package dto

import "encoding/json"

// QuestionCreateDTO is used within GroupCreateDTO for admin exam seeding.
type QuestionCreateDTO struct {
	Prompt        string          `json:"prompt" binding:"required"`
	QuestionType  string          `json:"questionType" binding:"required"`
	CorrectAnswer json.RawMessage `json:"correctAnswer" swaggertype:"object"`
	Weight        float64         `json:"weight" binding:"min=0"`
	Explanation   string          `json:"explanation,omitempty"`
	OrderInGroup  int             `json:"orderInGroup" binding:"min=0"`
}

type GroupCreateDTO struct {
	Instructions string              `json:"instructions,omitempty"`
	OrderInPart  int                 `json:"orderInPart" binding:"min=0"`
	Questions    []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

type PartCreateDTO struct {
	Title          string           `json:"title"`
	OrderInSection int              `json:"orderInSection" binding:"min=0"`
	Groups         []GroupCreateDTO `json:"groups" binding:"required,min=1,dive"`
}

type SectionCreateDTO struct {
	Title           string          `json:"title" binding:"required"`
	SectionType     string          `json:"sectionType" binding:"required"`
	OrderInExam     int             `json:"orderInExam" binding:"min=0"`
	DurationMinutes int             `json:"durationMinutes" binding:"min=0"`
	Parts           []PartCreateDTO `json:"parts" binding:"required,min=1,dive"`
}

// ExamCreateDTO is for admin to seed a whole exam tree in one call.
type ExamCreateDTO struct {
	Title           string             `json:"title" binding:"required"`
	Description     string             `json:"description,omitempty"`
	ExamType        string             `json:"examType" binding:"required,oneof=IELTS TOEFL PTE GRE GENERAL"`
	Variant         string             `json:"variant,omitempty" binding:"omitempty,oneof=academic general_training"`
	DurationMinutes int                `json:"durationMinutes" binding:"min=0"`
	Sections        []SectionCreateDTO `json:"sections" binding:"required,min=1,dive"`
}
