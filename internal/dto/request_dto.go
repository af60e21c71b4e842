package dto

import (
	"encoding/json"

	"github.com/lshigami/examcore/internal/model"
)

// RecordResponseDTO is one answer write. Speaking answers may send AudioURL
// and Transcript instead of Response; they are folded into one speech value.
type RecordResponseDTO struct {
	SectionID   uint            `json:"sectionId" binding:"required"`
	PartID      uint            `json:"partId"`
	GroupID     uint            `json:"groupId"`
	QuestionID  uint            `json:"questionId" binding:"required"`
	Response    json.RawMessage `json:"response" swaggertype:"object"`
	AudioURL    string          `json:"audioUrl,omitempty"`
	Transcript  string          `json:"transcript,omitempty"`
	TimeSpentMs int64           `json:"timeSpentMs" binding:"min=0"`
}

// Value resolves the submitted payload into a ResponseValue.
func (r RecordResponseDTO) Value() (model.ResponseValue, error) {
	if r.AudioURL != "" || r.Transcript != "" {
		return model.SpeechValue(r.AudioURL, r.Transcript), nil
	}
	var v model.ResponseValue
	if err := v.UnmarshalJSON(r.Response); err != nil {
		return model.ResponseValue{}, err
	}
	return v, nil
}

type ReasonDTO struct {
	Reason string `json:"reason"`
}

type ExpireAttemptDTO struct {
	Reason string `json:"reason"`
	Force  bool   `json:"force"`
}

// GradeUpdateDTO is one grader override for a question.
type GradeUpdateDTO struct {
	QuestionID uint                `json:"questionId" binding:"required"`
	SectionID  uint                `json:"sectionId"`
	PartID     uint                `json:"partId"`
	GroupID    uint                `json:"groupId"`
	Earned     float64             `json:"earned" binding:"min=0"`
	Max        *float64            `json:"max"`
	IsCorrect  *bool               `json:"isCorrect"`
	Feedback   string              `json:"feedback"`
	Criteria   *model.BandCriteria `json:"criteria"`
}

type ManualGradeDTO struct {
	Updates []GradeUpdateDTO `json:"updates" binding:"required,min=1,dive"`
}

type ExternalGradeDTO struct {
	Updates         []GradeUpdateDTO `json:"updates" binding:"required,min=1,dive"`
	FinalizeAttempt bool             `json:"finalizeAttempt"`
}
