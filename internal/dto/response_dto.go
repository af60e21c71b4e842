package dto

import (
	"time"

	"github.com/lshigami/examcore/internal/model"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type AckResponse struct {
	AttemptID  string `json:"attemptId"`
	QuestionID uint   `json:"questionId"`
	Responses  int    `json:"responses"`
}

// AttemptResponseDTO is the full view of an attempt.
type AttemptResponseDTO struct {
	ID              string                `json:"id"`
	CandidateID     uint                  `json:"candidateId"`
	ExamID          uint                  `json:"examId"`
	AttemptType     string                `json:"attemptType"`
	ActiveSectionID *uint                 `json:"activeSectionId,omitempty"`
	Status          string                `json:"status"`
	StartedAt       time.Time             `json:"startedAt"`
	ExpiresAt       time.Time             `json:"expiresAt"`
	SubmittedAt     *time.Time            `json:"submittedAt,omitempty"`
	GradedAt        *time.Time            `json:"gradedAt,omitempty"`
	ExpiredAt       *time.Time            `json:"expiredAt,omitempty"`
	ExpireReason    string                `json:"expireReason,omitempty"`
	CancelledAt     *time.Time            `json:"cancelledAt,omitempty"`
	CancelReason    string                `json:"cancelReason,omitempty"`
	SectionsStatus  []model.SectionStatus `json:"sectionsStatus"`
	Responses       []model.Response      `json:"responses"`
	Scoring         *model.Scoring        `json:"scoring,omitempty"`
}

// AttemptSummaryDTO is for listing a candidate's attempts.
type AttemptSummaryDTO struct {
	ID          string     `json:"id"`
	ExamID      uint       `json:"examId"`
	AttemptType string     `json:"attemptType"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	Score       float64    `json:"score"`
	MaxScore    float64    `json:"maxScore"`
	ScaledScore *float64   `json:"scaledScore,omitempty"`
}

type SectionsStatusResponse struct {
	AttemptID      string                `json:"attemptId"`
	Status         string                `json:"status"`
	SectionsStatus []model.SectionStatus `json:"sectionsStatus"`
}

type GradeResultDTO struct {
	Score      float64            `json:"score"`
	MaxScore   float64            `json:"maxScore"`
	Accuracy   float64            `json:"accuracy"`
	Scaled     *model.ScaledScore `json:"scaled,omitempty"`
	BandScores map[string]float64 `json:"bandScores,omitempty"`
}

type TimeInfoDTO struct {
	RemainingMs int64     `json:"remainingMs"`
	IsExpired   bool      `json:"isExpired"`
	TimeStatus  string    `json:"timeStatus"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ProgressDTO struct {
	Answered          int `json:"answered"`
	TotalQuestions    int `json:"totalQuestions"`
	SectionsSubmitted int `json:"sectionsSubmitted"`
	TotalSections     int `json:"totalSections"`
}

type AttemptStatusDTO struct {
	AttemptID string      `json:"attemptId"`
	Status    string      `json:"status"`
	TimeInfo  TimeInfoDTO `json:"timeInfo"`
	Progress  ProgressDTO `json:"progress"`
}

type AttemptStatsDTO struct {
	ExamID   uint             `json:"examId"`
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}
