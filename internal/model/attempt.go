package model

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "in_progress"
	StatusSubmitted  AttemptStatus = "submitted"
	StatusGraded     AttemptStatus = "graded"
	StatusExpired    AttemptStatus = "expired"
	StatusCancelled  AttemptStatus = "cancelled"
)

type AttemptType string

const (
	AttemptFullExam    AttemptType = "full_exam"
	AttemptSectionOnly AttemptType = "section_only"
)

// Grade sources recorded on per-question results.
const (
	SourceAuto     = "auto"
	SourceManual   = "manual"
	SourceExternal = "external"
)

const (
	ExpireReasonTimeLimit  = "time_limit"
	CancelReasonSuperseded = "superseded"
)

type Attempt struct {
	ID              string                             `gorm:"primaryKey;size:36" json:"id"`
	CandidateID     uint                               `json:"candidate_id" gorm:"not null;index:idx_attempt_owner"`
	ExamID          uint                               `json:"exam_id" gorm:"not null;index:idx_attempt_owner"`
	AttemptType     AttemptType                        `json:"attempt_type" gorm:"not null;default:'full_exam'"`
	ActiveSectionID *uint                              `json:"active_section_id,omitempty"`
	Status          AttemptStatus                      `json:"status" gorm:"not null;index;default:'in_progress'"`
	StartedAt       time.Time                          `json:"started_at"`
	ExpiresAt       time.Time                          `json:"expires_at" gorm:"index"`
	SubmittedAt     *time.Time                         `json:"submitted_at,omitempty"`
	GradedAt        *time.Time                         `json:"graded_at,omitempty"`
	ExpiredAt       *time.Time                         `json:"expired_at,omitempty"`
	ExpireReason    string                             `json:"expire_reason,omitempty"`
	ExpiredBy       *uint                              `json:"expired_by,omitempty"`
	CancelledAt     *time.Time                         `json:"cancelled_at,omitempty"`
	CancelReason    string                             `json:"cancel_reason,omitempty"`
	SectionsStatus  datatypes.JSONSlice[SectionStatus] `json:"sections_status"`
	Responses       datatypes.JSONSlice[Response]      `json:"responses"`
	Scoring         datatypes.JSONType[Scoring]        `json:"scoring"`
	CreatedAt       time.Time                          `json:"created_at"`
	UpdatedAt       time.Time                          `json:"updated_at"`
}

type SectionStatus struct {
	SectionID   uint          `json:"sectionId"`
	SectionType SectionType   `json:"sectionType"`
	Status      AttemptStatus `json:"status"`
	SubmittedAt *time.Time    `json:"submittedAt,omitempty"`
	Score       float64       `json:"score"`
	MaxScore    float64       `json:"maxScore"`
	Accuracy    float64       `json:"accuracy"`
	BandScore   *float64      `json:"bandScore,omitempty"`
}

type Response struct {
	SectionID   uint          `json:"sectionId"`
	PartID      uint          `json:"partId,omitempty"`
	GroupID     uint          `json:"groupId,omitempty"`
	QuestionID  uint          `json:"questionId"`
	Response    ResponseValue `json:"response"`
	TimeSpentMs int64         `json:"timeSpentMs"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// BandCriteria holds the four named IELTS writing/speaking criteria. For
// speaking the fields read as fluency, lexical, grammar and pronunciation.
type BandCriteria struct {
	TaskResponse float64 `json:"taskResponse"`
	Coherence    float64 `json:"coherence"`
	Lexical      float64 `json:"lexical"`
	Grammar      float64 `json:"grammar"`
}

type QuestionResult struct {
	QuestionID uint          `json:"questionId"`
	SectionID  uint          `json:"sectionId"`
	PartID     uint          `json:"partId,omitempty"`
	GroupID    uint          `json:"groupId,omitempty"`
	IsCorrect  bool          `json:"isCorrect"`
	Graded     bool          `json:"graded"`
	Earned     float64       `json:"earned"`
	Max        float64       `json:"max"`
	Feedback   string        `json:"feedback,omitempty"`
	Source     string        `json:"source,omitempty"`
	Criteria   *BandCriteria `json:"criteria,omitempty"`
}

type ScaledScore struct {
	Type          ExamType           `json:"type"`
	Score         float64            `json:"score"`
	SectionScores map[string]float64 `json:"sectionScores,omitempty"`
	TestType      ExamVariant        `json:"testType,omitempty"`
}

type Scoring struct {
	Score       float64          `json:"score"`
	MaxScore    float64          `json:"maxScore"`
	Accuracy    float64          `json:"accuracy"`
	PerQuestion []QuestionResult `json:"perQuestion"`
	Scaled      *ScaledScore     `json:"scaled,omitempty"`
	ComputedAt  *time.Time       `json:"computedAt,omitempty"`
}

// Principal is the already-authenticated caller.
type Principal struct {
	ID   uint
	Role string
}

const (
	RoleCandidate = "candidate"
	RoleGrader    = "grader"
	RoleAdmin     = "admin"
)

func (p Principal) Privileged() bool {
	return p.Role == RoleAdmin || p.Role == RoleGrader
}

// SectionEntry returns the sectionsStatus entry for sectionID, or nil.
func (a *Attempt) SectionEntry(sectionID uint) *SectionStatus {
	for i := range a.SectionsStatus {
		if a.SectionsStatus[i].SectionID == sectionID {
			return &a.SectionsStatus[i]
		}
	}
	return nil
}

// IsTerminal reports states no transition leaves.
func (s AttemptStatus) IsTerminal() bool {
	return s == StatusExpired || s == StatusCancelled || s == StatusGraded
}
