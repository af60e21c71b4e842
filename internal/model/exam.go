package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExamType string

const (
	ExamTypeIELTS   ExamType = "IELTS"
	ExamTypeTOEFL   ExamType = "TOEFL"
	ExamTypePTE     ExamType = "PTE"
	ExamTypeGRE     ExamType = "GRE"
	ExamTypeGeneral ExamType = "GENERAL"
)

// ExamVariant selects the IELTS reading table.
type ExamVariant string

const (
	VariantAcademic        ExamVariant = "academic"
	VariantGeneralTraining ExamVariant = "general_training"
)

type SectionType string

const (
	SectionListening         SectionType = "Listening"
	SectionReading           SectionType = "Reading"
	SectionWriting           SectionType = "Writing"
	SectionSpeaking          SectionType = "Speaking"
	SectionAnalyticalWriting SectionType = "Analytical Writing"
)

type Exam struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Title           string         `json:"title" gorm:"not null;uniqueIndex"`
	Description     string         `json:"description,omitempty"`
	ExamType        ExamType       `json:"exam_type" gorm:"not null;index"`
	Variant         ExamVariant    `json:"variant,omitempty"`
	DurationMinutes int            `json:"duration_minutes"`
	Sections        []Section      `json:"sections,omitempty" gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE;"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

type Section struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	ExamID          uint           `json:"exam_id" gorm:"not null;index"`
	Title           string         `json:"title"`
	SectionType     SectionType    `json:"section_type" gorm:"not null"`
	OrderInExam     int            `json:"order_in_exam"`
	DurationMinutes int            `json:"duration_minutes,omitempty"`
	Parts           []Part         `json:"parts,omitempty" gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE;"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

type Part struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	SectionID      uint            `json:"section_id" gorm:"not null;index"`
	Title          string          `json:"title"`
	OrderInSection int             `json:"order_in_section"`
	Groups         []QuestionGroup `json:"groups,omitempty" gorm:"foreignKey:PartID;constraint:OnDelete:CASCADE;"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

type QuestionGroup struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	PartID       uint           `json:"part_id" gorm:"not null;index"`
	Instructions string         `json:"instructions,omitempty" gorm:"type:text"`
	OrderInPart  int            `json:"order_in_part"`
	Questions    []Question     `json:"questions,omitempty" gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE;"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

type Question struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	GroupID       uint           `json:"group_id" gorm:"not null;index"`
	Prompt        string         `json:"prompt" gorm:"type:text;not null"`
	QuestionType  string         `json:"question_type" gorm:"not null"`
	CorrectAnswer datatypes.JSON `json:"correct_answer,omitempty"`
	Weight        float64        `json:"weight" gorm:"default:1"`
	Explanation   string         `json:"explanation,omitempty" gorm:"type:text"`
	OrderInGroup  int            `json:"order_in_group"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// EffectiveWeight treats a missing or non-positive weight as 1.
func (q Question) EffectiveWeight() float64 {
	if q.Weight <= 0 {
		return 1
	}
	return q.Weight
}

// Reference decodes the declared correct answer. A null or empty column
// yields a value of KindNone.
func (q Question) Reference() ResponseValue {
	var v ResponseValue
	if len(q.CorrectAnswer) == 0 {
		return v
	}
	if err := v.UnmarshalJSON(q.CorrectAnswer); err != nil {
		return ResponseValue{}
	}
	return v
}

// SectionByID returns nil when the exam has no such section.
func (e *Exam) SectionByID(id uint) *Section {
	for i := range e.Sections {
		if e.Sections[i].ID == id {
			return &e.Sections[i]
		}
	}
	return nil
}

// QuestionCount counts questions in the whole exam, or in one section when
// sectionID is non-zero.
func (e *Exam) QuestionCount(sectionID uint) int {
	n := 0
	for _, s := range e.Sections {
		if sectionID != 0 && s.ID != sectionID {
			continue
		}
		for _, p := range s.Parts {
			for _, g := range p.Groups {
				n += len(g.Questions)
			}
		}
	}
	return n
}
