package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuestionType(t *testing.T) {
	tests := map[string]CanonicalType{
		"MCQ":                    TypeSingleChoice,
		" true-false-not-given ": TypeSingleChoice,
		"Multiple Choice Multi":  TypeMultiChoice,
		"reorder_paragraphs":     TypeOrdering,
		"fill-in-the-blank":      TypeShortText,
		"Writing Task 2":         TypeLongText,
		"read_aloud":             TypeSpeaking,
		"crossword":              TypeUnknown,
		"":                       TypeUnknown,
	}
	for raw, want := range tests {
		assert.Equal(t, want, NormalizeQuestionType(raw), raw)
	}
}

func TestEveryAliasIsCanonical(t *testing.T) {
	known := map[CanonicalType]bool{
		TypeSingleChoice: true,
		TypeMultiChoice:  true,
		TypeOrdering:     true,
		TypeShortText:    true,
		TypeLongText:     true,
		TypeSpeaking:     true,
	}
	aliases := QuestionTypeAliases()
	assert.NotEmpty(t, aliases)
	for alias, canonical := range aliases {
		assert.True(t, known[canonical], "alias %q maps to %q", alias, canonical)
		assert.Equal(t, canonical, NormalizeQuestionType(alias), alias)
	}
	for canonical := range known {
		assert.Equal(t, canonical, aliases[string(canonical)], "canonical name %q must alias itself", canonical)
	}
}

func TestQuestionReferenceAndWeight(t *testing.T) {
	q := Question{CorrectAnswer: []byte(`["a","b"]`)}
	assert.Equal(t, KindList, q.Reference().Kind)
	assert.Equal(t, 1.0, q.EffectiveWeight())

	q = Question{Weight: 2.5}
	assert.Equal(t, KindNone, q.Reference().Kind)
	assert.Equal(t, 2.5, q.EffectiveWeight())
}
