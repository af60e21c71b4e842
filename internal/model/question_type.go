package model

import "strings"

// CanonicalType is the comparator's question-type taxonomy.
type CanonicalType string

const (
	TypeSingleChoice CanonicalType = "single_choice"
	TypeMultiChoice  CanonicalType = "multi_choice"
	TypeOrdering     CanonicalType = "ordering"
	TypeShortText    CanonicalType = "short_text"
	TypeLongText     CanonicalType = "long_text"
	TypeSpeaking     CanonicalType = "speaking"
	TypeUnknown      CanonicalType = "unknown"
)

var questionTypeAliases = map[string]CanonicalType{
	"single_choice":          TypeSingleChoice,
	"mcq":                    TypeSingleChoice,
	"multiple_choice":        TypeSingleChoice,
	"multiple_choice_single": TypeSingleChoice,
	"true_false":             TypeSingleChoice,
	"true_false_not_given":   TypeSingleChoice,
	"yes_no_not_given":       TypeSingleChoice,
	"matching":               TypeSingleChoice,
	"matching_headings":      TypeSingleChoice,
	"select_missing_word":    TypeSingleChoice,
	"highlight_summary":      TypeSingleChoice,

	"multi_choice":             TypeMultiChoice,
	"multi_select":             TypeMultiChoice,
	"multiple_answers":         TypeMultiChoice,
	"multiple_choice_multi":    TypeMultiChoice,
	"multiple_choice_multiple": TypeMultiChoice,
	"checkbox":                 TypeMultiChoice,

	"ordering":           TypeOrdering,
	"order":              TypeOrdering,
	"reorder":            TypeOrdering,
	"reorder_paragraphs": TypeOrdering,
	"sequence":           TypeOrdering,

	"short_text":           TypeShortText,
	"short_answer":         TypeShortText,
	"fill_blank":           TypeShortText,
	"fill_in_the_blank":    TypeShortText,
	"gap_fill":             TypeShortText,
	"sentence_completion":  TypeShortText,
	"summary_completion":   TypeShortText,
	"note_completion":      TypeShortText,
	"form_completion":      TypeShortText,
	"write_from_dictation": TypeShortText,

	"long_text":          TypeLongText,
	"essay":              TypeLongText,
	"writing":            TypeLongText,
	"writing_task_1":     TypeLongText,
	"writing_task_2":     TypeLongText,
	"summarize_text":     TypeLongText,
	"integrated_writing": TypeLongText,
	"analytical_writing": TypeLongText,

	"speaking":             TypeSpeaking,
	"speaking_part_1":      TypeSpeaking,
	"speaking_part_2":      TypeSpeaking,
	"speaking_part_3":      TypeSpeaking,
	"read_aloud":           TypeSpeaking,
	"repeat_sentence":      TypeSpeaking,
	"describe_image":       TypeSpeaking,
	"retell_lecture":       TypeSpeaking,
	"independent_speaking": TypeSpeaking,
}

// NormalizeQuestionType maps a declared question type onto the canonical
// taxonomy. Case, surrounding space, dashes and spaces are ignored.
func NormalizeQuestionType(raw string) CanonicalType {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if t, ok := questionTypeAliases[key]; ok {
		return t
	}
	return TypeUnknown
}

// QuestionTypeAliases exposes the alias table for documentation endpoints and tests.
func QuestionTypeAliases() map[string]CanonicalType {
	out := make(map[string]CanonicalType, len(questionTypeAliases))
	for k, v := range questionTypeAliases {
		out[k] = v
	}
	return out
}
