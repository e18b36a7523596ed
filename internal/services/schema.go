package services

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Entry schemas for model output, compiled once at startup. Validation runs
// per entry so a single malformed element is discarded without failing the
// whole batch.
var (
	flashcardSchema = mustCompile("flashcard.json", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"front": map[string]any{"type": "string", "minLength": 1},
			"back":  map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"front", "back"},
	})

	quizQuestionSchema = mustCompile("quiz_question.json", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{"type": "string", "minLength": 1},
			"options": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string", "minLength": 1},
				"minItems": quizOptionCount,
				"maxItems": quizOptionCount,
			},
			"correct_index": map[string]any{"type": "integer"},
		},
		"required": []string{"question", "options", "correct_index"},
	})

	gradedAnswerSchema = mustCompile("graded_answer.json", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_index": map[string]any{"type": "integer"},
			"is_correct":     map[string]any{"type": "boolean"},
			"feedback":       map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"question_index", "is_correct", "feedback"},
	})
)

func mustCompile(url string, schema map[string]any) *jsonschema.Schema {
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("marshal schema %s: %v", url, err))
	}
	return jsonschema.MustCompileString(url, string(raw))
}

func validateEntry(schema *jsonschema.Schema, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode entry: %w", err)
	}
	return schema.Validate(v)
}
