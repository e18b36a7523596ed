package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"knowledge-extractor/internal/models"
)

func TestExtractJSON(t *testing.T) {
	t.Run("FencedWithLanguage", func(t *testing.T) {
		content := "```json\n[{\"front\":\"a\",\"back\":\"b\"}]\n```"
		want := `[{"front":"a","back":"b"}]`
		if got := extractJSON(content); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("FencedWithoutLanguage", func(t *testing.T) {
		content := "```\n[1, 2]\n```"
		if got := extractJSON(content); got != "[1, 2]" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("UnterminatedFence", func(t *testing.T) {
		content := "```json\n[true]"
		if got := extractJSON(content); got != "[true]" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("RawArrayPassesThrough", func(t *testing.T) {
		content := `[{"x":1}]`
		if got := extractJSON(content); got != content {
			t.Errorf("got %q", got)
		}
	})

	t.Run("ProseAroundArray", func(t *testing.T) {
		content := "Here are your flashcards:\n[{\"front\":\"a\"}]\nHope that helps!"
		if got := extractJSON(content); got != `[{"front":"a"}]` {
			t.Errorf("got %q", got)
		}
	})
}

func TestParseFlashcards(t *testing.T) {
	t.Run("ValidBatch", func(t *testing.T) {
		cards, err := parseFlashcards(`[{"front":"Q1","back":"A1"},{"front":"Q2","back":"A2"}]`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cards) != 2 {
			t.Fatalf("got %d cards, want 2", len(cards))
		}
		if cards[0].Front != "Q1" || cards[1].Back != "A2" {
			t.Errorf("unexpected cards: %+v", cards)
		}
	})

	t.Run("DiscardsMalformedKeepsValid", func(t *testing.T) {
		content := `[
			{"front":"Q1","back":"A1"},
			{"front":"","back":"A2"},
			{"front":"Q3"},
			{"front":42,"back":"A4"},
			{"front":"   ","back":"A5"}
		]`
		cards, err := parseFlashcards(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cards) != 1 || cards[0].Front != "Q1" {
			t.Errorf("expected only the valid card, got %+v", cards)
		}
	})

	t.Run("AllInvalidFails", func(t *testing.T) {
		if _, err := parseFlashcards(`[{"front":""},{"back":"x"}]`); err == nil {
			t.Fatal("expected error when no entry is usable")
		}
	})

	t.Run("MalformedJSONFails", func(t *testing.T) {
		if _, err := parseFlashcards("not json at all"); err == nil {
			t.Fatal("expected error for malformed payload")
		}
	})
}

func TestParseQuizQuestions(t *testing.T) {
	valid := func(idx int) string {
		return fmt.Sprintf(`{"question":"Q","options":["a","b","c","d"],"correct_index":%d}`, idx)
	}

	t.Run("ValidBatch", func(t *testing.T) {
		questions, err := parseQuizQuestions("[" + valid(2) + "]")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(questions) != 1 || questions[0].CorrectIndex != 2 {
			t.Errorf("unexpected questions: %+v", questions)
		}
	})

	t.Run("CorrectIndexModuloFour", func(t *testing.T) {
		questions, err := parseQuizQuestions("[" + valid(7) + "," + valid(-1) + "]")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if questions[0].CorrectIndex != 3 {
			t.Errorf("7 mod 4: got %d, want 3", questions[0].CorrectIndex)
		}
		if questions[1].CorrectIndex != 3 {
			t.Errorf("-1 mod 4: got %d, want 3", questions[1].CorrectIndex)
		}
	})

	t.Run("DiscardsWrongOptionCount", func(t *testing.T) {
		content := `[
			{"question":"three","options":["a","b","c"],"correct_index":0},
			{"question":"five","options":["a","b","c","d","e"],"correct_index":0},
			{"question":"ok","options":["a","b","c","d"],"correct_index":1}
		]`
		questions, err := parseQuizQuestions(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(questions) != 1 || questions[0].Question != "ok" {
			t.Errorf("expected only the four-option question, got %+v", questions)
		}
	})

	t.Run("DiscardsNonIntegerIndex", func(t *testing.T) {
		content := `[
			{"question":"bad","options":["a","b","c","d"],"correct_index":1.5},
			{"question":"ok","options":["a","b","c","d"],"correct_index":1}
		]`
		questions, err := parseQuizQuestions(content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(questions) != 1 || questions[0].Question != "ok" {
			t.Errorf("expected the fractional index discarded, got %+v", questions)
		}
	})

	t.Run("AllInvalidFails", func(t *testing.T) {
		if _, err := parseQuizQuestions(`[{"question":"x","options":[],"correct_index":0}]`); err == nil {
			t.Fatal("expected error when no entry is usable")
		}
	})
}

func TestParseGradedAnswers(t *testing.T) {
	answers := []models.QuizAnswer{
		{QuestionIndex: 0, SelectedIndex: 1, CorrectIndex: 1, Question: "Q0", Options: []string{"a", "b", "c", "d"}},
		{QuestionIndex: 1, SelectedIndex: 0, CorrectIndex: 2, Question: "Q1", Options: []string{"a", "b", "c", "d"}},
	}

	t.Run("MatchedByQuestionIndex", func(t *testing.T) {
		content := `[
			{"question_index":1,"is_correct":false,"feedback":"Not quite."},
			{"question_index":0,"is_correct":true,"feedback":"Well done."}
		]`
		graded, err := parseGradedAnswers(content, answers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(graded) != 2 {
			t.Fatalf("got %d graded answers, want 2", len(graded))
		}
		// Output order follows the submission, not the model.
		if graded[0].QuestionIndex != 0 || graded[0].Feedback != "Well done." {
			t.Errorf("unexpected first entry: %+v", graded[0])
		}
		if graded[1].QuestionIndex != 1 || graded[1].IsCorrect {
			t.Errorf("unexpected second entry: %+v", graded[1])
		}
	})

	t.Run("FallsBackForMissingEntry", func(t *testing.T) {
		content := `[{"question_index":0,"is_correct":true,"feedback":"Nice."}]`
		graded, err := parseGradedAnswers(content, answers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(graded) != 2 {
			t.Fatalf("got %d graded answers, want 2", len(graded))
		}
		if graded[1].IsCorrect {
			t.Error("fallback should mark a wrong selection incorrect")
		}
		if graded[1].Feedback == "" {
			t.Error("fallback should carry feedback")
		}
	})

	t.Run("FallsBackForMalformedEntry", func(t *testing.T) {
		content := `[
			{"question_index":0,"is_correct":"yes","feedback":"bad type"},
			{"question_index":1,"is_correct":false,"feedback":"ok"}
		]`
		graded, err := parseGradedAnswers(content, answers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Entry 0: selected == correct, so the local fallback marks it correct.
		if !graded[0].IsCorrect {
			t.Errorf("expected local grading for the malformed entry, got %+v", graded[0])
		}
	})

	t.Run("MalformedPayloadFails", func(t *testing.T) {
		if _, err := parseGradedAnswers("oops", answers); err == nil {
			t.Fatal("expected error for malformed payload")
		}
	})
}

// fakeCompletionServer stands in for the OpenAI endpoint, returning content as
// the single choice of every chat completion.
func fakeCompletionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":     "cmpl-test",
			"object": "chat.completion",
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": content},
					"finish_reason": "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAIServiceDisabled(t *testing.T) {
	service := NewAIService("", "gpt-4o-mini", "")

	if _, err := service.GenerateFlashcards(context.Background(), "text"); !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("GenerateFlashcards: got %v, want ErrAIUnavailable", err)
	}
	if _, err := service.GenerateQuiz(context.Background(), "text"); !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("GenerateQuiz: got %v, want ErrAIUnavailable", err)
	}
	if _, err := service.GradeQuiz(context.Background(), []models.QuizAnswer{{}}); !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("GradeQuiz: got %v, want ErrAIUnavailable", err)
	}
}

func TestGenerateFlashcardsEndToEnd(t *testing.T) {
	server := fakeCompletionServer(t, "```json\n[{\"front\":\"What is Go?\",\"back\":\"A programming language.\"}]\n```")
	service := NewAIService("test-key", "gpt-4o-mini", server.URL+"/v1")

	cards, err := service.GenerateFlashcards(context.Background(), "study material")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 1 || cards[0].Front != "What is Go?" {
		t.Errorf("unexpected cards: %+v", cards)
	}
}

func TestGenerateQuizEndToEnd(t *testing.T) {
	server := fakeCompletionServer(t, `[{"question":"2+2?","options":["1","2","3","4"],"correct_index":3}]`)
	service := NewAIService("test-key", "gpt-4o-mini", server.URL+"/v1")

	questions, err := service.GenerateQuiz(context.Background(), "study material")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectIndex != 3 {
		t.Errorf("unexpected questions: %+v", questions)
	}
}

func TestGradeQuizEndToEnd(t *testing.T) {
	server := fakeCompletionServer(t, `[{"question_index":0,"is_correct":true,"feedback":"Exactly right."}]`)
	service := NewAIService("test-key", "gpt-4o-mini", server.URL+"/v1")

	graded, err := service.GradeQuiz(context.Background(), []models.QuizAnswer{
		{QuestionIndex: 0, SelectedIndex: 1, CorrectIndex: 1, Options: []string{"a", "b", "c", "d"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(graded) != 1 || !graded[0].IsCorrect || graded[0].Feedback != "Exactly right." {
		t.Errorf("unexpected graded answers: %+v", graded)
	}
}

func TestGenerateFlashcardsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	service := NewAIService("test-key", "gpt-4o-mini", server.URL+"/v1")
	if _, err := service.GenerateFlashcards(context.Background(), "text"); err == nil {
		t.Fatal("expected error from failing upstream")
	}
}
