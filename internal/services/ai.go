package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"knowledge-extractor/internal/models"
)

var (
	// ErrAIUnavailable is returned when the OpenAI integration is not configured.
	ErrAIUnavailable = errors.New("openai integration is not configured; set OPENAI_API_KEY and restart")
)

const (
	flashcardCount    = 10
	quizQuestionCount = 5
	quizOptionCount   = 4
)

type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey string, model string, apiEndpoint string) *AIService {
	if apiKey == "" {
		return &AIService{}
	}

	cfg := openai.DefaultConfig(apiKey)
	if apiEndpoint != "" {
		cfg.BaseURL = apiEndpoint
	}

	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (s *AIService) disabled() bool {
	return s.client == nil || s.model == ""
}

// extractJSON removes markdown code block formatting if present and extracts the JSON array
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	// Remove markdown code blocks like ```json ... ``` or ``` ... ```
	if strings.HasPrefix(content, "```") {
		// Skip past the opening ``` and optional language identifier (e.g., "json")
		start := 3
		if newlineIdx := strings.Index(content[start:], "\n"); newlineIdx != -1 {
			start += newlineIdx + 1
		}

		if endIdx := strings.Index(content[start:], "```"); endIdx != -1 {
			content = content[start : start+endIdx]
		} else {
			// No closing ```, just take everything after the opening
			content = content[start:]
		}
	}

	content = strings.TrimSpace(content)

	// Additional safety: slice to the outermost [ ] to drop prose around the array
	if startIdx := strings.Index(content, "["); startIdx != -1 {
		if endIdx := strings.LastIndex(content, "]"); endIdx != -1 && endIdx > startIdx {
			content = content[startIdx : endIdx+1]
		}
	}

	return strings.TrimSpace(content)
}

func (s *AIService) complete(ctx context.Context, system, user string, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		Temperature: temperature,
		MaxTokens:   4096,
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("request chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateFlashcards turns study text into front/back flashcards.
func (s *AIService) GenerateFlashcards(ctx context.Context, text string) ([]models.Flashcard, error) {
	if s.disabled() {
		return nil, ErrAIUnavailable
	}

	instruction := fmt.Sprintf(`Create exactly %d flashcards from the study material below.
Respond with a JSON array [{"front":"","back":""}]. Fronts are questions or key terms, backs are concise answers or definitions. Cover the most important concepts across all documents.

Study material:
%s`, flashcardCount, text)

	content, err := s.complete(ctx,
		"You are an expert educator who turns study material into atomic active-recall flashcards.",
		instruction, 0.4)
	if err != nil {
		return nil, err
	}

	return parseFlashcards(content)
}

// GenerateQuiz turns study text into four-option multiple-choice questions.
func (s *AIService) GenerateQuiz(ctx context.Context, text string) ([]models.QuizQuestion, error) {
	if s.disabled() {
		return nil, ErrAIUnavailable
	}

	instruction := fmt.Sprintf(`Create exactly %d multiple-choice quiz questions from the study material below.
Respond with a JSON array [{"question":"","options":["","","",""],"correct_index":0}]. Each question must have exactly %d options with one correct answer. Make the distractors plausible.

Study material:
%s`, quizQuestionCount, quizOptionCount, text)

	content, err := s.complete(ctx,
		"You are an expert educator who writes fair multiple-choice quizzes from study material.",
		instruction, 0.5)
	if err != nil {
		return nil, err
	}

	return parseQuizQuestions(content)
}

// GradeQuiz asks the model for per-answer feedback. Answers the model skips or
// mangles are graded locally so the response always covers every submission.
func (s *AIService) GradeQuiz(ctx context.Context, answers []models.QuizAnswer) ([]models.GradedAnswer, error) {
	if s.disabled() {
		return nil, ErrAIUnavailable
	}

	payload, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}

	instruction := `Grade these quiz answers. For each answer, compare selected_index against correct_index and write one or two sentences of feedback: affirm correct answers, and for incorrect ones explain what the right answer is and why.
Respond with a JSON array [{"question_index":0,"is_correct":true,"feedback":""}] with one entry per answer, keeping each question_index from the input.

Answers:
` + string(payload)

	content, err := s.complete(ctx,
		"You are a supportive tutor who grades quizzes and explains mistakes clearly.",
		instruction, 0.3)
	if err != nil {
		return nil, err
	}

	return parseGradedAnswers(content, answers)
}

func parseFlashcards(content string) ([]models.Flashcard, error) {
	entries, err := decodeEntries(content, "flashcards")
	if err != nil {
		return nil, err
	}

	var cards []models.Flashcard
	for _, entry := range entries {
		if err := validateEntry(flashcardSchema, entry); err != nil {
			continue
		}
		var card models.Flashcard
		if err := json.Unmarshal(entry, &card); err != nil {
			continue
		}
		card.Front = strings.TrimSpace(card.Front)
		card.Back = strings.TrimSpace(card.Back)
		if card.Front == "" || card.Back == "" {
			continue
		}
		cards = append(cards, card)
	}

	if len(cards) == 0 {
		return nil, errors.New("model returned no usable flashcards")
	}
	return cards, nil
}

func parseQuizQuestions(content string) ([]models.QuizQuestion, error) {
	entries, err := decodeEntries(content, "quiz questions")
	if err != nil {
		return nil, err
	}

	var questions []models.QuizQuestion
	for _, entry := range entries {
		if err := validateEntry(quizQuestionSchema, entry); err != nil {
			continue
		}
		var q models.QuizQuestion
		if err := json.Unmarshal(entry, &q); err != nil {
			continue
		}
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" || len(q.Options) != quizOptionCount {
			continue
		}
		ok := true
		for i, opt := range q.Options {
			q.Options[i] = strings.TrimSpace(opt)
			if q.Options[i] == "" {
				ok = false
			}
		}
		if !ok {
			continue
		}
		// Models occasionally emit out-of-range indices; wrap rather than discard.
		q.CorrectIndex = ((q.CorrectIndex % quizOptionCount) + quizOptionCount) % quizOptionCount
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, errors.New("model returned no usable quiz questions")
	}
	return questions, nil
}

func parseGradedAnswers(content string, answers []models.QuizAnswer) ([]models.GradedAnswer, error) {
	entries, err := decodeEntries(content, "graded answers")
	if err != nil {
		return nil, err
	}

	byIndex := make(map[int]models.GradedAnswer, len(entries))
	for _, entry := range entries {
		if err := validateEntry(gradedAnswerSchema, entry); err != nil {
			continue
		}
		var graded models.GradedAnswer
		if err := json.Unmarshal(entry, &graded); err != nil {
			continue
		}
		graded.Feedback = strings.TrimSpace(graded.Feedback)
		if graded.Feedback == "" {
			continue
		}
		byIndex[graded.QuestionIndex] = graded
	}

	out := make([]models.GradedAnswer, 0, len(answers))
	for _, ans := range answers {
		if graded, ok := byIndex[ans.QuestionIndex]; ok {
			out = append(out, graded)
			continue
		}
		out = append(out, models.GradedAnswer{
			QuestionIndex: ans.QuestionIndex,
			IsCorrect:     ans.SelectedIndex == ans.CorrectIndex,
			Feedback:      fallbackFeedback(ans),
		})
	}
	return out, nil
}

func decodeEntries(content, kind string) ([]json.RawMessage, error) {
	jsonStr := extractJSON(content)
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &entries); err != nil {
		// Log the raw response for debugging
		fmt.Fprintf(os.Stderr, "Failed to unmarshal %s. Raw response:\n%s\nExtracted JSON:\n%s\n", kind, content, jsonStr)
		return nil, fmt.Errorf("unmarshal %s json: %w", kind, err)
	}
	return entries, nil
}

func fallbackFeedback(ans models.QuizAnswer) string {
	if ans.SelectedIndex == ans.CorrectIndex {
		return "Correct."
	}
	if ans.CorrectIndex >= 0 && ans.CorrectIndex < len(ans.Options) {
		return fmt.Sprintf("Incorrect. The correct answer was %q.", ans.Options[ans.CorrectIndex])
	}
	return "Incorrect."
}
