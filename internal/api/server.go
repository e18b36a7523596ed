package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"knowledge-extractor/internal/models"
)

const noPDFsMessage = "No PDF documents found. Add PDFs to the ./documents folder."

// Library lists the PDFs in the documents folder and extracts their combined text.
type Library interface {
	ListFiles() ([]models.FileInfo, error)
	ScanAll() (string, error)
}

// Generator produces study materials from extracted text.
type Generator interface {
	GenerateFlashcards(ctx context.Context, text string) ([]models.Flashcard, error)
	GenerateQuiz(ctx context.Context, text string) ([]models.QuizQuestion, error)
	GradeQuiz(ctx context.Context, answers []models.QuizAnswer) ([]models.GradedAnswer, error)
}

type Server struct {
	mux     *http.ServeMux
	library Library
	ai      Generator
}

func NewServer(library Library, ai Generator) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		library: library,
		ai:      ai,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/files", s.handleListFiles)
	s.mux.HandleFunc("/api/flashcards", s.handleFlashcards)
	s.mux.HandleFunc("/api/quiz", s.handleQuiz)
	s.mux.HandleFunc("/api/quiz/grade", s.handleGradeQuiz)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "knowledge-extractor",
	})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	files, err := s.library.ListFiles()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if files == nil {
		files = []models.FileInfo{}
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	text, ok := s.scanDocuments(w)
	if !ok {
		return
	}

	cards, err := s.ai.GenerateFlashcards(r.Context(), text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate flashcards: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	text, ok := s.scanDocuments(w)
	if !ok {
		return
	}

	questions, err := s.ai.GenerateQuiz(r.Context(), text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate quiz: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) handleGradeQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var submission models.QuizSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(submission.Answers) == 0 {
		writeError(w, http.StatusBadRequest, "No answers provided.")
		return
	}

	graded, err := s.ai.GradeQuiz(r.Context(), submission.Answers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to grade quiz: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, graded)
}

// scanDocuments extracts the combined document text, writing the error
// response itself when there is nothing to work with.
func (s *Server) scanDocuments(w http.ResponseWriter) (string, bool) {
	text, err := s.library.ScanAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return "", false
	}
	if text == "" {
		writeError(w, http.StatusNotFound, noPDFsMessage)
		return "", false
	}
	return text, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
