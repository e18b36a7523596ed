package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"knowledge-extractor/internal/models"
)

// LibraryService reads the documents folder on every call. The folder is the
// source of truth and may change between requests, so nothing is cached.
type LibraryService struct {
	dir            string
	pdf            *PDFService
	maxPromptChars int
}

func NewLibraryService(dir string, pdf *PDFService, maxPromptChars int) *LibraryService {
	return &LibraryService{dir: dir, pdf: pdf, maxPromptChars: maxPromptChars}
}

// ListFiles returns the PDF files in the documents folder, sorted by name.
// Directories and non-PDF files are ignored. A missing folder lists as empty.
func (s *LibraryService) ListFiles() ([]models.FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read documents dir: %w", err)
	}

	var files []models.FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, models.FileInfo{Name: entry.Name(), Size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ScanAll extracts text from every PDF in the folder, joins the non-empty
// results with per-document separators, and truncates the combined text to the
// prompt budget. Returns "" when no document yields any text.
func (s *LibraryService) ScanAll() (string, error) {
	files, err := s.ListFiles()
	if err != nil {
		return "", err
	}

	var docs []DocumentText
	for _, file := range files {
		text, err := s.pdf.ExtractText(filepath.Join(s.dir, file.Name))
		if err != nil {
			log.Printf("extract %s: %v", file.Name, err)
			continue
		}
		if text == "" {
			continue
		}
		docs = append(docs, DocumentText{Name: file.Name, Text: text})
	}
	if len(docs) == 0 {
		return "", nil
	}

	return TruncateAtSentence(CombineDocuments(docs), s.maxPromptChars), nil
}
