package services

import (
	"fmt"
	"strings"
)

// DocumentText pairs a document name with its extracted text.
type DocumentText struct {
	Name string
	Text string
}

// CombineDocuments joins per-document texts with named separators so the model
// can attribute content to its source file.
func CombineDocuments(docs []DocumentText) string {
	var builder strings.Builder
	for i, doc := range docs {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(fmt.Sprintf("--- Document: %s ---\n\n", doc.Name))
		builder.WriteString(doc.Text)
	}
	return builder.String()
}

// TruncateAtSentence caps text at limit runes. When a sentence terminator
// falls within the last 20% of the budget the cut lands just after it, so the
// prompt ends on a complete sentence where one is close enough to the edge.
func TruncateAtSentence(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	floor := limit - limit/5
	for i := limit - 1; i >= floor; i-- {
		switch cut[i] {
		case '.', '!', '?':
			return string(cut[:i+1])
		}
	}
	return string(cut)
}
