package models

// FileInfo describes a single PDF in the documents folder.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Flashcard is a front/back pair for study recall.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// QuizQuestion is a multiple-choice question with four options.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// QuizAnswer is a submitted answer carrying the question it answers, so
// grading needs no server-side state.
type QuizAnswer struct {
	QuestionIndex int      `json:"question_index"`
	SelectedIndex int      `json:"selected_index"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectIndex  int      `json:"correct_index"`
}

// QuizSubmission is the grade request payload.
type QuizSubmission struct {
	Answers []QuizAnswer `json:"answers"`
}

// GradedAnswer pairs a submitted answer with a correctness judgement and feedback.
type GradedAnswer struct {
	QuestionIndex int    `json:"question_index"`
	IsCorrect     bool   `json:"is_correct"`
	Feedback      string `json:"feedback"`
}
