package session

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
)

// Sampler draws count distinct indexes from [0, poolSize). The production sampler is
// randomized; tests inject a deterministic one.
type Sampler func(poolSize, count int) []int

// DefaultSampler draws without replacement using a partial Fisher-Yates shuffle.
// When the pool is smaller than the requested count it returns the whole pool.
func DefaultSampler(poolSize, count int) []int {
	if count > poolSize {
		count = poolSize
	}

	indexes := make([]int, poolSize)
	for i := range indexes {
		indexes[i] = i
	}
	for i := 0; i < count; i++ {
		j := i + rand.IntN(poolSize-i)
		indexes[i], indexes[j] = indexes[j], indexes[i]
	}
	return indexes[:count]
}

//go:embed questions.json
var defaultQuestions []byte

type questionFileEntry struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correctAnswer"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
}

// LoadQuestions reads the question pool from the given file, or falls back to the
// embedded default pool when path is empty. The pool must be able to cover one full
// question set.
func LoadQuestions(path string, questionsPerGame int) ([]Question, error) {
	raw := defaultQuestions
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read questions file: %w", err)
		}
	}

	var entries []questionFileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse questions file: %w", err)
	}

	questions := make([]Question, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		if entry.Question == "" {
			return nil, fmt.Errorf("question %d: empty question text", i)
		}
		if entry.CorrectAnswer == "" {
			return nil, fmt.Errorf("question %d: empty correct answer", i)
		}
		if _, duplicate := seen[entry.Question]; duplicate {
			return nil, fmt.Errorf("question %d: duplicate question text %q", i, entry.Question)
		}
		seen[entry.Question] = struct{}{}

		questions = append(questions, Question{
			Text:             entry.Question,
			CorrectAnswer:    entry.CorrectAnswer,
			IncorrectAnswers: append([]string(nil), entry.IncorrectAnswers...),
		})
	}

	if len(questions) < questionsPerGame {
		return nil, fmt.Errorf("question pool has %d questions, need at least %d", len(questions), questionsPerGame)
	}
	return questions, nil
}
