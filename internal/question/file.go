package question

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/quizzit/quizzit/internal/quiz"
)

// FileBank loads questions from a JSON file. The file is re-read on every
// round start so edits show up without a restart.
type FileBank struct {
	Path string
	// Limit caps how many questions one round gets; 0 means all of them.
	Limit int
	// Shuffle randomizes question order per round.
	Shuffle bool
}

// NewFileBank creates a file-backed question bank.
func NewFileBank(path string, limit int, shuffle bool) *FileBank {
	return &FileBank{Path: path, Limit: limit, Shuffle: shuffle}
}

// Load implements the quiz service's QuestionBank.
func (b *FileBank) Load(ctx context.Context) ([]quiz.Question, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}

	var questions []quiz.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse question file %s: %w", b.Path, err)
	}

	valid := questions[:0]
	for _, q := range questions {
		if q.Prompt == "" || q.Answer == "" {
			log.Warn().Str("file", b.Path).Str("prompt", q.Prompt).Msg("skipping question without prompt or answer")
			continue
		}
		valid = append(valid, q)
	}
	questions = valid

	if b.Shuffle {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	if b.Limit > 0 && len(questions) > b.Limit {
		questions = questions[:b.Limit]
	}

	log.Debug().Str("file", b.Path).Int("questions", len(questions)).Msg("question file loaded")
	return questions, nil
}
