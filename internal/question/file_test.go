package question

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeQuestions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestFileBankLoad(t *testing.T) {
	path := writeQuestions(t, `[
		{"question": "Largest planet?", "answer": "Jupiter", "tags": ["science"], "hints": ["gas giant"]},
		{"question": "Band?", "answer": "Pink Floyd", "alternative": ["Floyd"]}
	]`)

	bank := NewFileBank(path, 0, false)
	questions, err := bank.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("loaded %d questions, want 2", len(questions))
	}
	if questions[0].Prompt != "Largest planet?" || questions[0].Answer != "Jupiter" {
		t.Fatalf("unexpected first question: %+v", questions[0])
	}
	if len(questions[1].Alternatives) != 1 || questions[1].Alternatives[0] != "Floyd" {
		t.Fatalf("alternatives not decoded: %+v", questions[1])
	}
}

func TestFileBankSkipsInvalidEntries(t *testing.T) {
	path := writeQuestions(t, `[
		{"question": "valid", "answer": "yes"},
		{"question": "", "answer": "missing prompt"},
		{"question": "missing answer", "answer": ""}
	]`)

	bank := NewFileBank(path, 0, false)
	questions, err := bank.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("loaded %d questions, want 1", len(questions))
	}
}

func TestFileBankLimit(t *testing.T) {
	path := writeQuestions(t, `[
		{"question": "a", "answer": "1"},
		{"question": "b", "answer": "2"},
		{"question": "c", "answer": "3"}
	]`)

	bank := NewFileBank(path, 2, false)
	questions, err := bank.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("loaded %d questions, want 2", len(questions))
	}
}

func TestFileBankMissingFile(t *testing.T) {
	bank := NewFileBank(filepath.Join(t.TempDir(), "nope.json"), 0, false)
	if _, err := bank.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
