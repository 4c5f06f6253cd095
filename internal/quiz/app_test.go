package quiz

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type listGate struct{ allowed map[string]bool }

func (g listGate) Allow(chatID, participantID string) bool { return g.allowed[participantID] }

func TestAppGatesPrivilegedOperations(t *testing.T) {
	svc, _, _ := newTestService(t, steplessConfig(30*time.Second), []Question{
		{Prompt: "q", Answer: "a"},
	})
	app := NewApp(svc, listGate{allowed: map[string]bool{"admin": true}})

	intruder := Participant{ID: "u1", DisplayName: "Mallory"}
	if err := app.StartRound(context.Background(), "chat", intruder); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("StartRound err = %v, want ErrPermissionDenied", err)
	}
	if err := app.GrantMute(context.Background(), "chat", intruder, TeamA, 1); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("GrantMute err = %v, want ErrPermissionDenied", err)
	}

	admin := Participant{ID: "admin", DisplayName: "Root"}
	if err := app.StartRound(context.Background(), "chat", admin); err != nil {
		t.Fatalf("admin StartRound: %v", err)
	}
	if err := app.StopRound(context.Background(), "chat", admin); err != nil {
		t.Fatalf("admin StopRound: %v", err)
	}
}

func TestAppNilGateAllowsEveryone(t *testing.T) {
	svc, _, _ := newTestService(t, steplessConfig(30*time.Second), []Question{
		{Prompt: "q", Answer: "a"},
	})
	app := NewApp(svc, nil)

	if err := app.StartRound(context.Background(), "chat", Participant{ID: "anyone"}); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
}

func TestScoreboardRendering(t *testing.T) {
	svc, tr, _ := newTestService(t, steplessConfig(30*time.Second), []Question{
		{Prompt: "q1", Answer: "one"},
		{Prompt: "q2", Answer: "two"},
		{Prompt: "q3", Answer: "three"},
	})

	s := svc.session("chat")
	s.mu.Lock()
	s.assignments["a1"] = TeamA
	s.assignments["b1"] = TeamB
	s.mu.Unlock()

	if err := svc.StartRound(context.Background(), "chat"); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	waitFor(t, tr.broadcast, "QUESTION 1")

	svc.Submit(context.Background(), "chat", Participant{ID: "a1", DisplayName: "Ada"}, "one")
	waitFor(t, tr.broadcast, "QUESTION 2")
	svc.Submit(context.Background(), "chat", Participant{ID: "b1", DisplayName: "Bea"}, "two")
	waitFor(t, tr.broadcast, "QUESTION 3")
	svc.Submit(context.Background(), "chat", Participant{ID: "a1", DisplayName: "Ada"}, "three")

	board := waitFor(t, tr.broadcast, "SCOREBOARD")
	if !strings.Contains(board, "🥇 Ada: 10 pts") {
		t.Fatalf("board missing gold line:\n%s", board)
	}
	if !strings.Contains(board, "🥈 Bea: 5 pts") {
		t.Fatalf("board missing silver line:\n%s", board)
	}
	if !strings.Contains(board, "Team A: 10 pts") || !strings.Contains(board, "Team B: 5 pts") {
		t.Fatalf("board missing team totals:\n%s", board)
	}

	if s.Snapshot().Active {
		t.Fatal("round still active after the final question")
	}

	// Scores are gone with the round.
	if err := svc.ShowScores(context.Background(), "chat"); !errors.Is(err, ErrNoScores) {
		t.Fatalf("ShowScores err = %v, want ErrNoScores", err)
	}
}
