package quiz

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPrivateHintDelivery(t *testing.T) {
	svc, tr, _ := newTestService(t, steplessConfig(30*time.Second), []Question{
		{Prompt: "q1", Answer: "one", Hints: []string{"a written hint"}},
		{Prompt: "q2", Answer: "two", Hints: []string{"another hint"}},
	})

	if err := svc.StartRound(context.Background(), "chat"); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	waitFor(t, tr.broadcast, "QUESTION 1")

	from := Participant{ID: "u1", DisplayName: "Ada"}
	if err := svc.PrivateHint(context.Background(), "chat", from); err != nil {
		t.Fatalf("PrivateHint: %v", err)
	}
	dm := waitFor(t, tr.direct, "Hint:")
	if !strings.Contains(dm, "a written hint") {
		t.Fatalf("hint DM = %q, missing hint text", dm)
	}

	// One hint per question per participant.
	if err := svc.PrivateHint(context.Background(), "chat", from); err == nil {
		t.Fatal("second hint on the same question should fail")
	}
}

func TestPrivateHintRoundCap(t *testing.T) {
	cfg := steplessConfig(30 * time.Second)
	cfg.MaxHintsPerRound = 1
	svc, tr, _ := newTestService(t, cfg, []Question{
		{Prompt: "q1", Answer: "one", Hints: []string{"h1"}},
		{Prompt: "q2", Answer: "two", Hints: []string{"h2"}},
	})

	if err := svc.StartRound(context.Background(), "chat"); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	waitFor(t, tr.broadcast, "QUESTION 1")

	from := Participant{ID: "u1", DisplayName: "Ada"}
	if err := svc.PrivateHint(context.Background(), "chat", from); err != nil {
		t.Fatalf("PrivateHint: %v", err)
	}
	waitFor(t, tr.direct, "Hint:")

	// Advance to the next question; the round cap still blocks.
	if res := svc.Submit(context.Background(), "chat", from, "one"); res.Outcome != OutcomeCorrect {
		t.Fatalf("submit outcome = %v", res.Outcome)
	}
	waitFor(t, tr.broadcast, "QUESTION 2")

	err := svc.PrivateHint(context.Background(), "chat", from)
	if err == nil || !strings.Contains(err.Error(), "hint limit") {
		t.Fatalf("err = %v, want hint limit error", err)
	}
}

func TestPrivateHintWithoutRound(t *testing.T) {
	svc, _, _ := newTestService(t, steplessConfig(30*time.Second), nil)
	if err := svc.PrivateHint(context.Background(), "chat", Participant{ID: "u1"}); err == nil {
		t.Fatal("hint without a round should fail")
	}
}
