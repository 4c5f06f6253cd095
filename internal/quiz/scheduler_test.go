package quiz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func newTestService(t *testing.T, cfg Config, questions []Question) (*Service, *fakeTransport, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	tr := newFakeTransport()
	svc := NewService(cfg, tr, &fakeBank{questions: questions}, nil, fc)
	return svc, tr, fc
}

func steplessConfig(timeout time.Duration) Config {
	return Config{
		Schedule: Schedule{BasePoints: 5, Timeout: timeout},
	}
}

func TestHintRevealProgression(t *testing.T) {
	svc, tr, fc := newTestService(t, Config{}, []Question{
		{Prompt: "Language of this repo?", Answer: "golang"},
	})

	if err := svc.StartRound(context.Background(), "chat"); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	waitFor(t, tr.broadcast, "QUESTION 1")

	s := svc.lookup("chat")
	steps := []struct {
		advance      time.Duration
		wantRevealed int
		wantTier     int
	}{
		{8 * time.Second, 0, 4},
		{6 * time.Second, 2, 3},
		{6 * time.Second, 3, 2},
		{5 * time.Second, 4, 1},
	}
	prev := -1
	for _, step := range steps {
		fc.Advance(step.advance)
		waitFor(t, tr.broadcast, "Hint:")

		snap := s.Snapshot()
		if len(snap.Revealed) != step.wantRevealed {
			t.Fatalf("revealed = %d, want %d", len(snap.Revealed), step.wantRevealed)
		}
		if len(snap.Revealed) < prev {
			t.Fatalf("reveal count shrank: %d -> %d", prev, len(snap.Revealed))
		}
		prev = len(snap.Revealed)
		if snap.CurrentTier != step.wantTier {
			t.Fatalf("tier = %d, want %d", snap.CurrentTier, step.wantTier)
		}
	}

	// Final timeout resolves the question and, with only one question, the
	// round.
	fc.Advance(5 * time.Second)
	msg := waitFor(t, tr.broadcast, "No one guessed!")
	if !strings.Contains(msg, "golang") {
		t.Fatalf("timeout announcement missing the answer: %q", msg)
	}

	deadline := time.After(2 * time.Second)
	for s.Snapshot().Active {
		select {
		case <-deadline:
			t.Fatal("round still active after final timeout")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTimeoutAdvancesToNextQuestion(t *testing.T) {
	svc, tr, fc := newTestService(t, steplessConfig(10*time.Second), []Question{
		{Prompt: "q1", Answer: "one"},
		{Prompt: "q2", Answer: "two"},
	})

	if err := svc.StartRound(context.Background(), "chat"); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	waitFor(t, tr.broadcast, "QUESTION 1")

	fc.Advance(10 * time.Second)
	waitFor(t, tr.broadcast, "No one guessed!")
	waitFor(t, tr.broadcast, "QUESTION 2")

	// Wait for the second question's timeout to be armed before advancing
	// the clock again.
	fc.BlockUntil(1)
	fc.Advance(10 * time.Second)
	waitFor(t, tr.broadcast, "No one guessed!")

	s := svc.lookup("chat")
	deadline := time.After(2 * time.Second)
	for s.Snapshot().Active {
		select {
		case <-deadline:
			t.Fatal("round still active after both timeouts")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRestartInvalidatesPendingTimers(t *testing.T) {
	svc, tr, fc := newTestService(t, steplessConfig(10*time.Second), []Question{
		{Prompt: "q1", Answer: "one"},
	})

	if err := svc.StartRound(context.Background(), "chat"); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	waitFor(t, tr.broadcast, "QUESTION 1")

	// Restart replaces the generation; the old timeout must never fire.
	if err := svc.StartRound(context.Background(), "chat"); err != nil {
		t.Fatalf("restart: %v", err)
	}
	waitFor(t, tr.broadcast, "QUESTION 1")

	fc.Advance(10 * time.Second)
	waitFor(t, tr.broadcast, "No one guessed!")

	// Exactly one timeout announcement: the restarted question's. A second
	// one would mean the stale timer fired too.
	count := 0
	for _, msg := range tr.messages() {
		if strings.HasPrefix(msg, "No one guessed!") {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("timeout fired %d times, want 1", count)
	}
}

func TestRestartStrandsInFlightTimeout(t *testing.T) {
	svc, tr, _ := newTestService(t, steplessConfig(30*time.Second), []Question{
		{Prompt: "q1", Answer: "golang"},
	})

	if err := svc.StartRound(context.Background(), "chat"); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	waitFor(t, tr.broadcast, "QUESTION 1")

	s := svc.lookup("chat")
	gen := s.Snapshot().Generation

	// A timeout goroutine that won its timer-vs-cancel select just before a
	// restart runs against the restarted state. Reproduce the mid-restart
	// window: the new question list is installed, the first question is not
	// armed yet.
	s.BeginRound([]Question{{Prompt: "q2", Answer: "hunter2"}})
	svc.timeoutFire(context.Background(), s, gen)

	snap := s.Snapshot()
	if snap.Resolved {
		t.Fatal("old timeout must not resolve the restarted round")
	}
	if !snap.Active {
		t.Fatal("old timeout must not tear the restarted round down")
	}
	for _, msg := range tr.messages() {
		if strings.Contains(msg, "hunter2") {
			t.Fatalf("old timeout leaked the new round's answer: %q", msg)
		}
	}
}

func TestSubmitAfterTimeoutRejected(t *testing.T) {
	svc, tr, fc := newTestService(t, steplessConfig(10*time.Second), []Question{
		{Prompt: "q1", Answer: "one"},
	})

	if err := svc.StartRound(context.Background(), "chat"); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	waitFor(t, tr.broadcast, "QUESTION 1")

	fc.Advance(10 * time.Second)
	waitFor(t, tr.broadcast, "No one guessed!")

	res := svc.Submit(context.Background(), "chat", Participant{ID: "u1", DisplayName: "One"}, "one")
	if res.Outcome == OutcomeCorrect {
		t.Fatalf("submission after timeout must not win, got %v", res.Outcome)
	}
}
