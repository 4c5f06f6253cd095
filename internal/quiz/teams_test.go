package quiz

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFormTeamsSplitsEvenly(t *testing.T) {
	svc, tr, _ := newTestService(t, steplessConfig(30*time.Second), nil)

	for _, id := range []string{"u1", "u2", "u3", "u4", "u5"} {
		svc.ObserveMessage("chat", Participant{ID: id, DisplayName: "Player " + id})
	}

	if err := svc.FormTeams(context.Background(), "chat", false); err != nil {
		t.Fatalf("FormTeams: %v", err)
	}
	waitFor(t, tr.broadcast, "Teams reshuffled!")

	s := svc.lookup("chat")
	s.mu.Lock()
	sizeA := len(s.rosters[TeamA])
	sizeB := len(s.rosters[TeamB])
	assigned := len(s.assignments)
	s.mu.Unlock()

	if assigned != 5 {
		t.Fatalf("assigned = %d, want 5", assigned)
	}
	if sizeA+sizeB != 5 {
		t.Fatalf("roster sizes %d+%d, want 5 total", sizeA, sizeB)
	}
	if diff := sizeA - sizeB; diff < 0 || diff > 1 {
		t.Fatalf("unbalanced split: %d vs %d", sizeA, sizeB)
	}
}

func TestFormTeamsNeedsPlayers(t *testing.T) {
	svc, _, _ := newTestService(t, steplessConfig(30*time.Second), nil)

	svc.ObserveMessage("chat", Participant{ID: "u1", DisplayName: "Solo"})
	err := svc.FormTeams(context.Background(), "chat", false)
	if !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("err = %v, want ErrNotEnoughPlayers", err)
	}
}

func TestFormTeamsResetClearsModifiers(t *testing.T) {
	svc, tr, _ := newTestService(t, steplessConfig(30*time.Second), nil)

	for _, id := range []string{"u1", "u2"} {
		svc.ObserveMessage("chat", Participant{ID: id, DisplayName: id})
	}
	if err := svc.GrantMute("chat", TeamA, 2); err != nil {
		t.Fatalf("GrantMute: %v", err)
	}
	if err := svc.TagDouble("chat", TeamA, "music", true); err != nil {
		t.Fatalf("TagDouble: %v", err)
	}

	if err := svc.FormTeams(context.Background(), "chat", true); err != nil {
		t.Fatalf("FormTeams: %v", err)
	}
	waitFor(t, tr.broadcast, "Teams reshuffled!")

	s := svc.lookup("chat")
	s.mu.Lock()
	uses := s.muteUses[TeamA]
	tags := len(s.doubleTags[TeamA])
	s.mu.Unlock()

	if uses != 0 || tags != 0 {
		t.Fatalf("reset left modifiers: uses=%d tags=%d", uses, tags)
	}
}

func TestSilencePreconditions(t *testing.T) {
	svc, _, _ := newTestService(t, steplessConfig(30*time.Second), nil)

	s := svc.session("chat")
	s.mu.Lock()
	s.assignments["a1"] = TeamA
	s.mu.Unlock()

	if err := svc.Silence(context.Background(), "chat", Participant{ID: "nobody"}); !errors.Is(err, ErrNotOnTeam) {
		t.Fatalf("err = %v, want ErrNotOnTeam", err)
	}
	if err := svc.Silence(context.Background(), "chat", Participant{ID: "a1"}); !errors.Is(err, ErrMuteNotGranted) {
		t.Fatalf("err = %v, want ErrMuteNotGranted", err)
	}
}

func TestSilenceUsesExhausted(t *testing.T) {
	cfg := steplessConfig(30 * time.Second)
	cfg.MuteWindow = 10 * time.Second
	svc, tr, _ := newTestService(t, cfg, nil)

	s := svc.session("chat")
	s.mu.Lock()
	s.assignments["a1"] = TeamA
	s.mu.Unlock()
	if err := svc.GrantMute("chat", TeamA, 1); err != nil {
		t.Fatalf("GrantMute: %v", err)
	}

	if err := svc.Silence(context.Background(), "chat", Participant{ID: "a1"}); err != nil {
		t.Fatalf("first silence: %v", err)
	}
	waitFor(t, tr.broadcast, "SILENCE")

	if err := svc.Silence(context.Background(), "chat", Participant{ID: "a1"}); !errors.Is(err, ErrMuteExhausted) {
		t.Fatalf("err = %v, want ErrMuteExhausted", err)
	}
}

func TestSilenceExpiresAutomatically(t *testing.T) {
	cfg := steplessConfig(30 * time.Second)
	cfg.MuteWindow = 10 * time.Second
	svc, tr, fc := newTestService(t, cfg, nil)

	s := svc.session("chat")
	s.mu.Lock()
	s.assignments["a1"] = TeamA
	s.mu.Unlock()
	if err := svc.GrantMute("chat", TeamA, 1); err != nil {
		t.Fatalf("GrantMute: %v", err)
	}

	if err := svc.Silence(context.Background(), "chat", Participant{ID: "a1"}); err != nil {
		t.Fatalf("Silence: %v", err)
	}
	waitFor(t, tr.broadcast, "SILENCE")

	fc.BlockUntil(1)
	fc.Advance(10 * time.Second)
	waitFor(t, tr.broadcast, "no longer muted")

	s.mu.Lock()
	muted := s.mute != nil
	s.mu.Unlock()
	if muted {
		t.Fatal("mute window still set after expiry")
	}
}

func TestShowTeamsWithoutTeams(t *testing.T) {
	svc, _, _ := newTestService(t, steplessConfig(30*time.Second), nil)
	if err := svc.ShowTeams(context.Background(), "chat"); !errors.Is(err, ErrNoTeams) {
		t.Fatalf("err = %v, want ErrNoTeams", err)
	}
}
