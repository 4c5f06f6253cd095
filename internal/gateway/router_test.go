package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quizzit/quizzit/internal/quiz"
)

func TestRenderError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{quiz.ErrPermissionDenied, "not allowed"},
		{quiz.ErrNoActiveRound, "No quiz is running"},
		{quiz.ErrNotEnoughPlayers, "Not enough known players"},
		{quiz.ErrMuteExhausted, "no silence uses left"},
		{errors.New("unknown command"), "unknown command"},
	}
	for _, tt := range tests {
		got := renderError(tt.err)
		if !strings.Contains(got, tt.want) {
			t.Errorf("renderError(%v) = %q, want substring %q", tt.err, got, tt.want)
		}
	}
}

func TestGrantMuteArgValidation(t *testing.T) {
	r := &Router{}
	from := quiz.Participant{ID: "admin"}

	for _, args := range [][]string{nil, {"A"}, {"A", "two"}, {"A", "-1"}} {
		if err := r.grantMute(context.Background(), "chat", from, args); err == nil {
			t.Errorf("grantMute(%v) accepted malformed args", args)
		}
	}
}

func TestDoubleArgValidation(t *testing.T) {
	r := &Router{}
	from := quiz.Participant{ID: "admin"}

	for _, args := range [][]string{nil, {"A"}} {
		if err := r.double(context.Background(), "chat", from, args); err == nil {
			t.Errorf("double(%v) accepted malformed args", args)
		}
	}
}
