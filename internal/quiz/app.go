package quiz

import (
	"context"
)

// Gate decides whether a participant may run privileged operations in a
// chat. A permissive gate allows everyone.
type Gate interface {
	Allow(chatID, participantID string) bool
}

// App is the command surface a transport talks to. It wraps the Service
// with access control on the operations that change round or team state;
// answering, private hints and score display stay open to everyone.
type App struct {
	svc  *Service
	gate Gate
}

// NewApp wires the service behind a gate. A nil gate allows everything.
func NewApp(svc *Service, gate Gate) *App {
	return &App{svc: svc, gate: gate}
}

func (a *App) allowed(chatID, participantID string) bool {
	return a.gate == nil || a.gate.Allow(chatID, participantID)
}

// StartRound begins (or restarts) a round in the chat.
func (a *App) StartRound(ctx context.Context, chatID string, from Participant) error {
	if !a.allowed(chatID, from.ID) {
		return ErrPermissionDenied
	}
	return a.svc.StartRound(ctx, chatID)
}

// StopRound aborts the running round.
func (a *App) StopRound(ctx context.Context, chatID string, from Participant) error {
	if !a.allowed(chatID, from.ID) {
		return ErrPermissionDenied
	}
	return a.svc.StopRound(ctx, chatID)
}

// FormTeams shuffles recorded participants into two teams.
func (a *App) FormTeams(ctx context.Context, chatID string, from Participant, reset bool) error {
	if !a.allowed(chatID, from.ID) {
		return ErrPermissionDenied
	}
	return a.svc.FormTeams(ctx, chatID, reset)
}

// GrantMute enables a team's silence ability.
func (a *App) GrantMute(ctx context.Context, chatID string, from Participant, team TeamLabel, uses int) error {
	if !a.allowed(chatID, from.ID) {
		return ErrPermissionDenied
	}
	return a.svc.GrantMute(chatID, team, uses)
}

// TagDouble adds or removes a team's double-score tag.
func (a *App) TagDouble(ctx context.Context, chatID string, from Participant, team TeamLabel, tag string, add bool) error {
	if !a.allowed(chatID, from.ID) {
		return ErrPermissionDenied
	}
	return a.svc.TagDouble(chatID, team, tag, add)
}

// Silence spends a silence use against the opposing team. Any team member
// with a grant may trigger it.
func (a *App) Silence(ctx context.Context, chatID string, from Participant) error {
	return a.svc.Silence(ctx, chatID, from)
}

// ShowTeams sends the rosters to the chat.
func (a *App) ShowTeams(ctx context.Context, chatID string) error {
	return a.svc.ShowTeams(ctx, chatID)
}

// ShowScores sends the leaderboard to the chat.
func (a *App) ShowScores(ctx context.Context, chatID string) error {
	return a.svc.ShowScores(ctx, chatID)
}

// PrivateHint sends the requester a private hint for the open question.
func (a *App) PrivateHint(ctx context.Context, chatID string, from Participant) error {
	return a.svc.PrivateHint(ctx, chatID, from)
}

// Submit evaluates a chat message as an answer.
func (a *App) Submit(ctx context.Context, chatID string, from Participant, text string) Result {
	return a.svc.Submit(ctx, chatID, from, text)
}

// ObserveMessage records a participant for team formation.
func (a *App) ObserveMessage(chatID string, from Participant) {
	a.svc.ObserveMessage(chatID, from)
}
