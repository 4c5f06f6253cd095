package quiz

import "errors"

// Precondition failures are sentinel errors so the transport layer can turn
// them into user-visible denials without inspecting message text.
var (
	ErrNoActiveRound    = errors.New("no active round in this chat")
	ErrNoQuestions      = errors.New("question bank is empty")
	ErrNoTeams          = errors.New("no teams formed yet")
	ErrNotEnoughPlayers = errors.New("need at least 2 known players to form teams")
	ErrUnknownTeam      = errors.New("unknown team")
	ErrNotOnTeam        = errors.New("participant is not on a team")
	ErrMuteNotGranted   = errors.New("team has no silence grant")
	ErrMuteExhausted    = errors.New("team has no silence uses left")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoScores         = errors.New("no scores yet")
)
