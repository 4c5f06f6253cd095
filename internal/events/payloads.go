package events

import (
	"encoding/json"
	"time"
)

// EventType identifies a round lifecycle event.
type EventType string

const (
	TypeRoundStarted     EventType = "RoundStarted"
	TypeQuestionStarted  EventType = "QuestionStarted"
	TypeHintRevealed     EventType = "HintRevealed"
	TypeAnswerCorrect    EventType = "AnswerCorrect"
	TypeQuestionTimedOut EventType = "QuestionTimedOut"
	TypeRoundCompleted   EventType = "RoundCompleted"
	TypeTeamsFormed      EventType = "TeamsFormed"
	TypeTeamSilenced     EventType = "TeamSilenced"
	TypeTeamUnmuted      EventType = "TeamUnmuted"
)

// Envelope is the wire form of every published event.
type Envelope struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// RoundStartedPayload is the payload for a RoundStarted event.
type RoundStartedPayload struct {
	ChatID    string    `json:"chat_id"`
	Questions int       `json:"questions"`
	StartedAt time.Time `json:"started_at"`
}

// QuestionStartedPayload is the payload for a QuestionStarted event.
type QuestionStartedPayload struct {
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	Tags      []string  `json:"tags,omitempty"`
	StartedAt time.Time `json:"started_at"`
	TimeoutAt time.Time `json:"timeout_at"`
}

// HintRevealedPayload is the payload for a HintRevealed event.
type HintRevealedPayload struct {
	Index    int    `json:"index"`
	Masked   string `json:"masked"`
	Points   int    `json:"points"`
	Revealed int    `json:"revealed"`
}

// AnswerCorrectPayload is the payload for an AnswerCorrect event.
type AnswerCorrectPayload struct {
	Index          int     `json:"index"`
	ParticipantID  string  `json:"participant_id"`
	Name           string  `json:"name"`
	Points         int     `json:"points"`
	Doubled        bool    `json:"doubled"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Team           string  `json:"team,omitempty"`
	Streak         int     `json:"streak,omitempty"`
}

// QuestionTimedOutPayload is the payload for a QuestionTimedOut event.
type QuestionTimedOutPayload struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

// RoundCompletedPayload is the payload for a RoundCompleted event.
type RoundCompletedPayload struct {
	ChatID      string         `json:"chat_id"`
	Scores      map[string]int `json:"scores"`
	CompletedAt time.Time      `json:"completed_at"`
}

// TeamsFormedPayload is the payload for a TeamsFormed event.
type TeamsFormedPayload struct {
	ChatID string              `json:"chat_id"`
	Teams  map[string][]string `json:"teams"`
	Reset  bool                `json:"reset"`
}

// TeamSilencedPayload is the payload for a TeamSilenced event.
type TeamSilencedPayload struct {
	Team          string `json:"team"`
	By            string `json:"by"`
	WindowSeconds int    `json:"window_seconds"`
	UsesLeft      int    `json:"uses_left"`
}

// TeamUnmutedPayload is the payload for a TeamUnmuted event.
type TeamUnmutedPayload struct {
	Team string `json:"team"`
}
