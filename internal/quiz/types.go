package quiz

import (
	"time"
)

// QuestionType describes how a question's prompt is delivered to the chat.
type QuestionType string

const (
	QuestionTypeText  QuestionType = "text"
	QuestionTypeImage QuestionType = "image"
	QuestionTypeAudio QuestionType = "audio"
	QuestionTypeVideo QuestionType = "video"
)

// Question is one entry of the question bank. JSON tags match the
// questions.json file format.
type Question struct {
	Prompt       string       `json:"question"`
	Type         QuestionType `json:"type,omitempty"`
	Answer       string       `json:"answer"`
	Alternatives []string     `json:"alternative,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Hints        []string     `json:"hints,omitempty"`
	MediaRef     string       `json:"file,omitempty"`
}

// Participant identifies one chat member.
type Participant struct {
	ID          string
	DisplayName string
}

// TeamLabel identifies one of the two teams of a chat.
type TeamLabel string

const (
	TeamA TeamLabel = "A"
	TeamB TeamLabel = "B"
)

// Other returns the opposing team's label.
func (l TeamLabel) Other() TeamLabel {
	if l == TeamA {
		return TeamB
	}
	return TeamA
}

// Valid reports whether the label names a real team.
func (l TeamLabel) Valid() bool {
	return l == TeamA || l == TeamB
}

// DecayStep is one reward-decay step: at After elapsed, reveal
// RevealFraction of the answer and lower the promised reward to Points.
type DecayStep struct {
	After          time.Duration `yaml:"after"`
	RevealFraction float64       `yaml:"reveal_fraction"`
	Points         int           `yaml:"points"`
}

// Schedule is the reward-decay schedule for every question of a round.
// Steps must be ordered by After and non-increasing in Points.
type Schedule struct {
	BasePoints int           `yaml:"base_points"`
	Steps      []DecayStep   `yaml:"steps"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DefaultSchedule mirrors the stock questions.json pacing: five points at
// the gun, decaying to one point as hints reveal, thirty seconds total.
func DefaultSchedule() Schedule {
	return Schedule{
		BasePoints: 5,
		Steps: []DecayStep{
			{After: 8 * time.Second, RevealFraction: 0.0, Points: 4},
			{After: 14 * time.Second, RevealFraction: 0.2, Points: 3},
			{After: 20 * time.Second, RevealFraction: 0.4, Points: 2},
			{After: 25 * time.Second, RevealFraction: 0.6, Points: 1},
		},
		Timeout: 30 * time.Second,
	}
}

// PointsForElapsed derives a reward from elapsed time alone. It is the
// fallback when no reveal tick has broadcast a tier yet: base points before
// the first step, then the points of the last step whose bound has passed.
func (s Schedule) PointsForElapsed(elapsed time.Duration) int {
	if len(s.Steps) == 0 || elapsed < s.Steps[0].After {
		return s.BasePoints
	}
	points := s.Steps[len(s.Steps)-1].Points
	for _, step := range s.Steps {
		if elapsed < step.After {
			break
		}
		points = step.Points
	}
	return points
}

// Outcome classifies what a submission did to the round.
type Outcome int

const (
	// OutcomeNoRound means no round is active in the chat.
	OutcomeNoRound Outcome = iota
	// OutcomeNotAccepting means the current question is not open for answers.
	OutcomeNotAccepting
	// OutcomeMuted means the submission was silently dropped because the
	// participant's team is muted.
	OutcomeMuted
	// OutcomeIncorrect means the text matched no accepted answer.
	OutcomeIncorrect
	// OutcomeAlreadyResolved means the answer was correct but a concurrent
	// path resolved the question first; the submission has no effect.
	OutcomeAlreadyResolved
	// OutcomeCorrect means the submission won the question.
	OutcomeCorrect
)

// Result reports the effect of a submission.
type Result struct {
	Outcome Outcome
	Points  int
	Elapsed time.Duration
	Team    TeamLabel
	Streak  int
}
