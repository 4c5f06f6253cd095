package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// timerSet is the set of delayed actions armed for one question generation,
// plus the cancel that releases their goroutines. It is replaced wholesale
// on every question transition; individual timers are never tracked by a
// "current task" pointer.
type timerSet struct {
	cancel context.CancelFunc
	ctx    context.Context
	timers []clockwork.Timer
}

// muteState is one silence window. The instance tag ties the scheduled
// expiry action to this exact window so an old expiry can never clear a
// newer silence.
type muteState struct {
	team      TeamLabel
	expiresAt time.Time
	instance  uint64
}

type hintUsage struct {
	count     int
	questions map[int]bool
}

// Session holds the round state of one chat. All mutation happens under mu;
// reveal ticks, the timeout, answer submissions and mute expiry serialize on
// it, which is what makes check-then-resolve atomic. Sessions of different
// chats share nothing.
type Session struct {
	chatID string
	clock  clockwork.Clock

	mu sync.Mutex

	// lifeCtx spans the session itself. The mute lane hangs off it rather
	// than off the question generation, because a silence outlives question
	// boundaries.
	lifeCtx    context.Context
	lifeCancel context.CancelFunc

	// Per-round state, reset by BeginRound.
	active          bool
	questions       []Question
	scores          map[string]int
	lastWinningTeam TeamLabel
	winningStreak   int
	hintUsage       map[string]*hintUsage

	// Per-question state, reset by BeginQuestion.
	index       int
	generation  uint64
	accepting   bool
	resolved    bool
	startedAt   time.Time
	currentTier int
	revealOrder []int
	revealed    map[int]bool
	pending     *timerSet

	// Cross-round state. Teams may be formed before a round starts and
	// survive restarts, so none of this is touched by BeginRound.
	players     map[string]string
	assignments map[string]TeamLabel
	rosters     map[TeamLabel][]Participant
	muteEnabled map[TeamLabel]bool
	muteUses    map[TeamLabel]int
	mute        *muteState
	muteSeq     uint64
	doubleTags  map[TeamLabel]map[string]bool
}

// NewSession creates the state record for one chat.
func NewSession(chatID string, clock clockwork.Clock) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		chatID:      chatID,
		clock:       clock,
		lifeCtx:     ctx,
		lifeCancel:  cancel,
		players:     make(map[string]string),
		assignments: make(map[string]TeamLabel),
		rosters:     make(map[TeamLabel][]Participant),
		muteEnabled: make(map[TeamLabel]bool),
		muteUses:    make(map[TeamLabel]int),
		doubleTags:  make(map[TeamLabel]map[string]bool),
	}
}

// ChatID returns the chat this session belongs to.
func (s *Session) ChatID() string { return s.chatID }

// BeginRound installs a fresh question list and clears scores and streaks.
// Team membership, silence grants and double-score tags are preserved.
func (s *Session) BeginRound(questions []Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPendingLocked()
	// An action that fired before its timer was stopped still holds the old
	// generation. Bumping here makes it stale for the whole restart window,
	// not just from the first BeginQuestion.
	s.generation++
	s.active = true
	s.questions = questions
	s.index = 0
	s.scores = make(map[string]int)
	s.lastWinningTeam = ""
	s.winningStreak = 0
	s.hintUsage = make(map[string]*hintUsage)
	s.resolved = false
	s.accepting = false
}

// BeginQuestion resets all per-question state, cancels every pending timer
// of the previous generation and returns the new generation ID. The caller
// arms new timers against that generation afterwards. A scheduled action
// calling this to advance never cancels itself: its timer has already fired,
// so stopping it is a no-op, and its staleness checks are keyed on the
// generation it captured at arm time.
func (s *Session) BeginQuestion(index int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginQuestionLocked(index)
}

func (s *Session) beginQuestionLocked(index int) uint64 {
	s.cancelPendingLocked()
	s.generation++

	qctx, qcancel := context.WithCancel(s.lifeCtx)
	s.pending = &timerSet{cancel: qcancel, ctx: qctx}

	s.index = index
	s.accepting = false
	s.resolved = false
	s.startedAt = time.Time{}
	s.currentTier = -1 // no tier broadcast yet; zero is a real tier
	s.revealOrder = nil
	s.revealed = make(map[int]bool)

	return s.generation
}

// beginQuestionIf transitions to the next question only if gen is still the
// live generation. It is how the answer and timeout paths advance after the
// inter-question delay without racing an explicit restart or stop.
func (s *Session) beginQuestionIf(gen uint64, index int) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.generation != gen {
		return 0, false
	}
	return s.beginQuestionLocked(index), true
}

// cancelPendingLocked replaces the pending timer set, releasing the armed
// goroutines and stopping every not-yet-fired timer. An already-fired timer
// has nothing left to stop, so an in-flight action is unaffected.
func (s *Session) cancelPendingLocked() {
	if s.pending == nil {
		return
	}
	s.pending.cancel()
	for _, t := range s.pending.timers {
		stopAndDrainTimer(t)
	}
	s.pending = nil
}

// addTimer registers a timer under gen's set. It reports false when gen has
// already gone stale, in which case the caller must not arm the action.
func (s *Session) addTimer(gen uint64, t clockwork.Timer) (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.pending == nil {
		return nil, false
	}
	s.pending.timers = append(s.pending.timers, t)
	return s.pending.ctx, true
}

// MarkResolved performs the single-winner transition. It reports whether
// this call flipped resolved, i.e. whether the caller won the race between
// a correct answer and the timeout.
func (s *Session) MarkResolved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markResolvedLocked()
}

func (s *Session) markResolvedLocked() bool {
	if s.resolved {
		return false
	}
	s.resolved = true
	s.accepting = false
	return true
}

// staleLocked reports whether an action armed under gen must be a no-op.
func (s *Session) staleLocked(gen uint64) bool {
	return s.generation != gen || s.resolved
}

// openAnswers records the question start instant and starts accepting
// submissions at the base reward tier.
func (s *Session) openAnswers(gen uint64, base int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.startedAt = s.clock.Now()
	s.currentTier = base
	s.accepting = true
}

// EndRound tears the round down: pending timers cancelled, questions and
// scores cleared. Team state and any running silence window stay, their
// lifecycle is independent of the round's.
func (s *Session) EndRound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endRoundLocked()
}

func (s *Session) endRoundLocked() {
	s.cancelPendingLocked()
	s.active = false
	s.questions = nil
	s.scores = nil
	s.hintUsage = nil
	s.accepting = false
	s.resolved = false
	s.winningStreak = 0
	s.lastWinningTeam = ""
}

// Close ends the session entirely, releasing the mute lane as well.
func (s *Session) Close() {
	s.EndRound()
	s.lifeCancel()
}

// RecordParticipant remembers a chat member for later team formation.
func (s *Session) RecordParticipant(p Participant) {
	if p.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := p.DisplayName
	if name == "" {
		name = "Player"
	}
	s.players[p.ID] = name
}

// Snapshot is a read-only view of the session for transports and tests.
type Snapshot struct {
	Active       bool
	Index        int
	Generation   uint64
	Accepting    bool
	Resolved     bool
	CurrentTier  int
	Revealed     map[int]bool
	Scores       map[string]int
	QuestionsLen int
	Streak       int
	StreakTeam   TeamLabel
	MutedTeam    TeamLabel
}

// Snapshot copies the observable round state under the session lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Active:       s.active,
		Index:        s.index,
		Generation:   s.generation,
		Accepting:    s.accepting,
		Resolved:     s.resolved,
		CurrentTier:  s.currentTier,
		Revealed:     make(map[int]bool, len(s.revealed)),
		Scores:       make(map[string]int, len(s.scores)),
		QuestionsLen: len(s.questions),
		Streak:       s.winningStreak,
		StreakTeam:   s.lastWinningTeam,
	}
	for k := range s.revealed {
		snap.Revealed[k] = true
	}
	for k, v := range s.scores {
		snap.Scores[k] = v
	}
	if s.mute != nil {
		snap.MutedTeam = s.mute.team
	}
	return snap
}

// currentQuestionLocked returns the live question, or false when no round is
// active or the index ran past the list.
func (s *Session) currentQuestionLocked() (Question, bool) {
	if !s.active || s.index >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.index], true
}

// teamOfLocked returns the team of a participant, or "" when teams are not
// formed or the participant is unassigned.
func (s *Session) teamOfLocked(participantID string) TeamLabel {
	return s.assignments[participantID]
}
