package quiz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/quizzit/quizzit/internal/events"
)

// Transport delivers messages to a chat's audience. The engine never depends
// on delivery success; failures are logged and swallowed so a notification
// problem cannot wedge a round.
type Transport interface {
	// SendMessage delivers text to the whole chat and returns a message ID
	// usable with EditMessage.
	SendMessage(ctx context.Context, chatID, text string) (string, error)
	// SendMedia delivers a media attachment with a caption to the whole chat.
	SendMedia(ctx context.Context, chatID string, mediaType QuestionType, ref, caption string) error
	// SendDirect delivers a private message to one participant.
	SendDirect(ctx context.Context, participantID, text string) error
	// EditMessage replaces the text of a previously sent message.
	EditMessage(ctx context.Context, chatID, messageID, text string) error
}

// QuestionBank supplies the ordered question list at round start.
type QuestionBank interface {
	Load(ctx context.Context) ([]Question, error)
}

// EventSink receives round lifecycle events. A nil sink disables publishing.
type EventSink interface {
	Publish(ctx context.Context, eventType events.EventType, sessionID string, payload any) error
}

// Config tunes a quiz service. Zero values fall back to the stock pacing.
type Config struct {
	Schedule           Schedule
	InterQuestionDelay time.Duration
	MuteWindow         time.Duration
	MaxHintsPerRound   int
	TeamNames          map[TeamLabel]string
	FancyCountdown     bool
}

func (c Config) withDefaults() Config {
	if c.Schedule.BasePoints == 0 && len(c.Schedule.Steps) == 0 {
		c.Schedule = DefaultSchedule()
	}
	if c.MuteWindow <= 0 {
		c.MuteWindow = 30 * time.Second
	}
	if c.MaxHintsPerRound <= 0 {
		c.MaxHintsPerRound = 3
	}
	if c.TeamNames == nil {
		c.TeamNames = map[TeamLabel]string{TeamA: "A", TeamB: "B"}
	}
	return c
}

// Service runs trivia rounds for any number of independent chat sessions.
type Service struct {
	cfg       Config
	clock     clockwork.Clock
	transport Transport
	bank      QuestionBank
	sink      EventSink

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService creates a quiz service. A nil clock selects the real clock.
func NewService(cfg Config, transport Transport, bank QuestionBank, sink EventSink, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		cfg:       cfg.withDefaults(),
		clock:     clock,
		transport: transport,
		bank:      bank,
		sink:      sink,
		sessions:  make(map[string]*Session),
	}
}

// session returns the chat's session, creating it on first sight.
func (svc *Service) session(chatID string) *Session {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	s, ok := svc.sessions[chatID]
	if !ok {
		s = NewSession(chatID, svc.clock)
		svc.sessions[chatID] = s
	}
	return s
}

// lookup returns the chat's session or nil.
func (svc *Service) lookup(chatID string) *Session {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.sessions[chatID]
}

// ObserveMessage records the sender of any chat message so team formation
// has a roster to draw from.
func (svc *Service) ObserveMessage(chatID string, from Participant) {
	svc.session(chatID).RecordParticipant(from)
}

// StartRound loads the question bank and begins a round in the chat. Calling
// it while a round is running restarts from question one with fresh scores;
// teams, silence grants and double-score tags carry over.
func (svc *Service) StartRound(ctx context.Context, chatID string) error {
	s := svc.session(chatID)

	questions, err := svc.bank.Load(ctx)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	s.BeginRound(questions)
	log.Info().Str("chat_id", chatID).Int("questions", len(questions)).Msg("round started")

	svc.say(s, "QUIZ TIME!\n\nGet ready to test your knowledge.\nType your answers quickly!")
	if summary := svc.teamSettingsSummary(s); summary != "" {
		svc.say(s, summary)
	}
	svc.publish(chatID, events.TypeRoundStarted, events.RoundStartedPayload{
		ChatID:    chatID,
		Questions: len(questions),
		StartedAt: svc.clock.Now(),
	})

	svc.countdown(s.lifeCtx, s, svc.cfg.InterQuestionDelay)

	gen := s.BeginQuestion(0)
	svc.presentQuestion(s, gen, 0)
	return nil
}

// StopRound aborts the round early, announcing the standings so far.
func (svc *Service) StopRound(ctx context.Context, chatID string) error {
	s := svc.lookup(chatID)
	if s == nil {
		return ErrNoActiveRound
	}
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return ErrNoActiveRound
	}
	board := svc.leaderboardLocked(s)
	s.endRoundLocked()
	s.mu.Unlock()

	log.Info().Str("chat_id", chatID).Msg("round stopped")
	svc.say(s, "Round stopped.")
	if board != "" {
		svc.say(s, board)
	}
	return nil
}

// ShowScores sends the current leaderboard to the chat.
func (svc *Service) ShowScores(ctx context.Context, chatID string) error {
	s := svc.lookup(chatID)
	if s == nil {
		return ErrNoScores
	}
	s.mu.Lock()
	board := svc.leaderboardLocked(s)
	s.mu.Unlock()
	if board == "" {
		return ErrNoScores
	}
	svc.say(s, board)
	return nil
}

// presentQuestion delivers the question at index and opens it for answers,
// provided gen is still live. Delivery failure is logged and the question is
// armed anyway; the timeout keeps the round moving.
func (svc *Service) presentQuestion(s *Session, gen uint64, index int) {
	s.mu.Lock()
	if !s.active || s.generation != gen {
		s.mu.Unlock()
		return
	}
	q, ok := s.currentQuestionLocked()
	total := len(s.questions)
	s.mu.Unlock()
	if !ok {
		return
	}

	text := formatQuestion(index, q)
	if q.MediaRef != "" && q.Type != "" && q.Type != QuestionTypeText {
		if err := svc.transport.SendMedia(s.lifeCtx, s.chatID, q.Type, q.MediaRef, text); err != nil {
			log.Warn().Err(err).
				Str("chat_id", s.chatID).
				Str("media", q.MediaRef).
				Msg("failed to send question media; continuing")
		}
	} else {
		svc.say(s, text)
	}

	s.openAnswers(gen, svc.cfg.Schedule.BasePoints)
	svc.armQuestion(s, gen, q)

	svc.publish(s.chatID, events.TypeQuestionStarted, events.QuestionStartedPayload{
		Index:     index,
		Total:     total,
		Tags:      q.Tags,
		StartedAt: svc.clock.Now(),
		TimeoutAt: svc.clock.Now().Add(svc.cfg.Schedule.Timeout),
	})
	log.Info().
		Str("chat_id", s.chatID).
		Int("question", index+1).
		Uint64("generation", gen).
		Msg("question sent")
}

// advance moves to the next question after the inter-question delay, or
// finalizes the round when the list is exhausted. Both the correct-answer
// path and the timeout path converge here; gen guards against a restart or
// stop that happened during the delay.
func (svc *Service) advance(ctx context.Context, s *Session, gen uint64, next int) {
	svc.countdown(ctx, s, svc.cfg.InterQuestionDelay)

	s.mu.Lock()
	if !s.active || s.generation != gen {
		s.mu.Unlock()
		return
	}
	if next >= len(s.questions) {
		board := svc.leaderboardLocked(s)
		scores := make(map[string]int, len(s.scores))
		for k, v := range s.scores {
			scores[k] = v
		}
		s.endRoundLocked()
		s.mu.Unlock()

		log.Info().Str("chat_id", s.chatID).Msg("round completed")
		if board != "" {
			svc.say(s, board)
		}
		svc.publish(s.chatID, events.TypeRoundCompleted, events.RoundCompletedPayload{
			ChatID:      s.chatID,
			Scores:      scores,
			CompletedAt: svc.clock.Now(),
		})
		return
	}
	newGen := s.beginQuestionLocked(next)
	s.mu.Unlock()

	svc.presentQuestion(s, newGen, next)
}

// countdown idles between questions. The plain variant waits and fires a
// single "GO!"; the fancy variant keeps editing one message per second,
// exercising the transport's edit operation. Returns early when ctx is
// cancelled (question transition or shutdown).
func (svc *Service) countdown(ctx context.Context, s *Session, d time.Duration) {
	if d <= 0 {
		return
	}
	if !svc.cfg.FancyCountdown {
		if svc.wait(ctx, d) {
			svc.say(s, "GO!")
		}
		return
	}

	secs := int(d / time.Second)
	msgID := svc.say(s, fmt.Sprintf("Next question in %d...", secs))
	for remaining := secs - 1; remaining > 0; remaining-- {
		if !svc.wait(ctx, time.Second) {
			return
		}
		svc.edit(s, msgID, fmt.Sprintf("Next question in %d...", remaining))
	}
	if svc.wait(ctx, time.Second) {
		svc.edit(s, msgID, "GO!")
	}
}

// wait sleeps on the service clock; false means ctx was cancelled first.
func (svc *Service) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := svc.clock.NewTimer(d)
	select {
	case <-t.Chan():
		return true
	case <-ctx.Done():
		stopAndDrainTimer(t)
		return false
	}
}

// say broadcasts to the chat, logging and swallowing delivery failures.
func (svc *Service) say(s *Session, text string) string {
	id, err := svc.transport.SendMessage(s.lifeCtx, s.chatID, text)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", s.chatID).Msg("failed to send chat message")
	}
	return id
}

func (svc *Service) edit(s *Session, messageID, text string) {
	if messageID == "" {
		return
	}
	if err := svc.transport.EditMessage(s.lifeCtx, s.chatID, messageID, text); err != nil {
		log.Warn().Err(err).Str("chat_id", s.chatID).Msg("failed to edit chat message")
	}
}

func (svc *Service) publish(chatID string, typ events.EventType, payload any) {
	if svc.sink == nil {
		return
	}
	if err := svc.sink.Publish(context.Background(), typ, chatID, payload); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Str("event_type", string(typ)).Msg("failed to publish event")
	}
}

func (svc *Service) teamName(label TeamLabel) string {
	if name, ok := svc.cfg.TeamNames[label]; ok && name != "" {
		return name
	}
	return string(label)
}

// teamSettingsSummary describes each team's silence grant and double-score
// tags; empty when nothing is configured.
func (svc *Service) teamSettingsSummary(s *Session) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.muteEnabled[TeamA] && !s.muteEnabled[TeamB] &&
		len(s.doubleTags[TeamA]) == 0 && len(s.doubleTags[TeamB]) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Current team settings\n")
	for _, label := range []TeamLabel{TeamA, TeamB} {
		status := "disabled"
		if s.muteEnabled[label] {
			status = "enabled"
		}
		tags := sortedTags(s.doubleTags[label])
		tagText := "none"
		if len(tags) > 0 {
			tagText = strings.Join(tags, ", ")
		}
		fmt.Fprintf(&b, "\n%s\n- Silence: %s, uses left: %d\n- Double tags: %s\n",
			svc.teamName(label), status, s.muteUses[label], tagText)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatQuestion(index int, q Question) string {
	text := fmt.Sprintf("QUESTION %d\n\n%s", index+1, q.Prompt)
	if len(q.Tags) > 0 {
		text += fmt.Sprintf("\n\nGenre: %s", strings.Join(q.Tags, ", "))
	}
	return text
}
