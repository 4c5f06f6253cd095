package quiz

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/quizzit/quizzit/internal/events"
)

// armQuestion schedules one delayed action per decay step plus the final
// timeout, all tagged with gen. The reveal permutation is shuffled exactly
// once here; each tick consumes a growing prefix of it, so reveals are
// cumulative and a position never flickers back to hidden.
func (svc *Service) armQuestion(s *Session, gen uint64, q Question) {
	order := RevealablePositions(q.Answer)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	s.mu.Lock()
	if s.generation == gen {
		s.revealOrder = order
	}
	s.mu.Unlock()

	for _, step := range svc.cfg.Schedule.Steps {
		step := step
		svc.armAction(s, gen, step.After, func(ctx context.Context) {
			svc.revealFire(ctx, s, gen, step)
		})
	}
	svc.armAction(s, gen, svc.cfg.Schedule.Timeout, func(ctx context.Context) {
		svc.timeoutFire(ctx, s, gen)
	})
}

// armAction registers a one-shot timer under gen's pending set and starts
// the goroutine that waits on it. When the set is replaced the goroutine is
// released via its context; a fired timer has nothing left to stop, so
// cancellation never blocks on an action that is already running.
func (svc *Service) armAction(s *Session, gen uint64, d time.Duration, fire func(context.Context)) {
	t := svc.clock.NewTimer(d)
	ctx, ok := s.addTimer(gen, t)
	if !ok {
		stopAndDrainTimer(t)
		return
	}
	go func() {
		select {
		case <-t.Chan():
			fire(ctx)
		case <-ctx.Done():
			stopAndDrainTimer(t)
		}
	}()
}

// revealFire is one reveal tick: disclose the step's fraction of the answer
// and ratchet the reward tier down. Stale generations and resolved questions
// are silently discarded.
func (svc *Service) revealFire(ctx context.Context, s *Session, gen uint64, step DecayStep) {
	s.mu.Lock()
	if s.staleLocked(gen) {
		s.mu.Unlock()
		return
	}
	q, ok := s.currentQuestionLocked()
	if !ok {
		s.mu.Unlock()
		return
	}
	target := int(math.Ceil(float64(len(s.revealOrder)) * step.RevealFraction))
	if target > len(s.revealOrder) {
		target = len(s.revealOrder)
	}
	for _, pos := range s.revealOrder[:target] {
		s.revealed[pos] = true
	}
	s.currentTier = step.Points
	masked := Mask(q.Answer, s.revealed)
	revealedCount := len(s.revealed)
	index := s.index
	s.mu.Unlock()

	svc.say(s, fmt.Sprintf("Hint: %s", masked))
	svc.publish(s.chatID, events.TypeHintRevealed, events.HintRevealedPayload{
		Index:    index,
		Masked:   masked,
		Points:   step.Points,
		Revealed: revealedCount,
	})
	log.Debug().
		Str("chat_id", s.chatID).
		Uint64("generation", gen).
		Int("points", step.Points).
		Int("revealed", revealedCount).
		Msg("hint revealed")
}

// timeoutFire resolves the question when nobody guessed: announce the answer
// and advance. The resolved transition is the same single-winner gate the
// answer path goes through, so at most one of the two ever takes effect.
func (svc *Service) timeoutFire(ctx context.Context, s *Session, gen uint64) {
	s.mu.Lock()
	if s.staleLocked(gen) || !s.markResolvedLocked() {
		s.mu.Unlock()
		return
	}
	q, ok := s.currentQuestionLocked()
	index := s.index
	s.mu.Unlock()
	if !ok {
		return
	}

	log.Info().
		Str("chat_id", s.chatID).
		Int("question", index+1).
		Uint64("generation", gen).
		Msg("question timed out")

	svc.say(s, fmt.Sprintf("No one guessed!\n\nThe correct answer was: %s", q.Answer))
	svc.publish(s.chatID, events.TypeQuestionTimedOut, events.QuestionTimedOutPayload{
		Index:  index,
		Answer: q.Answer,
	})

	// ctx is the generation's own arm context: a restart during the delay
	// cancels the wait, and the generation check in advance does the rest.
	svc.advance(ctx, s, gen, index+1)
}

// stopAndDrainTimer stops a timer and drains its channel so the arming
// goroutine can never leak a fired value. Same shape as the pattern in the
// time.Timer.Stop documentation.
func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
