package quiz

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"
)

// PrivateHint sends one of the current question's written hints directly to
// the requester. A participant gets a limited number of hints per round and
// at most one per question; usage is only charged after the direct message
// actually goes out.
func (svc *Service) PrivateHint(ctx context.Context, chatID string, from Participant) error {
	s := svc.lookup(chatID)
	if s == nil {
		return ErrNoActiveRound
	}

	s.mu.Lock()
	if !s.active || !s.accepting {
		s.mu.Unlock()
		return ErrNoActiveRound
	}
	q, ok := s.currentQuestionLocked()
	if !ok || len(q.Hints) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no hints for this question")
	}
	usage := s.hintUsage[from.ID]
	if usage == nil {
		usage = &hintUsage{questions: make(map[int]bool)}
		s.hintUsage[from.ID] = usage
	}
	if usage.count >= svc.cfg.MaxHintsPerRound {
		s.mu.Unlock()
		return fmt.Errorf("hint limit reached (%d per round)", svc.cfg.MaxHintsPerRound)
	}
	if usage.questions[s.index] {
		s.mu.Unlock()
		return fmt.Errorf("you already got a hint for this question")
	}
	index := s.index
	hint := q.Hints[rand.Intn(len(q.Hints))]
	remaining := svc.cfg.MaxHintsPerRound - usage.count - 1
	s.mu.Unlock()

	text := fmt.Sprintf("Hint: %s\n\n%d hint(s) left this round.", hint, remaining)
	if err := svc.transport.SendDirect(s.lifeCtx, from.ID, text); err != nil {
		log.Warn().Err(err).
			Str("chat_id", chatID).
			Str("participant", from.ID).
			Msg("failed to deliver private hint")
		return fmt.Errorf("deliver hint: %w", err)
	}

	s.mu.Lock()
	// Re-check the question: if it resolved while the message was in
	// flight the hint was still delivered, so charge it anyway, but only
	// once per question.
	if !usage.questions[index] {
		usage.questions[index] = true
		usage.count++
	}
	s.mu.Unlock()

	log.Debug().
		Str("chat_id", chatID).
		Str("participant", from.ID).
		Int("question", index+1).
		Msg("private hint delivered")
	return nil
}
