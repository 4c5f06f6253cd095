package quiz

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/quizzit/quizzit/internal/events"
)

// normalize trims and case-folds text for lenient answer matching.
func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// matches reports whether text equals the canonical answer or any accepted
// alternative after normalization.
func matches(q Question, text string) bool {
	submitted := normalize(text)
	if submitted == "" {
		return false
	}
	if submitted == normalize(q.Answer) {
		return true
	}
	for _, alt := range q.Alternatives {
		if submitted == normalize(alt) {
			return true
		}
	}
	return false
}

// Submit evaluates a chat message as an answer to whatever question is
// active right now. The whole decision — mute check, match, single-winner
// transition, reward computation, score credit — happens in one critical
// section, so a submission racing the timeout resolves to exactly one
// winner.
func (svc *Service) Submit(ctx context.Context, chatID string, from Participant, text string) Result {
	s := svc.lookup(chatID)
	if s == nil {
		return Result{Outcome: OutcomeNoRound}
	}
	s.RecordParticipant(from)

	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return Result{Outcome: OutcomeNoRound}
	}
	if !s.accepting || s.resolved {
		s.mu.Unlock()
		log.Debug().Str("chat_id", chatID).Str("participant", from.ID).Msg("ignoring answer, not accepting")
		return Result{Outcome: OutcomeNotAccepting}
	}
	q, ok := s.currentQuestionLocked()
	if !ok {
		s.mu.Unlock()
		return Result{Outcome: OutcomeNotAccepting}
	}

	label := s.teamOfLocked(from.ID)
	var freedTeam TeamLabel
	if m := s.mute; m != nil && label != "" && m.team == label {
		if svc.clock.Now().Before(m.expiresAt) {
			s.mu.Unlock()
			log.Debug().
				Str("chat_id", chatID).
				Str("participant", from.ID).
				Str("team", string(label)).
				Msg("ignoring answer from muted team")
			return Result{Outcome: OutcomeMuted, Team: label}
		}
		// Mute expiry is checked lazily at submission time: the wall clock
		// has passed even if the scheduled expiry tick has not run yet, so
		// clear the window and let the answer through.
		s.mute = nil
		freedTeam = label
	}

	if !matches(q, text) {
		s.mu.Unlock()
		svc.announceUnmuted(s, freedTeam)
		log.Debug().Str("chat_id", chatID).Str("participant", from.ID).Msg("incorrect answer")
		return Result{Outcome: OutcomeIncorrect, Team: label}
	}

	if !s.markResolvedLocked() {
		// A concurrent path won the race; this submission has no effect.
		s.mu.Unlock()
		svc.announceUnmuted(s, freedTeam)
		return Result{Outcome: OutcomeAlreadyResolved, Team: label}
	}
	gen := s.generation
	index := s.index
	s.cancelPendingLocked()

	elapsed := svc.clock.Now().Sub(s.startedAt)
	if s.startedAt.IsZero() || elapsed < 0 {
		elapsed = 0
	}
	// Pay what the scheduler last broadcast, not a recomputed bucket: the
	// reward a human saw announced is the reward they get.
	points := s.currentTier
	if points < 0 {
		points = svc.cfg.Schedule.PointsForElapsed(elapsed)
	}

	doubled := false
	if label != "" {
		teamTags := s.doubleTags[label]
		for _, tag := range q.Tags {
			if teamTags[normalize(tag)] {
				points *= 2
				doubled = true
				break
			}
		}
	}

	s.scores[from.ID] += points
	if label == s.lastWinningTeam {
		s.winningStreak++
	} else {
		s.winningStreak = 1
		s.lastWinningTeam = label
	}
	streak := s.winningStreak
	s.mu.Unlock()

	svc.announceUnmuted(s, freedTeam)

	name := from.DisplayName
	if name == "" {
		name = "Player"
	}
	reply := fmt.Sprintf("%s is correct!\n\n%s +%d\nanswered in %.1fs", q.Answer, name, points, elapsed.Seconds())
	if label != "" {
		reply += "\n\n" + streakLine(svc.teamName(label), streak)
	}
	svc.say(s, reply)
	if label != "" && (streak == 3 || streak == 5) {
		svc.say(s, taunt(svc.teamName(label), svc.teamName(label.Other()), streak))
	}

	svc.publish(chatID, events.TypeAnswerCorrect, events.AnswerCorrectPayload{
		Index:          index,
		ParticipantID:  from.ID,
		Name:           name,
		Points:         points,
		Doubled:        doubled,
		ElapsedSeconds: elapsed.Seconds(),
		Team:           string(label),
		Streak:         streak,
	})
	log.Info().
		Str("chat_id", chatID).
		Str("participant", from.ID).
		Int("points", points).
		Bool("doubled", doubled).
		Int("streak", streak).
		Msg("correct answer")

	// Advance on the session's own context: a restart during the delay is
	// caught by the generation check inside advance.
	svc.advance(s.lifeCtx, s, gen, index+1)

	return Result{
		Outcome: OutcomeCorrect,
		Points:  points,
		Elapsed: elapsed,
		Team:    label,
		Streak:  streak,
	}
}

// announceUnmuted tells the chat a team's silence has lapsed. No-op for the
// zero label.
func (svc *Service) announceUnmuted(s *Session, team TeamLabel) {
	if team == "" {
		return
	}
	svc.say(s, fmt.Sprintf("%s are no longer muted. You may answer now.", svc.teamName(team)))
	svc.publish(s.chatID, events.TypeTeamUnmuted, events.TeamUnmutedPayload{Team: string(team)})
}

func streakLine(team string, streak int) string {
	switch {
	case streak >= 5:
		return fmt.Sprintf("%s IS UNSTOPPABLE! %d WINS!", team, streak)
	case streak >= 3:
		return fmt.Sprintf("%s IS ON FIRE! %d STREAK!", team, streak)
	default:
		return fmt.Sprintf("%s is on a %d streak!", team, streak)
	}
}

func taunt(winners, losers string, streak int) string {
	if streak >= 5 {
		return fmt.Sprintf("%s, you are getting cooked!", losers)
	}
	return fmt.Sprintf("Uh oh %s, %s is finding their rhythm!", losers, winners)
}
