package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizzit/quizzit/internal/events"
)

// FormTeams shuffles every recorded participant into two teams of near-equal
// size. With reset, silence grants and double-score tags are wiped as well;
// without it they carry over to the new rosters.
func (svc *Service) FormTeams(ctx context.Context, chatID string, reset bool) error {
	s := svc.session(chatID)

	s.mu.Lock()
	if len(s.players) < 2 {
		s.mu.Unlock()
		return ErrNotEnoughPlayers
	}

	members := make([]Participant, 0, len(s.players))
	for id, name := range s.players {
		members = append(members, Participant{ID: id, DisplayName: name})
	}
	// Deterministic base order before the shuffle keeps the assignment
	// independent of map iteration.
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	shuffleParticipants(members)

	mid := (len(members) + 1) / 2
	s.assignments = make(map[string]TeamLabel, len(members))
	s.rosters = map[TeamLabel][]Participant{
		TeamA: append([]Participant(nil), members[:mid]...),
		TeamB: append([]Participant(nil), members[mid:]...),
	}
	for label, roster := range s.rosters {
		for _, p := range roster {
			s.assignments[p.ID] = label
		}
	}

	if reset {
		s.muteEnabled = make(map[TeamLabel]bool)
		s.muteUses = make(map[TeamLabel]int)
		s.mute = nil
		s.muteSeq++
		s.doubleTags = make(map[TeamLabel]map[string]bool)
	}
	rosterText := svc.rosterTextLocked(s)
	s.mu.Unlock()

	log.Info().
		Str("chat_id", chatID).
		Int("players", len(members)).
		Bool("reset", reset).
		Msg("teams formed")

	svc.say(s, "Teams reshuffled!\n\n"+rosterText)
	svc.publish(chatID, events.TypeTeamsFormed, events.TeamsFormedPayload{
		ChatID: chatID,
		Teams:  svc.rosterIDs(s),
		Reset:  reset,
	})
	return nil
}

// ShowTeams sends the current rosters to the chat.
func (svc *Service) ShowTeams(ctx context.Context, chatID string) error {
	s := svc.lookup(chatID)
	if s == nil {
		return ErrNoTeams
	}
	s.mu.Lock()
	if len(s.assignments) == 0 {
		s.mu.Unlock()
		return ErrNoTeams
	}
	text := svc.rosterTextLocked(s)
	s.mu.Unlock()
	svc.say(s, text)
	return nil
}

// GrantMute enables the silence ability for a team with a fixed number of
// uses. Granting again replaces the remaining count.
func (svc *Service) GrantMute(chatID string, team TeamLabel, uses int) error {
	if !team.Valid() {
		return ErrUnknownTeam
	}
	s := svc.session(chatID)
	s.mu.Lock()
	s.muteEnabled[team] = uses > 0
	s.muteUses[team] = uses
	s.mu.Unlock()
	log.Info().
		Str("chat_id", chatID).
		Str("team", string(team)).
		Int("uses", uses).
		Msg("silence granted")
	return nil
}

// Silence spends one of the caller's team's silence uses to mute the
// opposing team for the configured window. The window starts immediately
// and spans question boundaries.
func (svc *Service) Silence(ctx context.Context, chatID string, from Participant) error {
	s := svc.lookup(chatID)
	if s == nil {
		return ErrNoTeams
	}

	s.mu.Lock()
	label := s.teamOfLocked(from.ID)
	if label == "" {
		s.mu.Unlock()
		return ErrNotOnTeam
	}
	if !s.muteEnabled[label] {
		s.mu.Unlock()
		return ErrMuteNotGranted
	}
	if s.muteUses[label] <= 0 {
		s.mu.Unlock()
		return ErrMuteExhausted
	}
	s.muteUses[label]--
	remaining := s.muteUses[label]

	target := label.Other()
	s.muteSeq++
	inst := s.muteSeq
	window := svc.cfg.MuteWindow
	s.mute = &muteState{
		team:      target,
		expiresAt: svc.clock.Now().Add(window),
		instance:  inst,
	}
	s.mu.Unlock()

	svc.armMuteExpiry(s, inst, window)

	log.Info().
		Str("chat_id", chatID).
		Str("team", string(target)).
		Dur("window", window).
		Int("uses_left", remaining).
		Msg("team silenced")

	svc.say(s, fmt.Sprintf("%s used SILENCE!\n\n%s cannot answer for %d seconds!",
		svc.teamName(label), svc.teamName(target), int(window/time.Second)))
	svc.publish(chatID, events.TypeTeamSilenced, events.TeamSilencedPayload{
		Team:          string(target),
		By:            string(label),
		WindowSeconds: int(window / time.Second),
		UsesLeft:      remaining,
	})
	return nil
}

// armMuteExpiry schedules the end of one silence window. The goroutine hangs
// off the session's own context, not a question generation, so the window
// survives question transitions. The instance tag makes the clear a no-op
// when a newer silence has replaced this one, and the lazy check in Submit
// makes the timing uncritical.
func (svc *Service) armMuteExpiry(s *Session, inst uint64, d time.Duration) {
	t := svc.clock.NewTimer(d)
	go func() {
		select {
		case <-t.Chan():
		case <-s.lifeCtx.Done():
			stopAndDrainTimer(t)
			return
		}

		s.mu.Lock()
		m := s.mute
		if m == nil || m.instance != inst {
			s.mu.Unlock()
			return
		}
		team := m.team
		s.mute = nil
		s.mu.Unlock()

		svc.announceUnmuted(s, team)
	}()
}

// TagDouble adds or removes a double-score tag for a team. Matching against
// question tags is case-insensitive.
func (svc *Service) TagDouble(chatID string, team TeamLabel, tag string, add bool) error {
	if !team.Valid() {
		return ErrUnknownTeam
	}
	tag = normalize(tag)
	if tag == "" {
		return fmt.Errorf("empty tag")
	}
	s := svc.session(chatID)
	s.mu.Lock()
	if add {
		if s.doubleTags[team] == nil {
			s.doubleTags[team] = make(map[string]bool)
		}
		s.doubleTags[team][tag] = true
	} else {
		delete(s.doubleTags[team], tag)
	}
	s.mu.Unlock()
	log.Info().
		Str("chat_id", chatID).
		Str("team", string(team)).
		Str("tag", tag).
		Bool("add", add).
		Msg("double tag updated")
	return nil
}

// rosterTextLocked renders both team rosters.
func (svc *Service) rosterTextLocked(s *Session) string {
	var b strings.Builder
	for _, label := range []TeamLabel{TeamA, TeamB} {
		fmt.Fprintf(&b, "Team %s\n", svc.teamName(label))
		for _, p := range s.rosters[label] {
			fmt.Fprintf(&b, "- %s\n", p.DisplayName)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// rosterIDs snapshots team membership by participant ID for event payloads.
func (svc *Service) rosterIDs(s *Session) map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.rosters))
	for label, roster := range s.rosters {
		ids := make([]string, 0, len(roster))
		for _, p := range roster {
			ids = append(ids, p.ID)
		}
		out[string(label)] = ids
	}
	return out
}

func shuffleParticipants(ps []Participant) {
	rand.Shuffle(len(ps), func(i, j int) {
		ps[i], ps[j] = ps[j], ps[i]
	})
}

func sortedTags(tags map[string]bool) []string {
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
