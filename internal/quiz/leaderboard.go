package quiz

import (
	"fmt"
	"sort"
	"strings"
)

var medals = []string{"🥇", "🥈", "🥉"}

// leaderboardLocked renders team totals and the individual standings of the
// current round. Returns "" when nobody has scored yet. Caller holds s.mu.
func (svc *Service) leaderboardLocked(s *Session) string {
	if len(s.scores) == 0 {
		return ""
	}

	type entry struct {
		id     string
		name   string
		points int
	}
	entries := make([]entry, 0, len(s.scores))
	teamTotals := make(map[TeamLabel]int)
	for id, points := range s.scores {
		name := s.players[id]
		if name == "" {
			name = id
		}
		entries = append(entries, entry{id: id, name: name, points: points})
		if label := s.assignments[id]; label != "" {
			teamTotals[label] += points
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].points != entries[j].points {
			return entries[i].points > entries[j].points
		}
		return entries[i].name < entries[j].name
	})

	var b strings.Builder
	b.WriteString("SCOREBOARD\n")
	if len(s.assignments) > 0 {
		fmt.Fprintf(&b, "\nTeam %s: %d pts\nTeam %s: %d pts\n",
			svc.teamName(TeamA), teamTotals[TeamA],
			svc.teamName(TeamB), teamTotals[TeamB])
	}
	b.WriteString("\n")
	for i, e := range entries {
		rank := fmt.Sprintf("#%d", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		line := fmt.Sprintf("%s %s: %d pts", rank, e.name, e.points)
		if label := s.assignments[e.id]; label != "" {
			line += fmt.Sprintf(" [%s]", svc.teamName(label))
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
