package access

// AllowList gates privileged quiz operations behind a fixed participant
// list. An empty list allows everyone, which is the development default.
type AllowList struct {
	allowed map[string]bool
}

// NewAllowList builds a gate from participant IDs.
func NewAllowList(participantIDs []string) *AllowList {
	allowed := make(map[string]bool, len(participantIDs))
	for _, id := range participantIDs {
		if id != "" {
			allowed[id] = true
		}
	}
	return &AllowList{allowed: allowed}
}

// Allow implements the quiz gate.
func (a *AllowList) Allow(chatID, participantID string) bool {
	if len(a.allowed) == 0 {
		return true
	}
	return a.allowed[participantID]
}
