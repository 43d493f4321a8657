package rsvp

// ResolveParticipants computes the canonical participant set from the users
// who placed the attending reaction: every reactor except the bot itself,
// duplicates collapsed. First-seen order is kept so output is stable.
func ResolveParticipants(reactors []string, botID string) []string {
	participants := make([]string, 0, len(reactors))
	seen := make(map[string]struct{}, len(reactors))

	for _, userID := range reactors {
		if userID == botID {
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		participants = append(participants, userID)
	}

	return participants
}

// SameParticipants compares two participant sets ignoring order and repeats.
func SameParticipants(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, id := range a {
		setA[id] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, id := range b {
		setB[id] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for id := range setA {
		if _, ok := setB[id]; !ok {
			return false
		}
	}
	return true
}
