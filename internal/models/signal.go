package models

// ReactionDirection says whether a reaction was placed or withdrawn.
type ReactionDirection string

const (
	ReactionAdded   ReactionDirection = "added"
	ReactionRemoved ReactionDirection = "removed"
)

// ReactionSignal is the unit of work delivered by the chat gateway whenever a
// user toggles the attending emoji on a message.
type ReactionSignal struct {
	MessageID string            `json:"message_id"`
	UserID    string            `json:"user_id"`
	Emoji     string            `json:"emoji"`
	Direction ReactionDirection `json:"direction"`
}

// DeleteSignal asks for the event bound to MessageID to be torn down.
type DeleteSignal struct {
	MessageID    string `json:"message_id"`
	UserID       string `json:"user_id"`
	IsPrivileged bool   `json:"is_privileged"`
}
