package domain

import "time"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one stored conversation entry for a sender. Turns are append-only;
// they are never mutated after insert, only pruned oldest-first.
type Turn struct {
	ID        int64
	SenderID  string
	Role      Role
	Content   string
	CreatedAt time.Time
}
