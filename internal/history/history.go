// Package history stores and reconstructs conversation turns.
//
// A turn is one message in a conversation, owned by a user record and tagged
// with the role that produced it. Turns are never edited after creation;
// chronological order (created_at, id) is the only ordering used to rebuild
// conversational context.
package history

import "time"

// Turn roles. These match the roles the generative service expects.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one message exchanged in a conversation.
type Turn struct {
	ID        int64
	UserID    int64
	Role      string
	Content   string
	CreatedAt time.Time
}
