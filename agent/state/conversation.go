package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/nvejas/citeline/agent/contract"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidRole    = errors.New("turn has unknown role")
)

// Conversation is the append-only transcript for one session. Turns stay
// in arrival order; nothing edits or reorders them. The only structural
// mutation besides Append is Truncate, the retention hook.
type Conversation struct {
	SessionID string              `json:"session_id"`
	Turns     []contractx.Message `json:"turns,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func New(sessionID string, now time.Time) *Conversation {
	return &Conversation{
		SessionID: sessionID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Append records one turn. Empty text is allowed: a blank user message is
// still a turn the transcript has to show.
func (c *Conversation) Append(role contractx.Role, text string, at time.Time) {
	c.Turns = append(c.Turns, contractx.Message{
		Role: role,
		Text: text,
		At:   at.UTC(),
	})
	c.UpdatedAt = at.UTC()
}

// Tail returns a copy of the last n turns, or all of them when fewer
// exist. n <= 0 yields nil.
func (c *Conversation) Tail(n int) []contractx.Message {
	if n <= 0 || len(c.Turns) == 0 {
		return nil
	}
	start := len(c.Turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]contractx.Message, len(c.Turns)-start)
	copy(out, c.Turns[start:])
	return out
}

func (c *Conversation) Len() int {
	return len(c.Turns)
}

// Truncate applies the retention policy: evict the oldest turns until at
// most maxTurns remain. maxTurns <= 0 means unbounded.
func (c *Conversation) Truncate(maxTurns int) {
	if maxTurns <= 0 || len(c.Turns) <= maxTurns {
		return
	}
	kept := make([]contractx.Message, maxTurns)
	copy(kept, c.Turns[len(c.Turns)-maxTurns:])
	c.Turns = kept
}

func (c *Conversation) Validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return ErrInvalidSession
	}
	for i, turn := range c.Turns {
		switch turn.Role {
		case contractx.RoleUser, contractx.RoleAssistant:
		default:
			return fmt.Errorf("%w: turn=%d role=%q", ErrInvalidRole, i, turn.Role)
		}
	}
	return nil
}
