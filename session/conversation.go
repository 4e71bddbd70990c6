package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrTurnLimit is returned when appending a turn would exceed the
// conversation's configured maximum. The turn is not recorded; callers
// decide whether to complete the session or raise the limit.
var ErrTurnLimit = errors.New("session: conversation turn limit reached")

// Role represents the role of a message sender in a conversation.
type Role string

const (
	// RoleSystem represents system-level instructions or context.
	RoleSystem Role = "system"

	// RoleUser represents attack messages sent to the target.
	RoleUser Role = "user"

	// RoleAssistant represents target responses.
	RoleAssistant Role = "assistant"
)

// IsValid checks if the role is one of the defined constants.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Turn is a single message exchange unit within a conversation.
type Turn struct {
	// Role indicates who produced the message.
	Role Role `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// Timestamp is when the turn was recorded.
	Timestamp time.Time `json:"timestamp"`

	// Metadata contains additional turn-specific context.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Message is a role/content pair in the wire shape expected by LLM chat APIs.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DefaultMaxTurns is the conversation turn limit applied when none is
// configured.
const DefaultMaxTurns = 20

// Conversation is an ordered transcript of turns for one attack session.
//
// The turn count never exceeds MaxTurns: appending past the limit fails
// with ErrTurnLimit rather than silently truncating. Conversations are not
// safe for concurrent use; they are owned by a single session.
type Conversation struct {
	// ID uniquely identifies the conversation.
	ID string `json:"id"`

	// Turns is the ordered transcript.
	Turns []Turn `json:"turns"`

	// MaxTurns caps the transcript length.
	MaxTurns int `json:"max_turns"`

	// Metadata contains conversation-level context.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewConversation creates an empty conversation. A maxTurns of zero or
// less applies DefaultMaxTurns.
func NewConversation(maxTurns int) *Conversation {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Conversation{
		ID:       shortID(),
		MaxTurns: maxTurns,
	}
}

// shortID returns an 8-character identifier, enough to tell sessions apart
// in logs without the noise of a full UUID.
func shortID() string {
	return uuid.New().String()[:8]
}

// TurnCount returns the number of recorded turns.
func (c *Conversation) TurnCount() int {
	return len(c.Turns)
}

// LastTurn returns the most recent turn, or nil if the transcript is empty.
func (c *Conversation) LastTurn() *Turn {
	if len(c.Turns) == 0 {
		return nil
	}
	return &c.Turns[len(c.Turns)-1]
}

// LastResponse returns the content of the most recent assistant turn and
// whether one exists.
func (c *Conversation) LastResponse() (string, bool) {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == RoleAssistant {
			return c.Turns[i].Content, true
		}
	}
	return "", false
}

// AddUserMessage appends an attack message.
// Returns ErrTurnLimit if the conversation is full.
func (c *Conversation) AddUserMessage(content string, metadata map[string]any) error {
	return c.append(RoleUser, content, metadata)
}

// AddAssistantResponse appends a target response.
// Returns ErrTurnLimit if the conversation is full.
func (c *Conversation) AddAssistantResponse(content string, metadata map[string]any) error {
	return c.append(RoleAssistant, content, metadata)
}

// AddSystemMessage appends a system message.
// Returns ErrTurnLimit if the conversation is full.
func (c *Conversation) AddSystemMessage(content string, metadata map[string]any) error {
	return c.append(RoleSystem, content, metadata)
}

func (c *Conversation) append(role Role, content string, metadata map[string]any) error {
	if len(c.Turns) >= c.MaxTurns {
		return fmt.Errorf("%w (%d)", ErrTurnLimit, c.MaxTurns)
	}
	c.Turns = append(c.Turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	return nil
}

// Messages returns the transcript in chat API shape. System turns are
// omitted unless includeSystem is true.
func (c *Conversation) Messages(includeSystem bool) []Message {
	messages := make([]Message, 0, len(c.Turns))
	for _, turn := range c.Turns {
		if turn.Role == RoleSystem && !includeSystem {
			continue
		}
		messages = append(messages, Message{Role: turn.Role.String(), Content: turn.Content})
	}
	return messages
}

// ContextWindow returns the last n turns in chat API shape, dropping any
// system turns inside the window. Fewer than n messages come back when the
// window contains system turns.
func (c *Conversation) ContextWindow(n int) []Message {
	turns := c.Turns
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	messages := make([]Message, 0, len(turns))
	for _, turn := range turns {
		if turn.Role == RoleSystem {
			continue
		}
		messages = append(messages, Message{Role: turn.Role.String(), Content: turn.Content})
	}
	return messages
}

// Clear removes all recorded turns.
func (c *Conversation) Clear() {
	c.Turns = nil
}

// ConversationBuilder assembles a conversation turn by turn. Builder
// methods ignore the turn limit error; Build surfaces it.
type ConversationBuilder struct {
	conversation *Conversation
	err          error
}

// NewConversationBuilder creates a builder for a conversation with the
// given turn limit.
func NewConversationBuilder(maxTurns int) *ConversationBuilder {
	return &ConversationBuilder{conversation: NewConversation(maxTurns)}
}

// WithSystemPrompt adds a system prompt.
func (b *ConversationBuilder) WithSystemPrompt(prompt string) *ConversationBuilder {
	b.record(b.conversation.AddSystemMessage(prompt, nil))
	return b
}

// WithUserMessage adds an attack message.
func (b *ConversationBuilder) WithUserMessage(content string) *ConversationBuilder {
	b.record(b.conversation.AddUserMessage(content, nil))
	return b
}

// WithAssistantResponse adds a target response.
func (b *ConversationBuilder) WithAssistantResponse(content string) *ConversationBuilder {
	b.record(b.conversation.AddAssistantResponse(content, nil))
	return b
}

func (b *ConversationBuilder) record(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// Build returns the assembled conversation, or the first error recorded
// while adding turns.
func (b *ConversationBuilder) Build() (*Conversation, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.conversation, nil
}
