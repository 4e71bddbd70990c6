package session

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"
)

// ErrSessionNotFound is returned when a session ID does not resolve to a
// live session.
var ErrSessionNotFound = errors.New("session: not found")

// Session is one active multi-turn attack, pairing a conversation
// transcript with lifecycle state and an optional strategy plan.
//
// Sessions are created by a Manager and mutated only through it or by the
// single caller holding the reference; they carry no internal locking.
type Session struct {
	// ID uniquely identifies the session.
	ID string `json:"id"`

	// Conversation is the session transcript.
	Conversation *Conversation `json:"conversation"`

	// Machine enforces the attack lifecycle.
	Machine *StateMachine `json:"-"`

	// Strategy is the optional multi-turn plan.
	Strategy *Strategy `json:"strategy,omitempty"`

	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`

	// Metadata contains session-level context.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CurrentTurn returns the 1-indexed turn number, counting a user message
// plus its response as one turn.
func (s *Session) CurrentTurn() int {
	return s.Conversation.TurnCount()/2 + 1
}

// IsComplete returns true once the session reached a terminal state.
func (s *Session) IsComplete() bool {
	return s.Machine.IsTerminal()
}

// ManagerConfig configures a session Manager.
type ManagerConfig struct {
	// MaxSessions caps the number of concurrently tracked sessions.
	// When the cap is reached, terminal sessions are evicted before a new
	// session is created; creation proceeds regardless. Default: 100.
	MaxSessions int

	// DefaultMaxTurns is the conversation turn limit applied to sessions
	// created without a strategy. Default: 20.
	DefaultMaxTurns int

	// Logger receives session lifecycle events. Default: slog.Default().
	Logger *slog.Logger
}

// Manager owns a bounded map of concurrent attack sessions. All map
// mutation happens under a single lock; session bodies are only touched by
// the caller holding the session reference.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      ManagerConfig
	logger   *slog.Logger
}

// NewManager creates a session manager, applying defaults for any zero
// config fields.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 100
	}
	if cfg.DefaultMaxTurns <= 0 {
		cfg.DefaultMaxTurns = DefaultMaxTurns
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		logger:   logger.With("component", "session-manager"),
	}
}

// CreateSession allocates a fresh conversation and state machine pair.
// Both strategy and systemPrompt are optional. When the session count is at
// the cap, terminal sessions are evicted first; if none exist, creation
// still proceeds.
func (m *Manager) CreateSession(strategy *Strategy, systemPrompt string) (*Session, error) {
	maxTurns := m.cfg.DefaultMaxTurns
	if strategy != nil {
		// Each planned turn is a user message plus a response.
		maxTurns = strategy.MaxTurns * 2
	}

	conversation := NewConversation(maxTurns)
	if systemPrompt != "" {
		if err := conversation.AddSystemMessage(systemPrompt, nil); err != nil {
			return nil, fmt.Errorf("add system prompt: %w", err)
		}
	}

	session := &Session{
		ID:           shortID(),
		Conversation: conversation,
		Machine:      NewStateMachine(),
		Strategy:     strategy,
		CreatedAt:    time.Now(),
	}

	m.mu.Lock()
	if len(m.sessions) >= m.cfg.MaxSessions {
		evicted := m.evictTerminalLocked()
		m.logger.Debug("session cap reached", "evicted", evicted, "cap", m.cfg.MaxSessions)
	}
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Debug("session created", "session_id", session.ID, "max_turns", maxTurns)
	return session, nil
}

// evictTerminalLocked removes all terminal sessions. Caller holds m.mu.
func (m *Manager) evictTerminalLocked() int {
	evicted := 0
	for id, session := range m.sessions {
		if session.IsComplete() {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// GetSession returns the session with the given ID.
// Returns ErrSessionNotFound if it does not exist.
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// ExecuteTurn records one user/assistant exchange on the session. If a
// target state is supplied, the corresponding transition is attempted;
// an illegal transition is silently ignored and the turn is still recorded.
// Turn-limit errors are surfaced, never truncated.
func (m *Manager) ExecuteTurn(id, userMessage, assistantResponse string, transition *AttackState, reason string) (*Session, error) {
	session, err := m.GetSession(id)
	if err != nil {
		return nil, err
	}

	if err := session.Conversation.AddUserMessage(userMessage, nil); err != nil {
		return nil, err
	}
	if err := session.Conversation.AddAssistantResponse(assistantResponse, nil); err != nil {
		return nil, err
	}

	if transition != nil {
		if !session.Machine.Transition(*transition, reason, nil) {
			m.logger.Debug("transition rejected",
				"session_id", id,
				"from", session.Machine.State(),
				"to", *transition)
		}
	}
	return session, nil
}

// CompleteSession transitions the session to completed or failed.
// Returns ErrSessionNotFound if the session does not exist.
func (m *Manager) CompleteSession(id string, success bool, reason string) error {
	session, err := m.GetSession(id)
	if err != nil {
		return err
	}

	target := StateCompleted
	if !success {
		target = StateFailed
	}
	if !session.Machine.Transition(target, reason, nil) {
		m.logger.Debug("completion transition rejected",
			"session_id", id,
			"from", session.Machine.State(),
			"to", target)
	}
	m.logger.Info("session completed", "session_id", id, "success", success, "state", session.Machine.State())
	return nil
}

// PatternMatch records one pattern that matched during response evaluation.
type PatternMatch struct {
	// Kind is "success" or "failure".
	Kind string `json:"kind"`

	// Pattern is the regular expression that matched.
	Pattern string `json:"pattern"`
}

// Evaluation is the outcome of matching a response against success and
// failure patterns. This is a convenience for strategy-driven sessions,
// not a detector: a failure pattern match overrides any success match.
type Evaluation struct {
	// Success is true if a success pattern matched and no failure pattern did.
	Success bool `json:"success"`

	// Matches lists every pattern that matched, in evaluation order.
	Matches []PatternMatch `json:"matches,omitempty"`

	// State is the session's lifecycle state at evaluation time.
	State AttackState `json:"state"`
}

// EvaluateResponse runs case-insensitive, multiline pattern search over the
// response and reports which side matched. Patterns that fail to compile
// are skipped.
func (m *Manager) EvaluateResponse(id, response string, successPatterns, failurePatterns []string) (Evaluation, error) {
	session, err := m.GetSession(id)
	if err != nil {
		return Evaluation{}, err
	}

	eval := Evaluation{State: session.Machine.State()}

	for _, pattern := range successPatterns {
		re, err := regexp.Compile("(?is)" + pattern)
		if err != nil {
			m.logger.Warn("invalid success pattern", "session_id", id, "pattern", pattern, "error", err)
			continue
		}
		if re.MatchString(response) {
			eval.Matches = append(eval.Matches, PatternMatch{Kind: "success", Pattern: pattern})
			eval.Success = true
		}
	}

	for _, pattern := range failurePatterns {
		re, err := regexp.Compile("(?is)" + pattern)
		if err != nil {
			m.logger.Warn("invalid failure pattern", "session_id", id, "pattern", pattern, "error", err)
			continue
		}
		if re.MatchString(response) {
			eval.Matches = append(eval.Matches, PatternMatch{Kind: "failure", Pattern: pattern})
			eval.Success = false
		}
	}

	return eval, nil
}

// ListActiveSessions returns all sessions not yet in a terminal state.
func (m *Manager) ListActiveSessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var active []*Session
	for _, session := range m.sessions {
		if !session.IsComplete() {
			active = append(active, session)
		}
	}
	return active
}

// ListAllSessions returns every tracked session.
func (m *Manager) ListAllSessions() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// DeleteSession removes a session. Returns true if it existed.
func (m *Manager) DeleteSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}
