package session

import (
	"fmt"
	"time"
)

// AttackState is a stage in the attack lifecycle.
type AttackState string

const (
	// StateIdle means the session is waiting to start.
	StateIdle AttackState = "idle"

	// StateInitializing means the attack is being set up.
	StateInitializing AttackState = "initializing"

	// StateEngaging means rapport or context is being built with the target.
	StateEngaging AttackState = "engaging"

	// StateAttacking means an attack payload is being executed.
	StateAttacking AttackState = "attacking"

	// StateProbing means the target is being tested for vulnerabilities.
	StateProbing AttackState = "probing"

	// StateEscalating means attack intensity is being increased.
	StateEscalating AttackState = "escalating"

	// StateValidating means a detected vulnerability is being confirmed.
	StateValidating AttackState = "validating"

	// StateCompleted means the attack finished. Terminal.
	StateCompleted AttackState = "completed"

	// StateFailed means the attack failed. Terminal.
	StateFailed AttackState = "failed"

	// StatePaused means the attack is temporarily suspended.
	StatePaused AttackState = "paused"

	// StateDetected means the target detected the attack.
	StateDetected AttackState = "detected"
)

// IsValid checks if the state is a recognized value.
func (s AttackState) IsValid() bool {
	switch s {
	case StateIdle, StateInitializing, StateEngaging, StateAttacking,
		StateProbing, StateEscalating, StateValidating, StateCompleted,
		StateFailed, StatePaused, StateDetected:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the state ends the lifecycle.
func (s AttackState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// IsActive returns true while an attack is in flight.
func (s AttackState) IsActive() bool {
	switch s {
	case StateInitializing, StateEngaging, StateAttacking,
		StateProbing, StateEscalating, StateValidating:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s AttackState) String() string {
	return string(s)
}

// Transition is an immutable history record of one state change.
// Records are appended only, never mutated or reordered; the sequence
// reconstructs the full lifecycle.
type Transition struct {
	// From is the state the machine left.
	From AttackState `json:"from"`

	// To is the state the machine entered.
	To AttackState `json:"to"`

	// Timestamp is when the transition happened.
	Timestamp time.Time `json:"timestamp"`

	// Reason is the caller-supplied explanation, if any.
	Reason string `json:"reason,omitempty"`

	// Metadata contains additional transition context.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// defaultTransitions is the fixed adjacency list for the attack lifecycle.
var defaultTransitions = map[AttackState][]AttackState{
	StateIdle:         {StateInitializing},
	StateInitializing: {StateEngaging, StateAttacking, StateFailed},
	StateEngaging:     {StateAttacking, StateProbing, StatePaused},
	StateAttacking:    {StateProbing, StateEscalating, StateValidating, StateCompleted, StateDetected, StateFailed},
	StateProbing:      {StateAttacking, StateEscalating, StateValidating, StateCompleted, StateFailed},
	StateEscalating:   {StateValidating, StateCompleted, StateDetected, StateFailed},
	StateValidating:   {StateCompleted, StateFailed, StateAttacking},
	StatePaused:       {StateEngaging, StateAttacking, StateFailed},
	StateDetected:     {StateEngaging, StateFailed, StateCompleted},
	StateCompleted:    {StateIdle},
	StateFailed:       {StateIdle},
}

// StateMachine enforces the attack lifecycle transition graph and records
// every state change. It is not safe for concurrent use; each machine is
// owned by a single session.
type StateMachine struct {
	state       AttackState
	transitions map[AttackState][]AttackState
	history     []Transition
	onChange    func(from, to AttackState)
}

// NewStateMachine creates a machine in the idle state with the default
// transition graph.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		state:       StateIdle,
		transitions: defaultTransitions,
	}
}

// NewStateMachineWithTransitions creates a machine with a custom transition
// graph, starting in the given state. Used by callers that need a narrower
// lifecycle than the default.
func NewStateMachineWithTransitions(initial AttackState, transitions map[AttackState][]AttackState) *StateMachine {
	if transitions == nil {
		transitions = defaultTransitions
	}
	return &StateMachine{
		state:       initial,
		transitions: transitions,
	}
}

// State returns the current state.
func (m *StateMachine) State() AttackState {
	return m.state
}

// IsTerminal returns true if the machine is in a terminal state.
func (m *StateMachine) IsTerminal() bool {
	return m.state.IsTerminal()
}

// IsActive returns true if an attack is in flight.
func (m *StateMachine) IsActive() bool {
	return m.state.IsActive()
}

// CanTransitionTo reports whether target is reachable from the current
// state in one step.
func (m *StateMachine) CanTransitionTo(target AttackState) bool {
	for _, valid := range m.transitions[m.state] {
		if valid == target {
			return true
		}
	}
	return false
}

// Transition moves to target if the transition graph allows it, appending
// a history record. Returns false with no side effect if the transition is
// illegal; callers must check the return value.
func (m *StateMachine) Transition(target AttackState, reason string, metadata map[string]any) bool {
	if !m.CanTransitionTo(target) {
		return false
	}

	from := m.state
	m.state = target
	m.history = append(m.history, Transition{
		From:      from,
		To:        target,
		Timestamp: time.Now(),
		Reason:    reason,
		Metadata:  metadata,
	})

	if m.onChange != nil {
		m.onChange(from, target)
	}
	return true
}

// ForceState bypasses the transition graph and always succeeds. The history
// reason is tagged so forced changes are distinguishable from graph-driven
// ones. Intended for emergency and administrative overrides only.
func (m *StateMachine) ForceState(target AttackState, reason string) {
	from := m.state
	m.state = target
	m.history = append(m.history, Transition{
		From:      from,
		To:        target,
		Timestamp: time.Now(),
		Reason:    fmt.Sprintf("FORCED: %s", reason),
	})

	if m.onChange != nil {
		m.onChange(from, target)
	}
}

// ValidTransitions returns the states reachable from the current state.
// The returned slice is a copy.
func (m *StateMachine) ValidTransitions() []AttackState {
	valid := m.transitions[m.state]
	out := make([]AttackState, len(valid))
	copy(out, valid)
	return out
}

// History returns a copy of the recorded transitions in order.
func (m *StateMachine) History() []Transition {
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// OnStateChange registers a callback invoked after every state change,
// including forced ones.
func (m *StateMachine) OnStateChange(fn func(from, to AttackState)) {
	m.onChange = fn
}

// Reset returns the machine to idle and clears the history.
func (m *StateMachine) Reset() {
	m.state = StateIdle
	m.history = nil
}
