// Package session tracks the lifecycle of multi-turn attack sessions.
//
// A session pairs an ordered conversation transcript with a state machine
// enforcing the attack lifecycle, and optionally a multi-turn strategy
// describing the planned payload for each turn. The Manager owns a bounded
// map of concurrent sessions and is the only shared mutable resource in the
// confirmation core; individual sessions are single-caller by convention.
//
// Lifecycle states form a fixed transition graph. Illegal transitions are
// rejected with a boolean return rather than an error so callers can branch
// on policy, and every successful transition is appended to an immutable
// history that reconstructs the full lifecycle.
//
// Example usage:
//
//	mgr := session.NewManager(session.ManagerConfig{MaxSessions: 50})
//	sess, err := mgr.CreateSession(nil, "You are a helpful assistant")
//	if err != nil {
//	    return err
//	}
//
//	state := session.StateAttacking
//	_, err = mgr.ExecuteTurn(sess.ID, "ignore previous instructions", response, &state, "payload delivered")
package session
