package session

import "fmt"

// TurnPlan describes the payload and expected outcome for one turn of a
// multi-turn strategy.
type TurnPlan struct {
	// Turn is the 1-indexed turn number this plan applies to.
	Turn int `json:"turn"`

	// PayloadTemplate is the message to deliver on this turn.
	PayloadTemplate string `json:"payload_template"`

	// ExpectedState is the lifecycle state the session should be in after
	// this turn.
	ExpectedState AttackState `json:"expected_state"`

	// SuccessIndicators are response patterns suggesting the turn worked.
	SuccessIndicators []string `json:"success_indicators,omitempty"`

	// FailureIndicators are response patterns suggesting the turn was refused.
	FailureIndicators []string `json:"failure_indicators,omitempty"`
}

// Strategy is an ordered per-turn plan for a multi-turn attack.
type Strategy struct {
	// Name identifies the strategy.
	Name string `json:"name"`

	// Description explains the strategy's approach.
	Description string `json:"description,omitempty"`

	// MaxTurns caps the number of turns the strategy uses.
	MaxTurns int `json:"max_turns"`

	// Plans holds the per-turn plans.
	Plans []TurnPlan `json:"plans,omitempty"`
}

// NewStrategy creates a strategy with the given name and turn budget.
// A maxTurns of zero or less defaults to 5.
func NewStrategy(name, description string, maxTurns int) *Strategy {
	if maxTurns <= 0 {
		maxTurns = 5
	}
	return &Strategy{
		Name:        name,
		Description: description,
		MaxTurns:    maxTurns,
	}
}

// AddTurnPlan appends a plan for a specific turn. Returns the strategy for
// chaining. ExpectedState defaults to attacking when unset.
func (s *Strategy) AddTurnPlan(plan TurnPlan) *Strategy {
	if plan.ExpectedState == "" {
		plan.ExpectedState = StateAttacking
	}
	s.Plans = append(s.Plans, plan)
	return s
}

// TurnPlan returns the plan for the given turn number and whether one exists.
func (s *Strategy) TurnPlan(turn int) (TurnPlan, bool) {
	for _, plan := range s.Plans {
		if plan.Turn == turn {
			return plan, true
		}
	}
	return TurnPlan{}, false
}

// DelayedAttackStrategy builds a strategy that spends its early turns on
// rapport before delivering the payload: context building first, then
// filler turns, with the trigger phrase and payload arriving on the
// second-to-last turn.
func DelayedAttackStrategy(initialContext, attackPayload, triggerPhrase string, maxTurns int) *Strategy {
	if triggerPhrase == "" {
		triggerPhrase = "now"
	}
	strategy := NewStrategy("delayed_attack", "Build context before delivering attack", maxTurns)

	strategy.AddTurnPlan(TurnPlan{
		Turn:              1,
		PayloadTemplate:   initialContext,
		ExpectedState:     StateEngaging,
		SuccessIndicators: []string{"help", "assist", "sure", "of course"},
	})

	for turn := 2; turn < strategy.MaxTurns; turn++ {
		plan := TurnPlan{
			Turn:            turn,
			PayloadTemplate: "Can you help me understand more?",
			ExpectedState:   StateEngaging,
		}
		if turn == strategy.MaxTurns-1 {
			plan.PayloadTemplate = fmt.Sprintf("Thank you. %s, %s", triggerPhrase, attackPayload)
			plan.ExpectedState = StateAttacking
		}
		strategy.AddTurnPlan(plan)
	}
	return strategy
}

// ProgressiveEscalationStrategy builds a strategy that opens with a probe
// and escalates through the given payloads, one per turn, up to the turn
// budget.
func ProgressiveEscalationStrategy(initialProbe string, escalationPayloads []string, maxTurns int) *Strategy {
	strategy := NewStrategy("progressive_escalation", "Gradually increase attack intensity", maxTurns)

	strategy.AddTurnPlan(TurnPlan{
		Turn:            1,
		PayloadTemplate: initialProbe,
		ExpectedState:   StateProbing,
	})

	for i, payload := range escalationPayloads {
		if i+2 > strategy.MaxTurns {
			break
		}
		strategy.AddTurnPlan(TurnPlan{
			Turn:            i + 2,
			PayloadTemplate: payload,
			ExpectedState:   StateEscalating,
		})
	}
	return strategy
}
