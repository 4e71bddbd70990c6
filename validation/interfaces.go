package validation

import (
	"context"

	"github.com/zero-day-ai/verdict/attack"
	"github.com/zero-day-ai/verdict/session"
)

// Context carries the session state a collaborator may need to execute or
// judge an attack in a multi-turn scenario.
type Context struct {
	// History is the conversation so far, in chat API shape.
	History []session.Message `json:"history,omitempty"`

	// TurnNumber is the current turn in the conversation.
	TurnNumber int `json:"turn_number,omitempty"`

	// PreviousSuccess reports whether the previous attack in this session
	// succeeded.
	PreviousSuccess bool `json:"previous_success,omitempty"`

	// TargetInfo describes the target under test.
	TargetInfo map[string]any `json:"target_info,omitempty"`

	// Metadata contains additional collaborator-specific context.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Verdict is a detector's judgment of one response.
type Verdict struct {
	// Detected reports whether the attack succeeded.
	Detected bool `json:"detected"`

	// Confidence is the detector's confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Evidence is structured supporting evidence.
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Executor sends an attack payload to the target service and returns the
// response text. Failures propagate as attempt-level errors, never as a
// crash of the validation run. Implementations own their timeout and retry
// policy.
type Executor interface {
	Execute(ctx context.Context, payload attack.Payload, sctx *Context) (string, error)
}

// Detector judges whether a response demonstrates the vulnerability the
// payload targets.
type Detector interface {
	Detect(ctx context.Context, payload attack.Payload, response string, sctx *Context) (Verdict, error)
}

// VariantGenerator produces alternate payloads for the same attack,
// consumed by the variant, hybrid, and progressive strategies.
type VariantGenerator interface {
	Variants(payload attack.Payload) []attack.Payload
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, payload attack.Payload, sctx *Context) (string, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, payload attack.Payload, sctx *Context) (string, error) {
	return f(ctx, payload, sctx)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, payload attack.Payload, response string, sctx *Context) (Verdict, error)

// Detect implements Detector.
func (f DetectorFunc) Detect(ctx context.Context, payload attack.Payload, response string, sctx *Context) (Verdict, error) {
	return f(ctx, payload, response, sctx)
}

// VariantGeneratorFunc adapts a function to the VariantGenerator interface.
type VariantGeneratorFunc func(payload attack.Payload) []attack.Payload

// Variants implements VariantGenerator.
func (f VariantGeneratorFunc) Variants(payload attack.Payload) []attack.Payload {
	return f(payload)
}
