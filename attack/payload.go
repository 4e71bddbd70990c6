package attack

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payload is a single attack payload ready to be sent to a target.
type Payload struct {
	// ID is a unique identifier for the payload.
	ID string `json:"id"`

	// Content is the actual attack text delivered to the target.
	Content string `json:"content"`

	// Name is a human-readable payload name.
	Name string `json:"name,omitempty"`

	// Category is the OWASP LLM category this payload exercises.
	Category Category `json:"category"`

	// Severity is the declared severity if the attack succeeds.
	Severity Severity `json:"severity"`

	// TemplateID identifies the template the payload was generated from.
	TemplateID string `json:"template_id,omitempty"`

	// Tags are arbitrary labels for categorization and filtering.
	Tags []string `json:"tags,omitempty"`

	// Variables holds the substitution values used during generation.
	Variables map[string]string `json:"variables,omitempty"`

	// Metadata contains additional generator-specific context.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NewPayload creates a payload with a generated ID. Severity defaults to
// medium when the zero value is passed.
func NewPayload(content string, category Category, severity Severity) Payload {
	if severity == "" {
		severity = SeverityMedium
	}
	return Payload{
		ID:       uuid.New().String(),
		Content:  content,
		Category: category,
		Severity: severity,
	}
}

// Validate checks that the payload has the fields the confirmation
// pipeline depends on.
func (p Payload) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("payload ID is required")
	}
	if p.Content == "" {
		return fmt.Errorf("payload content is required")
	}
	if !p.Category.IsValid() {
		return fmt.Errorf("invalid category: %s", p.Category)
	}
	if !p.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", p.Severity)
	}
	return nil
}

// Detection is a candidate finding produced by an external detector for a
// single payload execution. The confirmation core treats it as read-only
// input: it decides whether to trust the detection and how to score it, but
// never mutates it.
type Detection struct {
	// Attack is the payload that was executed.
	Attack Payload `json:"attack"`

	// Response is the target's response text.
	Response string `json:"response,omitempty"`

	// Detected reports whether the detector considered the attack successful.
	Detected bool `json:"detected"`

	// Confidence is the detector's confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Evidence is structured supporting evidence collected by the detector.
	// Well-known marker keys such as "pii_found", "api_key" and "private_key"
	// influence the risk scorer's impact estimate.
	Evidence map[string]any `json:"evidence,omitempty"`

	// Error carries the execution error message, if any.
	Error string `json:"error,omitempty"`

	// Timestamp is when the detection was produced.
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Validate checks the detection fields the pipeline depends on.
func (d Detection) Validate() error {
	if err := d.Attack.Validate(); err != nil {
		return fmt.Errorf("invalid attack: %w", err)
	}
	if d.Confidence < 0.0 || d.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %f", d.Confidence)
	}
	return nil
}

// HasEvidence reports whether a given evidence marker is present and truthy.
// String and boolean markers are both accepted: a marker counts as present
// when it is boolean true or a non-empty string.
func (d Detection) HasEvidence(key string) bool {
	if d.Evidence == nil {
		return false
	}
	v, ok := d.Evidence[key]
	if !ok {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	default:
		return true
	}
}
