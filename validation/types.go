package validation

import (
	"time"

	"github.com/zero-day-ai/verdict/attack"
)

// StabilityLevel classifies how reliably a finding reproduces.
type StabilityLevel string

const (
	// LevelStable means the finding is consistently reproducible.
	LevelStable StabilityLevel = "stable"

	// LevelUnstable means the finding reproduces inconsistently.
	LevelUnstable StabilityLevel = "unstable"

	// LevelFlaky means the finding rarely reproduces.
	LevelFlaky StabilityLevel = "flaky"

	// LevelFalsePositive means the finding never reproduced.
	LevelFalsePositive StabilityLevel = "false_positive"
)

// IsValid checks if the level is a recognized value.
func (l StabilityLevel) IsValid() bool {
	switch l {
	case LevelStable, LevelUnstable, LevelFlaky, LevelFalsePositive:
		return true
	default:
		return false
	}
}

// String returns the string representation of the level.
func (l StabilityLevel) String() string {
	return string(l)
}

// Attempt records one execution/detection round within a validation run.
type Attempt struct {
	// Number is the 1-indexed attempt number.
	Number int `json:"attempt_number"`

	// Attack is the payload variant used for this attempt.
	Attack attack.Payload `json:"attack"`

	// Response is the target's response text, if execution succeeded.
	Response string `json:"response,omitempty"`

	// Detected reports whether the detector re-detected the vulnerability.
	Detected bool `json:"detected"`

	// Confidence is the detector's confidence for this attempt.
	Confidence float64 `json:"confidence"`

	// Error carries a collaborator failure. An errored attempt counts as a
	// failed reproduction; it never aborts the run.
	Error string `json:"error,omitempty"`

	// Evidence is the detector's evidence for this attempt.
	Evidence map[string]any `json:"evidence,omitempty"`

	// Timestamp is when the attempt finished.
	Timestamp time.Time `json:"timestamp"`
}

// StabilityResult aggregates a stability validation run.
//
// Invariant: SuccessfulCount + FailedCount == ValidationCount == len(Attempts).
type StabilityResult struct {
	// IsStable is true exactly when Level is LevelStable.
	IsStable bool `json:"is_stable"`

	// Level is the stability classification.
	Level StabilityLevel `json:"stability_level"`

	// Confidence is the mean confidence over successful attempts only,
	// 0 if none succeeded.
	Confidence float64 `json:"confidence"`

	// Consistency is the ratio of successful attempts to total attempts.
	Consistency float64 `json:"consistency"`

	// ValidationCount is the total number of attempts.
	ValidationCount int `json:"validation_count"`

	// SuccessfulCount is the number of attempts that re-detected the
	// vulnerability.
	SuccessfulCount int `json:"successful_count"`

	// FailedCount is the number of attempts that did not.
	FailedCount int `json:"failed_count"`

	// Attempts holds every attempt in order.
	Attempts []Attempt `json:"attempts,omitempty"`

	// StrategyUsed is the strategy that produced this result.
	StrategyUsed Strategy `json:"strategy_used"`

	// Notes is a human-readable summary.
	Notes string `json:"notes,omitempty"`
}

// IsFalsePositive reports whether the finding never reproduced.
func (r StabilityResult) IsFalsePositive() bool {
	return r.Level == LevelFalsePositive
}

// NeedsReview reports whether the finding should be triaged manually.
func (r StabilityResult) NeedsReview() bool {
	return r.Level == LevelUnstable || r.Level == LevelFlaky
}

// Status is the outcome of a one-shot validation.
type Status string

const (
	// StatusConfirmed means the vulnerability is real and reproducible.
	StatusConfirmed Status = "confirmed"

	// StatusUnconfirmed means the detection could not be validated.
	StatusUnconfirmed Status = "unconfirmed"

	// StatusFalsePositive means the detection is not a real vulnerability.
	StatusFalsePositive Status = "false_positive"

	// StatusUncertain means validation was inconclusive.
	StatusUncertain Status = "uncertain"
)

// IsValid checks if the status is a recognized value.
func (s Status) IsValid() bool {
	switch s {
	case StatusConfirmed, StatusUnconfirmed, StatusFalsePositive, StatusUncertain:
		return true
	default:
		return false
	}
}

// Method identifies how a one-shot validation reached its outcome.
type Method string

const (
	// MethodReplay re-executed the same attack.
	MethodReplay Method = "replay"

	// MethodVariation executed generated payload variations.
	MethodVariation Method = "variation"

	// MethodSemantic judged the detection from its own signals without
	// re-execution.
	MethodSemantic Method = "semantic"

	// MethodManual means manual review is required.
	MethodManual Method = "manual"
)

// Result is the outcome of a one-shot validation run.
type Result struct {
	// Original is the detection that was validated.
	Original attack.Detection `json:"original_result"`

	// Status is the validation outcome.
	Status Status `json:"status"`

	// Confidence is the mean confidence over successful reproductions.
	Confidence float64 `json:"confidence"`

	// Reproducibility is the fraction of attempts that re-detected the
	// vulnerability.
	Reproducibility float64 `json:"reproducibility"`

	// Method is how the outcome was reached.
	Method Method `json:"validation_method"`

	// Attempts is the number of re-executions performed.
	Attempts int `json:"attempts"`

	// SuccessfulReproductions counts attempts that re-detected.
	SuccessfulReproductions int `json:"successful_reproductions"`

	// Notes is a human-readable summary.
	Notes string `json:"notes,omitempty"`

	// Evidence holds per-attempt evidence collected during validation.
	Evidence map[string]any `json:"additional_evidence,omitempty"`
}

// IsConfirmed reports whether the vulnerability was confirmed.
func (r Result) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

// IsFalsePositive reports whether the detection was ruled out.
func (r Result) IsFalsePositive() bool {
	return r.Status == StatusFalsePositive
}
