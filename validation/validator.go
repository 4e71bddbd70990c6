package validation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zero-day-ai/verdict/attack"
)

// ValidatorConfig controls the one-shot Validator.
type ValidatorConfig struct {
	// AutoConfirmThreshold is the detection confidence at or above which a
	// finding is confirmed without re-execution. Default 0.9.
	AutoConfirmThreshold float64 `json:"auto_confirm_threshold" yaml:"auto_confirm_threshold"`

	// MinReproducibility is the minimum fraction of attempts that must
	// re-detect the vulnerability to confirm it. Default 0.5.
	MinReproducibility float64 `json:"min_reproducibility" yaml:"min_reproducibility"`

	// Attempts is the number of replays performed when a detection does not
	// auto-confirm. Default 3.
	Attempts int `json:"attempts" yaml:"attempts"`
}

// DefaultValidatorConfig returns a ValidatorConfig with standard defaults.
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		AutoConfirmThreshold: 0.9,
		MinReproducibility:   0.5,
		Attempts:             3,
	}
}

// Validate checks the configuration for out-of-range values.
func (c ValidatorConfig) Validate() error {
	if c.AutoConfirmThreshold < 0 || c.AutoConfirmThreshold > 1 {
		return fmt.Errorf("validation: auto_confirm_threshold must be in [0,1], got %v", c.AutoConfirmThreshold)
	}
	if c.MinReproducibility < 0 || c.MinReproducibility > 1 {
		return fmt.Errorf("validation: min_reproducibility must be in [0,1], got %v", c.MinReproducibility)
	}
	if c.Attempts < 1 {
		return fmt.Errorf("validation: attempts must be at least 1, got %d", c.Attempts)
	}
	return nil
}

// Validator is a single-pass alternative to the StabilityValidator for
// pipelines that do not need multi-strategy stability checking.
// High-confidence detections auto-confirm; everything else is replayed a
// fixed number of times and judged on reproducibility.
type Validator struct {
	cfg    ValidatorConfig
	exec   Executor
	detect Detector
	logger *slog.Logger
}

// NewValidator creates a one-shot validator. The executor and detector may
// be nil; detections below the auto-confirm threshold then fall through to
// manual review instead of failing.
func NewValidator(cfg ValidatorConfig, exec Executor, detect Detector, opts ...Option) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &Validator{
		cfg:    cfg,
		exec:   exec,
		detect: detect,
		logger: o.logger.With("component", "validator"),
	}, nil
}

// Validate confirms or rules out a detection. Detections at or above the
// auto-confirm threshold are accepted without re-execution; the rest are
// replayed and confirmed when reproducibility clears the configured minimum.
func (v *Validator) Validate(ctx context.Context, detection attack.Detection, sctx *Context) (Result, error) {
	if err := detection.Validate(); err != nil {
		return Result{}, err
	}

	if detection.Confidence >= v.cfg.AutoConfirmThreshold {
		v.logger.Debug("detection auto-confirmed", "confidence", detection.Confidence)
		return Result{
			Original:        detection,
			Status:          StatusConfirmed,
			Confidence:      detection.Confidence,
			Reproducibility: 1.0,
			Method:          MethodSemantic,
			Notes:           fmt.Sprintf("High-confidence detection (%.2f) auto-confirmed without re-execution", detection.Confidence),
		}, nil
	}

	if v.exec == nil || v.detect == nil {
		return Result{
			Original:   detection,
			Status:     StatusUncertain,
			Confidence: detection.Confidence,
			Method:     MethodManual,
			Notes:      "Manual review required: no executor or detector available",
		}, nil
	}

	payloads := make([]attack.Payload, v.cfg.Attempts)
	for i := range payloads {
		payloads[i] = detection.Attack
	}
	return v.replay(ctx, detection, payloads, MethodReplay, sctx)
}

// ValidateWithVariants replays the original attack plus each supplied
// variant once, and judges the detection on how many of them re-detect.
func (v *Validator) ValidateWithVariants(ctx context.Context, detection attack.Detection, variants []attack.Payload, sctx *Context) (Result, error) {
	if err := detection.Validate(); err != nil {
		return Result{}, err
	}
	if v.exec == nil || v.detect == nil {
		return Result{
			Original:   detection,
			Status:     StatusUncertain,
			Confidence: detection.Confidence,
			Method:     MethodManual,
			Notes:      "Manual review required: no executor or detector available",
		}, nil
	}

	payloads := append([]attack.Payload{detection.Attack}, variants...)
	return v.replay(ctx, detection, payloads, MethodVariation, sctx)
}

// QuickValidate judges a detection from its own confidence signal without
// any re-execution. Useful when the target is no longer reachable.
func (v *Validator) QuickValidate(detection attack.Detection) Result {
	result := Result{
		Original:   detection,
		Confidence: detection.Confidence,
		Method:     MethodSemantic,
	}
	switch {
	case detection.Confidence >= 0.85:
		result.Status = StatusConfirmed
		result.Reproducibility = 0.9
		result.Notes = "Confirmed on detection confidence alone"
	case detection.Confidence >= 0.5:
		result.Status = StatusUnconfirmed
		result.Notes = "Moderate confidence; re-execution recommended"
	default:
		result.Status = StatusFalsePositive
		result.Notes = "Low confidence detection ruled out"
	}
	return result
}

// replay executes each payload once and aggregates the outcomes.
func (v *Validator) replay(ctx context.Context, detection attack.Detection, payloads []attack.Payload, method Method, sctx *Context) (Result, error) {
	successes := 0
	confidenceSum := 0.0
	evidence := make(map[string]any)

	for i, payload := range payloads {
		response, err := v.exec.Execute(ctx, payload, sctx)
		if err != nil {
			v.logger.Debug("replay attempt errored", "attempt", i+1, "error", err)
			evidence[fmt.Sprintf("attempt_%d_error", i+1)] = err.Error()
			continue
		}
		verdict, err := v.detect.Detect(ctx, payload, response, sctx)
		if err != nil {
			v.logger.Debug("replay attempt errored", "attempt", i+1, "error", err)
			evidence[fmt.Sprintf("attempt_%d_error", i+1)] = err.Error()
			continue
		}
		if verdict.Detected {
			successes++
			confidenceSum += verdict.Confidence
			if len(verdict.Evidence) > 0 {
				evidence[fmt.Sprintf("attempt_%d", i+1)] = verdict.Evidence
			}
		}
	}

	total := len(payloads)
	reproducibility := float64(successes) / float64(total)
	var confidence float64
	if successes > 0 {
		confidence = confidenceSum / float64(successes)
	}

	result := Result{
		Original:                detection,
		Confidence:              confidence,
		Reproducibility:         reproducibility,
		Method:                  method,
		Attempts:                total,
		SuccessfulReproductions: successes,
		Evidence:                evidence,
	}
	switch {
	case reproducibility >= v.cfg.MinReproducibility:
		result.Status = StatusConfirmed
		result.Notes = fmt.Sprintf("Reproduced %d/%d times", successes, total)
	case successes > 0:
		result.Status = StatusUncertain
		result.Notes = fmt.Sprintf("Reproduced only %d/%d times", successes, total)
	default:
		result.Status = StatusFalsePositive
		result.Notes = fmt.Sprintf("Could not reproduce in %d attempts", total)
	}

	v.logger.Info("validation complete",
		"status", result.Status,
		"reproducibility", result.Reproducibility,
		"attempts", total,
	)
	return result, nil
}
