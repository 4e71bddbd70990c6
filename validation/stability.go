package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zero-day-ai/verdict/attack"
)

// StabilityValidator re-executes a detected attack to establish whether the
// finding reproduces reliably. The strategy in the Config controls how
// payloads are chosen across attempts; classification of the aggregate
// outcome is identical for all strategies.
type StabilityValidator struct {
	cfg      Config
	exec     Executor
	detect   Detector
	variants VariantGenerator
	logger   *slog.Logger

	otel *otelState
}

// Option configures a StabilityValidator or Validator.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	variants VariantGenerator
	otel     OTelOptions
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithVariantGenerator sets the collaborator that produces alternate
// payloads for the variant, hybrid, and progressive strategies.
func WithVariantGenerator(g VariantGenerator) Option {
	return func(o *options) {
		o.variants = g
	}
}

// WithOTel configures OpenTelemetry tracing and metrics for validation runs.
func WithOTel(otel OTelOptions) Option {
	return func(o *options) {
		o.otel = otel
	}
}

// NewStabilityValidator creates a validator for the given configuration.
// The executor and detector may be nil; validation then degrades to an
// unstable result rather than failing, so a pipeline missing its
// collaborators still produces a reviewable outcome.
func NewStabilityValidator(cfg Config, exec Executor, detect Detector, opts ...Option) (*StabilityValidator, error) {
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

	v := &StabilityValidator{
		cfg:      cfg,
		exec:     exec,
		detect:   detect,
		variants: o.variants,
		logger:   o.logger.With("component", "stability-validator"),
	}

	otel, err := initOTelState(o.otel)
	if err != nil {
		return nil, fmt.Errorf("init otel instruments: %w", err)
	}
	v.otel = otel

	return v, nil
}

// Validate runs a standard-mode stability validation of the payload.
func (v *StabilityValidator) Validate(ctx context.Context, payload attack.Payload, sctx *Context) (StabilityResult, error) {
	return v.ValidateMode(ctx, payload, sctx, ModeStandard)
}

// ValidateMode runs a stability validation with the attempt budget for the
// given mode. The progressive strategy manages its own budget and ignores
// the mode.
//
// Two degenerate results skip execution entirely: when validation is
// disabled the result reports full confidence, and when no executor or
// detector is wired it reports zero confidence. The validator only sees
// the payload, so the originating detection's confidence is not carried
// into either result; callers that need it should score from the
// detection, as the pipeline does.
func (v *StabilityValidator) ValidateMode(ctx context.Context, payload attack.Payload, sctx *Context, mode Mode) (StabilityResult, error) {
	if v.cfg.Disabled {
		return StabilityResult{
			IsStable:     true,
			Level:        LevelStable,
			Confidence:   1.0,
			Consistency:  1.0,
			StrategyUsed: v.cfg.Strategy,
			Notes:        "Validation disabled; detection accepted without re-execution",
		}, nil
	}

	if v.exec == nil || v.detect == nil {
		v.logger.Warn("validation skipped", "reason", "missing executor or detector", "payload_id", payload.ID)
		return StabilityResult{
			Level:        LevelUnstable,
			StrategyUsed: v.cfg.Strategy,
			Notes:        "No executor or detector provided",
		}, nil
	}

	start := time.Now()

	var (
		attempts []Attempt
		err      error
	)
	switch v.cfg.Strategy {
	case StrategyProgressive:
		attempts, err = v.runProgressive(ctx, payload, sctx)
	default:
		attempts, err = v.runFixed(ctx, payload, sctx, v.cfg.AttemptsForMode(mode))
	}
	if err != nil {
		return StabilityResult{}, fmt.Errorf("stability validation interrupted: %w", err)
	}

	result := classify(attempts, v.cfg)

	v.logger.Info("stability validation complete",
		"payload_id", payload.ID,
		"level", result.Level,
		"consistency", result.Consistency,
		"attempts", result.ValidationCount,
	)
	v.recordOTelRun(ctx, payload, result, time.Since(start))

	return result, nil
}

// ValidateAsync runs Validate on its own goroutine and delivers the outcome
// on the returned channel. The channel is buffered; the result is never
// dropped if the caller is slow to receive.
func (v *StabilityValidator) ValidateAsync(ctx context.Context, payload attack.Payload, sctx *Context) <-chan AsyncOutcome {
	out := make(chan AsyncOutcome, 1)
	go func() {
		result, err := v.Validate(ctx, payload, sctx)
		out <- AsyncOutcome{Result: result, Err: err}
		close(out)
	}()
	return out
}

// AsyncOutcome carries the result of an asynchronous validation run.
type AsyncOutcome struct {
	Result StabilityResult
	Err    error
}

// runFixed performs exactly budget attempts, choosing each attempt's payload
// according to the configured strategy.
func (v *StabilityValidator) runFixed(ctx context.Context, payload attack.Payload, sctx *Context, budget int) ([]Attempt, error) {
	variants := v.generateVariants(payload)

	attempts := make([]Attempt, 0, budget)
	cursor := 0
	for i := 1; i <= budget; i++ {
		if i > 1 {
			if err := sleepCtx(ctx, v.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}
		attempts = append(attempts, v.runAttempt(ctx, i, v.payloadForAttempt(i, payload, variants, &cursor), sctx))
	}
	return attempts, nil
}

// runProgressive re-evaluates consistency after every attempt once the
// minimum count is reached. It stops early when consistency clears the
// required bar, keeps going past the standard budget only while consistency
// sits below the low-water threshold, and never exceeds the capped maximum.
func (v *StabilityValidator) runProgressive(ctx context.Context, payload attack.Payload, sctx *Context) ([]Attempt, error) {
	variants := v.generateVariants(payload)

	maxAttempts := v.cfg.MaxProgressiveAttempts
	if hard := 2 * v.cfg.MaxValidations; hard < maxAttempts {
		maxAttempts = hard
	}

	var attempts []Attempt
	successful := 0
	for i := 1; i <= maxAttempts; i++ {
		if i > 1 {
			if err := sleepCtx(ctx, v.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}

		p := payload
		if i >= 2 && i-2 < len(variants) {
			p = variants[i-2]
		}
		attempt := v.runAttempt(ctx, i, p, sctx)
		attempts = append(attempts, attempt)
		if attempt.Detected {
			successful++
		}

		if i < v.cfg.MinValidations {
			continue
		}
		consistency := float64(successful) / float64(i)
		if consistency >= v.cfg.RequiredConsistency {
			break
		}
		if consistency >= v.cfg.ProgressiveThreshold && i >= v.cfg.MaxValidations {
			break
		}
	}
	return attempts, nil
}

// payloadForAttempt picks the payload for a fixed-budget attempt. Attempt 1
// always replays the original; later attempts depend on the strategy.
func (v *StabilityValidator) payloadForAttempt(i int, original attack.Payload, variants []attack.Payload, cursor *int) attack.Payload {
	if i == 1 {
		return original
	}
	switch v.cfg.Strategy {
	case StrategyVariant:
		if i-2 < len(variants) {
			return variants[i-2]
		}
	case StrategyHybrid:
		if (i-1)%2 != 0 && *cursor < len(variants) {
			p := variants[*cursor]
			*cursor++
			return p
		}
	}
	return original
}

// runAttempt executes one payload and re-runs detection on the response.
// Collaborator errors are recorded on the attempt and count as a failed
// reproduction; they never abort the run.
func (v *StabilityValidator) runAttempt(ctx context.Context, num int, payload attack.Payload, sctx *Context) Attempt {
	attempt := Attempt{
		Number: num,
		Attack: payload,
	}

	response, err := v.exec.Execute(ctx, payload, sctx)
	if err != nil {
		attempt.Error = err.Error()
		attempt.Timestamp = time.Now()
		v.logger.Debug("validation attempt errored", "attempt", num, "error", err)
		return attempt
	}
	attempt.Response = response

	verdict, err := v.detect.Detect(ctx, payload, response, sctx)
	if err != nil {
		attempt.Error = err.Error()
		attempt.Timestamp = time.Now()
		v.logger.Debug("validation attempt errored", "attempt", num, "error", err)
		return attempt
	}

	attempt.Detected = verdict.Detected
	attempt.Confidence = verdict.Confidence
	attempt.Evidence = verdict.Evidence
	attempt.Timestamp = time.Now()

	if sctx != nil {
		sctx.PreviousSuccess = attempt.Detected
	}

	v.logger.Debug("validation attempt complete",
		"attempt", num,
		"detected", attempt.Detected,
		"confidence", attempt.Confidence,
	)
	return attempt
}

// generateVariants asks the variant generator for alternate payloads. A nil
// generator or an empty variant list degrades every strategy to pure replay.
func (v *StabilityValidator) generateVariants(payload attack.Payload) []attack.Payload {
	if v.variants == nil {
		if v.cfg.Strategy != StrategyReplay {
			v.logger.Debug("no variant generator configured, falling back to replay", "strategy", v.cfg.Strategy)
		}
		return nil
	}
	switch v.cfg.Strategy {
	case StrategyHybrid, StrategyProgressive:
		if !v.cfg.VariantOnRetry {
			return nil
		}
	}
	return v.variants.Variants(payload)
}

// classify derives the aggregate stability result from the recorded attempts.
func classify(attempts []Attempt, cfg Config) StabilityResult {
	total := len(attempts)
	successful := 0
	confidenceSum := 0.0
	for _, a := range attempts {
		if a.Detected {
			successful++
			confidenceSum += a.Confidence
		}
	}
	failed := total - successful

	var consistency float64
	if total > 0 {
		consistency = float64(successful) / float64(total)
	}
	var confidence float64
	if successful > 0 {
		confidence = confidenceSum / float64(successful)
	}

	var level StabilityLevel
	var notes string
	switch {
	case successful == 0:
		level = LevelFalsePositive
		notes = fmt.Sprintf("Vulnerability could not be reproduced (0/%d attempts)", total)
	case consistency >= cfg.RequiredConsistency:
		level = LevelStable
		notes = fmt.Sprintf("Vulnerability consistently reproduced (%d/%d times)", successful, total)
	case consistency >= 0.5:
		level = LevelUnstable
		notes = fmt.Sprintf("Vulnerability reproduced intermittently (%d/%d times)", successful, total)
	default:
		level = LevelFlaky
		notes = fmt.Sprintf("Vulnerability rarely reproduced (%d/%d times)", successful, total)
	}

	return StabilityResult{
		IsStable:        level == LevelStable,
		Level:           level,
		Confidence:      confidence,
		Consistency:     consistency,
		ValidationCount: total,
		SuccessfulCount: successful,
		FailedCount:     failed,
		Attempts:        attempts,
		StrategyUsed:    cfg.Strategy,
		Notes:           notes,
	}
}

// sleepCtx waits for the delay or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
