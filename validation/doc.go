// Package validation decides whether a candidate detection is a real,
// reproducible vulnerability by re-executing the attack against the target.
//
// Two validators are provided. StabilityValidator is the full multi-strategy
// engine: it re-runs an attack under one of four strategies (replay, variant,
// hybrid, progressive), aggregates the attempts into a consistency ratio, and
// classifies the finding as stable, unstable, flaky, or a false positive.
// Validator is the cheaper one-shot fallback: high-confidence detections
// auto-confirm without re-execution, everything else gets a fixed replay loop.
//
// Both validators depend on two injected collaborators: an Executor that
// sends a payload to the target and returns the response text, and a Detector
// that judges a response. Execution errors are recorded on the failing
// attempt and count as failed reproductions; they never abort a run. A
// validator invoked without its collaborators returns an explicit
// unconfirmable result instead of failing the caller.
//
// Example usage:
//
//	cfg := validation.DefaultConfig()
//	v := validation.NewStabilityValidator(cfg, executor, detector,
//		validation.WithVariantGenerator(variants))
//
//	result := v.Validate(ctx, detection, nil, validation.ModeStandard)
//	if result.IsStable {
//		score := scorer.FromStability(detection, result, nil)
//	}
package validation
