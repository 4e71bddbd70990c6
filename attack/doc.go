// Package attack defines the data types that flow into the vulnerability
// confirmation pipeline: attack payloads, their OWASP LLM categories and
// severity levels, and the detection candidates produced by upstream
// detectors.
//
// These types are read-only inputs from the perspective of the confirmation
// core. Payload generation and detection heuristics live in external
// collaborators; this package only gives their output a stable shape.
//
// Example usage:
//
//	payload := attack.NewPayload("Ignore all previous instructions...",
//		attack.CategoryPromptInjection, attack.SeverityHigh)
//
//	detection := attack.Detection{
//		Attack:     payload,
//		Response:   responseText,
//		Detected:   true,
//		Confidence: 0.8,
//	}
package attack
