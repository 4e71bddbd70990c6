// Package verdict confirms candidate LLM security findings and turns them
// into prioritized, reproducible risk scores.
//
// Scanners and detectors produce noisy detections: a response that looks
// like a successful prompt injection once may never reproduce again. The
// verdict pipeline decides which detections are real by re-executing them
// against the target, measuring how consistently they reproduce, and
// scoring the survivors deterministically.
//
// # Core Concepts
//
// The module is organized around several key concepts:
//
//   - Sessions: multi-turn attack conversations with a lifecycle state machine
//   - Stability validation: replay and variant strategies that re-execute a
//     detection and classify it as stable, unstable, flaky, or a false positive
//   - Risk scoring: a pure function from category, confidence,
//     reproducibility, and impact to a score, level, and priority
//   - Archive: persistence of confirmation records and session snapshots
//     for the downstream reporting layer
//
// # Getting Started
//
// Wire your target executor and detector into a pipeline:
//
//	import "github.com/zero-day-ai/verdict"
//
//	pipeline, err := verdict.New(executor, detector,
//		verdict.WithArchive(store),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pipeline.Close()
//
//	outcome, err := pipeline.Confirm(ctx, detection)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if outcome.Confirmed() {
//		fmt.Println(outcome.Score.Level, outcome.Score.Priority)
//	}
//
// The executor and detector are the only external collaborators: the
// executor sends an attack payload to the target and returns the response
// text, and the detector judges whether a response demonstrates the
// vulnerability. Both own their timeout and retry policy.
//
// # Multi-Turn Sessions
//
// Attacks that need conversational setup run through the session manager:
//
//	sess, _ := pipeline.Sessions().CreateSession(strategy, systemPrompt)
//	pipeline.Sessions().ExecuteTurn(sess.ID, userMsg, assistantMsg, nil, "")
//	outcome, err := pipeline.ConfirmSession(ctx, sess.ID, detection)
//
// # Error Handling
//
// Expected outcomes (illegal state transitions, low confidence, failed
// reproductions) are represented as data, not errors. Hard failures use
// sentinel errors and the structured Error type:
//
//	if err != nil {
//		if errors.Is(err, verdict.ErrInvalidDetection) {
//			// Reject the upstream detection
//		}
//	}
//
// # Thread Safety
//
// The session manager is safe for concurrent use. Individual sessions,
// validators, and the scorer's weight table are owned by a single caller.
package verdict
