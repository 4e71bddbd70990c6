// Package risk turns confirmed findings into deterministic, reproducible
// risk scores.
//
// The Scorer multiplies four factors (a per-category severity weight, the
// detection confidence, the measured or estimated reproducibility, and an
// impact factor derived from the payload severity and evidence markers)
// and scales the product to [0, 100]. Fixed boundaries map the score to a
// discrete Level and remediation Priority. Scoring has no hidden state:
// identical inputs always produce an identical Score.
//
//	scorer := risk.NewScorer()
//	score := scorer.FromStability(detection, stabilityResult)
//	fmt.Println(score.Value, score.Level, score.Priority)
package risk
