package risk

// Level is the discrete risk classification of a scored finding.
type Level string

const (
	// LevelLow covers scores in [0, 25).
	LevelLow Level = "low"

	// LevelMedium covers scores in [25, 50).
	LevelMedium Level = "medium"

	// LevelHigh covers scores in [50, 75).
	LevelHigh Level = "high"

	// LevelCritical covers scores in [75, 100].
	LevelCritical Level = "critical"
)

// IsValid checks if the level is a recognized value.
func (l Level) IsValid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the level.
func (l Level) String() string {
	return string(l)
}

// AllLevels returns all risk levels in ascending order of severity.
func AllLevels() []Level {
	return []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical}
}

// Priority is the remediation priority derived from a risk level.
type Priority string

const (
	// PriorityP0 demands immediate remediation.
	PriorityP0 Priority = "P0"

	// PriorityP1 should be remediated in the current cycle.
	PriorityP1 Priority = "P1"

	// PriorityP2 should be scheduled.
	PriorityP2 Priority = "P2"

	// PriorityP3 is backlog material.
	PriorityP3 Priority = "P3"
)

// IsValid checks if the priority is a recognized value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityP0, PriorityP1, PriorityP2, PriorityP3:
		return true
	default:
		return false
	}
}

// String returns the string representation of the priority.
func (p Priority) String() string {
	return string(p)
}

// LevelForScore maps a score in [0, 100] to its level using the fixed
// boundaries: [0,25) low, [25,50) medium, [50,75) high, [75,100] critical.
func LevelForScore(score float64) Level {
	switch {
	case score >= 75:
		return LevelCritical
	case score >= 50:
		return LevelHigh
	case score >= 25:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Priority returns the remediation priority for the level. The mapping is
// bijective: low↔P3, medium↔P2, high↔P1, critical↔P0.
func (l Level) Priority() Priority {
	switch l {
	case LevelCritical:
		return PriorityP0
	case LevelHigh:
		return PriorityP1
	case LevelMedium:
		return PriorityP2
	default:
		return PriorityP3
	}
}
