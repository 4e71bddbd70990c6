package attack

import "fmt"

// Severity represents the declared severity of an attack payload.
// It is set by the payload author and feeds the risk scorer's impact
// estimate; it is independent of detection confidence.
type Severity string

const (
	// SeverityCritical indicates an attack whose success implies full compromise.
	// Examples: arbitrary instruction override, credential exfiltration
	SeverityCritical Severity = "critical"

	// SeverityHigh indicates an attack with significant impact if successful.
	// Examples: partial data exposure, policy bypass
	SeverityHigh Severity = "high"

	// SeverityMedium indicates an attack with moderate impact.
	// Examples: limited information disclosure
	SeverityMedium Severity = "medium"

	// SeverityLow indicates an attack with minor impact.
	// Examples: cosmetic policy violations
	SeverityLow Severity = "low"
)

// severityImpact maps severity levels to impact factors used by the
// risk scorer when no explicit impact factor is supplied.
var severityImpact = map[Severity]float64{
	SeverityCritical: 1.0,
	SeverityHigh:     0.85,
	SeverityMedium:   0.7,
	SeverityLow:      0.5,
}

// IsValid returns true if the severity level is valid.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// ImpactFactor returns the default impact factor for this severity tier.
// Returns 0.7 (the medium tier) for invalid severity levels.
func (s Severity) ImpactFactor() float64 {
	if impact, ok := severityImpact[s]; ok {
		return impact
	}
	return severityImpact[SeverityMedium]
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into a Severity value.
// Returns an error if the string is not a valid severity level.
func ParseSeverity(s string) (Severity, error) {
	severity := Severity(s)
	if !severity.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", s)
	}
	return severity, nil
}

// CompareSeverity compares two severity levels.
// Returns:
//   - negative if s1 < s2
//   - zero if s1 == s2
//   - positive if s1 > s2
func CompareSeverity(s1, s2 Severity) int {
	i1 := s1.ImpactFactor()
	i2 := s2.ImpactFactor()
	if i1 < i2 {
		return -1
	}
	if i1 > i2 {
		return 1
	}
	return 0
}

// AllSeverities returns all valid severity levels in order from critical to low.
func AllSeverities() []Severity {
	return []Severity{
		SeverityCritical,
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
	}
}
