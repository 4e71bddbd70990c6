package attack

import "testing"

func TestSeverity_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		want     bool
	}{
		{"critical is valid", SeverityCritical, true},
		{"high is valid", SeverityHigh, true},
		{"medium is valid", SeverityMedium, true},
		{"low is valid", SeverityLow, true},
		{"empty is invalid", Severity(""), false},
		{"info is invalid", Severity("info"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.severity.IsValid(); got != tt.want {
				t.Errorf("Severity.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeverity_ImpactFactor(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		want     float64
	}{
		{"critical", SeverityCritical, 1.0},
		{"high", SeverityHigh, 0.85},
		{"medium", SeverityMedium, 0.7},
		{"low", SeverityLow, 0.5},
		{"invalid falls back to medium", Severity("bogus"), 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.severity.ImpactFactor(); got != tt.want {
				t.Errorf("Severity.ImpactFactor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareSeverity(t *testing.T) {
	if CompareSeverity(SeverityLow, SeverityCritical) >= 0 {
		t.Error("CompareSeverity(low, critical) should be negative")
	}
	if CompareSeverity(SeverityCritical, SeverityLow) <= 0 {
		t.Error("CompareSeverity(critical, low) should be positive")
	}
	if CompareSeverity(SeverityHigh, SeverityHigh) != 0 {
		t.Error("CompareSeverity(high, high) should be zero")
	}
}

func TestAllSeverities(t *testing.T) {
	severities := AllSeverities()
	if len(severities) != 4 {
		t.Fatalf("AllSeverities() returned %d levels, want 4", len(severities))
	}
	for i := 1; i < len(severities); i++ {
		if CompareSeverity(severities[i-1], severities[i]) <= 0 {
			t.Errorf("AllSeverities() not ordered: %s should outrank %s",
				severities[i-1], severities[i])
		}
	}
}
