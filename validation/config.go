package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects how many attempts a stability run spends.
type Mode string

const (
	// ModeQuick runs the minimum number of attempts.
	ModeQuick Mode = "quick"

	// ModeStandard runs the configured maximum number of attempts.
	ModeStandard Mode = "standard"

	// ModeDeep runs one attempt beyond the configured maximum.
	ModeDeep Mode = "deep"
)

// Strategy selects how a stability run chooses payloads across attempts.
type Strategy string

const (
	// StrategyReplay re-executes the identical attack every attempt.
	StrategyReplay Strategy = "replay"

	// StrategyVariant uses the original payload plus generated variants.
	StrategyVariant Strategy = "variant"

	// StrategyHybrid replays first, then alternates replay and variant.
	StrategyHybrid Strategy = "hybrid"

	// StrategyProgressive re-evaluates consistency after each attempt and
	// stops early once the finding is stable enough.
	StrategyProgressive Strategy = "progressive"
)

// IsValid checks if the strategy is a recognized value.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyReplay, StrategyVariant, StrategyHybrid, StrategyProgressive:
		return true
	default:
		return false
	}
}

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	return string(s)
}

// Config configures stability validation. The zero value is not usable
// directly; construct via DefaultConfig and override fields, or load from a
// file with LoadConfig.
type Config struct {
	// Disabled short-circuits validation: the original detection is
	// accepted as stable without re-execution.
	Disabled bool `yaml:"disabled" json:"disabled"`

	// MinValidations is the minimum attempts before the progressive
	// strategy may stop early. Default: 2.
	MinValidations int `yaml:"min_validations" json:"min_validations"`

	// MaxValidations is the attempt budget for the standard mode.
	// Default: 3.
	MaxValidations int `yaml:"max_validations" json:"max_validations"`

	// RequiredConsistency is the consistency ratio at or above which a
	// finding is classified stable. Default: 0.66 (2-of-3).
	RequiredConsistency float64 `yaml:"required_consistency" json:"required_consistency"`

	// RetryDelay is the cooperative pause between attempts, protecting the
	// external collaborator rather than throttling the validator itself.
	// Default: 500ms.
	RetryDelay time.Duration `yaml:"-" json:"-"`

	// VariantOnRetry enables variant payloads on retries for the hybrid
	// and progressive strategies. Default: true.
	VariantOnRetry bool `yaml:"variant_on_retry" json:"variant_on_retry"`

	// Strategy selects the validation strategy. Default: hybrid.
	Strategy Strategy `yaml:"strategy" json:"strategy"`

	// ProgressiveThreshold is the low-water mark: while consistency stays
	// below it, the progressive strategy keeps adding attempts. Default: 0.5.
	ProgressiveThreshold float64 `yaml:"progressive_threshold" json:"progressive_threshold"`

	// MaxProgressiveAttempts caps the progressive strategy; the effective
	// cap is min(MaxProgressiveAttempts, 2*MaxValidations). Default: 5.
	MaxProgressiveAttempts int `yaml:"max_progressive_attempts" json:"max_progressive_attempts"`

	// QuickValidations is the attempt count for the quick mode. Default: 1.
	QuickValidations int `yaml:"quick_validations" json:"quick_validations"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MinValidations:         2,
		MaxValidations:         3,
		RequiredConsistency:    0.66,
		RetryDelay:             500 * time.Millisecond,
		VariantOnRetry:         true,
		Strategy:               StrategyHybrid,
		ProgressiveThreshold:   0.5,
		MaxProgressiveAttempts: 5,
		QuickValidations:       1,
	}
}

// Validate checks the configuration for construction-time misuse.
func (c Config) Validate() error {
	if c.MinValidations < 1 {
		return fmt.Errorf("min_validations must be >= 1, got %d", c.MinValidations)
	}
	if c.MaxValidations < 1 {
		return fmt.Errorf("max_validations must be >= 1, got %d", c.MaxValidations)
	}
	if c.RequiredConsistency < 0.0 || c.RequiredConsistency > 1.0 {
		return fmt.Errorf("required_consistency must be in [0, 1], got %f", c.RequiredConsistency)
	}
	if c.ProgressiveThreshold < 0.0 || c.ProgressiveThreshold > 1.0 {
		return fmt.Errorf("progressive_threshold must be in [0, 1], got %f", c.ProgressiveThreshold)
	}
	if c.MaxProgressiveAttempts < 1 {
		return fmt.Errorf("max_progressive_attempts must be >= 1, got %d", c.MaxProgressiveAttempts)
	}
	if c.QuickValidations < 1 {
		return fmt.Errorf("quick_validations must be >= 1, got %d", c.QuickValidations)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %s", c.RetryDelay)
	}
	if !c.Strategy.IsValid() {
		return fmt.Errorf("invalid strategy: %s", c.Strategy)
	}
	return nil
}

// AttemptsForMode returns the attempt budget for a scan mode.
func (c Config) AttemptsForMode(mode Mode) int {
	switch mode {
	case ModeQuick:
		return c.QuickValidations
	case ModeDeep:
		return c.MaxValidations + 1
	default:
		return c.MaxValidations
	}
}

// fileConfig is the on-disk shape of Config. Durations are strings in Go
// duration syntax (e.g. "500ms").
type fileConfig struct {
	Config     `yaml:",inline"`
	RetryDelay string `yaml:"retry_delay" json:"retry_delay"`
}

// LoadConfig loads a validation configuration from a YAML or JSON file,
// detected by extension. Fields absent from the file keep their defaults,
// and the result is validated before being returned.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read validation config: %w", err)
	}

	fc := fileConfig{Config: DefaultConfig()}

	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse JSON validation config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse YAML validation config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format: %s (supported: .json, .yaml, .yml)", ext)
	}

	cfg := fc.Config
	if fc.RetryDelay != "" {
		delay, err := time.ParseDuration(fc.RetryDelay)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry_delay: %w", err)
		}
		cfg.RetryDelay = delay
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validation config: %w", err)
	}
	return cfg, nil
}
