package verdict

import (
	"log/slog"

	"github.com/zero-day-ai/verdict/archive"
	"github.com/zero-day-ai/verdict/attack"
	"github.com/zero-day-ai/verdict/risk"
	"github.com/zero-day-ai/verdict/session"
	"github.com/zero-day-ai/verdict/validation"
)

// PipelineOption configures the Pipeline.
type PipelineOption func(*pipelineConfig)

// pipelineConfig holds configuration for a Pipeline instance.
type pipelineConfig struct {
	logger           *slog.Logger
	validationConfig validation.Config
	validationPath   string
	validatorConfig  validation.ValidatorConfig
	mode             validation.Mode
	sessionConfig    session.ManagerConfig
	scorer           *risk.Scorer
	severityWeights  map[attack.Category]float64
	store            archive.Store
	variants         validation.VariantGenerator
	otel             validation.OTelOptions
}

// WithLogger sets a custom logger for the pipeline.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(c *pipelineConfig) {
		c.logger = logger
	}
}

// WithValidationConfig sets the stability validation configuration.
// If not provided, validation.DefaultConfig() is used.
func WithValidationConfig(cfg validation.Config) PipelineOption {
	return func(c *pipelineConfig) {
		c.validationConfig = cfg
	}
}

// WithValidationConfigFile loads the stability validation configuration
// from a YAML or JSON file. Takes precedence over WithValidationConfig.
func WithValidationConfigFile(path string) PipelineOption {
	return func(c *pipelineConfig) {
		c.validationPath = path
	}
}

// WithValidatorConfig sets the one-shot validator configuration used by
// ConfirmQuick. If not provided, validation.DefaultValidatorConfig() is used.
func WithValidatorConfig(cfg validation.ValidatorConfig) PipelineOption {
	return func(c *pipelineConfig) {
		c.validatorConfig = cfg
	}
}

// WithMode sets the default scan mode for Confirm.
// If not provided, validation.ModeStandard is used.
func WithMode(mode validation.Mode) PipelineOption {
	return func(c *pipelineConfig) {
		c.mode = mode
	}
}

// WithSessionConfig sets the session manager configuration.
func WithSessionConfig(cfg session.ManagerConfig) PipelineOption {
	return func(c *pipelineConfig) {
		c.sessionConfig = cfg
	}
}

// WithScorer sets a pre-built risk scorer, typically one with a customized
// severity weight table.
func WithScorer(scorer *risk.Scorer) PipelineOption {
	return func(c *pipelineConfig) {
		c.scorer = scorer
	}
}

// WithSeverityWeights overrides severity weight entries of the default
// scorer. Ignored when WithScorer is also given.
func WithSeverityWeights(weights map[attack.Category]float64) PipelineOption {
	return func(c *pipelineConfig) {
		c.severityWeights = weights
	}
}

// WithArchive sets the store that archives confirmation records.
// Without one, Confirm still works but nothing is persisted.
func WithArchive(store archive.Store) PipelineOption {
	return func(c *pipelineConfig) {
		c.store = store
	}
}

// WithVariantGenerator sets the collaborator that produces alternate
// payloads for the variant, hybrid, and progressive strategies.
func WithVariantGenerator(g validation.VariantGenerator) PipelineOption {
	return func(c *pipelineConfig) {
		c.variants = g
	}
}

// WithOTel configures OpenTelemetry tracing and metrics for validation runs.
// This enables observability across the confirmation pipeline.
func WithOTel(otel validation.OTelOptions) PipelineOption {
	return func(c *pipelineConfig) {
		c.otel = otel
	}
}
