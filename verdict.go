package verdict

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zero-day-ai/verdict/archive"
	"github.com/zero-day-ai/verdict/attack"
	"github.com/zero-day-ai/verdict/risk"
	"github.com/zero-day-ai/verdict/session"
	"github.com/zero-day-ai/verdict/validation"
)

// Pipeline wires the confirmation stages together: a detection goes in,
// gets re-executed until its stability is established, is scored, and is
// optionally archived for the reporting layer. The pipeline also owns a
// session manager for multi-turn attack orchestration.
type Pipeline struct {
	logger    *slog.Logger
	mode      validation.Mode
	stability *validation.StabilityValidator
	validator *validation.Validator
	scorer    *risk.Scorer
	store     archive.Store
	sessions  *session.Manager
}

// New creates a confirmation pipeline. The executor and detector are the
// collaborators that re-execute attacks against the target; either may be
// nil, in which case validation degrades instead of failing (see
// validation.NewStabilityValidator).
func New(executor validation.Executor, detector validation.Detector, opts ...PipelineOption) (*Pipeline, error) {
	cfg := &pipelineConfig{
		validationConfig: validation.DefaultConfig(),
		validatorConfig:  validation.DefaultValidatorConfig(),
		mode:             validation.ModeStandard,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	if cfg.validationPath != "" {
		loaded, err := validation.LoadConfig(cfg.validationPath)
		if err != nil {
			return nil, NewConfigurationError("New", err)
		}
		cfg.validationConfig = loaded
	}

	stabilityOpts := []validation.Option{
		validation.WithLogger(cfg.logger),
		validation.WithOTel(cfg.otel),
	}
	if cfg.variants != nil {
		stabilityOpts = append(stabilityOpts, validation.WithVariantGenerator(cfg.variants))
	}

	stability, err := validation.NewStabilityValidator(cfg.validationConfig, executor, detector, stabilityOpts...)
	if err != nil {
		return nil, NewConfigurationError("New", err)
	}

	validator, err := validation.NewValidator(cfg.validatorConfig, executor, detector,
		validation.WithLogger(cfg.logger))
	if err != nil {
		return nil, NewConfigurationError("New", err)
	}

	scorer := cfg.scorer
	if scorer == nil {
		scorerOpts := []risk.Option{risk.WithLogger(cfg.logger)}
		if cfg.severityWeights != nil {
			scorerOpts = append(scorerOpts, risk.WithSeverityWeights(cfg.severityWeights))
		}
		scorer = risk.NewScorer(scorerOpts...)
	}

	sessionCfg := cfg.sessionConfig
	if sessionCfg.Logger == nil {
		sessionCfg.Logger = cfg.logger
	}

	return &Pipeline{
		logger:    cfg.logger.With("component", "pipeline"),
		mode:      cfg.mode,
		stability: stability,
		validator: validator,
		scorer:    scorer,
		store:     cfg.store,
		sessions:  session.NewManager(sessionCfg),
	}, nil
}

// Outcome is the result of confirming one detection.
type Outcome struct {
	// Detection is the candidate finding that was confirmed.
	Detection attack.Detection `json:"detection"`

	// Stability is the stability validation outcome.
	Stability validation.StabilityResult `json:"stability"`

	// Score is the risk score computed from the stability outcome.
	Score risk.Score `json:"score"`

	// Record is the archived record, if an archive store is configured.
	Record *archive.Record `json:"record,omitempty"`
}

// Confirmed reports whether the finding proved stable.
func (o Outcome) Confirmed() bool {
	return o.Stability.IsStable
}

// Confirm runs the full confirmation flow for a detection: stability
// validation, scoring, and archival when a store is configured.
func (p *Pipeline) Confirm(ctx context.Context, detection attack.Detection) (Outcome, error) {
	return p.ConfirmMode(ctx, detection, p.mode)
}

// ConfirmMode is Confirm with an explicit scan mode.
func (p *Pipeline) ConfirmMode(ctx context.Context, detection attack.Detection, mode validation.Mode) (Outcome, error) {
	if err := detection.Validate(); err != nil {
		return Outcome{}, NewValidationError("Pipeline.Confirm", fmt.Errorf("%w: %v", ErrInvalidDetection, err))
	}

	sctx := &validation.Context{PreviousSuccess: detection.Detected}
	stability, err := p.stability.ValidateMode(ctx, detection.Attack, sctx, mode)
	if err != nil {
		return Outcome{}, NewExecutionError("Pipeline.Confirm", err)
	}

	outcome := Outcome{
		Detection: detection,
		Stability: stability,
		Score:     p.scorer.FromStability(detection, stability),
	}

	p.logger.Info("detection confirmed",
		"category", detection.Attack.Category,
		"stable", outcome.Confirmed(),
		"level", outcome.Stability.Level,
		"score", outcome.Score.Value,
		"priority", outcome.Score.Priority,
	)

	if p.store != nil {
		record := archive.NewRecord(detection, stability, outcome.Score)
		if err := p.store.Save(ctx, record); err != nil {
			return outcome, NewExecutionError("Pipeline.Confirm", err).
				WithContext(map[string]any{"record_id": record.ID})
		}
		outcome.Record = &record
	}
	return outcome, nil
}

// ConfirmQuick runs the single-pass validator instead of the full
// stability loop: high-confidence detections auto-confirm, the rest are
// replayed a fixed number of times. Nothing is archived.
func (p *Pipeline) ConfirmQuick(ctx context.Context, detection attack.Detection) (validation.Result, risk.Score, error) {
	result, err := p.validator.Validate(ctx, detection, nil)
	if err != nil {
		return validation.Result{}, risk.Score{}, NewValidationError("Pipeline.ConfirmQuick", fmt.Errorf("%w: %v", ErrInvalidDetection, err))
	}
	return result, p.scorer.FromValidation(detection, result), nil
}

// ConfirmSession confirms a detection produced inside an attack session,
// feeding the session transcript to the collaborators and snapshotting the
// session into the archive alongside the record.
func (p *Pipeline) ConfirmSession(ctx context.Context, sessionID string, detection attack.Detection) (Outcome, error) {
	sess, err := p.sessions.GetSession(sessionID)
	if err != nil {
		return Outcome{}, NewNotFoundError("Pipeline.ConfirmSession", err)
	}
	if err := detection.Validate(); err != nil {
		return Outcome{}, NewValidationError("Pipeline.ConfirmSession", fmt.Errorf("%w: %v", ErrInvalidDetection, err))
	}

	sctx := &validation.Context{
		History:         sess.Conversation.Messages(true),
		TurnNumber:      sess.CurrentTurn(),
		PreviousSuccess: detection.Detected,
	}
	stability, err := p.stability.Validate(ctx, detection.Attack, sctx)
	if err != nil {
		return Outcome{}, NewExecutionError("Pipeline.ConfirmSession", err)
	}

	outcome := Outcome{
		Detection: detection,
		Stability: stability,
		Score:     p.scorer.FromStability(detection, stability),
	}

	if p.store != nil {
		record := archive.NewRecord(detection, stability, outcome.Score)
		record.SessionID = sessionID
		if err := p.store.Save(ctx, record); err != nil {
			return outcome, NewExecutionError("Pipeline.ConfirmSession", err).
				WithContext(map[string]any{"record_id": record.ID, "session_id": sessionID})
		}
		if err := p.store.SaveSnapshot(ctx, archive.SnapshotSession(sess)); err != nil {
			return outcome, NewExecutionError("Pipeline.ConfirmSession", err).
				WithContext(map[string]any{"session_id": sessionID})
		}
		outcome.Record = &record
	}
	return outcome, nil
}

// Scorer exposes the pipeline's risk scorer for weight adjustments.
func (p *Pipeline) Scorer() *risk.Scorer {
	return p.scorer
}

// Sessions exposes the pipeline's session manager.
func (p *Pipeline) Sessions() *session.Manager {
	return p.sessions
}

// Archive exposes the configured archive store, or nil when none is set.
func (p *Pipeline) Archive() archive.Store {
	return p.store
}

// TopFindings returns up to n archived records with the highest risk
// scores, highest first.
func (p *Pipeline) TopFindings(ctx context.Context, n int) ([]archive.Record, error) {
	if p.store == nil {
		return nil, NewConfigurationError("Pipeline.TopFindings", ErrArchiveUnavailable)
	}
	records, err := p.store.Top(ctx, n)
	if err != nil {
		return nil, NewExecutionError("Pipeline.TopFindings", err)
	}
	return records, nil
}

// Close releases the pipeline's resources.
func (p *Pipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}
