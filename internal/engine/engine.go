package engine

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"fitgauge/internal/ai"
	"fitgauge/internal/errors"
	"fitgauge/internal/gaps"
	"fitgauge/internal/leveling"
	"fitgauge/internal/narrative"
	"fitgauge/internal/observability"
	"fitgauge/internal/recommend"
	"fitgauge/internal/session"
	"fitgauge/internal/signals"
	"fitgauge/internal/terminal"
	"fitgauge/internal/types"
)

// Engine runs the full assessment pipeline inside one isolated session:
// signal extraction, level classification, gap classification, terminal state
// resolution, recommendation lock, then the coaching narrative. Every stage
// reads the session's private scoring snapshot; the session is sealed on exit
// whether the run succeeded or not.
type Engine struct {
	sessions *session.Manager
	provider ai.NarrativeProvider
	metrics  *observability.Metrics
	logger   *errors.Logger
}

// New creates an engine. The metrics handle may be nil when observability is
// disabled.
func New(sessions *session.Manager, provider ai.NarrativeProvider, metrics *observability.Metrics, logger *errors.Logger) *Engine {
	if metrics == nil {
		metrics = &observability.Metrics{}
	}
	return &Engine{
		sessions: sessions,
		provider: provider,
		metrics:  metrics,
		logger:   logger,
	}
}

// Assess runs one analysis. Validation failures surface before a session is
// created; everything after runs inside the session and dies with it.
func (e *Engine) Assess(ctx context.Context, in types.AssessInput) (*types.AssessOutput, error) {
	if strings.TrimSpace(in.JobDescription) == "" {
		return nil, errors.NewValidationError(
			errors.ErrCodeEmptyJobDescription,
			"job description text is empty",
			nil,
		)
	}

	sess := e.sessions.Create()
	defer sess.Seal()

	tracer := otel.Tracer("fitgauge.engine")
	ctx, span := tracer.Start(ctx, "engine.assess")
	defer span.End()

	span.SetAttributes(
		attribute.String("session.id", sess.ID),
		attribute.Int64("config.version", int64(sess.Snapshot.Version)),
	)

	out, err := e.runPipeline(ctx, sess, in)
	if err != nil {
		span.RecordError(err)
		e.recordFailure(ctx, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("fit.score", out.FitScore),
		attribute.String("fit.recommendation", string(out.Recommendation)),
		attribute.String("gap.category", string(out.GapCategory)),
	)
	e.metrics.RecordAssessment(ctx, string(out.Recommendation), string(out.GapCategory), true)

	return out, nil
}

func (e *Engine) runPipeline(ctx context.Context, sess *session.Session, in types.AssessInput) (*types.AssessOutput, error) {
	scoring := sess.Snapshot.Scoring

	extraction, err := signals.NewExtractor(scoring).Extract(sess.ID, in.ResumeText)
	if err != nil {
		return nil, err
	}
	if err := sess.Put("extraction", extraction); err != nil {
		return nil, err
	}

	target := leveling.InferTarget(in.TargetLevel, in.RoleTitle, in.JobDescription)
	assessment := leveling.NewClassifier(scoring).Classify(extraction, target)

	e.logger.Debug("Level classified",
		"session_id", sess.ID,
		"detected", assessment.Detected.String(),
		"target", assessment.Target.String(),
		"valid_signals", assessment.ValidSignalCount)

	gapInput := gaps.Input{
		Assessment:     assessment,
		Extraction:     extraction,
		ResumeText:     in.ResumeText,
		JobDescription: in.JobDescription,
		RoleTitle:      in.RoleTitle,
	}
	classifier := gaps.NewClassifier(scoring)
	classification := classifier.Classify(gapInput)
	candidateFunction, targetFunction := classifier.Functions(gapInput)
	functionOverlap := candidateFunction != "" && candidateFunction == targetFunction

	state := terminal.Resolve(classification)
	score := terminal.ComputeScore(extraction, classification, state, scoring, targetFunction, target)
	banded := terminal.BandRecommendation(score, state)

	// The controller is the only writer; any later write attempt fails the
	// session instead of silently overriding the decision.
	controller := recommend.NewController(sess.ID)
	final, err := controller.Lock(banded)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Recommendation locked",
		"session_id", sess.ID,
		"recommendation", string(final.Value),
		"gap_category", string(classification.Active),
		"fit_score", score)

	valid := extraction.ValidSignals()
	generated, usage, err := e.generateNarrative(ctx, narrative.Input{
		SessionID:       sess.ID,
		State:           state,
		Recommendation:  final,
		Classification:  classification,
		Signals:         valid,
		JobDescription:  in.JobDescription,
		RoleTitle:       in.RoleTitle,
		Company:         in.Company,
		FunctionOverlap: functionOverlap,
	}, scoring.Narrative.RegenerationLimit)
	if err != nil {
		return nil, err
	}

	if usage != nil {
		e.logger.Debug("Narrative token usage",
			"session_id", sess.ID,
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
	}

	return assembleOutput(sess.ID, score, final, state, classification, valid, generated), nil
}

// generateNarrative wraps the constraint-layer generator with narrative
// metrics.
func (e *Engine) generateNarrative(ctx context.Context, in narrative.Input, regenerationLimit int) (types.Narrative, *ai.TokenUsage, error) {
	gen := narrative.NewGenerator(e.provider, regenerationLimit, e.logger)

	var generated types.Narrative
	var usage *ai.TokenUsage
	err := e.metrics.TrackNarrativeOperation(ctx, "generate", func(ctx context.Context) *observability.NarrativeResult {
		var genErr error
		generated, usage, genErr = gen.Generate(ctx, in)
		return &observability.NarrativeResult{
			Error:      genErr,
			TokenUsage: toObservedUsage(usage),
		}
	})
	return generated, usage, err
}

func toObservedUsage(usage *ai.TokenUsage) *observability.TokenUsage {
	if usage == nil {
		return nil
	}
	return &observability.TokenUsage{
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
	}
}

// assembleOutput builds the caller-facing result. Every field derives from
// the terminal state and the locked recommendation; nothing downstream may
// disagree with them.
func assembleOutput(sessionID string, score int, final types.FinalRecommendation, state types.TerminalState, classification types.GapClassification, valid []types.CandidateSignal, generated types.Narrative) *types.AssessOutput {
	strengths := make([]string, 0, len(generated.Strengths))
	for _, s := range generated.Strengths {
		strengths = append(strengths, s.Capability)
	}

	return &types.AssessOutput{
		SessionID:      sessionID,
		FitScore:       score,
		Recommendation: final.Value,
		Affordance:     state.Affordance,
		CoachingMode:   state.Mode,
		GapCategory:    classification.Active,
		Redirect:       classification.Redirect,
		Strengths:      strengths,
		Gaps:           generated.Gaps,
		Narrative:      generated,
	}
}

// recordFailure counts the failed run and classifies it for the integrity
// metrics. Provider and validation errors are operational; integrity,
// consistency, and isolation failures indicate a violated invariant.
func (e *Engine) recordFailure(ctx context.Context, err error) {
	e.metrics.RecordAssessment(ctx, "", "", false)

	appErr, ok := err.(*errors.AppError)
	if !ok {
		return
	}

	switch appErr.Type {
	case errors.ErrorTypeIntegrity, errors.ErrorTypeConsistency, errors.ErrorTypeIsolation:
		e.metrics.RecordIntegrityFailure(ctx, appErr.Code)
	}
}
