package engine

import (
	"context"
	"fmt"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"fitgauge/internal/ai"
	"fitgauge/internal/config"
	"fitgauge/internal/errors"
	"fitgauge/internal/observability"
	"fitgauge/internal/session"
	"fitgauge/internal/types"
)

// stubProvider returns a fixed narrative or error for every call.
type stubProvider struct {
	narrative types.Narrative
	err       error
	calls     int
}

func (s *stubProvider) GenerateNarrative(_ context.Context, _ ai.NarrativeRequest) (types.Narrative, *ai.TokenUsage, error) {
	s.calls++
	if s.err != nil {
		return types.Narrative{}, nil, s.err
	}
	return s.narrative, &ai.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150}, nil
}

func (s *stubProvider) GetModelInfo(_ context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: true}
}

func (s *stubProvider) Close() error { return nil }

func testScoring() config.ScoringConfig {
	return config.ScoringConfig{
		Frameworks: config.FrameworkConfig{
			MinSignals: map[string]int{
				"junior": 1, "mid": 2, "senior": 3,
				"staff": 4, "director": 4, "executive": 5,
			},
		},
		Weights: config.SignalWeights{Scope: 8, Leadership: 8, TechnicalDepth: 7, Title: 4},
		Keyword: config.KeywordConfig{CountThreshold: 8, DensityThreshold: 0.35},
		Penalties: config.PenaltyConfig{
			Defaults: map[string]int{
				"credibility_violation": 60,
				"eligibility_violation": 45,
				"function_mismatch":     30,
				"experience_gap":        25,
				"presentation_gap":      15,
			},
		},
		Taxonomy: []config.RoleFamily{
			{Function: "engineering", Keywords: []string{"engineer", "platform", "infrastructure"}},
			{Function: "product management", Keywords: []string{"product manager", "roadmap", "user research"}},
		},
		Narrative: config.NarrativeConfig{RegenerationLimit: 2},
	}
}

func testEngine(t *testing.T, provider ai.NarrativeProvider) (*Engine, *session.Manager) {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	store := config.NewSnapshotStore(&config.Config{Scoring: testScoring()}, nil)
	manager := session.NewManager(store, nil)
	return New(manager, provider, nil, logger), manager
}

func cleanNarrative() types.Narrative {
	return types.Narrative{
		Strengths: []types.NarrativeStrength{
			{Capability: "platform ownership at scale", Evidence: "led a team of 8 engineers building the payments platform", Tier: 1},
		},
		Gaps: []string{"few quantified outcomes outside the payments work"},
		ActionPlan: types.ActionPlan{
			Immediate: []string{"quantify the remaining bullets"},
		},
	}
}

const seniorResume = `Senior Software Engineer
Led a team of 8 engineers building the payments platform
Designed a distributed checkout service handling 5 million requests
Managed a $2m budget across 3 regions
Mentored 4 developers and grew the team
Built a high-throughput data pipeline processing 10 million transactions
Optimized a multi-region infrastructure serving 40 countries`

func TestAssessFullPipeline(t *testing.T) {
	provider := &stubProvider{narrative: cleanNarrative()}
	eng, manager := testEngine(t, provider)

	out, err := eng.Assess(context.Background(), types.AssessInput{
		ResumeText:     seniorResume,
		JobDescription: "Senior engineer for our payments platform infrastructure team",
		RoleTitle:      "Senior Software Engineer",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.GapCategory != types.GapNone {
		t.Errorf("gap category = %s, want none", out.GapCategory)
	}
	if out.Recommendation != types.RecommendationApply {
		t.Errorf("recommendation = %s, want apply", out.Recommendation)
	}
	if out.FitScore < 70 {
		t.Errorf("fit score = %d, want apply band", out.FitScore)
	}
	if out.Affordance != types.AffordanceEnabled {
		t.Errorf("affordance = %s, want enabled", out.Affordance)
	}
	if len(out.Strengths) == 0 {
		t.Error("expected narrative strengths in the output")
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}

	active, sealed := manager.Stats()
	if active != 0 || sealed != 1 {
		t.Errorf("session not sealed after run: active=%d sealed=%d", active, sealed)
	}
}

func TestAssessEmptyJobDescription(t *testing.T) {
	provider := &stubProvider{narrative: cleanNarrative()}
	eng, manager := testEngine(t, provider)

	_, err := eng.Assess(context.Background(), types.AssessInput{
		ResumeText:     seniorResume,
		JobDescription: "   ",
	})
	if err == nil {
		t.Fatal("expected validation error for empty job description")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeEmptyJobDescription {
		t.Errorf("error code = %s, want %s", appErr.Code, errors.ErrCodeEmptyJobDescription)
	}

	active, sealed := manager.Stats()
	if active != 0 || sealed != 0 {
		t.Error("validation failures must not allocate a session")
	}
}

func TestAssessTitleInflationCapsOutcome(t *testing.T) {
	repairNarrative := types.Narrative{
		Strengths: []types.NarrativeStrength{
			{Capability: "delivery on the billing service", Evidence: "led a team of 6 engineers shipping the billing service", Tier: 1},
		},
		Gaps: []string{"the title is not supported by evidence in the resume"},
		ActionPlan: types.ActionPlan{
			Immediate: []string{"replace the title with the scope you can evidence"},
		},
	}
	provider := &stubProvider{narrative: repairNarrative}
	eng, _ := testEngine(t, provider)

	resume := `Head of Engineering
Passionate about excellence

Led a team of 6 engineers shipping the billing service`

	out, err := eng.Assess(context.Background(), types.AssessInput{
		ResumeText:     resume,
		JobDescription: "Director of Engineering for the platform organization",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.GapCategory != types.GapCredibility {
		t.Errorf("gap category = %s, want credibility_violation", out.GapCategory)
	}
	if out.FitScore > 20 {
		t.Errorf("fit score = %d, must not exceed the credibility cap", out.FitScore)
	}
	if out.Recommendation != types.RecommendationPass {
		t.Errorf("recommendation = %s, want pass", out.Recommendation)
	}
	if out.Affordance != types.AffordanceDisabled {
		t.Errorf("affordance = %s, want disabled", out.Affordance)
	}
	if out.CoachingMode != types.CoachCredibilityRepair {
		t.Errorf("coaching mode = %s, want credibility_repair", out.CoachingMode)
	}
}

func TestAssessZeroSignalsFailsWithoutFallback(t *testing.T) {
	provider := &stubProvider{narrative: cleanNarrative()}
	eng, manager := testEngine(t, provider)

	_, err := eng.Assess(context.Background(), types.AssessInput{
		ResumeText:     "I enjoy hiking, cooking, and spending time with friends.",
		JobDescription: "Senior engineer for the platform team",
	})
	if err == nil {
		t.Fatal("expected integrity error when no signals validate")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeIntegrity {
		t.Errorf("error type = %s, want integrity", appErr.Type)
	}
	if appErr.Code != errors.ErrCodeZeroStrengths {
		t.Errorf("error code = %s, want %s", appErr.Code, errors.ErrCodeZeroStrengths)
	}
	if provider.calls != 0 {
		t.Error("provider must not be called with zero validated signals")
	}

	active, sealed := manager.Stats()
	if active != 0 || sealed != 1 {
		t.Error("failed runs must still seal their session")
	}
}

func TestFailureCountedForUntypedErrors(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("engine-test")

	counter, err := meter.Int64Counter("fitgauge_assessments_total")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}

	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	eng := New(nil, nil, &observability.Metrics{AssessmentsCompleted: counter}, logger)

	eng.recordFailure(context.Background(), fmt.Errorf("transport reset"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 1 {
		t.Errorf("failed runs counted = %d, want 1", total)
	}
}

func TestAssessProviderFailureSealsSession(t *testing.T) {
	provider := &stubProvider{err: errors.NewProviderError(errors.ErrCodeProviderFailed, "model unavailable", nil)}
	eng, manager := testEngine(t, provider)

	_, err := eng.Assess(context.Background(), types.AssessInput{
		ResumeText:     seniorResume,
		JobDescription: "Senior engineer for the payments platform",
	})
	if err == nil {
		t.Fatal("expected provider error to propagate")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeProvider {
		t.Errorf("error type = %s, want provider", appErr.Type)
	}

	active, sealed := manager.Stats()
	if active != 0 || sealed != 1 {
		t.Error("provider failures must still seal their session")
	}
}
