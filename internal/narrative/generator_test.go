package narrative

import (
	"context"
	"testing"

	"fitgauge/internal/ai"
	"fitgauge/internal/errors"
	"fitgauge/internal/types"
)

// stubProvider returns queued narratives in order, then repeats the last one.
type stubProvider struct {
	responses []types.Narrative
	calls     int
}

func (s *stubProvider) GenerateNarrative(_ context.Context, _ ai.NarrativeRequest) (types.Narrative, *ai.TokenUsage, error) {
	idx := min(s.calls, len(s.responses)-1)
	s.calls++
	return s.responses[idx], &ai.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150}, nil
}

func (s *stubProvider) GetModelInfo(_ context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: true}
}

func (s *stubProvider) Close() error { return nil }

func testLogger() *errors.Logger {
	logger, _ := errors.New("error")
	return logger
}

func validSignals() []types.CandidateSignal {
	return []types.CandidateSignal{
		{Type: types.SignalScope, Claim: "team of 8", Evidence: "team of 8", Valid: true, EvidenceFound: true},
	}
}

func compliantNarrative() types.Narrative {
	return types.Narrative{
		Strengths: []types.NarrativeStrength{
			{Capability: "backend ownership", Evidence: "ran the billing platform for a team of 8", Tier: 1},
		},
		Gaps: []string{"the demonstrated level sits below what this role targets"},
		ActionPlan: types.ActionPlan{
			Immediate:        []string{"quantify the platform migration bullet"},
			ThreeMonth:       []string{"lead a cross-team project"},
			SixToTwelveMonth: []string{"own a staffing plan"},
		},
	}
}

func experienceGapInput() Input {
	return Input{
		SessionID: "session-1",
		State: types.TerminalState{
			Category:         types.GapExperience,
			Mode:             types.CoachSignalBuilding,
			RequiredPhrases:  []string{"the demonstrated level sits below what this role targets"},
			ForbiddenPhrases: []string{"you're ready for this level now"},
		},
		Recommendation: types.FinalRecommendation{Value: types.RecommendationConditionalApply},
		Signals:        validSignals(),
		JobDescription: "Senior engineering manager role",
	}
}

func TestGenerateCompliantFirstTry(t *testing.T) {
	provider := &stubProvider{responses: []types.Narrative{compliantNarrative()}}
	gen := NewGenerator(provider, 2, testLogger())

	narrative, usage, err := gen.Generate(context.Background(), experienceGapInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
	if len(narrative.Strengths) != 1 {
		t.Errorf("strengths = %d, want 1", len(narrative.Strengths))
	}
	if usage == nil || usage.TotalTokens != 150 {
		t.Errorf("token usage not propagated: %+v", usage)
	}
}

func TestZeroSignalsIsIntegrityError(t *testing.T) {
	provider := &stubProvider{responses: []types.Narrative{compliantNarrative()}}
	gen := NewGenerator(provider, 2, testLogger())

	in := experienceGapInput()
	in.Signals = nil

	_, _, err := gen.Generate(context.Background(), in)
	if err == nil {
		t.Fatal("expected integrity error for zero signals")
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
		t.Error("provider must not be called when signals are missing")
	}
}

func TestForbiddenPhraseTriggersRegeneration(t *testing.T) {
	violating := compliantNarrative()
	violating.Gaps = append(violating.Gaps, "honestly, you're ready for this level now")

	provider := &stubProvider{responses: []types.Narrative{violating, compliantNarrative()}}
	gen := NewGenerator(provider, 2, testLogger())

	_, usage, err := gen.Generate(context.Background(), experienceGapInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2 (one regeneration)", provider.calls)
	}
	if usage == nil || usage.TotalTokens != 300 {
		t.Errorf("token usage should accumulate across attempts: %+v", usage)
	}
}

func TestExhaustedRegenerationBudgetFails(t *testing.T) {
	violating := compliantNarrative()
	violating.Gaps = []string{"you're ready for this level now"}

	provider := &stubProvider{responses: []types.Narrative{violating}}
	gen := NewGenerator(provider, 1, testLogger())

	_, _, err := gen.Generate(context.Background(), experienceGapInput())
	if err == nil {
		t.Fatal("expected consistency error after exhausted budget")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeConsistency {
		t.Errorf("error type = %s, want consistency", appErr.Type)
	}
	if appErr.Code != errors.ErrCodePhraseViolation {
		t.Errorf("error code = %s, want %s", appErr.Code, errors.ErrCodePhraseViolation)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2 (initial + one regeneration)", provider.calls)
	}
}

func TestRequiredPhraseMissing(t *testing.T) {
	missing := compliantNarrative()
	missing.Gaps = []string{"some level concerns"}

	provider := &stubProvider{responses: []types.Narrative{missing}}
	gen := NewGenerator(provider, 0, testLogger())

	_, _, err := gen.Generate(context.Background(), experienceGapInput())
	if err == nil {
		t.Fatal("expected failure when a required canonical sentence is absent")
	}
}

func TestTierThreeForbiddenWhenTierOneExists(t *testing.T) {
	mixed := compliantNarrative()
	mixed.Strengths = append(mixed.Strengths, types.NarrativeStrength{
		Capability: "strong leader", Evidence: "general leadership", Tier: 3,
	})

	provider := &stubProvider{responses: []types.Narrative{mixed}}
	gen := NewGenerator(provider, 0, testLogger())

	_, _, err := gen.Generate(context.Background(), experienceGapInput())
	if err == nil {
		t.Fatal("tier-3 language with tier-1 evidence available must be rejected")
	}
}

func TestTranslationClaimWithoutOverlapRejected(t *testing.T) {
	// Experience-gap states carry no translation phrases in their own
	// forbidden set; the claim must still be caught when no measurable
	// function overlap was established.
	claiming := compliantNarrative()
	claiming.Gaps = append(claiming.Gaps, "your experience translates well here")

	provider := &stubProvider{responses: []types.Narrative{claiming}}
	gen := NewGenerator(provider, 0, testLogger())

	_, _, err := gen.Generate(context.Background(), experienceGapInput())
	if err == nil {
		t.Fatal("translation claim without measurable function overlap must be rejected")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodePhraseViolation {
		t.Errorf("error code = %s, want %s", appErr.Code, errors.ErrCodePhraseViolation)
	}
}

func TestTranslationClaimAllowedWithOverlap(t *testing.T) {
	claiming := compliantNarrative()
	claiming.Gaps = append(claiming.Gaps, "your experience translates well here")

	provider := &stubProvider{responses: []types.Narrative{claiming}}
	gen := NewGenerator(provider, 0, testLogger())

	in := experienceGapInput()
	in.FunctionOverlap = true

	if _, _, err := gen.Generate(context.Background(), in); err != nil {
		t.Fatalf("unexpected error with established overlap: %v", err)
	}
}

func TestExperienceGapRequiresClosingPlan(t *testing.T) {
	noPlan := compliantNarrative()
	noPlan.ActionPlan.ThreeMonth = nil

	provider := &stubProvider{responses: []types.Narrative{noPlan}}
	gen := NewGenerator(provider, 0, testLogger())

	_, _, err := gen.Generate(context.Background(), experienceGapInput())
	if err == nil {
		t.Fatal("experience-gap narrative without a closing plan must be rejected")
	}
}
