package terminal

import (
	"testing"

	"fitgauge/internal/config"
	"fitgauge/internal/types"
)

func testScoring() config.ScoringConfig {
	return config.ScoringConfig{
		Weights: config.SignalWeights{
			Scope:          8,
			Leadership:     8,
			TechnicalDepth: 7,
			Title:          4,
		},
		Penalties: config.PenaltyConfig{
			Defaults: map[string]int{
				"credibility_violation": 60,
				"eligibility_violation": 45,
				"function_mismatch":     30,
				"experience_gap":        25,
				"presentation_gap":      15,
			},
		},
	}
}

func TestResolveCategoryTable(t *testing.T) {
	tests := []struct {
		category   types.GapCategory
		scoreCap   int
		ceiling    types.Recommendation
		affordance types.AffordanceState
		mode       types.CoachingMode
	}{
		{types.GapCredibility, 20, types.RecommendationPass, types.AffordanceDisabled, types.CoachCredibilityRepair},
		{types.GapEligibility, 30, types.RecommendationPass, types.AffordanceDisabled, types.CoachRedirection},
		{types.GapFunctionMismatch, 45, types.RecommendationConditionalApply, types.AffordanceDemoted, types.CoachRedirection},
		{types.GapExperience, 50, types.RecommendationConditionalApply, types.AffordanceEnabledWithWarning, types.CoachSignalBuilding},
		{types.GapPresentation, 65, types.RecommendationConditionalApply, types.AffordanceEnabledWithWarning, types.CoachOptimization},
		{types.GapNone, 100, types.RecommendationApply, types.AffordanceEnabled, types.CoachOptimization},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			state := Resolve(types.GapClassification{Active: tt.category})

			if state.ScoreCap != tt.scoreCap {
				t.Errorf("score cap = %d, want %d", state.ScoreCap, tt.scoreCap)
			}
			if state.Ceiling != tt.ceiling {
				t.Errorf("ceiling = %s, want %s", state.Ceiling, tt.ceiling)
			}
			if state.Affordance != tt.affordance {
				t.Errorf("affordance = %s, want %s", state.Affordance, tt.affordance)
			}
			if state.Mode != tt.mode {
				t.Errorf("mode = %s, want %s", state.Mode, tt.mode)
			}
		})
	}
}

func TestResolveIgnoresInertCategories(t *testing.T) {
	// A session where credibility and presentation both matched must resolve
	// exactly as a credibility-only session would.
	withInert := Resolve(types.GapClassification{
		Active: types.GapCredibility,
		Inert:  []types.GapCategory{types.GapPresentation, types.GapExperience},
	})
	alone := Resolve(types.GapClassification{Active: types.GapCredibility})

	if withInert.ScoreCap != alone.ScoreCap ||
		withInert.Ceiling != alone.Ceiling ||
		withInert.Affordance != alone.Affordance ||
		withInert.Mode != alone.Mode {
		t.Error("inert categories must not alter the resolved terminal state")
	}
}

func TestComputeScoreClampsToCap(t *testing.T) {
	scoring := testScoring()

	// Plenty of valid signals, but a credibility violation caps at 20.
	extraction := types.ExtractionResult{}
	for range 12 {
		extraction.Signals = append(extraction.Signals, types.CandidateSignal{
			Type: types.SignalScope, Valid: true, EvidenceFound: true,
		})
	}

	classification := types.GapClassification{Active: types.GapCredibility}
	state := Resolve(classification)

	score := ComputeScore(extraction, classification, state, scoring, "", types.LevelSenior)
	if score > 20 {
		t.Errorf("score %d exceeds the credibility hard cap of 20", score)
	}
}

func TestComputeScorePenaltyOverride(t *testing.T) {
	scoring := testScoring()
	scoring.Penalties.Overrides = []config.PenaltyOverride{
		{Role: "engineering", Level: "senior", Category: "experience_gap", Points: 40},
	}

	extraction := types.ExtractionResult{
		Signals: []types.CandidateSignal{
			{Type: types.SignalScope, Valid: true, EvidenceFound: true},
			{Type: types.SignalScope, Valid: true, EvidenceFound: true},
			{Type: types.SignalLeadership, Valid: true, EvidenceFound: true},
			{Type: types.SignalLeadership, Valid: true, EvidenceFound: true},
			{Type: types.SignalTechnicalDepth, Valid: true, EvidenceFound: true},
			{Type: types.SignalTechnicalDepth, Valid: true, EvidenceFound: true},
		},
	}

	classification := types.GapClassification{Active: types.GapExperience}
	state := Resolve(classification)

	// base 46, default penalty 25 -> 21
	defaultScore := ComputeScore(extraction, classification, state, scoring, "sales", types.LevelSenior)
	if defaultScore != 21 {
		t.Errorf("default-penalty score = %d, want 21", defaultScore)
	}

	// base 46, override penalty 40 -> 6
	overrideScore := ComputeScore(extraction, classification, state, scoring, "engineering", types.LevelSenior)
	if overrideScore != 6 {
		t.Errorf("override-penalty score = %d, want 6", overrideScore)
	}
}

func TestBandRecommendationEquivalence(t *testing.T) {
	state := Resolve(types.GapClassification{Active: types.GapNone})

	// Scores inside one band are identical downstream.
	if BandRecommendation(47, state) != BandRecommendation(52, state) {
		t.Error("scores 47 and 52 share a band and must map to the same recommendation")
	}
	if got := BandRecommendation(47, state); got != types.RecommendationConditionalApply {
		t.Errorf("score 47 = %s, want conditional_apply", got)
	}
	if got := BandRecommendation(85, state); got != types.RecommendationApply {
		t.Errorf("score 85 = %s, want apply", got)
	}
	if got := BandRecommendation(12, state); got != types.RecommendationPass {
		t.Errorf("score 12 = %s, want pass", got)
	}
}

func TestBandRecommendationRespectsCeiling(t *testing.T) {
	state := Resolve(types.GapClassification{Active: types.GapCredibility})

	// Even a high raw score cannot pass the ceiling.
	if got := BandRecommendation(95, state); got != types.RecommendationPass {
		t.Errorf("credibility ceiling ignored: got %s", got)
	}

	expState := Resolve(types.GapClassification{Active: types.GapExperience})
	if got := BandRecommendation(95, expState); got != types.RecommendationConditionalApply {
		t.Errorf("experience ceiling ignored: got %s", got)
	}
}
