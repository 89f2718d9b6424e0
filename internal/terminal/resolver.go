package terminal

import (
	"slices"

	"fitgauge/internal/config"
	"fitgauge/internal/types"
)

// Resolution of a gap classification into the session's single terminal
// state. This is a lookup, not generation: each category maps to a fixed
// score cap, recommendation ceiling, affordance state, coaching mode, and
// phrase-filter sets. Caps and affordances are hard and not configurable;
// only the numeric penalties inside a category are tunable.

// Score bands. Equal recommendation matters more than the exact number; any
// two scores inside one band are treated identically downstream.
const (
	applyBand       = 70
	conditionalBand = 40
)

// stateTable is the canonical category mapping. Phrase entries are the
// canonical sentences and phrase classes sensitive topics must be drawn from.
var stateTable = map[types.GapCategory]types.TerminalState{
	types.GapCredibility: {
		Category:   types.GapCredibility,
		ScoreCap:   20,
		Ceiling:    types.RecommendationPass,
		Affordance: types.AffordanceDisabled,
		Mode:       types.CoachCredibilityRepair,
		RequiredPhrases: []string{
			"the title is not supported by evidence in the resume",
		},
		ForbiddenPhrases: []string{
			"presentation gap",
			"you're actually senior",
			"just a formatting issue",
			"minor wording fix",
		},
	},
	types.GapEligibility: {
		Category:   types.GapEligibility,
		ScoreCap:   30,
		Ceiling:    types.RecommendationPass,
		Affordance: types.AffordanceDisabled,
		Mode:       types.CoachRedirection,
		RequiredPhrases: []string{
			"the role states a requirement the resume does not meet",
		},
		ForbiddenPhrases: []string{
			"worth a shot anyway",
			"requirements are often flexible",
		},
	},
	types.GapFunctionMismatch: {
		Category:   types.GapFunctionMismatch,
		ScoreCap:   45,
		Ceiling:    types.RecommendationConditionalApply,
		Affordance: types.AffordanceDemoted,
		Mode:       types.CoachRedirection,
		RequiredPhrases: []string{
			"this role sits in a different function than the resume demonstrates",
		},
		ForbiddenPhrases: []string{
			"supports this role",
			"supports the target role",
			"your experience translates",
			"transferable enough",
		},
	},
	types.GapExperience: {
		Category:   types.GapExperience,
		ScoreCap:   50,
		Ceiling:    types.RecommendationConditionalApply,
		Affordance: types.AffordanceEnabledWithWarning,
		Mode:       types.CoachSignalBuilding,
		RequiredPhrases: []string{
			"the demonstrated level sits below what this role targets",
		},
		ForbiddenPhrases: []string{
			"you're ready for this level now",
			"level requirements rarely matter",
		},
	},
	types.GapPresentation: {
		Category:   types.GapPresentation,
		ScoreCap:   65,
		Ceiling:    types.RecommendationConditionalApply,
		Affordance: types.AffordanceEnabledWithWarning,
		Mode:       types.CoachOptimization,
		RequiredPhrases: []string{
			"the underlying signals are likely present but not clearly written",
		},
		ForbiddenPhrases: []string{
			"fabricate",
			"inflate the title",
		},
	},
	types.GapNone: {
		Category:         types.GapNone,
		ScoreCap:         100,
		Ceiling:          types.RecommendationApply,
		Affordance:       types.AffordanceEnabled,
		Mode:             types.CoachOptimization,
		RequiredPhrases:  nil,
		ForbiddenPhrases: nil,
	},
}

// Resolve maps the active gap category to its terminal state. The returned
// state is a copy; callers own it for the rest of the session.
func Resolve(classification types.GapClassification) types.TerminalState {
	state, ok := stateTable[classification.Active]
	if !ok {
		state = stateTable[types.GapNone]
	}

	state.ForbiddenPhrases = slices.Clone(state.ForbiddenPhrases)
	state.RequiredPhrases = slices.Clone(state.RequiredPhrases)
	return state
}

// ComputeScore derives the fit score: weighted evidence minus the category's
// tunable penalty, clamped to the state's hard cap. The penalty is resolved
// against the (role, level) scope from the scoring snapshot.
func ComputeScore(extraction types.ExtractionResult, classification types.GapClassification, state types.TerminalState, scoring config.ScoringConfig, role string, target types.Level) int {
	base := 0
	for _, s := range extraction.ValidSignals() {
		switch s.Type {
		case types.SignalScope:
			base += scoring.Weights.Scope
		case types.SignalLeadership:
			base += scoring.Weights.Leadership
		case types.SignalTechnicalDepth:
			base += scoring.Weights.TechnicalDepth
		case types.SignalTitle:
			base += scoring.Weights.Title
		}
	}
	base = min(base, 100)

	if classification.Active != types.GapNone {
		base -= scoring.PenaltyFor(string(classification.Active), role, target.String())
	}

	base = max(base, 0)
	return min(base, state.ScoreCap)
}

// BandRecommendation maps a fit score to its recommendation band, then clamps
// it to the terminal state's ceiling.
func BandRecommendation(score int, state types.TerminalState) types.Recommendation {
	var banded types.Recommendation
	switch {
	case score >= applyBand:
		banded = types.RecommendationApply
	case score >= conditionalBand:
		banded = types.RecommendationConditionalApply
	default:
		banded = types.RecommendationPass
	}

	return banded.AtMost(state.Ceiling)
}
