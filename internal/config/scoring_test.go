package config

import (
	"testing"
)

func validScoring() ScoringConfig {
	return ScoringConfig{
		Frameworks: FrameworkConfig{
			MinSignals: map[string]int{
				"junior": 1,
				"mid":    2,
				"senior": 3,
			},
		},
		Weights: SignalWeights{
			Scope:          8,
			Leadership:     8,
			TechnicalDepth: 7,
			Title:          4,
		},
		Keyword: KeywordConfig{
			CountThreshold:   8,
			DensityThreshold: 0.35,
		},
		Penalties: PenaltyConfig{
			Defaults: map[string]int{
				"credibility_violation": 60,
				"eligibility_violation": 45,
				"function_mismatch":     30,
				"experience_gap":        25,
				"presentation_gap":      15,
			},
		},
		Narrative: NarrativeConfig{RegenerationLimit: 2},
	}
}

func TestScoringValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ScoringConfig)
		wantErr bool
	}{
		{
			name:   "valid defaults",
			mutate: func(sc *ScoringConfig) {},
		},
		{
			name: "min signals below one",
			mutate: func(sc *ScoringConfig) {
				sc.Frameworks.MinSignals["senior"] = 0
			},
			wantErr: true,
		},
		{
			name: "zero count threshold",
			mutate: func(sc *ScoringConfig) {
				sc.Keyword.CountThreshold = 0
			},
			wantErr: true,
		},
		{
			name: "density threshold above one",
			mutate: func(sc *ScoringConfig) {
				sc.Keyword.DensityThreshold = 1.5
			},
			wantErr: true,
		},
		{
			name: "negative penalty default",
			mutate: func(sc *ScoringConfig) {
				sc.Penalties.Defaults["experience_gap"] = -5
			},
			wantErr: true,
		},
		{
			name: "override missing category",
			mutate: func(sc *ScoringConfig) {
				sc.Penalties.Overrides = []PenaltyOverride{
					{Role: "engineering", Level: "senior", Points: 20},
				}
			},
			wantErr: true,
		},
		{
			name: "negative regeneration limit",
			mutate: func(sc *ScoringConfig) {
				sc.Narrative.RegenerationLimit = -1
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := validScoring()
			tt.mutate(&sc)
			err := sc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPenaltyForOverrideResolution(t *testing.T) {
	sc := validScoring()
	sc.Penalties.Overrides = []PenaltyOverride{
		{Category: "experience_gap", Points: 20},
		{Category: "experience_gap", Level: "senior", Points: 30},
		{Category: "experience_gap", Role: "engineering", Level: "senior", Points: 35},
		{Category: "function_mismatch", Role: "product management", Points: 40},
	}

	tests := []struct {
		name     string
		category string
		role     string
		level    string
		want     int
	}{
		{
			name:     "most specific override wins",
			category: "experience_gap",
			role:     "engineering",
			level:    "senior",
			want:     35,
		},
		{
			name:     "level-scoped override beats wildcard",
			category: "experience_gap",
			role:     "product management",
			level:    "senior",
			want:     30,
		},
		{
			name:     "wildcard override beats default",
			category: "experience_gap",
			role:     "design",
			level:    "mid",
			want:     20,
		},
		{
			name:     "role-scoped override",
			category: "function_mismatch",
			role:     "product management",
			level:    "junior",
			want:     40,
		},
		{
			name:     "no match falls back to default",
			category: "function_mismatch",
			role:     "engineering",
			level:    "senior",
			want:     30,
		},
		{
			name:     "unknown category resolves to zero",
			category: "unknown",
			role:     "engineering",
			level:    "senior",
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sc.PenaltyFor(tt.category, tt.role, tt.level)
			if got != tt.want {
				t.Errorf("PenaltyFor(%q, %q, %q) = %d, want %d", tt.category, tt.role, tt.level, got, tt.want)
			}
		})
	}
}

func TestMergeScoringOverlaysOnlyPresentSections(t *testing.T) {
	dst := validScoring()
	src := ScoringConfig{
		Frameworks: FrameworkConfig{
			MinSignals: map[string]int{"senior": 4},
		},
		Penalties: PenaltyConfig{
			Overrides: []PenaltyOverride{
				{Category: "experience_gap", Level: "senior", Points: 30},
			},
		},
	}

	mergeScoring(&dst, &src)

	if got := dst.Frameworks.MinSignals["senior"]; got != 4 {
		t.Errorf("minSignals[senior] = %d, want 4", got)
	}
	if len(dst.Penalties.Overrides) != 1 {
		t.Fatalf("expected 1 penalty override, got %d", len(dst.Penalties.Overrides))
	}
	// Sections absent from the file keep their existing values
	if dst.Keyword.CountThreshold != 8 {
		t.Errorf("keyword.countThreshold = %d, want 8", dst.Keyword.CountThreshold)
	}
	if dst.Penalties.Defaults["credibility_violation"] != 60 {
		t.Errorf("penalty default changed unexpectedly: %d", dst.Penalties.Defaults["credibility_violation"])
	}
	if dst.Narrative.RegenerationLimit != 2 {
		t.Errorf("narrative.regenerationLimit = %d, want 2", dst.Narrative.RegenerationLimit)
	}
}

func TestCloneIsolatesMaps(t *testing.T) {
	original := validScoring()
	original.Taxonomy = []RoleFamily{
		{Function: "engineering", Keywords: []string{"engineer", "platform"}},
	}

	copied := original.clone()
	copied.Frameworks.MinSignals["senior"] = 99
	copied.Penalties.Defaults["experience_gap"] = 99
	copied.Taxonomy[0].Keywords[0] = "changed"

	if original.Frameworks.MinSignals["senior"] != 3 {
		t.Error("clone shares minSignals map with original")
	}
	if original.Penalties.Defaults["experience_gap"] != 25 {
		t.Error("clone shares penalty defaults map with original")
	}
	if original.Taxonomy[0].Keywords[0] != "engineer" {
		t.Error("clone shares taxonomy keyword slice with original")
	}
}
