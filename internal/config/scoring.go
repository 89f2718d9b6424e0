package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/viper"
)

// ScoringConfig is the global, candidate-agnostic configuration: leveling
// frameworks, role taxonomy, scoring weights, and tunable penalties. It is
// the only state permitted to outlive an analysis session. Hard score caps
// are NOT part of this configuration; they live in the terminal-state table
// and are non-negotiable.
type ScoringConfig struct {
	Frameworks     FrameworkConfig `mapstructure:"frameworks"`
	FrameworksFile string          `mapstructure:"frameworksFile"`
	Weights        SignalWeights   `mapstructure:"weights"`
	Keyword        KeywordConfig   `mapstructure:"keyword"`
	Penalties      PenaltyConfig   `mapstructure:"penalties"`
	Taxonomy       []RoleFamily    `mapstructure:"taxonomy"`
	Narrative      NarrativeConfig `mapstructure:"narrative"`
}

// FrameworkConfig holds the leveling framework: the minimum number of
// validated signals required to detect each level.
type FrameworkConfig struct {
	MinSignals map[string]int `mapstructure:"minSignals"`
}

// SignalWeights holds the per-signal-type contribution to the fit score.
type SignalWeights struct {
	Scope          int `mapstructure:"scope"`
	Leadership     int `mapstructure:"leadership"`
	TechnicalDepth int `mapstructure:"technicalDepth"`
	Title          int `mapstructure:"title"`
}

// KeywordConfig holds the keyword-stuffing detection thresholds.
type KeywordConfig struct {
	CountThreshold   int     `mapstructure:"countThreshold"`
	DensityThreshold float64 `mapstructure:"densityThreshold"`
}

// PenaltyConfig holds the tunable score deductions per gap category. These
// are named, overridable parameters scoped to (role, level) pairs; the
// defaults apply when no override matches.
type PenaltyConfig struct {
	Defaults  map[string]int    `mapstructure:"defaults"`
	Overrides []PenaltyOverride `mapstructure:"overrides"`
}

// PenaltyOverride is a (role, level)-scoped penalty value. Empty Role or
// Level fields act as wildcards.
type PenaltyOverride struct {
	Role     string `mapstructure:"role"`
	Level    string `mapstructure:"level"`
	Category string `mapstructure:"category"`
	Points   int    `mapstructure:"points"`
}

// RoleFamily maps a job function to the keyword family used for
// function-match detection.
type RoleFamily struct {
	Function string   `mapstructure:"function"`
	Keywords []string `mapstructure:"keywords"`
}

// NarrativeConfig holds narrative generation limits.
type NarrativeConfig struct {
	RegenerationLimit int `mapstructure:"regenerationLimit"`
}

// setScoringDefaults sets the default scoring configuration values
func setScoringDefaults(v *viper.Viper) {
	v.SetDefault("scoring.frameworksFile", "")
	v.SetDefault("scoring.frameworks.minSignals", map[string]int{
		"junior":    1,
		"mid":       2,
		"senior":    3,
		"staff":     4,
		"director":  4,
		"executive": 5,
	})
	v.SetDefault("scoring.weights.scope", 8)
	v.SetDefault("scoring.weights.leadership", 8)
	v.SetDefault("scoring.weights.technicalDepth", 7)
	v.SetDefault("scoring.weights.title", 4)
	v.SetDefault("scoring.keyword.countThreshold", 8)
	v.SetDefault("scoring.keyword.densityThreshold", 0.35)
	v.SetDefault("scoring.penalties.defaults", map[string]int{
		"credibility_violation": 60,
		"eligibility_violation": 45,
		"function_mismatch":     30,
		"experience_gap":        25,
		"presentation_gap":      15,
	})
	v.SetDefault("scoring.narrative.regenerationLimit", 2)
	v.SetDefault("scoring.taxonomy", []map[string]any{})
}

// Validate checks the scoring configuration for values that would break the
// decision pipeline.
func (sc *ScoringConfig) Validate() error {
	for level, count := range sc.Frameworks.MinSignals {
		if count < 1 {
			return fmt.Errorf("frameworks.minSignals[%s] must be at least 1, got %d", level, count)
		}
	}

	if sc.Keyword.CountThreshold < 1 {
		return fmt.Errorf("keyword.countThreshold must be at least 1")
	}
	if sc.Keyword.DensityThreshold <= 0 || sc.Keyword.DensityThreshold > 1 {
		return fmt.Errorf("keyword.densityThreshold must be in (0, 1], got %f", sc.Keyword.DensityThreshold)
	}

	for category, points := range sc.Penalties.Defaults {
		if points < 0 {
			return fmt.Errorf("penalties.defaults[%s] must be non-negative, got %d", category, points)
		}
	}
	for _, o := range sc.Penalties.Overrides {
		if o.Category == "" {
			return fmt.Errorf("penalty override missing category (role=%q level=%q)", o.Role, o.Level)
		}
		if o.Points < 0 {
			return fmt.Errorf("penalty override for %s must be non-negative, got %d", o.Category, o.Points)
		}
	}

	if sc.Narrative.RegenerationLimit < 0 {
		return fmt.Errorf("narrative.regenerationLimit must be non-negative")
	}

	return nil
}

// PenaltyFor resolves the tunable penalty for a gap category scoped to a
// (role, level) pair. The most specific matching override wins; empty
// override fields are wildcards.
func (sc *ScoringConfig) PenaltyFor(category, role, level string) int {
	best := -1
	bestSpecificity := -1
	for _, o := range sc.Penalties.Overrides {
		if o.Category != category {
			continue
		}
		if o.Role != "" && o.Role != role {
			continue
		}
		if o.Level != "" && o.Level != level {
			continue
		}
		specificity := 0
		if o.Role != "" {
			specificity++
		}
		if o.Level != "" {
			specificity++
		}
		if specificity > bestSpecificity {
			best = o.Points
			bestSpecificity = specificity
		}
	}
	if best >= 0 {
		return best
	}
	return sc.Penalties.Defaults[category]
}

// clone returns a deep copy so snapshot holders can never observe later
// configuration updates.
func (sc ScoringConfig) clone() ScoringConfig {
	out := sc
	out.Frameworks.MinSignals = maps.Clone(sc.Frameworks.MinSignals)
	out.Penalties.Defaults = maps.Clone(sc.Penalties.Defaults)
	out.Penalties.Overrides = slices.Clone(sc.Penalties.Overrides)
	out.Taxonomy = make([]RoleFamily, len(sc.Taxonomy))
	for i, family := range sc.Taxonomy {
		out.Taxonomy[i] = RoleFamily{
			Function: family.Function,
			Keywords: slices.Clone(family.Keywords),
		}
	}
	return out
}

// loadFrameworksFile merges an external frameworks file, if configured, into
// the scoring configuration. The file uses the same YAML shape as the
// `scoring` block.
func (c *Config) loadFrameworksFile() error {
	if c.Scoring.FrameworksFile == "" {
		return nil
	}

	loaded, err := readFrameworksFile(c.Scoring.FrameworksFile)
	if err != nil {
		return err
	}

	mergeScoring(&c.Scoring, loaded)
	return nil
}

// readFrameworksFile parses a standalone scoring/frameworks YAML file.
func readFrameworksFile(path string) (*ScoringConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read frameworks file %s: %w", path, err)
	}

	var sc ScoringConfig
	if err := v.Unmarshal(&sc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal frameworks file %s: %w", path, err)
	}

	if err := sc.Validate(); err != nil {
		// Partial files are allowed; only validate the sections present
		if len(sc.Frameworks.MinSignals) > 0 || sc.Keyword.CountThreshold > 0 {
			return nil, fmt.Errorf("invalid frameworks file %s: %w", path, err)
		}
	}

	return &sc, nil
}

// mergeScoring overlays non-empty sections of src onto dst.
func mergeScoring(dst *ScoringConfig, src *ScoringConfig) {
	if len(src.Frameworks.MinSignals) > 0 {
		dst.Frameworks.MinSignals = maps.Clone(src.Frameworks.MinSignals)
	}
	if src.Weights != (SignalWeights{}) {
		dst.Weights = src.Weights
	}
	if src.Keyword.CountThreshold > 0 {
		dst.Keyword.CountThreshold = src.Keyword.CountThreshold
	}
	if src.Keyword.DensityThreshold > 0 {
		dst.Keyword.DensityThreshold = src.Keyword.DensityThreshold
	}
	if len(src.Penalties.Defaults) > 0 {
		dst.Penalties.Defaults = maps.Clone(src.Penalties.Defaults)
	}
	if len(src.Penalties.Overrides) > 0 {
		dst.Penalties.Overrides = slices.Clone(src.Penalties.Overrides)
	}
	if len(src.Taxonomy) > 0 {
		dst.Taxonomy = src.Taxonomy
	}
	if src.Narrative.RegenerationLimit > 0 {
		dst.Narrative.RegenerationLimit = src.Narrative.RegenerationLimit
	}
}
