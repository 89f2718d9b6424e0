package leveling

import (
	"regexp"
	"strings"

	"fitgauge/internal/config"
	"fitgauge/internal/types"
)

// Classifier maps validated signals to a detected seniority level and
// compares it against the role's target level. Pure function of its input;
// it never consults a previous session's classification.
type Classifier struct {
	scoring config.ScoringConfig
}

// NewClassifier creates a classifier bound to one session's scoring snapshot.
func NewClassifier(scoring config.ScoringConfig) *Classifier {
	return &Classifier{scoring: scoring}
}

// Classify returns the session's level assessment. The detected level is the
// highest level whose per-level minimum validated-signal count is met using
// evidence-backed signals only. Distance > 0 means under-leveled.
func (c *Classifier) Classify(extraction types.ExtractionResult, target types.Level) types.LevelAssessment {
	valid := extraction.ValidSignals()

	detected := types.LevelUnknown
	for level := types.LevelJunior; level <= types.LevelExecutive; level++ {
		required, ok := c.scoring.Frameworks.MinSignals[level.String()]
		if !ok {
			continue
		}
		if countAtOrAbove(valid, level) >= required {
			detected = level
		}
	}

	return types.LevelAssessment{
		Detected:         detected,
		Target:           target,
		Distance:         int(target) - int(detected),
		ValidSignalCount: len(valid),
	}
}

// countAtOrAbove counts validated signals whose implied level is at least
// the given rung.
func countAtOrAbove(signals []types.CandidateSignal, level types.Level) int {
	count := 0
	for _, s := range signals {
		if s.ImpliedLevel >= level {
			count++
		}
	}
	return count
}

var targetTitleLadder = []struct {
	pattern *regexp.Regexp
	level   types.Level
}{
	{regexp.MustCompile(`(?i)\b(?:chief|cto|ceo|coo|cpo|vp|vice president|evp|svp|executive)\b`), types.LevelExecutive},
	{regexp.MustCompile(`(?i)\b(?:director|head of)\b`), types.LevelDirector},
	{regexp.MustCompile(`(?i)\b(?:staff|principal|distinguished)\b`), types.LevelStaff},
	{regexp.MustCompile(`(?i)\b(?:senior|sr\.?|lead)\b`), types.LevelSenior},
	{regexp.MustCompile(`(?i)\b(?:junior|jr\.?|intern|associate|entry.level|graduate)\b`), types.LevelJunior},
}

// InferTarget resolves the role's target level. An explicit target wins,
// then role-title tokens, then job-description body tokens; otherwise the
// target defaults to mid.
func InferTarget(explicit, roleTitle, jobDescription string) types.Level {
	if explicit != "" {
		if level := types.ParseLevel(strings.ToLower(strings.TrimSpace(explicit))); level != types.LevelUnknown {
			return level
		}
	}

	for _, source := range []string{roleTitle, jobDescription} {
		if source == "" {
			continue
		}
		for _, rung := range targetTitleLadder {
			if rung.pattern.MatchString(source) {
				return rung.level
			}
		}
	}

	return types.LevelMid
}
