package leveling

import (
	"testing"

	"fitgauge/internal/config"
	"fitgauge/internal/types"
)

func testScoring() config.ScoringConfig {
	return config.ScoringConfig{
		Frameworks: config.FrameworkConfig{
			MinSignals: map[string]int{
				"junior":    1,
				"mid":       2,
				"senior":    3,
				"staff":     4,
				"director":  4,
				"executive": 5,
			},
		},
	}
}

func validSignal(level types.Level) types.CandidateSignal {
	return types.CandidateSignal{
		Type:          types.SignalLeadership,
		Valid:         true,
		EvidenceFound: true,
		ImpliedLevel:  level,
	}
}

func TestClassifyDetectedLevel(t *testing.T) {
	tests := []struct {
		name     string
		signals  []types.CandidateSignal
		target   types.Level
		detected types.Level
		distance int
	}{
		{
			name:     "no signals detects nothing",
			signals:  nil,
			target:   types.LevelMid,
			detected: types.LevelUnknown,
			distance: 2,
		},
		{
			name: "three senior signals detect senior",
			signals: []types.CandidateSignal{
				validSignal(types.LevelSenior),
				validSignal(types.LevelSenior),
				validSignal(types.LevelSenior),
			},
			target:   types.LevelSenior,
			detected: types.LevelSenior,
			distance: 0,
		},
		{
			name: "two senior signals only reach mid",
			signals: []types.CandidateSignal{
				validSignal(types.LevelSenior),
				validSignal(types.LevelSenior),
			},
			target:   types.LevelStaff,
			detected: types.LevelMid,
			distance: 2,
		},
		{
			name: "higher-level signals count toward lower rungs",
			signals: []types.CandidateSignal{
				validSignal(types.LevelDirector),
				validSignal(types.LevelSenior),
				validSignal(types.LevelSenior),
			},
			target:   types.LevelDirector,
			detected: types.LevelSenior,
			distance: 2,
		},
	}

	classifier := NewClassifier(testScoring())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assessment := classifier.Classify(types.ExtractionResult{Signals: tt.signals}, tt.target)

			if assessment.Detected != tt.detected {
				t.Errorf("detected = %s, want %s", assessment.Detected, tt.detected)
			}
			if assessment.Distance != tt.distance {
				t.Errorf("distance = %d, want %d", assessment.Distance, tt.distance)
			}
		})
	}
}

func TestClassifyIgnoresInvalidSignals(t *testing.T) {
	classifier := NewClassifier(testScoring())

	// An unsupported executive title claim must not raise the detected level.
	extraction := types.ExtractionResult{
		Signals: []types.CandidateSignal{
			{Type: types.SignalTitle, Valid: false, EvidenceFound: false, ImpliedLevel: types.LevelExecutive},
			validSignal(types.LevelMid),
		},
	}

	assessment := classifier.Classify(extraction, types.LevelSenior)
	if assessment.Detected != types.LevelJunior {
		t.Errorf("detected = %s, want junior (one valid signal)", assessment.Detected)
	}
	if assessment.ValidSignalCount != 1 {
		t.Errorf("valid signal count = %d, want 1", assessment.ValidSignalCount)
	}
}

func TestInferTarget(t *testing.T) {
	tests := []struct {
		name           string
		explicit       string
		roleTitle      string
		jobDescription string
		want           types.Level
	}{
		{"explicit wins", "staff", "Senior Engineer", "", types.LevelStaff},
		{"explicit unknown falls through", "wizard", "Senior Engineer", "", types.LevelSenior},
		{"role title director", "", "Director of Product", "", types.LevelDirector},
		{"role title head of", "", "Head of Engineering", "", types.LevelDirector},
		{"jd body senior", "", "", "We need a senior backend engineer", types.LevelSenior},
		{"nothing defaults to mid", "", "Product Manager", "", types.LevelMid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferTarget(tt.explicit, tt.roleTitle, tt.jobDescription)
			if got != tt.want {
				t.Errorf("InferTarget() = %s, want %s", got, tt.want)
			}
		})
	}
}
