package signals

import (
	"strings"
	"testing"

	"fitgauge/internal/config"
	"fitgauge/internal/errors"
	"fitgauge/internal/types"
)

func testScoring() config.ScoringConfig {
	return config.ScoringConfig{
		Keyword: config.KeywordConfig{
			CountThreshold:   8,
			DensityThreshold: 0.35,
		},
	}
}

func TestExtractEmptyResume(t *testing.T) {
	extractor := NewExtractor(testScoring())

	_, err := extractor.Extract("session-1", "   \n  ")
	if err == nil {
		t.Fatal("expected error for empty resume")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeEmptyResume {
		t.Errorf("expected code %s, got %s", errors.ErrCodeEmptyResume, appErr.Code)
	}
	if appErr.Type != errors.ErrorTypeValidation {
		t.Errorf("expected validation error, got %s", appErr.Type)
	}
}

func TestExtractScopeSignals(t *testing.T) {
	extractor := NewExtractor(testScoring())

	resume := "Managed a team of 12 engineers across 3 countries with a $2M budget"
	result, err := extractor.Extract("session-1", resume)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var scope []types.CandidateSignal
	for _, s := range result.Signals {
		if s.Type == types.SignalScope {
			scope = append(scope, s)
		}
	}
	if len(scope) == 0 {
		t.Fatal("expected at least one scope signal")
	}
	for _, s := range scope {
		if !s.EvidenceFound || !s.Valid {
			t.Errorf("scope signal %q should be self-evidencing", s.Claim)
		}
		if s.SessionID != "session-1" {
			t.Errorf("signal not tagged with session: %q", s.SessionID)
		}
	}
}

func TestExtractLeadershipEvidence(t *testing.T) {
	tests := []struct {
		name          string
		resume        string
		evidenceFound bool
	}{
		{
			name:          "quantified leadership",
			resume:        "Led a team of 8 engineers building the billing platform",
			evidenceFound: true,
		},
		{
			name:          "unquantified leadership",
			resume:        "Led various initiatives and mentored colleagues",
			evidenceFound: false,
		},
		{
			name:          "evidence on adjacent line",
			resume:        "Mentored junior staff\n5 direct reports across two squads",
			evidenceFound: true,
		},
	}

	extractor := NewExtractor(testScoring())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := extractor.Extract("session-1", tt.resume)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			found := false
			for _, s := range result.Signals {
				if s.Type == types.SignalLeadership {
					found = true
					if s.EvidenceFound != tt.evidenceFound {
						t.Errorf("evidenceFound = %v, want %v (claim %q)",
							s.EvidenceFound, tt.evidenceFound, s.Claim)
					}
					if s.Valid != tt.evidenceFound {
						t.Errorf("unsupported leadership claim must not be valid")
					}
				}
			}
			if !found {
				t.Fatal("expected a leadership signal")
			}
		})
	}
}

func TestUnsupportedSeniorTitleSetsInflationFlag(t *testing.T) {
	extractor := NewExtractor(testScoring())

	resume := "Head of Engineering\nWorked on frontend tickets\nFixed bugs in the UI"
	result, err := extractor.Extract("session-1", resume)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.TitleInflationDetected {
		t.Error("expected title inflation flag for unsupported Head of Engineering claim")
	}

	for _, s := range result.Signals {
		if s.Type == types.SignalTitle && s.Valid {
			t.Errorf("title without supporting evidence must not be a valid signal: %q", s.Claim)
		}
	}
}

func TestSupportedTitleDoesNotSetInflationFlag(t *testing.T) {
	extractor := NewExtractor(testScoring())

	resume := "Director of Engineering\nManaged 25 engineers across 4 teams with a $5M budget"
	result, err := extractor.Extract("session-1", resume)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TitleInflationDetected {
		t.Error("evidenced director title should not raise the inflation flag")
	}

	foundValidTitle := false
	for _, s := range result.Signals {
		if s.Type == types.SignalTitle && s.Valid {
			foundValidTitle = true
			if s.ImpliedLevel != types.LevelDirector {
				t.Errorf("implied level = %s, want director", s.ImpliedLevel)
			}
		}
	}
	if !foundValidTitle {
		t.Error("expected a valid title signal")
	}
}

func TestKeywordStuffingDetection(t *testing.T) {
	extractor := NewExtractor(testScoring())

	// A bare skills dump with no applied context.
	stuffed := strings.Repeat("kubernetes docker aws terraform kafka redis graphql python java\n", 3)
	result, err := extractor.Extract("session-1", stuffed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.KeywordStuffingDetected {
		t.Errorf("expected keyword stuffing flag (count=%d density=%.2f)",
			result.UncontextualizedCount, result.KeywordDensity)
	}
}

func TestContextualizedKeywordsNotStuffing(t *testing.T) {
	extractor := NewExtractor(testScoring())

	resume := strings.Join([]string{
		"Built a payment reconciliation service in python handling 2M transactions daily",
		"Deployed the platform on kubernetes across 3 regions",
		"Designed a kafka pipeline for real-time event ingestion",
		"Mentored 4 junior engineers on code review practice",
	}, "\n")

	result, err := extractor.Extract("session-1", resume)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.KeywordStuffingDetected {
		t.Errorf("contextualized keyword use flagged as stuffing (count=%d density=%.2f)",
			result.UncontextualizedCount, result.KeywordDensity)
	}
}

func TestValidSignalsFilter(t *testing.T) {
	result := types.ExtractionResult{
		Signals: []types.CandidateSignal{
			{Type: types.SignalScope, Valid: true, EvidenceFound: true},
			{Type: types.SignalTitle, Valid: false, EvidenceFound: false},
			{Type: types.SignalLeadership, Valid: true, EvidenceFound: true},
		},
	}

	valid := result.ValidSignals()
	if len(valid) != 2 {
		t.Errorf("expected 2 valid signals, got %d", len(valid))
	}
	for _, s := range valid {
		if !s.Valid || !s.EvidenceFound {
			t.Error("invalid signal passed the filter")
		}
	}
}

func BenchmarkExtract(b *testing.B) {
	extractor := NewExtractor(testScoring())
	resume := strings.Repeat("Led a team of 8 engineers building a distributed platform serving 3M users\n", 40)

	for b.Loop() {
		if _, err := extractor.Extract("session-1", resume); err != nil {
			b.Fatal(err)
		}
	}
}
