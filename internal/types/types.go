package types

import "time"

// Level is a seniority rung on the leveling framework ladder.
type Level int

const (
	LevelUnknown   Level = 0
	LevelJunior    Level = 1
	LevelMid       Level = 2
	LevelSenior    Level = 3
	LevelStaff     Level = 4
	LevelDirector  Level = 5
	LevelExecutive Level = 6
)

var levelNames = map[Level]string{
	LevelUnknown:   "unknown",
	LevelJunior:    "junior",
	LevelMid:       "mid",
	LevelSenior:    "senior",
	LevelStaff:     "staff",
	LevelDirector:  "director",
	LevelExecutive: "executive",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLevel maps a level name to its Level value. Unrecognized names map to
// LevelUnknown so callers can apply their own default.
func ParseLevel(name string) Level {
	for level, n := range levelNames {
		if n == name {
			return level
		}
	}
	return LevelUnknown
}

// SignalType categorizes an extracted candidate claim.
type SignalType string

const (
	SignalScope          SignalType = "scope"
	SignalLeadership     SignalType = "leadership"
	SignalTechnicalDepth SignalType = "technical_depth"
	SignalTitle          SignalType = "title"
)

// CandidateSignal is one extracted, evidence-checked claim. Signals are
// created by the extractor, owned by the session, and read-only afterward.
type CandidateSignal struct {
	SessionID     string     `json:"sessionId"`
	Type          SignalType `json:"type"`
	Claim         string     `json:"claim"`
	SourceSpan    string     `json:"sourceSpan"`
	Evidence      string     `json:"evidence,omitempty"`
	EvidenceFound bool       `json:"evidenceFound"`
	Valid         bool       `json:"valid"`
	ImpliedLevel  Level      `json:"impliedLevel"`
}

// ExtractionResult carries the extractor's output plus the two session flags
// it is allowed to set.
type ExtractionResult struct {
	Signals                 []CandidateSignal `json:"signals"`
	TitleInflationDetected  bool              `json:"titleInflationDetected"`
	KeywordStuffingDetected bool              `json:"keywordStuffingDetected"`
	UncontextualizedCount   int               `json:"uncontextualizedCount"`
	KeywordDensity          float64           `json:"keywordDensity"`
}

// ValidSignals returns the evidence-backed signals eligible for level
// classification.
func (r ExtractionResult) ValidSignals() []CandidateSignal {
	valid := make([]CandidateSignal, 0, len(r.Signals))
	for _, s := range r.Signals {
		if s.Valid && s.EvidenceFound {
			valid = append(valid, s)
		}
	}
	return valid
}

// LevelAssessment compares the candidate's detected level against the role's
// target level. Distance > 0 means the candidate appears under-leveled.
type LevelAssessment struct {
	Detected         Level `json:"detected"`
	Target           Level `json:"target"`
	Distance         int   `json:"distance"`
	ValidSignalCount int   `json:"validSignalCount"`
}

// GapCategory is one bucket of the mismatch taxonomy.
type GapCategory string

const (
	GapCredibility      GapCategory = "credibility_violation"
	GapEligibility      GapCategory = "eligibility_violation"
	GapFunctionMismatch GapCategory = "function_mismatch"
	GapExperience       GapCategory = "experience_gap"
	GapPresentation     GapCategory = "presentation_gap"
	GapNone             GapCategory = "none"
)

// Authority returns the category's decision authority. Lower numbers win;
// a category can never soften the outcome of a lower-numbered one.
func (c GapCategory) Authority() int {
	switch c {
	case GapCredibility:
		return 1
	case GapEligibility:
		return 2
	case GapFunctionMismatch:
		return 3
	case GapExperience:
		return 4
	case GapPresentation:
		return 5
	default:
		return 6
	}
}

// Severity grades how strongly a gap classification binds the outcome.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// GapClassification is the categorized nature of a mismatch. Exactly one
// category is active per session; lower-authority matches are recorded inert.
type GapClassification struct {
	Active   GapCategory   `json:"active"`
	Severity Severity      `json:"severity"`
	Redirect string        `json:"redirect,omitempty"`
	Inert    []GapCategory `json:"inert,omitempty"`
}

// Recommendation is the closed set of binding decisions.
type Recommendation string

const (
	RecommendationPass             Recommendation = "pass"
	RecommendationConditionalApply Recommendation = "conditional_apply"
	RecommendationApply            Recommendation = "apply"
)

// rank orders recommendations from most to least restrictive.
func (r Recommendation) rank() int {
	switch r {
	case RecommendationPass:
		return 0
	case RecommendationConditionalApply:
		return 1
	default:
		return 2
	}
}

// AtMost clamps r to the given ceiling.
func (r Recommendation) AtMost(ceiling Recommendation) Recommendation {
	if r.rank() > ceiling.rank() {
		return ceiling
	}
	return r
}

// AffordanceState controls what the UI may offer for this session.
type AffordanceState string

const (
	AffordanceDisabled           AffordanceState = "disabled"
	AffordanceDemoted            AffordanceState = "demoted"
	AffordanceEnabledWithWarning AffordanceState = "enabled_with_warning"
	AffordanceEnabled            AffordanceState = "enabled"
)

// CoachingMode selects the narrative posture for the session.
type CoachingMode string

const (
	CoachRedirection       CoachingMode = "redirection"
	CoachCredibilityRepair CoachingMode = "credibility_repair"
	CoachSignalBuilding    CoachingMode = "signal_building"
	CoachOptimization      CoachingMode = "optimization"
)

// TerminalState is the single resolved outcome of a session. Score caps and
// affordance states are hard; once the recommendation controller consumes the
// state it is immutable for the rest of the run.
type TerminalState struct {
	Category         GapCategory     `json:"category"`
	ScoreCap         int             `json:"scoreCap"`
	Ceiling          Recommendation  `json:"ceiling"`
	Affordance       AffordanceState `json:"affordance"`
	Mode             CoachingMode    `json:"mode"`
	ForbiddenPhrases []string        `json:"forbiddenPhrases"`
	RequiredPhrases  []string        `json:"requiredPhrases"`
}

// FinalRecommendation is the binding decision, written exactly once.
type FinalRecommendation struct {
	Value    Recommendation `json:"value"`
	LockedAt time.Time      `json:"lockedAt"`
}

// AssessInput is the inbound analysis request. Resume and JD text arrive
// already parsed by the external resume-parsing collaborator.
type AssessInput struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
	Company        string `json:"company,omitempty"`
	RoleTitle      string `json:"roleTitle,omitempty"`
	TargetLevel    string `json:"targetLevel,omitempty"`
}

// NarrativeStrength cites one JD-relevant capability with resume evidence.
// Tier 1 is a JD-required capability, tier 2 a JD-adjacent transferable one.
type NarrativeStrength struct {
	Capability string `json:"capability"`
	Evidence   string `json:"evidence"`
	Tier       int    `json:"tier"`
}

// ActionPlan is the "your move" section of the narrative.
type ActionPlan struct {
	Immediate        []string `json:"immediate"`
	ThreeMonth       []string `json:"threeMonth"`
	SixToTwelveMonth []string `json:"sixToTwelveMonth"`
}

// Narrative holds the generated coaching sections after post-validation.
type Narrative struct {
	Strengths  []NarrativeStrength `json:"strengths"`
	Gaps       []string            `json:"gaps"`
	ActionPlan ActionPlan          `json:"actionPlan"`
}

// AssessOutput is the structured analysis result returned to the caller. All
// fields derive from the session's terminal state; none may disagree with it.
type AssessOutput struct {
	SessionID      string          `json:"sessionId"`
	FitScore       int             `json:"fitScore"`
	Recommendation Recommendation  `json:"recommendation"`
	Affordance     AffordanceState `json:"affordance"`
	CoachingMode   CoachingMode    `json:"coachingMode"`
	GapCategory    GapCategory     `json:"gapCategory"`
	Redirect       string          `json:"redirect,omitempty"`
	Strengths      []string        `json:"strengths"`
	Gaps           []string        `json:"gaps"`
	Narrative      Narrative       `json:"narrative"`
}
