package signals

import (
	"regexp"
	"strings"

	"fitgauge/internal/config"
	"fitgauge/internal/errors"
	"fitgauge/internal/types"
)

// Extractor scans resume text for evidence-backed candidate signals. It is a
// pure lexical pass over the text: no I/O, no provider calls, no state shared
// between runs. Thresholds come from the scoring snapshot the session holds.
type Extractor struct {
	scoring config.ScoringConfig
}

// NewExtractor creates an extractor bound to one session's scoring snapshot.
func NewExtractor(scoring config.ScoringConfig) *Extractor {
	return &Extractor{scoring: scoring}
}

// Claim patterns. A claim is only the trigger; validity requires supporting
// evidence in the surrounding span.
var (
	scopePattern = regexp.MustCompile(`(?i)\b(?:team of \d+|\d+\+?\s*(?:direct reports|engineers|developers|reports|people)|\$\s?\d+(?:\.\d+)?\s*(?:k|m|b|mm|million|billion)?\s*(?:budget|revenue|arr|p&l|portfolio)|\d+(?:\.\d+)?\s*(?:k|m|b|million|billion|thousand)\+?\s*(?:users|customers|requests|transactions|downloads|mau|dau)|\d+\s*(?:countries|regions|markets|offices|sites))`)

	leadershipPattern = regexp.MustCompile(`(?i)\b(?:managed|led|hired|mentored|coached|grew|supervised|directed|recruited|onboarded)\b`)

	techDepthPattern = regexp.MustCompile(`(?i)\b(?:designed|architected|built|scaled|migrated|re-?architected|optimized|implemented)\b`)

	// Quantified scale evidence: team size, budget, user volume, revenue,
	// geography.
	quantifiedEvidence = regexp.MustCompile(`(?i)(?:\d+\+?\s*(?:direct reports|engineers|developers|reports|people|members)|team of \d+|\$\s?\d+|\d+(?:\.\d+)?\s*(?:k|m|b|%|million|billion|thousand)|\d+\s*(?:countries|regions|markets|offices|years))`)

	// Bounded-system ownership plus a complexity marker.
	systemOwnership  = regexp.MustCompile(`(?i)\b(?:owned|owner of|responsible for|end.to.end|platform|pipeline|service|subsystem|infrastructure)\b`)
	complexityMarker = regexp.MustCompile(`(?i)\b(?:distributed|high.throughput|low.latency|real.time|multi.region|fault.tolerant|concurrent|sharded|petabyte|terabyte|99\.9+%|p9[59])\b`)

	managerOfManagers = regexp.MustCompile(`(?i)\b(?:managers|team leads|engineering leads)\b`)

	contextVerb = regexp.MustCompile(`(?i)\b(?:built|designed|implemented|developed|migrated|deployed|optimized|maintained|created|delivered|shipped|automated|integrated|debugged|operated|led|used)\b`)

	wordSplit = regexp.MustCompile(`\s+`)
)

// titleLadder maps title claims to their implied level, most senior first.
var titleLadder = []struct {
	pattern *regexp.Regexp
	level   types.Level
}{
	{regexp.MustCompile(`(?i)\b(?:chief|cto|ceo|coo|cpo|vp|vice president|evp|svp)\b`), types.LevelExecutive},
	{regexp.MustCompile(`(?i)\b(?:director|head of)\b`), types.LevelDirector},
	{regexp.MustCompile(`(?i)\b(?:staff|principal|distinguished)\b`), types.LevelStaff},
	{regexp.MustCompile(`(?i)\b(?:senior|sr\.?|lead)\b`), types.LevelSenior},
	{regexp.MustCompile(`(?i)\b(?:engineer|developer|manager|analyst|specialist|consultant|designer)\b`), types.LevelMid},
	{regexp.MustCompile(`(?i)\b(?:junior|jr\.?|intern|associate|trainee)\b`), types.LevelJunior},
}

// defaultKeywords backs keyword-stuffing detection when the role taxonomy is
// not configured.
var defaultKeywords = []string{
	"kubernetes", "docker", "aws", "gcp", "azure", "terraform", "react",
	"python", "java", "golang", "typescript", "sql", "nosql", "kafka",
	"redis", "graphql", "microservices", "ci/cd", "agile", "scrum",
	"machine learning", "blockchain", "devops",
}

// Extract runs the full lexical pass and returns the session's signal set
// plus the two flags the extractor is allowed to raise.
func (e *Extractor) Extract(sessionID, resumeText string) (types.ExtractionResult, error) {
	if strings.TrimSpace(resumeText) == "" {
		return types.ExtractionResult{}, errors.NewValidationError(
			errors.ErrCodeEmptyResume,
			"resume text is empty, no signals can be extracted",
			nil,
		).WithContext("session_id", sessionID)
	}

	lines := strings.Split(resumeText, "\n")
	result := types.ExtractionResult{}

	for i, line := range lines {
		span := surroundingSpan(lines, i)

		result.Signals = append(result.Signals, e.extractScope(sessionID, line, span)...)
		result.Signals = append(result.Signals, e.extractLeadership(sessionID, line, span)...)
		result.Signals = append(result.Signals, e.extractTechDepth(sessionID, line, span)...)

		titleSignals, inflated := e.extractTitles(sessionID, line, span)
		result.Signals = append(result.Signals, titleSignals...)
		if inflated {
			result.TitleInflationDetected = true
		}
	}

	count, density := e.countUncontextualizedKeywords(resumeText, lines)
	result.UncontextualizedCount = count
	result.KeywordDensity = density
	if count > e.scoring.Keyword.CountThreshold || density > e.scoring.Keyword.DensityThreshold {
		result.KeywordStuffingDetected = true
	}

	return result, nil
}

// surroundingSpan joins a line with its neighbors. Evidence for a claim may
// sit on the bullet above or below it.
func surroundingSpan(lines []string, i int) string {
	lo := max(i-1, 0)
	hi := min(i+2, len(lines))
	return strings.Join(lines[lo:hi], "\n")
}

func (e *Extractor) extractScope(sessionID, line, span string) []types.CandidateSignal {
	match := scopePattern.FindString(line)
	if match == "" {
		return nil
	}

	// A scope claim is self-evidencing: the quantifier is the evidence.
	return []types.CandidateSignal{{
		SessionID:     sessionID,
		Type:          types.SignalScope,
		Claim:         match,
		SourceSpan:    strings.TrimSpace(line),
		Evidence:      match,
		EvidenceFound: true,
		Valid:         true,
		ImpliedLevel:  types.LevelSenior,
	}}
}

func (e *Extractor) extractLeadership(sessionID, line, span string) []types.CandidateSignal {
	match := leadershipPattern.FindString(line)
	if match == "" {
		return nil
	}

	evidence := quantifiedEvidence.FindString(span)
	found := evidence != ""

	implied := types.LevelSenior
	if found && managerOfManagers.MatchString(line) {
		implied = types.LevelDirector
	}

	return []types.CandidateSignal{{
		SessionID:     sessionID,
		Type:          types.SignalLeadership,
		Claim:         strings.TrimSpace(line),
		SourceSpan:    span,
		Evidence:      evidence,
		EvidenceFound: found,
		Valid:         found,
		ImpliedLevel:  implied,
	}}
}

func (e *Extractor) extractTechDepth(sessionID, line, span string) []types.CandidateSignal {
	match := techDepthPattern.FindString(line)
	if match == "" {
		return nil
	}

	// Technical depth needs bounded-system ownership plus a complexity
	// marker, or a quantified scale, in the surrounding span.
	evidence := complexityMarker.FindString(span)
	found := evidence != "" && systemOwnership.MatchString(span)
	if !found {
		if q := quantifiedEvidence.FindString(span); q != "" {
			evidence = q
			found = true
		}
	}

	implied := types.LevelMid
	if found && complexityMarker.MatchString(span) {
		implied = types.LevelSenior
	}

	return []types.CandidateSignal{{
		SessionID:     sessionID,
		Type:          types.SignalTechnicalDepth,
		Claim:         strings.TrimSpace(line),
		SourceSpan:    span,
		Evidence:      evidence,
		EvidenceFound: found,
		Valid:         found,
		ImpliedLevel:  implied,
	}}
}

// extractTitles records title claims. A title alone never counts as a valid
// signal; it requires scope or leadership evidence in the surrounding span.
// An unsupported senior+ title raises the inflation flag.
func (e *Extractor) extractTitles(sessionID, line, span string) ([]types.CandidateSignal, bool) {
	implied := types.LevelUnknown
	claim := ""
	for _, rung := range titleLadder {
		if m := rung.pattern.FindString(line); m != "" {
			implied = rung.level
			claim = m
			break
		}
	}
	if implied == types.LevelUnknown {
		return nil, false
	}

	evidence := quantifiedEvidence.FindString(span)
	if evidence == "" {
		evidence = complexityMarker.FindString(span)
	}
	found := evidence != ""

	inflated := !found && implied >= types.LevelSenior

	return []types.CandidateSignal{{
		SessionID:     sessionID,
		Type:          types.SignalTitle,
		Claim:         claim,
		SourceSpan:    strings.TrimSpace(line),
		Evidence:      evidence,
		EvidenceFound: found,
		Valid:         found,
		ImpliedLevel:  implied,
	}}, inflated
}

// countUncontextualizedKeywords counts technical terms appearing with no
// applied context on their line and computes overall keyword density.
func (e *Extractor) countUncontextualizedKeywords(resumeText string, lines []string) (int, float64) {
	keywords := e.keywordSet()
	lowerText := strings.ToLower(resumeText)

	totalWords := len(wordSplit.Split(strings.TrimSpace(resumeText), -1))
	if totalWords == 0 {
		return 0, 0
	}

	totalOccurrences := 0
	for _, kw := range keywords {
		totalOccurrences += strings.Count(lowerText, kw)
	}

	uncontextualized := 0
	for _, line := range lines {
		lower := strings.ToLower(line)
		hasContext := contextVerb.MatchString(line)
		for _, kw := range keywords {
			n := strings.Count(lower, kw)
			if n > 0 && !hasContext {
				uncontextualized += n
			}
		}
	}

	return uncontextualized, float64(totalOccurrences) / float64(totalWords)
}

// keywordSet returns the configured taxonomy keyword families, falling back
// to the built-in technical term list.
func (e *Extractor) keywordSet() []string {
	var keywords []string
	for _, family := range e.scoring.Taxonomy {
		for _, kw := range family.Keywords {
			keywords = append(keywords, strings.ToLower(kw))
		}
	}
	if len(keywords) == 0 {
		return defaultKeywords
	}
	return keywords
}
