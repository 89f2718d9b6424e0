package gaps

import (
	"fmt"
	"regexp"
	"strings"

	"fitgauge/internal/config"
	"fitgauge/internal/types"
)

// Classifier buckets a mismatch into the five-category taxonomy. All matching
// categories are evaluated; exactly one becomes active per the decision
// authority order, the rest are recorded inert. A lower-authority category can
// never soften the outcome of a higher one.
type Classifier struct {
	scoring config.ScoringConfig
}

// NewClassifier creates a classifier bound to one session's scoring snapshot.
func NewClassifier(scoring config.ScoringConfig) *Classifier {
	return &Classifier{scoring: scoring}
}

// Input carries everything the classifier reads. It consumes upstream output
// by value and never mutates it.
type Input struct {
	Assessment     types.LevelAssessment
	Extraction     types.ExtractionResult
	ResumeText     string
	JobDescription string
	RoleTitle      string
}

// experienceGapDistance is the under-leveling distance at which a mismatch
// stops being presentational and becomes an experience gap.
const experienceGapDistance = 2

var credentialPattern = regexp.MustCompile(`(?i)\b(?:security clearance|cpa|pmp|cfa|rn license|pe license|bar admission|md degree|phd required|work authorization|driver'?s license)\b`)

// Classify evaluates every category and resolves the active one.
func (c *Classifier) Classify(in Input) types.GapClassification {
	type match struct {
		category types.GapCategory
		severity types.Severity
		redirect string
	}

	var matches []match

	if in.Extraction.TitleInflationDetected {
		matches = append(matches, match{types.GapCredibility, types.SeverityBlocking, ""})
	}

	if missing := c.missingCredential(in.ResumeText, in.JobDescription); missing != "" {
		matches = append(matches, match{types.GapEligibility, types.SeverityBlocking, ""})
	}

	candidateFn, targetFn := c.resolveFunctions(in)
	if candidateFn != "" && targetFn != "" && candidateFn != targetFn {
		redirect := fmt.Sprintf("%s roles", candidateFn)
		matches = append(matches, match{types.GapFunctionMismatch, types.SeverityMajor, redirect})
	}

	// Two ways in: demonstrated level far under target, or no demonstrated
	// history at all in the role's function even at matching level.
	if in.Assessment.Distance >= experienceGapDistance || c.zeroFunctionTenure(in.ResumeText, targetFn) {
		matches = append(matches, match{types.GapExperience, types.SeverityMajor, ""})
	}

	if c.presentationGap(in) {
		matches = append(matches, match{types.GapPresentation, types.SeverityMinor, ""})
	}

	if len(matches) == 0 {
		return types.GapClassification{Active: types.GapNone}
	}

	// Highest authority wins. matches is built in authority order already,
	// but resolve explicitly so the ordering invariant does not depend on
	// append order.
	active := matches[0]
	for _, m := range matches[1:] {
		if m.category.Authority() < active.category.Authority() {
			active = m
		}
	}

	classification := types.GapClassification{
		Active:   active.category,
		Severity: active.severity,
		Redirect: active.redirect,
	}
	for _, m := range matches {
		if m.category != active.category {
			classification.Inert = append(classification.Inert, m.category)
		}
	}

	return classification
}

// missingCredential returns a credential the JD explicitly requires that the
// resume never mentions.
func (c *Classifier) missingCredential(resumeText, jobDescription string) string {
	required := credentialPattern.FindAllString(jobDescription, -1)
	if len(required) == 0 {
		return ""
	}

	lowerResume := strings.ToLower(resumeText)
	for _, cred := range required {
		if !strings.Contains(lowerResume, strings.ToLower(cred)) {
			return cred
		}
	}
	return ""
}

// Functions exposes the taxonomy resolution for callers that scope penalties
// or redirects by function.
func (c *Classifier) Functions(in Input) (candidate, target string) {
	return c.resolveFunctions(in)
}

// resolveFunctions maps the resume and the JD onto the role taxonomy's
// keyword families. Either side may fail to resolve, in which case no
// function-mismatch judgment is possible.
func (c *Classifier) resolveFunctions(in Input) (candidate, target string) {
	candidate = c.dominantFunction(in.ResumeText)
	target = c.dominantFunction(in.RoleTitle + "\n" + in.JobDescription)
	return candidate, target
}

// zeroFunctionTenure reports whether the resume carries no evidence of any
// history in the role's resolved function. An unresolved function cannot be
// judged and never fires.
func (c *Classifier) zeroFunctionTenure(resumeText, targetFn string) bool {
	if targetFn == "" {
		return false
	}
	return c.functionHits(resumeText, targetFn) == 0
}

// functionHits counts taxonomy keyword occurrences for one function family.
func (c *Classifier) functionHits(text, function string) int {
	lower := strings.ToLower(text)
	for _, family := range c.scoring.Taxonomy {
		if family.Function != function {
			continue
		}
		hits := 0
		for _, kw := range family.Keywords {
			hits += strings.Count(lower, strings.ToLower(kw))
		}
		return hits
	}
	return 0
}

// dominantFunction returns the taxonomy family with the most keyword hits in
// the text, or empty when nothing matches.
func (c *Classifier) dominantFunction(text string) string {
	lower := strings.ToLower(text)

	best := ""
	bestHits := 0
	for _, family := range c.scoring.Taxonomy {
		hits := 0
		for _, kw := range family.Keywords {
			hits += strings.Count(lower, strings.ToLower(kw))
		}
		if hits > bestHits {
			best = family.Function
			bestHits = hits
		}
	}
	return best
}

// presentationGap fires when signals likely exist but are not clearly
// written: keyword stuffing, or claims that outnumber their evidence while
// the candidate sits just under target.
func (c *Classifier) presentationGap(in Input) bool {
	if in.Extraction.KeywordStuffingDetected {
		return true
	}

	invalid := len(in.Extraction.Signals) - len(in.Extraction.ValidSignals())
	underTarget := in.Assessment.Distance > 0 && in.Assessment.Distance < experienceGapDistance
	return underTarget && invalid > 0
}
