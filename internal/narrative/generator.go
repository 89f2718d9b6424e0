package narrative

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"fitgauge/internal/ai"
	"fitgauge/internal/errors"
	"fitgauge/internal/types"
)

// Generator is the constraint layer around the generative-text provider. It
// builds the constrained prompt, invokes the provider, and post-validates
// the output against the terminal state's phrase filters. Non-compliant text
// is regenerated a bounded number of times, then the session fails; compliant
// text is never patched in-process.
type Generator struct {
	provider          ai.NarrativeProvider
	regenerationLimit int
	logger            *errors.Logger
}

// NewGenerator creates a generator with the session's regeneration budget.
func NewGenerator(provider ai.NarrativeProvider, regenerationLimit int, logger *errors.Logger) *Generator {
	return &Generator{
		provider:          provider,
		regenerationLimit: regenerationLimit,
		logger:            logger,
	}
}

// Input is everything narrative generation may read. The terminal state and
// recommendation arrive locked; the generator only consumes them.
type Input struct {
	SessionID      string
	State          types.TerminalState
	Recommendation types.FinalRecommendation
	Classification types.GapClassification
	Signals        []types.CandidateSignal
	JobDescription string
	RoleTitle      string
	Company        string

	// FunctionOverlap records whether the classifier established measurable
	// overlap between the resume and the role's function. Without it, any
	// domain-translation claim is forbidden, whatever the active category.
	FunctionOverlap bool
}

// Generate produces the coaching narrative for a session. Zero validated
// signals is an integrity failure: a fallback narrative would mask a data
// problem, so none is emitted.
func (g *Generator) Generate(ctx context.Context, in Input) (types.Narrative, *ai.TokenUsage, error) {
	tracer := otel.Tracer("fitgauge.narrative")
	ctx, span := tracer.Start(ctx, "narrative.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("session.id", in.SessionID),
		attribute.String("gap.category", string(in.State.Category)),
		attribute.String("coaching.mode", string(in.State.Mode)),
	)

	if len(in.Signals) == 0 {
		err := errors.NewIntegrityError(
			errors.ErrCodeZeroStrengths,
			"zero validated signals, narrative generation halted",
			nil,
		).WithContext("session_id", in.SessionID)
		span.RecordError(err)
		return types.Narrative{}, nil, err
	}

	req := ai.NarrativeRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(in),
	}

	var total *ai.TokenUsage
	var lastViolation string

	for attempt := 0; attempt <= g.regenerationLimit; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Regenerating narrative after phrase-filter violation",
				"session_id", in.SessionID,
				"attempt", attempt,
				"violation", lastViolation)
		}

		narrative, usage, err := g.provider.GenerateNarrative(ctx, req)
		total = accumulate(total, usage)
		if err != nil {
			span.RecordError(err)
			return types.Narrative{}, total, err
		}

		if violation := validate(narrative, in); violation != "" {
			lastViolation = violation
			continue
		}

		span.SetAttributes(
			attribute.Int("narrative.attempts", attempt+1),
			attribute.Int("narrative.strengths", len(narrative.Strengths)),
		)
		return narrative, total, nil
	}

	err := errors.NewConsistencyError(
		errors.ErrCodePhraseViolation,
		"generated narrative violated phrase constraints after all regeneration attempts",
		nil,
	).WithContext("session_id", in.SessionID).
		WithContext("violation", lastViolation).
		WithContext("attempts", g.regenerationLimit+1)
	span.RecordError(err)
	return types.Narrative{}, total, err
}

// translationClaims assert that experience carries over across functions.
// They are only permissible when measurable function overlap was established;
// the scan below applies them to every category, not just function mismatch.
var translationClaims = []string{
	"your experience translates",
	"experience translates directly",
	"translates directly to this role",
	"transferable enough",
	"directly transferable",
	"skills transfer to this role",
}

// validate scans a generated narrative against the session constraints and
// returns a description of the first violation, or empty when compliant.
func validate(n types.Narrative, in Input) string {
	if len(n.Strengths) == 0 {
		return "provider returned zero strengths"
	}

	text := collectText(n)
	lower := strings.ToLower(text)

	for _, phrase := range in.State.ForbiddenPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return fmt.Sprintf("forbidden phrase present: %q", phrase)
		}
	}

	if !in.FunctionOverlap {
		for _, phrase := range translationClaims {
			if strings.Contains(lower, phrase) {
				return fmt.Sprintf("translation claim without measurable overlap: %q", phrase)
			}
		}
	}

	// Sensitive-topic sentences must come from the canonical set.
	for _, phrase := range in.State.RequiredPhrases {
		if !strings.Contains(lower, strings.ToLower(phrase)) {
			return fmt.Sprintf("required phrase missing: %q", phrase)
		}
	}

	// JD-first ordering: generic language is forbidden when a JD-required
	// strength is available.
	hasTier1 := false
	hasTier3 := false
	for _, s := range n.Strengths {
		switch s.Tier {
		case 1:
			hasTier1 = true
		case 3:
			hasTier3 = true
		}
	}
	if hasTier1 && hasTier3 {
		return "generic tier-3 strength emitted despite available tier-1 evidence"
	}

	// Signal-building sessions for an experience gap carry the closing plan.
	if in.State.Mode == types.CoachSignalBuilding && in.State.Category == types.GapExperience {
		if len(n.ActionPlan.ThreeMonth) == 0 || len(n.ActionPlan.SixToTwelveMonth) == 0 {
			return "experience-gap narrative missing the 3-month or 6-12-month plan"
		}
	}

	return ""
}

// collectText flattens every narrative segment for phrase scanning.
func collectText(n types.Narrative) string {
	var b strings.Builder
	for _, s := range n.Strengths {
		b.WriteString(s.Capability)
		b.WriteString(" ")
		b.WriteString(s.Evidence)
		b.WriteString(" ")
	}
	for _, gap := range n.Gaps {
		b.WriteString(gap)
		b.WriteString(" ")
	}
	for _, section := range [][]string{n.ActionPlan.Immediate, n.ActionPlan.ThreeMonth, n.ActionPlan.SixToTwelveMonth} {
		for _, item := range section {
			b.WriteString(item)
			b.WriteString(" ")
		}
	}
	return b.String()
}

func accumulate(total, usage *ai.TokenUsage) *ai.TokenUsage {
	if usage == nil {
		return total
	}
	if total == nil {
		u := *usage
		return &u
	}
	total.InputTokens += usage.InputTokens
	total.OutputTokens += usage.OutputTokens
	total.TotalTokens += usage.TotalTokens
	return total
}
