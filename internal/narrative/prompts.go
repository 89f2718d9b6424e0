package narrative

import (
	"fmt"
	"strings"

	"fitgauge/internal/types"
)

// systemPrompt carries the non-negotiable generation rules. The per-session
// constraints (phrase sets, evidence) travel in the user prompt.
const systemPrompt = `You are a career coach producing a structured fit narrative for one candidate against one job description.

Rules you must never break:
1. JD-first evidence ordering. Strengths must cite, in order: (tier 1) a capability the job description requires, with explicit resume evidence; (tier 2) a capability adjacent to the job description with resume evidence. Generic leadership language (tier 3) is a last resort and is forbidden entirely when any tier 1 strength exists.
2. Every strength must quote or closely paraphrase actual resume evidence. Never invent accomplishments.
3. Sentences about sensitive topics (credibility, inflation, domain mismatch, eligibility) must use the required phrases verbatim. Do not soften or rephrase them.
4. Never use any forbidden phrase, or a close paraphrase of one.
5. Stay consistent with the stated recommendation and coaching mode. Do not argue with the decision or hint at a better outcome.`

var modeInstructions = map[types.CoachingMode]string{
	types.CoachRedirection:       "Coaching mode is redirection: point the candidate toward roles matching their demonstrated function. Do not encourage pursuing this specific role.",
	types.CoachCredibilityRepair: "Coaching mode is credibility repair: focus on aligning claims with evidence. Do not discuss optimization or presentation polish.",
	types.CoachSignalBuilding:    "Coaching mode is signal building: the action plan must include concrete steps under threeMonth and sixToTwelveMonth for closing the level gap.",
	types.CoachOptimization:      "Coaching mode is optimization: focus on sharpening how existing evidence is presented.",
}

// buildUserPrompt embeds the terminal state's phrase constraints, the locked
// recommendation, and the validated signals into the generation request.
func buildUserPrompt(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Binding recommendation: %s\n", in.Recommendation.Value)
	fmt.Fprintf(&b, "Gap category: %s\n", in.State.Category)
	fmt.Fprintf(&b, "%s\n\n", modeInstructions[in.State.Mode])

	if !in.FunctionOverlap {
		b.WriteString("No measurable overlap with the role's function was established. Never claim the candidate's experience translates or transfers to this role.\n\n")
	}

	if len(in.State.RequiredPhrases) > 0 {
		b.WriteString("Required phrases (each must appear verbatim in the gaps section):\n")
		for _, p := range in.State.RequiredPhrases {
			fmt.Fprintf(&b, "- %q\n", p)
		}
		b.WriteString("\n")
	}

	if len(in.State.ForbiddenPhrases) > 0 {
		b.WriteString("Forbidden phrases (never use these or close paraphrases):\n")
		for _, p := range in.State.ForbiddenPhrases {
			fmt.Fprintf(&b, "- %q\n", p)
		}
		b.WriteString("\n")
	}

	if in.Classification.Redirect != "" {
		fmt.Fprintf(&b, "Redirect suggestion to work into the action plan: %s\n\n", in.Classification.Redirect)
	}

	b.WriteString("Validated signals (the only evidence you may cite):\n")
	for _, s := range in.Signals {
		fmt.Fprintf(&b, "- [%s] %s (evidence: %s)\n", s.Type, s.Claim, s.Evidence)
	}
	b.WriteString("\n")

	if in.RoleTitle != "" {
		fmt.Fprintf(&b, "Role: %s", in.RoleTitle)
		if in.Company != "" {
			fmt.Fprintf(&b, " at %s", in.Company)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Job description:\n%s\n", in.JobDescription)

	return b.String()
}
