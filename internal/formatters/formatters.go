package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"fitgauge/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AssessOutput", &AssessTextFormatter{})
	registry.RegisterFormatter("markdown", "AssessOutput", &AssessMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AssessOutput, *types.AssessOutput:
		return "AssessOutput"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func assessOutput(data any) (types.AssessOutput, bool) {
	switch v := data.(type) {
	case types.AssessOutput:
		return v, true
	case *types.AssessOutput:
		return *v, true
	default:
		return types.AssessOutput{}, false
	}
}

// recommendationLabels render the closed decision set for humans.
var recommendationLabels = map[types.Recommendation]string{
	types.RecommendationApply:            "APPLY",
	types.RecommendationConditionalApply: "CONDITIONAL APPLY",
	types.RecommendationPass:             "PASS",
}

// AssessTextFormatter handles text formatting for assessment results
type AssessTextFormatter struct{}

func (atf *AssessTextFormatter) Format(data any) (string, error) {
	result, ok := assessOutput(data)
	if !ok {
		return "", fmt.Errorf("expected AssessOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== FIT ASSESSMENT ===\n\n")
	output.WriteString(fmt.Sprintf("Recommendation: %s\n", recommendationLabels[result.Recommendation]))
	output.WriteString(fmt.Sprintf("Fit Score: %d/100\n", result.FitScore))
	if result.GapCategory != types.GapNone {
		output.WriteString(fmt.Sprintf("Gap Category: %s\n", result.GapCategory))
	}
	if result.Redirect != "" {
		output.WriteString(fmt.Sprintf("Consider Instead: %s\n", result.Redirect))
	}
	output.WriteString("\n")

	if len(result.Narrative.Strengths) > 0 {
		output.WriteString("=== STRENGTHS ===\n\n")
		for i, strength := range result.Narrative.Strengths {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, strength.Capability))
			output.WriteString("   Evidence: ")
			output.WriteString(strength.Evidence)
			output.WriteString("\n\n")
		}
	}

	if len(result.Narrative.Gaps) > 0 {
		output.WriteString("=== GAPS ===\n\n")
		for _, gap := range result.Narrative.Gaps {
			output.WriteString(fmt.Sprintf("- %s\n", gap))
		}
		output.WriteString("\n")
	}

	writeActionPlanText(&output, result.Narrative.ActionPlan)

	return output.String(), nil
}

func writeActionPlanText(output *strings.Builder, plan types.ActionPlan) {
	if len(plan.Immediate) == 0 && len(plan.ThreeMonth) == 0 && len(plan.SixToTwelveMonth) == 0 {
		return
	}

	output.WriteString("=== YOUR MOVE ===\n\n")
	sections := []struct {
		title string
		items []string
	}{
		{"Now", plan.Immediate},
		{"Next 3 months", plan.ThreeMonth},
		{"6-12 months", plan.SixToTwelveMonth},
	}
	for _, section := range sections {
		if len(section.items) == 0 {
			continue
		}
		output.WriteString(section.title)
		output.WriteString(":\n")
		for _, item := range section.items {
			output.WriteString(fmt.Sprintf("- %s\n", item))
		}
		output.WriteString("\n")
	}
}

func (atf *AssessTextFormatter) SupportedType() string {
	return "AssessOutput"
}

// AssessMarkdownFormatter handles markdown formatting for assessment results
type AssessMarkdownFormatter struct{}

func (amf *AssessMarkdownFormatter) Format(data any) (string, error) {
	result, ok := assessOutput(data)
	if !ok {
		return "", fmt.Errorf("expected AssessOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Fit Assessment\n\n")
	output.WriteString(fmt.Sprintf("**Recommendation:** %s\n\n", recommendationLabels[result.Recommendation]))
	output.WriteString(fmt.Sprintf("**Fit Score:** %d/100\n\n", result.FitScore))
	if result.GapCategory != types.GapNone {
		output.WriteString(fmt.Sprintf("**Gap Category:** %s\n\n", result.GapCategory))
	}
	if result.Redirect != "" {
		output.WriteString(fmt.Sprintf("**Consider Instead:** %s\n\n", result.Redirect))
	}

	if len(result.Narrative.Strengths) > 0 {
		output.WriteString("## Strengths\n\n")
		for i, strength := range result.Narrative.Strengths {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, strength.Capability))
			output.WriteString("**Evidence:** ")
			output.WriteString(strength.Evidence)
			output.WriteString("\n\n")
		}
	}

	if len(result.Narrative.Gaps) > 0 {
		output.WriteString("## Gaps\n\n")
		for _, gap := range result.Narrative.Gaps {
			output.WriteString(fmt.Sprintf("- %s\n", gap))
		}
		output.WriteString("\n")
	}

	plan := result.Narrative.ActionPlan
	if len(plan.Immediate) > 0 || len(plan.ThreeMonth) > 0 || len(plan.SixToTwelveMonth) > 0 {
		output.WriteString("## Your Move\n\n")
		sections := []struct {
			title string
			items []string
		}{
			{"Now", plan.Immediate},
			{"Next 3 Months", plan.ThreeMonth},
			{"6-12 Months", plan.SixToTwelveMonth},
		}
		for _, section := range sections {
			if len(section.items) == 0 {
				continue
			}
			output.WriteString(fmt.Sprintf("### %s\n", section.title))
			for _, item := range section.items {
				output.WriteString(fmt.Sprintf("- %s\n", item))
			}
			output.WriteString("\n")
		}
	}

	return output.String(), nil
}

func (amf *AssessMarkdownFormatter) SupportedType() string {
	return "AssessOutput"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
