package cli

import (
	"fmt"
	"sort"

	"fitgauge/internal/config"

	"github.com/spf13/cobra"
)

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "Show the active scoring frameworks configuration",
	Long: `Show the scoring frameworks configuration the decision pipeline would use:
leveling thresholds, signal weights, keyword-stuffing limits, and the penalty
table with its (role, level) overrides.

When a frameworks file is configured, the printed values reflect the merge of
that file over the built-in defaults.`,
	RunE: runFrameworks,
}

func runFrameworks(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	snapshot := config.NewSnapshotStore(cfg, logger).Current()
	scoring := snapshot.Scoring

	fmt.Printf("Scoring configuration (snapshot version %d)\n", snapshot.Version)
	if scoring.FrameworksFile != "" {
		fmt.Printf("Frameworks file: %s (hot reload available in serve mode)\n", scoring.FrameworksFile)
	} else {
		fmt.Println("Frameworks file: none (built-in defaults)")
	}

	fmt.Println("\nLeveling thresholds (validated signals required):")
	for _, level := range sortedKeys(scoring.Frameworks.MinSignals) {
		fmt.Printf("  %-10s %d\n", level, scoring.Frameworks.MinSignals[level])
	}

	fmt.Println("\nSignal weights:")
	fmt.Printf("  %-16s %d\n", "scope", scoring.Weights.Scope)
	fmt.Printf("  %-16s %d\n", "leadership", scoring.Weights.Leadership)
	fmt.Printf("  %-16s %d\n", "technicalDepth", scoring.Weights.TechnicalDepth)
	fmt.Printf("  %-16s %d\n", "title", scoring.Weights.Title)

	fmt.Println("\nKeyword stuffing limits:")
	fmt.Printf("  count threshold:   %d\n", scoring.Keyword.CountThreshold)
	fmt.Printf("  density threshold: %.2f\n", scoring.Keyword.DensityThreshold)

	fmt.Println("\nPenalty defaults (points deducted per gap category):")
	for _, category := range sortedKeys(scoring.Penalties.Defaults) {
		fmt.Printf("  %-20s %d\n", category, scoring.Penalties.Defaults[category])
	}

	if len(scoring.Penalties.Overrides) > 0 {
		fmt.Println("\nPenalty overrides (most specific match wins):")
		for _, o := range scoring.Penalties.Overrides {
			role := o.Role
			if role == "" {
				role = "*"
			}
			level := o.Level
			if level == "" {
				level = "*"
			}
			fmt.Printf("  role=%-20s level=%-10s %-20s %d\n", role, level, o.Category, o.Points)
		}
	}

	if len(scoring.Taxonomy) > 0 {
		fmt.Println("\nRole taxonomy:")
		for _, family := range scoring.Taxonomy {
			fmt.Printf("  %-20s %v\n", family.Function, family.Keywords)
		}
	}

	fmt.Printf("\nNarrative regeneration limit: %d\n", scoring.Narrative.RegenerationLimit)
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
