package cli

import (
	"context"
	"fmt"

	"fitgauge/internal/ai"
	"fitgauge/internal/common"
	"fitgauge/internal/config"
	"fitgauge/internal/engine"
	"fitgauge/internal/session"
	"fitgauge/internal/types"

	"github.com/spf13/cobra"
)

var assessCmd = &cobra.Command{
	Use:   "assess [resume-file] [job-description-file]",
	Short: "Assess a resume's fit against a job description",
	Long: `Assess how well a resume fits a specific job description.
The command takes two arguments: the path to the resume file and the path to
the job description file. Both files should be in plain text format.

The assessment runs the full decision pipeline: validated signal extraction,
level classification, gap classification, terminal state resolution, and a
locked recommendation with a capped fit score. The coaching narrative is
generated last and can never change the decision.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if assessConfig.OutputFormat == "" {
			assessConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(assessConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAssess,
}

var assessConfig common.CommandConfig

var (
	assessRoleTitle   string
	assessCompany     string
	assessTargetLevel string
)

func init() {
	assessCmd.Flags().StringVarP(&assessConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	assessCmd.Flags().StringVar(&assessConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	assessCmd.Flags().StringVar(&assessRoleTitle, "role", "", "Target role title (inferred from the job description when omitted)")
	assessCmd.Flags().StringVar(&assessCompany, "company", "", "Company name, used only in the coaching narrative")
	assessCmd.Flags().StringVar(&assessTargetLevel, "level", "", "Target level: junior, mid, senior, staff, director, executive")

	// Add completion for format flag
	_ = assessCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAssess(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	aiService, err := ai.NewService(cfg.AI, logger)
	if err != nil {
		return fmt.Errorf("failed to create narrative provider: %w", err)
	}

	snapshots := config.NewSnapshotStore(cfg, logger)
	sessions := session.NewManager(snapshots, logger)
	eng := engine.New(sessions, aiService.Provider, nil, logger)

	createInput := func(contents []string) (types.AssessInput, error) {
		if len(contents) != 2 {
			return types.AssessInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return types.AssessInput{
			ResumeText:     contents[0],
			JobDescription: contents[1],
			Company:        assessCompany,
			RoleTitle:      assessRoleTitle,
			TargetLevel:    assessTargetLevel,
		}, nil
	}

	logDetails := func(input types.AssessInput, cfg common.CommandConfig) {
		logger.Info("Starting fit assessment",
			"resume_chars", len(input.ResumeText),
			"job_chars", len(input.JobDescription),
			"output_format", cfg.OutputFormat)
	}

	assessOperation := func(ctx context.Context, input types.AssessInput) (*types.AssessOutput, error) {
		return eng.Assess(ctx, input)
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		assessConfig,
		args,
		createInput,
		assessOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to assess resume: %w", err)
	}
	logger.Info("Fit assessment completed successfully")
	return nil
}
