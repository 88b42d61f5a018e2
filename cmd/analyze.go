// File: cmd/analyze.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/refine-cli/api/schemas"
	"github.com/xkilldash9x/refine-cli/internal/observability"
	"github.com/xkilldash9x/refine-cli/internal/orchestrator"
)

// newAnalyzeCmd creates the `analyze` command: gate plus complexity
// analysis, no rewriting.
func newAnalyzeCmd() *cobra.Command {
	var pretty bool

	analyzeCmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Checks and profiles Python code without modifying it",
		Long: `Analyze runs the safety gate and the complexity analysis on the given
file (or stdin) and prints the full pipeline result as JSON. The code is
never modified; original and optimized fields carry the same text.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(cmd, args)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			pipeline := orchestrator.New(appCfg, nil, observability.GetLogger())
			result := pipeline.Run(cmd.Context(), string(source), schemas.LevelNone)
			return emitResult(cmd, result, pretty)
		},
	}

	analyzeCmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return analyzeCmd
}

func init() {
	rootCmd.AddCommand(newAnalyzeCmd())
}
