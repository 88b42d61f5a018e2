// File: cmd/optimize.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/refine-cli/api/schemas"
	"github.com/xkilldash9x/refine-cli/internal/aggregate"
	"github.com/xkilldash9x/refine-cli/internal/config"
	"github.com/xkilldash9x/refine-cli/internal/llmclient"
	"github.com/xkilldash9x/refine-cli/internal/observability"
	"github.com/xkilldash9x/refine-cli/internal/orchestrator"
)

// newOptimizeCmd creates the `optimize` command.
func newOptimizeCmd() *cobra.Command {
	var (
		level  int
		pretty bool
	)

	optimizeCmd := &cobra.Command{
		Use:   "optimize [file]",
		Short: "Optimizes Python code with rule-based or generative rewrites",
		Long: `Optimize runs the full pipeline on the given file (or stdin). Level 1
applies deterministic rewrite rules locally; level 2 fans the code out to
the configured generative backends and keeps the best-scoring rewrite.
The result, including before/after analysis, is printed as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			optLevel, err := parseLevel(level)
			if err != nil {
				return err
			}

			source, err := readSource(cmd, args)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			logger := observability.GetLogger()
			var optimizer orchestrator.Optimizer
			if optLevel == schemas.LevelTwo {
				backends, err := buildBackends(appCfg.Optimizer, logger)
				if err != nil {
					return err
				}
				if len(backends) > 0 {
					agg := aggregate.New(appCfg.Optimizer, backends, logger)
					defer func() {
						if err := agg.Close(); err != nil {
							logger.Warn("failed to close backends", zap.Error(err))
						}
					}()
					optimizer = agg
				}
			}

			pipeline := orchestrator.New(appCfg, optimizer, logger)
			result := pipeline.Run(cmd.Context(), string(source), optLevel)
			return emitResult(cmd, result, pretty)
		},
	}

	optimizeCmd.Flags().IntVarP(&level, "level", "l", 1, "optimization level: 1 (rule-based) or 2 (generative)")
	optimizeCmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return optimizeCmd
}

func parseLevel(level int) (schemas.OptimizationLevel, error) {
	switch level {
	case 0:
		return schemas.LevelNone, nil
	case 1:
		return schemas.LevelOne, nil
	case 2:
		return schemas.LevelTwo, nil
	default:
		return "", fmt.Errorf("invalid optimization level %d (expected 0, 1 or 2)", level)
	}
}

// buildBackends constructs one client per configured backend. A single
// bad entry fails the whole command; partially configured fan-out would
// silently skew the aggregation.
func buildBackends(cfg config.OptimizerConfig, logger *zap.Logger) ([]aggregate.Backend, error) {
	backends := make([]aggregate.Backend, 0, len(cfg.Backends))
	for _, bc := range cfg.Backends {
		client, err := llmclient.NewClient(bc, logger)
		if err != nil {
			for _, b := range backends {
				_ = b.Client.Close()
			}
			return nil, fmt.Errorf("backend %s: %w", bc.ID, err)
		}
		name := bc.DisplayName
		if name == "" {
			name = bc.ID
		}
		backends = append(backends, aggregate.Backend{ID: bc.ID, DisplayName: name, Client: client})
	}
	return backends, nil
}

func init() {
	rootCmd.AddCommand(newOptimizeCmd())
}
