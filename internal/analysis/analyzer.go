// File: internal/analysis/analyzer.go

// Package analysis produces the structural profile of a Python
// submission: per-function complexity classes derived from one-pass
// signal extraction, plus Halstead, cyclomatic, LOC, and maintainability
// metrics at both function and file granularity.
package analysis

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/xkilldash9x/refine-cli/api/schemas"
	"github.com/xkilldash9x/refine-cli/internal/pysource"
)

// Analyzer computes FileReports. Stateless between calls and safe for
// concurrent use.
type Analyzer struct {
	log *zap.Logger
}

// New creates an Analyzer.
func New(logger *zap.Logger) *Analyzer {
	return &Analyzer{log: logger.Named("analysis")}
}

// Analyze parses the source and builds the full report. The source must
// already have cleared the gate; syntactically invalid input is an error.
func (a *Analyzer) Analyze(ctx context.Context, source string) (*schemas.FileReport, error) {
	tree, err := pysource.Parse(ctx, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("analysis parse: %w", err)
	}
	defer tree.Close()

	if errs := tree.SyntaxErrors(); len(errs) > 0 {
		return nil, fmt.Errorf("analysis rejected invalid source: %s", errs[0])
	}

	report := &schemas.FileReport{
		LOC:              countLOC(source),
		Halstead:         computeHalstead(tree, tree.Root()),
		Functions:        []schemas.FunctionReport{},
		BigODistribution: map[string]int{},
	}

	// Pre-order over every definition, nested ones included; each gets
	// its own scoped signal extraction.
	tree.Walk(func(node *sitter.Node, depth int) bool {
		if node.Type() != "function_definition" {
			return true
		}
		report.Functions = append(report.Functions, a.analyzeFunction(tree, node))
		return true
	})

	totalCC := 0
	for _, fn := range report.Functions {
		totalCC += fn.CyclomaticComplexity
		report.BigODistribution[fn.TimeComplexity]++
	}
	if totalCC < 1 {
		totalCC = 1
	}
	report.TotalCyclomaticComplexity = totalCC
	report.MaintainabilityIndex = maintainabilityIndex(report.Halstead.Volume, totalCC, report.LOC.Code)
	report.MILabel = miLabel(report.MaintainabilityIndex)

	a.log.Debug("analysis complete",
		zap.Int("functions", len(report.Functions)),
		zap.Int("total_cc", totalCC),
		zap.Float64("mi", report.MaintainabilityIndex))
	return report, nil
}

func (a *Analyzer) analyzeFunction(tree *pysource.Tree, node *sitter.Node) schemas.FunctionReport {
	name := "<anonymous>"
	if n := node.ChildByFieldName("name"); n != nil {
		name = tree.Content(n)
	}

	signals := extractSignals(tree, node)
	cc := cyclomaticComplexity(node)
	loc := countLOC(tree.Content(node))
	halstead := computeHalstead(tree, node)
	mi := maintainabilityIndex(halstead.Volume, cc, loc.Code)

	return schemas.FunctionReport{
		Name:                 name,
		Line:                 int(node.StartPoint().Row) + 1,
		TimeComplexity:       classifyTime(signals),
		SpaceComplexity:      classifySpace(signals),
		CyclomaticComplexity: cc,
		Signals:              signals,
		LOC:                  loc,
		Halstead:             halstead,
		MaintainabilityIndex: mi,
		MILabel:              miLabel(mi),
	}
}
