// File: internal/aggregate/aggregate.go

// Package aggregate implements the level-two optimizer: fan out one
// generation call per configured backend, wait for every call to settle,
// then score, rank, and merge the candidates into a single outcome.
package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/refine-cli/api/schemas"
	"github.com/xkilldash9x/refine-cli/internal/config"
)

// Backend pairs one configured backend with its live client.
type Backend struct {
	ID          string
	DisplayName string
	Client      schemas.LLMClient
}

// candidate is one backend's settled response before ranking.
type candidate struct {
	displayName string
	hasCode     bool
	code        string
	changes     []string
	confidence  float64
	risk        schemas.RiskLabel
	err         error
	score       float64
	syntaxOK    bool
	latencyMS   int64
}

// Optimizer coordinates the multi-backend fan-out. The only shared state
// is the read-only configuration; safe for concurrent use.
type Optimizer struct {
	cfg      config.OptimizerConfig
	backends []Backend
	log      *zap.Logger
}

// New creates an Optimizer over the given backends.
func New(cfg config.OptimizerConfig, backends []Backend, logger *zap.Logger) *Optimizer {
	return &Optimizer{cfg: cfg, backends: backends, log: logger.Named("aggregate")}
}

// Close releases every backend client.
func (o *Optimizer) Close() error {
	var firstErr error
	for _, b := range o.backends {
		if err := b.Client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Optimize dispatches one generation per backend in parallel and joins
// on a full barrier: every call settles (success or failure) before
// scoring begins. A failing backend becomes a scored-out candidate, never
// an abort. No retries, no early exit.
func (o *Optimizer) Optimize(ctx context.Context, code string) *schemas.OptimizationOutcome {
	o.log.Info("fanning out to generative backends", zap.Int("backends", len(o.backends)))

	candidates := make([]candidate, len(o.backends))
	var g errgroup.Group
	for i, backend := range o.backends {
		i, backend := i, backend
		g.Go(func() error {
			candidates[i] = o.query(ctx, backend, code)
			return nil
		})
	}
	// Goroutines always return nil; Wait is purely the barrier.
	_ = g.Wait()

	return o.aggregate(candidates, code)
}

func (o *Optimizer) query(ctx context.Context, backend Backend, code string) candidate {
	start := time.Now()
	raw, err := backend.Client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   buildUserPrompt(code, backend.ID),
		Options: schemas.GenerationOptions{
			Temperature: o.cfg.Temperature,
			MaxTokens:   o.cfg.MaxTokens,
		},
	})
	latency := time.Since(start).Milliseconds()

	if err != nil {
		o.log.Warn("backend generation failed",
			zap.String("backend", backend.ID), zap.Error(err))
		return candidate{displayName: backend.DisplayName, err: err, latencyMS: latency}
	}

	c := parseResponse(raw)
	c.displayName = backend.DisplayName
	c.latencyMS = latency
	return c
}

// aggregate scores the settled candidates and assembles the outcome.
func (o *Optimizer) aggregate(candidates []candidate, original string) *schemas.OptimizationOutcome {
	var valid []*candidate
	for i := range candidates {
		if candidates[i].hasCode {
			valid = append(valid, &candidates[i])
		}
	}

	if len(valid) == 0 {
		reasons := make([]string, len(candidates))
		for i, c := range candidates {
			if c.err != nil {
				reasons[i] = c.err.Error()
			} else {
				reasons[i] = "unknown"
			}
		}
		return &schemas.OptimizationOutcome{
			Success:               false,
			OptimizedCode:         original,
			WinningModel:          "none",
			Risk:                  schemas.RiskHigh,
			ChangesApplied:        []string{},
			AdditionalSuggestions: []string{},
			RankedModels:          []schemas.RankedModel{},
			Error:                 fmt.Sprintf("All backends failed: %s", strings.Join(reasons, "; ")),
		}
	}

	for _, c := range valid {
		c.score = o.scoreCandidate(c, original)
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].score > valid[j].score })
	winner := valid[0]

	// Union of every candidate's change notes in first-seen rank order;
	// whatever the winner did not claim becomes the extra suggestions.
	var allChanges []string
	for _, c := range valid {
		for _, change := range c.changes {
			if !contains(allChanges, change) {
				allChanges = append(allChanges, change)
			}
		}
	}
	extra := []string{}
	for _, change := range allChanges {
		if !contains(winner.changes, change) {
			extra = append(extra, change)
		}
	}

	ranked := make([]schemas.RankedModel, len(valid))
	for i, c := range valid {
		ranked[i] = schemas.RankedModel{
			Model:      c.displayName,
			Score:      c.score,
			Confidence: c.confidence,
			Risk:       c.risk,
			SyntaxOK:   c.syntaxOK,
			LatencyMS:  c.latencyMS,
		}
		if c.err != nil {
			ranked[i].Error = c.err.Error()
		}
	}

	changes := winner.changes
	if changes == nil {
		changes = []string{}
	}
	return &schemas.OptimizationOutcome{
		Success:               winner.syntaxOK,
		OptimizedCode:         winner.code,
		WinningModel:          winner.displayName,
		Score:                 winner.score,
		Confidence:            winner.confidence,
		Risk:                  winner.risk,
		ChangesApplied:        changes,
		AdditionalSuggestions: extra,
		SyntaxValid:           winner.syntaxOK,
		RankedModels:          ranked,
	}
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
