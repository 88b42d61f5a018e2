// File: internal/aggregate/score.go
package aggregate

import (
	"context"
	"math"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/xkilldash9x/refine-cli/api/schemas"
	"github.com/xkilldash9x/refine-cli/internal/pysource"
)

func validPython(code string) bool {
	return pysource.IsValid(context.Background(), []byte(code))
}

// riskPenalties translate the self-reported risk label into a scoring
// penalty; an unrecognized label costs the same as medium.
var riskPenalties = map[schemas.RiskLabel]float64{
	schemas.RiskLow:    0.00,
	schemas.RiskMedium: 0.10,
	schemas.RiskHigh:   0.30,
}

// scoreCandidate computes the composite score. Syntactically broken code
// is a hard gate: score 0, marked invalid, can never win on ties either
// since every viable candidate scores above 0.
func (o *Optimizer) scoreCandidate(c *candidate, original string) float64 {
	if !c.hasCode {
		return 0
	}
	if !validPython(c.code) {
		c.syntaxOK = false
		return 0
	}
	c.syntaxOK = true

	sim := similarityRatio(original, c.code)
	return o.composite(c.confidence, sim, c.risk)
}

// composite applies the weighted score formula to the three signals.
func (o *Optimizer) composite(confidence, sim float64, risk schemas.RiskLabel) float64 {
	// Peaked similarity: both a near-identical response (wasted call) and
	// a total rewrite (risky) score low; the maximum sits at the target.
	simScore := math.Max(0, 1-math.Abs(sim-o.cfg.SimilarityTarget)*2.5)
	penalty, ok := riskPenalties[risk]
	if !ok {
		penalty = riskPenalties[schemas.RiskMedium]
	}

	raw := confidence*o.cfg.WeightConfidence +
		simScore*o.cfg.WeightSimilarity -
		penalty*o.cfg.WeightRisk
	return round4(math.Max(0, raw))
}

// similarityRatio is a character-level similarity in [0,1]: one minus
// the normalized Levenshtein distance between the two texts.
func similarityRatio(original, candidate string) float64 {
	if original == candidate {
		return 1
	}
	longest := len(original)
	if len(candidate) > longest {
		longest = len(candidate)
	}
	if longest == 0 {
		return 1
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, candidate, false)
	distance := dmp.DiffLevenshtein(diffs)
	return 1 - float64(distance)/float64(longest)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
