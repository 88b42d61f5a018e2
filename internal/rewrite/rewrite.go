// File: internal/rewrite/rewrite.go
package rewrite

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/refine-cli/internal/pysource"
)

// Rewriter applies the level-one rule set. Stateless; safe for
// concurrent use across requests.
type Rewriter struct {
	log *zap.Logger
}

// New creates a Rewriter.
func New(logger *zap.Logger) *Rewriter {
	return &Rewriter{log: logger.Named("rewrite")}
}

// Rewrite runs the rule passes over the source and returns the
// re-serialized text. It never fails: unparseable input, an internal
// panic, or output that no longer parses all fall back to returning the
// input verbatim.
func (r *Rewriter) Rewrite(ctx context.Context, source string) (out string) {
	out = source
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("rewrite pass panicked, returning input verbatim", zap.Any("panic", rec))
			out = source
		}
	}()

	tree, err := pysource.Parse(ctx, []byte(source))
	if err != nil {
		return source
	}
	defer tree.Close()
	if !tree.Valid() {
		// The gate should have rejected this already.
		return source
	}

	module := buildModule(tree)
	module = transformModule(module)
	module = removeDeadStores(module)
	rewritten := unparseModule(module)

	// Semantic safety net: only emit text that still parses.
	if !pysource.IsValid(ctx, []byte(rewritten)) {
		r.log.Warn("rewritten output failed to re-parse, returning input verbatim")
		return source
	}
	return rewritten
}
