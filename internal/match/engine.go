// internal/match/engine.go
package match

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/solatis/filtertree/internal/tree"
	"github.com/solatis/filtertree/internal/types"
)

// Engine previews trees against sample documents for the API.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a preview engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Preview compiles t once and evaluates it against each document in order.
// It stops at the first document that fails to decode or when ctx ends.
func (e *Engine) Preview(ctx context.Context, t tree.Tree, docs []types.Document) ([]MatchResult, error) {
	compiled, err := Compile(t)
	if err != nil {
		return nil, err
	}

	results := make([]MatchResult, 0, len(docs))
	matched := 0
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := Evaluate(compiled, doc)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		if res.Matched {
			matched++
		}
		results = append(results, res)
	}

	e.logger.Debug("preview evaluated",
		zap.Int("leaves", compiled.Leaves),
		zap.Int("documents", len(docs)),
		zap.Int("matched", matched))
	return results, nil
}
