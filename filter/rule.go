package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// RuleFilter 是表达式驱动的业务规则过滤器，规则用 CEL 表达"保留条件"：
// 任一表达式求值为 false 的候选被剔除。
//
// 示例规则：
//   - `product.category != "Gift Cards"`
//   - `product.price_cents < 100000 || rctx.scene == "product"`
//   - `label.recall_source != null`
type RuleFilter struct {
	// Expressions 保留条件列表，全部为 true 才保留
	Expressions []string
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Candidate,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if len(f.Expressions) == 0 {
		return false, nil
	}

	eval := dsl.NewEval(item, rctx)
	for _, expr := range f.Expressions {
		keep, err := eval.Evaluate(expr)
		if err != nil {
			return false, err
		}
		if !keep {
			return true, nil
		}
	}
	return false, nil
}

var _ Filter = (*RuleFilter)(nil)
