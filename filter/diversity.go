package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// DiversityNode 是类目多样性节点：单一类目超过上限的候选不删除，
// 而是整体降位到列表尾部（保持相对顺序）。
//
// 两段式输出：
//   - 前段：每类目至多 MaxPerCategory 个，按进入顺序保留
//   - 后段：超限候选，按进入顺序接在末尾
//
// 这样后续 TopN 截断时优先留多样化头部；头部不足 limit 时
// 自动被降位候选补齐，类目上限随之放宽，而不会产出短结果。
type DiversityNode struct {
	// MaxPerCategory 单一类目在头部的最大条数，<=0 时取 3
	MaxPerCategory int
}

func (n *DiversityNode) Name() string {
	return "filter.diversity"
}

func (n *DiversityNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *DiversityNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(items) == 0 {
		return items, nil
	}

	limit := n.MaxPerCategory
	if limit <= 0 {
		limit = 3
	}

	counts := make(map[string]int, 16)
	kept := make([]*core.Candidate, 0, len(items))
	demoted := make([]*core.Candidate, 0)

	for _, it := range items {
		if it == nil {
			continue
		}
		category := it.Product.CategoryOrUnknown()
		if counts[category] >= limit {
			it.PutLabel("diversity", utils.Label{Value: "demoted", Source: "filter"})
			demoted = append(demoted, it)
			continue
		}
		counts[category]++
		kept = append(kept, it)
	}

	return append(kept, demoted...), nil
}

var _ pipeline.Node = (*DiversityNode)(nil)
