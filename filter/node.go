package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Node 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该候选就会被过滤掉。
// 每个被剔除的候选都带原因落日志，保证结果可审计。
type Node struct {
	Filters []Filter
	Logger  *zap.Logger
}

func (n *Node) Name() string {
	return "filter.node"
}

func (n *Node) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *Node) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make([]*core.Candidate, 0, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}

		shouldFilter := false
		filterReason := ""

		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				logger.Warn("filter error",
					zap.String("filter", f.Name()),
					zap.String("product_id", item.ID),
					zap.Error(err))
				continue
			}
			if ok {
				shouldFilter = true
				filterReason = f.Name()
				break
			}
		}

		if shouldFilter {
			item.PutLabel("filtered", utils.Label{
				Value:  "true",
				Source: filterReason,
			})
			logger.Debug("candidate dropped",
				zap.String("request_id", rctx.RequestID),
				zap.String("product_id", item.ID),
				zap.String("reason", filterReason))
			continue
		}

		out = append(out, item)
	}

	return out, nil
}

var _ pipeline.Node = (*Node)(nil)
