// Package feature 提供候选池的实时特征补充节点。
package feature

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// EnrichNode 是特征补充节点：批量拉取候选商品的在线特征
// （近 7 日 CTR、趋势分等），写入 Candidate.Meta 供规则过滤与观测使用；
// trending_score 同时按 max-wins 并入热度信号。
//
// 特征服务失败属于增强降级：跳过补充，候选池原样透传。
type EnrichNode struct {
	Features core.FeatureService

	// FeatureNames 要拉取的特征，如 ["product_stats:ctr_7d", "product_stats:trending_score"]
	FeatureNames []string

	// TrendingFeature 并入热度信号的特征名，空值不并入
	TrendingFeature string

	// Timeout 特征服务调用超时
	Timeout time.Duration

	Logger *zap.Logger
}

func (n *EnrichNode) Name() string        { return "feature.enrich" }
func (n *EnrichNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *EnrichNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.Features == nil || len(n.FeatureNames) == 0 || len(items) == 0 {
		return items, nil
	}

	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it != nil && it.ID != "" {
			ids = append(ids, it.ID)
		}
	}

	fetchCtx := ctx
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	featureMap, err := n.Features.GetProductFeatures(fetchCtx, ids, n.FeatureNames)
	if err != nil {
		logger.Warn("feature service unavailable, skipping enrich",
			zap.String("request_id", rctx.RequestID),
			zap.Error(err))
		return items, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		values, ok := featureMap[it.ID]
		if !ok || len(values) == 0 {
			continue
		}
		if it.Meta == nil {
			it.Meta = make(map[string]any)
		}
		for name, v := range values {
			it.Meta[name] = v
		}
		if n.TrendingFeature != "" {
			if trending, ok := values[n.TrendingFeature]; ok {
				it.PutSignal(core.SignalPopularity, trending)
			}
		}
		it.PutLabel("enriched", utils.Label{Value: "feast", Source: "postprocess"})
	}

	return items, nil
}

var _ pipeline.Node = (*EnrichNode)(nil)
