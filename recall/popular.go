package recall

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// PopularSource 是全局热度召回源，也是冷启动兜底：
// 不依赖用户历史，任何请求都能产出非空池（只要目录非空）。
//
// 数据来源两级：
//   - Store 中的热度榜（ZSet，离线任务周期写入），优先使用
//   - 目录按 PopularityScore 降序兜底
type PopularSource struct {
	Store   core.Store // 可为 nil
	Catalog core.Catalog

	// Key 热度榜的 zset key，如 "popular:products"
	Key string

	// TopK 返回 TopK 个商品
	TopK int
}

func (r *PopularSource) Name() string { return "recall.popular" }

func (r *PopularSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if r.Catalog == nil {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 50
	}

	// 优先从热度榜读取
	if r.Store != nil && r.Key != "" {
		if kv, ok := r.Store.(core.KeyValueStore); ok {
			members, err := kv.ZRange(ctx, r.Key, 0, int64(topK+len(rctx.ExcludeIDs)))
			if err == nil && len(members) > 0 {
				return r.build(ctx, rctx, members, topK), nil
			}
		}
	}

	// 兜底：目录按热度分降序
	products, err := r.Catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].PopularityScore != products[j].PopularityScore {
			return products[i].PopularityScore > products[j].PopularityScore
		}
		return products[i].ID < products[j].ID
	})

	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	return r.build(ctx, rctx, ids, topK), nil
}

// build 将商品 ID 列表封装为携带热度信号的候选。
func (r *PopularSource) build(ctx context.Context, rctx *core.RecommendContext, ids []string, topK int) []*core.Candidate {
	out := make([]*core.Candidate, 0, topK)
	for _, id := range ids {
		if len(out) >= topK {
			break
		}
		if rctx != nil && rctx.Excluded(id) {
			continue
		}
		p, err := r.Catalog.GetProduct(ctx, id)
		if err != nil {
			continue
		}
		c := core.NewCandidate(p)
		c.PutSignal(core.SignalPopularity, p.PopularityScore)
		c.PutLabel("popularity", utils.Label{Value: "global", Source: "recall"})
		out = append(out, c)
	}
	return out
}

var _ Source = (*PopularSource)(nil)
