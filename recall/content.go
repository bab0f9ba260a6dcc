package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// ContentSource 是基于内容向量的召回源。
//
// 核心思想："用户喜欢具有某些内容特征的商品，推荐内容相近的其他商品"。
// 查询向量按场景解析：
//   - product / frequently_bought_together：种子商品的向量
//   - cart：购物车商品向量的均值（质心）
//   - search：查询串经 Embedder 实时编码
//   - 其余场景：用户偏好向量（冷启动用户无偏好时贡献空池）
type ContentSource struct {
	Vectors  core.EmbeddingStore
	Catalog  core.Catalog
	Embedder core.Embedder // search 场景使用，可为 nil

	// TopK 返回 TopK 个商品
	TopK int

	// CategoryBoost search 场景下偏好类目的加成比例（如 0.1 表示 +10%）
	CategoryBoost float64
}

func (r *ContentSource) Name() string { return "recall.content" }

func (r *ContentSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if r.Vectors == nil || rctx == nil {
		return nil, nil
	}

	query, err := r.queryVector(ctx, rctx)
	if err != nil {
		return nil, err
	}
	if query == nil {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 50
	}

	// 多取一些，排除种子/购物车商品后仍能填满池
	k := topK + len(rctx.CartProductIDs) + len(rctx.ExcludeIDs) + 1
	matches, err := r.Vectors.Similar(ctx, query, k)
	if err != nil {
		return nil, err
	}

	preferred := make(map[string]bool)
	if rctx.Scene == core.SceneSearch && rctx.Preference != nil {
		for _, c := range rctx.Preference.TopCategories {
			preferred[c] = true
		}
	}

	out := make([]*core.Candidate, 0, topK)
	for _, m := range matches {
		if len(out) >= topK {
			break
		}
		if rctx.Excluded(m.ID) {
			continue
		}
		if m.Similarity <= 0 {
			continue
		}

		var product *core.Product
		if r.Catalog != nil {
			p, err := r.Catalog.GetProduct(ctx, m.ID)
			if err != nil {
				// 向量存在但目录缺失：下架残留，跳过
				continue
			}
			product = p
		}

		sim := m.Similarity
		if r.CategoryBoost > 0 && product != nil && preferred[product.CategoryOrUnknown()] {
			sim *= 1 + r.CategoryBoost
		}

		c := core.NewCandidate(product)
		if c.ID == "" {
			c.ID = m.ID
		}
		c.PutSignal(core.SignalContent, sim)
		c.PutLabel("content_similarity", utils.Label{Value: "cosine", Source: "recall"})
		out = append(out, c)
	}

	return out, nil
}

// queryVector 按场景解析内容查询向量，无可用向量时返回 (nil, nil)。
func (r *ContentSource) queryVector(ctx context.Context, rctx *core.RecommendContext) ([]float64, error) {
	switch rctx.Scene {
	case core.SceneProduct, core.SceneFBT:
		if rctx.ProductID == "" {
			break
		}
		v, err := r.Vectors.GetVector(ctx, rctx.ProductID)
		if err != nil {
			if core.IsNotFound(err) {
				break
			}
			return nil, err
		}
		return v, nil

	case core.SceneCart:
		if len(rctx.CartProductIDs) == 0 {
			break
		}
		return r.centroid(ctx, rctx.CartProductIDs)

	case core.SceneSearch:
		if rctx.Query == "" || r.Embedder == nil {
			break
		}
		v, err := r.Embedder.Embed(ctx, rctx.Query)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeUpstreamModelFailure,
				"embed query: "+err.Error())
		}
		return v, nil
	}

	// 兜底：用户偏好向量
	if rctx.Preference != nil && len(rctx.Preference.Vector) > 0 {
		return rctx.Preference.Vector, nil
	}
	return nil, nil
}

// centroid 计算一组商品向量的均值；全部缺失时返回 (nil, nil)。
func (r *ContentSource) centroid(ctx context.Context, productIDs []string) ([]float64, error) {
	var sum []float64
	var n int
	for _, id := range productIDs {
		v, err := r.Vectors.GetVector(ctx, id)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if sum == nil {
			sum = make([]float64, len(v))
		}
		for i := range v {
			sum[i] += v[i]
		}
		n++
	}
	if n == 0 {
		return nil, nil
	}
	for i := range sum {
		sum[i] /= float64(n)
	}
	return sum, nil
}

var _ Source = (*ContentSource)(nil)
