package recall

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// CollaborativeSource 是基于相似用户的协同召回源（u2u → u2i 工程拆分）。
//
// 核心思想："偏好相近的用户，喜欢相近的商品"。
//
// 算法流程：
//  1. 用目标用户的偏好向量在 PreferenceStore 中检索相似用户
//  2. 收集相似用户的正向行为（purchase / cart_add / wishlist_add）
//  3. 按 相似度 × 行为权重 加权累加，剔除目标用户已互动过的商品
//  4. 取 TopK
//
// 冷启动用户（无偏好向量）贡献空池，由热度召回兜底。
type CollaborativeSource struct {
	Prefs   core.PreferenceStore
	Ledger  core.InteractionLedger
	Catalog core.Catalog

	// SimilarUsers 考虑的相似用户数
	SimilarUsers int

	// TopK 最终返回的商品数
	TopK int

	// MinSimilarity 相似用户的最低余弦相似度
	MinSimilarity float64
}

func (r *CollaborativeSource) Name() string { return "recall.collaborative" }

func (r *CollaborativeSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if r.Prefs == nil || r.Ledger == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	if rctx.Preference == nil || len(rctx.Preference.Vector) == 0 {
		return nil, nil
	}

	k := r.SimilarUsers
	if k <= 0 {
		k = 10
	}

	// 多取一个：检索结果可能包含自己
	matches, err := r.Prefs.SimilarUsers(ctx, rctx.Preference.Vector, k+1)
	if err != nil {
		return nil, err
	}

	// 目标用户已互动过的商品不再推荐
	seen := make(map[string]bool)
	own, err := r.Ledger.ListByUser(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	for _, it := range own {
		if it.ProductID != "" && it.Kind.Positive() {
			seen[it.ProductID] = true
		}
	}

	scores := make(map[string]float64)
	for _, m := range matches {
		if m.ID == rctx.UserID {
			continue
		}
		if m.Similarity <= r.MinSimilarity {
			continue
		}

		history, err := r.Ledger.ListByUser(ctx, m.ID)
		if err != nil {
			continue
		}
		for _, it := range history {
			if it.ProductID == "" || !it.Kind.Positive() {
				continue
			}
			if seen[it.ProductID] || rctx.Excluded(it.ProductID) {
				continue
			}
			scores[it.ProductID] += m.Similarity * it.Kind.BaseWeight()
		}
	}

	if len(scores) == 0 {
		return nil, nil
	}

	type scored struct {
		id    string
		score float64
	}
	list := make([]scored, 0, len(scores))
	for id, s := range scores {
		list = append(list, scored{id: id, score: s})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		return list[i].id < list[j].id
	})

	topK := r.TopK
	if topK <= 0 {
		topK = 50
	}
	if len(list) > topK {
		list = list[:topK]
	}

	out := make([]*core.Candidate, 0, len(list))
	for _, s := range list {
		var product *core.Product
		if r.Catalog != nil {
			p, err := r.Catalog.GetProduct(ctx, s.id)
			if err != nil {
				continue
			}
			product = p
		}
		c := core.NewCandidate(product)
		if c.ID == "" {
			c.ID = s.id
		}
		c.PutSignal(core.SignalCollaborative, s.score)
		c.PutLabel("cf_kind", utils.Label{Value: "similar_users", Source: "recall"})
		out = append(out, c)
	}

	return out, nil
}

var _ Source = (*CollaborativeSource)(nil)
