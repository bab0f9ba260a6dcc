package recall

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// maxCartSeeds 购物车场景最多取前几个商品做共购扩展
const maxCartSeeds = 3

// CoPurchaseSource 是基于订单共现的协同召回源（i2i）。
//
// "买了这个的人还买了什么"：种子商品按场景解析
// （商品页/共购场景取种子商品，购物车场景取前 3 个购物车商品），
// 共现频次跨种子累加后作为协同信号。
type CoPurchaseSource struct {
	Orders  core.OrderStore
	Catalog core.Catalog

	// TopK 每个种子取的共购商品数
	TopK int
}

func (r *CoPurchaseSource) Name() string { return "recall.copurchase" }

func (r *CoPurchaseSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Candidate, error) {
	if r.Orders == nil || rctx == nil {
		return nil, nil
	}

	seeds := r.seeds(rctx)
	if len(seeds) == 0 {
		return nil, nil
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 20
	}

	scores := make(map[string]float64)
	for _, seed := range seeds {
		rows, err := r.Orders.CoPurchased(ctx, seed, topK)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if rctx.Excluded(row.ProductID) {
				continue
			}
			scores[row.ProductID] += float64(row.Frequency)
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
		c.PutLabel("cf_kind", utils.Label{Value: "copurchase", Source: "recall"})
		out = append(out, c)
	}

	return out, nil
}

// seeds 解析共购扩展的种子商品。
func (r *CoPurchaseSource) seeds(rctx *core.RecommendContext) []string {
	switch rctx.Scene {
	case core.SceneProduct, core.SceneFBT:
		if rctx.ProductID != "" {
			return []string{rctx.ProductID}
		}
	case core.SceneCart:
		if len(rctx.CartProductIDs) > maxCartSeeds {
			return rctx.CartProductIDs[:maxCartSeeds]
		}
		return rctx.CartProductIDs
	}
	return nil
}

var _ Source = (*CoPurchaseSource)(nil)
