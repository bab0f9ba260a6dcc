package rerank

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// CrossEncoderNode 是基于 query-document 成对模型的重排节点。
//
// 只对融合排序后的头部 TopK 做精排（成本控制），K 之后的候选保持融合序
// 接在重排段之后。重排只替换排序，不丢候选；融合分保留在
// Meta["fused_score"] 中可回溯。
//
// 降级约定：模型服务失败或超时时跳过重排，返回融合序，
// 请求打上 rerank=skipped 标签，不向上传播错误。
type CrossEncoderNode struct {
	Scorer  core.CrossScorer
	Catalog core.Catalog // 种子商品文本合成用，可为 nil

	// TopK 进入重排的候选数
	TopK int

	// Timeout 模型调用超时
	Timeout time.Duration

	Logger *zap.Logger
}

func (n *CrossEncoderNode) Name() string        { return "rerank.cross_encoder" }
func (n *CrossEncoderNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *CrossEncoderNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if n.Scorer == nil || len(items) == 0 {
		return items, nil
	}

	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	topK := n.TopK
	if topK <= 0 {
		topK = 20
	}
	if topK > len(items) {
		topK = len(items)
	}

	head := items[:topK]
	docs := make([]string, len(head))
	for i, it := range head {
		docs[i] = it.Product.Text()
	}

	query := n.synthesizeQuery(ctx, rctx)

	scoreCtx := ctx
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	scores, err := n.Scorer.ScorePairs(scoreCtx, query, docs)
	if err != nil || len(scores) != len(head) {
		logger.Warn("cross encoder unavailable, keeping fused order",
			zap.String("request_id", rctx.RequestID),
			zap.Error(err))
		rctx.PutLabel("rerank", utils.Label{Value: "skipped", Source: "rerank"})
		return items, nil
	}

	for i, it := range head {
		it.Score = scores[i]
		it.PutLabel("rerank_model", utils.Label{Value: "cross_encoder", Source: "rerank"})
	}

	// 只在重排段内重新排序，K 之后保持融合序
	sort.SliceStable(head, func(i, j int) bool {
		if head[i].Score != head[j].Score {
			return head[i].Score > head[j].Score
		}
		return head[i].ID < head[j].ID
	})

	return items, nil
}

// synthesizeQuery 按场景合成重排 query：
// 搜索用原始查询串，商品页/共购用种子商品文本，
// 其余场景用偏好类目拼接，兜底为场景名。
func (n *CrossEncoderNode) synthesizeQuery(ctx context.Context, rctx *core.RecommendContext) string {
	switch rctx.Scene {
	case core.SceneSearch:
		if rctx.Query != "" {
			return rctx.Query
		}
	case core.SceneProduct, core.SceneFBT:
		if rctx.ProductID != "" && n.Catalog != nil {
			if p, err := n.Catalog.GetProduct(ctx, rctx.ProductID); err == nil {
				return p.Text()
			}
		}
	}
	if rctx.Preference != nil && len(rctx.Preference.TopCategories) > 0 {
		return "Products in " + strings.Join(rctx.Preference.TopCategories, ", ")
	}
	return "Recommended products for " + string(rctx.Scene)
}

var _ pipeline.Node = (*CrossEncoderNode)(nil)
