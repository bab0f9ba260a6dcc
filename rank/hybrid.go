package rank

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// HybridNode 是融合排序 Node：把候选池中的分量信号归一化后加权融合。
//
//	fused = α × content + β × collaborative + γ × popularity
//
// 约定：
//   - 每个信号先在当前池内做 max 归一化（最大值为 0 时整列为 0）
//   - 候选缺失的信号按 0 参与融合，不做额外惩罚
//   - 排序为稳定排序：分数降序，同分按 ID 升序，保证同池同序
//   - 融合分同时写入 Meta["fused_score"]，供重排阶段覆盖 Score 后仍可回溯
type HybridNode struct {
	Alpha float64 // content 权重
	Beta  float64 // collaborative 权重
	Gamma float64 // popularity 权重
}

func (n *HybridNode) Name() string        { return "rank.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *HybridNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(items) == 0 {
		return items, nil
	}
	if n.Alpha < 0 || n.Beta < 0 || n.Gamma < 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidRequest,
			"hybrid weights must be non-negative")
	}

	normContent := normalizeSignal(items, core.SignalContent)
	normCollab := normalizeSignal(items, core.SignalCollaborative)
	normPop := normalizeSignal(items, core.SignalPopularity)

	for i, it := range items {
		if it == nil {
			continue
		}
		fused := HybridScore(n.Alpha, n.Beta, n.Gamma, normContent[i], normCollab[i], normPop[i])
		it.Score = fused
		if it.Meta == nil {
			it.Meta = make(map[string]any)
		}
		it.Meta["fused_score"] = fused
		it.PutLabel("rank_model", utils.Label{Value: "hybrid", Source: "rank"})
	}

	SortByScore(items)
	return items, nil
}

// HybridScore 计算融合分，输入为归一化后的分量信号。
// 纯函数：同样输入恒产出同样输出。
func HybridScore(alpha, beta, gamma, content, collaborative, popularity float64) float64 {
	return alpha*content + beta*collaborative + gamma*popularity
}

// normalizeSignal 对池内单个信号做 max 归一化，返回与 items 等长的归一化值。
// 最大值 <= 0 时整列为 0（信号全体缺失不应凭空制造分数）。
func normalizeSignal(items []*core.Candidate, name string) []float64 {
	out := make([]float64, len(items))
	var max float64
	for _, it := range items {
		if it == nil {
			continue
		}
		if v := it.Signal(name); v > max {
			max = v
		}
	}
	if max <= 0 {
		return out
	}
	for i, it := range items {
		if it == nil {
			continue
		}
		out[i] = it.Signal(name) / max
	}
	return out
}

// SortByScore 稳定排序：分数降序，同分按 ID 升序。
func SortByScore(items []*core.Candidate) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

var _ pipeline.Node = (*HybridNode)(nil)
