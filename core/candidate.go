package core

import "github.com/rushteam/shoprec/pkg/utils"

// 候选分量信号名。缺失的分量按 0 参与融合，不做惩罚。
const (
	SignalContent       = "content"       // 内容相似度（余弦，0-1）
	SignalCollaborative = "collaborative" // 协同信号（相似用户 / 共购）
	SignalPopularity    = "popularity"    // 全局热度（0-1）
)

// Candidate 是推荐链路中的统一承载结构：商品引用、分量信号、融合分、标签。
// 仅在单次请求内存在，不落盘。Labels 用于解释与策略驱动；Score 用于排序决策。
type Candidate struct {
	ID      string
	Product *Product

	// Score 当前排序分：融合阶段写入混合分，重排阶段被 rerank 分覆盖
	Score float64

	// Position 最终结果中的 1-based 位置（业务规则阶段之后才有意义）
	Position int

	// Signals 各召回源写入的分量信号（归一化前的原始值）
	Signals map[string]float64

	Meta   map[string]any
	Labels map[string]utils.Label
}

func NewCandidate(p *Product) *Candidate {
	c := &Candidate{
		Product: p,
		Signals: make(map[string]float64),
		Meta:    make(map[string]any),
		Labels:  make(map[string]utils.Label),
	}
	if p != nil {
		c.ID = p.ID
	}
	return c
}

// PutSignal 写入分量信号；同名信号已存在时取较大值（max-wins），
// 保证同一商品被多个召回源命中时不会凭空放大热度。
func (c *Candidate) PutSignal(name string, value float64) {
	if c.Signals == nil {
		c.Signals = make(map[string]float64)
	}
	if old, ok := c.Signals[name]; ok && old >= value {
		return
	}
	c.Signals[name] = value
}

// Signal 读取分量信号，缺失时返回 0。
func (c *Candidate) Signal(name string) float64 {
	if c.Signals == nil {
		return 0
	}
	return c.Signals[name]
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// Merge 将另一个同 ID 候选的信号与标签并入当前候选：
// 信号 max-wins，商品引用 first-seen 保留。
func (c *Candidate) Merge(other *Candidate) {
	if other == nil {
		return
	}
	for name, v := range other.Signals {
		c.PutSignal(name, v)
	}
	for k, v := range other.Labels {
		c.PutLabel(k, v)
	}
	if c.Product == nil {
		c.Product = other.Product
	}
}
