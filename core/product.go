package core

import (
	"context"
	"time"
)

// Product 是候选集中的商品主体：目录元信息 + 热度分。
// 内容向量不直接挂在结构上，而是存放在 EmbeddingStore 中按 ID 检索，
// 商品内容变更后需要重新 embedding（见 EmbeddingStore）。
type Product struct {
	ID         string
	Name       string
	Category   string // 单一类目标签，空值按 "Unknown" 处理
	PriceCents int64
	Stock      int
	IsActive   bool

	// PopularityScore 全局热度分（0-1，离线周期更新）
	PopularityScore float64

	CreatedAt          time.Time
	EmbeddingUpdatedAt time.Time
}

// InStock 判断商品是否有库存。
func (p *Product) InStock() bool {
	return p != nil && p.Stock > 0
}

// CategoryOrUnknown 返回类目，空类目统一归入 "Unknown"。
func (p *Product) CategoryOrUnknown() string {
	if p == nil || p.Category == "" {
		return "Unknown"
	}
	return p.Category
}

// PriceBand 返回价格档位描述，用于文本化（embedding / rerank 文档合成）。
// 档位阈值：<25 / <100 / <500 / 其余（单位：主货币）。
func (p *Product) PriceBand() string {
	if p == nil || p.PriceCents <= 0 {
		return ""
	}
	price := float64(p.PriceCents) / 100
	switch {
	case price < 25:
		return "Budget friendly"
	case price < 100:
		return "Mid-range"
	case price < 500:
		return "Premium"
	default:
		return "Luxury"
	}
}

// Text 将商品合成为一段文本："名称 | Category: 类目 | 价格档位"。
// 同时用于 Embedder 的输入与 CrossScorer 的 document 侧。
func (p *Product) Text() string {
	if p == nil {
		return ""
	}
	text := p.Name
	if c := p.CategoryOrUnknown(); c != "" {
		text += " | Category: " + c
	}
	if band := p.PriceBand(); band != "" {
		text += " | " + band
	}
	return text
}

// Catalog 是商品目录的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 引擎不拥有目录的 source-of-truth，只消费只读视图
type Catalog interface {
	// GetProduct 按 ID 获取商品；不存在时返回 NOT_FOUND
	GetProduct(ctx context.Context, id string) (*Product, error)

	// ListProducts 获取所有在售商品（用于热度兜底与小规模全量检索）
	ListProducts(ctx context.Context) ([]*Product, error)
}
