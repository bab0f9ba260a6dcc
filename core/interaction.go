package core

import (
	"context"
	"time"
)

// InteractionKind 是行为类型枚举。
type InteractionKind string

const (
	InteractionView                InteractionKind = "view"
	InteractionCartAdd             InteractionKind = "cart_add"
	InteractionCartRemove          InteractionKind = "cart_remove"
	InteractionPurchase            InteractionKind = "purchase"
	InteractionWishlistAdd         InteractionKind = "wishlist_add"
	InteractionSearch              InteractionKind = "search"
	InteractionRecommendationClick InteractionKind = "recommendation_click"
	InteractionRecommendationView  InteractionKind = "recommendation_view"
)

// baseWeights 是偏好聚合使用的基础权重表。
// search 对向量贡献为 0，但保留记录用于意图/类目分析。
var baseWeights = map[InteractionKind]float64{
	InteractionPurchase:            5.0,
	InteractionCartAdd:             3.0,
	InteractionWishlistAdd:         2.0,
	InteractionRecommendationClick: 1.5,
	InteractionView:                1.0,
	InteractionRecommendationView:  0.5,
	InteractionCartRemove:          -1.0,
	InteractionSearch:              0,
}

// BaseWeight 返回该行为类型的基础权重；未知类型按 view 计。
func (k InteractionKind) BaseWeight() float64 {
	if w, ok := baseWeights[k]; ok {
		return w
	}
	return 1.0
}

// Valid 判断行为类型是否为已知枚举值。
func (k InteractionKind) Valid() bool {
	_, ok := baseWeights[k]
	return ok
}

// Positive 判断该行为是否为正向信号（协同召回只聚合正向行为）。
func (k InteractionKind) Positive() bool {
	switch k {
	case InteractionPurchase, InteractionCartAdd, InteractionWishlistAdd:
		return true
	}
	return false
}

// Interaction 是用户行为事件，append-only：写入后不再修改或删除，
// 是个性化的唯一事实来源。
type Interaction struct {
	ID        string
	UserID    string
	ProductID string // search 等行为可为空
	Kind      InteractionKind

	// Query 搜索行为的原始查询串
	Query string

	// 推荐归因：由调用方在埋点时回传（request_id 关联）
	Context   Scene
	Position  int // 1-based，0 表示无归因
	RequestID string

	SessionID string

	// Metrics 可选互动指标：time_on_page / session_duration / scroll_depth 等
	Metrics map[string]float64

	CreatedAt time.Time
}

// InteractionLedger 是行为账本的领域接口（append-only）。
//
// 实现：
//   - store.MemoryLedger 实现此接口
//   - 其他存储后端（Redis Stream、数据库）也可以实现此接口
type InteractionLedger interface {
	// Record 追加一条行为记录
	Record(ctx context.Context, it *Interaction) error

	// ListByUser 获取用户的全部行为，按时间升序
	ListByUser(ctx context.Context, userID string) ([]*Interaction, error)
}

// CoPurchase 是一条共购统计：co-occurrence 频次。
type CoPurchase struct {
	ProductID string
	Frequency int
}

// OrderStore 提供订单侧的共购数据（同单/同购物车共现计数）。
type OrderStore interface {
	// CoPurchased 返回与给定商品共同出现在已完成订单中的商品，按频次降序
	CoPurchased(ctx context.Context, productID string, limit int) ([]CoPurchase, error)
}
