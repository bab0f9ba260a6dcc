package core

import "github.com/rushteam/shoprec/pkg/utils"

// Scene 是推荐请求场景。
type Scene string

const (
	SceneHomepage Scene = "homepage"
	SceneProduct  Scene = "product"
	SceneCart     Scene = "cart"
	SceneSearch   Scene = "search"
	SceneFBT      Scene = "frequently_bought_together"
)

// Valid 判断场景是否为已知枚举值。
func (s Scene) Valid() bool {
	switch s {
	case SceneHomepage, SceneProduct, SceneCart, SceneSearch, SceneFBT:
		return true
	}
	return false
}

// RecommendContext 承载一次推荐请求的全部上下文，贯穿整个 Pipeline 透传。
// Pipeline 内只读：同一请求内不修改共享的商品/偏好数据。
type RecommendContext struct {
	RequestID string
	Scene     Scene
	UserID    string

	// ProductID 商品页 / 共购场景的种子商品
	ProductID string

	// CartProductIDs 购物车场景的商品集合
	CartProductIDs []string

	// Query 搜索场景的原始查询串
	Query string

	// Limit 调用方请求的结果条数
	Limit int

	// Preference 请求期解析出的用户偏好（可为 nil：冷启动），
	// 由 Orchestrator 读取一次后透传，避免各 Node 重复查询。
	Preference *PreferenceVector

	// ExcludeIDs 不允许出现在结果中的商品（种子商品、购物车已有商品）
	ExcludeIDs []string

	// Labels 请求级标签，可驱动 Pipeline 行为（新用户、降级中等）
	Labels map[string]utils.Label

	// Params 请求级扩展参数
	Params map[string]any
}

// Excluded 判断商品是否在排除集中。
func (rctx *RecommendContext) Excluded(productID string) bool {
	if rctx == nil {
		return false
	}
	if productID == rctx.ProductID && rctx.ProductID != "" {
		return true
	}
	for _, id := range rctx.CartProductIDs {
		if id == productID {
			return true
		}
	}
	for _, id := range rctx.ExcludeIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
