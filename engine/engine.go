// Package engine 是编排层：验证请求、解析偏好、按场景装配 Pipeline、
// 缓存结果并回写曝光，是推荐系统对调用方的唯一入口。
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/feature"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
)

// Deps 是引擎的依赖集合，按接口注入，便于替换实现与测试。
type Deps struct {
	Vectors core.EmbeddingStore
	Catalog core.Catalog
	Prefs   core.PreferenceStore
	Ledger  core.InteractionLedger
	Orders  core.OrderStore

	// Cache 结果缓存，可为 nil（不缓存）
	Cache core.Store

	// Embedder search 场景的查询向量化，可为 nil
	Embedder core.Embedder

	// Scorer 重排模型，可为 nil（跳过重排）
	Scorer core.CrossScorer

	// Features 在线特征服务，可为 nil（跳过特征补充）
	Features core.FeatureService

	// FeatureNames 要补充的特征
	FeatureNames []string

	// Rules 业务规则保留条件（CEL 表达式）
	Rules []string

	Logger *zap.Logger
}

// Engine 是推荐引擎：每次请求动态装配场景 Pipeline 并执行。
type Engine struct {
	cfg  core.EngineConfig
	deps Deps

	// RecordImpressions 为 true 时把结果作为 recommendation_view 回写账本
	RecordImpressions bool

	logger *zap.Logger
	now    func() time.Time
}

// Request 是一次推荐请求的入参。
type Request struct {
	Scene          core.Scene
	UserID         string
	ProductID      string
	CartProductIDs []string
	Query          string

	// Limit 结果条数，0 表示取场景默认值
	Limit int

	// ExcludeIDs 额外的排除商品
	ExcludeIDs []string
}

// New 创建引擎实例。
func New(cfg core.EngineConfig, deps Deps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		now:    time.Now,
	}
}

// Recommend 执行一次推荐请求。
//
// 错误约定：
//   - 非法请求（未知场景、负 limit、缺少场景必需参数）返回 INVALID_REQUEST
//   - 候选池彻底为空（所有召回源无产出且兜底失败）返回 DATA_UNAVAILABLE
//   - 模型服务异常在内部降级，不向调用方暴露
func (e *Engine) Recommend(ctx context.Context, req *Request) (*core.Result, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	limit := e.cfg.LimitFor(req.Scene, req.Limit)
	requestID := uuid.NewString()

	// 结果缓存：分钟级 TTL，偏好更新后最多再存活一个 TTL
	cacheKey := e.cacheKey(req, limit)
	if cached := e.fromCache(ctx, cacheKey, requestID, req); cached != nil {
		e.logger.Debug("cache hit",
			zap.String("request_id", requestID),
			zap.String("key", cacheKey))
		return cached, nil
	}

	rctx := &core.RecommendContext{
		RequestID:      requestID,
		Scene:          req.Scene,
		UserID:         req.UserID,
		ProductID:      req.ProductID,
		CartProductIDs: req.CartProductIDs,
		Query:          req.Query,
		Limit:          limit,
		ExcludeIDs:     req.ExcludeIDs,
	}

	// 偏好读取一次后透传；冷启动（无偏好）不是错误
	if req.UserID != "" && e.deps.Prefs != nil {
		pv, err := e.deps.Prefs.GetPreference(ctx, req.UserID)
		switch {
		case err == nil:
			rctx.Preference = pv
		case core.IsNotFound(err):
			rctx.PutLabel("cold_start", utils.Label{Value: "true", Source: "engine"})
		default:
			// 偏好存储异常按冷启动降级，不中断请求
			e.logger.Warn("preference lookup failed, serving cold start",
				zap.String("request_id", requestID),
				zap.String("user_id", req.UserID),
				zap.Error(err))
		}
	}

	p := e.buildPipeline(req.Scene, limit)
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeDataUnavailable,
			"no candidates available for request "+requestID)
	}

	// 标注 1-based 位置，供归因回传
	for i, it := range items {
		it.Position = i + 1
	}

	result := &core.Result{
		RequestID:   requestID,
		Scene:       req.Scene,
		UserID:      req.UserID,
		GeneratedAt: e.now(),
		Items:       items,
	}

	e.toCache(ctx, cacheKey, result)

	if e.RecordImpressions {
		e.recordImpressions(ctx, result)
	}

	e.logger.Info("recommendation served",
		zap.String("request_id", requestID),
		zap.String("scene", string(req.Scene)),
		zap.String("user_id", req.UserID),
		zap.Int("items", len(items)))
	return result, nil
}

// RecordInteraction 追加一条行为记录（埋点入口），校验后落账本。
func (e *Engine) RecordInteraction(ctx context.Context, it *core.Interaction) error {
	if e.deps.Ledger == nil {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotSupported,
			"interaction ledger not configured")
	}
	if it == nil || it.UserID == "" {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidRequest,
			"interaction must carry a user id")
	}
	if !it.Kind.Valid() {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidRequest,
			"unknown interaction kind: "+string(it.Kind))
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = e.now()
	}
	return e.deps.Ledger.Record(ctx, it)
}

// validate 在任何检索之前拒绝非法请求。
func (e *Engine) validate(req *Request) error {
	if req == nil {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidRequest, "request is nil")
	}
	if !req.Scene.Valid() {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidRequest,
			"unknown scene: "+string(req.Scene))
	}
	if req.Limit < 0 {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidRequest,
			fmt.Sprintf("limit must be non-negative, got %d", req.Limit))
	}
	switch req.Scene {
	case core.SceneProduct, core.SceneFBT:
		if req.ProductID == "" {
			return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidRequest,
				string(req.Scene)+" scene requires a product id")
		}
	case core.SceneSearch:
		if req.Query == "" {
			return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidRequest,
				"search scene requires a query")
		}
	}
	return nil
}

// buildPipeline 按场景装配 Pipeline：召回 -> 特征补充 -> 融合排序 ->
// 交叉重排 -> 业务规则过滤 -> 多样性降位 -> TopN 截断。
func (e *Engine) buildPipeline(scene core.Scene, limit int) *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&recall.Fanout{
			Sources: e.sourcesFor(scene),
			Timeout: e.cfg.RecallTimeout,
			Logger:  e.logger,
		},
	}

	if e.deps.Features != nil && len(e.deps.FeatureNames) > 0 {
		nodes = append(nodes, &feature.EnrichNode{
			Features:     e.deps.Features,
			FeatureNames: e.deps.FeatureNames,
			Logger:       e.logger,
		})
	}

	nodes = append(nodes, &rank.HybridNode{
		Alpha: e.cfg.ContentWeight,
		Beta:  e.cfg.CollaborativeWeight,
		Gamma: e.cfg.PopularityWeight,
	})

	if e.deps.Scorer != nil {
		nodes = append(nodes, &rerank.CrossEncoderNode{
			Scorer:  e.deps.Scorer,
			Catalog: e.deps.Catalog,
			TopK:    e.cfg.RerankTopK,
			Timeout: e.cfg.RerankTimeout,
			Logger:  e.logger,
		})
	}

	filters := []filter.Filter{&filter.StockFilter{}}
	if len(e.deps.Rules) > 0 {
		filters = append(filters, &filter.RuleFilter{Expressions: e.deps.Rules})
	}
	nodes = append(nodes,
		&filter.Node{Filters: filters, Logger: e.logger},
		&filter.DiversityNode{MaxPerCategory: e.cfg.DiversityLimit},
		&rerank.TopNNode{N: limit},
	)

	return &pipeline.Pipeline{Nodes: nodes}
}

// sourcesFor 返回场景的召回源组合，声明顺序即合并优先级。
// 热度源在所有场景兜底，保证冷启动也有非空池。
func (e *Engine) sourcesFor(scene core.Scene) []recall.Source {
	content := &recall.ContentSource{
		Vectors:       e.deps.Vectors,
		Catalog:       e.deps.Catalog,
		Embedder:      e.deps.Embedder,
		TopK:          e.cfg.CandidatePool,
		CategoryBoost: 0.1,
	}
	collaborative := &recall.CollaborativeSource{
		Prefs:        e.deps.Prefs,
		Ledger:       e.deps.Ledger,
		Catalog:      e.deps.Catalog,
		SimilarUsers: e.cfg.SimilarUsers,
		TopK:         e.cfg.CandidatePool,
	}
	copurchase := &recall.CoPurchaseSource{
		Orders:  e.deps.Orders,
		Catalog: e.deps.Catalog,
		TopK:    e.cfg.CandidatePool,
	}
	popular := &recall.PopularSource{
		Store:   e.deps.Cache,
		Catalog: e.deps.Catalog,
		Key:     "popular:products",
		TopK:    e.cfg.CandidatePool,
	}

	switch scene {
	case core.SceneProduct:
		return []recall.Source{content, copurchase, popular}
	case core.SceneCart:
		return []recall.Source{content, copurchase, popular}
	case core.SceneFBT:
		return []recall.Source{copurchase, content, popular}
	case core.SceneSearch:
		return []recall.Source{content, popular}
	default: // homepage
		return []recall.Source{content, collaborative, popular}
	}
}

// cachedResult 是缓存中的结果线格式。
type cachedResult struct {
	RequestID   string       `json:"request_id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Entries     []core.Entry `json:"entries"`
}

// cacheKey 由请求的全部判别维度构成。
func (e *Engine) cacheKey(req *Request, limit int) string {
	return fmt.Sprintf("rec:%s:%s:%s:%s:%s:%d",
		req.Scene, req.UserID, req.ProductID,
		strings.Join(req.CartProductIDs, ","), req.Query, limit)
}

func (e *Engine) fromCache(ctx context.Context, key, requestID string, req *Request) *core.Result {
	if e.deps.Cache == nil {
		return nil
	}
	data, err := e.deps.Cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var cached cachedResult
	if json.Unmarshal(data, &cached) != nil || len(cached.Entries) == 0 {
		return nil
	}

	items := make([]*core.Candidate, 0, len(cached.Entries))
	for _, entry := range cached.Entries {
		var product *core.Product
		if e.deps.Catalog != nil {
			if p, err := e.deps.Catalog.GetProduct(ctx, entry.ProductID); err == nil {
				product = p
			}
		}
		c := core.NewCandidate(product)
		if c.ID == "" {
			c.ID = entry.ProductID
		}
		c.Score = entry.Score
		c.Position = entry.Position
		c.PutLabel("cache", utils.Label{Value: "hit", Source: "engine"})
		items = append(items, c)
	}

	return &core.Result{
		RequestID:   requestID,
		Scene:       req.Scene,
		UserID:      req.UserID,
		GeneratedAt: cached.GeneratedAt,
		Items:       items,
	}
}

func (e *Engine) toCache(ctx context.Context, key string, result *core.Result) {
	if e.deps.Cache == nil || e.cfg.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(cachedResult{
		RequestID:   result.RequestID,
		GeneratedAt: result.GeneratedAt,
		Entries:     result.Entries(),
	})
	if err != nil {
		return
	}
	ttl := int(e.cfg.CacheTTL / time.Second)
	if err := e.deps.Cache.Set(ctx, key, data, ttl); err != nil {
		e.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// recordImpressions 把本次结果作为 recommendation_view 回写账本（归因）。
func (e *Engine) recordImpressions(ctx context.Context, result *core.Result) {
	if e.deps.Ledger == nil || result.UserID == "" {
		return
	}
	now := e.now()
	for _, it := range result.Items {
		imp := &core.Interaction{
			UserID:    result.UserID,
			ProductID: it.ID,
			Kind:      core.InteractionRecommendationView,
			Context:   result.Scene,
			Position:  it.Position,
			RequestID: result.RequestID,
			CreatedAt: now,
		}
		if err := e.deps.Ledger.Record(ctx, imp); err != nil {
			e.logger.Warn("impression record failed",
				zap.String("request_id", result.RequestID),
				zap.String("product_id", it.ID),
				zap.Error(err))
		}
	}
}
