// Package prefs 实现用户偏好聚合：把行为账本压缩为带时间衰减的偏好向量。
//
// 聚合是基于完整行为历史的全量重算（幂等）：同一账本状态重算任意次，
// 产出完全一致的偏好，不做增量修补，保证与账本始终一致。
package prefs

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/shoprec/core"
)

// Aggregator 把用户行为聚合为偏好向量及派生元信息。
//
// 单条行为的贡献权重：
//
//	weight = BaseWeight(kind) × exp(-age_days / DecayDays)
//
// 负向行为（cart_remove）只削弱、不反转：同一类目内负权重总量
// 超过正权重总量时，按比例缩小该类目的全部负权重，使类目净权重不为负。
type Aggregator struct {
	Ledger  core.InteractionLedger
	Vectors core.EmbeddingStore
	Catalog core.Catalog
	Prefs   core.PreferenceStore

	// DecayDays 时间衰减（天），<=0 时取 30
	DecayDays float64

	// LookbackDays 回看窗口（天），<=0 时取 90
	LookbackDays int

	// TopCategories 保留的类目数，<=0 时取 5
	TopCategories int

	// MinInteractions 批量刷新时构建偏好的最小行为数，<=0 时取 1
	MinInteractions int

	// Now 当前时间来源，便于测试注入；nil 时取 time.Now
	Now func() time.Time

	Logger *zap.Logger
}

// weighted 是一条参与聚合的行为及其衰减后权重。
type weighted struct {
	productID string
	category  string
	weight    float64
}

// RefreshUser 全量重算单个用户的偏好并原子写入。
// 无任何可聚合行为时返回 DATA_UNAVAILABLE，不写入空偏好。
func (a *Aggregator) RefreshUser(ctx context.Context, userID string) (*core.PreferenceVector, error) {
	if userID == "" {
		return nil, core.NewDomainError(core.ModulePrefs, core.ErrorCodeInvalidRequest,
			"user id is required")
	}

	logger := a.logger()

	history, err := a.Ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	pv, err := a.aggregate(ctx, userID, history)
	if err != nil {
		return nil, err
	}

	if err := a.Prefs.PutPreference(ctx, pv); err != nil {
		return nil, err
	}

	logger.Info("preference refreshed",
		zap.String("user_id", userID),
		zap.Int("interactions", pv.InteractionCount),
		zap.Float64("total_weight", pv.TotalWeight),
		zap.Strings("top_categories", pv.TopCategories))
	return pv, nil
}

// RefreshAll 批量刷新一组用户，行为数不足 MinInteractions 的用户跳过。
// 返回成功刷新的用户数。
func (a *Aggregator) RefreshAll(ctx context.Context, userIDs []string) (int, error) {
	logger := a.logger()

	minN := a.MinInteractions
	if minN <= 0 {
		minN = 1
	}

	refreshed := 0
	for _, userID := range userIDs {
		history, err := a.Ledger.ListByUser(ctx, userID)
		if err != nil {
			return refreshed, err
		}
		if len(history) < minN {
			logger.Debug("user skipped, not enough interactions",
				zap.String("user_id", userID),
				zap.Int("interactions", len(history)))
			continue
		}

		pv, err := a.aggregate(ctx, userID, history)
		if err != nil {
			if core.IsDataUnavailable(err) {
				logger.Debug("user skipped, no aggregatable interactions",
					zap.String("user_id", userID))
				continue
			}
			return refreshed, err
		}
		if err := a.Prefs.PutPreference(ctx, pv); err != nil {
			return refreshed, err
		}
		refreshed++
	}
	return refreshed, nil
}

// aggregate 是聚合的纯计算部分：行为 -> 偏好向量。
func (a *Aggregator) aggregate(ctx context.Context, userID string, history []*core.Interaction) (*core.PreferenceVector, error) {
	now := a.now()
	cutoff := now.AddDate(0, 0, -a.lookbackDays())

	// 1. 回看窗口内的行为按衰减加权
	entries := make([]weighted, 0, len(history))
	for _, it := range history {
		if it.ProductID == "" || it.CreatedAt.Before(cutoff) {
			continue
		}
		base := it.Kind.BaseWeight()
		if base == 0 {
			// search 等类型对向量贡献为 0
			continue
		}

		ageDays := now.Sub(it.CreatedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		w := base * math.Exp(-ageDays/a.decayDays())

		category := "Unknown"
		if a.Catalog != nil {
			if p, err := a.Catalog.GetProduct(ctx, it.ProductID); err == nil {
				category = p.CategoryOrUnknown()
			}
		}
		entries = append(entries, weighted{
			productID: it.ProductID,
			category:  category,
			weight:    w,
		})
	}

	if len(entries) == 0 {
		return nil, core.NewDomainError(core.ModulePrefs, core.ErrorCodeDataUnavailable,
			"no aggregatable interactions for user: "+userID)
	}

	// 2. 负权重裁剪：类目内负权重总量不得超过正权重总量
	clipNegatives(entries)

	// 3. 按商品合并权重，叠加商品向量
	productWeights := make(map[string]float64, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := productWeights[e.productID]; !ok {
			order = append(order, e.productID)
		}
		productWeights[e.productID] += e.weight
	}

	var sum []float64
	var totalWeight float64
	for _, productID := range order {
		w := productWeights[productID]
		if w <= 0 {
			continue
		}
		v, err := a.Vectors.GetVector(ctx, productID)
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
			sum[i] += w * v[i]
		}
		totalWeight += w
	}

	if sum == nil || totalWeight <= 0 {
		return nil, core.NewDomainError(core.ModulePrefs, core.ErrorCodeDataUnavailable,
			"no embeddable interactions for user: "+userID)
	}

	for i := range sum {
		sum[i] /= totalWeight
	}
	l2Normalize(sum)

	// 4. 派生元信息：类目排行与价格区间
	pv := &core.PreferenceVector{
		UserID:           userID,
		Vector:           sum,
		TopCategories:    topCategories(entries, a.topCategories()),
		InteractionCount: len(entries),
		TotalWeight:      totalWeight,
		UpdatedAt:        now,
	}
	pv.PriceMinCents, pv.PriceMaxCents = a.priceRange(ctx, order, productWeights)

	return pv, nil
}

// clipNegatives 按类目缩放负权重：neg > pos 的类目，全部负权重乘 pos/neg。
// 只削弱、不反转，缩放系数只依赖类目汇总，与遍历顺序无关。
func clipNegatives(entries []weighted) {
	pos := make(map[string]float64)
	neg := make(map[string]float64)
	for _, e := range entries {
		if e.weight >= 0 {
			pos[e.category] += e.weight
		} else {
			neg[e.category] += -e.weight
		}
	}

	for i := range entries {
		e := &entries[i]
		if e.weight >= 0 {
			continue
		}
		p, n := pos[e.category], neg[e.category]
		if n > p {
			if n == 0 {
				e.weight = 0
				continue
			}
			e.weight *= p / n
		}
	}
}

// topCategories 返回加权质量最高的类目（降序，同权按名称升序）。
func topCategories(entries []weighted, k int) []string {
	sums := make(map[string]float64)
	for _, e := range entries {
		sums[e.category] += e.weight
	}

	type catWeight struct {
		name   string
		weight float64
	}
	list := make([]catWeight, 0, len(sums))
	for name, w := range sums {
		if w <= 0 {
			continue
		}
		list = append(list, catWeight{name: name, weight: w})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].weight != list[j].weight {
			return list[i].weight > list[j].weight
		}
		return list[i].name < list[j].name
	})

	if len(list) > k {
		list = list[:k]
	}
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.name
	}
	return out
}

// priceRange 取净权重为正的商品的价格区间（分）。
func (a *Aggregator) priceRange(ctx context.Context, order []string, weights map[string]float64) (minCents, maxCents int64) {
	if a.Catalog == nil {
		return 0, 0
	}
	for _, productID := range order {
		if weights[productID] <= 0 {
			continue
		}
		p, err := a.Catalog.GetProduct(ctx, productID)
		if err != nil || p.PriceCents <= 0 {
			continue
		}
		if minCents == 0 || p.PriceCents < minCents {
			minCents = p.PriceCents
		}
		if p.PriceCents > maxCents {
			maxCents = p.PriceCents
		}
	}
	return minCents, maxCents
}

// l2Normalize 原地做 L2 归一化，零向量保持不变。
func l2Normalize(v []float64) {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
}

func (a *Aggregator) decayDays() float64 {
	if a.DecayDays <= 0 {
		return 30
	}
	return a.DecayDays
}

func (a *Aggregator) lookbackDays() int {
	if a.LookbackDays <= 0 {
		return 90
	}
	return a.LookbackDays
}

func (a *Aggregator) topCategories() int {
	if a.TopCategories <= 0 {
		return 5
	}
	return a.TopCategories
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Aggregator) logger() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return zap.NewNop()
}
