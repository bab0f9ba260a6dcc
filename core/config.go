package core

import "time"

// EngineConfig 是引擎的显式配置结构：混合权重、池大小等全部在构造时传入，
// 不使用进程级可变全局状态。
type EngineConfig struct {
	// 混合打分权重（α, β, γ），要求非负；建议和为 1 以便解释分数
	ContentWeight       float64
	CollaborativeWeight float64
	PopularityWeight    float64

	// CandidatePool 内容召回的池大小
	CandidatePool int

	// SimilarUsers 协同召回考虑的相似用户数
	SimilarUsers int

	// RerankTopK 进入重排的候选条数（刻意小于候选池以控制成本）
	RerankTopK int

	// DiversityLimit 单一类目在结果中的最大条数
	DiversityLimit int

	// RecencyDecayDays 时间衰减因子：weight = base × exp(-age_days / decay)
	RecencyDecayDays float64

	// LookbackDays 偏好聚合的回看窗口（天）
	LookbackDays int

	// MinInteractions 批量聚合时构建偏好的最小行为数
	MinInteractions int

	// TopCategories 偏好元信息保留的类目数
	TopCategories int

	// CacheTTL 结果缓存存活时间（分钟级；偏好更新后缓存最多再存活一个 TTL）
	CacheTTL time.Duration

	// RecallTimeout 单个召回源的超时
	RecallTimeout time.Duration

	// RerankTimeout 重排调用的超时，超时后回退融合分排序
	RerankTimeout time.Duration

	// 各场景默认 limit（调用方未指定时使用）
	DefaultLimits map[Scene]int
}

// DefaultEngineConfig 返回默认配置。
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ContentWeight:       0.5,
		CollaborativeWeight: 0.3,
		PopularityWeight:    0.2,
		CandidatePool:       50,
		SimilarUsers:        10,
		RerankTopK:          20,
		DiversityLimit:      3,
		RecencyDecayDays:    30,
		LookbackDays:        90,
		MinInteractions:     3,
		TopCategories:       5,
		CacheTTL:            5 * time.Minute,
		RecallTimeout:       2 * time.Second,
		RerankTimeout:       2 * time.Second,
		DefaultLimits: map[Scene]int{
			SceneHomepage: 12,
			SceneProduct:  8,
			SceneCart:     6,
			SceneFBT:      4,
			SceneSearch:   20,
		},
	}
}

// Weights 返回 (α, β, γ) 三元组。
func (c EngineConfig) Weights() (alpha, beta, gamma float64) {
	return c.ContentWeight, c.CollaborativeWeight, c.PopularityWeight
}

// LimitFor 返回场景的有效 limit：调用方未指定时取场景默认值。
func (c EngineConfig) LimitFor(scene Scene, requested int) int {
	if requested > 0 {
		return requested
	}
	if n, ok := c.DefaultLimits[scene]; ok {
		return n
	}
	return 12
}
