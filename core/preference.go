package core

import (
	"context"
	"time"
)

// PreferenceVector 是单个用户的偏好向量及派生元信息。
// 每次聚合都是基于完整行为历史的全量重算（幂等），不做增量修补，
// 保证与账本始终一致、不产生漂移。
type PreferenceVector struct {
	UserID string

	// Vector 内容空间的偏好向量（与商品 embedding 同维度，L2 归一化）
	Vector []float64

	// TopCategories 加权质量最高的类目（降序，最多 5 个）
	TopCategories []string

	// 价格区间（分）：0 表示无数据
	PriceMinCents int64
	PriceMaxCents int64

	// InteractionCount 参与聚合的行为条数
	InteractionCount int

	// TotalWeight 聚合的总加权质量（裁剪后）
	TotalWeight float64

	UpdatedAt time.Time
}

// PreferenceStore 是偏好向量存储的领域接口。
//
// 并发约定：PutPreference 必须按用户整体原子替换，读方要么看到旧向量、
// 要么看到新向量，绝不允许观察到半写状态。维度不符在写入时拒绝。
type PreferenceStore interface {
	// GetPreference 获取用户偏好；无偏好（冷启动）返回 NOT_FOUND
	GetPreference(ctx context.Context, userID string) (*PreferenceVector, error)

	// PutPreference 原子替换用户偏好（全量覆盖）
	PutPreference(ctx context.Context, pv *PreferenceVector) error

	// SimilarUsers 按偏好向量检索最相近的其他用户
	SimilarUsers(ctx context.Context, vector []float64, k int) ([]VectorMatch, error)
}
