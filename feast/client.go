// Package feast 封装 Feast Feature Server 的在线特征访问，
// 并通过 Adapter 把它适配成领域层的 core.FeatureService。
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征客户端的领域接口。
//
// 设计原则（DDD）：
//   - 领域层：Client 接口保持不变
//   - 基础设施层：GrpcClient 实现 Client 接口
//   - 高内聚低耦合：通过接口抽象，可以替换实现
type Client interface {
	// GetOnlineFeatures 获取在线特征
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表，如 ["product_stats:ctr_7d", "product_stats:trending_score"]
	Features []string

	// EntityRows 实体行，如 [{"product_id": "p1"}, {"product_id": "p2"}]
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，默认取客户端配置）
	Project string
}

// FeatureVector 单个实体的特征向量。
type FeatureVector struct {
	Values    map[string]interface{}
	EntityRow map[string]interface{}
}

// GetOnlineFeaturesResponse 在线特征响应，行序与请求的 EntityRows 一致。
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// ClientConfig 客户端配置。
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
}

// ClientOption 配置选项函数。
type ClientOption func(*ClientConfig)

// WithTimeout 设置请求超时。
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}
