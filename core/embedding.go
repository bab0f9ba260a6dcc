package core

import "context"

// VectorMatch 是一条相似度检索结果。
type VectorMatch struct {
	ID         string
	Similarity float64 // 余弦相似度
}

// EmbeddingStore 是商品内容向量存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 固定维度：与声明维度不符的向量在写入时拒绝（CONSISTENCY_VIOLATION），
//     而不是在读取时静默容忍
//
// 实现：
//   - store.MemoryVectorStore 实现此接口
//   - 向量数据库（Milvus、pgvector 等）也可以实现此接口
type EmbeddingStore interface {
	// Dimension 返回向量维度（如 384）
	Dimension() int

	// GetVector 获取商品向量；无向量返回 NOT_FOUND
	GetVector(ctx context.Context, productID string) ([]float64, error)

	// PutVector 写入商品向量；维度不符返回 CONSISTENCY_VIOLATION
	PutVector(ctx context.Context, productID string, vector []float64) error

	// Similar 按查询向量检索 TopK 相似商品（降序）
	Similar(ctx context.Context, vector []float64, k int) ([]VectorMatch, error)
}

// Embedder 是文本向量化模型的最小抽象（黑盒）。
// 具体实现可以是远程推理服务（见 service.EmbeddingClient）或本地模型。
type Embedder interface {
	// Embed 将一段文本编码为固定维度向量
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CrossScorer 是 query-document 成对相关性模型的最小抽象（黑盒）。
// 重排阶段消费：score(query, document) -> float。
// 服务不可用属于增强降级，不是硬依赖。
type CrossScorer interface {
	// ScorePairs 对同一 query 与一批 document 打分，返回与 docs 等长的分数
	ScorePairs(ctx context.Context, query string, docs []string) ([]float64, error)
}

// FeatureService 是在线特征服务的领域接口（实时分量信号的补充来源）。
//
// 实现：
//   - feast.Adapter 基于 Feast Feature Server 实现此接口
type FeatureService interface {
	// GetProductFeatures 批量获取商品的在线特征
	// 返回 map[productID]map[featureName]value
	GetProductFeatures(ctx context.Context, productIDs []string, features []string) (map[string]map[string]float64, error)
}
