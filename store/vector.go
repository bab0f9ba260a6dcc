package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rushteam/shoprec/core"
)

// MemoryVectorStore 是内存实现的商品向量存储，用于测试/开发/原型。
// 平替 Milvus / pgvector 等向量数据库，暴力扫描 + 余弦相似度。
//
// 特点：
//   - 固定维度：写入时校验，不符即拒绝（CONSISTENCY_VIOLATION）
//   - 检索结果按相似度降序，同分按 ID 升序（可复现）
//   - 线程安全
type MemoryVectorStore struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[string][]float64 // product ID -> vector
}

// NewMemoryVectorStore 创建内存向量存储，dimension 为声明维度（如 384）。
func NewMemoryVectorStore(dimension int) *MemoryVectorStore {
	return &MemoryVectorStore{
		dimension: dimension,
		vectors:   make(map[string][]float64),
	}
}

func (m *MemoryVectorStore) Dimension() int { return m.dimension }

func (m *MemoryVectorStore) GetVector(ctx context.Context, productID string) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.vectors[productID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeNotFound,
			"vector not found: "+productID)
	}
	return v, nil
}

func (m *MemoryVectorStore) PutVector(ctx context.Context, productID string, vector []float64) error {
	if len(vector) != m.dimension {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeConsistency,
			fmt.Sprintf("vector dimension mismatch: want %d, got %d", m.dimension, len(vector)))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]float64, len(vector))
	copy(cp, vector)
	m.vectors[productID] = cp
	return nil
}

func (m *MemoryVectorStore) Similar(ctx context.Context, vector []float64, k int) ([]core.VectorMatch, error) {
	if len(vector) != m.dimension {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeConsistency,
			fmt.Sprintf("query vector dimension mismatch: want %d, got %d", m.dimension, len(vector)))
	}
	if k <= 0 {
		k = 10
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]core.VectorMatch, 0, len(m.vectors))
	for id, v := range m.vectors {
		matches = append(matches, core.VectorMatch{
			ID:         id,
			Similarity: CosineSimilarity(vector, v),
		})
	}

	sortMatches(matches)

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// sortMatches 按相似度降序，同分按 ID 升序。
func sortMatches(matches []core.VectorMatch) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})
}

// CosineSimilarity 计算余弦相似度，零向量返回 0。
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ core.EmbeddingStore = (*MemoryVectorStore)(nil)
