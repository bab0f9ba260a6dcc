package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rushteam/shoprec/core"
)

// MemoryPreferenceStore 是内存实现的用户偏好存储。
//
// 并发约定：PutPreference 持写锁整体替换指针，读方要么拿到旧版本、
// 要么拿到新版本，不会观察到半写状态。
type MemoryPreferenceStore struct {
	mu        sync.RWMutex
	dimension int
	prefs     map[string]*core.PreferenceVector
}

// NewMemoryPreferenceStore 创建偏好存储，dimension 与商品向量维度一致。
func NewMemoryPreferenceStore(dimension int) *MemoryPreferenceStore {
	return &MemoryPreferenceStore{
		dimension: dimension,
		prefs:     make(map[string]*core.PreferenceVector),
	}
}

func (m *MemoryPreferenceStore) GetPreference(ctx context.Context, userID string) (*core.PreferenceVector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pv, ok := m.prefs[userID]
	if !ok {
		return nil, core.NewDomainError(core.ModulePrefs, core.ErrorCodeNotFound,
			"preference not found: "+userID)
	}
	return pv, nil
}

func (m *MemoryPreferenceStore) PutPreference(ctx context.Context, pv *core.PreferenceVector) error {
	if pv == nil || pv.UserID == "" {
		return core.NewDomainError(core.ModulePrefs, core.ErrorCodeInvalidRequest,
			"preference must carry a user id")
	}
	if len(pv.Vector) != m.dimension {
		return core.NewDomainError(core.ModulePrefs, core.ErrorCodeConsistency,
			fmt.Sprintf("preference dimension mismatch: want %d, got %d", m.dimension, len(pv.Vector)))
	}

	// 深拷贝后整体替换，已发出的旧指针不受影响
	cp := *pv
	cp.Vector = make([]float64, len(pv.Vector))
	copy(cp.Vector, pv.Vector)
	cp.TopCategories = append([]string(nil), pv.TopCategories...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[pv.UserID] = &cp
	return nil
}

func (m *MemoryPreferenceStore) SimilarUsers(ctx context.Context, vector []float64, k int) ([]core.VectorMatch, error) {
	if len(vector) != m.dimension {
		return nil, core.NewDomainError(core.ModulePrefs, core.ErrorCodeConsistency,
			fmt.Sprintf("query vector dimension mismatch: want %d, got %d", m.dimension, len(vector)))
	}
	if k <= 0 {
		k = 10
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]core.VectorMatch, 0, len(m.prefs))
	for userID, pv := range m.prefs {
		matches = append(matches, core.VectorMatch{
			ID:         userID,
			Similarity: CosineSimilarity(vector, pv.Vector),
		})
	}

	sortMatches(matches)

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

var _ core.PreferenceStore = (*MemoryPreferenceStore)(nil)
