package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/shoprec/core"
)

// MemoryOrderStore 是内存实现的共购统计：按已完成订单累积商品两两共现计数。
type MemoryOrderStore struct {
	mu     sync.RWMutex
	counts map[string]map[string]int // product -> co-purchased product -> frequency
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		counts: make(map[string]map[string]int),
	}
}

// AddOrder 录入一笔已完成订单的商品集合，累加两两共现计数。
func (m *MemoryOrderStore) AddOrder(productIDs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, a := range productIDs {
		for j, b := range productIDs {
			if i == j || a == b {
				continue
			}
			if m.counts[a] == nil {
				m.counts[a] = make(map[string]int)
			}
			m.counts[a][b]++
		}
	}
}

func (m *MemoryOrderStore) CoPurchased(ctx context.Context, productID string, limit int) ([]core.CoPurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.counts[productID]
	if !ok || len(row) == 0 {
		return nil, nil
	}

	out := make([]core.CoPurchase, 0, len(row))
	for id, freq := range row {
		out = append(out, core.CoPurchase{ProductID: id, Frequency: freq})
	}

	// 频次降序，同频按 ID 升序（可复现）
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].ProductID < out[j].ProductID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ core.OrderStore = (*MemoryOrderStore)(nil)
