package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/shoprec/core"
)

// MemoryCatalog 是内存实现的商品目录，用于测试/开发/原型。
// 引擎只消费只读视图，目录的 source-of-truth 在电商主站侧。
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]*core.Product
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		products: make(map[string]*core.Product),
	}
}

// PutProduct 写入/覆盖一个商品（目录同步入口）。
func (m *MemoryCatalog) PutProduct(p *core.Product) {
	if p == nil || p.ID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *MemoryCatalog) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound,
			"product not found: "+id)
	}
	return p, nil
}

func (m *MemoryCatalog) ListProducts(ctx context.Context) ([]*core.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	// 按 ID 升序，遍历顺序可复现
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ core.Catalog = (*MemoryCatalog)(nil)
